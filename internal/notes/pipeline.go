package notes

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/VasiKumar/ClassAI/internal/pkg/logger"
)

const (
	doneSuffix         = ".done"
	defaultPollEvery   = 2 * time.Second
	defaultConcurrency = 2
)

// Transcriber recognizes one audio chunk. gcp.Transcriber satisfies it.
type Transcriber interface {
	TranscribeChunk(ctx context.Context, audio []byte) (string, error)
}

// Options configures a Pipeline.
type Options struct {
	SpoolDir  string
	OutDir    string
	SessionID string
	StopFile  string

	PollEvery   time.Duration
	Concurrency int
}

// Pipeline watches a spool directory for WAV chunks, transcribes each one,
// and writes the assembled notes document when stopped. Processed chunks
// are renamed with a .done suffix so a restarted pipeline skips them.
type Pipeline struct {
	opts  Options
	trans Transcriber
	log   *logger.Logger
	clock func() time.Time

	mu       sync.Mutex
	segments map[string]Segment
}

func NewPipeline(opts Options, trans Transcriber, log *logger.Logger) *Pipeline {
	if opts.PollEvery <= 0 {
		opts.PollEvery = defaultPollEvery
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = defaultConcurrency
	}
	if log == nil {
		log = logger.NewNop()
	}
	return &Pipeline{
		opts:     opts,
		trans:    trans,
		log:      log.With("service", "NotesPipeline"),
		clock:    time.Now,
		segments: make(map[string]Segment),
	}
}

// WithClock overrides the time source.
func (p *Pipeline) WithClock(clock func() time.Time) *Pipeline {
	p.clock = clock
	return p
}

// Run polls the spool directory until the context is canceled or the stop
// file appears, then drains remaining chunks and writes the notes document.
// It returns the written file path.
func (p *Pipeline) Run(ctx context.Context) (string, error) {
	ticker := time.NewTicker(p.opts.PollEvery)
	defer ticker.Stop()

	for {
		if err := p.drain(ctx); err != nil {
			p.log.Warn("Chunk pass failed", "error", err)
		}
		if p.stopRequested() {
			break
		}
		select {
		case <-ctx.Done():
			return p.finish()
		case <-ticker.C:
		}
	}

	// One last pass picks up chunks dropped just before the stop signal.
	if err := p.drain(ctx); err != nil {
		p.log.Warn("Final chunk pass failed", "error", err)
	}
	return p.finish()
}

func (p *Pipeline) stopRequested() bool {
	if p.opts.StopFile == "" {
		return false
	}
	if _, err := os.Stat(p.opts.StopFile); err != nil {
		return false
	}
	if err := os.Remove(p.opts.StopFile); err != nil {
		p.log.Warn("Could not remove stop file", "path", p.opts.StopFile, "error", err)
	}
	p.log.Info("Stop file detected", "path", p.opts.StopFile)
	return true
}

// drain transcribes every pending chunk currently in the spool directory.
func (p *Pipeline) drain(ctx context.Context) error {
	pending, err := p.pendingChunks()
	if err != nil {
		return err
	}
	if len(pending) == 0 {
		return nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.opts.Concurrency)
	for _, chunk := range pending {
		chunk := chunk
		g.Go(func() error {
			p.processChunk(gctx, chunk)
			return nil
		})
	}
	return g.Wait()
}

func (p *Pipeline) pendingChunks() ([]string, error) {
	entries, err := os.ReadDir(p.opts.SpoolDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var chunks []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if !strings.HasSuffix(strings.ToLower(name), ".wav") {
			continue
		}
		chunks = append(chunks, filepath.Join(p.opts.SpoolDir, name))
	}
	sort.Strings(chunks)
	return chunks, nil
}

func (p *Pipeline) processChunk(ctx context.Context, path string) {
	name := filepath.Base(path)
	audio, err := os.ReadFile(path)
	if err != nil {
		p.log.Warn("Could not read chunk", "chunk", name, "error", err)
		return
	}

	text, err := p.trans.TranscribeChunk(ctx, audio)
	if err != nil {
		// Leave the chunk in place; the next pass retries it.
		p.log.Warn("Transcription failed", "chunk", name, "error", err)
		return
	}

	p.mu.Lock()
	p.segments[name] = Segment{
		Chunk:         name,
		Text:          text,
		TranscribedAt: p.clock().Format(time.RFC3339),
	}
	p.mu.Unlock()

	if err := os.Rename(path, path+doneSuffix); err != nil {
		p.log.Warn("Could not mark chunk done", "chunk", name, "error", err)
	}
	p.log.Info("Chunk transcribed", "chunk", name, "chars", len(text))
}

func (p *Pipeline) finish() (string, error) {
	p.mu.Lock()
	ordered := make([]Segment, 0, len(p.segments))
	for _, s := range p.segments {
		ordered = append(ordered, s)
	}
	p.mu.Unlock()
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].Chunk < ordered[j].Chunk })

	doc := Build(p.opts.SessionID, ordered, p.clock())
	path, err := writeAtomic(p.opts.OutDir, FileName(p.opts.SessionID), doc)
	if err != nil {
		return "", err
	}
	p.log.Info("Class notes written", "path", path, "segments", len(ordered))
	return path, nil
}
