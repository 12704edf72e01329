package monitor

import (
	"context"
	"fmt"
	"image"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/VasiKumar/ClassAI/internal/pkg/ctxutil"
	pkgerrors "github.com/VasiKumar/ClassAI/internal/pkg/errors"
	"github.com/VasiKumar/ClassAI/internal/pkg/logger"
)

// State is the session lifecycle position.
type State int

const (
	StateIdle State = iota
	StateTraining
	StateCapturing
	StateStopping
	StateReported
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateTraining:
		return "training"
	case StateCapturing:
		return "capturing"
	case StateStopping:
		return "stopping"
	case StateReported:
		return "reported"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Camera is the capture device. Read returns ok=false on a failed frame
// read, which terminates the session gracefully.
type Camera interface {
	Open() error
	Read() (image.Image, bool)
	Close() error
}

// Display shows annotated frames to the operator and polls for the
// interactive quit key. Nil display means headless operation.
type Display interface {
	Show(img image.Image)
	QuitRequested() bool
	Close() error
}

// FrameProcessor analyzes one frame and returns the annotated copy.
type FrameProcessor interface {
	ProcessFrame(ctx context.Context, frame image.Image, elapsed, total time.Duration) image.Image
}

// TrainFunc runs gallery training and returns the processor for the
// session. Invoked once, during the Idle -> Training transition.
type TrainFunc func(ctx context.Context) (FrameProcessor, error)

// Reporter materializes and persists the session report.
type Reporter interface {
	Generate(students map[string]*StudentRecord) (string, error)
}

// Options are the controller's loop parameters.
type Options struct {
	Duration time.Duration
	StopFile string
}

// Controller owns the session state machine:
//
//	Idle -> Training -> Capturing -> Stopping -> Reported
//
// with a terminal Failed state when the camera cannot be opened. The
// capture loop is single-threaded and synchronous; asynchronous triggers
// (signals, the sentinel stop file, a process-exit safety net) only set a
// flag or call the idempotent Finalize, never race an in-flight frame.
type Controller struct {
	camera   Camera
	display  Display
	train    TrainFunc
	stats    *StatsBook
	reporter Reporter
	opts     Options
	clock    func() time.Time
	log      *logger.Logger

	proc       FrameProcessor
	shouldStop atomic.Bool

	mu              sync.Mutex
	state           State
	captureStarted  bool
	reportGenerated bool
	reportPath      string
	startTime       time.Time
}

func New(camera Camera, display Display, train TrainFunc, stats *StatsBook, reporter Reporter, opts Options, log *logger.Logger) *Controller {
	if log == nil {
		log = logger.NewNop()
	}
	// A sentinel left behind by a previous session must not stop this one.
	if opts.StopFile != "" {
		_ = os.Remove(opts.StopFile)
	}
	return &Controller{
		camera:   camera,
		display:  display,
		train:    train,
		stats:    stats,
		reporter: reporter,
		opts:     opts,
		clock:    time.Now,
		log:      log.With("service", "SessionController"),
		state:    StateIdle,
	}
}

// WithClock overrides the wall clock. Tests use it to drive the duration
// check deterministically.
func (c *Controller) WithClock(clock func() time.Time) *Controller {
	c.clock = clock
	return c
}

// RequestStop asks the capture loop to terminate after the current frame.
// Safe to call from a signal handler goroutine; it only sets a flag.
func (c *Controller) RequestStop() {
	c.shouldStop.Store(true)
}

func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// ReportGenerated reports whether the one-shot report emission happened.
func (c *Controller) ReportGenerated() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.reportGenerated
}

// Run executes the full session: training, capture, graceful stop and
// report emission. It blocks until the session ends.
func (c *Controller) Run(ctx context.Context) error {
	ctx = ctxutil.Default(ctx)

	c.setState(StateTraining)
	proc, err := c.train(ctx)
	if err != nil {
		c.setState(StateFailed)
		return fmt.Errorf("gallery training: %w", err)
	}
	c.proc = proc

	if err := c.camera.Open(); err != nil {
		// Nothing was captured, so there is nothing to report.
		c.setState(StateFailed)
		return fmt.Errorf("%w: %v", pkgerrors.ErrCameraUnavailable, err)
	}
	c.mu.Lock()
	c.captureStarted = true
	c.state = StateCapturing
	c.mu.Unlock()

	c.log.Info("Monitoring started",
		"duration_s", int(c.opts.Duration.Seconds()),
		"stop_file", c.opts.StopFile,
	)

	c.captureLoop(ctx)

	c.setState(StateStopping)
	if err := c.camera.Close(); err != nil {
		c.log.Warn("Camera release failed", "error", err)
	}
	if c.display != nil {
		if err := c.display.Close(); err != nil {
			c.log.Warn("Display close failed", "error", err)
		}
	}

	path, err := c.Finalize()
	if err != nil {
		return err
	}
	if path != "" {
		c.log.Info("Report saved", "path", path)
	}
	return nil
}

func (c *Controller) captureLoop(ctx context.Context) {
	started := false
	for {
		frame, ok := c.camera.Read()
		if !ok {
			c.log.Warn("Frame read failed, stopping session")
			return
		}
		if !started {
			started = true
			c.mu.Lock()
			c.startTime = c.clock()
			c.mu.Unlock()
		}
		elapsed := c.clock().Sub(c.startTimeLocked())

		annotated := c.proc.ProcessFrame(ctx, frame, elapsed, c.opts.Duration)
		if c.display != nil {
			c.display.Show(annotated)
		}

		// Termination checks, in evaluated order.
		if elapsed >= c.opts.Duration {
			c.log.Info("Monitoring period completed")
			return
		}
		if c.display != nil && c.display.QuitRequested() {
			c.log.Info("Monitoring stopped by operator")
			return
		}
		if c.consumeStopFile() {
			c.log.Info("Monitoring stopped by external stop request")
			return
		}
		if c.shouldStop.Load() {
			c.log.Info("Monitoring stopped by termination signal")
			return
		}
		if ctx.Err() != nil {
			c.log.Info("Monitoring stopped by context cancellation")
			return
		}
	}
}

// Finalize emits the report exactly once. Every termination path funnels
// here: the normal loop exit, the signal path, and the process-exit safety
// net. Repeated calls are idempotent no-ops returning the original path.
// When the session never started capturing there is nothing to report and
// Finalize does nothing.
func (c *Controller) Finalize() (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.captureStarted {
		return "", nil
	}
	if c.reportGenerated {
		return c.reportPath, nil
	}
	c.reportGenerated = true

	path, err := c.reporter.Generate(c.stats.Records())
	if err != nil {
		c.log.Error("Report generation failed", "error", err)
		c.state = StateReported
		return "", err
	}
	c.reportPath = path
	c.state = StateReported
	return path, nil
}

func (c *Controller) consumeStopFile() bool {
	if c.opts.StopFile == "" {
		return false
	}
	if _, err := os.Stat(c.opts.StopFile); err != nil {
		return false
	}
	if err := os.Remove(c.opts.StopFile); err != nil {
		c.log.Warn("Could not remove stop file", "path", c.opts.StopFile, "error", err)
	}
	return true
}

func (c *Controller) setState(s State) {
	c.mu.Lock()
	c.state = s
	c.mu.Unlock()
}

func (c *Controller) startTimeLocked() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.startTime
}
