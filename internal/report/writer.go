package report

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/VasiKumar/ClassAI/internal/monitor"
	"github.com/VasiKumar/ClassAI/internal/pkg/logger"
)

// FilePrefix is the deterministic report name prefix; the timestamp suffix
// lets consumers sort and pick the latest session.
const FilePrefix = "focus_report_"

const nameTimeLayout = "20060102_150405"

// Uploader archives a saved report to remote storage. Optional and
// best-effort.
type Uploader interface {
	Upload(ctx context.Context, localPath, objectName string) error
}

// Writer persists reports. It implements monitor.Reporter: the primary
// write is atomic (temp file then rename) so a partially written file is
// never visible under the final name; on failure one fallback write into
// the system temp directory is attempted. A successful save is followed by
// best-effort store indexing and remote upload, whose failures are logged
// and never escalated.
type Writer struct {
	dir           string
	fallbackDir   string
	duration      int
	threshold     int
	mobileEnabled bool
	sessionID     string
	clock         func() time.Time
	store         *Store
	uploader      Uploader
	log           *logger.Logger
}

type WriterConfig struct {
	Dir             string
	FallbackDir     string
	DurationSec     int
	ThresholdPct    int
	MobileDetection bool
	SessionID       string
}

func NewWriter(cfg WriterConfig, store *Store, uploader Uploader, log *logger.Logger) *Writer {
	if log == nil {
		log = logger.NewNop()
	}
	if cfg.Dir == "" {
		cfg.Dir = "."
	}
	if cfg.FallbackDir == "" {
		cfg.FallbackDir = os.TempDir()
	}
	return &Writer{
		dir:           cfg.Dir,
		fallbackDir:   cfg.FallbackDir,
		duration:      cfg.DurationSec,
		threshold:     cfg.ThresholdPct,
		mobileEnabled: cfg.MobileDetection,
		sessionID:     cfg.SessionID,
		clock:         time.Now,
		store:         store,
		uploader:      uploader,
		log:           log.With("service", "ReportWriter"),
	}
}

// WithClock overrides the timestamp source for deterministic file names in
// tests.
func (w *Writer) WithClock(clock func() time.Time) *Writer {
	w.clock = clock
	return w
}

// Generate builds the report from the session records and persists it,
// returning the path of the written artifact.
func (w *Writer) Generate(students map[string]*monitor.StudentRecord) (string, error) {
	now := w.clock()
	rep := Build(students, w.duration, w.threshold, w.mobileEnabled, w.sessionID, now)

	name := FilePrefix + now.Format(nameTimeLayout) + ".json"
	path := filepath.Join(w.dir, name)
	if err := writeAtomic(path, rep); err != nil {
		w.log.Error("Primary report write failed, trying fallback", "path", path, "error", err)
		backupName := FilePrefix + "backup_" + now.Format(nameTimeLayout) + ".json"
		backupPath := filepath.Join(w.fallbackDir, backupName)
		if berr := writeAtomic(backupPath, rep); berr != nil {
			w.log.Error("Fallback report write failed", "path", backupPath, "error", berr)
			return "", fmt.Errorf("report write failed (primary: %v): %w", err, berr)
		}
		w.log.Warn("Report saved to fallback location", "path", backupPath)
		w.index(rep, backupName)
		return backupPath, nil
	}

	w.log.Info("Report saved", "path", path, "students", len(rep.Students))
	w.index(rep, name)
	w.archive(path, name)
	return path, nil
}

func (w *Writer) index(rep *Report, fileName string) {
	if w.store == nil {
		return
	}
	if err := w.store.Save(rep, fileName); err != nil {
		w.log.Warn("Report index insert failed", "file", fileName, "error", err)
	}
}

func (w *Writer) archive(path, objectName string) {
	if w.uploader == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := w.uploader.Upload(ctx, path, objectName); err != nil {
		w.log.Warn("Report archive upload failed", "object", objectName, "error", err)
	}
}

func writeAtomic(path string, rep *Report) error {
	b, err := json.MarshalIndent(rep, "", "    ")
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".report-*")
	if err != nil {
		return fmt.Errorf("create temp report: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(b); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write temp report: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close temp report: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("rename report: %w", err)
	}
	return nil
}
