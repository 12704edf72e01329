package report

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/VasiKumar/ClassAI/internal/monitor"
)

func fixedClock() func() time.Time {
	at := time.Date(2026, 3, 14, 10, 30, 45, 0, time.UTC)
	return func() time.Time { return at }
}

func oneStudent() map[string]*monitor.StudentRecord {
	return map[string]*monitor.StudentRecord{
		"alice": {FocusedCount: 3, UnfocusedCount: 1, TotalChecks: 4, MobileTimes: []string{}, Alerts: []string{}},
	}
}

func TestGenerate_WritesTimestampedReport(t *testing.T) {
	dir := t.TempDir()
	w := NewWriter(WriterConfig{
		Dir:          dir,
		DurationSec:  300,
		ThresholdPct: 50,
		SessionID:    "sess-1",
	}, nil, nil, nil).WithClock(fixedClock())

	path, err := w.Generate(oneStudent())
	if err != nil {
		t.Fatalf("generate failed: %v", err)
	}
	if filepath.Base(path) != "focus_report_20260314_103045.json" {
		t.Fatalf("unexpected report name %s", filepath.Base(path))
	}

	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read report: %v", err)
	}
	var rep Report
	if err := json.Unmarshal(b, &rep); err != nil {
		t.Fatalf("parse report: %v", err)
	}
	if rep.SessionID != "sess-1" || rep.Duration != 300 {
		t.Fatalf("unexpected report %+v", rep)
	}
	if rep.Students["alice"].FocusPercentage != 75 {
		t.Fatalf("unexpected focus percentage %v", rep.Students["alice"].FocusPercentage)
	}

	// The atomic write must leave no temp files behind.
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected only the report in %s, found %d entries", dir, len(entries))
	}
}

func TestGenerate_FallsBackWhenPrimaryDirUnwritable(t *testing.T) {
	fallback := t.TempDir()
	w := NewWriter(WriterConfig{
		Dir:         filepath.Join(t.TempDir(), "missing", "deeper"),
		FallbackDir: fallback,
		DurationSec: 60,
	}, nil, nil, nil).WithClock(fixedClock())

	path, err := w.Generate(oneStudent())
	if err != nil {
		t.Fatalf("expected fallback write to succeed, got %v", err)
	}
	if filepath.Dir(path) != fallback {
		t.Fatalf("expected report under fallback dir, got %s", path)
	}
	if !strings.HasPrefix(filepath.Base(path), FilePrefix+"backup_") {
		t.Fatalf("unexpected fallback name %s", filepath.Base(path))
	}
}

func TestGenerate_FailsWhenBothLocationsUnwritable(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "nope")
	w := NewWriter(WriterConfig{
		Dir:         filepath.Join(missing, "a"),
		FallbackDir: filepath.Join(missing, "b"),
	}, nil, nil, nil).WithClock(fixedClock())

	if _, err := w.Generate(oneStudent()); err == nil {
		t.Fatalf("expected error when both locations fail")
	}
}

func TestGenerate_IndexesReportInStore(t *testing.T) {
	dir := t.TempDir()
	store, err := NewStore(filepath.Join(dir, "reports.db"), nil)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	w := NewWriter(WriterConfig{
		Dir:       dir,
		SessionID: "sess-2",
	}, store, nil, nil).WithClock(fixedClock())

	path, err := w.Generate(oneStudent())
	if err != nil {
		t.Fatalf("generate failed: %v", err)
	}

	row, err := store.GetByName(filepath.Base(path))
	if err != nil {
		t.Fatalf("report not indexed: %v", err)
	}
	if row.SessionID != "sess-2" {
		t.Fatalf("unexpected row %+v", row)
	}

	rows, err := store.List(0)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected 1 indexed session got %d", len(rows))
	}
}
