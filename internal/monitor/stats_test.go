package monitor

import (
	"testing"
	"time"
)

func TestObserve_KeepsCheckInvariant(t *testing.T) {
	b := NewStatsBook()
	now := time.Date(2026, 3, 14, 10, 30, 0, 0, time.UTC)

	b.Observe("alice", true, false, now)
	b.Observe("alice", false, false, now)
	b.Observe("alice", true, false, now)

	rec := b.Record("alice")
	if rec == nil {
		t.Fatalf("expected record for alice")
	}
	if rec.TotalChecks != 3 {
		t.Fatalf("expected 3 checks got %d", rec.TotalChecks)
	}
	if rec.FocusedCount+rec.UnfocusedCount != rec.TotalChecks {
		t.Fatalf("focused+unfocused=%d, total=%d",
			rec.FocusedCount+rec.UnfocusedCount, rec.TotalChecks)
	}
	if rec.FocusedCount != 2 || rec.UnfocusedCount != 1 {
		t.Fatalf("expected 2/1 got %d/%d", rec.FocusedCount, rec.UnfocusedCount)
	}
}

func TestObserve_CreatesRecordsLazily(t *testing.T) {
	b := NewStatsBook()
	if b.Len() != 0 {
		t.Fatalf("expected empty book got %d records", b.Len())
	}
	if b.Record("bob") != nil {
		t.Fatalf("expected nil record before first observation")
	}

	b.Observe("bob", false, false, time.Now())
	if b.Len() != 1 {
		t.Fatalf("expected 1 record got %d", b.Len())
	}
	rec := b.Record("bob")
	if rec.MobileTimes == nil || rec.Alerts == nil {
		t.Fatalf("expected empty slices, not nil")
	}
	if len(rec.MobileTimes) != 0 || len(rec.Alerts) != 0 {
		t.Fatalf("expected no entries yet")
	}
}

func TestObserve_RecordsMobileTimestamps(t *testing.T) {
	b := NewStatsBook()
	at := time.Date(2026, 3, 14, 9, 5, 7, 0, time.UTC)

	b.Observe("carol", true, true, at)
	b.Observe("carol", false, true, at.Add(2*time.Second))
	b.Observe("carol", true, false, at.Add(4*time.Second))

	rec := b.Record("carol")
	if rec.MobileDetected != 2 {
		t.Fatalf("expected 2 mobile detections got %d", rec.MobileDetected)
	}
	if len(rec.MobileTimes) != 2 {
		t.Fatalf("expected 2 mobile times got %d", len(rec.MobileTimes))
	}
	if rec.MobileTimes[0] != "09:05:07" || rec.MobileTimes[1] != "09:05:09" {
		t.Fatalf("unexpected mobile times %v", rec.MobileTimes)
	}
}

func TestRecords_SnapshotsWithoutCopyingEntries(t *testing.T) {
	b := NewStatsBook()
	b.Observe("dave", true, false, time.Now())

	snap := b.Records()
	if len(snap) != 1 {
		t.Fatalf("expected 1 entry got %d", len(snap))
	}
	delete(snap, "dave")
	if b.Record("dave") == nil {
		t.Fatalf("deleting from the snapshot must not touch the book")
	}
}
