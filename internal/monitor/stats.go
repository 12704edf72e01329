package monitor

import "time"

// StudentRecord accumulates per-identity session statistics. Created lazily
// on the first successful match, never at training time, so a registered
// but absent student produces no record at all.
type StudentRecord struct {
	FocusedCount   int      `json:"focused_count"`
	UnfocusedCount int      `json:"unfocused_count"`
	TotalChecks    int      `json:"total_checks"`
	MobileDetected int      `json:"mobile_detected"`
	MobileTimes    []string `json:"mobile_times"`
	Alerts         []string `json:"alerts"`
}

// StatsBook owns every StudentRecord of a session. It is mutated only from
// the synchronous capture loop, one Observe per matched face per frame, so
// it needs no locking.
type StatsBook struct {
	records map[string]*StudentRecord
}

func NewStatsBook() *StatsBook {
	return &StatsBook{records: make(map[string]*StudentRecord)}
}

// Observe applies one statistics update: total_checks always increments and
// exactly one of focused/unfocused does, keeping the
// total == focused + unfocused invariant by construction. When mobile is
// set the frame-wide phone signal is charged to this identity with the
// observation timestamp.
func (b *StatsBook) Observe(name string, focused bool, mobile bool, at time.Time) {
	rec, ok := b.records[name]
	if !ok {
		rec = &StudentRecord{MobileTimes: []string{}, Alerts: []string{}}
		b.records[name] = rec
	}
	rec.TotalChecks++
	if focused {
		rec.FocusedCount++
	} else {
		rec.UnfocusedCount++
	}
	if mobile {
		rec.MobileDetected++
		rec.MobileTimes = append(rec.MobileTimes, at.Format("15:04:05"))
	}
}

// Record returns the record for name, or nil when the student was never
// observed.
func (b *StatsBook) Record(name string) *StudentRecord {
	return b.records[name]
}

// Records returns a shallow snapshot of the book. Record pointers are
// shared; callers must not mutate them.
func (b *StatsBook) Records() map[string]*StudentRecord {
	out := make(map[string]*StudentRecord, len(b.records))
	for k, v := range b.records {
		out[k] = v
	}
	return out
}

// Len is the number of students observed so far.
func (b *StatsBook) Len() int { return len(b.records) }
