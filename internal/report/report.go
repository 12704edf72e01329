package report

import (
	"math"
	"time"

	"github.com/VasiKumar/ClassAI/internal/monitor"
)

// Student is the derived per-identity section of the report.
type Student struct {
	FocusPercentage float64  `json:"focus_percentage"`
	FocusedCount    int      `json:"focused_count"`
	UnfocusedCount  int      `json:"unfocused_count"`
	TotalChecks     int      `json:"total_checks"`
	MobileDetected  int      `json:"mobile_detected"`
	MobileTimes     []string `json:"mobile_times"`
	Alerts          []string `json:"alerts"`
}

// Report is the immutable end-of-session snapshot.
type Report struct {
	Timestamp              string             `json:"timestamp"`
	Duration               int                `json:"duration"`
	Threshold              int                `json:"threshold"`
	MobileDetectionEnabled bool               `json:"mobile_detection_enabled"`
	SessionID              string             `json:"session_id,omitempty"`
	Students               map[string]Student `json:"students"`
}

// FocusPercentage is focused/total as a percentage rounded to two decimals,
// zero when the student was never checked.
func FocusPercentage(focused, total int) float64 {
	if total == 0 {
		return 0
	}
	return math.Round(float64(focused)/float64(total)*100*100) / 100
}

// Build assembles the report value from the session's records and
// configuration.
func Build(students map[string]*monitor.StudentRecord, duration, threshold int, mobileEnabled bool, sessionID string, now time.Time) *Report {
	rep := &Report{
		Timestamp:              now.Format(time.RFC3339),
		Duration:               duration,
		Threshold:              threshold,
		MobileDetectionEnabled: mobileEnabled,
		SessionID:              sessionID,
		Students:               make(map[string]Student, len(students)),
	}
	for name, rec := range students {
		if rec == nil {
			continue
		}
		mobileTimes := rec.MobileTimes
		if mobileTimes == nil {
			mobileTimes = []string{}
		}
		alerts := rec.Alerts
		if alerts == nil {
			alerts = []string{}
		}
		rep.Students[name] = Student{
			FocusPercentage: FocusPercentage(rec.FocusedCount, rec.TotalChecks),
			FocusedCount:    rec.FocusedCount,
			UnfocusedCount:  rec.UnfocusedCount,
			TotalChecks:     rec.TotalChecks,
			MobileDetected:  rec.MobileDetected,
			MobileTimes:     mobileTimes,
			Alerts:          alerts,
		}
	}
	return rep
}
