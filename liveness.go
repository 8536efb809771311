package amon

import (
	"fmt"
	"time"
)

type Severity string

const (
	SeveritySuccess Severity = "success"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

type Liveness struct {
	Severity Severity `json:"severity"`
	Label    string   `json:"label"`
}

//Classify buckets a device by the time since its last report. A last seen
//timestamp in the future counts as just seen.
func Classify(last_seen time.Time, now time.Time) Severity {
	age := now.Sub(last_seen)

	if age < 5*time.Minute {
		return SeveritySuccess
	}

	if age < 30*time.Minute {
		return SeverityWarning
	}

	return SeverityError
}

//Humanize renders the age of a last seen timestamp the way the dashboard
//displays it. Thresholds are independent of the Classify buckets and the
//labels are never special cased for singular values.
func Humanize(last_seen time.Time, now time.Time) string {
	age := now.Sub(last_seen)

	minutes := int(age.Minutes())

	if minutes < 1 {
		return "Online"
	}

	if minutes < 60 {
		return fmt.Sprintf("%d minutes ago", minutes)
	}

	hours := minutes / 60
	if hours < 24 {
		return fmt.Sprintf("%d hours ago", hours)
	}

	return fmt.Sprintf("%d days ago", hours/24)
}

func ClassifyDevice(d Device, now time.Time) Liveness {
	return Liveness{
		Severity: Classify(d.LastSeen, now),
		Label:    Humanize(d.LastSeen, now),
	}
}
