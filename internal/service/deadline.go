package service

import (
	"fmt"
	"time"

	"github.com/makeyourchoice/electives-api/internal/models"
)

// DeadlinePassedDisplay is shown whenever the submission window is closed,
// including when no deadline is on record at all.
const DeadlinePassedDisplay = "Deadline passed"

// ComputeDeadlineStatus evaluates a group's submission window at the given
// instant. A missing deadline counts as passed.
func ComputeDeadlineStatus(deadline *time.Time, now time.Time) models.DeadlineStatus {
	if deadline == nil {
		return models.DeadlineStatus{IsPassed: true, Display: DeadlinePassedDisplay}
	}

	millis := deadline.Sub(now).Milliseconds()
	if millis <= 0 {
		return models.DeadlineStatus{IsPassed: true, Deadline: deadline, Display: DeadlinePassedDisplay}
	}

	remaining := decomposeRemaining(millis)
	return models.DeadlineStatus{
		IsPassed:  false,
		Deadline:  deadline,
		Remaining: &remaining,
		Display:   FormatRemaining(remaining),
	}
}

// decomposeRemaining splits a positive millisecond count into calendar units.
func decomposeRemaining(millis int64) models.Remaining {
	return models.Remaining{
		Days:    int(millis / 86400000),
		Hours:   int(millis / 3600000 % 24),
		Minutes: int(millis / 60000 % 60),
		Seconds: int(millis / 1000 % 60),
	}
}

// FormatRemaining renders the coarsest nonzero unit and its immediate
// neighbour, e.g. "2 days 3 hours" or "5 minutes 12 seconds".
func FormatRemaining(r models.Remaining) string {
	switch {
	case r.Days > 0:
		return pluralize(r.Days, "day") + " " + pluralize(r.Hours, "hour")
	case r.Hours > 0:
		return pluralize(r.Hours, "hour") + " " + pluralize(r.Minutes, "minute")
	case r.Minutes > 0:
		return pluralize(r.Minutes, "minute") + " " + pluralize(r.Seconds, "second")
	default:
		return pluralize(r.Seconds, "second")
	}
}

func pluralize(n int, unit string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s", unit)
	}
	return fmt.Sprintf("%d %ss", n, unit)
}
