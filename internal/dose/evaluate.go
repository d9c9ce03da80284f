package dose

import "time"

// Evaluation partitions a dose list into actionable sets for one instant.
type Evaluation struct {
	Due    []Entry
	Missed []Entry
}

// Evaluate classifies every pending or snoozed entry against now. An entry
// is due when now sits inside the window that opens at its scheduled time
// today, and missed once that window has elapsed. Taken and already-missed
// entries are skipped entirely, which keeps repeated evaluation idempotent.
// The function is pure: same entries and now, same result, independent of
// entry order.
func Evaluate(entries []Entry, now time.Time, windowMinutes int) Evaluation {
	var ev Evaluation

	for _, entry := range entries {
		if entry.Status != StatusPending && entry.Status != StatusSnoozed {
			continue
		}

		diff := now.Sub(entry.Time.At(now)).Minutes()

		switch {
		case diff >= 0 && diff < float64(windowMinutes):
			ev.Due = append(ev.Due, entry)
		case diff >= float64(windowMinutes):
			ev.Missed = append(ev.Missed, entry)
		}
	}

	return ev
}
