package dose

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// Status enumerates the lifecycle of a single scheduled dose within a day.
// pending and snoozed entries participate in due/missed evaluation; taken
// and missed are terminal for the day.
type Status string

const (
	StatusPending Status = "pending"
	StatusTaken   Status = "taken"
	StatusMissed  Status = "missed"
	StatusSnoozed Status = "snoozed"
)

// Valid reports whether s is one of the four known dose statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusTaken, StatusMissed, StatusSnoozed:
		return true
	}
	return false
}

// Terminal reports whether the status ends the dose's day.
func (s Status) Terminal() bool {
	return s == StatusTaken || s == StatusMissed
}

// TimeOfDay is a wall-clock time without a date component. Doses recur
// daily, so the date is always supplied by the caller at evaluation time.
type TimeOfDay struct {
	Hour   int
	Minute int
}

// ParseTimeOfDay parses "HH:MM" (24-hour). Single-digit hours are accepted
// since some clients send "8:00".
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	parts := strings.SplitN(strings.TrimSpace(s), ":", 2)
	if len(parts) != 2 {
		return TimeOfDay{}, errors.Errorf("invalid time of day %q", s)
	}

	hour, err := strconv.Atoi(parts[0])
	if err != nil {
		return TimeOfDay{}, errors.Wrapf(err, "invalid hour in %q", s)
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil {
		return TimeOfDay{}, errors.Wrapf(err, "invalid minute in %q", s)
	}

	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return TimeOfDay{}, errors.Errorf("time of day %q out of range", s)
	}

	return TimeOfDay{Hour: hour, Minute: minute}, nil
}

// String renders the canonical zero-padded wire form.
func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute)
}

// At anchors the time of day to the calendar date of ref, in ref's
// location. An entry whose time has already passed still anchors to
// ref's date; rollover to the next day is the notification planner's
// concern, never the evaluator's.
func (t TimeOfDay) At(ref time.Time) time.Time {
	return time.Date(ref.Year(), ref.Month(), ref.Day(), t.Hour, t.Minute, 0, 0, ref.Location())
}

// AddMinutes shifts the time of day forward by n minutes with plain minute
// arithmetic: 08:55 + 10 = 09:05, 23:58 + 10 = 00:08. The result stays a
// time of day; there is no date to carry.
func (t TimeOfDay) AddMinutes(n int) TimeOfDay {
	total := (t.Hour*60 + t.Minute + n) % (24 * 60)
	if total < 0 {
		total += 24 * 60
	}
	return TimeOfDay{Hour: total / 60, Minute: total % 60}
}

// Entry is the canonical in-memory form of one scheduled dose: a time of
// day plus its current status. For a snoozed entry Time already holds the
// deferred effective time, not the originally configured one.
type Entry struct {
	Time   TimeOfDay
	Status Status
}
