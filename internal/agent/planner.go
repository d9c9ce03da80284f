package agent

import (
	"fmt"
	"time"

	"github.com/dosewatch/internal/dose"
	"go.uber.org/zap"
)

// Scheduler is the device-level notification collaborator. Schedule
// registers a trigger for the given instant under an opaque key;
// CancelAll drops every registered trigger before a reschedule pass.
type Scheduler interface {
	Schedule(key, title, body string, at time.Time) error
	CancelAll() error
}

// PlannedNotification is one device trigger derived from a pending dose.
type PlannedNotification struct {
	Key   string
	Title string
	Body  string
	At    time.Time
}

// NextTrigger maps a time of day to its next concrete instant: today at t,
// or tomorrow when that moment has already passed. This is the one place
// where day rollover happens; the evaluator never rolls dates.
func NextTrigger(now time.Time, t dose.TimeOfDay) time.Time {
	at := t.At(now)
	if at.Before(now) {
		at = at.AddDate(0, 0, 1)
	}
	return at
}

// NotificationKey builds the trigger identifier for one dose. Medicines
// with several daily times get a composite medicineID_HH:MM key so each
// time resolves to its own trigger; a single-time medicine keeps the bare
// id for compatibility with older clients.
func NotificationKey(medicineID string, t dose.TimeOfDay, multiple bool) string {
	if !multiple {
		return medicineID
	}
	return fmt.Sprintf("%s_%s", medicineID, t)
}

// PlanNotifications derives the device triggers for every pending dose in
// meds. Snoozed entries are excluded: their deferral is driven by the
// in-app alarm cycle, not the device scheduler.
func PlanNotifications(now time.Time, meds []Medicine) []PlannedNotification {
	var plan []PlannedNotification

	for _, med := range meds {
		multiple := len(med.Entries) > 1
		for _, entry := range med.Entries {
			if entry.Status != dose.StatusPending {
				continue
			}
			plan = append(plan, PlannedNotification{
				Key:   NotificationKey(med.ID, entry.Time, multiple),
				Title: "Medicine Reminder",
				Body:  fmt.Sprintf("Time to take %s", med.Name),
				At:    NextTrigger(now, entry.Time),
			})
		}
	}

	return plan
}

// LogScheduler satisfies Scheduler for the headless agent by recording
// what a device integration would register.
type LogScheduler struct {
	log *zap.SugaredLogger
}

func NewLogScheduler(log *zap.SugaredLogger) *LogScheduler {
	return &LogScheduler{log: log}
}

func (s *LogScheduler) Schedule(key, title, body string, at time.Time) error {
	s.log.Debugw("notification scheduled", "key", key, "title", title, "body", body, "at", at)
	return nil
}

func (s *LogScheduler) CancelAll() error {
	s.log.Debugw("scheduled notifications cleared")
	return nil
}
