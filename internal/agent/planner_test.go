package agent

import (
	"testing"
	"time"

	"github.com/dosewatch/internal/dose"
)

func TestNextTriggerToday(t *testing.T) {
	now := time.Date(2025, 3, 14, 7, 0, 0, 0, time.UTC)
	got := NextTrigger(now, dose.TimeOfDay{Hour: 8, Minute: 30})
	want := time.Date(2025, 3, 14, 8, 30, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Fatalf("NextTrigger = %v, want %v", got, want)
	}
}

func TestNextTriggerRollsToTomorrow(t *testing.T) {
	now := time.Date(2025, 3, 14, 9, 0, 0, 0, time.UTC)
	got := NextTrigger(now, dose.TimeOfDay{Hour: 8, Minute: 30})
	want := time.Date(2025, 3, 15, 8, 30, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Fatalf("past time of day must roll to tomorrow, got %v want %v", got, want)
	}
}

func TestNotificationKeySingleTime(t *testing.T) {
	if got := NotificationKey("m1", dose.TimeOfDay{Hour: 8}, false); got != "m1" {
		t.Fatalf("single-time medicine should keep the bare id, got %q", got)
	}
}

func TestNotificationKeyComposite(t *testing.T) {
	if got := NotificationKey("m1", dose.TimeOfDay{Hour: 8, Minute: 5}, true); got != "m1_08:05" {
		t.Fatalf("expected composite key m1_08:05, got %q", got)
	}
}

func TestPlanNotificationsPendingOnly(t *testing.T) {
	now := time.Date(2025, 3, 14, 7, 0, 0, 0, time.UTC)
	meds := []Medicine{
		medWith("m1", "Paracetamol",
			dose.Entry{Time: dose.TimeOfDay{Hour: 8}, Status: dose.StatusPending},
			dose.Entry{Time: dose.TimeOfDay{Hour: 12}, Status: dose.StatusTaken},
			dose.Entry{Time: dose.TimeOfDay{Hour: 20}, Status: dose.StatusSnoozed}),
		medWith("m2", "Aspirin",
			dose.Entry{Time: dose.TimeOfDay{Hour: 6}, Status: dose.StatusPending}),
	}

	plan := PlanNotifications(now, meds)
	if len(plan) != 2 {
		t.Fatalf("only pending entries plan triggers, got %d", len(plan))
	}

	if plan[0].Key != "m1_08:00" {
		t.Fatalf("unexpected first key %q", plan[0].Key)
	}
	// m2's 06:00 already passed, so its trigger rolls to tomorrow under
	// its single-time bare key.
	if plan[1].Key != "m2" {
		t.Fatalf("unexpected second key %q", plan[1].Key)
	}
	if plan[1].At.Day() != 15 {
		t.Fatalf("past entry should trigger tomorrow, got %v", plan[1].At)
	}
	if plan[1].Body != "Time to take Aspirin" {
		t.Fatalf("unexpected body %q", plan[1].Body)
	}
}
