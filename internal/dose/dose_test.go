package dose

import (
	"testing"
	"time"
)

func TestParseTimeOfDay(t *testing.T) {
	cases := []struct {
		in      string
		want    TimeOfDay
		wantErr bool
	}{
		{in: "08:00", want: TimeOfDay{8, 0}},
		{in: "8:00", want: TimeOfDay{8, 0}},
		{in: "23:59", want: TimeOfDay{23, 59}},
		{in: " 12:30 ", want: TimeOfDay{12, 30}},
		{in: "24:00", wantErr: true},
		{in: "12:60", wantErr: true},
		{in: "0800", wantErr: true},
		{in: "", wantErr: true},
	}

	for _, tc := range cases {
		got, err := ParseTimeOfDay(tc.in)
		if tc.wantErr {
			if err == nil {
				t.Fatalf("ParseTimeOfDay(%q): expected error, got %v", tc.in, got)
			}
			continue
		}
		if err != nil {
			t.Fatalf("ParseTimeOfDay(%q) returned error: %v", tc.in, err)
		}
		if got != tc.want {
			t.Fatalf("ParseTimeOfDay(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestTimeOfDayString(t *testing.T) {
	if got := (TimeOfDay{8, 5}).String(); got != "08:05" {
		t.Fatalf("expected zero-padded 08:05, got %s", got)
	}
}

func TestAddMinutesWithinHour(t *testing.T) {
	got := TimeOfDay{8, 55}.AddMinutes(10)
	if got != (TimeOfDay{9, 5}) {
		t.Fatalf("08:55 + 10m = %s, want 09:05", got)
	}
}

func TestAddMinutesWrapsMidnight(t *testing.T) {
	got := TimeOfDay{23, 58}.AddMinutes(10)
	if got != (TimeOfDay{0, 8}) {
		t.Fatalf("23:58 + 10m = %s, want 00:08", got)
	}
}

func TestAtAnchorsToReferenceDate(t *testing.T) {
	ref := time.Date(2025, 3, 14, 20, 0, 0, 0, time.UTC)
	got := TimeOfDay{8, 0}.At(ref)
	want := time.Date(2025, 3, 14, 8, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Fatalf("At anchored to %v, want %v", got, want)
	}
}

func at(hh, mm int) time.Time {
	return time.Date(2025, 3, 14, hh, mm, 0, 0, time.UTC)
}

func TestEvaluateDueWindow(t *testing.T) {
	entries := []Entry{{Time: TimeOfDay{8, 0}, Status: StatusPending}}

	ev := Evaluate(entries, at(8, 5), 10)
	if len(ev.Due) != 1 || len(ev.Missed) != 0 {
		t.Fatalf("08:05 should be due only, got due=%d missed=%d", len(ev.Due), len(ev.Missed))
	}

	ev = Evaluate(entries, at(8, 11), 10)
	if len(ev.Due) != 0 || len(ev.Missed) != 1 {
		t.Fatalf("08:11 should be missed only, got due=%d missed=%d", len(ev.Due), len(ev.Missed))
	}

	ev = Evaluate(entries, at(7, 59), 10)
	if len(ev.Due) != 0 || len(ev.Missed) != 0 {
		t.Fatalf("07:59 should classify nothing, got due=%d missed=%d", len(ev.Due), len(ev.Missed))
	}
}

func TestEvaluateWindowBoundary(t *testing.T) {
	entries := []Entry{{Time: TimeOfDay{8, 0}, Status: StatusPending}}

	// Exactly at the scheduled minute counts as due.
	ev := Evaluate(entries, at(8, 0), 10)
	if len(ev.Due) != 1 {
		t.Fatalf("entry should be due at its scheduled minute")
	}

	// Exactly at the window edge it tips over to missed.
	ev = Evaluate(entries, at(8, 10), 10)
	if len(ev.Missed) != 1 || len(ev.Due) != 0 {
		t.Fatalf("entry should be missed at the window edge, got due=%d missed=%d", len(ev.Due), len(ev.Missed))
	}
}

func TestEvaluateSkipsTerminalStatuses(t *testing.T) {
	entries := []Entry{
		{Time: TimeOfDay{8, 0}, Status: StatusTaken},
		{Time: TimeOfDay{8, 0}, Status: StatusMissed},
	}

	ev := Evaluate(entries, at(8, 30), 10)
	if len(ev.Due) != 0 || len(ev.Missed) != 0 {
		t.Fatalf("terminal entries must not re-enter evaluation, got due=%d missed=%d", len(ev.Due), len(ev.Missed))
	}
}

func TestEvaluateSnoozedParticipates(t *testing.T) {
	entries := []Entry{{Time: TimeOfDay{9, 5}, Status: StatusSnoozed}}

	ev := Evaluate(entries, at(9, 7), 10)
	if len(ev.Due) != 1 {
		t.Fatal("snoozed entry inside window should be due")
	}
}

func TestEvaluateIdempotent(t *testing.T) {
	entries := []Entry{
		{Time: TimeOfDay{8, 0}, Status: StatusPending},
		{Time: TimeOfDay{12, 0}, Status: StatusPending},
		{Time: TimeOfDay{20, 0}, Status: StatusSnoozed},
	}
	now := at(12, 3)

	first := Evaluate(entries, now, 10)
	second := Evaluate(entries, now, 10)

	if len(first.Due) != len(second.Due) || len(first.Missed) != len(second.Missed) {
		t.Fatalf("evaluation not idempotent: %+v vs %+v", first, second)
	}
	for i := range first.Due {
		if first.Due[i] != second.Due[i] {
			t.Fatalf("due sets diverge at %d", i)
		}
	}
	for i := range first.Missed {
		if first.Missed[i] != second.Missed[i] {
			t.Fatalf("missed sets diverge at %d", i)
		}
	}
}

func TestEvaluateNeverDueAndMissed(t *testing.T) {
	entries := []Entry{
		{Time: TimeOfDay{6, 0}, Status: StatusPending},
		{Time: TimeOfDay{8, 0}, Status: StatusPending},
		{Time: TimeOfDay{12, 0}, Status: StatusSnoozed},
	}

	ev := Evaluate(entries, at(12, 5), 10)

	seen := map[TimeOfDay]bool{}
	for _, e := range ev.Due {
		seen[e.Time] = true
	}
	for _, e := range ev.Missed {
		if seen[e.Time] {
			t.Fatalf("entry %s classified both due and missed", e.Time)
		}
	}
}

func intPtr(n int) *int { return &n }

func TestProjectOutOfStock(t *testing.T) {
	p := Project(intPtr(0), 1)
	if !p.OutOfStock || !p.LowStock {
		t.Fatalf("zero quantity must be out of stock and low, got %+v", p)
	}
}

func TestProjectQuantityFloorTriggersLowStock(t *testing.T) {
	// Four days of supply remain, but fewer than five pills flags low
	// stock regardless of the daily rate.
	p := Project(intPtr(4), 1)
	if p.DaysRemaining != 4 {
		t.Fatalf("expected 4 days remaining, got %d", p.DaysRemaining)
	}
	if !p.LowStock {
		t.Fatal("quantity below five pills must flag low stock")
	}
	if p.OutOfStock {
		t.Fatal("four pills is not out of stock")
	}
}

func TestProjectHealthySupply(t *testing.T) {
	p := Project(intPtr(20), 2)
	if p.DaysRemaining != 10 {
		t.Fatalf("expected 10 days remaining, got %d", p.DaysRemaining)
	}
	if p.LowStock || p.OutOfStock {
		t.Fatalf("20 pills at 2/day should not be flagged, got %+v", p)
	}
}

func TestProjectUntracked(t *testing.T) {
	p := Project(nil, 3)
	if p.Tracked {
		t.Fatal("nil quantity must disable tracking")
	}
	if p.LowStock || p.OutOfStock {
		t.Fatal("untracked projection must carry no stock flags")
	}
	if p.DosesPerDay != 3 {
		t.Fatalf("doses per day should still be reported, got %d", p.DosesPerDay)
	}
}

func TestProjectDoseCountFloor(t *testing.T) {
	p := Project(intPtr(10), 0)
	if p.DosesPerDay != 1 {
		t.Fatalf("dose count must floor at 1, got %d", p.DosesPerDay)
	}
	if p.DaysRemaining != 10 {
		t.Fatalf("expected 10 days remaining, got %d", p.DaysRemaining)
	}
}
