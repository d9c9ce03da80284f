package agent

import (
	"context"
	"sync"
	"time"

	"github.com/dosewatch/internal/alarm"
	"github.com/dosewatch/internal/dose"
	"github.com/jmhodges/clock"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// Backend is the slice of the persistence API the poller consumes.
type Backend interface {
	FetchMedicines(ctx context.Context, patientID string) ([]Medicine, error)
	MarkTaken(ctx context.Context, medicineID, patientID string, t dose.TimeOfDay) error
	MarkMissed(ctx context.Context, medicineID, patientID string, t dose.TimeOfDay) error
}

// ErrNoActiveAlarm is returned by TakeActive/SnoozeActive when the
// controller is idle.
var ErrNoActiveAlarm = errors.New("no active alarm")

// Config carries the poller's timing knobs. Zero values fall back to the
// product defaults: a 10 second cadence, a 10 minute due window and a 10
// minute snooze.
type Config struct {
	PatientID     string
	Interval      time.Duration
	WindowMinutes int
	SnoozeMinutes int
}

// Poller reconciles local dose state against the backend on a fixed
// interval. Each tick replaces the local list with the authoritative one,
// re-derives due/missed classifications and drives the alarm controller
// and missed-dose reporting from them. Local optimistic mutations
// (snooze, take) may be overwritten by an in-flight fetch; a later poll
// settles on the authoritative state.
type Poller struct {
	backend Backend
	ctrl    *alarm.Controller
	sched   Scheduler
	clk     clock.Clock
	log     *zap.SugaredLogger
	cfg     Config

	mu        sync.Mutex
	medicines []Medicine
}

func NewPoller(backend Backend, ctrl *alarm.Controller, sched Scheduler, clk clock.Clock, log *zap.SugaredLogger, cfg Config) *Poller {
	if cfg.Interval <= 0 {
		cfg.Interval = 10 * time.Second
	}
	if cfg.WindowMinutes <= 0 {
		cfg.WindowMinutes = 10
	}
	if cfg.SnoozeMinutes <= 0 {
		cfg.SnoozeMinutes = 10
	}

	return &Poller{
		backend: backend,
		ctrl:    ctrl,
		sched:   sched,
		clk:     clk,
		log:     log,
		cfg:     cfg,
	}
}

// Run ticks immediately and then on every interval until ctx is
// cancelled. A failed tick leaves state unchanged; the next tick is the
// retry.
func (p *Poller) Run(ctx context.Context) {
	p.tick(ctx)

	ticker := time.NewTicker(p.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.tick(ctx)
		}
	}
}

func (p *Poller) tick(ctx context.Context) {
	meds, err := p.backend.FetchMedicines(ctx, p.cfg.PatientID)
	if err != nil {
		p.log.Warnw("fetch failed, keeping local state until next poll", "err", err)
		return
	}

	// The stored list is the only copy user actions mutate. evaluate and
	// reschedule keep working on the private fetched slice so they never
	// share entry memory with a concurrent take or snooze.
	p.mu.Lock()
	p.medicines = cloneMedicines(meds)
	p.mu.Unlock()

	p.logSupply(meds)
	p.reschedule(meds)
	p.evaluate(ctx, meds)
}

func cloneMedicines(meds []Medicine) []Medicine {
	out := make([]Medicine, len(meds))
	copy(out, meds)
	for i := range out {
		out[i].Entries = append([]dose.Entry(nil), meds[i].Entries...)
	}
	return out
}

// logSupply surfaces inventory projections that need attention.
func (p *Poller) logSupply(meds []Medicine) {
	for _, med := range meds {
		proj := med.Projection()
		if !proj.Tracked {
			continue
		}
		switch {
		case proj.OutOfStock:
			p.log.Warnw("medicine out of stock", "medicine", med.Name)
		case proj.LowStock:
			p.log.Warnw("medicine running low",
				"medicine", med.Name, "daysRemaining", proj.DaysRemaining)
		}
	}
}

// reschedule replaces the device-level triggers with ones derived from
// the fresh list.
func (p *Poller) reschedule(meds []Medicine) {
	if err := p.sched.CancelAll(); err != nil {
		p.log.Warnw("clearing scheduled notifications failed", "err", err)
	}
	for _, n := range PlanNotifications(p.clk.Now(), meds) {
		if err := p.sched.Schedule(n.Key, n.Title, n.Body, n.At); err != nil {
			p.log.Warnw("scheduling notification failed", "key", n.Key, "err", err)
		}
	}
}

func (p *Poller) evaluate(ctx context.Context, meds []Medicine) {
	now := p.clk.Now()

	// An alarm raised for an entry that the authoritative list now shows
	// as terminal (taken or missed elsewhere) must not keep ringing.
	if active, ok := p.ctrl.Active(); ok {
		if entryTerminal(meds, active.Ref) {
			p.ctrl.Expire()
		}
	}

	for _, med := range meds {
		ev := dose.Evaluate(med.Entries, now, p.cfg.WindowMinutes)

		for _, entry := range ev.Missed {
			// If the elapsed entry is the one currently ringing, release
			// the presentation before reporting it.
			if active, ok := p.ctrl.Active(); ok &&
				active.Ref.MedicineID == med.ID && active.Ref.Time == entry.Time {
				p.ctrl.Expire()
			}

			// One report per entry per pass. The next fetch returns the
			// authoritative missed status, which excludes the entry from
			// evaluation and so suppresses re-reporting.
			if err := p.backend.MarkMissed(ctx, med.ID, p.cfg.PatientID, entry.Time); err != nil {
				p.log.Warnw("mark-missed failed, will retry next poll",
					"medicine", med.ID, "time", entry.Time.String(), "err", err)
			}
		}

		for _, entry := range ev.Due {
			// Refused while another alarm is active; the entry stays in
			// the due set of later passes until resolved or missed.
			p.ctrl.Trigger(alarm.DoseRef{MedicineID: med.ID, Name: med.Name, Time: entry.Time})
		}
	}
}

func entryTerminal(meds []Medicine, ref alarm.DoseRef) bool {
	for _, med := range meds {
		if med.ID != ref.MedicineID {
			continue
		}
		for _, entry := range med.Entries {
			if entry.Time == ref.Time {
				return entry.Status.Terminal()
			}
		}
	}
	return false
}

// Medicines returns a snapshot of the last fetched list for presentation.
// Entries are deep-copied so callers cannot observe later mutations.
func (p *Poller) Medicines() []Medicine {
	p.mu.Lock()
	defer p.mu.Unlock()

	return cloneMedicines(p.medicines)
}

// TakeActive dismisses the ringing alarm and reports the dose taken. The
// alarm presentation is released first; if the report fails the local
// status is left untouched and the next poll reconciles.
func (p *Poller) TakeActive(ctx context.Context) error {
	ref, ok := p.ctrl.Dismiss()
	if !ok {
		return ErrNoActiveAlarm
	}

	if err := p.backend.MarkTaken(ctx, ref.MedicineID, p.cfg.PatientID, ref.Time); err != nil {
		p.log.Warnw("mark-taken failed", "medicine", ref.MedicineID, "err", err)
		return errors.Wrap(err, "reporting dose taken")
	}

	p.setEntry(ref.MedicineID, ref.Time, ref.Time, dose.StatusTaken)
	return nil
}

// SnoozeActive defers the ringing alarm by the configured duration and
// optimistically re-labels the local entry snoozed under its new
// effective time. The deferral is not persisted server-side; a fetch
// completing with pre-snooze data may briefly clobber it, which the next
// evaluation tolerates.
func (p *Poller) SnoozeActive() (dose.TimeOfDay, error) {
	ref, next, ok := p.ctrl.Snooze(p.cfg.SnoozeMinutes)
	if !ok {
		return dose.TimeOfDay{}, ErrNoActiveAlarm
	}

	p.setEntry(ref.MedicineID, ref.Time, next, dose.StatusSnoozed)
	return next, nil
}

func (p *Poller) setEntry(medicineID string, at, to dose.TimeOfDay, status dose.Status) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for i := range p.medicines {
		if p.medicines[i].ID != medicineID {
			continue
		}
		for j := range p.medicines[i].Entries {
			if p.medicines[i].Entries[j].Time == at {
				p.medicines[i].Entries[j].Time = to
				p.medicines[i].Entries[j].Status = status
				return
			}
		}
	}
}
