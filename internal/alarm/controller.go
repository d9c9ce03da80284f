package alarm

import (
	"sync"
	"time"

	"github.com/dosewatch/internal/dose"
	"github.com/jmhodges/clock"
	"go.uber.org/zap"
)

// DoseRef identifies the (medicine, time) pair an alarm was raised for.
type DoseRef struct {
	MedicineID string
	Name       string
	Time       dose.TimeOfDay
}

// Active describes the alarm currently being presented, if any.
type Active struct {
	Ref         DoseRef
	TriggeredAt time.Time
}

// Controller is the single-active-alarm state machine. It owns the sound
// resource exclusively: any transition out of the active state stops and
// releases sound and vibration before clearing state, on every exit path.
// At most one alarm is active at a time; triggers arriving while one is
// active are refused and picked up by a later evaluation pass.
type Controller struct {
	mu       sync.Mutex
	clk      clock.Clock
	log      *zap.SugaredLogger
	sounder  Sounder
	vibrator Vibrator

	active    *Active
	soundOn   bool
	vibrating bool
}

// NewController wires the device collaborators. clk may be a fake in tests.
func NewController(sounder Sounder, vibrator Vibrator, clk clock.Clock, log *zap.SugaredLogger) *Controller {
	return &Controller{
		clk:      clk,
		log:      log,
		sounder:  sounder,
		vibrator: vibrator,
	}
}

// Trigger moves the controller to Active for ref and engages feedback.
// It reports false without side effects when an alarm is already active;
// the caller retries on its next evaluation pass. Audio failure degrades
// to vibration-only and is never surfaced as an error.
func (c *Controller) Trigger(ref DoseRef) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.active != nil {
		return false
	}

	c.active = &Active{Ref: ref, TriggeredAt: c.clk.Now()}

	c.vibrator.Start()
	c.vibrating = true

	if err := c.sounder.Play(); err != nil {
		c.log.Warnw("alarm sound unavailable, vibration only",
			"medicine", ref.MedicineID, "err", err)
	} else {
		c.soundOn = true
	}

	c.log.Infow("alarm raised", "medicine", ref.MedicineID, "time", ref.Time.String())
	return true
}

// Dismiss resolves the active alarm via the mark-taken path. Feedback is
// stopped before state is cleared. The returned ref tells the caller which
// (medicine, time) pair to report as taken. Reports false when idle.
func (c *Controller) Dismiss() (DoseRef, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.active == nil {
		return DoseRef{}, false
	}

	ref := c.active.Ref
	c.stopFeedback()
	c.active = nil

	c.log.Infow("alarm dismissed", "medicine", ref.MedicineID, "time", ref.Time.String())
	return ref, true
}

// Snooze resolves the active alarm by deferring it. The new effective time
// is the alarm's time plus minutes, wrapping as plain time-of-day
// arithmetic. The caller re-labels the dose snoozed under the returned
// time so it re-enters evaluation as a fresh due candidate.
func (c *Controller) Snooze(minutes int) (DoseRef, dose.TimeOfDay, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.active == nil {
		return DoseRef{}, dose.TimeOfDay{}, false
	}

	ref := c.active.Ref
	next := ref.Time.AddMinutes(minutes)
	c.stopFeedback()
	c.active = nil

	c.log.Infow("alarm snoozed",
		"medicine", ref.MedicineID, "from", ref.Time.String(), "until", next.String())
	return ref, next, true
}

// Expire resolves the active alarm when its dose window elapsed before
// the patient responded. Feedback is released like any other exit path;
// reporting the miss is the caller's job, not the controller's.
func (c *Controller) Expire() (DoseRef, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.active == nil {
		return DoseRef{}, false
	}

	ref := c.active.Ref
	c.stopFeedback()
	c.active = nil

	c.log.Infow("alarm expired unacknowledged",
		"medicine", ref.MedicineID, "time", ref.Time.String())
	return ref, true
}

// Active returns the current alarm presentation, if one exists.
func (c *Controller) Active() (Active, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.active == nil {
		return Active{}, false
	}
	return *c.active, true
}

// ResourcesReleased reports whether no audio or vibration side effect is
// currently engaged. After any dismiss or snooze it must be true.
func (c *Controller) ResourcesReleased() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return !c.soundOn && !c.vibrating
}

// stopFeedback cancels vibration and releases the sound resource. Both
// calls are best-effort and must be safe when nothing is engaged, so it
// can run on every exit path unconditionally. Callers hold the mutex.
func (c *Controller) stopFeedback() {
	c.vibrator.Cancel()
	c.vibrating = false
	c.sounder.Stop()
	c.soundOn = false
}
