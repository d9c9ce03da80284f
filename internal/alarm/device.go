package alarm

import (
	"io"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Sounder is the audio collaborator. Play starts looping playback and
// keeps replaying until Stop; Stop halts playback and releases the
// resource, and must be a no-op when nothing is loaded.
type Sounder interface {
	Play() error
	Stop()
}

// Vibrator is the haptics collaborator. Cancel must be safe to call when
// no pattern is running.
type Vibrator interface {
	Start()
	Cancel()
}

// ConsoleSounder loops a terminal bell for the headless agent. It stands
// in for the device audio session: the clip "replays" once a second until
// stopped.
type ConsoleSounder struct {
	mu   sync.Mutex
	w    io.Writer
	stop chan struct{}
}

// NewConsoleSounder writes the bell byte to w, typically os.Stdout.
func NewConsoleSounder(w io.Writer) *ConsoleSounder {
	return &ConsoleSounder{w: w}
}

// Play starts the bell loop. Calling Play while already playing restarts
// nothing and returns nil.
func (s *ConsoleSounder) Play() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stop != nil {
		return nil
	}

	stop := make(chan struct{})
	s.stop = stop

	go func() {
		ticker := time.NewTicker(time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				io.WriteString(s.w, "\a")
			}
		}
	}()

	return nil
}

// Stop halts the loop and releases it. Safe when not playing.
func (s *ConsoleSounder) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stop == nil {
		return
	}
	close(s.stop)
	s.stop = nil
}

// LogVibrator reports vibration transitions through the agent log. A
// headless process has no haptics; the log line doubles as the observable
// side effect.
type LogVibrator struct {
	log *zap.SugaredLogger
}

func NewLogVibrator(log *zap.SugaredLogger) *LogVibrator {
	return &LogVibrator{log: log}
}

func (v *LogVibrator) Start() {
	v.log.Infow("vibration pattern engaged")
}

func (v *LogVibrator) Cancel() {
	v.log.Infow("vibration pattern cancelled")
}
