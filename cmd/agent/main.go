package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/jmhodges/clock"
	"go.uber.org/zap"

	"github.com/dosewatch/internal/agent"
	"github.com/dosewatch/internal/alarm"
	"github.com/dosewatch/internal/config"
)

// The agent is the patient-side companion process. It polls the backend,
// rings the local alarm when a dose is due and reports taken/missed doses
// back. SIGUSR1 marks the active alarm as taken, SIGUSR2 snoozes it.
func main() {
	cfg := config.Load()

	logger, err := zap.NewDevelopment()
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer logger.Sync()
	sugar := logger.Sugar()

	store, err := agent.OpenSessionStore(cfg.AgentDataDir)
	if err != nil {
		sugar.Fatalw("failed to open session store", "dir", cfg.AgentDataDir, "error", err)
	}
	defer store.Close()

	patientID := cfg.PatientID
	if patientID == "" {
		user, err := store.CurrentUser()
		if err != nil {
			sugar.Fatalw("failed to read current user", "error", err)
		}
		if user == nil {
			sugar.Fatal("no patient configured: set PATIENT_ID or sign in first")
		}
		patientID = user.ID
	}

	clk := clock.New()
	ctrl := alarm.NewController(
		alarm.NewConsoleSounder(os.Stdout),
		alarm.NewLogVibrator(sugar),
		clk,
		sugar,
	)

	poller := agent.NewPoller(
		agent.NewClient(cfg.APIBaseURL, nil),
		ctrl,
		agent.NewLogScheduler(sugar),
		clk,
		sugar,
		agent.Config{
			PatientID:     patientID,
			Interval:      cfg.PollInterval,
			WindowMinutes: cfg.MissedWindow,
			SnoozeMinutes: cfg.SnoozeMinutes,
		},
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	actions := make(chan os.Signal, 1)
	signal.Notify(actions, syscall.SIGUSR1, syscall.SIGUSR2)
	go func() {
		for sig := range actions {
			switch sig {
			case syscall.SIGUSR1:
				if err := poller.TakeActive(ctx); err != nil {
					if errors.Is(err, agent.ErrNoActiveAlarm) {
						sugar.Info("take requested but no alarm is ringing")
					} else {
						sugar.Warnw("failed to mark dose taken", "error", err)
					}
				}
			case syscall.SIGUSR2:
				if next, err := poller.SnoozeActive(); err != nil {
					if errors.Is(err, agent.ErrNoActiveAlarm) {
						sugar.Info("snooze requested but no alarm is ringing")
					} else {
						sugar.Warnw("failed to snooze alarm", "error", err)
					}
				} else {
					sugar.Infow("alarm snoozed", "next", next.String())
				}
			}
		}
	}()

	sugar.Infow("dose agent starting",
		"api", cfg.APIBaseURL,
		"patient", patientID,
		"interval", cfg.PollInterval,
	)
	poller.Run(ctx)
	sugar.Info("dose agent stopped")
}
