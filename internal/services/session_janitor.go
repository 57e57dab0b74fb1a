package services

import (
	"context"
	"fmt"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// SessionJanitor periodically closes test sessions that went idle, for
// example when the student closed the tab without submitting.
type SessionJanitor struct {
	cron     *cron.Cron
	sessions TestSessionServiceInterface
	schedule string
	log      *zap.Logger
}

func NewSessionJanitor(sessions TestSessionServiceInterface, schedule string, log *zap.Logger) *SessionJanitor {
	return &SessionJanitor{
		cron:     cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DefaultLogger))),
		sessions: sessions,
		schedule: schedule,
		log:      log.Named("janitor"),
	}
}

func (j *SessionJanitor) Start() error {
	if _, err := j.cron.AddFunc(j.schedule, j.sweep); err != nil {
		return fmt.Errorf("janitor schedule %q: %w", j.schedule, err)
	}
	j.cron.Start()
	j.log.Info("session janitor started", zap.String("schedule", j.schedule))
	return nil
}

// Stop waits for a running sweep or for ctx, whichever comes first.
func (j *SessionJanitor) Stop(ctx context.Context) error {
	done := j.cron.Stop()
	select {
	case <-done.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (j *SessionJanitor) sweep() {
	j.sessions.EvictIdle()
}
