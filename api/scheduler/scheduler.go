package scheduler

import (
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/luminachat/chat-widget-api/chat"
)

const (
	// sessions with no activity for this long are torn down, which also
	// releases their realtime bridge subscription
	maxIdle = 30 * time.Minute

	// a typing indicator older than this means a hung upload or assistant
	// request; clear it so the widget stops animating forever
	typingDeadline = 2 * time.Minute
)

// Scheduler runs the periodic session janitor
type Scheduler struct {
	cron     *cron.Cron
	Registry *chat.Registry
}

// NewScheduler creates a new scheduler instance
func NewScheduler(registry *chat.Registry) *Scheduler {
	return &Scheduler{
		cron:     cron.New(cron.WithLocation(time.UTC)),
		Registry: registry,
	}
}

// Start begins the scheduler with all registered jobs
func (s *Scheduler) Start() {
	_, err := s.cron.AddFunc("@every 1m", s.sweepSessions)
	if err != nil {
		zap.S().Errorw("failed to register session sweep job", "error", err)
	}

	s.cron.Start()
	zap.S().Info("Session janitor started")
}

// Stop gracefully stops the scheduler
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	zap.S().Info("Session janitor stopped")
}

func (s *Scheduler) sweepSessions() {
	removed := s.Registry.Sweep(time.Now(), maxIdle, typingDeadline)
	if removed > 0 {
		zap.S().Infow("swept idle sessions", "removed", removed, "remaining", s.Registry.Len())
	}
}
