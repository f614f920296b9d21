package jobs

import (
	"context"
	"log"
	"time"

	"mindwave/internal/services"
)

// GuardCheckJob pings the monitored services on a fixed interval and
// prunes old history.
type GuardCheckJob struct {
	guard    *services.GuardService
	interval time.Duration
}

// NewGuardCheckJob creates a new guard check job
func NewGuardCheckJob(guard *services.GuardService, interval time.Duration) *GuardCheckJob {
	if interval <= 0 {
		interval = 15 * time.Minute
	}
	return &GuardCheckJob{guard: guard, interval: interval}
}

// Run checks every monitored service once
func (j *GuardCheckJob) Run(ctx context.Context) error {
	checks := j.guard.CheckAll(ctx)

	healthy := 0
	for _, check := range checks {
		if check.Status == services.GuardStatusHealthy {
			healthy++
		}
	}
	log.Printf("🛡️  [GUARD-JOB] %d/%d services healthy", healthy, len(checks))

	j.guard.Prune()
	return nil
}

// GetNextRunTime returns when the job should run next
func (j *GuardCheckJob) GetNextRunTime() time.Time {
	return time.Now().Add(j.interval)
}
