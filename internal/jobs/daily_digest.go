package jobs

import (
	"context"
	"time"

	"mindwave/internal/services"
)

// DailyDigestJob summarizes the previous day's conversations once per
// day.
type DailyDigestJob struct {
	digest *services.DigestService
}

// NewDailyDigestJob creates a new daily digest job
func NewDailyDigestJob(digest *services.DigestService) *DailyDigestJob {
	return &DailyDigestJob{digest: digest}
}

// Run generates and stores the digest
func (j *DailyDigestJob) Run(ctx context.Context) error {
	_, err := j.digest.GenerateDaily(ctx)
	return err
}

// GetNextRunTime returns when the job should run next (daily at 6 AM UTC)
func (j *DailyDigestJob) GetNextRunTime() time.Time {
	now := time.Now().UTC()

	nextRun := time.Date(now.Year(), now.Month(), now.Day(), 6, 0, 0, 0, time.UTC)
	if now.After(nextRun) {
		nextRun = nextRun.Add(24 * time.Hour)
	}

	return nextRun
}
