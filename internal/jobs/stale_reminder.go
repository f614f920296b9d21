package jobs

import (
	"context"
	"fmt"
	"log"
	"time"

	"mindwave/internal/services"
)

// StaleReminderJob nudges the user about tasks that have sat unactioned
// for days.
type StaleReminderJob struct {
	suggestions *services.SuggestionService
	push        *services.PushService
}

// NewStaleReminderJob creates a new stale-task reminder job
func NewStaleReminderJob(suggestions *services.SuggestionService, push *services.PushService) *StaleReminderJob {
	return &StaleReminderJob{suggestions: suggestions, push: push}
}

// Run finds stale tasks and sends one reminder covering all of them
func (j *StaleReminderJob) Run(ctx context.Context) error {
	stale := j.suggestions.StaleTasks(ctx)
	if len(stale) == 0 {
		log.Println("📋 [REMINDER-JOB] No stale tasks")
		return nil
	}

	body := stale[0].Content
	if len(stale) > 1 {
		body = fmt.Sprintf("%s (and %d more)", body, len(stale)-1)
	}
	log.Printf("📋 [REMINDER-JOB] %d stale tasks, sending reminder", len(stale))

	if j.push != nil {
		j.push.NotifyAll(ctx, "Tasks waiting on you", body)
	}
	return nil
}

// GetNextRunTime returns when the job should run next (daily at 9 AM UTC)
func (j *StaleReminderJob) GetNextRunTime() time.Time {
	now := time.Now().UTC()

	nextRun := time.Date(now.Year(), now.Month(), now.Day(), 9, 0, 0, 0, time.UTC)
	if now.After(nextRun) {
		nextRun = nextRun.Add(24 * time.Hour)
	}

	return nextRun
}
