package jobs

import (
	"context"
	"sync/atomic"
	"testing"
	"time"
)

type countingJob struct {
	runs int32
	next time.Duration
}

func (j *countingJob) Run(ctx context.Context) error {
	atomic.AddInt32(&j.runs, 1)
	return nil
}

func (j *countingJob) GetNextRunTime() time.Time {
	return time.Now().Add(j.next)
}

func TestScheduler_RunNow(t *testing.T) {
	scheduler := NewJobScheduler()
	job := &countingJob{next: time.Hour}
	scheduler.Register("counter", job)

	if err := scheduler.RunNow("counter"); err != nil {
		t.Fatalf("RunNow failed: %v", err)
	}
	if atomic.LoadInt32(&job.runs) != 1 {
		t.Errorf("runs = %d, want 1", job.runs)
	}

	// Unknown jobs are a logged no-op, not an error
	if err := scheduler.RunNow("missing"); err != nil {
		t.Errorf("RunNow for missing job returned %v", err)
	}
}

func TestScheduler_RunsAndReschedules(t *testing.T) {
	scheduler := NewJobScheduler()
	job := &countingJob{next: 20 * time.Millisecond}
	scheduler.Register("fast", job)

	if err := scheduler.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer scheduler.Stop()

	deadline := time.After(2 * time.Second)
	for atomic.LoadInt32(&job.runs) < 2 {
		select {
		case <-deadline:
			t.Fatalf("job ran %d times, want at least 2", atomic.LoadInt32(&job.runs))
		case <-time.After(10 * time.Millisecond):
		}
	}
}

func TestScheduler_StopPreventsReschedule(t *testing.T) {
	scheduler := NewJobScheduler()
	job := &countingJob{next: 10 * time.Millisecond}
	scheduler.Register("fast", job)

	if err := scheduler.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	scheduler.Stop()

	runs := atomic.LoadInt32(&job.runs)
	time.Sleep(50 * time.Millisecond)
	if got := atomic.LoadInt32(&job.runs); got != runs {
		t.Errorf("job kept running after Stop: %d -> %d", runs, got)
	}
}

func TestDailyJobs_NextRunTimes(t *testing.T) {
	digest := NewDailyDigestJob(nil)
	next := digest.GetNextRunTime()
	if !next.After(time.Now().UTC()) {
		t.Error("digest next run must be in the future")
	}
	if next.Hour() != 6 {
		t.Errorf("digest runs at %d UTC, want 6", next.Hour())
	}

	reminder := NewStaleReminderJob(nil, nil)
	next = reminder.GetNextRunTime()
	if !next.After(time.Now().UTC()) {
		t.Error("reminder next run must be in the future")
	}
	if next.Hour() != 9 {
		t.Errorf("reminder runs at %d UTC, want 9", next.Hour())
	}
}

func TestGuardCheckJob_DefaultInterval(t *testing.T) {
	job := NewGuardCheckJob(nil, 0)
	next := job.GetNextRunTime()
	until := time.Until(next)
	if until < 14*time.Minute || until > 16*time.Minute {
		t.Errorf("default interval ~15m, got %v", until)
	}
}
