package services

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"mindwave/internal/database"
	"mindwave/internal/models"
)

const (
	GuardStatusHealthy  = "healthy"
	GuardStatusDegraded = "degraded"
	GuardStatusDown     = "down"

	guardPingTimeout      = 10 * time.Second
	guardDegradedLatency  = 2 * time.Second
	guardHistoryRetention = 7 * 24 * time.Hour
)

// GuardService pings the configured external services and keeps a local
// history of the results. A service that stops answering triggers one
// push alert per outage, not one per check.
type GuardService struct {
	db       *database.DB
	push     *PushService
	client   *http.Client
	services []models.MonitoredService

	mu       sync.Mutex
	lastDown map[string]bool
}

func NewGuardService(db *database.DB, push *PushService, services []models.MonitoredService) *GuardService {
	return &GuardService{
		db:       db,
		push:     push,
		client:   &http.Client{Timeout: guardPingTimeout},
		services: services,
		lastDown: make(map[string]bool),
	}
}

// CheckAll pings every monitored service concurrently and records the
// results. Returns the checks in configuration order.
func (s *GuardService) CheckAll(ctx context.Context) []models.GuardCheck {
	if len(s.services) == 0 {
		return nil
	}

	checks := make([]models.GuardCheck, len(s.services))
	var wg sync.WaitGroup
	for i, svc := range s.services {
		wg.Add(1)
		go func(i int, svc models.MonitoredService) {
			defer wg.Done()
			checks[i] = s.check(ctx, svc)
		}(i, svc)
	}
	wg.Wait()

	for _, check := range checks {
		s.record(check)
		s.maybeAlert(ctx, check)
	}
	return checks
}

func (s *GuardService) check(ctx context.Context, svc models.MonitoredService) models.GuardCheck {
	result := models.GuardCheck{
		ServiceName: svc.Name,
		ServiceURL:  svc.URL,
		CheckedAt:   time.Now().UTC(),
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, svc.URL, nil)
	if err != nil {
		result.Status = GuardStatusDown
		result.Error = err.Error()
		return result
	}

	start := time.Now()
	resp, err := s.client.Do(req)
	elapsed := time.Since(start)
	result.ResponseMS = elapsed.Milliseconds()

	if err != nil {
		result.Status = GuardStatusDown
		result.Error = err.Error()
		return result
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 400 {
		result.Status = GuardStatusDown
		result.Error = fmt.Sprintf("HTTP %d", resp.StatusCode)
		return result
	}

	if elapsed >= guardDegradedLatency {
		result.Status = GuardStatusDegraded
	} else {
		result.Status = GuardStatusHealthy
	}
	return result
}

func (s *GuardService) record(check models.GuardCheck) {
	if s.db == nil {
		return
	}
	_, err := s.db.Exec(
		`INSERT INTO guard_checks (service_name, service_url, status, response_ms, error, checked_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		check.ServiceName, check.ServiceURL, check.Status, check.ResponseMS, check.Error, check.CheckedAt,
	)
	if err != nil {
		log.Printf("⚠️  [GUARD] Failed to record check for %s: %v", check.ServiceName, err)
	}
}

func (s *GuardService) maybeAlert(ctx context.Context, check models.GuardCheck) {
	s.mu.Lock()
	wasDown := s.lastDown[check.ServiceName]
	isDown := check.Status == GuardStatusDown
	s.lastDown[check.ServiceName] = isDown
	s.mu.Unlock()

	if s.push == nil {
		return
	}
	if isDown && !wasDown {
		log.Printf("🚨 [GUARD] %s is down: %s", check.ServiceName, check.Error)
		s.push.NotifyAll(ctx, "Service down",
			fmt.Sprintf("%s is not responding: %s", check.ServiceName, check.Error))
	} else if !isDown && wasDown {
		log.Printf("✅ [GUARD] %s recovered", check.ServiceName)
		s.push.NotifyAll(ctx, "Service recovered",
			fmt.Sprintf("%s is answering again (%dms)", check.ServiceName, check.ResponseMS))
	}
}

// History returns the most recent checks for one service, newest first.
func (s *GuardService) History(serviceName string, limit int) ([]models.GuardCheck, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not configured")
	}
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	rows, err := s.db.Query(
		`SELECT id, service_name, service_url, status, response_ms, COALESCE(error, ''), checked_at
		 FROM guard_checks WHERE service_name = ? ORDER BY checked_at DESC LIMIT ?`,
		serviceName, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var checks []models.GuardCheck
	for rows.Next() {
		var c models.GuardCheck
		if err := rows.Scan(&c.ID, &c.ServiceName, &c.ServiceURL, &c.Status, &c.ResponseMS, &c.Error, &c.CheckedAt); err != nil {
			return nil, err
		}
		checks = append(checks, c)
	}
	return checks, rows.Err()
}

// Latest returns the latest recorded check per monitored service.
func (s *GuardService) Latest() ([]models.GuardCheck, error) {
	var out []models.GuardCheck
	for _, svc := range s.services {
		history, err := s.History(svc.Name, 1)
		if err != nil {
			return nil, err
		}
		if len(history) > 0 {
			out = append(out, history[0])
		}
	}
	return out, nil
}

// Prune drops history older than the retention window.
func (s *GuardService) Prune() {
	if s.db == nil {
		return
	}
	cutoff := time.Now().UTC().Add(-guardHistoryRetention)
	if _, err := s.db.Exec(`DELETE FROM guard_checks WHERE checked_at < ?`, cutoff); err != nil {
		log.Printf("⚠️  [GUARD] Prune failed: %v", err)
	}
}
