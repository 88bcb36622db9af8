package db

import (
	"testing"
	"time"
)

type fakeSweeper struct {
	calls int
	swept int64
}

func (s *fakeSweeper) Sweep() (int64, error) {
	s.calls++
	return s.swept, nil
}

func TestCleanupRunOnce(t *testing.T) {
	database := openTestDB(t)
	pending := NewPendingRegistrationRepository(database)
	registeredIPs := NewRegisteredIPRepository(database)
	sweeper := &fakeSweeper{swept: 1}

	if err := pending.Create(makePending("stale", 42)); err != nil {
		t.Fatalf("creating pending registration: %v", err)
	}
	if _, err := registeredIPs.Add("203.0.113.7", nil); err != nil {
		t.Fatalf("adding registered IP: %v", err)
	}

	stale := time.Now().UTC().Add(-2 * time.Hour)
	if _, err := database.Exec(`UPDATE pending_registrations SET created_at = ?`, stale); err != nil {
		t.Fatalf("backdating pending rows: %v", err)
	}
	if _, err := database.Exec(`UPDATE registered_ips SET registered_at = ?`, stale); err != nil {
		t.Fatalf("backdating IP rows: %v", err)
	}

	service := NewCleanupService(pending, registeredIPs, sweeper, time.Minute, time.Hour, time.Hour)
	service.RunOnce()

	if count, _ := pending.Count(); count != 0 {
		t.Fatalf("pending rows remaining = %d, want 0", count)
	}
	if exists, _ := registeredIPs.Exists("203.0.113.7"); exists {
		t.Fatal("expired registered IP should be gone")
	}
	if sweeper.calls != 1 {
		t.Fatalf("sweeper calls = %d, want 1", sweeper.calls)
	}
}

func TestNewCleanupServiceDefaultsInterval(t *testing.T) {
	service := NewCleanupService(nil, nil, nil, 0, time.Hour, time.Hour)
	if service.interval != DefaultCleanupInterval {
		t.Fatalf("interval = %s, want %s", service.interval, DefaultCleanupInterval)
	}
}
