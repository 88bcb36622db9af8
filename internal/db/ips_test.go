package db

import (
	"errors"
	"testing"
	"time"
)

func TestRegisteredIPAddAndExists(t *testing.T) {
	repo := NewRegisteredIPRepository(openTestDB(t))

	username := "alice"
	if _, err := repo.Add("203.0.113.7", &username); err != nil {
		t.Fatalf("adding IP: %v", err)
	}

	if _, err := repo.Add("203.0.113.7", nil); !errors.Is(err, ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}

	exists, err := repo.Exists("203.0.113.7")
	if err != nil || !exists {
		t.Fatalf("expected IP to exist, got %v %v", exists, err)
	}

	exists, err = repo.Exists("203.0.113.8")
	if err != nil || exists {
		t.Fatalf("expected IP to be absent, got %v %v", exists, err)
	}
}

func TestRegisteredIPDeleteExpired(t *testing.T) {
	database := openTestDB(t)
	repo := NewRegisteredIPRepository(database)

	if _, err := repo.Add("203.0.113.7", nil); err != nil {
		t.Fatalf("adding IP: %v", err)
	}
	if _, err := repo.Add("203.0.113.8", nil); err != nil {
		t.Fatalf("adding IP: %v", err)
	}

	stale := time.Now().UTC().Add(-48 * time.Hour)
	if _, err := database.Exec(
		`UPDATE registered_ips SET registered_at = ? WHERE ip_address = '203.0.113.7'`, stale,
	); err != nil {
		t.Fatalf("backdating row: %v", err)
	}

	deleted, err := repo.DeleteExpired(24 * time.Hour)
	if err != nil {
		t.Fatalf("deleting expired: %v", err)
	}
	if deleted != 1 {
		t.Fatalf("expected 1 deletion, got %d", deleted)
	}
}
