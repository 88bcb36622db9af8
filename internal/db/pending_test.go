package db

import (
	"errors"
	"testing"
	"time"

	"github.com/kirill-jjj/teamtalk-reg-system/internal/models"
)

func makePending(key string, registrantID int64) *models.PendingRegistration {
	return &models.PendingRegistration{
		CorrelationKey:  key,
		RegistrantID:    registrantID,
		AccountUsername: "alice",
		Password:        "  secret  ",
		Nickname:        "Alice",
		Source: models.SourceContext{
			Channel:       "chat",
			Locale:        "ru",
			RequesterID:   registrantID,
			RequesterName: "Alice",
		},
	}
}

func TestPendingConsumeExactlyOnce(t *testing.T) {
	repo := NewPendingRegistrationRepository(openTestDB(t))

	if err := repo.Create(makePending("key-1", 42)); err != nil {
		t.Fatalf("creating pending registration: %v", err)
	}

	consumed, err := repo.Consume("key-1")
	if err != nil {
		t.Fatalf("first consume: %v", err)
	}
	if consumed.RegistrantID != 42 || consumed.Password != "  secret  " {
		t.Fatalf("unexpected pending registration: %+v", consumed)
	}
	if consumed.Source.Locale != "ru" || consumed.Source.Channel != "chat" {
		t.Fatalf("source context not round-tripped: %+v", consumed.Source)
	}

	if _, err := repo.Consume("key-1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected second consume to fail with ErrNotFound, got %v", err)
	}
}

func TestPendingConsumeUnknownKey(t *testing.T) {
	repo := NewPendingRegistrationRepository(openTestDB(t))

	if _, err := repo.Consume("missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestPendingDeleteExpired(t *testing.T) {
	database := openTestDB(t)
	repo := NewPendingRegistrationRepository(database)

	for i, key := range []string{"old-1", "old-2", "fresh-1", "fresh-2", "fresh-3"} {
		if err := repo.Create(makePending(key, int64(i+1))); err != nil {
			t.Fatalf("creating pending registration %s: %v", key, err)
		}
	}

	stale := time.Now().UTC().Add(-2 * time.Hour)
	if _, err := database.Exec(
		`UPDATE pending_registrations SET created_at = ? WHERE correlation_key IN ('old-1', 'old-2')`,
		stale,
	); err != nil {
		t.Fatalf("backdating rows: %v", err)
	}

	deleted, err := repo.DeleteExpired(time.Hour)
	if err != nil {
		t.Fatalf("deleting expired: %v", err)
	}
	if deleted != 2 {
		t.Fatalf("expected 2 deletions, got %d", deleted)
	}

	count, err := repo.Count()
	if err != nil {
		t.Fatalf("counting: %v", err)
	}
	if count != 3 {
		t.Fatalf("expected 3 remaining, got %d", count)
	}
}
