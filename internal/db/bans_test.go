package db

import (
	"errors"
	"testing"
)

func TestBanUpsertAndCheck(t *testing.T) {
	repo := NewBanRepository(openTestDB(t))

	username := "alice"
	ban, err := repo.Upsert(42, &username, nil, "account removed from server: tt.example.org")
	if err != nil {
		t.Fatalf("upserting ban: %v", err)
	}
	if !ban.Automatic() {
		t.Fatal("ban with nil banned_by should be automatic")
	}

	banned, err := repo.IsBanned(42)
	if err != nil || !banned {
		t.Fatalf("expected registrant 42 banned, got %v %v", banned, err)
	}

	banned, err = repo.IsBanned(43)
	if err != nil || banned {
		t.Fatalf("expected registrant 43 not banned, got %v %v", banned, err)
	}
}

func TestBanUpsertKeepsKnownFields(t *testing.T) {
	repo := NewBanRepository(openTestDB(t))

	username := "alice"
	admin := int64(7)
	if _, err := repo.Upsert(42, &username, &admin, "spam"); err != nil {
		t.Fatalf("first upsert: %v", err)
	}

	// second write with less information must not erase what we know
	if _, err := repo.Upsert(42, nil, nil, "account removed from server: tt.example.org"); err != nil {
		t.Fatalf("second upsert: %v", err)
	}

	ban, err := repo.Find(42)
	if err != nil {
		t.Fatalf("finding ban: %v", err)
	}
	if ban.AccountUsername == nil || *ban.AccountUsername != "alice" {
		t.Fatalf("username lost in upsert: %+v", ban)
	}
	if ban.BannedBy == nil || *ban.BannedBy != 7 {
		t.Fatalf("banned_by lost in upsert: %+v", ban)
	}
	if ban.Reason != "account removed from server: tt.example.org" {
		t.Fatalf("reason not updated: %q", ban.Reason)
	}
}

func TestBanRemove(t *testing.T) {
	repo := NewBanRepository(openTestDB(t))

	if _, err := repo.Upsert(42, nil, nil, ""); err != nil {
		t.Fatalf("upserting ban: %v", err)
	}

	removed, err := repo.Remove(42)
	if err != nil || !removed {
		t.Fatalf("expected removal, got %v %v", removed, err)
	}

	removed, err = repo.Remove(42)
	if err != nil {
		t.Fatalf("second remove errored: %v", err)
	}
	if removed {
		t.Fatal("expected second remove to report nothing")
	}

	if _, err := repo.Find(42); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after removal, got %v", err)
	}
}
