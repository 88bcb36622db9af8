package db

import (
	"errors"
	"testing"
)

func TestRegistrationCreateAndLookup(t *testing.T) {
	repo := NewRegistrationRepository(openTestDB(t))

	created, err := repo.Create(42, "alice")
	if err != nil {
		t.Fatalf("creating registration: %v", err)
	}
	if created.RegistrantID != 42 || created.AccountUsername != "alice" {
		t.Fatalf("unexpected registration: %+v", created)
	}

	exists, err := repo.Exists(42)
	if err != nil {
		t.Fatalf("checking existence: %v", err)
	}
	if !exists {
		t.Fatal("expected registrant 42 to exist")
	}

	byName, err := repo.FindByUsername("alice")
	if err != nil {
		t.Fatalf("finding by username: %v", err)
	}
	if byName.RegistrantID != 42 {
		t.Fatalf("expected registrant 42, got %d", byName.RegistrantID)
	}
}

func TestRegistrationDuplicates(t *testing.T) {
	repo := NewRegistrationRepository(openTestDB(t))

	if _, err := repo.Create(42, "alice"); err != nil {
		t.Fatalf("creating registration: %v", err)
	}

	tests := []struct {
		name         string
		registrantID int64
		username     string
	}{
		{"same registrant", 42, "bob"},
		{"same username", 43, "alice"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := repo.Create(tt.registrantID, tt.username)
			if !errors.Is(err, ErrDuplicate) {
				t.Fatalf("expected ErrDuplicate, got %v", err)
			}
		})
	}
}

func TestRegistrationFindByIdentifier(t *testing.T) {
	repo := NewRegistrationRepository(openTestDB(t))

	if _, err := repo.Create(42, "alice"); err != nil {
		t.Fatalf("creating registration: %v", err)
	}

	byID, err := repo.FindByIdentifier("42")
	if err != nil || byID.AccountUsername != "alice" {
		t.Fatalf("lookup by id: %v %+v", err, byID)
	}

	byName, err := repo.FindByIdentifier("alice")
	if err != nil || byName.RegistrantID != 42 {
		t.Fatalf("lookup by username: %v %+v", err, byName)
	}

	if _, err := repo.FindByIdentifier("nobody"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestRegistrationDelete(t *testing.T) {
	repo := NewRegistrationRepository(openTestDB(t))

	if _, err := repo.Create(42, "alice"); err != nil {
		t.Fatalf("creating registration: %v", err)
	}

	deleted, err := repo.Delete(42)
	if err != nil || !deleted {
		t.Fatalf("expected delete to succeed, got %v %v", deleted, err)
	}

	deleted, err = repo.Delete(42)
	if err != nil {
		t.Fatalf("second delete errored: %v", err)
	}
	if deleted {
		t.Fatal("expected second delete to report nothing removed")
	}
}
