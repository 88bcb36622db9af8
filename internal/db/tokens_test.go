package db

import (
	"errors"
	"testing"
	"time"

	"github.com/kirill-jjj/teamtalk-reg-system/internal/models"
)

func makeToken(value string, kind models.ArtifactKind, expiresAt time.Time) *models.DownloadToken {
	return &models.DownloadToken{
		Token:        value,
		ServerPath:   "/tmp/generated/" + value,
		UserFilename: "alice.tt",
		Kind:         kind,
		ExpiresAt:    expiresAt,
	}
}

func TestTokenRedeemSingleShot(t *testing.T) {
	repo := NewDownloadTokenRepository(openTestDB(t))

	future := time.Now().UTC().Add(10 * time.Minute)
	if err := repo.Create(makeToken("tok-1", models.ArtifactConfigFile, future)); err != nil {
		t.Fatalf("creating token: %v", err)
	}

	token, err := repo.Redeem("tok-1", models.ArtifactConfigFile)
	if err != nil {
		t.Fatalf("first redeem: %v", err)
	}
	if !token.IsUsed || token.UserFilename != "alice.tt" {
		t.Fatalf("unexpected token: %+v", token)
	}

	if _, err := repo.Redeem("tok-1", models.ArtifactConfigFile); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected second redeem to fail with ErrNotFound, got %v", err)
	}
}

func TestTokenRedeemRejections(t *testing.T) {
	repo := NewDownloadTokenRepository(openTestDB(t))

	future := time.Now().UTC().Add(10 * time.Minute)
	past := time.Now().UTC().Add(-time.Minute)
	if err := repo.Create(makeToken("config-tok", models.ArtifactConfigFile, future)); err != nil {
		t.Fatalf("creating token: %v", err)
	}
	if err := repo.Create(makeToken("expired-tok", models.ArtifactConfigFile, past)); err != nil {
		t.Fatalf("creating token: %v", err)
	}

	tests := []struct {
		name  string
		token string
		kind  models.ArtifactKind
	}{
		{"unknown token", "missing", models.ArtifactConfigFile},
		{"wrong kind", "config-tok", models.ArtifactClientBundle},
		{"expired", "expired-tok", models.ArtifactConfigFile},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := repo.Redeem(tt.token, tt.kind); !errors.Is(err, ErrNotFound) {
				t.Fatalf("expected ErrNotFound, got %v", err)
			}
		})
	}

	// the wrong-kind attempt must not have burned the token
	if _, err := repo.Redeem("config-tok", models.ArtifactConfigFile); err != nil {
		t.Fatalf("redeeming after wrong-kind attempt: %v", err)
	}
}

func TestTokenSweepExpiredOrUsed(t *testing.T) {
	repo := NewDownloadTokenRepository(openTestDB(t))

	future := time.Now().UTC().Add(10 * time.Minute)
	past := time.Now().UTC().Add(-time.Minute)

	if err := repo.Create(makeToken("expired", models.ArtifactConfigFile, past)); err != nil {
		t.Fatalf("creating token: %v", err)
	}
	if err := repo.Create(makeToken("used", models.ArtifactConfigFile, future)); err != nil {
		t.Fatalf("creating token: %v", err)
	}
	if err := repo.Create(makeToken("live", models.ArtifactClientBundle, future)); err != nil {
		t.Fatalf("creating token: %v", err)
	}
	if _, err := repo.Redeem("used", models.ArtifactConfigFile); err != nil {
		t.Fatalf("redeeming token: %v", err)
	}

	stale, err := repo.FindExpiredOrUsed()
	if err != nil {
		t.Fatalf("finding stale tokens: %v", err)
	}
	if len(stale) != 2 {
		t.Fatalf("expected 2 stale tokens, got %d", len(stale))
	}

	deleted, err := repo.DeleteExpiredOrUsed()
	if err != nil {
		t.Fatalf("deleting stale tokens: %v", err)
	}
	if deleted != 2 {
		t.Fatalf("expected 2 deletions, got %d", deleted)
	}

	if _, err := repo.Redeem("live", models.ArtifactClientBundle); err != nil {
		t.Fatalf("live token should survive the sweep: %v", err)
	}
}
