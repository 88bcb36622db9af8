package banwatch

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/kirill-jjj/teamtalk-reg-system/internal/config"
	"github.com/kirill-jjj/teamtalk-reg-system/internal/db"
	"github.com/kirill-jjj/teamtalk-reg-system/internal/directory"
)

type alertRecorder struct {
	alerts []string
}

func (a *alertRecorder) AlertAdmins(ctx context.Context, text string) {
	a.alerts = append(a.alerts, text)
}

func newWatcherFixture(t *testing.T) (*Watcher, *db.RegistrationRepository, *db.BanRepository, *alertRecorder) {
	t.Helper()

	database, err := db.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("opening test database: %v", err)
	}
	t.Cleanup(func() { database.Close() })

	cfg := &config.Config{}
	cfg.Server.Host = "tt.example.org"
	cfg.Registration.AdminLanguage = "en"

	registrations := db.NewRegistrationRepository(database)
	bans := db.NewBanRepository(database)
	alerter := &alertRecorder{}

	return NewWatcher(cfg, registrations, bans, alerter), registrations, bans, alerter
}

func TestAccountRemovalBansRegistrant(t *testing.T) {
	watcher, registrations, bans, alerter := newWatcherFixture(t)

	if _, err := registrations.Create(42, "alice"); err != nil {
		t.Fatalf("creating registration: %v", err)
	}

	watcher.HandleAccountRemoved("alice")

	ban, err := bans.Find(42)
	if err != nil {
		t.Fatalf("expected a ban for registrant 42: %v", err)
	}
	if !ban.Automatic() {
		t.Fatal("watcher bans must have no admin actor")
	}
	if ban.Reason != "account removed from server: tt.example.org" {
		t.Fatalf("unexpected reason %q", ban.Reason)
	}
	if ban.AccountUsername == nil || *ban.AccountUsername != "alice" {
		t.Fatalf("ban should carry the removed username: %+v", ban)
	}

	if exists, _ := registrations.Exists(42); exists {
		t.Fatal("registration row should be gone")
	}
	if len(alerter.alerts) != 1 || !strings.Contains(alerter.alerts[0], "alice") {
		t.Fatalf("expected an admin alert, got %v", alerter.alerts)
	}
}

func TestUnlinkedAccountRemovalIsIgnored(t *testing.T) {
	watcher, _, bans, alerter := newWatcherFixture(t)

	watcher.HandleAccountRemoved("stranger")

	banned, err := bans.FindAll()
	if err != nil {
		t.Fatalf("listing bans: %v", err)
	}
	if len(banned) != 0 {
		t.Fatalf("no ban expected, got %v", banned)
	}
	if len(alerter.alerts) != 0 {
		t.Fatalf("no alert expected, got %v", alerter.alerts)
	}
}

func TestWatcherSubscription(t *testing.T) {
	watcher, registrations, bans, _ := newWatcherFixture(t)

	if _, err := registrations.Create(42, "alice"); err != nil {
		t.Fatalf("creating registration: %v", err)
	}

	events := directory.NewEvents()
	watcher.Subscribe(events)
	events.EmitAccountRemoved("alice")

	if banned, _ := bans.IsBanned(42); !banned {
		t.Fatal("event did not reach the watcher")
	}
}
