// Package banwatch propagates server-side account removals into registration
// bans. When an account that a registrant obtained through this gateway is
// deleted on the server, the registrant must not simply register again.
package banwatch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/kirill-jjj/teamtalk-reg-system/internal/config"
	"github.com/kirill-jjj/teamtalk-reg-system/internal/db"
	"github.com/kirill-jjj/teamtalk-reg-system/internal/directory"
	"github.com/kirill-jjj/teamtalk-reg-system/internal/i18n"
)

// AdminAlerter mirrors registration.AdminAlerter; declared here so the
// watcher does not depend on the registration package.
type AdminAlerter interface {
	AlertAdmins(ctx context.Context, text string)
}

// Watcher turns account-removed events into automatic bans. Failures are
// logged and never propagate back to the event source.
type Watcher struct {
	cfg           *config.Config
	registrations *db.RegistrationRepository
	bans          *db.BanRepository
	alerter       AdminAlerter
}

func NewWatcher(cfg *config.Config, registrations *db.RegistrationRepository, bans *db.BanRepository, alerter AdminAlerter) *Watcher {
	return &Watcher{cfg: cfg, registrations: registrations, bans: bans, alerter: alerter}
}

// Subscribe wires the watcher into the directory event stream.
func (w *Watcher) Subscribe(events *directory.Events) {
	events.OnAccountRemoved(w.HandleAccountRemoved)
}

// HandleAccountRemoved bans the registrant linked to a removed account.
// Accounts with no registration row (admin-created, proxy-registered) are
// ignored.
func (w *Watcher) HandleAccountRemoved(username string) {
	registration, err := w.registrations.FindByUsername(username)
	if err != nil {
		if !errors.Is(err, db.ErrNotFound) {
			slog.Error("error looking up removed account", "component", "banwatch", "username", username, "error", err)
		}
		return
	}

	reason := fmt.Sprintf("account removed from server: %s", w.cfg.Server.Host)
	accountUsername := registration.AccountUsername
	if _, err := w.bans.Upsert(registration.RegistrantID, &accountUsername, nil, reason); err != nil {
		slog.Error("error recording automatic ban", "component", "banwatch",
			"registrant_id", registration.RegistrantID, "username", username, "error", err)
		return
	}

	// Drop the registration row so the ban gate, not the already-registered
	// gate, answers the next attempt.
	if _, err := w.registrations.Delete(registration.RegistrantID); err != nil {
		slog.Error("error removing registration row", "component", "banwatch",
			"registrant_id", registration.RegistrantID, "error", err)
	}

	slog.Info("banned registrant after account removal", "component", "banwatch",
		"registrant_id", registration.RegistrantID, "username", username)

	if w.alerter != nil {
		adminT := i18n.For(w.cfg.Registration.AdminLanguage)
		w.alerter.AlertAdmins(context.Background(), adminT("admin.account_removed", username))
	}
}
