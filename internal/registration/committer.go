package registration

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/kirill-jjj/teamtalk-reg-system/internal/artifact"
	"github.com/kirill-jjj/teamtalk-reg-system/internal/config"
	"github.com/kirill-jjj/teamtalk-reg-system/internal/db"
	"github.com/kirill-jjj/teamtalk-reg-system/internal/directory"
	"github.com/kirill-jjj/teamtalk-reg-system/internal/i18n"
	"github.com/kirill-jjj/teamtalk-reg-system/internal/models"
)

// CommitRequest is a fully resolved registration ready to become an account.
type CommitRequest struct {
	RegistrantID int64
	Username     string
	Password     string
	Nickname     string
	AccountType  directory.AccountType
	Locale       string
	Source       models.SourceContext
}

// ArtifactIssuer produces the connection artifacts for a created account.
type ArtifactIssuer interface {
	Issue(username, password, nickname, locale string) (*artifact.Bundle, error)
}

// AdminAlerter delivers operator-facing messages outside the approval flow:
// a summary of every committed registration, and alerts when the database
// drifts out of sync with the server.
type AdminAlerter interface {
	AlertAdmins(ctx context.Context, text string)
	NotifyAdmins(ctx context.Context, text string, excludeID int64)
}

// Committer runs the commit sequence: create the server account, announce it,
// record the registration, then issue artifacts. The server account is the
// point of no return; later failures are reported but never roll it back.
type Committer struct {
	cfg           *config.Config
	dir           directory.Directory
	registrations *db.RegistrationRepository
	registeredIPs *db.RegisteredIPRepository
	artifacts     ArtifactIssuer
	alerter       AdminAlerter
}

func NewCommitter(
	cfg *config.Config,
	dir directory.Directory,
	registrations *db.RegistrationRepository,
	registeredIPs *db.RegisteredIPRepository,
	artifacts ArtifactIssuer,
	alerter AdminAlerter,
) *Committer {
	return &Committer{
		cfg:           cfg,
		dir:           dir,
		registrations: registrations,
		registeredIPs: registeredIPs,
		artifacts:     artifacts,
		alerter:       alerter,
	}
}

func (c *Committer) Commit(ctx context.Context, req CommitRequest) (*artifact.Bundle, error) {
	account := directory.NewAccount{
		Username: req.Username,
		Password: req.Password,
		Nickname: req.Nickname,
		Type:     req.AccountType,
	}
	if account.Type == "" {
		account.Type = directory.AccountUser
	}
	if account.Type == directory.AccountUser {
		account.Rights = directory.ParseRights(c.cfg.DefaultRightsList())
	}

	if err := c.dir.Create(ctx, account); err != nil {
		return nil, fmt.Errorf("creating server account %s: %w", req.Username, err)
	}

	if c.cfg.BroadcastOnRegistration() {
		adminT := i18n.For(c.cfg.Registration.AdminLanguage)
		if err := c.dir.Broadcast(ctx, adminT("admin.registered", req.Username)); err != nil {
			slog.Error("error broadcasting registration", "component", "registration", "username", req.Username, "error", err)
		}
	}

	c.recordRegistration(ctx, req)

	if req.Source.IPAddress != "" {
		username := req.Username
		if _, err := c.registeredIPs.Add(req.Source.IPAddress, &username); err != nil && !errors.Is(err, db.ErrDuplicate) {
			slog.Error("error recording registration IP", "component", "registration", "error", err)
		}
	}

	if c.alerter != nil {
		adminT := i18n.For(c.cfg.Registration.AdminLanguage)
		c.alerter.NotifyAdmins(ctx, adminT("admin.registration_summary",
			req.Username, req.Source.Channel, req.Locale, describeRequester(req)), 0)
	}

	bundle, err := c.artifacts.Issue(req.Username, req.Password, req.Nickname, req.Locale)
	if err != nil {
		return nil, fmt.Errorf("issuing artifacts for %s: %w", req.Username, err)
	}
	return bundle, nil
}

// describeRequester names who asked for the account: the chat identity when
// there is one, otherwise the web client address.
func describeRequester(req CommitRequest) string {
	src := req.Source
	switch {
	case src.RequesterName != "":
		return fmt.Sprintf("%s [%d]", src.RequesterName, src.RequesterID)
	case src.RequesterID != 0:
		return fmt.Sprintf("[%d]", src.RequesterID)
	case src.IPAddress != "":
		return src.IPAddress
	}
	return "unknown"
}

// recordRegistration writes the one-account-per-registrant row. Admins and
// proxy registrations are exempt so an admin can register any number of
// accounts. A write failure here leaves the database out of sync with the
// server, which only an operator can fix.
func (c *Committer) recordRegistration(ctx context.Context, req CommitRequest) {
	// Web registrations have no chat identity to tie the account to.
	if req.RegistrantID == 0 {
		return
	}
	if req.Source.RegisteredByAdminID != 0 && req.Source.RegisteredByAdminID != req.RegistrantID {
		return
	}
	if c.cfg.IsAdmin(req.RegistrantID) {
		return
	}

	if _, err := c.registrations.Create(req.RegistrantID, req.Username); err != nil {
		slog.Error("error recording registration", "component", "registration",
			"registrant_id", req.RegistrantID, "username", req.Username, "error", err)
		if c.alerter != nil {
			adminT := i18n.For(c.cfg.Registration.AdminLanguage)
			c.alerter.AlertAdmins(ctx, adminT("admin.sync_error", req.Username, err))
		}
	}
}
