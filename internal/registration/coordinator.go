package registration

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/kirill-jjj/teamtalk-reg-system/internal/artifact"
	"github.com/kirill-jjj/teamtalk-reg-system/internal/config"
	"github.com/kirill-jjj/teamtalk-reg-system/internal/db"
	"github.com/kirill-jjj/teamtalk-reg-system/internal/directory"
	"github.com/kirill-jjj/teamtalk-reg-system/internal/i18n"
	"github.com/kirill-jjj/teamtalk-reg-system/internal/models"
)

type Decision string

const (
	DecisionApprove Decision = "approve"
	DecisionReject  Decision = "reject"
)

// UserNotifier delivers messages and artifacts back to a registrant. The chat
// gateway implements it; web registrants get their artifacts in the HTTP
// response instead and have no registrant ID.
type UserNotifier interface {
	NotifyRegistrant(ctx context.Context, registrantID int64, text string)
	DeliverArtifacts(ctx context.Context, registrantID int64, locale string, bundle *artifact.Bundle)
}

// AdminNotifier fans messages out to the configured admins.
type AdminNotifier interface {
	// RequestApproval shows the pending request with approve/reject choices.
	RequestApproval(ctx context.Context, correlationKey string, pending *models.PendingRegistration)
	// NotifyAdmins sends text to every admin except excludeID. Zero excludes
	// nobody.
	NotifyAdmins(ctx context.Context, text string, excludeID int64)
	// NotifyAdmin sends text to one admin.
	NotifyAdmin(ctx context.Context, adminID int64, text string)
}

// Coordinator owns the approval workflow: parking finished registrations as
// pending rows, and resolving them exactly once when an admin decides.
type Coordinator struct {
	cfg           *config.Config
	pending       *db.PendingRegistrationRepository
	registrations *db.RegistrationRepository
	committer     *Committer
	users         UserNotifier
	admins        AdminNotifier
}

func NewCoordinator(
	cfg *config.Config,
	pending *db.PendingRegistrationRepository,
	registrations *db.RegistrationRepository,
	committer *Committer,
	users UserNotifier,
	admins AdminNotifier,
) *Coordinator {
	return &Coordinator{
		cfg:           cfg,
		pending:       pending,
		registrations: registrations,
		committer:     committer,
		users:         users,
		admins:        admins,
	}
}

// Submit parks a finished session for admin review and asks the admins to
// decide.
func (c *Coordinator) Submit(ctx context.Context, session Session, source models.SourceContext) error {
	pending := &models.PendingRegistration{
		CorrelationKey:  uuid.NewString(),
		RegistrantID:    session.RegistrantID,
		AccountUsername: session.Username,
		Password:        session.Password,
		Nickname:        session.Nickname,
		Source:          source,
		CreatedAt:       time.Now().UTC(),
	}
	if err := c.pending.Create(pending); err != nil {
		return fmt.Errorf("parking pending registration: %w", err)
	}

	c.admins.RequestApproval(ctx, pending.CorrelationKey, pending)
	return nil
}

// Resolve applies an admin decision. The pending row is consumed atomically,
// so concurrent decisions on the same request resolve to exactly one winner;
// losers get db.ErrNotFound and should tell the admin the request is gone.
func (c *Coordinator) Resolve(ctx context.Context, correlationKey string, decision Decision, deciderID int64, deciderName string) error {
	pending, err := c.pending.Consume(correlationKey)
	if err != nil {
		return err
	}

	adminT := i18n.For(c.cfg.Registration.AdminLanguage)
	userT := i18n.For(pending.Source.Locale)

	if decision == DecisionReject {
		if pending.Source.RequesterID != 0 {
			c.users.NotifyRegistrant(ctx, pending.Source.RequesterID, userT("register.rejected"))
		}
		c.admins.NotifyAdmins(ctx, adminT("admin.rejected_by", pending.AccountUsername, deciderName), deciderID)
		return nil
	}

	// The registrant may have been registered through another channel while
	// this request sat in the queue.
	registered, err := c.registrations.Exists(pending.RegistrantID)
	if err != nil {
		return fmt.Errorf("checking existing registration: %w", err)
	}
	if registered {
		if pending.Source.RequesterID != 0 {
			c.users.NotifyRegistrant(ctx, pending.Source.RequesterID, userT("register.already_registered"))
		}
		c.admins.NotifyAdmin(ctx, deciderID, adminT("admin.already_registered", pending.AccountUsername))
		c.admins.NotifyAdmins(ctx, adminT("admin.request_obsolete", pending.AccountUsername, deciderName), deciderID)
		return nil
	}

	bundle, err := c.committer.Commit(ctx, CommitRequest{
		RegistrantID: pending.RegistrantID,
		Username:     pending.AccountUsername,
		Password:     pending.Password,
		Nickname:     pending.Nickname,
		AccountType:  directory.AccountType(pending.Source.AccountType),
		Locale:       pending.Source.Locale,
		Source:       pending.Source,
	})
	if err != nil {
		// The pending row is already consumed, so the registrant cannot be
		// resolved again; tell them the attempt failed instead of going silent.
		if pending.Source.RequesterID != 0 {
			c.users.NotifyRegistrant(ctx, pending.Source.RequesterID, userT("register.failed"))
		}
		return fmt.Errorf("committing approved registration: %w", err)
	}

	if pending.Source.RequesterID != 0 {
		c.users.NotifyRegistrant(ctx, pending.Source.RequesterID, userT("register.approved"))
		c.users.DeliverArtifacts(ctx, pending.Source.RequesterID, pending.Source.Locale, bundle)
	}
	c.admins.NotifyAdmins(ctx, adminT("admin.approved_by", pending.AccountUsername, deciderName), deciderID)
	return nil
}
