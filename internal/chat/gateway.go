package chat

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"strings"

	"github.com/kirill-jjj/teamtalk-reg-system/internal/artifact"
	"github.com/kirill-jjj/teamtalk-reg-system/internal/config"
	"github.com/kirill-jjj/teamtalk-reg-system/internal/db"
	"github.com/kirill-jjj/teamtalk-reg-system/internal/directory"
	"github.com/kirill-jjj/teamtalk-reg-system/internal/i18n"
	"github.com/kirill-jjj/teamtalk-reg-system/internal/models"
	"github.com/kirill-jjj/teamtalk-reg-system/internal/registration"
)

// Choice ID prefixes. The part after the colon carries the value.
const (
	choiceLanguage    = "lang"
	choiceAccountType = "acct"
	choiceNickname    = "nick"
	choiceApprove     = "approve"
	choiceReject      = "reject"
)

// Gateway routes chat updates into the registration flow and implements the
// notifier interfaces the approval coordinator fans out through.
type Gateway struct {
	cfg           *config.Config
	msgr          Messenger
	flow          *registration.Flow
	registrations *db.RegistrationRepository
	bans          *db.BanRepository
	dir           directory.Directory

	committer   *registration.Committer
	coordinator *registration.Coordinator
}

func NewGateway(
	cfg *config.Config,
	msgr Messenger,
	flow *registration.Flow,
	registrations *db.RegistrationRepository,
	bans *db.BanRepository,
	dir directory.Directory,
) *Gateway {
	return &Gateway{
		cfg:           cfg,
		msgr:          msgr,
		flow:          flow,
		registrations: registrations,
		bans:          bans,
		dir:           dir,
	}
}

// Wire attaches the commit machinery. Separate from the constructor because
// the committer and coordinator notify through the gateway itself.
func (g *Gateway) Wire(committer *registration.Committer, coordinator *registration.Coordinator) {
	g.committer = committer
	g.coordinator = coordinator
}

// Subscribe relays server account events to the admins.
func (g *Gateway) Subscribe(events *directory.Events) {
	adminT := i18n.For(g.cfg.Registration.AdminLanguage)
	events.OnAccountCreated(func(username string) {
		g.NotifyAdmins(context.Background(), adminT("admin.account_created", username), 0)
	})
}

func (g *Gateway) HandleCommand(ctx context.Context, cmd Command) {
	switch cmd.Name {
	case "start", "register":
		forOther := g.cfg.IsAdmin(cmd.SenderID) && len(cmd.Args) > 0 && cmd.Args[0] == "other"
		result, err := g.flow.Start(ctx, cmd.SenderID, cmd.SenderName, forOther)
		if err != nil {
			g.reportError(ctx, cmd.SenderID, "starting registration", err)
			return
		}
		g.respond(ctx, cmd.SenderID, result)
	case "cancel":
		g.respond(ctx, cmd.SenderID, g.flow.Cancel(cmd.SenderID))
	case "list_users":
		g.adminCommand(ctx, cmd, g.listUsers)
	case "delete_user":
		g.adminCommand(ctx, cmd, g.deleteUser)
	case "unban":
		g.adminCommand(ctx, cmd, g.unban)
	case "banned":
		g.adminCommand(ctx, cmd, g.listBanned)
	}
}

// HandleText feeds free-form input to whichever step expects it. Text with no
// session behind it is dropped.
func (g *Gateway) HandleText(ctx context.Context, in TextInput) {
	session, ok := g.flow.SessionFor(in.SenderID)
	if !ok {
		return
	}

	var (
		result *registration.Result
		err    error
	)
	switch session.Step {
	case registration.StepAwaitingUsername:
		result, err = g.flow.SubmitUsername(ctx, in.SenderID, in.Text)
	case registration.StepAwaitingPassword:
		result, err = g.flow.SubmitPassword(ctx, in.SenderID, in.Text)
	case registration.StepAwaitingNickname:
		result, err = g.flow.SubmitNickname(in.SenderID, in.Text)
	default:
		return
	}
	if err != nil {
		if errors.Is(err, registration.ErrWrongStep) || errors.Is(err, registration.ErrNoSession) {
			return
		}
		g.reportError(ctx, in.SenderID, "handling registration input", err)
		return
	}
	g.respond(ctx, in.SenderID, result)
}

func (g *Gateway) HandleChoice(ctx context.Context, sel ChoiceSelected) {
	kind, value, ok := strings.Cut(sel.ChoiceID, ":")
	if !ok {
		return
	}

	if err := g.msgr.RemovePrompt(ctx, sel.SenderID, sel.PromptID); err != nil {
		slog.Debug("error removing prompt", "component", "chat", "error", err)
	}

	switch kind {
	case choiceApprove, choiceReject:
		g.handleDecision(ctx, sel, kind, value)
		return
	}

	var (
		result *registration.Result
		err    error
	)
	switch kind {
	case choiceLanguage:
		result, err = g.flow.ChooseLanguage(ctx, sel.SenderID, value)
	case choiceAccountType:
		result, err = g.flow.ChooseAccountType(sel.SenderID, directory.AccountType(value))
	case choiceNickname:
		result, err = g.flow.ChooseNicknamePreference(sel.SenderID, value == "yes")
	default:
		return
	}
	if err != nil {
		if errors.Is(err, registration.ErrWrongStep) || errors.Is(err, registration.ErrNoSession) {
			return
		}
		g.reportError(ctx, sel.SenderID, "handling registration choice", err)
		return
	}
	g.respond(ctx, sel.SenderID, result)
}

func (g *Gateway) handleDecision(ctx context.Context, sel ChoiceSelected, kind, correlationKey string) {
	adminT := i18n.For(g.cfg.Registration.AdminLanguage)
	if !g.cfg.IsAdmin(sel.SenderID) {
		g.send(ctx, sel.SenderID, adminT("admin.not_authorized"))
		return
	}

	decision := registration.DecisionApprove
	if kind == choiceReject {
		decision = registration.DecisionReject
	}

	err := g.coordinator.Resolve(ctx, correlationKey, decision, sel.SenderID, sel.SenderName)
	if errors.Is(err, db.ErrNotFound) {
		g.send(ctx, sel.SenderID, adminT("admin.already_resolved"))
		return
	}
	if err != nil {
		g.reportError(ctx, sel.SenderID, "resolving registration request", err)
	}
}

// respond renders a flow result back to the registrant and runs the terminal
// outcomes: submitting for approval or committing outright.
func (g *Gateway) respond(ctx context.Context, senderID int64, result *registration.Result) {
	session := result.Session
	T := i18n.For(session.Locale)

	switch result.Outcome {
	case registration.OutcomeBanned:
		g.send(ctx, senderID, T("register.banned"))
	case registration.OutcomeAlreadyRegistered:
		g.send(ctx, senderID, T("register.already_registered"))
	case registration.OutcomeChooseLanguage:
		g.promptLanguages(ctx, senderID)
	case registration.OutcomeAskUsername:
		g.send(ctx, senderID, T("register.enter_username"))
	case registration.OutcomeUsernameTaken:
		g.send(ctx, senderID, T("register.username_taken"))
	case registration.OutcomeUsernameCheckFailed:
		g.send(ctx, senderID, T("register.username_check_error"))
	case registration.OutcomeAskPassword:
		g.send(ctx, senderID, T("register.enter_password"))
	case registration.OutcomeAskAccountType:
		g.prompt(ctx, senderID, T("register.choose_account_type"), []Choice{
			{ID: choiceAccountType + ":user", Label: T("register.account_type_user")},
			{ID: choiceAccountType + ":admin", Label: T("register.account_type_admin")},
		})
	case registration.OutcomeAskNicknameChoice:
		g.prompt(ctx, senderID, T("register.nickname_question", session.Username), []Choice{
			{ID: choiceNickname + ":yes", Label: T("register.nickname_yes")},
			{ID: choiceNickname + ":no", Label: T("register.nickname_no")},
		})
	case registration.OutcomeAskNickname:
		g.send(ctx, senderID, T("register.enter_nickname"))
	case registration.OutcomeSubmitForApproval:
		if err := g.coordinator.Submit(ctx, session, g.sourceFor(session)); err != nil {
			g.reportError(ctx, senderID, "submitting for approval", err)
			return
		}
		g.send(ctx, senderID, T("register.awaiting_approval"))
	case registration.OutcomeReadyToCommit:
		g.commit(ctx, senderID, session)
	case registration.OutcomeCancelled:
		g.send(ctx, senderID, T("register.cancelled"))
	case registration.OutcomeNothingToCancel:
		g.send(ctx, senderID, T("register.nothing_to_cancel"))
	}
}

func (g *Gateway) commit(ctx context.Context, senderID int64, session registration.Session) {
	T := i18n.For(session.Locale)
	bundle, err := g.committer.Commit(ctx, registration.CommitRequest{
		RegistrantID: session.RegistrantID,
		Username:     session.Username,
		Password:     session.Password,
		Nickname:     session.Nickname,
		AccountType:  session.AccountType,
		Locale:       session.Locale,
		Source:       g.sourceFor(session),
	})
	if err != nil {
		slog.Error("error committing registration", "component", "chat",
			"registrant_id", session.RegistrantID, "username", session.Username, "error", err)
		g.send(ctx, senderID, T("register.failed"))
		return
	}

	g.send(ctx, senderID, T("register.completed", session.Username, g.cfg.Server.Name))
	g.DeliverArtifacts(ctx, senderID, session.Locale, bundle)
}

func (g *Gateway) sourceFor(session registration.Session) models.SourceContext {
	source := models.SourceContext{
		Channel:       "chat",
		Locale:        session.Locale,
		RequesterID:   session.RegistrantID,
		RequesterName: session.RegistrantName,
		AccountType:   string(session.AccountType),
	}
	if session.ForOther {
		source.RegisteredByAdminID = session.RegistrantID
	}
	return source
}

func (g *Gateway) promptLanguages(ctx context.Context, recipientID int64) {
	T := i18n.For(i18n.DefaultLocale)
	var choices []Choice
	for _, code := range i18n.Locales() {
		choices = append(choices, Choice{
			ID:    choiceLanguage + ":" + code,
			Label: i18n.For(code)("language.name"),
		})
	}
	g.prompt(ctx, recipientID, T("register.choose_language"), choices)
}

// NotifyRegistrant implements registration.UserNotifier.
func (g *Gateway) NotifyRegistrant(ctx context.Context, registrantID int64, text string) {
	g.send(ctx, registrantID, text)
}

// DeliverArtifacts implements registration.UserNotifier. The connect link
// goes out as text, the generated files as documents, and the single-use
// download links alongside when the web listener is up.
func (g *Gateway) DeliverArtifacts(ctx context.Context, registrantID int64, locale string, bundle *artifact.Bundle) {
	T := i18n.For(locale)
	g.send(ctx, registrantID, T("artifact.link_message", bundle.Link))

	if bundle.ConfigURL != "" {
		urls := bundle.ConfigURL
		if bundle.ClientURL != "" {
			urls += "\n" + bundle.ClientURL
		}
		g.send(ctx, registrantID, T("artifact.download_page", urls))
	}

	g.sendFile(ctx, registrantID, bundle.ConfigPath, bundle.ConfigFilename, T("artifact.config_caption"))
	if bundle.ClientPath != "" {
		g.sendFile(ctx, registrantID, bundle.ClientPath, bundle.ClientFilename, T("artifact.client_caption"))
	}
}

// RequestApproval implements registration.AdminNotifier.
func (g *Gateway) RequestApproval(ctx context.Context, correlationKey string, pending *models.PendingRegistration) {
	adminT := i18n.For(g.cfg.Registration.AdminLanguage)
	text := adminT("admin.approval_request",
		pending.AccountUsername, pending.Nickname,
		pending.Source.RequesterName, pending.Source.RequesterID,
		pending.Source.IPAddress)
	choices := []Choice{
		{ID: choiceApprove + ":" + correlationKey, Label: adminT("admin.approve")},
		{ID: choiceReject + ":" + correlationKey, Label: adminT("admin.reject")},
	}
	for _, adminID := range g.cfg.Registration.AdminIDs {
		if _, err := g.msgr.PromptChoices(ctx, adminID, text, choices); err != nil {
			slog.Error("error sending approval request", "component", "chat", "admin_id", adminID, "error", err)
		}
	}
}

// NotifyAdmins implements registration.AdminNotifier.
func (g *Gateway) NotifyAdmins(ctx context.Context, text string, excludeID int64) {
	for _, adminID := range g.cfg.Registration.AdminIDs {
		if adminID == excludeID {
			continue
		}
		g.send(ctx, adminID, text)
	}
}

// NotifyAdmin implements the single-recipient half of registration.AdminNotifier.
func (g *Gateway) NotifyAdmin(ctx context.Context, adminID int64, text string) {
	g.send(ctx, adminID, text)
}

// AlertAdmins implements registration.AdminAlerter.
func (g *Gateway) AlertAdmins(ctx context.Context, text string) {
	g.NotifyAdmins(ctx, text, 0)
}

func (g *Gateway) send(ctx context.Context, recipientID int64, text string) {
	if err := g.msgr.SendText(ctx, recipientID, text); err != nil {
		slog.Error("error sending message", "component", "chat", "recipient_id", recipientID, "error", err)
	}
}

func (g *Gateway) prompt(ctx context.Context, recipientID int64, text string, choices []Choice) {
	if _, err := g.msgr.PromptChoices(ctx, recipientID, text, choices); err != nil {
		slog.Error("error sending prompt", "component", "chat", "recipient_id", recipientID, "error", err)
	}
}

func (g *Gateway) sendFile(ctx context.Context, recipientID int64, path, filename, caption string) {
	f, err := os.Open(path)
	if err != nil {
		slog.Error("error opening artifact for delivery", "component", "chat", "path", path, "error", err)
		return
	}
	defer f.Close()
	if err := g.msgr.SendDocument(ctx, recipientID, filename, f, caption); err != nil {
		slog.Error("error sending document", "component", "chat", "recipient_id", recipientID, "error", err)
	}
}

func (g *Gateway) reportError(ctx context.Context, recipientID int64, action string, err error) {
	slog.Error("error "+action, "component", "chat", "recipient_id", recipientID, "error", err)
	locale := i18n.DefaultLocale
	if session, ok := g.flow.SessionFor(recipientID); ok {
		locale = session.Locale
	}
	g.send(ctx, recipientID, i18n.For(locale)("register.failed"))
}
