package chat

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/kirill-jjj/teamtalk-reg-system/internal/db"
	"github.com/kirill-jjj/teamtalk-reg-system/internal/i18n"
)

// adminCommand gates a handler behind the admin list.
func (g *Gateway) adminCommand(ctx context.Context, cmd Command, handler func(ctx context.Context, cmd Command, t i18n.Translator)) {
	t := i18n.For(g.cfg.Registration.AdminLanguage)
	if !g.cfg.IsAdmin(cmd.SenderID) {
		g.send(ctx, cmd.SenderID, t("admin.not_authorized"))
		return
	}
	handler(ctx, cmd, t)
}

func (g *Gateway) listUsers(ctx context.Context, cmd Command, t i18n.Translator) {
	registrations, err := g.registrations.FindAll()
	if err != nil {
		g.reportError(ctx, cmd.SenderID, "listing registrations", err)
		return
	}
	if len(registrations) == 0 {
		g.send(ctx, cmd.SenderID, t("admin.no_registrations"))
		return
	}

	var b strings.Builder
	for _, reg := range registrations {
		fmt.Fprintf(&b, "%d: %s (%s)\n", reg.RegistrantID, reg.AccountUsername, reg.CreatedAt.Format("2006-01-02"))
	}
	g.send(ctx, cmd.SenderID, strings.TrimRight(b.String(), "\n"))
}

// deleteUser removes the account from the server. The registration row and
// the resulting ban are handled by the account-removed watcher, same as for
// any other server-side deletion.
func (g *Gateway) deleteUser(ctx context.Context, cmd Command, t i18n.Translator) {
	if len(cmd.Args) == 0 {
		g.send(ctx, cmd.SenderID, "usage: /delete_user <registrant id or username>")
		return
	}
	identifier := cmd.Args[0]

	registration, err := g.registrations.FindByIdentifier(identifier)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			g.send(ctx, cmd.SenderID, t("admin.user_not_found", identifier))
			return
		}
		g.reportError(ctx, cmd.SenderID, "looking up registration", err)
		return
	}

	if err := g.dir.Remove(ctx, registration.AccountUsername); err != nil {
		g.reportError(ctx, cmd.SenderID, "removing server account", err)
		return
	}
	g.send(ctx, cmd.SenderID, t("admin.user_deleted", registration.AccountUsername))
}

func (g *Gateway) unban(ctx context.Context, cmd Command, t i18n.Translator) {
	if len(cmd.Args) == 0 {
		g.send(ctx, cmd.SenderID, "usage: /unban <registrant id>")
		return
	}
	registrantID, err := strconv.ParseInt(cmd.Args[0], 10, 64)
	if err != nil {
		g.send(ctx, cmd.SenderID, "usage: /unban <registrant id>")
		return
	}

	removed, err := g.bans.Remove(registrantID)
	if err != nil {
		g.reportError(ctx, cmd.SenderID, "removing ban", err)
		return
	}
	if !removed {
		g.send(ctx, cmd.SenderID, t("admin.not_banned", registrantID))
		return
	}
	g.send(ctx, cmd.SenderID, t("admin.unbanned", registrantID))
}

func (g *Gateway) listBanned(ctx context.Context, cmd Command, t i18n.Translator) {
	banned, err := g.bans.FindAll()
	if err != nil {
		g.reportError(ctx, cmd.SenderID, "listing bans", err)
		return
	}
	if len(banned) == 0 {
		g.send(ctx, cmd.SenderID, t("admin.no_bans"))
		return
	}

	var b strings.Builder
	for _, ban := range banned {
		fmt.Fprintf(&b, "%d", ban.RegistrantID)
		if ban.AccountUsername != nil {
			fmt.Fprintf(&b, " (%s)", *ban.AccountUsername)
		}
		if ban.Automatic() {
			b.WriteString(" [auto]")
		}
		if ban.Reason != "" {
			fmt.Fprintf(&b, " - %s", ban.Reason)
		}
		b.WriteString("\n")
	}
	g.send(ctx, cmd.SenderID, strings.TrimRight(b.String(), "\n"))
}
