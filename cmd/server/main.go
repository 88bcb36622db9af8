package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/kirill-jjj/teamtalk-reg-system/internal/api"
	"github.com/kirill-jjj/teamtalk-reg-system/internal/artifact"
	"github.com/kirill-jjj/teamtalk-reg-system/internal/banwatch"
	"github.com/kirill-jjj/teamtalk-reg-system/internal/config"
	"github.com/kirill-jjj/teamtalk-reg-system/internal/db"
	"github.com/kirill-jjj/teamtalk-reg-system/internal/directory"
	"github.com/kirill-jjj/teamtalk-reg-system/internal/registration"
)

func main() {
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})))

	configPath := flag.String("config", "config.yaml", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	slog.Info("starting registration gateway", "server", cfg.Server.Name)

	database, err := db.Open(cfg.Database.Path)
	if err != nil {
		slog.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer database.Close()
	slog.Info("database opened", "path", cfg.Database.Path)

	registrations := db.NewRegistrationRepository(database)
	pending := db.NewPendingRegistrationRepository(database)
	bans := db.NewBanRepository(database)
	registeredIPs := db.NewRegisteredIPRepository(database)
	tokens := db.NewDownloadTokenRepository(database)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	events := directory.NewEvents()
	server := directory.NewTeamTalk(cfg, events)
	if err := server.Connect(ctx); err != nil {
		slog.Error("failed to connect to server", "error", err)
		os.Exit(1)
	}
	defer server.Close()

	artifacts := artifact.NewGenerator(cfg, tokens)
	notifier := logNotifier{}
	committer := registration.NewCommitter(cfg, server, registrations, registeredIPs, artifacts, notifier)

	watcher := banwatch.NewWatcher(cfg, registrations, bans, notifier)
	watcher.Subscribe(events)

	cleanup := db.NewCleanupService(pending, registeredIPs, artifacts,
		cfg.Cleanup.Interval, cfg.Cleanup.PendingTTL, cfg.Cleanup.RegisteredIPTTL)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		cleanup.Start(ctx)
		return nil
	})

	if cfg.Web.Enabled {
		webServer, err := api.NewServer(cfg, database, server, committer, registeredIPs, artifacts)
		if err != nil {
			slog.Error("failed to create web server", "error", err)
			os.Exit(1)
		}

		httpServer := &http.Server{
			Addr:    cfg.WebAddr(),
			Handler: webServer,
		}
		g.Go(func() error {
			slog.Info("web server listening", "addr", httpServer.Addr, "base_url", cfg.Web.BaseURL)
			if err := httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
		g.Go(func() error {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return httpServer.Shutdown(shutdownCtx)
		})
	}

	if err := g.Wait(); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}

	slog.Info("server stopped")
}

// logNotifier stands in when no chat transport is embedded: admin summaries
// and alerts land in the log instead of a conversation. Deployments with a
// chat frontend wire a chat.Gateway here instead.
type logNotifier struct{}

func (logNotifier) NotifyAdmins(ctx context.Context, text string, excludeID int64) {
	slog.Info("admin notification", "text", text)
}

func (logNotifier) AlertAdmins(ctx context.Context, text string) {
	slog.Error("admin alert", "text", text)
}
