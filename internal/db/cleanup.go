package db

import (
	"context"
	"log/slog"
	"time"
)

const DefaultCleanupInterval = 5 * time.Minute

// TokenSweeper removes stale download tokens together with their on-disk
// artifacts. Implemented by the artifact generator, which owns the bytes.
type TokenSweeper interface {
	Sweep() (int64, error)
}

// CleanupService periodically deletes expired pending registrations, expired
// IP-registration records, and expired or already-used download tokens.
type CleanupService struct {
	pending       *PendingRegistrationRepository
	registeredIPs *RegisteredIPRepository
	tokens        TokenSweeper

	interval        time.Duration
	pendingTTL      time.Duration
	registeredIPTTL time.Duration
}

func NewCleanupService(
	pending *PendingRegistrationRepository,
	registeredIPs *RegisteredIPRepository,
	tokens TokenSweeper,
	interval, pendingTTL, registeredIPTTL time.Duration,
) *CleanupService {
	if interval <= 0 {
		interval = DefaultCleanupInterval
	}
	return &CleanupService{
		pending:         pending,
		registeredIPs:   registeredIPs,
		tokens:          tokens,
		interval:        interval,
		pendingTTL:      pendingTTL,
		registeredIPTTL: registeredIPTTL,
	}
}

func (s *CleanupService) Start(ctx context.Context) {
	slog.Info("starting cleanup service",
		"component", "cleanup",
		"interval", s.interval,
		"pending_ttl", s.pendingTTL,
		"registered_ip_ttl", s.registeredIPTTL,
	)

	s.RunOnce()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("stopping cleanup service", "component", "cleanup")
			return
		case <-ticker.C:
			s.RunOnce()
		}
	}
}

// RunOnce executes a single sweep cycle. Exported so the bootstrap can force
// a sweep and tests can drive the service without the ticker.
func (s *CleanupService) RunOnce() {
	pendingDeleted, err := s.pending.DeleteExpired(s.pendingTTL)
	if err != nil {
		slog.Error("error deleting expired pending registrations", "component", "cleanup", "error", err)
	} else if pendingDeleted > 0 {
		slog.Info("deleted expired pending registrations", "component", "cleanup", "count", pendingDeleted)
	}

	ipsDeleted, err := s.registeredIPs.DeleteExpired(s.registeredIPTTL)
	if err != nil {
		slog.Error("error deleting expired registered IPs", "component", "cleanup", "error", err)
	} else if ipsDeleted > 0 {
		slog.Info("deleted expired registered IPs", "component", "cleanup", "count", ipsDeleted)
	}

	if s.tokens != nil {
		tokensDeleted, err := s.tokens.Sweep()
		if err != nil {
			slog.Error("error sweeping download tokens", "component", "cleanup", "error", err)
		} else if tokensDeleted > 0 {
			slog.Info("swept download tokens", "component", "cleanup", "count", tokensDeleted)
		}
	}
}
