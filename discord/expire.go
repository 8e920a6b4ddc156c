package discord

import (
	"context"
	"time"

	"go.uber.org/zap"

	"go-donations/perk"
)

type RoleRemover interface {
	RemoveRole(ctx context.Context, userID, roleID string) error
}

// RoleExpiry periodically removes roles whose recorded grant expired.
type RoleExpiry struct {
	store  GrantStore
	roles  RoleRemover
	every  time.Duration
	now    func() time.Time
	logger *zap.Logger
}

func NewRoleExpiry(store GrantStore, roles RoleRemover, every time.Duration, logger *zap.Logger) *RoleExpiry {
	if every <= 0 {
		every = time.Hour
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RoleExpiry{store: store, roles: roles, every: every, now: time.Now, logger: logger}
}

// Run sweeps once immediately and then on every tick until ctx is done.
// Ticks missed while a sweep is running are dropped.
func (e *RoleExpiry) Run(ctx context.Context) {
	e.logger.Info("starting discord role expiry", zap.Duration("interval", e.every))

	ticker := time.NewTicker(e.every)
	defer ticker.Stop()

	e.sweepAndLog(ctx)
	for {
		select {
		case <-ctx.Done():
			e.logger.Info("discord role expiry stopped")
			return
		case <-ticker.C:
			e.sweepAndLog(ctx)
		}
	}
}

func (e *RoleExpiry) sweepAndLog(ctx context.Context) {
	removed, err := e.Sweep(ctx)
	if err != nil {
		e.logger.Error("expiring discord roles failed", zap.Error(err))
		return
	}
	if removed > 0 {
		e.logger.Info("expired discord roles removed", zap.Int("count", removed))
	}
}

// Sweep removes every expired role and returns how many were removed. A role
// that could not be removed stays recorded and is retried on the next sweep.
func (e *RoleExpiry) Sweep(ctx context.Context) (int, error) {
	expired, err := e.store.Expired(ctx, e.now())
	if err != nil {
		return 0, err
	}

	removed := 0
	for _, g := range expired {
		if err := e.roles.RemoveRole(ctx, g.DiscordID, g.RoleID); err != nil {
			e.logger.Warn("could not remove discord role",
				zap.String("discord_id", g.DiscordID),
				zap.String("role", g.RoleID),
				zap.Error(err))
			continue
		}
		if err := e.store.Delete(ctx, g); err != nil {
			return removed, err
		}
		removed++
	}
	return removed, nil
}

var _ perk.RoleService = (*Bot)(nil)
var _ RoleRemover = (*Bot)(nil)
