package perk

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"

	"go-donations/grant"
	"go-donations/translation"
)

// serverGrant implements redemption and ownership for perks that put the
// target's steam id on a list of a game server.
type serverGrant struct {
	base
	serverID     string
	amountInDays int
	permanent    bool

	service grant.Service
	names   ServerNames
	logger  *zap.Logger
	now     func() time.Time

	completeKey string
	errorKey    string
}

func (g *serverGrant) ServerID() string {
	return g.serverID
}

func (g *serverGrant) AmountInDays() int {
	return g.amountInDays
}

func (g *serverGrant) Permanent() bool {
	return g.permanent
}

func (g *serverGrant) fields() []string {
	return []string{g.serverID, strconv.Itoa(g.amountInDays)}
}

func (g *serverGrant) redeem(ctx context.Context, target RedeemTarget, order OrderRef) (translation.Message, error) {
	serverName := g.names.Name(g.serverID)
	if target.SteamID == "" {
		return translation.New(g.errorKey, "serverName", serverName, "reason", ErrMissingSteamID.Error()), ErrMissingSteamID
	}

	expires := expiresAfter(order, g.amountInDays, g.permanent)
	err := g.service.Put(ctx, grant.Grant{
		ServerID: g.serverID,
		SteamID:  target.SteamID,
		Expires:  expires,
		Comment:  fmt.Sprintf("Created by donation service (order %s)", order.ID),
	})
	if errors.Is(err, grant.ErrDuplicateResource) {
		g.logger.Info("grant already exists, treating as redeemed",
			zap.String("type", string(g.typ)),
			zap.String("server", g.serverID),
			zap.String("steam_id", target.SteamID),
			zap.String("order_id", order.ID))
		err = nil
	}
	if err != nil {
		return translation.New(g.errorKey, "serverName", serverName, "reason", err.Error()),
			fmt.Errorf("redeem %s on %s: %w", g.typ, g.serverID, err)
	}

	return translation.New(g.completeKey, "serverName", serverName, "until", formatUntil(expires)), nil
}

func (g *serverGrant) ownedBy(ctx context.Context, target RedeemTarget, id Fingerprint, title string) ([]OwnedPerk, bool, error) {
	if target.SteamID == "" {
		return []OwnedPerk{}, true, nil
	}
	entry, err := g.service.Get(ctx, g.serverID, target.SteamID)
	if err != nil {
		return nil, true, fmt.Errorf("lookup %s on %s: %w", g.typ, g.serverID, err)
	}
	if !entry.Active(g.now()) {
		return []OwnedPerk{}, true, nil
	}
	return []OwnedPerk{{
		PerkID:  id,
		Title:   title,
		Expires: entry.Expires,
	}}, true, nil
}

func (g *serverGrant) days() string {
	return strconv.Itoa(g.amountInDays)
}
