// Package perk models the purchasable packages and the perks they grant.
//
// A Perk is one grantable benefit. Every variant knows how to redeem itself
// against a RedeemTarget and how to tell whether the target already owns it.
// Perks are built once from configuration by NewCatalog and are read-only
// afterwards.
package perk

import (
	"context"
	"errors"
	"time"

	"go-donations/translation"
)

type Type string

const (
	TypePriorityQueue Type = "PRIORITY_QUEUE"
	TypeDiscordRole   Type = "DISCORD_ROLE"
	TypeWhitelist     Type = "WHITELIST"
	TypeReservedSlot  Type = "RESERVED_SLOT"
	TypeFreetext      Type = "FREETEXT_ONLY"
)

var (
	ErrMissingSteamID   = errors.New("redeem target has no steam id")
	ErrMissingDiscordID = errors.New("redeem target has no discord id")
)

type Perk interface {
	Type() Type
	// Package is the package the perk was configured in.
	Package() *Package
	ID() Fingerprint

	// Redeem grants the perk to target. Redeeming an already granted perk
	// succeeds without granting it twice.
	Redeem(ctx context.Context, target RedeemTarget, order OrderRef) (translation.Message, error)
	// OwnedBy returns tracked == false when the variant does not track
	// ownership at all. A tracked perk that is not owned returns an empty
	// slice and tracked == true.
	OwnedBy(ctx context.Context, target RedeemTarget) (owned []OwnedPerk, tracked bool, err error)

	LongString() string
	ShortString() string
}

// RedeemTarget is the identity a perk is granted to.
type RedeemTarget struct {
	SteamID   string `json:"steamId,omitempty"`
	DiscordID string `json:"discordId,omitempty"`
}

// OrderRef carries the order data perks need while redeeming.
type OrderRef struct {
	ID          string
	CreatedAt   time.Time
	CompletedAt time.Time
}

// ExpirationBase is the point in time durations of redeemed perks start at.
func (o OrderRef) ExpirationBase() time.Time {
	if o.CompletedAt.IsZero() {
		return o.CreatedAt
	}
	return o.CompletedAt
}

type OwnedPerk struct {
	PerkID  Fingerprint `json:"perkId"`
	Title   string      `json:"title"`
	Expires *time.Time  `json:"expires,omitempty"`
}

// ServerNames maps server identifiers to display names.
type ServerNames map[string]string

func (n ServerNames) Name(serverID string) string {
	if name, ok := n[serverID]; ok && name != "" {
		return name
	}
	return serverID
}

type base struct {
	typ Type
	pkg *Package
	id  lazyID
}

func (b *base) Type() Type {
	return b.typ
}

func (b *base) Package() *Package {
	return b.pkg
}

func expiresAfter(order OrderRef, amountInDays int, permanent bool) *time.Time {
	if permanent {
		return nil
	}
	expires := order.ExpirationBase().AddDate(0, 0, amountInDays)
	return &expires
}

func formatUntil(expires *time.Time) string {
	if expires == nil {
		return translation.Translate("PRIORITY_QUEUE_PERMANENT", nil)
	}
	return expires.UTC().Format(time.RFC1123)
}
