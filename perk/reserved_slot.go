package perk

import (
	"context"

	"go-donations/translation"
)

// ReservedSlotPerk reserves a slot on a BattleMetrics managed server.
// Fingerprint fields: serverId, amountInDays.
type ReservedSlotPerk struct {
	serverGrant
}

func (p *ReservedSlotPerk) ID() Fingerprint {
	return p.id.get(func() Fingerprint {
		return fingerprint(p.typ, p.fields()...)
	})
}

func (p *ReservedSlotPerk) Redeem(ctx context.Context, target RedeemTarget, order OrderRef) (translation.Message, error) {
	return p.redeem(ctx, target, order)
}

func (p *ReservedSlotPerk) OwnedBy(ctx context.Context, target RedeemTarget) ([]OwnedPerk, bool, error) {
	return p.ownedBy(ctx, target, p.ID(), p.ShortString())
}

func (p *ReservedSlotPerk) LongString() string {
	key := "PERK_RESERVED_SLOT_DESCRIPTION"
	if p.permanent {
		key = "PERK_RESERVED_SLOT_PERMANENT"
	}
	return translation.Translate(key, map[string]string{
		"serverName":   p.names.Name(p.serverID),
		"amountInDays": p.days(),
	})
}

func (p *ReservedSlotPerk) ShortString() string {
	return "Reserved Slot (" + p.names.Name(p.serverID) + ")"
}
