package perk

import (
	"context"

	"go-donations/translation"
)

// WhitelistPerk adds the target to the whitelist of a CFTools server. An
// amountInDays of zero whitelists permanently.
// Fingerprint fields: serverApiId, amountInDays.
type WhitelistPerk struct {
	serverGrant
}

func (p *WhitelistPerk) ID() Fingerprint {
	return p.id.get(func() Fingerprint {
		return fingerprint(p.typ, p.fields()...)
	})
}

func (p *WhitelistPerk) Redeem(ctx context.Context, target RedeemTarget, order OrderRef) (translation.Message, error) {
	return p.redeem(ctx, target, order)
}

func (p *WhitelistPerk) OwnedBy(ctx context.Context, target RedeemTarget) ([]OwnedPerk, bool, error) {
	return p.ownedBy(ctx, target, p.ID(), p.ShortString())
}

func (p *WhitelistPerk) LongString() string {
	if p.permanent {
		return translation.Translate("PERK_WHITELIST_DESCRIPTION", map[string]string{
			"serverName": p.names.Name(p.serverID),
		})
	}
	return translation.Translate("PERK_WHITELIST_DAYS_DESCRIPTION", map[string]string{
		"serverName":   p.names.Name(p.serverID),
		"amountInDays": p.days(),
	})
}

func (p *WhitelistPerk) ShortString() string {
	return "Whitelist (" + p.names.Name(p.serverID) + ")"
}
