package perk

import (
	"context"
	"strconv"

	"go-donations/translation"
)

// PriorityQueuePerk grants a priority queue entry on a CFTools server.
// Fingerprint fields: serverApiId, amountInDays, permanent.
type PriorityQueuePerk struct {
	serverGrant
}

func (p *PriorityQueuePerk) ID() Fingerprint {
	return p.id.get(func() Fingerprint {
		return fingerprint(p.typ, append(p.fields(), strconv.FormatBool(p.permanent))...)
	})
}

func (p *PriorityQueuePerk) Redeem(ctx context.Context, target RedeemTarget, order OrderRef) (translation.Message, error) {
	return p.redeem(ctx, target, order)
}

func (p *PriorityQueuePerk) OwnedBy(ctx context.Context, target RedeemTarget) ([]OwnedPerk, bool, error) {
	return p.ownedBy(ctx, target, p.ID(), p.ShortString())
}

func (p *PriorityQueuePerk) LongString() string {
	if p.permanent {
		return translation.Translate("PERK_PRIORITY_QUEUE_PERMANENT", map[string]string{
			"serverName": p.names.Name(p.serverID),
		})
	}
	return translation.Translate("PERK_PRIORITY_QUEUE_DESCRIPTION", map[string]string{
		"serverName":   p.names.Name(p.serverID),
		"amountInDays": p.days(),
	})
}

func (p *PriorityQueuePerk) ShortString() string {
	return "Priority Queue (" + p.names.Name(p.serverID) + ")"
}
