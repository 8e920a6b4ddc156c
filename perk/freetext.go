package perk

import (
	"context"

	"go-donations/translation"
)

// FreetextPerk is an informational reward without side effects.
// Fingerprint fields: text.
type FreetextPerk struct {
	base
	text string
}

func (p *FreetextPerk) Text() string {
	return p.text
}

func (p *FreetextPerk) ID() Fingerprint {
	return p.id.get(func() Fingerprint {
		return fingerprint(p.typ, p.text)
	})
}

func (p *FreetextPerk) Redeem(context.Context, RedeemTarget, OrderRef) (translation.Message, error) {
	return translation.New("FREETEXT_TEXT", "text", p.text), nil
}

func (p *FreetextPerk) OwnedBy(context.Context, RedeemTarget) ([]OwnedPerk, bool, error) {
	return nil, false, nil
}

func (p *FreetextPerk) LongString() string {
	return p.text
}

func (p *FreetextPerk) ShortString() string {
	return p.text
}
