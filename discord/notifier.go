package discord

import (
	"context"

	"go-donations/payment/order"
	"go-donations/perk"
	"go-donations/translation"
)

// ChannelPoster posts plain text messages into a Discord channel.
type ChannelPoster interface {
	Notify(ctx context.Context, channelID, text string) error
}

// DonationNotifier announces redeemed donations in a guild channel.
type DonationNotifier struct {
	poster    ChannelPoster
	channelID string
}

func NewDonationNotifier(poster ChannelPoster, channelID string) *DonationNotifier {
	return &DonationNotifier{poster: poster, channelID: channelID}
}

func (n *DonationNotifier) DonationReceived(ctx context.Context, o *order.Order, pkg *perk.Package) error {
	msg := translation.New("DONATION_NOTIFICATION",
		"user", donor(o.Target),
		"package", pkg.Name,
	)
	return n.poster.Notify(ctx, n.channelID, msg.String())
}

func donor(t perk.RedeemTarget) string {
	switch {
	case t.DiscordID != "":
		return "<@" + t.DiscordID + ">"
	case t.SteamID != "":
		return t.SteamID
	default:
		return "Someone"
	}
}

var (
	_ order.Notifier = (*DonationNotifier)(nil)
	_ ChannelPoster  = (*Bot)(nil)
)
