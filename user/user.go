// Package user assembles what a logged in user currently owns.
package user

import (
	"context"
	"errors"
	"fmt"
	"net/url"

	"go.uber.org/zap"

	"go-donations/payment/subscription"
	"go-donations/perk"
)

type User struct {
	DiscordID string `json:"discordId"`
	SteamID   string `json:"steamId,omitempty"`
	Username  string `json:"username"`
	// SubscribedPackages maps package ids to the link of the paid
	// subscription that grants them.
	SubscribedPackages map[int]string `json:"subscribedPackages,omitempty"`
}

func (u User) Target() perk.RedeemTarget {
	return perk.RedeemTarget{SteamID: u.SteamID, DiscordID: u.DiscordID}
}

func (u User) Subscriber() subscription.Subscriber {
	return subscription.Subscriber{DiscordID: u.DiscordID, SteamID: u.SteamID, Username: u.Username}
}

type UserData struct {
	subs      subscription.Repository
	plans     subscription.PlanRepository
	publicURL *url.URL
	logger    *zap.Logger
}

func NewUserData(subs subscription.Repository, plans subscription.PlanRepository, publicURL *url.URL, logger *zap.Logger) *UserData {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UserData{subs: subs, plans: plans, publicURL: publicURL, logger: logger}
}

// OnRefresh recomputes the subscribed packages of u from the paid
// subscriptions in the store. A user without paid subscriptions is returned
// as is.
func (d *UserData) OnRefresh(ctx context.Context, u User) (User, error) {
	subs, err := d.subs.FindByUser(ctx, u.DiscordID)
	if err != nil {
		return u, fmt.Errorf("subscriptions of %s: %w", u.DiscordID, err)
	}

	packages := make(map[int]string)
	for _, sub := range subs {
		if sub.State != subscription.StatePaid {
			continue
		}
		plan, err := d.plans.Find(ctx, sub.PlanID)
		if errors.Is(err, subscription.ErrNotFound) {
			d.logger.Warn("paid subscription without plan", zap.String("subscription_id", sub.ID), zap.String("plan_id", sub.PlanID))
			continue
		}
		if err != nil {
			return u, err
		}
		packageID := sub.PackageID
		if packageID == 0 {
			packageID = plan.PackageID
		}
		packages[packageID] = sub.AsLink(d.publicURL).String()
	}

	if len(packages) == 0 {
		if len(u.SubscribedPackages) == 0 {
			return u, nil
		}
		packages = nil
	}
	u.SubscribedPackages = packages
	return u, nil
}

// OwnedPerks asks every configured perk whether target owns it. Perks that
// do not track ownership are skipped. Lookup failures are joined into the
// returned error while the remaining perks are still checked.
func (d *UserData) OwnedPerks(ctx context.Context, catalog *perk.Catalog, target perk.RedeemTarget) ([]perk.OwnedPerk, error) {
	owned := []perk.OwnedPerk{}
	var errs []error
	for _, p := range catalog.DistinctPerks() {
		got, tracked, err := p.OwnedBy(ctx, target)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", p.ShortString(), err))
			continue
		}
		if !tracked {
			continue
		}
		owned = append(owned, got...)
	}
	return owned, errors.Join(errs...)
}
