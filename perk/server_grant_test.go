package perk

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-donations/grant"
)

func buildSingle(t *testing.T, deps Dependencies, cfg PerkConfig) Perk {
	t.Helper()
	c, err := NewCatalog(context.Background(), []PackageConfig{{ID: 1, Perks: []PerkConfig{cfg}}}, deps)
	require.NoError(t, err)
	pkg, _ := c.Package(1)
	return pkg.Perks[0]
}

func TestPriorityQueueRedeem(t *testing.T) {
	deps, grants := testDeps()
	p := buildSingle(t, deps, priorityQueueConfig("server-a", 30))
	order := OrderRef{ID: "A_ORDER_ID", CreatedAt: fixedNow.Add(-time.Hour), CompletedAt: fixedNow}

	msg, err := p.Redeem(context.Background(), RedeemTarget{SteamID: "76561198012102485"}, order)
	require.NoError(t, err)
	assert.Equal(t, "PRIORITY_QUEUE_REDEEM_COMPLETE", msg.Key)
	assert.Equal(t, "Chernarus #1", msg.Params["serverName"])

	entry, err := grants.Get(context.Background(), "server-a", "76561198012102485")
	require.NoError(t, err)
	require.NotNil(t, entry.Expires)
	assert.Equal(t, fixedNow.AddDate(0, 0, 30), *entry.Expires)
	assert.Contains(t, entry.Comment, "A_ORDER_ID")
}

func TestPriorityQueueRedeemTwiceSucceeds(t *testing.T) {
	deps, grants := testDeps()
	p := buildSingle(t, deps, priorityQueueConfig("server-a", 30))
	target := RedeemTarget{SteamID: "76561198012102485"}
	order := OrderRef{ID: "A_ORDER_ID", CompletedAt: fixedNow}

	_, err := p.Redeem(context.Background(), target, order)
	require.NoError(t, err)
	msg, err := p.Redeem(context.Background(), target, order)
	require.NoError(t, err)
	assert.Equal(t, "PRIORITY_QUEUE_REDEEM_COMPLETE", msg.Key)
	assert.Equal(t, 2, grants.puts)
	assert.Len(t, grants.entries, 1)
}

func TestServerGrantRedeemFailures(t *testing.T) {
	deps, grants := testDeps()
	p := buildSingle(t, deps, priorityQueueConfig("server-a", 30))

	_, err := p.Redeem(context.Background(), RedeemTarget{DiscordID: "1"}, OrderRef{})
	assert.ErrorIs(t, err, ErrMissingSteamID)

	grants.putErr = &grant.StatusError{Service: "cftools", StatusCode: 500, Body: "boom"}
	msg, err := p.Redeem(context.Background(), RedeemTarget{SteamID: "7656"}, OrderRef{})
	assert.ErrorIs(t, err, grant.ErrExternalService)
	assert.Equal(t, "PRIORITY_QUEUE_REDEEM_ERROR", msg.Key)
	assert.NotEmpty(t, msg.Params["reason"])
}

func TestWhitelistWithoutDaysIsPermanent(t *testing.T) {
	deps, grants := testDeps()
	cfg := PerkConfig{Type: TypeWhitelist}
	cfg.CFTools.ServerAPIID = "server-a"
	p := buildSingle(t, deps, cfg)

	_, err := p.Redeem(context.Background(), RedeemTarget{SteamID: "7656"}, OrderRef{CompletedAt: fixedNow})
	require.NoError(t, err)
	entry, _ := grants.Get(context.Background(), "server-a", "7656")
	assert.Nil(t, entry.Expires)
	assert.Equal(t, "Whitelist on Chernarus #1", p.LongString())
}

func TestServerGrantOwnedBy(t *testing.T) {
	deps, grants := testDeps()
	cfg := PerkConfig{Type: TypeReservedSlot, AmountInDays: 10}
	cfg.BattleMetrics.ServerID = "bm-1"
	p := buildSingle(t, deps, cfg)

	owned, tracked, err := p.OwnedBy(context.Background(), RedeemTarget{SteamID: "7656"})
	require.NoError(t, err)
	assert.True(t, tracked)
	assert.NotNil(t, owned)
	assert.Empty(t, owned)

	_, err = p.Redeem(context.Background(), RedeemTarget{SteamID: "7656"}, OrderRef{CompletedAt: fixedNow})
	require.NoError(t, err)
	owned, _, err = p.OwnedBy(context.Background(), RedeemTarget{SteamID: "7656"})
	require.NoError(t, err)
	require.Len(t, owned, 1)
	assert.Equal(t, p.ID(), owned[0].PerkID)
	assert.Equal(t, "Reserved Slot (bm-1)", owned[0].Title)

	expired := fixedNow.Add(-time.Minute)
	grants.entries["bm-1/old"] = grant.Entry{ServerID: "bm-1", SteamID: "old", Expires: &expired}
	owned, _, err = p.OwnedBy(context.Background(), RedeemTarget{SteamID: "old"})
	require.NoError(t, err)
	assert.Empty(t, owned)

	grants.getErr = errors.New("connection refused")
	_, _, err = p.OwnedBy(context.Background(), RedeemTarget{SteamID: "7656"})
	assert.Error(t, err)
}

func TestFreetextPerk(t *testing.T) {
	deps, _ := testDeps()
	p := buildSingle(t, deps, PerkConfig{Type: TypeFreetext, Text: "Thank you!"})

	msg, err := p.Redeem(context.Background(), RedeemTarget{}, OrderRef{})
	require.NoError(t, err)
	assert.Equal(t, "Thank you!", msg.String())

	owned, tracked, err := p.OwnedBy(context.Background(), RedeemTarget{SteamID: "7656"})
	require.NoError(t, err)
	assert.False(t, tracked)
	assert.Nil(t, owned)
}
