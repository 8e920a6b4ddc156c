package perk

import (
	"context"
	"sync"
	"time"

	"go-donations/grant"
)

type memoryGrants struct {
	mu      sync.Mutex
	entries map[string]grant.Entry
	puts    int
	putErr  error
	getErr  error
}

func newMemoryGrants() *memoryGrants {
	return &memoryGrants{entries: map[string]grant.Entry{}}
}

func (m *memoryGrants) Put(_ context.Context, g grant.Grant) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.puts++
	if m.putErr != nil {
		return m.putErr
	}
	key := g.ServerID + "/" + g.SteamID
	if _, ok := m.entries[key]; ok {
		return grant.ErrDuplicateResource
	}
	m.entries[key] = grant.Entry{
		ServerID: g.ServerID,
		SteamID:  g.SteamID,
		Expires:  g.Expires,
		Comment:  g.Comment,
	}
	return nil
}

func (m *memoryGrants) Get(_ context.Context, serverID, steamID string) (*grant.Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return nil, m.getErr
	}
	e, ok := m.entries[serverID+"/"+steamID]
	if !ok {
		return nil, nil
	}
	return &e, nil
}

type fakeGuild struct {
	mu      sync.Mutex
	roles   []Role
	members map[string][]string
	addErr  error
}

func newFakeGuild(roles ...Role) *fakeGuild {
	return &fakeGuild{roles: roles, members: map[string][]string{}}
}

func (g *fakeGuild) AddRole(_ context.Context, userID, roleID string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.addErr != nil {
		return g.addErr
	}
	for _, r := range g.members[userID] {
		if r == roleID {
			return nil
		}
	}
	g.members[userID] = append(g.members[userID], roleID)
	return nil
}

func (g *fakeGuild) MemberRoles(_ context.Context, userID string) ([]string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]string(nil), g.members[userID]...), nil
}

func (g *fakeGuild) GuildRoles(context.Context) ([]Role, error) {
	return g.roles, nil
}

type recordedGrants struct {
	grants []RoleGrant
}

func (r *recordedGrants) Record(_ context.Context, g RoleGrant) error {
	r.grants = append(r.grants, g)
	return nil
}

var fixedNow = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func testDeps() (Dependencies, *memoryGrants) {
	grants := newMemoryGrants()
	return Dependencies{
		PriorityQueue: grants,
		Whitelist:     grants,
		ReservedSlots: grants,
		Roles:         newFakeGuild(Role{ID: "111", Name: "Supporter"}, Role{ID: "222", Name: "VIP"}),
		ServerNames:   ServerNames{"server-a": "Chernarus #1"},
		Now:           func() time.Time { return fixedNow },
	}, grants
}

func priorityQueueConfig(serverID string, days int) PerkConfig {
	cfg := PerkConfig{Type: TypePriorityQueue, AmountInDays: days}
	cfg.CFTools.ServerAPIID = serverID
	return cfg
}
