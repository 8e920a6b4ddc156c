package perk

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"go-donations/translation"
)

type Role struct {
	ID   string
	Name string
}

// RoleService is the Discord bot connection of the configured guild.
type RoleService interface {
	AddRole(ctx context.Context, userID, roleID string) error
	MemberRoles(ctx context.Context, userID string) ([]string, error)
	GuildRoles(ctx context.Context) ([]Role, error)
}

// RoleGrant is a role assignment that has to be revoked once Expires has
// passed. A permanent grant is never revoked and outlives any timed grant of
// the same role.
type RoleGrant struct {
	DiscordID string
	RoleID    string
	PerkID    Fingerprint
	Expires   time.Time
	Permanent bool
}

type RoleRecorder interface {
	Record(ctx context.Context, g RoleGrant) error
}

// DiscordRolePerk assigns roles in the configured Discord guild.
// Fingerprint fields: roles (sorted, comma joined), amountInDays.
type DiscordRolePerk struct {
	base
	roles        []string
	amountInDays int

	service   RoleService
	recorder  RoleRecorder
	roleNames map[string]string
	logger    *zap.Logger
}

func (p *DiscordRolePerk) Roles() []string {
	out := make([]string, len(p.roles))
	copy(out, p.roles)
	return out
}

func (p *DiscordRolePerk) AmountInDays() int {
	return p.amountInDays
}

func (p *DiscordRolePerk) ID() Fingerprint {
	return p.id.get(func() Fingerprint {
		sorted := p.Roles()
		sort.Strings(sorted)
		return fingerprint(p.typ, strings.Join(sorted, ","), strconv.Itoa(p.amountInDays))
	})
}

// resolveRoles checks that every configured role exists in the guild.
func (p *DiscordRolePerk) resolveRoles(ctx context.Context) error {
	guildRoles, err := p.service.GuildRoles(ctx)
	if err != nil {
		return fmt.Errorf("list guild roles: %w", err)
	}
	known := make(map[string]string, len(guildRoles))
	for _, r := range guildRoles {
		known[r.ID] = r.Name
	}

	p.roleNames = make(map[string]string, len(p.roles))
	for _, id := range p.roles {
		name, ok := known[id]
		if !ok {
			return fmt.Errorf("discord role %s does not exist in the guild", id)
		}
		p.roleNames[id] = name
	}
	return nil
}

func (p *DiscordRolePerk) roleName(id string) string {
	if name, ok := p.roleNames[id]; ok {
		return name
	}
	return id
}

func (p *DiscordRolePerk) roleList() string {
	names := make([]string, 0, len(p.roles))
	for _, id := range p.roles {
		names = append(names, p.roleName(id))
	}
	return strings.Join(names, ", ")
}

func (p *DiscordRolePerk) Redeem(ctx context.Context, target RedeemTarget, order OrderRef) (translation.Message, error) {
	if target.DiscordID == "" {
		return translation.New("DISCORD_ROLE_REDEEM_ERROR", "reason", ErrMissingDiscordID.Error()), ErrMissingDiscordID
	}

	for _, roleID := range p.roles {
		// Adding a role the member already has is a no-op on Discord's side.
		if err := p.service.AddRole(ctx, target.DiscordID, roleID); err != nil {
			return translation.New("DISCORD_ROLE_REDEEM_ERROR", "reason", err.Error()),
				fmt.Errorf("assign discord role %s: %w", roleID, err)
		}
		if p.recorder == nil {
			continue
		}
		g := RoleGrant{
			DiscordID: target.DiscordID,
			RoleID:    roleID,
			PerkID:    p.ID(),
			Expires:   order.ExpirationBase(),
			Permanent: p.amountInDays <= 0,
		}
		if !g.Permanent {
			g.Expires = g.Expires.AddDate(0, 0, p.amountInDays)
		}
		if err := p.recorder.Record(ctx, g); err != nil {
			return translation.New("DISCORD_ROLE_REDEEM_ERROR", "reason", err.Error()),
				fmt.Errorf("record discord role %s: %w", roleID, err)
		}
	}

	p.logger.Info("discord roles assigned",
		zap.String("discord_id", target.DiscordID),
		zap.Strings("roles", p.roles),
		zap.String("order_id", order.ID))
	return translation.New("DISCORD_ROLE_REDEEM_COMPLETE", "roles", p.roleList()), nil
}

func (p *DiscordRolePerk) OwnedBy(ctx context.Context, target RedeemTarget) ([]OwnedPerk, bool, error) {
	if target.DiscordID == "" {
		return []OwnedPerk{}, true, nil
	}
	memberRoles, err := p.service.MemberRoles(ctx, target.DiscordID)
	if err != nil {
		return nil, true, fmt.Errorf("list member roles: %w", err)
	}
	has := make(map[string]bool, len(memberRoles))
	for _, r := range memberRoles {
		has[r] = true
	}

	owned := []OwnedPerk{}
	for _, roleID := range p.roles {
		if !has[roleID] {
			continue
		}
		owned = append(owned, OwnedPerk{
			PerkID: p.ID(),
			Title:  translation.Translate("PERKS_OWNED_DISCORD_ROLE", map[string]string{"role": p.roleName(roleID)}),
		})
	}
	return owned, true, nil
}

func (p *DiscordRolePerk) LongString() string {
	if p.amountInDays > 0 {
		return translation.Translate("PERK_DISCORD_ROLE_DAYS", map[string]string{
			"roles":        p.roleList(),
			"amountInDays": strconv.Itoa(p.amountInDays),
		})
	}
	return translation.Translate("PERK_DISCORD_ROLE_DESCRIPTION", map[string]string{"roles": p.roleList()})
}

func (p *DiscordRolePerk) ShortString() string {
	return "Discord Roles: " + p.roleList()
}
