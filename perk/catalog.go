package perk

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"go-donations/grant"
)

// ConfigurationError is a fatal problem in the package configuration.
type ConfigurationError struct {
	PackageID int
	Reason    string
}

func (e *ConfigurationError) Error() string {
	if e.PackageID == 0 {
		return "invalid package configuration: " + e.Reason
	}
	return fmt.Sprintf("invalid configuration of package %d: %s", e.PackageID, e.Reason)
}

type PackageConfig struct {
	ID          int          `yaml:"id"`
	Name        string       `yaml:"name"`
	Description string       `yaml:"description"`
	Price       Price        `yaml:"price"`
	Perks       []PerkConfig `yaml:"perks"`
	Disabled    bool         `yaml:"disabled"`
}

type PerkConfig struct {
	Type    Type `yaml:"type"`
	CFTools struct {
		ServerAPIID string `yaml:"serverApiId"`
	} `yaml:"cftools"`
	BattleMetrics struct {
		ServerID string `yaml:"serverId"`
	} `yaml:"battlemetrics"`
	AmountInDays int      `yaml:"amountInDays"`
	Permanent    bool     `yaml:"permanent"`
	Roles        []string `yaml:"roles"`
	Text         string   `yaml:"text"`
}

// Dependencies are the external systems perks redeem against. A nil service
// makes every perk type that needs it a configuration error.
type Dependencies struct {
	PriorityQueue grant.Service
	Whitelist     grant.Service
	ReservedSlots grant.Service
	Roles         RoleService
	RoleRecorder  RoleRecorder
	ServerNames   ServerNames
	Logger        *zap.Logger
	Now           func() time.Time
}

type constructor func(ctx context.Context, pkg *Package, cfg PerkConfig, deps Dependencies) (Perk, error)

var constructors = map[Type]constructor{
	TypePriorityQueue: newPriorityQueuePerk,
	TypeWhitelist:     newWhitelistPerk,
	TypeReservedSlot:  newReservedSlotPerk,
	TypeDiscordRole:   newDiscordRolePerk,
	TypeFreetext:      newFreetextPerk,
}

// NewCatalog validates the configured packages and builds their perks.
func NewCatalog(ctx context.Context, cfgs []PackageConfig, deps Dependencies) (*Catalog, error) {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}

	c := &Catalog{
		byID:  make(map[int]*Package, len(cfgs)),
		perks: make(map[Fingerprint]Perk),
	}
	for _, cfg := range cfgs {
		if _, dup := c.byID[cfg.ID]; dup {
			return nil, &ConfigurationError{
				PackageID: cfg.ID,
				Reason:    "package id is configured multiple times, each package needs a unique id",
			}
		}

		pkg, err := buildPackage(ctx, cfg, deps)
		if err != nil {
			return nil, err
		}
		c.packages = append(c.packages, pkg)
		c.byID[pkg.ID] = pkg
		for _, p := range pkg.Perks {
			if _, seen := c.perks[p.ID()]; !seen {
				c.perks[p.ID()] = p
			}
		}
	}
	return c, nil
}

func buildPackage(ctx context.Context, cfg PackageConfig, deps Dependencies) (*Package, error) {
	price := cfg.Price
	if price.Type == "" {
		price.Type = PriceFixed
	}
	price.Type = PriceType(strings.ToUpper(string(price.Type)))
	if price.Type != PriceFixed && price.Type != PriceRecurring {
		return nil, &ConfigurationError{PackageID: cfg.ID, Reason: "unknown price type " + string(cfg.Price.Type)}
	}

	pkg := &Package{
		ID:          cfg.ID,
		Name:        cfg.Name,
		Description: cfg.Description,
		Price:       price,
		Disabled:    cfg.Disabled,
		Perks:       make([]Perk, 0, len(cfg.Perks)),
	}
	for _, perkCfg := range cfg.Perks {
		build, ok := constructors[perkCfg.Type]
		if !ok {
			return nil, &ConfigurationError{PackageID: cfg.ID, Reason: "no available provider can redeem perk: " + string(perkCfg.Type)}
		}
		p, err := build(ctx, pkg, perkCfg, deps)
		if err != nil {
			var cfgErr *ConfigurationError
			if errors.As(err, &cfgErr) {
				return nil, err
			}
			return nil, &ConfigurationError{PackageID: cfg.ID, Reason: err.Error()}
		}
		pkg.Perks = append(pkg.Perks, p)
	}
	return pkg, nil
}

func (g *serverGrant) setup(t Type, pkg *Package, serverID string, days int, permanent bool, svc grant.Service, deps Dependencies) error {
	if svc == nil {
		return fmt.Errorf("%s perk is configured but its service is not set up", t)
	}
	if serverID == "" {
		return fmt.Errorf("%s perk needs a server id", t)
	}
	if days < 0 {
		return fmt.Errorf("%s perk has a negative amountInDays", t)
	}
	g.typ = t
	g.pkg = pkg
	g.serverID = serverID
	g.amountInDays = days
	g.permanent = permanent
	g.service = svc
	g.names = deps.ServerNames
	g.logger = deps.Logger
	g.now = deps.Now
	return nil
}

func newPriorityQueuePerk(_ context.Context, pkg *Package, cfg PerkConfig, deps Dependencies) (Perk, error) {
	if !cfg.Permanent && cfg.AmountInDays <= 0 {
		return nil, fmt.Errorf("%s perk needs amountInDays or permanent", cfg.Type)
	}
	p := &PriorityQueuePerk{}
	if err := p.setup(TypePriorityQueue, pkg, cfg.CFTools.ServerAPIID, cfg.AmountInDays, cfg.Permanent, deps.PriorityQueue, deps); err != nil {
		return nil, err
	}
	p.completeKey, p.errorKey = "PRIORITY_QUEUE_REDEEM_COMPLETE", "PRIORITY_QUEUE_REDEEM_ERROR"
	return p, nil
}

func newWhitelistPerk(_ context.Context, pkg *Package, cfg PerkConfig, deps Dependencies) (Perk, error) {
	p := &WhitelistPerk{}
	if err := p.setup(TypeWhitelist, pkg, cfg.CFTools.ServerAPIID, cfg.AmountInDays, cfg.AmountInDays == 0, deps.Whitelist, deps); err != nil {
		return nil, err
	}
	p.completeKey, p.errorKey = "WHITELIST_REDEEM_COMPLETE", "WHITELIST_REDEEM_ERROR"
	return p, nil
}

func newReservedSlotPerk(_ context.Context, pkg *Package, cfg PerkConfig, deps Dependencies) (Perk, error) {
	p := &ReservedSlotPerk{}
	if err := p.setup(TypeReservedSlot, pkg, cfg.BattleMetrics.ServerID, cfg.AmountInDays, cfg.AmountInDays == 0, deps.ReservedSlots, deps); err != nil {
		return nil, err
	}
	p.completeKey, p.errorKey = "RESERVED_SLOT_REDEEM_COMPLETE", "RESERVED_SLOT_REDEEM_ERROR"
	return p, nil
}

func newDiscordRolePerk(ctx context.Context, pkg *Package, cfg PerkConfig, deps Dependencies) (Perk, error) {
	if deps.Roles == nil {
		return nil, errors.New("at least one discord perk is configured but no valid discord configuration was found")
	}
	if len(cfg.Roles) == 0 {
		return nil, errors.New("DISCORD_ROLE perk needs at least one role")
	}
	if cfg.AmountInDays < 0 {
		return nil, errors.New("DISCORD_ROLE perk has a negative amountInDays")
	}
	p := &DiscordRolePerk{
		base:         base{typ: TypeDiscordRole, pkg: pkg},
		roles:        append([]string(nil), cfg.Roles...),
		amountInDays: cfg.AmountInDays,
		service:      deps.Roles,
		recorder:     deps.RoleRecorder,
		logger:       deps.Logger,
	}
	if err := p.resolveRoles(ctx); err != nil {
		return nil, err
	}
	return p, nil
}

func newFreetextPerk(_ context.Context, pkg *Package, cfg PerkConfig, _ Dependencies) (Perk, error) {
	if strings.TrimSpace(cfg.Text) == "" {
		return nil, errors.New("FREETEXT_ONLY perk needs a text")
	}
	return &FreetextPerk{base: base{typ: TypeFreetext, pkg: pkg}, text: cfg.Text}, nil
}
