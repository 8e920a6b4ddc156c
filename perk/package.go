package perk

import (
	"math/big"
	"sort"
	"strings"
)

type PriceType string

const (
	PriceFixed     PriceType = "FIXED"
	PriceRecurring PriceType = "RECURRING"
)

type Price struct {
	Amount   string    `json:"amount" yaml:"amount"`
	Currency string    `json:"currency" yaml:"currency"`
	Type     PriceType `json:"type" yaml:"type"`
}

// Package is a purchasable bundle of perks.
type Package struct {
	ID          int
	Name        string
	Description string
	Price       Price
	Perks       []Perk
	Disabled    bool
}

// Perk returns the perk of the package with the given fingerprint.
func (p *Package) Perk(id Fingerprint) (Perk, bool) {
	for _, perk := range p.Perks {
		if perk.ID() == id {
			return perk, true
		}
	}
	return nil, false
}

// Catalog is the validated, read-only set of configured packages.
type Catalog struct {
	packages []*Package
	byID     map[int]*Package
	perks    map[Fingerprint]Perk
}

func (c *Catalog) Packages() []*Package {
	out := make([]*Package, len(c.packages))
	copy(out, c.packages)
	return out
}

// Available returns the packages that can be bought.
func (c *Catalog) Available() []*Package {
	out := make([]*Package, 0, len(c.packages))
	for _, p := range c.packages {
		if !p.Disabled {
			out = append(out, p)
		}
	}
	return out
}

func (c *Catalog) Package(id int) (*Package, bool) {
	p, ok := c.byID[id]
	return p, ok
}

// Perk looks up a perk by fingerprint across all packages. Identical perks in
// different packages share one fingerprint; the first configured one wins.
func (c *Catalog) Perk(id Fingerprint) (Perk, bool) {
	p, ok := c.perks[id]
	return p, ok
}

// DistinctPerks returns every configured perk once, ordered by fingerprint.
func (c *Catalog) DistinctPerks() []Perk {
	out := make([]Perk, 0, len(c.perks))
	for _, p := range c.perks {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID() < out[j].ID() })
	return out
}

// PackageForPrice finds the first package with the given price.
func (c *Catalog) PackageForPrice(amount, currency string, t PriceType) (*Package, bool) {
	for _, p := range c.packages {
		if p.Price.Type == t && sameAmount(p.Price.Amount, amount) && strings.EqualFold(p.Price.Currency, currency) {
			return p, true
		}
	}
	return nil, false
}

func sameAmount(a, b string) bool {
	ra, okA := new(big.Rat).SetString(strings.TrimSpace(a))
	rb, okB := new(big.Rat).SetString(strings.TrimSpace(b))
	if !okA || !okB {
		return a == b
	}
	return ra.Cmp(rb) == 0
}
