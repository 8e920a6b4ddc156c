package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"go-donations/perk"
)

type perkView struct {
	ID          perk.Fingerprint `json:"id"`
	Type        perk.Type        `json:"type"`
	Title       string           `json:"title"`
	Description string           `json:"description"`
}

type packageView struct {
	ID          int        `json:"id"`
	Name        string     `json:"name"`
	Description string     `json:"description,omitempty"`
	Price       perk.Price `json:"price"`
	Perks       []perkView `json:"perks"`
}

func newPackageView(p *perk.Package) packageView {
	v := packageView{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Price:       p.Price,
		Perks:       make([]perkView, 0, len(p.Perks)),
	}
	for _, pk := range p.Perks {
		v.Perks = append(v.Perks, perkView{
			ID:          pk.ID(),
			Type:        pk.Type(),
			Title:       pk.ShortString(),
			Description: pk.LongString(),
		})
	}
	return v
}

// Packages lists the packages that can currently be bought.
func (h *Handler) Packages(c *gin.Context) {
	available := h.catalog.Available()
	out := make([]packageView, 0, len(available))
	for _, p := range available {
		out = append(out, newPackageView(p))
	}
	c.JSON(http.StatusOK, gin.H{"packages": out})
}
