package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Me returns the session user with its subscriptions and owned perks.
// Perks that cannot be looked up are left out instead of failing the request.
func (h *Handler) Me(c *gin.Context) {
	u, ok := currentUser(c)
	if !ok {
		return
	}
	refreshed, err := h.userData.OnRefresh(c.Request.Context(), u)
	if err != nil {
		h.fail(c, err, nil)
		return
	}
	owned, err := h.userData.OwnedPerks(c.Request.Context(), h.catalog, refreshed.Target())
	if err != nil {
		h.logger.Warn("could not look up every owned perk", zap.String("discord_id", u.DiscordID), zap.Error(err))
	}
	c.JSON(http.StatusOK, gin.H{"user": refreshed, "ownedPerks": owned})
}
