// Package controllers holds the gin handlers of the donation API.
package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"go-donations/credential"
	"go-donations/grant"
	"go-donations/payment"
	"go-donations/payment/order"
	"go-donations/payment/paypal"
	"go-donations/payment/subscription"
	"go-donations/perk"
	"go-donations/translation"
	"go-donations/user"
	"go-donations/web/middleware"
)

type Dependencies struct {
	Catalog       *perk.Catalog
	Orders        *order.Service
	Subscriptions *subscription.Service
	UserData      *user.UserData
	Logger        *zap.Logger
}

type Handler struct {
	catalog       *perk.Catalog
	orders        *order.Service
	subscriptions *subscription.Service
	userData      *user.UserData
	logger        *zap.Logger
}

func New(deps Dependencies) *Handler {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	return &Handler{
		catalog:       deps.Catalog,
		orders:        deps.Orders,
		subscriptions: deps.Subscriptions,
		userData:      deps.UserData,
		logger:        deps.Logger,
	}
}

func currentUser(c *gin.Context) (user.User, bool) {
	u, ok := middleware.CurrentUser(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
	}
	return u, ok
}

func badRequest(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "BAD_REQUEST", "message": message})
}

// fail answers with the status matching err. extra is merged into the body.
func (h *Handler) fail(c *gin.Context, err error, extra gin.H) {
	status, code := classify(err)
	body := gin.H{"error": code, "message": err.Error()}
	if status == http.StatusInternalServerError {
		body["message"] = "Internal error, please contact support."
	}

	var mismatch *order.IdentityMismatchError
	if errors.As(err, &mismatch) {
		body["title"] = translation.Translate("ERROR_STEAM_ID_MISMATCH_TITLE", nil)
		body["description"] = translation.Translate("ERROR_STEAM_ID_MISMATCH_DESCRIPTION", nil)
		body["paymentSteamId"] = mismatch.PaymentSteamID
		body["userSteamId"] = mismatch.UserSteamID
	}
	for k, v := range extra {
		body[k] = v
	}
	body["supportInfo"] = supportInfo(c, status)

	if status >= http.StatusInternalServerError {
		h.logger.Error("request failed", zap.String("path", c.Request.URL.Path), zap.Error(err))
	}
	_ = c.Error(err)
	c.AbortWithStatusJSON(status, body)
}

func supportInfo(c *gin.Context, status int) gin.H {
	info := gin.H{"status": status}
	if u, ok := middleware.CurrentUser(c); ok {
		info["user"] = gin.H{"steamId": u.SteamID, "discordId": u.DiscordID}
	}
	if id := c.Param("id"); id != "" {
		info["id"] = id
	}
	return info
}

func classify(err error) (int, string) {
	var mismatch *order.IdentityMismatchError
	var apiErr *paypal.APIError
	switch {
	case errors.As(err, &mismatch):
		return http.StatusConflict, "STEAM_ID_MISMATCH"
	case errors.Is(err, order.ErrInvalidTransition), errors.Is(err, subscription.ErrInvalidTransition):
		return http.StatusConflict, "INVALID_STATE"
	case errors.Is(err, order.ErrNotFound), errors.Is(err, subscription.ErrNotFound), errors.Is(err, payment.ErrUnknownOrder):
		return http.StatusNotFound, "NOT_FOUND"
	case errors.Is(err, order.ErrUnknownPackage), errors.Is(err, subscription.ErrUnknownPackage):
		return http.StatusNotFound, "UNKNOWN_PACKAGE"
	case errors.Is(err, order.ErrUnknownPerk):
		return http.StatusNotFound, "UNKNOWN_PERK"
	case errors.Is(err, subscription.ErrNotOwner):
		return http.StatusForbidden, "FORBIDDEN"
	case errors.Is(err, order.ErrPaymentIncomplete):
		return http.StatusPaymentRequired, "PAYMENT_INCOMPLETE"
	case errors.Is(err, order.ErrRecurringPackage), errors.Is(err, subscription.ErrNotRecurring),
		errors.Is(err, order.ErrMissingSteamID), errors.Is(err, perk.ErrMissingSteamID),
		errors.Is(err, perk.ErrMissingDiscordID):
		return http.StatusBadRequest, "BAD_REQUEST"
	case errors.Is(err, grant.ErrExternalService), errors.Is(err, credential.ErrExpired),
		errors.Is(err, credential.ErrRejected), errors.Is(err, payment.ErrMalformedReference), errors.As(err, &apiErr):
		return http.StatusBadGateway, "UPSTREAM_FAILURE"
	}
	return http.StatusInternalServerError, "INTERNAL"
}

func render(messages []translation.Message) []string {
	out := make([]string, 0, len(messages))
	for _, m := range messages {
		out = append(out, m.String())
	}
	return out
}
