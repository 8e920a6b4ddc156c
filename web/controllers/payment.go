package controllers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"go-donations/payment/order"
	"go-donations/payment/qrcode"
	"go-donations/perk"
)

type orderView struct {
	ID            string           `json:"id"`
	Status        order.Status     `json:"status"`
	PackageID     int              `json:"packageId"`
	SelectedPerk  perk.Fingerprint `json:"selectedPerk,omitempty"`
	Provider      string           `json:"provider"`
	ApproveURL    string           `json:"approveUrl,omitempty"`
	SteamID       string           `json:"steamId,omitempty"`
	TransactionID string           `json:"transactionId,omitempty"`
	CreatedAt     time.Time        `json:"createdAt"`
	CompletedAt   *time.Time       `json:"completedAt,omitempty"`
	RedeemedAt    *time.Time       `json:"redeemedAt,omitempty"`
}

func newOrderView(o *order.Order) orderView {
	v := orderView{
		ID:            o.ID,
		Status:        o.Status,
		PackageID:     o.PackageID,
		SelectedPerk:  o.SelectedPerk,
		Provider:      o.Provider,
		SteamID:       o.Target.SteamID,
		TransactionID: o.TransactionID,
		CreatedAt:     o.CreatedAt,
	}
	if o.Status == order.StatusCreated {
		v.ApproveURL = o.ApproveURL
	}
	if !o.CompletedAt.IsZero() {
		v.CompletedAt = &o.CompletedAt
	}
	if !o.RedeemedAt.IsZero() {
		v.RedeemedAt = &o.RedeemedAt
	}
	return v
}

type createOrderRequest struct {
	PackageID int              `json:"packageId" binding:"required"`
	PerkID    perk.Fingerprint `json:"perkId"`
}

// CreateOrder starts a one time donation for a package.
func (h *Handler) CreateOrder(c *gin.Context) {
	u, ok := currentUser(c)
	if !ok {
		return
	}
	var req createOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request")
		return
	}

	// The order is bound to the session identity, capture and redeem check it.
	o, err := h.orders.Create(c.Request.Context(), u.Target(), req.PackageID, req.PerkID)
	if err != nil {
		h.fail(c, err, nil)
		return
	}
	c.JSON(http.StatusCreated, newOrderView(o))
}

func (h *Handler) GetOrder(c *gin.Context) {
	u, ok := currentUser(c)
	if !ok {
		return
	}
	o, err := h.orders.Find(c.Request.Context(), c.Param("id"), u.Target())
	if err != nil {
		h.fail(c, err, nil)
		return
	}
	c.JSON(http.StatusOK, newOrderView(o))
}

// CaptureOrder captures the payment the donor approved at the provider.
func (h *Handler) CaptureOrder(c *gin.Context) {
	u, ok := currentUser(c)
	if !ok {
		return
	}
	o, err := h.orders.Capture(c.Request.Context(), c.Param("id"), u.Target())
	if err != nil {
		h.fail(c, err, nil)
		return
	}
	c.JSON(http.StatusOK, newOrderView(o))
}

// RedeemOrder grants the perks of a captured order. When a perk fails, the
// results of the perks redeemed before are part of the error answer.
func (h *Handler) RedeemOrder(c *gin.Context) {
	u, ok := currentUser(c)
	if !ok {
		return
	}
	messages, err := h.orders.Redeem(c.Request.Context(), c.Param("id"), u.Target())
	if err != nil {
		h.fail(c, err, gin.H{"messages": render(messages)})
		return
	}
	o, err := h.orders.Find(c.Request.Context(), c.Param("id"), u.Target())
	if err != nil {
		h.fail(c, err, nil)
		return
	}
	c.JSON(http.StatusOK, gin.H{"order": newOrderView(o), "messages": render(messages)})
}

// OrderQRCode renders the approve link of an open order as PNG.
func (h *Handler) OrderQRCode(c *gin.Context) {
	u, ok := currentUser(c)
	if !ok {
		return
	}
	o, err := h.orders.Find(c.Request.Context(), c.Param("id"), u.Target())
	if err != nil {
		h.fail(c, err, nil)
		return
	}
	if o.Status != order.StatusCreated {
		h.fail(c, &order.StateTransitionError{OrderID: o.ID, From: o.Status, To: order.StatusCompleted}, nil)
		return
	}
	png, err := qrcode.ApproveLinkPNG(o.ApproveURL, qrcode.DefaultSize)
	if err != nil {
		h.fail(c, err, nil)
		return
	}
	c.Data(http.StatusOK, "image/png", png)
}
