package controllers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"go-donations/payment/subscription"
)

type subscriptionView struct {
	ID                 string             `json:"id"`
	State              subscription.State `json:"state"`
	PackageID          int                `json:"packageId"`
	BillingAgreementID string             `json:"billingAgreementId,omitempty"`
	TransactionID      string             `json:"transactionId,omitempty"`
	CreatedAt          time.Time          `json:"createdAt"`
	PaidAt             *time.Time         `json:"paidAt,omitempty"`
}

func newSubscriptionView(s *subscription.Subscription) subscriptionView {
	v := subscriptionView{
		ID:                 s.ID,
		State:              s.State,
		PackageID:          s.PackageID,
		BillingAgreementID: s.BillingAgreementID,
		TransactionID:      s.TransactionID,
		CreatedAt:          s.CreatedAt,
	}
	if !s.PaidAt.IsZero() {
		v.PaidAt = &s.PaidAt
	}
	return v
}

// Subscribe starts a subscription to a recurring package.
func (h *Handler) Subscribe(c *gin.Context) {
	u, ok := currentUser(c)
	if !ok {
		return
	}
	var req struct {
		PackageID int `json:"packageId" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request")
		return
	}
	sub, approveURL, err := h.subscriptions.Subscribe(c.Request.Context(), u.Subscriber(), req.PackageID)
	if err != nil {
		h.fail(c, err, nil)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"subscription": newSubscriptionView(sub), "approveUrl": approveURL})
}

func (h *Handler) GetSubscription(c *gin.Context) {
	u, ok := currentUser(c)
	if !ok {
		return
	}
	sub, err := h.subscriptions.Find(c.Request.Context(), c.Param("id"), u.Subscriber())
	if err != nil {
		h.fail(c, err, nil)
		return
	}
	c.JSON(http.StatusOK, newSubscriptionView(sub))
}

// AgreeBilling is called when the donor returns from approving the
// subscription at the provider.
func (h *Handler) AgreeBilling(c *gin.Context) {
	u, ok := currentUser(c)
	if !ok {
		return
	}
	var req struct {
		AgreementID string `json:"agreementId" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request")
		return
	}
	sub, err := h.subscriptions.AgreeBilling(c.Request.Context(), c.Param("id"), req.AgreementID, u.Subscriber())
	if err != nil {
		h.fail(c, err, nil)
		return
	}
	c.JSON(http.StatusOK, newSubscriptionView(sub))
}

func (h *Handler) CancelSubscription(c *gin.Context) {
	u, ok := currentUser(c)
	if !ok {
		return
	}
	sub, err := h.subscriptions.Cancel(c.Request.Context(), c.Param("id"), u.Subscriber())
	if err != nil {
		h.fail(c, err, nil)
		return
	}
	c.JSON(http.StatusOK, newSubscriptionView(sub))
}

// SubscriptionPayment records a billing event forwarded by the payment
// provider integration.
func (h *Handler) SubscriptionPayment(c *gin.Context) {
	var req struct {
		AgreementID   string `json:"agreementId" binding:"required"`
		TransactionID string `json:"transactionId" binding:"required"`
		Amount        string `json:"amount"`
		Currency      string `json:"currency"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request")
		return
	}
	sub, messages, err := h.subscriptions.Pay(c.Request.Context(), subscription.Payment{
		AgreementID:   req.AgreementID,
		TransactionID: req.TransactionID,
		Amount:        req.Amount,
		Currency:      req.Currency,
	})
	if err != nil {
		h.fail(c, err, gin.H{"messages": render(messages)})
		return
	}
	c.JSON(http.StatusOK, gin.H{"subscription": newSubscriptionView(sub), "messages": render(messages)})
}
