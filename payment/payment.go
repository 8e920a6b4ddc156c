// Package payment describes payment providers: one time orders captured by
// the donor and recurring subscriptions billed by the provider.
package payment

import (
	"context"
	"errors"
	"time"
)

// StatusCompleted is the provider status of a fully paid order.
const StatusCompleted = "COMPLETED"

var ErrUnknownOrder = errors.New("payment order not found")

type OrderRequest struct {
	Reference   Reference
	Description string
	Amount      string
	Currency    string
	ReturnURL   string
	CancelURL   string
}

type CreatedOrder struct {
	ID         string
	ApproveURL string
}

// Capture is the result of capturing an approved order.
type Capture struct {
	OrderID       string
	Status        string
	TransactionID string
	CustomID      string
	CompletedAt   time.Time
	Amount        string
	Currency      string
}

func (c Capture) Completed() bool {
	return c.Status == StatusCompleted
}

type PlanRequest struct {
	Name        string
	Description string
	Amount      string
	Currency    string
}

type SubscriptionRequest struct {
	ProviderPlanID string
	CustomID       string
	ReturnURL      string
	CancelURL      string
}

type CreatedSubscription struct {
	ID         string
	ApproveURL string
}

type Provider interface {
	Name() string
	CreateOrder(ctx context.Context, req OrderRequest) (CreatedOrder, error)
	CaptureOrder(ctx context.Context, orderID string) (Capture, error)
	// CreatePlan registers a monthly billing plan and returns its provider id.
	CreatePlan(ctx context.Context, req PlanRequest) (string, error)
	CreateSubscription(ctx context.Context, req SubscriptionRequest) (CreatedSubscription, error)
}
