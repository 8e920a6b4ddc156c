// Package order implements one time donations: an order is created at the
// payment provider, captured once the donor approved it and finally redeemed,
// which grants the perks of the bought package.
package order

import (
	"errors"
	"fmt"
	"time"

	"go-donations/perk"
)

type Status string

// 3 status: CREATED -> COMPLETED -> REDEEMED
const (
	StatusCreated   Status = "CREATED"
	StatusCompleted Status = "COMPLETED"
	StatusRedeemed  Status = "REDEEMED"
)

var (
	ErrInvalidTransition = errors.New("invalid order state transition")
	ErrNotFound          = errors.New("order not found")
)

// StateTransitionError is returned when an order is moved to a status that
// cannot follow its current one.
type StateTransitionError struct {
	OrderID string
	From    Status
	To      Status
}

func (e *StateTransitionError) Error() string {
	return fmt.Sprintf("order %s cannot change from %s to %s", e.OrderID, e.From, e.To)
}

func (e *StateTransitionError) Unwrap() error {
	return ErrInvalidTransition
}

type Order struct {
	ID             string
	PaymentOrderID string
	Provider       string
	ApproveURL     string
	PackageID      int
	// SelectedPerk limits redemption to a single perk of the package.
	SelectedPerk  perk.Fingerprint
	Target        perk.RedeemTarget
	Status        Status
	TransactionID string
	CreatedAt     time.Time
	CompletedAt   time.Time
	RedeemedAt    time.Time
}

// Complete records the captured payment.
func (o *Order) Complete(transactionID string, at time.Time) error {
	if o.Status != StatusCreated {
		return &StateTransitionError{OrderID: o.ID, From: o.Status, To: StatusCompleted}
	}
	o.Status = StatusCompleted
	o.TransactionID = transactionID
	o.CompletedAt = at
	return nil
}

func (o *Order) MarkRedeemed(at time.Time) error {
	if o.Status != StatusCompleted {
		return &StateTransitionError{OrderID: o.ID, From: o.Status, To: StatusRedeemed}
	}
	o.Status = StatusRedeemed
	o.RedeemedAt = at
	return nil
}

// Ref is the view of the order perks redeem against.
func (o *Order) Ref() perk.OrderRef {
	return perk.OrderRef{ID: o.ID, CreatedAt: o.CreatedAt, CompletedAt: o.CompletedAt}
}

func (o *Order) clone() *Order {
	c := *o
	return &c
}
