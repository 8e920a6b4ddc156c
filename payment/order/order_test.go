package order

import (
	"errors"
	"testing"
	"time"
)

func TestOrderLifecycle(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	o := &Order{ID: "A_ORDER_ID", Status: StatusCreated, CreatedAt: now}

	if err := o.MarkRedeemed(now); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("redeeming a created order: expected ErrInvalidTransition, got %v", err)
	}

	if err := o.Complete("A_TRANSACTION_ID", now.Add(time.Minute)); err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if o.Status != StatusCompleted || o.TransactionID != "A_TRANSACTION_ID" {
		t.Errorf("unexpected order after Complete: %+v", o)
	}
	if got := o.Ref().ExpirationBase(); !got.Equal(now.Add(time.Minute)) {
		t.Errorf("expected expiration base at completion, got %v", got)
	}

	var transitionErr *StateTransitionError
	if err := o.Complete("OTHER", now); !errors.As(err, &transitionErr) {
		t.Errorf("completing twice: expected StateTransitionError, got %v", err)
	} else if transitionErr.From != StatusCompleted || transitionErr.To != StatusCompleted {
		t.Errorf("unexpected transition error %+v", transitionErr)
	}
	if o.TransactionID != "A_TRANSACTION_ID" {
		t.Errorf("failed transition changed the order")
	}

	if err := o.MarkRedeemed(now.Add(2 * time.Minute)); err != nil {
		t.Fatalf("MarkRedeemed: %v", err)
	}
	if err := o.MarkRedeemed(now); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("redeeming twice: expected ErrInvalidTransition, got %v", err)
	}
	if o.Status != StatusRedeemed {
		t.Errorf("expected REDEEMED, got %s", o.Status)
	}
}
