package subscription

import (
	"errors"
	"net/url"
	"testing"

	"go-donations/perk"
)

var (
	aPackage = &perk.Package{ID: 1, Name: "Monthly", Price: perk.Price{Amount: "5.00", Currency: "EUR", Type: perk.PriceRecurring}}
	aUser    = Subscriber{DiscordID: "42", SteamID: "76561198012102485", Username: "A_USER"}
)

func TestSubscriptionLifecycle(t *testing.T) {
	plan := NewPlan(aPackage, "P-1")
	sub := Create(plan, aUser)
	if sub.State != StateCreated || sub.PlanID != plan.ID || sub.PackageID != aPackage.ID {
		t.Fatalf("unexpected new subscription %+v", sub)
	}

	if err := sub.Pay("A_TRANSACTION_ID", "FAKE", aPackage); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("paying before agreeing: expected ErrInvalidTransition, got %v", err)
	}

	if err := sub.AgreeBilling("A_PAYMENT_ID"); err != nil {
		t.Fatalf("AgreeBilling: %v", err)
	}
	if err := sub.AgreeBilling("OTHER"); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("agreeing twice: expected ErrInvalidTransition, got %v", err)
	}
	if sub.BillingAgreementID != "A_PAYMENT_ID" {
		t.Errorf("failed transition changed the agreement")
	}

	if err := sub.Renew("TX", "FAKE", aPackage); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("renewing unpaid subscription: expected ErrInvalidTransition, got %v", err)
	}
	if err := sub.Pay("A_TRANSACTION_ID", "FAKE", aPackage); err != nil {
		t.Fatalf("Pay: %v", err)
	}
	if sub.State != StatePaid || sub.TransactionID != "A_TRANSACTION_ID" || sub.PaymentProvider != "FAKE" {
		t.Errorf("unexpected paid subscription %+v", sub)
	}

	var transitionErr *StateTransitionError
	if err := sub.AgreeBilling("AGAIN"); !errors.As(err, &transitionErr) || transitionErr.From != StatePaid {
		t.Errorf("expected transition error from PAID, got %v", err)
	}

	if err := sub.Renew("SECOND_TX", "FAKE", aPackage); err != nil {
		t.Fatalf("Renew: %v", err)
	}
	if sub.TransactionID != "SECOND_TX" || sub.State != StatePaid {
		t.Errorf("unexpected renewed subscription %+v", sub)
	}

	if err := sub.Cancel(); err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	if err := sub.Cancel(); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("cancelling twice: expected ErrInvalidTransition, got %v", err)
	}
}

func TestAsLink(t *testing.T) {
	publicURL, _ := url.Parse("http://localhost:8080")
	sub := Create(NewPlan(aPackage, "P-1"), aUser)

	want := "http://localhost:8080/subscriptions/" + sub.ID
	if got := sub.AsLink(publicURL).String(); got != want {
		t.Errorf("expected %s, got %s", want, got)
	}
	if sub.AsLink(publicURL).String() != sub.AsLink(publicURL).String() {
		t.Errorf("link is not stable")
	}
}
