// Package subscription implements recurring donations billed monthly by the
// payment provider.
package subscription

import (
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/google/uuid"

	"go-donations/perk"
)

type State string

const (
	StateCreated       State = "CREATED"
	StateBillingAgreed State = "BILLING_AGREED"
	StatePaid          State = "PAID"
	StateCancelled     State = "CANCELLED"
)

var (
	ErrInvalidTransition = errors.New("invalid subscription state transition")
	ErrNotFound          = errors.New("subscription not found")
)

type StateTransitionError struct {
	SubscriptionID string
	From           State
	To             State
}

func (e *StateTransitionError) Error() string {
	return fmt.Sprintf("subscription %s cannot change from %s to %s", e.SubscriptionID, e.From, e.To)
}

func (e *StateTransitionError) Unwrap() error {
	return ErrInvalidTransition
}

// Subscriber is the user a subscription belongs to.
type Subscriber struct {
	DiscordID string `json:"discordId"`
	SteamID   string `json:"steamId,omitempty"`
	Username  string `json:"username,omitempty"`
}

func (s Subscriber) Target() perk.RedeemTarget {
	return perk.RedeemTarget{SteamID: s.SteamID, DiscordID: s.DiscordID}
}

// Plan links a recurring package to the billing plan at the payment provider.
type Plan struct {
	ID             string
	PackageID      int
	ProviderPlanID string
}

func NewPlan(pkg *perk.Package, providerPlanID string) Plan {
	return Plan{ID: uuid.NewString(), PackageID: pkg.ID, ProviderPlanID: providerPlanID}
}

type Subscription struct {
	ID                 string
	PlanID             string
	User               Subscriber
	State              State
	BillingAgreementID string
	TransactionID      string
	PaymentProvider    string
	// PackageID is the package that was billed last. It starts as the
	// package of the plan.
	PackageID int
	CreatedAt time.Time
	PaidAt    time.Time
}

func Create(plan Plan, user Subscriber) *Subscription {
	return &Subscription{
		ID:        uuid.NewString(),
		PlanID:    plan.ID,
		User:      user,
		State:     StateCreated,
		PackageID: plan.PackageID,
		CreatedAt: time.Now().UTC(),
	}
}

func (s *Subscription) transitionError(to State) error {
	return &StateTransitionError{SubscriptionID: s.ID, From: s.State, To: to}
}

// AgreeBilling records the billing agreement the subscriber approved.
func (s *Subscription) AgreeBilling(agreementID string) error {
	if s.State != StateCreated {
		return s.transitionError(StateBillingAgreed)
	}
	s.State = StateBillingAgreed
	s.BillingAgreementID = agreementID
	return nil
}

// Pay records the first payment of an agreed subscription and the package
// that was actually billed.
func (s *Subscription) Pay(transactionID, provider string, pkg *perk.Package) error {
	if s.State != StateBillingAgreed {
		return s.transitionError(StatePaid)
	}
	s.State = StatePaid
	s.record(transactionID, provider, pkg)
	return nil
}

// Renew records a follow-up payment of a paid subscription.
func (s *Subscription) Renew(transactionID, provider string, pkg *perk.Package) error {
	if s.State != StatePaid {
		return s.transitionError(StatePaid)
	}
	s.record(transactionID, provider, pkg)
	return nil
}

func (s *Subscription) record(transactionID, provider string, pkg *perk.Package) {
	s.TransactionID = transactionID
	s.PaymentProvider = provider
	s.PackageID = pkg.ID
	s.PaidAt = time.Now().UTC()
}

func (s *Subscription) Cancel() error {
	if s.State == StateCancelled {
		return s.transitionError(StateCancelled)
	}
	s.State = StateCancelled
	return nil
}

// AsLink is the page of the subscription below publicURL. It only depends on
// the subscription id and is stable across refreshes.
func (s *Subscription) AsLink(publicURL *url.URL) *url.URL {
	return publicURL.JoinPath("subscriptions", s.ID)
}

func (s *Subscription) clone() *Subscription {
	c := *s
	return &c
}
