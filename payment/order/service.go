package order

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"go-donations/payment"
	"go-donations/perk"
	"go-donations/translation"
)

var (
	ErrUnknownPackage    = errors.New("package does not exist or is not available")
	ErrRecurringPackage  = errors.New("package is billed as subscription")
	ErrUnknownPerk       = errors.New("perk is not part of the package")
	ErrPaymentIncomplete = errors.New("payment is not completed")
	ErrMissingSteamID    = errors.New("a steam id is required to donate")
)

// IdentityMismatchError is returned when the payment was made for a different
// steam account than the one of the user capturing or redeeming it.
type IdentityMismatchError struct {
	OrderID        string
	PaymentSteamID string
	UserSteamID    string
}

func (e *IdentityMismatchError) Error() string {
	return fmt.Sprintf("order %s was paid for steam id %s, not %s", e.OrderID, e.PaymentSteamID, e.UserSteamID)
}

// Notifier announces completed donations.
type Notifier interface {
	DonationReceived(ctx context.Context, o *Order, pkg *perk.Package) error
}

type Dependencies struct {
	Catalog   *perk.Catalog
	Provider  payment.Provider
	Store     Store
	Notifier  Notifier
	PublicURL string
	Logger    *zap.Logger
	Now       func() time.Time
}

type Service struct {
	catalog   *perk.Catalog
	provider  payment.Provider
	store     Store
	notifier  Notifier
	publicURL string
	logger    *zap.Logger
	now       func() time.Time
	metrics   *metrics

	locks sync.Map // order id -> *sync.Mutex
}

func NewService(deps Dependencies) *Service {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	return &Service{
		catalog:   deps.Catalog,
		provider:  deps.Provider,
		store:     deps.Store,
		notifier:  deps.Notifier,
		publicURL: strings.TrimRight(deps.PublicURL, "/"),
		logger:    deps.Logger,
		now:       deps.Now,
		metrics:   defaultMetrics(),
	}
}

// lock serializes capture and redemption of a single order.
func (s *Service) lock(id string) func() {
	m, _ := s.locks.LoadOrStore(id, &sync.Mutex{})
	mu := m.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}

// Create opens an order for packageID at the payment provider. An empty
// selectedPerk redeems every perk of the package.
func (s *Service) Create(ctx context.Context, user perk.RedeemTarget, packageID int, selectedPerk perk.Fingerprint) (*Order, error) {
	pkg, ok := s.catalog.Package(packageID)
	if !ok || pkg.Disabled {
		return nil, ErrUnknownPackage
	}
	if pkg.Price.Type == perk.PriceRecurring {
		return nil, ErrRecurringPackage
	}
	if selectedPerk != "" {
		if _, ok := pkg.Perk(selectedPerk); !ok {
			return nil, ErrUnknownPerk
		}
	}
	if user.SteamID == "" && needsSteamID(pkg, selectedPerk) {
		return nil, ErrMissingSteamID
	}

	o := &Order{
		ID:           uuid.NewString(),
		Provider:     s.provider.Name(),
		PackageID:    pkg.ID,
		SelectedPerk: selectedPerk,
		Target:       user,
		Status:       StatusCreated,
		CreatedAt:    s.now(),
	}
	created, err := s.provider.CreateOrder(ctx, payment.OrderRequest{
		Reference:   payment.Reference{SteamID: user.SteamID, DiscordID: user.DiscordID, PackageID: pkg.ID},
		Description: pkg.Name,
		Amount:      pkg.Price.Amount,
		Currency:    pkg.Price.Currency,
		ReturnURL:   s.publicURL + "/donate/" + o.ID,
		CancelURL:   s.publicURL + "/",
	})
	if err != nil {
		return nil, fmt.Errorf("create %s order: %w", s.provider.Name(), err)
	}
	o.PaymentOrderID = created.ID
	o.ApproveURL = created.ApproveURL

	if err := s.store.Save(ctx, o); err != nil {
		return nil, err
	}
	s.logger.Info("order created",
		zap.String("order_id", o.ID),
		zap.String("payment_order_id", o.PaymentOrderID),
		zap.Int("package", pkg.ID))
	return o, nil
}

func needsSteamID(pkg *perk.Package, selected perk.Fingerprint) bool {
	for _, p := range pkg.Perks {
		if selected != "" && p.ID() != selected {
			continue
		}
		switch p.Type() {
		case perk.TypePriorityQueue, perk.TypeWhitelist, perk.TypeReservedSlot:
			return true
		}
	}
	return false
}

// Find returns the order if it belongs to user.
func (s *Service) Find(ctx context.Context, id string, user perk.RedeemTarget) (*Order, error) {
	o, err := s.store.Find(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := checkIdentity(o.ID, o.Target.SteamID, user); err != nil {
		return nil, err
	}
	return o, nil
}

func checkIdentity(orderID, paymentSteamID string, user perk.RedeemTarget) error {
	if paymentSteamID != user.SteamID {
		return &IdentityMismatchError{OrderID: orderID, PaymentSteamID: paymentSteamID, UserSteamID: user.SteamID}
	}
	return nil
}

// Capture captures the approved payment of the order. Orders that are
// already captured are returned unchanged.
func (s *Service) Capture(ctx context.Context, id string, user perk.RedeemTarget) (*Order, error) {
	defer s.lock(id)()

	o, err := s.store.Find(ctx, id)
	if err != nil {
		return nil, err
	}
	if o.Status != StatusCreated {
		if err := checkIdentity(o.ID, o.Target.SteamID, user); err != nil {
			return nil, err
		}
		return o, nil
	}

	capture, err := s.provider.CaptureOrder(ctx, o.PaymentOrderID)
	if err != nil {
		s.metrics.captures.WithLabelValues(o.Provider, "error").Inc()
		return nil, fmt.Errorf("capture %s order %s: %w", o.Provider, o.PaymentOrderID, err)
	}
	ref, err := payment.ParseReference(capture.CustomID)
	if err != nil {
		return nil, err
	}
	if err := checkIdentity(o.ID, ref.SteamID, user); err != nil {
		s.logger.Warn("steam id of payment does not match user",
			zap.String("order_id", o.ID),
			zap.String("payment_steam_id", ref.SteamID),
			zap.String("user_steam_id", user.SteamID))
		return nil, err
	}
	if ref.PackageID != o.PackageID {
		return nil, fmt.Errorf("order %s was paid for package %d, expected %d", o.ID, ref.PackageID, o.PackageID)
	}
	if !capture.Completed() {
		s.metrics.captures.WithLabelValues(o.Provider, "incomplete").Inc()
		return nil, fmt.Errorf("%w: provider reports %s", ErrPaymentIncomplete, capture.Status)
	}

	completedAt := capture.CompletedAt
	if completedAt.IsZero() {
		completedAt = s.now()
	}
	if err := o.Complete(capture.TransactionID, completedAt); err != nil {
		return nil, err
	}
	o.Target = perk.RedeemTarget{SteamID: ref.SteamID, DiscordID: firstNonEmpty(ref.DiscordID, user.DiscordID)}
	if err := s.store.Save(ctx, o); err != nil {
		return nil, err
	}
	s.metrics.captures.WithLabelValues(o.Provider, "success").Inc()
	s.logger.Info("order captured", zap.String("order_id", o.ID), zap.String("transaction_id", o.TransactionID))
	return o, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// Redeem grants the perks of a captured order one after another. When a perk
// fails the order stays COMPLETED so redemption can be retried; the messages
// of the perks redeemed so far are returned together with the error.
func (s *Service) Redeem(ctx context.Context, id string, user perk.RedeemTarget) ([]translation.Message, error) {
	defer s.lock(id)()

	o, err := s.store.Find(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := checkIdentity(o.ID, o.Target.SteamID, user); err != nil {
		return nil, err
	}
	switch o.Status {
	case StatusCreated:
		return nil, ErrPaymentIncomplete
	case StatusRedeemed:
		return nil, &StateTransitionError{OrderID: o.ID, From: o.Status, To: StatusRedeemed}
	}

	pkg, ok := s.catalog.Package(o.PackageID)
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownPackage, o.PackageID)
	}
	perks := pkg.Perks
	if o.SelectedPerk != "" {
		p, ok := pkg.Perk(o.SelectedPerk)
		if !ok {
			return nil, ErrUnknownPerk
		}
		perks = []perk.Perk{p}
	}

	target := o.Target
	if target.DiscordID == "" {
		target.DiscordID = user.DiscordID
	}
	messages := make([]translation.Message, 0, len(perks))
	for _, p := range perks {
		msg, err := p.Redeem(ctx, target, o.Ref())
		s.metrics.redemptions.WithLabelValues(string(p.Type()), result(err)).Inc()
		messages = append(messages, msg)
		if err != nil {
			s.logger.Error("perk redemption failed",
				zap.String("order_id", o.ID),
				zap.String("perk", string(p.ID())),
				zap.String("type", string(p.Type())),
				zap.Error(err))
			return messages, err
		}
	}

	if err := o.MarkRedeemed(s.now()); err != nil {
		return messages, err
	}
	if err := s.store.Save(ctx, o); err != nil {
		return messages, err
	}
	s.logger.Info("order redeemed", zap.String("order_id", o.ID), zap.Int("perks", len(perks)))

	if s.notifier != nil {
		if err := s.notifier.DonationReceived(ctx, o, pkg); err != nil {
			s.logger.Warn("could not send donation notification", zap.String("order_id", o.ID), zap.Error(err))
		}
	}
	return messages, nil
}
