package subscription

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"go.uber.org/zap"

	"go-donations/payment"
	"go-donations/perk"
	"go-donations/translation"
)

var (
	ErrUnknownPackage = errors.New("package does not exist or is not available")
	ErrNotRecurring   = errors.New("package is not billed as subscription")
	ErrNotOwner       = errors.New("subscription belongs to another user")
)

// Payment is a billing event reported by the payment provider.
type Payment struct {
	AgreementID   string
	TransactionID string
	Amount        string
	Currency      string
}

type Dependencies struct {
	Catalog       *perk.Catalog
	Provider      payment.Provider
	Subscriptions Repository
	Plans         PlanRepository
	PublicURL     *url.URL
	Logger        *zap.Logger
	Now           func() time.Time
}

type Service struct {
	catalog   *perk.Catalog
	provider  payment.Provider
	subs      Repository
	plans     PlanRepository
	publicURL *url.URL
	logger    *zap.Logger
	now       func() time.Time
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
		subs:      deps.Subscriptions,
		plans:     deps.Plans,
		publicURL: deps.PublicURL,
		logger:    deps.Logger,
		now:       deps.Now,
	}
}

// plan returns the billing plan of pkg, creating it at the provider on first use.
func (s *Service) plan(ctx context.Context, pkg *perk.Package) (Plan, error) {
	p, err := s.plans.FindByPackage(ctx, pkg.ID)
	if err == nil || !errors.Is(err, ErrNotFound) {
		return p, err
	}
	providerPlanID, err := s.provider.CreatePlan(ctx, payment.PlanRequest{
		Name:        pkg.Name,
		Description: pkg.Description,
		Amount:      pkg.Price.Amount,
		Currency:    pkg.Price.Currency,
	})
	if err != nil {
		return Plan{}, fmt.Errorf("create plan for package %d: %w", pkg.ID, err)
	}
	p = NewPlan(pkg, providerPlanID)
	if err := s.plans.Save(ctx, p); err != nil {
		return Plan{}, err
	}
	s.logger.Info("subscription plan created", zap.Int("package", pkg.ID), zap.String("provider_plan_id", providerPlanID))
	return p, nil
}

// Subscribe creates a subscription to a recurring package. The subscriber
// has to approve it at the returned url.
func (s *Service) Subscribe(ctx context.Context, user Subscriber, packageID int) (*Subscription, string, error) {
	pkg, ok := s.catalog.Package(packageID)
	if !ok || pkg.Disabled {
		return nil, "", ErrUnknownPackage
	}
	if pkg.Price.Type != perk.PriceRecurring {
		return nil, "", ErrNotRecurring
	}
	p, err := s.plan(ctx, pkg)
	if err != nil {
		return nil, "", err
	}

	sub := Create(p, user)
	sub.CreatedAt = s.now()
	created, err := s.provider.CreateSubscription(ctx, payment.SubscriptionRequest{
		ProviderPlanID: p.ProviderPlanID,
		CustomID:       payment.Reference{SteamID: user.SteamID, DiscordID: user.DiscordID, PackageID: pkg.ID}.Encode(),
		ReturnURL:      sub.AsLink(s.publicURL).String(),
		CancelURL:      s.publicURL.String(),
	})
	if err != nil {
		return nil, "", fmt.Errorf("create %s subscription: %w", s.provider.Name(), err)
	}
	if err := s.subs.Save(ctx, sub); err != nil {
		return nil, "", err
	}
	s.logger.Info("subscription created", zap.String("subscription_id", sub.ID), zap.Int("package", pkg.ID))
	return sub, created.ApproveURL, nil
}

func (s *Service) Find(ctx context.Context, id string, user Subscriber) (*Subscription, error) {
	sub, err := s.subs.Find(ctx, id)
	if err != nil {
		return nil, err
	}
	if sub.User.DiscordID != user.DiscordID {
		return nil, ErrNotOwner
	}
	return sub, nil
}

// AgreeBilling records the agreement the subscriber approved at the provider.
func (s *Service) AgreeBilling(ctx context.Context, id, agreementID string, user Subscriber) (*Subscription, error) {
	sub, err := s.Find(ctx, id, user)
	if err != nil {
		return nil, err
	}
	if err := sub.AgreeBilling(agreementID); err != nil {
		return nil, err
	}
	if err := s.subs.Save(ctx, sub); err != nil {
		return nil, err
	}
	return sub, nil
}

// Pay records a payment of a subscription and grants the perks of the billed
// package. The billed package is looked up by the paid amount; if no package
// has that price the package of the plan is used. A payment with the
// transaction id of the last processed one is a redelivery and changes nothing.
func (s *Service) Pay(ctx context.Context, pm Payment) (*Subscription, []translation.Message, error) {
	sub, err := s.subs.FindByAgreement(ctx, pm.AgreementID)
	if err != nil {
		return nil, nil, err
	}
	if pm.TransactionID != "" && sub.TransactionID == pm.TransactionID {
		s.logger.Info("subscription payment already processed",
			zap.String("subscription_id", sub.ID),
			zap.String("transaction_id", pm.TransactionID))
		return sub, nil, nil
	}
	pkg, err := s.billedPackage(ctx, sub, pm)
	if err != nil {
		return nil, nil, err
	}

	if sub.State == StatePaid {
		err = sub.Renew(pm.TransactionID, s.provider.Name(), pkg)
	} else {
		err = sub.Pay(pm.TransactionID, s.provider.Name(), pkg)
	}
	if err != nil {
		return nil, nil, err
	}
	sub.PaidAt = s.now()
	if err := s.subs.Save(ctx, sub); err != nil {
		return nil, nil, err
	}
	s.logger.Info("subscription paid",
		zap.String("subscription_id", sub.ID),
		zap.String("transaction_id", pm.TransactionID),
		zap.Int("package", pkg.ID))

	ref := perk.OrderRef{ID: sub.ID + "/" + pm.TransactionID, CreatedAt: sub.PaidAt, CompletedAt: sub.PaidAt}
	messages := make([]translation.Message, 0, len(pkg.Perks))
	for _, p := range pkg.Perks {
		msg, err := p.Redeem(ctx, sub.User.Target(), ref)
		messages = append(messages, msg)
		if err != nil {
			return sub, messages, fmt.Errorf("redeem perks of subscription %s: %w", sub.ID, err)
		}
	}
	return sub, messages, nil
}

func (s *Service) billedPackage(ctx context.Context, sub *Subscription, pm Payment) (*perk.Package, error) {
	if pm.Amount != "" {
		if pkg, ok := s.catalog.PackageForPrice(pm.Amount, pm.Currency, perk.PriceRecurring); ok {
			return pkg, nil
		}
	}
	p, err := s.plans.Find(ctx, sub.PlanID)
	if err != nil {
		return nil, fmt.Errorf("plan of subscription %s: %w", sub.ID, err)
	}
	pkg, ok := s.catalog.Package(p.PackageID)
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownPackage, p.PackageID)
	}
	return pkg, nil
}

func (s *Service) Cancel(ctx context.Context, id string, user Subscriber) (*Subscription, error) {
	sub, err := s.Find(ctx, id, user)
	if err != nil {
		return nil, err
	}
	if err := sub.Cancel(); err != nil {
		return nil, err
	}
	if err := s.subs.Save(ctx, sub); err != nil {
		return nil, err
	}
	s.logger.Info("subscription cancelled", zap.String("subscription_id", sub.ID))
	return sub, nil
}
