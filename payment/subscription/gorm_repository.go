package subscription

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"go-donations/payment/db"
)

type GormRepository struct {
	db *gorm.DB
}

func NewGormRepository(conn *gorm.DB) *GormRepository {
	return &GormRepository{db: conn}
}

func (r *GormRepository) Save(ctx context.Context, s *Subscription) error {
	row := db.Subscription{
		ID:                 s.ID,
		PlanID:             s.PlanID,
		DiscordID:          s.User.DiscordID,
		SteamID:            s.User.SteamID,
		Username:           s.User.Username,
		State:              string(s.State),
		BillingAgreementID: s.BillingAgreementID,
		TransactionID:      s.TransactionID,
		PaymentProvider:    s.PaymentProvider,
		PackageID:          s.PackageID,
		CreatedAt:          s.CreatedAt.UTC(),
	}
	if !s.PaidAt.IsZero() {
		paid := s.PaidAt.UTC()
		row.PaidAt = &paid
	}
	return r.db.WithContext(ctx).Save(&row).Error
}

func (r *GormRepository) find(ctx context.Context, query string, arg any) (*Subscription, error) {
	var row db.Subscription
	err := r.db.WithContext(ctx).Where(query, arg).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return fromRow(row), nil
}

func (r *GormRepository) Find(ctx context.Context, id string) (*Subscription, error) {
	return r.find(ctx, "id = ?", id)
}

func (r *GormRepository) FindByAgreement(ctx context.Context, agreementID string) (*Subscription, error) {
	if agreementID == "" {
		return nil, ErrNotFound
	}
	return r.find(ctx, "billing_agreement_id = ?", agreementID)
}

func (r *GormRepository) FindByUser(ctx context.Context, discordID string) ([]*Subscription, error) {
	var rows []db.Subscription
	err := r.db.WithContext(ctx).Where("discord_id = ?", discordID).Order("created_at, id").Find(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make([]*Subscription, 0, len(rows))
	for _, row := range rows {
		out = append(out, fromRow(row))
	}
	return out, nil
}

func fromRow(row db.Subscription) *Subscription {
	s := &Subscription{
		ID:                 row.ID,
		PlanID:             row.PlanID,
		User:               Subscriber{DiscordID: row.DiscordID, SteamID: row.SteamID, Username: row.Username},
		State:              State(row.State),
		BillingAgreementID: row.BillingAgreementID,
		TransactionID:      row.TransactionID,
		PaymentProvider:    row.PaymentProvider,
		PackageID:          row.PackageID,
		CreatedAt:          row.CreatedAt,
	}
	if row.PaidAt != nil {
		s.PaidAt = *row.PaidAt
	}
	return s
}

type GormPlanRepository struct {
	db *gorm.DB
}

func NewGormPlanRepository(conn *gorm.DB) *GormPlanRepository {
	return &GormPlanRepository{db: conn}
}

func (r *GormPlanRepository) Save(ctx context.Context, p Plan) error {
	row := db.SubscriptionPlan{ID: p.ID, PackageID: p.PackageID, ProviderPlanID: p.ProviderPlanID}
	return r.db.WithContext(ctx).Save(&row).Error
}

func (r *GormPlanRepository) find(ctx context.Context, query string, arg any) (Plan, error) {
	var row db.SubscriptionPlan
	err := r.db.WithContext(ctx).Where(query, arg).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Plan{}, ErrNotFound
	}
	if err != nil {
		return Plan{}, err
	}
	return Plan{ID: row.ID, PackageID: row.PackageID, ProviderPlanID: row.ProviderPlanID}, nil
}

func (r *GormPlanRepository) Find(ctx context.Context, id string) (Plan, error) {
	return r.find(ctx, "id = ?", id)
}

func (r *GormPlanRepository) FindByPackage(ctx context.Context, packageID int) (Plan, error) {
	return r.find(ctx, "package_id = ?", packageID)
}
