package order

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"go-donations/payment/db"
	"go-donations/perk"
)

type GormStore struct {
	db *gorm.DB
}

func NewGormStore(conn *gorm.DB) *GormStore {
	return &GormStore{db: conn}
}

func (s *GormStore) Save(ctx context.Context, o *Order) error {
	row := toRow(o)
	return s.db.WithContext(ctx).Save(&row).Error
}

func (s *GormStore) Find(ctx context.Context, id string) (*Order, error) {
	var row db.Order
	err := s.db.WithContext(ctx).First(&row, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return fromRow(row), nil
}

func (s *GormStore) CreatedBefore(ctx context.Context, t time.Time) ([]*Order, error) {
	var rows []db.Order
	err := s.db.WithContext(ctx).
		Where("status = ? AND created_at < ?", string(StatusCreated), t.UTC()).
		Order("created_at").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make([]*Order, 0, len(rows))
	for _, r := range rows {
		out = append(out, fromRow(r))
	}
	return out, nil
}

func toRow(o *Order) db.Order {
	return db.Order{
		ID:             o.ID,
		PaymentOrderID: o.PaymentOrderID,
		Provider:       o.Provider,
		ApproveURL:     o.ApproveURL,
		PackageID:      o.PackageID,
		SelectedPerk:   string(o.SelectedPerk),
		SteamID:        o.Target.SteamID,
		DiscordID:      o.Target.DiscordID,
		Status:         string(o.Status),
		TransactionID:  o.TransactionID,
		CreatedAt:      o.CreatedAt.UTC(),
		CompletedAt:    optionalTime(o.CompletedAt),
		RedeemedAt:     optionalTime(o.RedeemedAt),
	}
}

func fromRow(r db.Order) *Order {
	return &Order{
		ID:             r.ID,
		PaymentOrderID: r.PaymentOrderID,
		Provider:       r.Provider,
		ApproveURL:     r.ApproveURL,
		PackageID:      r.PackageID,
		SelectedPerk:   perk.Fingerprint(r.SelectedPerk),
		Target:         perk.RedeemTarget{SteamID: r.SteamID, DiscordID: r.DiscordID},
		Status:         Status(r.Status),
		TransactionID:  r.TransactionID,
		CreatedAt:      r.CreatedAt,
		CompletedAt:    valueOf(r.CompletedAt),
		RedeemedAt:     valueOf(r.RedeemedAt),
	}
}

func optionalTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	u := t.UTC()
	return &u
}

func valueOf(t *time.Time) time.Time {
	if t == nil {
		return time.Time{}
	}
	return *t
}
