package discord

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"go-donations/payment/db"
	"go-donations/perk"
)

// GrantStore keeps time limited role assignments until they are revoked.
type GrantStore interface {
	perk.RoleRecorder
	Expired(ctx context.Context, now time.Time) ([]perk.RoleGrant, error)
	Delete(ctx context.Context, g perk.RoleGrant) error
}

type GormGrantStore struct {
	db *gorm.DB
}

func NewGormGrantStore(conn *gorm.DB) *GormGrantStore {
	return &GormGrantStore{db: conn}
}

// Record stores g. A newer grant of the same role to the same member replaces
// the older one, except that a timed grant never replaces a permanent one.
func (s *GormGrantStore) Record(ctx context.Context, g perk.RoleGrant) error {
	row := db.DiscordRoleGrant{
		DiscordID: g.DiscordID,
		RoleID:    g.RoleID,
		PerkID:    string(g.PerkID),
		Expires:   g.Expires.UTC(),
		Permanent: g.Permanent,
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing db.DiscordRoleGrant
		err := tx.Where("discord_id = ? AND role_id = ?", g.DiscordID, g.RoleID).Limit(1).Find(&existing).Error
		if err != nil {
			return err
		}
		if existing.Permanent && !g.Permanent {
			return nil
		}
		return tx.Clauses(clause.OnConflict{UpdateAll: true}).Create(&row).Error
	})
}

func (s *GormGrantStore) Expired(ctx context.Context, now time.Time) ([]perk.RoleGrant, error) {
	var rows []db.DiscordRoleGrant
	err := s.db.WithContext(ctx).Where("permanent = ? AND expires <= ?", false, now.UTC()).Order("expires").Find(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make([]perk.RoleGrant, 0, len(rows))
	for _, r := range rows {
		out = append(out, perk.RoleGrant{
			DiscordID: r.DiscordID,
			RoleID:    r.RoleID,
			PerkID:    perk.Fingerprint(r.PerkID),
			Expires:   r.Expires,
		})
	}
	return out, nil
}

// Delete removes g unless it got extended or made permanent in the meantime.
func (s *GormGrantStore) Delete(ctx context.Context, g perk.RoleGrant) error {
	return s.db.WithContext(ctx).
		Where("discord_id = ? AND role_id = ? AND permanent = ? AND expires <= ?", g.DiscordID, g.RoleID, false, g.Expires.UTC()).
		Delete(&db.DiscordRoleGrant{}).Error
}
