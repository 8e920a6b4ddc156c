package db

import "time"

type Order struct {
	ID             string     `gorm:"primaryKey;size:36"`  // uuid
	PaymentOrderID string     `gorm:"size:64;index"`       // id at the payment provider
	Provider       string     `gorm:"size:32"`             // payment provider name
	ApproveURL     string     `gorm:"size:255"`            // checkout link of the provider
	PackageID      int        `gorm:"index"`               // bought package
	SelectedPerk   string     `gorm:"size:40"`             // fingerprint, empty means all perks
	SteamID        string     `gorm:"size:32"`             // redeem target
	DiscordID      string     `gorm:"size:32;index"`       // redeem target
	Status         string     `gorm:"size:16;index"`       // 3 status: CREATED, COMPLETED, REDEEMED
	TransactionID  string     `gorm:"size:64"`             // capture id
	CreatedAt      time.Time
	CompletedAt    *time.Time
	RedeemedAt     *time.Time
}

type SubscriptionPlan struct {
	ID             string `gorm:"primaryKey;size:36"`
	PackageID      int    `gorm:"uniqueIndex"`
	ProviderPlanID string `gorm:"size:64"`
}

type Subscription struct {
	ID                 string `gorm:"primaryKey;size:36"`
	PlanID             string `gorm:"size:36;index"`
	DiscordID          string `gorm:"size:32;index"`
	SteamID            string `gorm:"size:32"`
	Username           string `gorm:"size:100"`
	State              string `gorm:"size:16"`
	BillingAgreementID string `gorm:"size:64;index"`
	TransactionID      string `gorm:"size:64"`
	PaymentProvider    string `gorm:"size:32"`
	PackageID          int
	CreatedAt          time.Time
	PaidAt             *time.Time
}

// DiscordRoleGrant is a role that has to be removed from a member once
// Expires has passed, unless Permanent is set. One row per member and role.
type DiscordRoleGrant struct {
	DiscordID string    `gorm:"primaryKey;size:32"`
	RoleID    string    `gorm:"primaryKey;size:32"`
	PerkID    string    `gorm:"size:40"`
	Expires   time.Time `gorm:"index"`
	Permanent bool      `gorm:"not null;default:false"`
}
