package subscription

import (
	"context"
	"errors"
	"testing"
	"time"

	"go-donations/payment/db"
)

func testRepositories(t *testing.T) (map[string]Repository, map[string]PlanRepository) {
	conn, err := db.Connect("sqlite::memory:")
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	if err := db.Sync(conn); err != nil {
		t.Fatalf("Sync: %v", err)
	}
	return map[string]Repository{
			"memory": NewMemoryRepository(),
			"gorm":   NewGormRepository(conn),
		}, map[string]PlanRepository{
			"memory": NewMemoryPlanRepository(),
			"gorm":   NewGormPlanRepository(conn),
		}
}

func TestRepositories(t *testing.T) {
	subs, _ := testRepositories(t)
	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	plan := NewPlan(aPackage, "P-1")

	for name, repo := range subs {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			first := Create(plan, aUser)
			first.CreatedAt = base
			second := Create(plan, aUser)
			second.CreatedAt = base.Add(time.Hour)
			other := Create(plan, Subscriber{DiscordID: "43"})
			other.CreatedAt = base

			for _, s := range []*Subscription{first, second, other} {
				if err := repo.Save(ctx, s); err != nil {
					t.Fatalf("Save: %v", err)
				}
			}
			if err := first.AgreeBilling("I-1"); err != nil {
				t.Fatal(err)
			}
			if err := repo.Save(ctx, first); err != nil {
				t.Fatalf("Save: %v", err)
			}

			found, err := repo.FindByUser(ctx, "42")
			if err != nil {
				t.Fatalf("FindByUser: %v", err)
			}
			if len(found) != 2 || found[0].ID != first.ID || found[1].ID != second.ID {
				t.Errorf("unexpected subscriptions of user: %v", found)
			}

			byAgreement, err := repo.FindByAgreement(ctx, "I-1")
			if err != nil {
				t.Fatalf("FindByAgreement: %v", err)
			}
			if byAgreement.ID != first.ID || byAgreement.State != StateBillingAgreed || byAgreement.User != aUser {
				t.Errorf("unexpected subscription %+v", byAgreement)
			}

			if _, err := repo.FindByAgreement(ctx, ""); !errors.Is(err, ErrNotFound) {
				t.Errorf("empty agreement: expected ErrNotFound, got %v", err)
			}
			if _, err := repo.Find(ctx, "missing"); !errors.Is(err, ErrNotFound) {
				t.Errorf("expected ErrNotFound, got %v", err)
			}
		})
	}
}

func TestPlanRepositories(t *testing.T) {
	_, plans := testRepositories(t)
	for name, repo := range plans {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			plan := NewPlan(aPackage, "P-1")
			if err := repo.Save(ctx, plan); err != nil {
				t.Fatalf("Save: %v", err)
			}
			got, err := repo.Find(ctx, plan.ID)
			if err != nil || got != plan {
				t.Errorf("Find: %+v, %v", got, err)
			}
			got, err = repo.FindByPackage(ctx, aPackage.ID)
			if err != nil || got != plan {
				t.Errorf("FindByPackage: %+v, %v", got, err)
			}
			if _, err := repo.FindByPackage(ctx, 99); !errors.Is(err, ErrNotFound) {
				t.Errorf("expected ErrNotFound, got %v", err)
			}
		})
	}
}
