package order

import (
	"context"
	"errors"
	"testing"
	"time"

	"go-donations/payment/db"
	"go-donations/perk"
)

func testStores(t *testing.T) map[string]Store {
	conn, err := db.Connect("sqlite::memory:")
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	if err := db.Sync(conn); err != nil {
		t.Fatalf("Sync: %v", err)
	}
	return map[string]Store{
		"memory": NewMemoryStore(),
		"gorm":   NewGormStore(conn),
	}
}

func TestStores(t *testing.T) {
	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	for name, store := range testStores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			if _, err := store.Find(ctx, "missing"); !errors.Is(err, ErrNotFound) {
				t.Errorf("expected ErrNotFound, got %v", err)
			}

			old := &Order{ID: "old", Status: StatusCreated, PackageID: 1, CreatedAt: base.Add(-2 * time.Hour),
				Target: perk.RedeemTarget{SteamID: "7656", DiscordID: "42"}, SelectedPerk: "abc"}
			paid := &Order{ID: "paid", Status: StatusCreated, PackageID: 1, CreatedAt: base.Add(-3 * time.Hour)}
			fresh := &Order{ID: "fresh", Status: StatusCreated, PackageID: 1, CreatedAt: base}
			for _, o := range []*Order{old, paid, fresh} {
				if err := store.Save(ctx, o); err != nil {
					t.Fatalf("Save %s: %v", o.ID, err)
				}
			}
			if err := paid.Complete("TX", base.Add(-time.Hour)); err != nil {
				t.Fatal(err)
			}
			if err := store.Save(ctx, paid); err != nil {
				t.Fatalf("Save: %v", err)
			}

			got, err := store.Find(ctx, "old")
			if err != nil {
				t.Fatalf("Find: %v", err)
			}
			if got.Target.DiscordID != "42" || got.SelectedPerk != "abc" || !got.CreatedAt.Equal(old.CreatedAt) {
				t.Errorf("unexpected order %+v", got)
			}
			got, _ = store.Find(ctx, "paid")
			if got.Status != StatusCompleted || !got.CompletedAt.Equal(base.Add(-time.Hour)) {
				t.Errorf("unexpected paid order %+v", got)
			}

			stale, err := store.CreatedBefore(ctx, base.Add(-time.Hour))
			if err != nil {
				t.Fatalf("CreatedBefore: %v", err)
			}
			if len(stale) != 1 || stale[0].ID != "old" {
				t.Errorf("expected only the old order, got %v", stale)
			}
		})
	}
}

func TestMemoryStoreReturnsCopies(t *testing.T) {
	store := NewMemoryStore()
	o := &Order{ID: "a", Status: StatusCreated}
	_ = store.Save(context.Background(), o)
	o.Status = StatusRedeemed

	got, _ := store.Find(context.Background(), "a")
	if got.Status != StatusCreated {
		t.Errorf("store shares memory with caller")
	}
}
