package subscription

import (
	"context"
	"sync"

	"github.com/google/btree"
)

type Repository interface {
	Save(ctx context.Context, s *Subscription) error
	// Find returns ErrNotFound when no subscription with id exists.
	Find(ctx context.Context, id string) (*Subscription, error)
	// FindByUser returns the subscriptions of a discord user, oldest first.
	FindByUser(ctx context.Context, discordID string) ([]*Subscription, error)
	FindByAgreement(ctx context.Context, agreementID string) (*Subscription, error)
}

type PlanRepository interface {
	Save(ctx context.Context, p Plan) error
	Find(ctx context.Context, id string) (Plan, error)
	FindByPackage(ctx context.Context, packageID int) (Plan, error)
}

type byUser struct {
	discordID string
	seq       uint64
	id        string
}

func (a byUser) Less(b btree.Item) bool {
	o := b.(byUser)
	if a.discordID != o.discordID {
		return a.discordID < o.discordID
	}
	return a.seq < o.seq
}

// MemoryRepository keeps subscriptions in memory. Subscriptions of a user are
// kept in a btree ordered by user and insertion.
type MemoryRepository struct {
	mu    sync.RWMutex
	subs  map[string]*Subscription
	keys  map[string]byUser
	index *btree.BTree
	seq   uint64
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		subs:  make(map[string]*Subscription),
		keys:  make(map[string]byUser),
		index: btree.New(2),
	}
}

func (r *MemoryRepository) Save(_ context.Context, s *Subscription) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	key, ok := r.keys[s.ID]
	if ok && key.discordID != s.User.DiscordID {
		r.index.Delete(key)
		ok = false
	}
	if !ok {
		r.seq++
		key = byUser{discordID: s.User.DiscordID, seq: r.seq, id: s.ID}
		r.keys[s.ID] = key
		r.index.ReplaceOrInsert(key)
	}
	r.subs[s.ID] = s.clone()
	return nil
}

func (r *MemoryRepository) Find(_ context.Context, id string) (*Subscription, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.subs[id]
	if !ok {
		return nil, ErrNotFound
	}
	return s.clone(), nil
}

func (r *MemoryRepository) FindByUser(_ context.Context, discordID string) ([]*Subscription, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*Subscription
	r.index.AscendGreaterOrEqual(byUser{discordID: discordID}, func(item btree.Item) bool {
		key := item.(byUser)
		if key.discordID != discordID {
			return false
		}
		out = append(out, r.subs[key.id].clone())
		return true
	})
	return out, nil
}

func (r *MemoryRepository) FindByAgreement(_ context.Context, agreementID string) (*Subscription, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, s := range r.subs {
		if agreementID != "" && s.BillingAgreementID == agreementID {
			return s.clone(), nil
		}
	}
	return nil, ErrNotFound
}

type MemoryPlanRepository struct {
	mu    sync.RWMutex
	plans map[string]Plan
}

func NewMemoryPlanRepository() *MemoryPlanRepository {
	return &MemoryPlanRepository{plans: make(map[string]Plan)}
}

func (r *MemoryPlanRepository) Save(_ context.Context, p Plan) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.plans[p.ID] = p
	return nil
}

func (r *MemoryPlanRepository) Find(_ context.Context, id string) (Plan, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.plans[id]
	if !ok {
		return Plan{}, ErrNotFound
	}
	return p, nil
}

func (r *MemoryPlanRepository) FindByPackage(_ context.Context, packageID int) (Plan, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, p := range r.plans {
		if p.PackageID == packageID {
			return p, nil
		}
	}
	return Plan{}, ErrNotFound
}
