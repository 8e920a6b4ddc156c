package order

import (
	"context"
	"sync"
	"time"

	"github.com/google/btree"
)

type Store interface {
	Save(ctx context.Context, o *Order) error
	// Find returns ErrNotFound when no order with id exists.
	Find(ctx context.Context, id string) (*Order, error)
	// CreatedBefore lists orders still in CREATED that were created before t.
	CreatedBefore(ctx context.Context, t time.Time) ([]*Order, error)
}

// byCreation orders the memory store by creation time, then id.
type byCreation struct {
	createdAt time.Time
	id        string
}

func (a byCreation) Less(b btree.Item) bool {
	other := b.(byCreation)
	if a.createdAt.Equal(other.createdAt) {
		return a.id < other.id
	}
	return a.createdAt.Before(other.createdAt)
}

// MemoryStore keeps orders in memory, indexed by creation time so stale
// orders are found without a full scan.
type MemoryStore struct {
	mu     sync.RWMutex
	orders map[string]*Order
	index  *btree.BTree
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		orders: make(map[string]*Order),
		index:  btree.New(2),
	}
}

func (s *MemoryStore) Save(_ context.Context, o *Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if old, ok := s.orders[o.ID]; ok {
		s.index.Delete(byCreation{old.CreatedAt, old.ID})
	}
	s.orders[o.ID] = o.clone()
	s.index.ReplaceOrInsert(byCreation{o.CreatedAt, o.ID})
	return nil
}

func (s *MemoryStore) Find(_ context.Context, id string) (*Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	o, ok := s.orders[id]
	if !ok {
		return nil, ErrNotFound
	}
	return o.clone(), nil
}

func (s *MemoryStore) CreatedBefore(_ context.Context, t time.Time) ([]*Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*Order
	s.index.AscendLessThan(byCreation{createdAt: t}, func(item btree.Item) bool {
		o := s.orders[item.(byCreation).id]
		if o.Status == StatusCreated {
			out = append(out, o.clone())
		}
		return true
	})
	return out, nil
}
