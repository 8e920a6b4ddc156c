package payment

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

const FakeProviderName = "FAKE"

// FakeProvider accepts every payment. It is used in tests and for local
// development without provider credentials.
type FakeProvider struct {
	mu            sync.Mutex
	orders        map[string]fakeOrder
	plans         map[string]PlanRequest
	subscriptions map[string]SubscriptionRequest

	// Status overrides the status reported by CaptureOrder when set.
	Status string
	// Err is returned by every call when set.
	Err error
	Now func() time.Time
}

type fakeOrder struct {
	req      OrderRequest
	captured bool
}

func NewFakeProvider() *FakeProvider {
	return &FakeProvider{
		orders:        make(map[string]fakeOrder),
		plans:         make(map[string]PlanRequest),
		subscriptions: make(map[string]SubscriptionRequest),
		Now:           time.Now,
	}
}

func (f *FakeProvider) Name() string {
	return FakeProviderName
}

func (f *FakeProvider) CreateOrder(_ context.Context, req OrderRequest) (CreatedOrder, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return CreatedOrder{}, f.Err
	}
	id := uuid.NewString()
	f.orders[id] = fakeOrder{req: req}
	return CreatedOrder{ID: id, ApproveURL: "https://payment.invalid/checkout?token=" + id}, nil
}

func (f *FakeProvider) CaptureOrder(_ context.Context, orderID string) (Capture, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return Capture{}, f.Err
	}
	o, ok := f.orders[orderID]
	if !ok {
		return Capture{}, fmt.Errorf("%w: %s", ErrUnknownOrder, orderID)
	}
	status := StatusCompleted
	if f.Status != "" {
		status = f.Status
	}
	if status == StatusCompleted {
		o.captured = true
		f.orders[orderID] = o
	}
	return Capture{
		OrderID:       orderID,
		Status:        status,
		TransactionID: "TX-" + orderID,
		CustomID:      o.req.Reference.Encode(),
		CompletedAt:   f.Now(),
		Amount:        o.req.Amount,
		Currency:      o.req.Currency,
	}, nil
}

// SetCustomID replaces the custom id of an order, simulating an order that
// was created for someone else.
func (f *FakeProvider) SetCustomID(orderID string, ref Reference) {
	f.mu.Lock()
	defer f.mu.Unlock()
	o := f.orders[orderID]
	o.req.Reference = ref
	f.orders[orderID] = o
}

func (f *FakeProvider) CreatePlan(_ context.Context, req PlanRequest) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return "", f.Err
	}
	id := "P-" + uuid.NewString()
	f.plans[id] = req
	return id, nil
}

func (f *FakeProvider) CreateSubscription(_ context.Context, req SubscriptionRequest) (CreatedSubscription, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return CreatedSubscription{}, f.Err
	}
	if _, ok := f.plans[req.ProviderPlanID]; !ok {
		return CreatedSubscription{}, fmt.Errorf("unknown plan %s", req.ProviderPlanID)
	}
	id := "I-" + uuid.NewString()
	f.subscriptions[id] = req
	return CreatedSubscription{ID: id, ApproveURL: "https://payment.invalid/subscribe?token=" + id}, nil
}
