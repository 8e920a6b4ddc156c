package paypal

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-donations/payment"
)

type fakePayPal struct {
	tokens       atomic.Int32
	rejectToken  atomic.Bool
	captureCalls atomic.Int32
	lastOrder    createOrderRequest
}

const capturedOrder = `{"id":"ORDER-1","status":"COMPLETED","purchase_units":[{"payments":{"captures":[
	{"id":"CAPTURE-1","status":"COMPLETED","custom_id":"7656#42#1","amount":{"currency_code":"EUR","value":"5.00"},
	 "create_time":"2024-03-01T10:00:00Z"}]}}]}`

func (f *fakePayPal) handler(t *testing.T) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/oauth2/token", func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, "client", user)
		assert.Equal(t, "secret", pass)
		f.tokens.Add(1)
		w.Write([]byte(`{"access_token":"A21","expires_in":32400}`))
	})
	mux.HandleFunc("POST /v2/checkout/orders", func(w http.ResponseWriter, r *http.Request) {
		if f.rejectToken.CompareAndSwap(true, false) {
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"name":"AUTHENTICATION_FAILURE","message":"token expired"}`))
			return
		}
		assert.Equal(t, "Bearer A21", r.Header.Get("Authorization"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&f.lastOrder))
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"id":"ORDER-1","status":"CREATED","links":[
			{"href":"https://api/self","rel":"self"},{"href":"https://paypal/approve","rel":"approve"}]}`))
	})
	mux.HandleFunc("POST /v2/checkout/orders/{id}/capture", func(w http.ResponseWriter, r *http.Request) {
		if r.PathValue("id") == "missing" {
			w.WriteHeader(http.StatusNotFound)
			w.Write([]byte(`{"name":"RESOURCE_NOT_FOUND"}`))
			return
		}
		if f.captureCalls.Add(1) > 1 {
			w.WriteHeader(http.StatusUnprocessableEntity)
			w.Write([]byte(`{"name":"UNPROCESSABLE_ENTITY","details":[{"issue":"ORDER_ALREADY_CAPTURED"}]}`))
			return
		}
		w.Write([]byte(capturedOrder))
	})
	mux.HandleFunc("GET /v2/checkout/orders/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(capturedOrder))
	})
	mux.HandleFunc("POST /v1/catalogs/products", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"id":"PROD-1"}`))
	})
	mux.HandleFunc("POST /v1/billing/plans", func(w http.ResponseWriter, r *http.Request) {
		var plan planRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&plan))
		assert.Equal(t, "PROD-1", plan.ProductID)
		assert.Equal(t, "MONTH", plan.BillingCycles[0].Frequency.IntervalUnit)
		w.Write([]byte(`{"id":"P-1"}`))
	})
	mux.HandleFunc("POST /v1/billing/subscriptions", func(w http.ResponseWriter, r *http.Request) {
		var sub subscriptionRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&sub))
		assert.Equal(t, "P-1", sub.PlanID)
		w.Write([]byte(`{"id":"I-1","links":[{"href":"https://paypal/subscribe","rel":"approve"}]}`))
	})
	return mux
}

func newTestClient(t *testing.T) (*Client, *fakePayPal) {
	api := &fakePayPal{}
	srv := httptest.NewServer(api.handler(t))
	t.Cleanup(srv.Close)
	c, err := New(Config{ClientID: "client", Secret: "secret", BaseURL: srv.URL}, srv.Client(), nil)
	require.NoError(t, err)
	return c, api
}

func TestNewRejectsUnknownEnvironment(t *testing.T) {
	_, err := New(Config{Environment: "staging"}, nil, nil)
	assert.Error(t, err)
}

func TestCreateOrder(t *testing.T) {
	c, api := newTestClient(t)

	created, err := c.CreateOrder(t.Context(), payment.OrderRequest{
		Reference: payment.Reference{SteamID: "7656", DiscordID: "42", PackageID: 1},
		Amount:    "5.00",
		Currency:  "EUR",
	})
	require.NoError(t, err)
	assert.Equal(t, "ORDER-1", created.ID)
	assert.Equal(t, "https://paypal/approve", created.ApproveURL)
	assert.Equal(t, "7656#42#1", api.lastOrder.PurchaseUnits[0].CustomID)
	assert.Equal(t, "CAPTURE", api.lastOrder.Intent)
}

func TestCreateOrderRefreshesRejectedToken(t *testing.T) {
	c, api := newTestClient(t)
	api.rejectToken.Store(true)

	_, err := c.CreateOrder(t.Context(), payment.OrderRequest{Amount: "1", Currency: "EUR"})
	require.NoError(t, err)
	assert.EqualValues(t, 2, api.tokens.Load())
}

func TestCaptureOrderIsRepeatable(t *testing.T) {
	c, _ := newTestClient(t)

	for i := 0; i < 2; i++ {
		capture, err := c.CaptureOrder(t.Context(), "ORDER-1")
		require.NoError(t, err)
		assert.True(t, capture.Completed())
		assert.Equal(t, "CAPTURE-1", capture.TransactionID)
		assert.Equal(t, "7656#42#1", capture.CustomID)
		assert.Equal(t, "5.00", capture.Amount)
	}
}

func TestCaptureUnknownOrder(t *testing.T) {
	c, _ := newTestClient(t)

	_, err := c.CaptureOrder(t.Context(), "missing")
	assert.ErrorIs(t, err, payment.ErrUnknownOrder)
}

func TestSubscriptionPlan(t *testing.T) {
	c, _ := newTestClient(t)

	planID, err := c.CreatePlan(t.Context(), payment.PlanRequest{Name: "Monthly", Amount: "5.00", Currency: "EUR"})
	require.NoError(t, err)
	assert.Equal(t, "P-1", planID)

	sub, err := c.CreateSubscription(t.Context(), payment.SubscriptionRequest{ProviderPlanID: planID, CustomID: "7656#42#1"})
	require.NoError(t, err)
	assert.Equal(t, "I-1", sub.ID)
	assert.Equal(t, "https://paypal/subscribe", sub.ApproveURL)
}
