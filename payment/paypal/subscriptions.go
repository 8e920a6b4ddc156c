package paypal

import (
	"context"
	"net/http"

	"go-donations/payment"
)

type productRequest struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Type        string `json:"type"`
}

type frequency struct {
	IntervalUnit  string `json:"interval_unit"`
	IntervalCount int    `json:"interval_count"`
}

type billingCycle struct {
	Frequency     frequency `json:"frequency"`
	TenureType    string    `json:"tenure_type"`
	Sequence      int       `json:"sequence"`
	TotalCycles   int       `json:"total_cycles"`
	PricingScheme struct {
		FixedPrice money `json:"fixed_price"`
	} `json:"pricing_scheme"`
}

type planRequest struct {
	ProductID          string         `json:"product_id"`
	Name               string         `json:"name"`
	Description        string         `json:"description,omitempty"`
	BillingCycles      []billingCycle `json:"billing_cycles"`
	PaymentPreferences struct {
		AutoBillOutstanding bool `json:"auto_bill_outstanding"`
	} `json:"payment_preferences"`
}

type subscriptionRequest struct {
	PlanID             string             `json:"plan_id"`
	CustomID           string             `json:"custom_id,omitempty"`
	ApplicationContext applicationContext `json:"application_context"`
}

type idResponse struct {
	ID    string `json:"id"`
	Links []link `json:"links"`
}

// CreatePlan creates a product and a monthly plan billing its price.
func (c *Client) CreatePlan(ctx context.Context, req payment.PlanRequest) (string, error) {
	var product idResponse
	err := c.do(ctx, http.MethodPost, "/v1/catalogs/products", productRequest{
		Name:        req.Name,
		Description: req.Description,
		Type:        "SERVICE",
	}, &product)
	if err != nil {
		return "", err
	}

	cycle := billingCycle{
		Frequency:  frequency{IntervalUnit: "MONTH", IntervalCount: 1},
		TenureType: "REGULAR",
		Sequence:   1,
	}
	cycle.PricingScheme.FixedPrice = money{CurrencyCode: req.Currency, Value: req.Amount}
	plan := planRequest{
		ProductID:     product.ID,
		Name:          req.Name,
		Description:   req.Description,
		BillingCycles: []billingCycle{cycle},
	}
	plan.PaymentPreferences.AutoBillOutstanding = true

	var created idResponse
	if err := c.do(ctx, http.MethodPost, "/v1/billing/plans", plan, &created); err != nil {
		return "", err
	}
	return created.ID, nil
}

func (c *Client) CreateSubscription(ctx context.Context, req payment.SubscriptionRequest) (payment.CreatedSubscription, error) {
	var resp idResponse
	err := c.do(ctx, http.MethodPost, "/v1/billing/subscriptions", subscriptionRequest{
		PlanID:             req.ProviderPlanID,
		CustomID:           req.CustomID,
		ApplicationContext: applicationContext{ReturnURL: req.ReturnURL, CancelURL: req.CancelURL},
	}, &resp)
	if err != nil {
		return payment.CreatedSubscription{}, err
	}
	return payment.CreatedSubscription{ID: resp.ID, ApproveURL: approveLink(resp.Links)}, nil
}

var _ payment.Provider = (*Client)(nil)
