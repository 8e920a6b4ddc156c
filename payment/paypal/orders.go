package paypal

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"

	"go-donations/payment"
)

type money struct {
	CurrencyCode string `json:"currency_code"`
	Value        string `json:"value"`
}

type link struct {
	Href string `json:"href"`
	Rel  string `json:"rel"`
}

type applicationContext struct {
	ReturnURL string `json:"return_url,omitempty"`
	CancelURL string `json:"cancel_url,omitempty"`
}

type purchaseUnitRequest struct {
	CustomID    string `json:"custom_id"`
	Description string `json:"description,omitempty"`
	Amount      money  `json:"amount"`
}

type createOrderRequest struct {
	Intent             string                `json:"intent"`
	PurchaseUnits      []purchaseUnitRequest `json:"purchase_units"`
	ApplicationContext applicationContext    `json:"application_context"`
}

type orderResponse struct {
	ID            string `json:"id"`
	Status        string `json:"status"`
	Links         []link `json:"links"`
	PurchaseUnits []struct {
		CustomID string `json:"custom_id"`
		Payments struct {
			Captures []struct {
				ID         string    `json:"id"`
				Status     string    `json:"status"`
				CustomID   string    `json:"custom_id"`
				Amount     money     `json:"amount"`
				CreateTime time.Time `json:"create_time"`
			} `json:"captures"`
		} `json:"payments"`
	} `json:"purchase_units"`
}

func approveLink(links []link) string {
	for _, l := range links {
		if l.Rel == "approve" {
			return l.Href
		}
	}
	return ""
}

func (c *Client) CreateOrder(ctx context.Context, req payment.OrderRequest) (payment.CreatedOrder, error) {
	var resp orderResponse
	err := c.do(ctx, http.MethodPost, "/v2/checkout/orders", createOrderRequest{
		Intent: "CAPTURE",
		PurchaseUnits: []purchaseUnitRequest{{
			CustomID:    req.Reference.Encode(),
			Description: req.Description,
			Amount:      money{CurrencyCode: req.Currency, Value: req.Amount},
		}},
		ApplicationContext: applicationContext{ReturnURL: req.ReturnURL, CancelURL: req.CancelURL},
	}, &resp)
	if err != nil {
		return payment.CreatedOrder{}, err
	}
	return payment.CreatedOrder{ID: resp.ID, ApproveURL: approveLink(resp.Links)}, nil
}

// CaptureOrder captures an approved order. Capturing an order a second time
// returns the first capture.
func (c *Client) CaptureOrder(ctx context.Context, orderID string) (payment.Capture, error) {
	path := "/v2/checkout/orders/" + url.PathEscape(orderID)

	var resp orderResponse
	err := c.do(ctx, http.MethodPost, path+"/capture", struct{}{}, &resp)
	if isAlreadyCaptured(err) {
		c.logger.Debug("order already captured", zap.String("order_id", orderID))
		err = c.do(ctx, http.MethodGet, path, nil, &resp)
	}
	if err != nil {
		return payment.Capture{}, err
	}

	capture := payment.Capture{OrderID: resp.ID, Status: resp.Status}
	if len(resp.PurchaseUnits) == 0 {
		return capture, nil
	}
	unit := resp.PurchaseUnits[0]
	capture.CustomID = unit.CustomID
	if captures := unit.Payments.Captures; len(captures) > 0 {
		first := captures[0]
		capture.TransactionID = first.ID
		capture.CompletedAt = first.CreateTime
		capture.Amount = first.Amount.Value
		capture.Currency = first.Amount.CurrencyCode
		if first.CustomID != "" {
			capture.CustomID = first.CustomID
		}
	}
	return capture, nil
}
