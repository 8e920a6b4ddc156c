// Package paypal implements payment.Provider on the PayPal REST API.
package paypal

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"go-donations/credential"
	"go-donations/payment"
)

const (
	Name = "PAYPAL"

	EnvironmentSandbox = "sandbox"
	EnvironmentLive    = "live"
)

var baseURLs = map[string]string{
	EnvironmentSandbox: "https://api-m.sandbox.paypal.com",
	EnvironmentLive:    "https://api-m.paypal.com",
}

type Config struct {
	ClientID    string `yaml:"clientId"`
	Secret      string `yaml:"secret"`
	Environment string `yaml:"environment"`
	// BaseURL overrides the url derived from Environment.
	BaseURL string `yaml:"baseUrl"`
}

type Client struct {
	baseURL string
	http    *http.Client
	token   credential.Provider
	logger  *zap.Logger
}

func New(cfg Config, httpClient *http.Client, logger *zap.Logger) (*Client, error) {
	if cfg.Environment == "" {
		cfg.Environment = EnvironmentSandbox
	}
	base := cfg.BaseURL
	if base == "" {
		var ok bool
		if base, ok = baseURLs[cfg.Environment]; !ok {
			return nil, fmt.Errorf("unknown paypal environment %q", cfg.Environment)
		}
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &Client{
		baseURL: strings.TrimRight(base, "/"),
		http:    httpClient,
		logger:  logger,
	}
	c.token = credential.NewCachedProvider(func(ctx context.Context) (credential.Credential, error) {
		return c.authenticate(ctx, cfg.ClientID, cfg.Secret)
	})
	return c, nil
}

func (c *Client) Name() string {
	return Name
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int    `json:"expires_in"`
}

func (c *Client) authenticate(ctx context.Context, clientID, secret string) (credential.Credential, error) {
	form := url.Values{"grant_type": {"client_credentials"}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/oauth2/token", strings.NewReader(form.Encode()))
	if err != nil {
		return credential.Credential{}, err
	}
	req.SetBasicAuth(clientID, secret)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	var resp tokenResponse
	if err := c.exchange(req, &resp); err != nil {
		return credential.Credential{}, fmt.Errorf("paypal authentication: %w", err)
	}
	cred := credential.Credential{Token: resp.AccessToken}
	if resp.ExpiresIn > 0 {
		cred.ExpiresAt = time.Now().Add(time.Duration(resp.ExpiresIn) * time.Second)
	}
	return cred, nil
}

// APIError is an error answer of the PayPal API.
type APIError struct {
	StatusCode int
	Name       string `json:"name"`
	Message    string `json:"message"`
	Details    []struct {
		Issue       string `json:"issue"`
		Description string `json:"description"`
	} `json:"details"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("paypal responded with status %d: %s %s", e.StatusCode, e.Name, e.Message)
}

func (e *APIError) hasIssue(issue string) bool {
	for _, d := range e.Details {
		if d.Issue == issue {
			return true
		}
	}
	return false
}

func (c *Client) exchange(req *http.Request, out any) error {
	req.Header.Set("Accept", "application/json")
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		if out == nil || len(raw) == 0 {
			return nil
		}
		return json.Unmarshal(raw, out)
	}

	apiErr := &APIError{StatusCode: resp.StatusCode}
	_ = json.Unmarshal(raw, apiErr)
	switch resp.StatusCode {
	case http.StatusUnauthorized:
		return fmt.Errorf("%w: %s", credential.ErrExpired, apiErr.Error())
	case http.StatusNotFound:
		return fmt.Errorf("%w: %s", payment.ErrUnknownOrder, apiErr.Error())
	}
	return apiErr
}

// do sends an authenticated JSON request. An expired token is replaced once.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	_, err := credential.WithOneRetryOnExpiry(ctx, c.token, func(ctx context.Context, cred credential.Credential) (struct{}, error) {
		var reader io.Reader
		if body != nil {
			buf, err := json.Marshal(body)
			if err != nil {
				return struct{}{}, err
			}
			reader = bytes.NewReader(buf)
		}
		req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
		if err != nil {
			return struct{}{}, err
		}
		req.Header.Set("Authorization", "Bearer "+cred.Token)
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Prefer", "return=representation")
		return struct{}{}, c.exchange(req, out)
	})
	return err
}

func isAlreadyCaptured(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.hasIssue("ORDER_ALREADY_CAPTURED")
}
