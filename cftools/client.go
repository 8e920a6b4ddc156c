// Package cftools talks to the CFTools Data API to manage priority queue and
// whitelist entries of DayZ servers.
package cftools

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
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"go-donations/credential"
	"go-donations/grant"
)

const DefaultBaseURL = "https://data.cftools.cloud"

// tokens issued by /v1/auth/register are valid for 24 hours
const tokenLifetime = 24 * time.Hour

var errNotFound = errors.New("cftools: resource not found")

type Config struct {
	BaseURL       string  `yaml:"baseUrl"`
	ApplicationID string  `yaml:"applicationId"`
	Secret        string  `yaml:"secret"`
	RatePerSecond float64 `yaml:"ratePerSecond"`
}

type Client struct {
	baseURL string
	http    *http.Client
	limiter *rate.Limiter
	token   credential.Provider
	logger  *zap.Logger

	mu        sync.Mutex
	cftoolsID map[string]string
}

func New(cfg Config, httpClient *http.Client, logger *zap.Logger) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.RatePerSecond <= 0 {
		cfg.RatePerSecond = 5
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &Client{
		baseURL:   strings.TrimRight(cfg.BaseURL, "/"),
		http:      httpClient,
		limiter:   rate.NewLimiter(rate.Limit(cfg.RatePerSecond), 1),
		logger:    logger,
		cftoolsID: make(map[string]string),
	}
	c.token = credential.NewCachedProvider(func(ctx context.Context) (credential.Credential, error) {
		return c.register(ctx, cfg.ApplicationID, cfg.Secret)
	})
	return c
}

// PriorityQueue returns the priority queue list of all servers as grant service.
func (c *Client) PriorityQueue() grant.Service {
	return &list{client: c, kind: "queuepriority"}
}

// Whitelist returns the whitelist of all servers as grant service.
func (c *Client) Whitelist() grant.Service {
	return &list{client: c, kind: "whitelist"}
}

type registerRequest struct {
	ApplicationID string `json:"application_id"`
	Secret        string `json:"secret"`
}

type registerResponse struct {
	Token string `json:"token"`
}

func (c *Client) register(ctx context.Context, applicationID, secret string) (credential.Credential, error) {
	var resp registerResponse
	if err := c.send(ctx, "", http.MethodPost, "/v1/auth/register", registerRequest{applicationID, secret}, &resp); err != nil {
		return credential.Credential{}, fmt.Errorf("register cftools application: %w", err)
	}
	c.logger.Debug("obtained cftools token")
	return credential.Credential{Token: resp.Token, ExpiresAt: time.Now().Add(tokenLifetime)}, nil
}

// do performs an authenticated request, refreshing the token once if the API
// reports it as expired.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	_, err := credential.WithOneRetryOnExpiry(ctx, c.token, func(ctx context.Context, cred credential.Credential) (struct{}, error) {
		return struct{}{}, c.send(ctx, cred.Token, method, path, body, out)
	})
	return err
}

type errorResponse struct {
	Status bool   `json:"status"`
	Error  string `json:"error"`
}

func (c *Client) send(ctx context.Context, token, method, path string, body, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(buf)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("cftools request %s %s: %w", method, path, err)
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
	return classify(resp.StatusCode, raw)
}

func classify(status int, raw []byte) error {
	var e errorResponse
	_ = json.Unmarshal(raw, &e)
	reason := strings.ToLower(e.Error)

	switch {
	case status == http.StatusUnauthorized && strings.Contains(reason, "expired"):
		return fmt.Errorf("%w: %s", credential.ErrExpired, e.Error)
	case status == http.StatusConflict || strings.Contains(reason, "duplicate"):
		return grant.ErrDuplicateResource
	case status == http.StatusNotFound:
		return errNotFound
	}
	return &grant.StatusError{Service: "cftools", StatusCode: status, Body: string(raw)}
}

type lookupResponse struct {
	CFToolsID string `json:"cftools_id"`
}

// lookup resolves the CFTools account id of a steam id. Results are cached
// for the lifetime of the client since the mapping never changes.
func (c *Client) lookup(ctx context.Context, steamID string) (string, error) {
	c.mu.Lock()
	id, ok := c.cftoolsID[steamID]
	c.mu.Unlock()
	if ok {
		return id, nil
	}

	var resp lookupResponse
	if err := c.do(ctx, http.MethodGet, "/v1/users/lookup?identifier="+url.QueryEscape(steamID), nil, &resp); err != nil {
		return "", fmt.Errorf("lookup cftools id of %s: %w", steamID, err)
	}
	c.mu.Lock()
	c.cftoolsID[steamID] = resp.CFToolsID
	c.mu.Unlock()
	return resp.CFToolsID, nil
}
