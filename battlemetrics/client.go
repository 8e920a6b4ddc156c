// Package battlemetrics manages reserved slots through the BattleMetrics API.
package battlemetrics

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"go-donations/credential"
	"go-donations/grant"
)

const DefaultBaseURL = "https://api.battlemetrics.com"

type Config struct {
	BaseURL        string `yaml:"baseUrl"`
	AccessToken    string `yaml:"accessToken"`
	OrganizationID string `yaml:"organizationId"`
}

type Client struct {
	baseURL string
	orgID   string
	http    *http.Client
	limiter *rate.Limiter
	token   credential.Provider
	logger  *zap.Logger
}

func New(cfg Config, httpClient *http.Client, logger *zap.Logger) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		orgID:   cfg.OrganizationID,
		http:    httpClient,
		// 60 requests per minute
		limiter: rate.NewLimiter(rate.Every(time.Second), 5),
		token:   credential.Static(cfg.AccessToken),
		logger:  logger,
	}
}

// ReservedSlots returns the reserved slot lists of all servers as grant service.
func (c *Client) ReservedSlots() grant.Service {
	return reservedSlots{c}
}

type resource struct {
	Type          string                  `json:"type"`
	ID            string                  `json:"id,omitempty"`
	Attributes    slotAttributes          `json:"attributes"`
	Relationships map[string]relationship `json:"relationships,omitempty"`
}

type slotAttributes struct {
	Identifiers []identifier `json:"identifiers"`
	Expires     *time.Time   `json:"expires"`
	CreatedAt   *time.Time   `json:"createdAt,omitempty"`
}

type identifier struct {
	Type       string `json:"type"`
	Identifier string `json:"identifier"`
	Manual     bool   `json:"manual"`
}

type relationship struct {
	Data any `json:"data"`
}

type reference struct {
	Type string `json:"type"`
	ID   string `json:"id"`
}

type document struct {
	Data any `json:"data"`
}

type listDocument struct {
	Data []resource `json:"data"`
}

type errorDocument struct {
	Errors []struct {
		Title  string `json:"title"`
		Detail string `json:"detail"`
	} `json:"errors"`
}

func (c *Client) send(ctx context.Context, method, path string, body, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}
	cred, err := c.token.Provide(ctx)
	if err != nil {
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
	req.Header.Set("Authorization", "Bearer "+cred.Token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("battlemetrics request %s %s: %w", method, path, err)
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

	if resp.StatusCode == http.StatusConflict {
		return grant.ErrDuplicateResource
	}
	var doc errorDocument
	if json.Unmarshal(raw, &doc) == nil {
		for _, e := range doc.Errors {
			if strings.Contains(strings.ToLower(e.Title+" "+e.Detail), "duplicate") {
				return grant.ErrDuplicateResource
			}
		}
	}
	return &grant.StatusError{Service: "battlemetrics", StatusCode: resp.StatusCode, Body: string(raw)}
}

type reservedSlots struct {
	c *Client
}

func (s reservedSlots) Put(ctx context.Context, g grant.Grant) error {
	slot := resource{
		Type: "reservedSlot",
		Attributes: slotAttributes{
			Identifiers: []identifier{{Type: "steamID", Identifier: g.SteamID, Manual: true}},
			Expires:     g.Expires,
		},
		Relationships: map[string]relationship{
			"servers": {Data: []reference{{Type: "server", ID: g.ServerID}}},
		},
	}
	if s.c.orgID != "" {
		slot.Relationships["organization"] = relationship{Data: reference{Type: "organization", ID: s.c.orgID}}
	}

	if err := s.c.send(ctx, http.MethodPost, "/reserved-slots", document{Data: slot}, nil); err != nil {
		return err
	}
	s.c.logger.Debug("reserved slot created", zap.String("server", g.ServerID), zap.String("steam_id", g.SteamID))
	return nil
}

// Get returns the longest running reserved slot of steamID on serverID.
func (s reservedSlots) Get(ctx context.Context, serverID, steamID string) (*grant.Entry, error) {
	q := url.Values{}
	q.Set("filter[search]", steamID)
	q.Set("filter[servers]", serverID)
	q.Set("page[size]", "100")

	var doc listDocument
	if err := s.c.send(ctx, http.MethodGet, "/reserved-slots?"+q.Encode(), nil, &doc); err != nil {
		return nil, err
	}

	var best *grant.Entry
	for _, r := range doc.Data {
		if !hasSteamID(r.Attributes.Identifiers, steamID) {
			continue
		}
		e := &grant.Entry{ServerID: serverID, SteamID: steamID, Expires: r.Attributes.Expires}
		if r.Attributes.CreatedAt != nil {
			e.CreatedAt = *r.Attributes.CreatedAt
		}
		if best == nil || outlasts(e, best) {
			best = e
		}
	}
	return best, nil
}

func hasSteamID(ids []identifier, steamID string) bool {
	for _, id := range ids {
		if id.Type == "steamID" && id.Identifier == steamID {
			return true
		}
	}
	return false
}

func outlasts(a, b *grant.Entry) bool {
	if b.Expires == nil {
		return false
	}
	return a.Expires == nil || a.Expires.After(*b.Expires)
}
