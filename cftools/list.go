package cftools

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"go-donations/grant"
)

// list is one of the per server lists of CFTools, addressed by kind.
type list struct {
	client *Client
	kind   string
}

type putRequest struct {
	CFToolsID string     `json:"cftools_id"`
	Comment   string     `json:"comment"`
	ExpiresAt *time.Time `json:"expires_at"`
}

type entryResponse struct {
	Entries []struct {
		CreatedAt time.Time `json:"created_at"`
		User      struct {
			CFToolsID string `json:"cftools_id"`
		} `json:"user"`
		Meta struct {
			Comment    string     `json:"comment"`
			Expiration *time.Time `json:"expiration"`
		} `json:"meta"`
	} `json:"entries"`
}

func (l *list) path(serverID string) string {
	return fmt.Sprintf("/v1/server/%s/%s", url.PathEscape(serverID), l.kind)
}

func (l *list) Put(ctx context.Context, g grant.Grant) error {
	id, err := l.client.lookup(ctx, g.SteamID)
	if err != nil {
		return err
	}
	var expires *time.Time
	if g.Expires != nil {
		utc := g.Expires.UTC()
		expires = &utc
	}
	return l.client.do(ctx, http.MethodPost, l.path(g.ServerID), putRequest{
		CFToolsID: id,
		Comment:   g.Comment,
		ExpiresAt: expires,
	}, nil)
}

func (l *list) Get(ctx context.Context, serverID, steamID string) (*grant.Entry, error) {
	id, err := l.client.lookup(ctx, steamID)
	if errors.Is(err, errNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var resp entryResponse
	err = l.client.do(ctx, http.MethodGet, l.path(serverID)+"?cftools_id="+url.QueryEscape(id), nil, &resp)
	if errors.Is(err, errNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	for _, e := range resp.Entries {
		if e.User.CFToolsID != "" && e.User.CFToolsID != id {
			continue
		}
		return &grant.Entry{
			ServerID:  serverID,
			SteamID:   steamID,
			Expires:   e.Meta.Expiration,
			Comment:   e.Meta.Comment,
			CreatedAt: e.CreatedAt,
		}, nil
	}
	return nil, nil
}
