// Package grant describes the shape shared by the external services that
// grant server side benefits to a Steam identity: priority queue and whitelist
// entries on CFTools and reserved slots on BattleMetrics.
package grant

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrDuplicateResource is returned by Put when the entry already exists.
// Callers treat it as a successful grant.
var ErrDuplicateResource = errors.New("duplicate resource creation")

// ErrExternalService marks any other failure reported by the remote API.
var ErrExternalService = errors.New("external service failure")

type Grant struct {
	ServerID string
	SteamID  string
	Expires  *time.Time // nil means permanent
	Comment  string
}

type Entry struct {
	ServerID  string
	SteamID   string
	Expires   *time.Time
	Comment   string
	CreatedAt time.Time
}

// Active reports whether the entry is still valid at now.
func (e *Entry) Active(now time.Time) bool {
	if e == nil {
		return false
	}
	return e.Expires == nil || e.Expires.After(now)
}

type Service interface {
	Put(ctx context.Context, g Grant) error
	// Get returns nil, nil when no entry exists.
	Get(ctx context.Context, serverID, steamID string) (*Entry, error)
}

// StatusError is an unexpected HTTP answer of a grant API.
type StatusError struct {
	Service    string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s responded with status %d: %s", e.Service, e.StatusCode, e.Body)
}

func (e *StatusError) Unwrap() error {
	return ErrExternalService
}
