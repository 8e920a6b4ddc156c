// Package credential provides access tokens for external APIs and the single
// retry performed when a token turned out to be expired.
package credential

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

var (
	// ErrExpired is returned by a call whose credential was rejected as expired.
	ErrExpired = errors.New("credential expired")
	// ErrRejected is returned when a freshly provided credential got rejected
	// as expired as well.
	ErrRejected = errors.New("credential rejected after refresh")
)

type Credential struct {
	Token     string
	ExpiresAt time.Time // zero means unknown
}

type Provider interface {
	Provide(ctx context.Context) (Credential, error)
	ReportExpired()
}

// WithOneRetryOnExpiry runs call with the current credential. When it fails
// with ErrExpired the credential is reported, a fresh one is provided and call
// runs exactly once more. A failure of the retry is not retried again.
func WithOneRetryOnExpiry[T any](ctx context.Context, p Provider, call func(context.Context, Credential) (T, error)) (T, error) {
	var zero T

	cred, err := p.Provide(ctx)
	if err != nil {
		return zero, fmt.Errorf("provide credential: %w", err)
	}
	result, err := call(ctx, cred)
	if err == nil || !errors.Is(err, ErrExpired) {
		return result, err
	}

	p.ReportExpired()
	cred, err = p.Provide(ctx)
	if err != nil {
		return zero, fmt.Errorf("refresh credential: %w", err)
	}
	result, err = call(ctx, cred)
	if errors.Is(err, ErrExpired) {
		return zero, fmt.Errorf("%w: %s", ErrRejected, err.Error())
	}
	return result, err
}

// FetchFunc obtains a new credential from the issuing API.
type FetchFunc func(ctx context.Context) (Credential, error)

// CachedProvider caches the credential returned by fetch until it expires or
// gets reported as expired.
type CachedProvider struct {
	fetch  FetchFunc
	margin time.Duration
	now    func() time.Time

	mu      sync.Mutex
	current *Credential
}

func NewCachedProvider(fetch FetchFunc) *CachedProvider {
	return &CachedProvider{
		fetch:  fetch,
		margin: 30 * time.Second,
		now:    time.Now,
	}
}

func (p *CachedProvider) Provide(ctx context.Context) (Credential, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.current != nil && (p.current.ExpiresAt.IsZero() || p.now().Add(p.margin).Before(p.current.ExpiresAt)) {
		return *p.current, nil
	}

	cred, err := p.fetch(ctx)
	if err != nil {
		return Credential{}, err
	}
	p.current = &cred
	return cred, nil
}

func (p *CachedProvider) ReportExpired() {
	p.mu.Lock()
	p.current = nil
	p.mu.Unlock()
}

// Static always provides the same token. Reporting it expired has no effect.
type Static string

func (s Static) Provide(context.Context) (Credential, error) {
	return Credential{Token: string(s)}, nil
}

func (Static) ReportExpired() {}
