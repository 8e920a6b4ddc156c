// schedule tasks to capture orders the donor approved but never returned for

package order

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
)

const (
	// DefaultPaymentTimeout is how long a created order is checked for an
	// approval.
	DefaultPaymentTimeout = 72 * time.Hour
	// donors get this long to come back and capture themselves
	captureGrace = 10 * time.Minute
)

// CapturePending tries to capture every order that is still CREATED after
// the grace period and not older than timeout. Orders the donor did not
// approve yet stay CREATED. It returns the number of captured orders.
func (s *Service) CapturePending(ctx context.Context, timeout time.Duration) (int, error) {
	now := s.now()
	pending, err := s.store.CreatedBefore(ctx, now.Add(-captureGrace))
	if err != nil {
		return 0, err
	}

	captured := 0
	for _, o := range pending {
		if o.CreatedAt.Before(now.Add(-timeout)) {
			continue
		}
		_, err := s.Capture(ctx, o.ID, o.Target)
		var mismatch *IdentityMismatchError
		switch {
		case err == nil:
			captured++
		case errors.As(err, &mismatch):
			s.logger.Warn("pending order was paid for another steam id", zap.String("order_id", o.ID))
		case ctx.Err() != nil:
			return captured, ctx.Err()
		default:
			s.logger.Debug("pending order not captured", zap.String("order_id", o.ID), zap.Error(err))
		}
	}
	return captured, nil
}

// RunCapturePending calls CapturePending every interval until ctx is done.
func (s *Service) RunCapturePending(ctx context.Context, every, timeout time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := s.CapturePending(ctx, timeout)
			if err != nil {
				s.logger.Error("capturing pending orders failed", zap.Error(err))
				continue
			}
			if n > 0 {
				s.logger.Info("captured pending orders", zap.Int("count", n))
			}
		}
	}
}
