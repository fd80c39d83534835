// Package ledger records consumed upload tokens so that each token can back
// at most one upload.
package ledger

import (
	"context"
	"time"

	"github.com/dmitrijs2005/mediagate/internal/logging"
)

// Ledger remembers consumed tokens until they expire.
type Ledger interface {
	// Consume marks token as used. It returns common.ErrTokenReused if the
	// token was consumed before.
	Consume(ctx context.Context, token string, expiresAt time.Time) error

	// Prune forgets tokens that expired before now and returns how many were removed.
	Prune(ctx context.Context, now time.Time) (int64, error)
}

// RunPruner calls l.Prune every interval until ctx is done. A non-positive
// interval disables pruning.
func RunPruner(ctx context.Context, l Ledger, interval time.Duration, logger logging.Logger) {
	if interval <= 0 {
		logger.Error(ctx, "ledger pruning disabled", "interval", interval.String())
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			n, err := l.Prune(ctx, now)
			if err != nil {
				logger.Error(ctx, "ledger prune failed", "error", err)
				continue
			}
			if n > 0 {
				logger.Debug(ctx, "ledger pruned", "removed", n)
			}
		}
	}
}
