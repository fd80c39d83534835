package ledger

import (
	"context"
	"sync"
	"time"

	"github.com/dmitrijs2005/mediagate/internal/common"
)

// MemoryLedger is a process-local Ledger.
type MemoryLedger struct {
	mu     sync.Mutex
	tokens map[string]time.Time
}

func NewMemoryLedger() *MemoryLedger {
	return &MemoryLedger{tokens: make(map[string]time.Time)}
}

func (l *MemoryLedger) Consume(_ context.Context, token string, expiresAt time.Time) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.tokens[token]; ok {
		return common.ErrTokenReused
	}
	l.tokens[token] = expiresAt
	return nil
}

func (l *MemoryLedger) Prune(_ context.Context, now time.Time) (int64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	var n int64
	for token, exp := range l.tokens {
		if exp.Before(now) {
			delete(l.tokens, token)
			n++
		}
	}
	return n, nil
}

// Len returns the number of remembered tokens.
func (l *MemoryLedger) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.tokens)
}
