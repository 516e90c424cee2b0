package auth

import (
	"sync"
	"time"

	"taskAssistant/internal/logger"

	"go.uber.org/zap"
)

// TokenBlacklist хранит отозванные токены до истечения их срока жизни.
// Хранилище в памяти: при рестарте список пустеет, что приемлемо,
// потому что живые токены короткоживущие
type TokenBlacklist struct {
	mtx     sync.RWMutex
	revoked map[string]time.Time
	done    chan struct{}
}

func NewTokenBlacklist(sweepInterval time.Duration) *TokenBlacklist {
	if sweepInterval <= 0 {
		sweepInterval = 5 * time.Minute
	}

	b := &TokenBlacklist{
		revoked: make(map[string]time.Time),
		done:    make(chan struct{}),
	}
	go b.sweep(sweepInterval)
	return b
}

func (b *TokenBlacklist) Revoke(token string, expiresAt time.Time) {
	if token == "" {
		return
	}

	b.mtx.Lock()
	b.revoked[token] = expiresAt
	b.mtx.Unlock()

	logger.Info("Auth: Токен отозван", zap.Time("expires_at", expiresAt))
}

func (b *TokenBlacklist) IsRevoked(token string) bool {
	b.mtx.RLock()
	expiresAt, ok := b.revoked[token]
	b.mtx.RUnlock()

	if !ok {
		return false
	}
	// просроченный токен и так не пройдёт проверку срока жизни,
	// держать его в списке незачем
	return time.Now().Before(expiresAt)
}

func (b *TokenBlacklist) Stop() {
	close(b.done)
}

func (b *TokenBlacklist) sweep(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-b.done:
			return
		case <-ticker.C:
			b.evictExpired()
		}
	}
}

func (b *TokenBlacklist) evictExpired() {
	now := time.Now()

	b.mtx.Lock()
	defer b.mtx.Unlock()

	for token, expiresAt := range b.revoked {
		if now.After(expiresAt) {
			delete(b.revoked, token)
		}
	}
}
