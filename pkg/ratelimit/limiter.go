package ratelimit

import (
	"context"
	"sync"
	"time"
)

// RateLimiter - Token Bucket rate limiter для размещения ордеров
//
// Алгоритм Token Bucket:
// - Ведро наполняется токенами с постоянной скоростью (rate токенов/сек)
// - Максимальная ёмкость ведра = burst (позволяет короткие всплески)
// - Каждое размещение потребляет 1 токен
//
// Использование:
//
//	limiter := NewRateLimiter(5, 10) // 5 ордеров/сек, burst 10
//	err := limiter.Wait(ctx)         // блокирующее ожидание (WebSocket)
//	if limiter.Allow() { ... }       // неблокирующая проверка (HTTP)
type RateLimiter struct {
	rate       float64
	burst      float64
	tokens     float64
	lastRefill time.Time
	now        func() time.Time
	mu         sync.Mutex
}

// NewRateLimiter создаёт новый rate limiter
//
// rate <= 0 - 10 в секунду; burst меньше rate поднимается до rate,
// нулевой burst - 2x rate.
func NewRateLimiter(rate, burst float64) *RateLimiter {
	return newRateLimiter(rate, burst, time.Now)
}

func newRateLimiter(rate, burst float64, now func() time.Time) *RateLimiter {
	if rate <= 0 {
		rate = 10
	}
	if burst <= 0 {
		burst = rate * 2
	}
	if burst < rate {
		burst = rate
	}

	return &RateLimiter{
		rate:       rate,
		burst:      burst,
		tokens:     burst, // начинаем с полным ведром
		lastRefill: now(),
		now:        now,
	}
}

// refill пополняет токены на основе прошедшего времени
// ВАЖНО: вызывается под lock'ом
func (rl *RateLimiter) refill() {
	now := rl.now()
	elapsed := now.Sub(rl.lastRefill).Seconds()
	if elapsed <= 0 {
		return
	}

	rl.tokens += elapsed * rl.rate
	if rl.tokens > rl.burst {
		rl.tokens = rl.burst
	}
	rl.lastRefill = now
}

// untilNext возвращает время до появления следующего токена
// ВАЖНО: вызывается под lock'ом
func (rl *RateLimiter) untilNext() time.Duration {
	if rl.tokens >= 1 {
		return 0
	}
	return time.Duration((1 - rl.tokens) / rl.rate * float64(time.Second))
}

// Allow забирает токен без блокировки
func (rl *RateLimiter) Allow() bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	rl.refill()

	if rl.tokens >= 1 {
		rl.tokens--
		return true
	}
	return false
}

// Wait блокирует до получения токена или отмены контекста
func (rl *RateLimiter) Wait(ctx context.Context) error {
	for {
		rl.mu.Lock()
		rl.refill()

		if rl.tokens >= 1 {
			rl.tokens--
			rl.mu.Unlock()
			return nil
		}

		waitTime := rl.untilNext()
		rl.mu.Unlock()

		timer := time.NewTimer(waitTime)
		select {
		case <-timer.C:
			continue
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		}
	}
}

// RetryAfter возвращает время до следующего доступного токена
// (для заголовка Retry-After)
func (rl *RateLimiter) RetryAfter() time.Duration {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	rl.refill()
	return rl.untilNext()
}

// ============================================================
// KeyedLimiter - отдельное ведро на каждого клиента
// ============================================================

// KeyedLimiter выдает RateLimiter на ключ (адрес клиента)
//
// Ведра, которые не использовались дольше idleTTL, удаляются при
// очередном обращении, чтобы карта не росла бесконечно.
type KeyedLimiter struct {
	rate    float64
	burst   float64
	idleTTL time.Duration
	now     func() time.Time

	mu        sync.Mutex
	limiters  map[string]*keyedEntry
	lastSweep time.Time
}

type keyedEntry struct {
	limiter  *RateLimiter
	lastSeen time.Time
}

// DefaultIdleTTL - время жизни неиспользуемого ведра
const DefaultIdleTTL = 10 * time.Minute

// NewKeyedLimiter создаёт лимитер по ключам
func NewKeyedLimiter(rate, burst float64, idleTTL time.Duration) *KeyedLimiter {
	return newKeyedLimiter(rate, burst, idleTTL, time.Now)
}

func newKeyedLimiter(rate, burst float64, idleTTL time.Duration, now func() time.Time) *KeyedLimiter {
	if idleTTL <= 0 {
		idleTTL = DefaultIdleTTL
	}
	return &KeyedLimiter{
		rate:      rate,
		burst:     burst,
		idleTTL:   idleTTL,
		now:       now,
		limiters:  make(map[string]*keyedEntry),
		lastSweep: now(),
	}
}

// Get возвращает (создавая при необходимости) limiter для ключа
func (kl *KeyedLimiter) Get(key string) *RateLimiter {
	kl.mu.Lock()
	defer kl.mu.Unlock()

	now := kl.now()
	if now.Sub(kl.lastSweep) >= kl.idleTTL {
		kl.sweep(now)
	}

	entry, ok := kl.limiters[key]
	if !ok {
		entry = &keyedEntry{limiter: newRateLimiter(kl.rate, kl.burst, kl.now)}
		kl.limiters[key] = entry
	}
	entry.lastSeen = now
	return entry.limiter
}

// sweep удаляет простаивающие ведра
// ВАЖНО: вызывается под lock'ом
func (kl *KeyedLimiter) sweep(now time.Time) {
	for key, entry := range kl.limiters {
		if now.Sub(entry.lastSeen) >= kl.idleTTL {
			delete(kl.limiters, key)
		}
	}
	kl.lastSweep = now
}
