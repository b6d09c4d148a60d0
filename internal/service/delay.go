package service

import (
	"context"
	"math/rand"
	"sync"
	"time"
)

// Границы имитации задержки исполнения по умолчанию
const (
	DefaultMinExecutionDelay = 100 * time.Millisecond
	DefaultMaxExecutionDelay = 1 * time.Second
)

// Delayer имитирует задержку обработки ордера
//
// Wait не блокирует другие горутины и прерывается при отмене ctx.
// Возвращает фактически выбранную задержку.
type Delayer interface {
	Wait(ctx context.Context) (time.Duration, error)
}

// RandomDelayer ждет случайное время из [Min, Max] включительно
type RandomDelayer struct {
	Min time.Duration
	Max time.Duration

	mu  sync.Mutex
	rnd *rand.Rand
}

// NewRandomDelayer создает RandomDelayer
//
// Если границы перепутаны, они меняются местами.
func NewRandomDelayer(min, max time.Duration) *RandomDelayer {
	if min < 0 {
		min = 0
	}
	if max < min {
		min, max = max, min
	}
	return &RandomDelayer{
		Min: min,
		Max: max,
		rnd: rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Next возвращает следующую случайную задержку
func (d *RandomDelayer) Next() time.Duration {
	span := int64(d.Max - d.Min)
	if span <= 0 {
		return d.Min
	}

	d.mu.Lock()
	n := d.rnd.Int63n(span + 1)
	d.mu.Unlock()

	return d.Min + time.Duration(n)
}

// Wait ждет случайное время
func (d *RandomDelayer) Wait(ctx context.Context) (time.Duration, error) {
	delay := d.Next()
	return delay, sleepContext(ctx, delay)
}

// NoDelay - Delayer без ожидания (для тестов и нагрузочных прогонов)
type NoDelay struct{}

// Wait сразу возвращает управление
func (NoDelay) Wait(ctx context.Context) (time.Duration, error) {
	return 0, ctx.Err()
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
