package repository

import (
	"context"
	"sync"
	"time"

	"github.com/matyusmilan/xm-forex/internal/models"
)

// MemoryOrderRepository - хранилище ордеров в памяти процесса
//
// Используется при DB_DRIVER=memory и в тестах.
// Ордера хранятся в слайсе в порядке вставки, индекс по ID - в map.
// Наружу отдаются только копии, чтобы вызывающий код не мог
// изменить сохраненное состояние в обход Update.
type MemoryOrderRepository struct {
	orders []*models.Order
	index  map[string]int
	mu     sync.RWMutex
}

// NewMemoryOrderRepository создает пустое хранилище
func NewMemoryOrderRepository() *MemoryOrderRepository {
	return &MemoryOrderRepository{
		orders: make([]*models.Order, 0),
		index:  make(map[string]int),
	}
}

// Insert сохраняет новый ордер
func (r *MemoryOrderRepository) Insert(ctx context.Context, order *models.Order) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	// Коллизия сгенерированного ID практически невозможна, но перегенерируем
	for order.ID == "" || r.exists(order.ID) {
		order.ID = NewOrderID()
	}
	order.CreatedAt = time.Now()

	r.index[order.ID] = len(r.orders)
	r.orders = append(r.orders, order.Clone())
	return nil
}

// Get возвращает копию ордера по ID
func (r *MemoryOrderRepository) Get(ctx context.Context, id string) (*models.Order, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	i, ok := r.index[id]
	if !ok {
		return nil, ErrOrderNotFound
	}
	return r.orders[i].Clone(), nil
}

// List возвращает ордера в порядке вставки
func (r *MemoryOrderRepository) List(ctx context.Context, offset, limit int) ([]*models.Order, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	offset, limit, ok := NormalizePage(offset, limit)
	if !ok {
		return []*models.Order{}, nil
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	if offset >= len(r.orders) {
		return []*models.Order{}, nil
	}

	end := offset + limit
	if end > len(r.orders) {
		end = len(r.orders)
	}

	result := make([]*models.Order, 0, end-offset)
	for _, o := range r.orders[offset:end] {
		result = append(result, o.Clone())
	}
	return result, nil
}

// Update перезаписывает ордер по ID
func (r *MemoryOrderRepository) Update(ctx context.Context, order *models.Order) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	i, ok := r.index[order.ID]
	if !ok {
		return ErrOrderNotFound
	}

	updated := order.Clone()
	updated.CreatedAt = r.orders[i].CreatedAt
	r.orders[i] = updated
	return nil
}

func (r *MemoryOrderRepository) exists(id string) bool {
	_, ok := r.index[id]
	return ok
}
