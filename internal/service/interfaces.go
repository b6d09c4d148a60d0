package service

import (
	"context"

	"github.com/matyusmilan/xm-forex/internal/models"
	"github.com/matyusmilan/xm-forex/internal/repository"
)

// OrderRepositoryInterface определяет интерфейс хранилища ордеров
//
// Каждая операция атомарна относительно остальных.
// Транзакций между несколькими вызовами нет.
type OrderRepositoryInterface interface {
	Insert(ctx context.Context, order *models.Order) error
	Get(ctx context.Context, id string) (*models.Order, error)
	List(ctx context.Context, offset, limit int) ([]*models.Order, error)
	Update(ctx context.Context, order *models.Order) error
}

// Проверяем, что реальные репозитории реализуют интерфейс
var _ OrderRepositoryInterface = (*repository.OrderRepository)(nil)
var _ OrderRepositoryInterface = (*repository.MemoryOrderRepository)(nil)

// ============ Интерфейсы сервисов для Dependency Injection ============

// OrderServiceInterface определяет интерфейс сервиса ордеров
type OrderServiceInterface interface {
	PlaceOrder(ctx context.Context, input models.OrderInput) (*models.Order, error)
	GetOrder(ctx context.Context, id string) (*models.Order, error)
	ListOrders(ctx context.Context, offset, limit int) ([]*models.Order, error)
	CancelOrder(ctx context.Context, id string) (*models.Order, error)
}

var _ OrderServiceInterface = (*OrderService)(nil)
