package handlers

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/matyusmilan/xm-forex/internal/models"
	"github.com/matyusmilan/xm-forex/internal/service"
)

// ErrMockDatabase - ошибка хранилища для тестов
var ErrMockDatabase = errors.New("mock database error")

// ============ Mock Order Service ============

// MockOrderService мок для OrderServiceInterface
type MockOrderService struct {
	orders []*models.Order
	nextID int

	placeErr  error
	getErr    error
	listErr   error
	cancelErr error

	// Параметры последнего вызова ListOrders
	lastOffset int
	lastLimit  int

	// Признак отмены контекста в PlaceOrder
	placeCtxErr error

	mu sync.RWMutex
}

var _ service.OrderServiceInterface = (*MockOrderService)(nil)

// NewMockOrderService создает новый мок сервиса ордеров
func NewMockOrderService() *MockOrderService {
	return &MockOrderService{orders: make([]*models.Order, 0)}
}

// AddOrder добавляет ордер в мок
func (m *MockOrderService) AddOrder(stoks string, quantity float64, status models.OrderStatus) *models.Order {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.nextID++
	order := models.NewOrder(fmt.Sprintf("%032x", m.nextID), models.OrderInput{Stoks: stoks, Quantity: quantity})
	order.Status = status
	m.orders = append(m.orders, order)
	return order.Clone()
}

// SetError задает ошибку для операции
func (m *MockOrderService) SetError(op string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	switch op {
	case "place":
		m.placeErr = err
	case "get":
		m.getErr = err
	case "list":
		m.listErr = err
	case "cancel":
		m.cancelErr = err
	}
}

func (m *MockOrderService) PlaceOrder(ctx context.Context, input models.OrderInput) (*models.Order, error) {
	m.mu.Lock()
	m.placeCtxErr = ctx.Err()
	err := m.placeErr
	m.mu.Unlock()

	if err != nil {
		return nil, err
	}

	order := m.AddOrder(input.Stoks, input.Quantity, models.OrderStatusExecuted)
	return order, nil
}

func (m *MockOrderService) GetOrder(ctx context.Context, id string) (*models.Order, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.getErr != nil {
		return nil, m.getErr
	}
	for _, o := range m.orders {
		if o.ID == id {
			return o.Clone(), nil
		}
	}
	return nil, service.ErrOrderNotFound
}

func (m *MockOrderService) ListOrders(ctx context.Context, offset, limit int) ([]*models.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.lastOffset, m.lastLimit = offset, limit
	if m.listErr != nil {
		return nil, m.listErr
	}

	result := make([]*models.Order, 0)
	if offset < 0 || limit <= 0 || offset >= len(m.orders) {
		return result, nil
	}
	end := offset + limit
	if end > len(m.orders) {
		end = len(m.orders)
	}
	for _, o := range m.orders[offset:end] {
		result = append(result, o.Clone())
	}
	return result, nil
}

func (m *MockOrderService) CancelOrder(ctx context.Context, id string) (*models.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.cancelErr != nil {
		return nil, m.cancelErr
	}
	for _, o := range m.orders {
		if o.ID == id {
			o.Status = models.OrderStatusCanceled
			return o.Clone(), nil
		}
	}
	return nil, service.ErrOrderNotFound
}
