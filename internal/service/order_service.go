package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/matyusmilan/xm-forex/internal/models"
	"github.com/matyusmilan/xm-forex/internal/repository"
	"github.com/matyusmilan/xm-forex/pkg/utils"
)

// Ошибки сервиса ордеров
var (
	// ErrOrderNotFound совпадает с ошибкой репозитория, errors.Is работает в обе стороны
	ErrOrderNotFound      = repository.ErrOrderNotFound
	ErrOrderNotCancelable = errors.New("order cannot be canceled")
)

// OrderServiceConfig - настройки сервиса ордеров
type OrderServiceConfig struct {
	// Delayer имитирует задержку исполнения. nil - случайная задержка 0.1-1.0s
	Delayer Delayer

	// AllowCancelExecuted разрешает отмену уже исполненного ордера
	AllowCancelExecuted bool

	Logger *utils.Logger
}

// DefaultOrderServiceConfig возвращает настройки по умолчанию
func DefaultOrderServiceConfig() OrderServiceConfig {
	return OrderServiceConfig{
		Delayer:             NewRandomDelayer(DefaultMinExecutionDelay, DefaultMaxExecutionDelay),
		AllowCancelExecuted: true,
	}
}

// OrderService предоставляет бизнес-логику жизненного цикла ордеров.
//
// Отвечает за:
// - Размещение ордера с имитацией задержки исполнения
// - Получение ордера по ID и постраничный список
// - Отмену ордера
//
// Безопасен для конкурентного использования: состояние хранится только в репозитории.
type OrderService struct {
	repo                OrderRepositoryInterface
	delayer             Delayer
	allowCancelExecuted bool
	logger              *utils.Logger
}

// NewOrderService создает новый экземпляр OrderService
func NewOrderService(repo OrderRepositoryInterface, cfg OrderServiceConfig) *OrderService {
	if cfg.Delayer == nil {
		cfg.Delayer = NewRandomDelayer(DefaultMinExecutionDelay, DefaultMaxExecutionDelay)
	}
	if cfg.Logger == nil {
		cfg.Logger = utils.L()
	}

	return &OrderService{
		repo:                repo,
		delayer:             cfg.Delayer,
		allowCancelExecuted: cfg.AllowCancelExecuted,
		logger:              cfg.Logger.WithComponent("order_service"),
	}
}

// PlaceOrder размещает ордер.
//
// Ордер сохраняется в статусе PENDING, затем после случайной задержки
// переводится в EXECUTED. Ожидание прерывается отменой ctx, в этом случае
// ордер остается PENDING и возвращается ошибка контекста.
//
// Возвращает:
// - *models.Order: исполненный ордер
// - error: ошибка хранилища или контекста
func (s *OrderService) PlaceOrder(ctx context.Context, input models.OrderInput) (*models.Order, error) {
	order := models.NewOrder(repository.NewOrderID(), input)

	if err := s.repo.Insert(ctx, order); err != nil {
		StoreErrors.WithLabelValues("insert").Inc()
		return nil, fmt.Errorf("insert order: %w", err)
	}

	log := s.logger.WithOrderID(order.ID)
	log.Debug("order accepted", utils.Stoks(order.Stoks), utils.Quantity(order.Quantity))

	delay, err := s.delayer.Wait(ctx)
	if err != nil {
		log.Warn("order execution interrupted", utils.Err(err))
		return nil, fmt.Errorf("execute order %s: %w", order.ID, err)
	}
	ExecutionDelay.Observe(delay.Seconds())

	order.Status = models.OrderStatusExecuted
	if err := s.repo.Update(ctx, order); err != nil {
		StoreErrors.WithLabelValues("update").Inc()
		return nil, fmt.Errorf("update order %s: %w", order.ID, err)
	}

	OrdersPlaced.Inc()
	log.Info("order executed",
		utils.Status(string(order.Status)),
		utils.Stoks(order.Stoks),
		utils.Quantity(order.Quantity),
		utils.Latency(delay),
	)

	return order, nil
}

// GetOrder возвращает ордер по ID
//
// Возвращает ErrOrderNotFound если ордера нет.
func (s *OrderService) GetOrder(ctx context.Context, id string) (*models.Order, error) {
	order, err := s.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrOrderNotFound) {
			return nil, ErrOrderNotFound
		}
		StoreErrors.WithLabelValues("get").Inc()
		return nil, fmt.Errorf("get order %s: %w", id, err)
	}
	return order, nil
}

// ListOrders возвращает ордера в порядке размещения
//
// Пустой результат - всегда пустой слайс, не nil.
func (s *OrderService) ListOrders(ctx context.Context, offset, limit int) ([]*models.Order, error) {
	orders, err := s.repo.List(ctx, offset, limit)
	if err != nil {
		StoreErrors.WithLabelValues("list").Inc()
		return nil, fmt.Errorf("list orders: %w", err)
	}
	if orders == nil {
		orders = []*models.Order{}
	}
	return orders, nil
}

// CancelOrder переводит ордер в статус CANCELED.
//
// Повторная отмена уже отмененного ордера не является ошибкой.
//
// Возвращает:
// - *models.Order: обновленный ордер
// - ErrOrderNotFound: ордера нет
// - ErrOrderNotCancelable: ордер исполнен и отмена исполненных запрещена
func (s *OrderService) CancelOrder(ctx context.Context, id string) (*models.Order, error) {
	order, err := s.GetOrder(ctx, id)
	if err != nil {
		return nil, err
	}

	if order.Status == models.OrderStatusExecuted && !s.allowCancelExecuted {
		return nil, ErrOrderNotCancelable
	}

	order.Status = models.OrderStatusCanceled
	if err := s.repo.Update(ctx, order); err != nil {
		if errors.Is(err, repository.ErrOrderNotFound) {
			return nil, ErrOrderNotFound
		}
		StoreErrors.WithLabelValues("update").Inc()
		return nil, fmt.Errorf("cancel order %s: %w", id, err)
	}

	OrdersCanceled.Inc()
	s.logger.Info("order canceled", utils.OrderID(id))

	return order, nil
}
