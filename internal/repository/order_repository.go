package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/matyusmilan/xm-forex/internal/models"
)

// Ошибки репозитория ордеров
var (
	ErrOrderNotFound = errors.New("order not found")
)

// Параметры пагинации
const (
	DefaultPageLimit = 100
	MaxPageLimit     = 100
)

// NewOrderID генерирует случайный 128-битный идентификатор в hex (32 символа)
func NewOrderID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

// NormalizePage приводит параметры пагинации к допустимым значениям
//
// limit ограничивается сверху MaxPageLimit.
// ok == false означает что результат заведомо пустой
// (отрицательный offset или limit <= 0).
func NormalizePage(offset, limit int) (int, int, bool) {
	if limit > MaxPageLimit {
		limit = MaxPageLimit
	}
	if offset < 0 || limit <= 0 {
		return 0, 0, false
	}
	return offset, limit, true
}

const ordersSchema = `
	CREATE TABLE IF NOT EXISTS orders (
		seq        BIGSERIAL,
		id         TEXT PRIMARY KEY,
		stoks      TEXT NOT NULL,
		quantity   DOUBLE PRECISION NOT NULL,
		status     TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`

// OrderRepository - работа с таблицей orders в PostgreSQL
type OrderRepository struct {
	db *sql.DB
}

// NewOrderRepository создает новый экземпляр репозитория
func NewOrderRepository(db *sql.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

// EnsureSchema создает таблицу orders если её нет
func (r *OrderRepository) EnsureSchema(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, ordersSchema)
	return err
}

// Insert сохраняет новый ордер
//
// Если ID не задан, генерируется новый.
func (r *OrderRepository) Insert(ctx context.Context, order *models.Order) error {
	query := `
		INSERT INTO orders (id, stoks, quantity, status, created_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`

	if order.ID == "" {
		order.ID = NewOrderID()
	}
	order.CreatedAt = time.Now()

	return r.db.QueryRowContext(
		ctx,
		query,
		order.ID,
		order.Stoks,
		order.Quantity,
		string(order.Status),
		order.CreatedAt,
	).Scan(&order.ID)
}

// Get возвращает ордер по ID
func (r *OrderRepository) Get(ctx context.Context, id string) (*models.Order, error) {
	query := `
		SELECT id, stoks, quantity, status, created_at
		FROM orders
		WHERE id = $1`

	order := &models.Order{}
	var status string
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&order.ID,
		&order.Stoks,
		&order.Quantity,
		&status,
		&order.CreatedAt,
	)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}
	order.Status = models.OrderStatus(status)

	return order, nil
}

// List возвращает ордера в порядке вставки
func (r *OrderRepository) List(ctx context.Context, offset, limit int) ([]*models.Order, error) {
	offset, limit, ok := NormalizePage(offset, limit)
	if !ok {
		return []*models.Order{}, nil
	}

	query := `
		SELECT id, stoks, quantity, status, created_at
		FROM orders
		ORDER BY seq ASC
		LIMIT $1 OFFSET $2`

	rows, err := r.db.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	orders := make([]*models.Order, 0, limit)
	for rows.Next() {
		order := &models.Order{}
		var status string
		if err := rows.Scan(
			&order.ID,
			&order.Stoks,
			&order.Quantity,
			&status,
			&order.CreatedAt,
		); err != nil {
			return nil, err
		}
		order.Status = models.OrderStatus(status)
		orders = append(orders, order)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return orders, nil
}

// Update перезаписывает ордер по ID (last writer wins)
func (r *OrderRepository) Update(ctx context.Context, order *models.Order) error {
	query := `
		UPDATE orders
		SET stoks = $2, quantity = $3, status = $4
		WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, order.ID, order.Stoks, order.Quantity, string(order.Status))
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return ErrOrderNotFound
	}

	return nil
}

// Count возвращает количество ордеров
func (r *OrderRepository) Count(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM orders`).Scan(&count)
	return count, err
}
