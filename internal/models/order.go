package models

import "time"

// OrderStatus - статус жизненного цикла ордера
type OrderStatus string

// Статусы ордера
const (
	OrderStatusPending  OrderStatus = "PENDING"
	OrderStatusExecuted OrderStatus = "EXECUTED"
	OrderStatusCanceled OrderStatus = "CANCELED"
)

// IsValid проверяет что статус входит в закрытый набор
func (s OrderStatus) IsValid() bool {
	switch s {
	case OrderStatusPending, OrderStatusExecuted, OrderStatusCanceled:
		return true
	}
	return false
}

// Order представляет ордер на покупку/продажу валютной пары
//
// Изменяемое поле только одно - Status.
// Stoks и Quantity фиксируются при создании.
// CreatedAt нужен хранилищу для порядка вставки и в JSON не отдается.
type Order struct {
	ID        string      `json:"id" db:"id"`
	Stoks     string      `json:"stoks" db:"stoks"` // валютная пара, например EURUSD
	Quantity  float64     `json:"quantity" db:"quantity"`
	Status    OrderStatus `json:"status" db:"status"`
	CreatedAt time.Time   `json:"-" db:"created_at"`
}

// OrderInput - входные данные для размещения ордера
type OrderInput struct {
	Stoks    string  `json:"stoks"`
	Quantity float64 `json:"quantity"`
}

// NewOrder создает ордер в статусе PENDING
func NewOrder(id string, input OrderInput) *Order {
	return &Order{
		ID:       id,
		Stoks:    input.Stoks,
		Quantity: input.Quantity,
		Status:   OrderStatusPending,
	}
}

// Clone возвращает независимую копию ордера
func (o *Order) Clone() *Order {
	if o == nil {
		return nil
	}
	c := *o
	return &c
}
