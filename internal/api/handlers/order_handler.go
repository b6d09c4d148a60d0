package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/matyusmilan/xm-forex/internal/models"
	"github.com/matyusmilan/xm-forex/internal/repository"
	"github.com/matyusmilan/xm-forex/internal/service"
	"github.com/matyusmilan/xm-forex/pkg/utils"
)

// maxBodySize ограничивает тело запроса на размещение ордера
const maxBodySize = 1 << 20

// OrderHandler отвечает за CRUD ордеров
//
// Функции:
// - Размещение ордера (POST /orders)
// - Список ордеров (GET /orders?offset=&limit=)
// - Получение ордера (GET /orders/{id})
// - Отмена ордера (DELETE /orders/{id})
type OrderHandler struct {
	service service.OrderServiceInterface
	logger  *utils.Logger
}

// NewOrderHandler создает новый OrderHandler
func NewOrderHandler(svc service.OrderServiceInterface, logger *utils.Logger) *OrderHandler {
	if logger == nil {
		logger = utils.L()
	}
	return &OrderHandler{
		service: svc,
		logger:  logger.WithComponent("order_handler"),
	}
}

// PlaceOrder размещает ордер и ждет его исполнения
// POST /orders
//
// Ответ 201 с ордером в статусе EXECUTED, 422 при невалидном теле,
// 413 если тело больше maxBodySize.
func (h *OrderHandler) PlaceOrder(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodySize))
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			respondError(w, http.StatusRequestEntityTooLarge, DetailTooLarge)
			return
		}
		var verrs utils.ValidationErrors
		verrs.Add(utils.ErrTypeJSONInvalid, utils.MsgJSONInvalid, nil, utils.LocBody)
		respondValidation(w, verrs)
		return
	}

	input, err := models.ParseOrderInput(body)
	if err != nil {
		if !respondValidation(w, err) {
			h.internalError(w, "parse order", err)
		}
		return
	}

	// Отключение клиента не прерывает исполнение ордера
	ctx := context.WithoutCancel(r.Context())

	order, err := h.service.PlaceOrder(ctx, input)
	if err != nil {
		h.internalError(w, "place order", err)
		return
	}

	respondJSON(w, http.StatusCreated, order)
}

// ListOrders возвращает ордера в порядке размещения
// GET /orders?offset=0&limit=100
func (h *OrderHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	var verrs utils.ValidationErrors
	offset := utils.OptionalIntParam(query, "offset", 0, &verrs)
	limit := utils.OptionalIntParam(query, "limit", repository.DefaultPageLimit, &verrs)
	if err := verrs.OrNil(); err != nil {
		respondValidation(w, err)
		return
	}

	orders, err := h.service.ListOrders(r.Context(), offset, limit)
	if err != nil {
		h.internalError(w, "list orders", err)
		return
	}

	respondJSON(w, http.StatusOK, orders)
}

// GetOrder возвращает ордер по ID
// GET /orders/{id}
func (h *OrderHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	order, err := h.service.GetOrder(r.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrOrderNotFound) {
			respondError(w, http.StatusNotFound, DetailOrderNotFound)
			return
		}
		h.internalError(w, "get order", err)
		return
	}

	respondJSON(w, http.StatusOK, order)
}

// CancelOrder отменяет ордер
// DELETE /orders/{id}
//
// Ответ 204 без тела.
func (h *OrderHandler) CancelOrder(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	if _, err := h.service.CancelOrder(r.Context(), id); err != nil {
		switch {
		case errors.Is(err, service.ErrOrderNotFound):
			respondError(w, http.StatusNotFound, DetailOrderNotFound)
		case errors.Is(err, service.ErrOrderNotCancelable):
			respondError(w, http.StatusConflict, DetailNotCancelable)
		default:
			h.internalError(w, "cancel order", err)
		}
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *OrderHandler) internalError(w http.ResponseWriter, op string, err error) {
	h.logger.Error(op+" failed", utils.Err(err))
	respondError(w, http.StatusInternalServerError, DetailInternal)
}
