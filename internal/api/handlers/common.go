package handlers

import (
	"errors"
	"net/http"

	jsoniter "github.com/json-iterator/go"

	"github.com/matyusmilan/xm-forex/pkg/utils"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Тексты ошибок в поле detail
const (
	DetailNotFound         = "Not Found"
	DetailOrderNotFound    = "Order not found"
	DetailNotCancelable    = "Order cannot be canceled"
	DetailMethodNotAllowed = "Method Not Allowed"
	DetailTooLarge         = "Request Entity Too Large"
	DetailInternal         = "Internal Server Error"
)

// ErrorResponse стандартный формат ответа об ошибке для всех API endpoints
//
// Detail - строка, для 422 - список utils.FieldError.
type ErrorResponse struct {
	Detail interface{} `json:"detail"`
}

// MessageResponse - ответ с текстовым сообщением
type MessageResponse struct {
	Message string `json:"message"`
}

// respondJSON пишет JSON ответ с заданным статусом
func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		utils.Warn("failed to encode response", utils.Err(err))
	}
}

// respondError пишет ответ {"detail": "..."}
func respondError(w http.ResponseWriter, status int, detail string) {
	respondJSON(w, status, ErrorResponse{Detail: detail})
}

// respondValidation пишет 422 со списком ошибок полей
func respondValidation(w http.ResponseWriter, err error) bool {
	var verrs utils.ValidationErrors
	if !errors.As(err, &verrs) {
		return false
	}
	respondJSON(w, http.StatusUnprocessableEntity, ErrorResponse{Detail: []utils.FieldError(verrs)})
	return true
}

// NotFound - ответ для неизвестных маршрутов
func NotFound(w http.ResponseWriter, r *http.Request) {
	respondError(w, http.StatusNotFound, DetailNotFound)
}

// MethodNotAllowed - ответ для известного пути с неподдерживаемым методом
func MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	respondError(w, http.StatusMethodNotAllowed, DetailMethodNotAllowed)
}
