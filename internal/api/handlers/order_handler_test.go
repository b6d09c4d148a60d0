package handlers

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/mux"

	"github.com/matyusmilan/xm-forex/internal/models"
	"github.com/matyusmilan/xm-forex/internal/service"
	"github.com/matyusmilan/xm-forex/pkg/utils"
)

type validationResponse struct {
	Detail []utils.FieldError `json:"detail"`
}

type detailResponse struct {
	Detail string `json:"detail"`
}

func newTestOrderHandler() (*OrderHandler, *MockOrderService) {
	mockSvc := NewMockOrderService()
	return NewOrderHandler(mockSvc, utils.NewNopLogger()), mockSvc
}

// ============ PlaceOrder ============

func TestOrderHandler_PlaceOrder(t *testing.T) {
	t.Run("creates order", func(t *testing.T) {
		handler, _ := newTestOrderHandler()

		body := bytes.NewBufferString(`{"stoks":"EURUSD","quantity":66.6}`)
		req := httptest.NewRequest(http.MethodPost, "/orders", body)
		w := httptest.NewRecorder()

		handler.PlaceOrder(w, req)

		if w.Code != http.StatusCreated {
			t.Fatalf("expected status %d, got %d: %s", http.StatusCreated, w.Code, w.Body.String())
		}

		var order models.Order
		if err := json.NewDecoder(w.Body).Decode(&order); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
		if order.Stoks != "EURUSD" || order.Quantity != 66.6 {
			t.Errorf("unexpected order: %+v", order)
		}
		if order.Status != models.OrderStatusExecuted {
			t.Errorf("expected EXECUTED, got %s", order.Status)
		}
		if len(order.ID) != 32 {
			t.Errorf("expected 32-char id, got %q", order.ID)
		}
	})

	t.Run("accepts numeric string quantity", func(t *testing.T) {
		handler, _ := newTestOrderHandler()

		req := httptest.NewRequest(http.MethodPost, "/orders", bytes.NewBufferString(`{"stoks":"EURGBP","quantity":"12.5"}`))
		w := httptest.NewRecorder()

		handler.PlaceOrder(w, req)

		if w.Code != http.StatusCreated {
			t.Errorf("expected status %d, got %d", http.StatusCreated, w.Code)
		}
	})

	t.Run("detaches from client cancellation", func(t *testing.T) {
		handler, mockSvc := newTestOrderHandler()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		req := httptest.NewRequest(http.MethodPost, "/orders", bytes.NewBufferString(`{"stoks":"EURUSD","quantity":1}`))
		req = req.WithContext(ctx)
		w := httptest.NewRecorder()

		handler.PlaceOrder(w, req)

		if w.Code != http.StatusCreated {
			t.Errorf("expected status %d, got %d", http.StatusCreated, w.Code)
		}
		if mockSvc.placeCtxErr != nil {
			t.Errorf("expected detached context, got %v", mockSvc.placeCtxErr)
		}
	})

	tests := []struct {
		name     string
		body     string
		wantType string
		wantMsg  string
		wantLoc  []interface{}
	}{
		{
			name:     "missing quantity",
			body:     `{"stoks":"EURUSD"}`,
			wantType: utils.ErrTypeMissing,
			wantMsg:  utils.MsgFieldRequired,
			wantLoc:  []interface{}{"body", "quantity"},
		},
		{
			name:     "stoks not a string",
			body:     `{"stoks":666,"quantity":666}`,
			wantType: utils.ErrTypeString,
			wantMsg:  utils.MsgString,
			wantLoc:  []interface{}{"body", "stoks"},
		},
		{
			name:     "quantity not numeric",
			body:     `{"stoks":"EURUSD","quantity":"abc"}`,
			wantType: utils.ErrTypeFloatParsing,
			wantMsg:  utils.MsgFloatParsing,
			wantLoc:  []interface{}{"body", "quantity"},
		},
		{
			name:     "invalid json",
			body:     `{"stoks":`,
			wantType: utils.ErrTypeJSONInvalid,
			wantMsg:  utils.MsgJSONInvalid,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler, mockSvc := newTestOrderHandler()

			req := httptest.NewRequest(http.MethodPost, "/orders", bytes.NewBufferString(tt.body))
			w := httptest.NewRecorder()

			handler.PlaceOrder(w, req)

			if w.Code != http.StatusUnprocessableEntity {
				t.Fatalf("expected status %d, got %d", http.StatusUnprocessableEntity, w.Code)
			}

			var resp validationResponse
			if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
				t.Fatalf("failed to decode response: %v", err)
			}
			if len(resp.Detail) == 0 {
				t.Fatal("expected at least one field error")
			}

			got := resp.Detail[0]
			if got.Type != tt.wantType || got.Msg != tt.wantMsg {
				t.Errorf("expected %s/%q, got %s/%q", tt.wantType, tt.wantMsg, got.Type, got.Msg)
			}
			if tt.wantLoc != nil {
				if len(got.Loc) != len(tt.wantLoc) {
					t.Fatalf("expected loc %v, got %v", tt.wantLoc, got.Loc)
				}
				for i := range tt.wantLoc {
					if got.Loc[i] != tt.wantLoc[i] {
						t.Errorf("expected loc %v, got %v", tt.wantLoc, got.Loc)
					}
				}
			}

			if len(mockSvc.orders) != 0 {
				t.Error("invalid request must not create an order")
			}
		})
	}

	t.Run("returns 413 for oversized body", func(t *testing.T) {
		handler, mockSvc := newTestOrderHandler()

		body := `{"stoks":"EURUSD","quantity":1,"pad":"` + strings.Repeat("x", maxBodySize) + `"}`
		req := httptest.NewRequest(http.MethodPost, "/orders", strings.NewReader(body))
		w := httptest.NewRecorder()

		handler.PlaceOrder(w, req)

		if w.Code != http.StatusRequestEntityTooLarge {
			t.Fatalf("expected status %d, got %d", http.StatusRequestEntityTooLarge, w.Code)
		}

		var resp detailResponse
		if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
		if resp.Detail != DetailTooLarge {
			t.Errorf("expected detail %q, got %q", DetailTooLarge, resp.Detail)
		}
		if len(mockSvc.orders) != 0 {
			t.Errorf("expected no order placed, got %d", len(mockSvc.orders))
		}
	})

	t.Run("returns 500 on service error", func(t *testing.T) {
		handler, mockSvc := newTestOrderHandler()
		mockSvc.SetError("place", ErrMockDatabase)

		req := httptest.NewRequest(http.MethodPost, "/orders", bytes.NewBufferString(`{"stoks":"EURUSD","quantity":1}`))
		w := httptest.NewRecorder()

		handler.PlaceOrder(w, req)

		if w.Code != http.StatusInternalServerError {
			t.Errorf("expected status %d, got %d", http.StatusInternalServerError, w.Code)
		}
	})
}

// ============ ListOrders ============

func TestOrderHandler_ListOrders(t *testing.T) {
	t.Run("returns empty array", func(t *testing.T) {
		handler, _ := newTestOrderHandler()

		req := httptest.NewRequest(http.MethodGet, "/orders", nil)
		w := httptest.NewRecorder()

		handler.ListOrders(w, req)

		if w.Code != http.StatusOK {
			t.Fatalf("expected status %d, got %d", http.StatusOK, w.Code)
		}
		if got := bytes.TrimSpace(w.Body.Bytes()); string(got) != "[]" {
			t.Errorf("expected [], got %s", got)
		}
	})

	t.Run("uses defaults", func(t *testing.T) {
		handler, mockSvc := newTestOrderHandler()

		req := httptest.NewRequest(http.MethodGet, "/orders", nil)
		handler.ListOrders(httptest.NewRecorder(), req)

		if mockSvc.lastOffset != 0 || mockSvc.lastLimit != 100 {
			t.Errorf("expected offset=0 limit=100, got offset=%d limit=%d", mockSvc.lastOffset, mockSvc.lastLimit)
		}
	})

	t.Run("returns orders in order with paging", func(t *testing.T) {
		handler, mockSvc := newTestOrderHandler()
		mockSvc.AddOrder("EURUSD", 1, models.OrderStatusExecuted)
		second := mockSvc.AddOrder("GBPUSD", 2, models.OrderStatusCanceled)
		third := mockSvc.AddOrder("USDJPY", 3, models.OrderStatusExecuted)

		req := httptest.NewRequest(http.MethodGet, "/orders?offset=1&limit=5", nil)
		w := httptest.NewRecorder()

		handler.ListOrders(w, req)

		if w.Code != http.StatusOK {
			t.Fatalf("expected status %d, got %d", http.StatusOK, w.Code)
		}

		var orders []models.Order
		if err := json.NewDecoder(w.Body).Decode(&orders); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
		if len(orders) != 2 || orders[0].ID != second.ID || orders[1].ID != third.ID {
			t.Errorf("unexpected orders: %+v", orders)
		}
	})

	t.Run("rejects non-integer params", func(t *testing.T) {
		handler, _ := newTestOrderHandler()

		req := httptest.NewRequest(http.MethodGet, "/orders?offset=abc&limit=1.5", nil)
		w := httptest.NewRecorder()

		handler.ListOrders(w, req)

		if w.Code != http.StatusUnprocessableEntity {
			t.Fatalf("expected status %d, got %d", http.StatusUnprocessableEntity, w.Code)
		}

		var resp validationResponse
		if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
		if len(resp.Detail) != 2 {
			t.Fatalf("expected 2 errors, got %d", len(resp.Detail))
		}
		for _, e := range resp.Detail {
			if e.Msg != utils.MsgIntParsing {
				t.Errorf("unexpected message %q", e.Msg)
			}
			if e.Loc[0] != "query" {
				t.Errorf("expected query loc, got %v", e.Loc)
			}
		}
	})

	t.Run("rejects present but empty params", func(t *testing.T) {
		for _, query := range []string{"offset=", "limit=", "offset=&limit=5"} {
			handler, _ := newTestOrderHandler()

			req := httptest.NewRequest(http.MethodGet, "/orders?"+query, nil)
			w := httptest.NewRecorder()

			handler.ListOrders(w, req)

			if w.Code != http.StatusUnprocessableEntity {
				t.Fatalf("%s: expected status %d, got %d", query, http.StatusUnprocessableEntity, w.Code)
			}

			var resp validationResponse
			if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
				t.Fatalf("%s: failed to decode response: %v", query, err)
			}
			if len(resp.Detail) != 1 || resp.Detail[0].Type != utils.ErrTypeIntParsing {
				t.Errorf("%s: expected one int_parsing error, got %+v", query, resp.Detail)
			}
		}
	})

	t.Run("returns 500 on service error", func(t *testing.T) {
		handler, mockSvc := newTestOrderHandler()
		mockSvc.SetError("list", ErrMockDatabase)

		req := httptest.NewRequest(http.MethodGet, "/orders", nil)
		w := httptest.NewRecorder()

		handler.ListOrders(w, req)

		if w.Code != http.StatusInternalServerError {
			t.Errorf("expected status %d, got %d", http.StatusInternalServerError, w.Code)
		}
	})
}

// ============ GetOrder ============

func TestOrderHandler_GetOrder(t *testing.T) {
	t.Run("returns order", func(t *testing.T) {
		handler, mockSvc := newTestOrderHandler()
		order := mockSvc.AddOrder("EURUSD", 66.6, models.OrderStatusExecuted)

		req := httptest.NewRequest(http.MethodGet, "/orders/"+order.ID, nil)
		req = mux.SetURLVars(req, map[string]string{"id": order.ID})
		w := httptest.NewRecorder()

		handler.GetOrder(w, req)

		if w.Code != http.StatusOK {
			t.Fatalf("expected status %d, got %d", http.StatusOK, w.Code)
		}

		var got models.Order
		if err := json.NewDecoder(w.Body).Decode(&got); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
		if got.ID != order.ID || got.Status != models.OrderStatusExecuted {
			t.Errorf("unexpected order: %+v", got)
		}
	})

	t.Run("returns 404 for unknown id", func(t *testing.T) {
		handler, _ := newTestOrderHandler()

		req := httptest.NewRequest(http.MethodGet, "/orders/nonexistent", nil)
		req = mux.SetURLVars(req, map[string]string{"id": "nonexistent"})
		w := httptest.NewRecorder()

		handler.GetOrder(w, req)

		if w.Code != http.StatusNotFound {
			t.Fatalf("expected status %d, got %d", http.StatusNotFound, w.Code)
		}

		var resp detailResponse
		if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
		if resp.Detail != DetailOrderNotFound {
			t.Errorf("expected %q, got %q", DetailOrderNotFound, resp.Detail)
		}
	})

	t.Run("returns 500 on service error", func(t *testing.T) {
		handler, mockSvc := newTestOrderHandler()
		mockSvc.SetError("get", ErrMockDatabase)

		req := httptest.NewRequest(http.MethodGet, "/orders/abc", nil)
		req = mux.SetURLVars(req, map[string]string{"id": "abc"})
		w := httptest.NewRecorder()

		handler.GetOrder(w, req)

		if w.Code != http.StatusInternalServerError {
			t.Errorf("expected status %d, got %d", http.StatusInternalServerError, w.Code)
		}
	})
}

// ============ CancelOrder ============

func TestOrderHandler_CancelOrder(t *testing.T) {
	t.Run("cancels order", func(t *testing.T) {
		handler, mockSvc := newTestOrderHandler()
		order := mockSvc.AddOrder("EURUSD", 66.6, models.OrderStatusExecuted)

		req := httptest.NewRequest(http.MethodDelete, "/orders/"+order.ID, nil)
		req = mux.SetURLVars(req, map[string]string{"id": order.ID})
		w := httptest.NewRecorder()

		handler.CancelOrder(w, req)

		if w.Code != http.StatusNoContent {
			t.Fatalf("expected status %d, got %d", http.StatusNoContent, w.Code)
		}
		if w.Body.Len() != 0 {
			t.Errorf("expected empty body, got %q", w.Body.String())
		}

		got, _ := mockSvc.GetOrder(context.Background(), order.ID)
		if got.Status != models.OrderStatusCanceled {
			t.Errorf("expected CANCELED, got %s", got.Status)
		}
	})

	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantDetail string
	}{
		{"not found", nil, http.StatusNotFound, DetailOrderNotFound},
		{"not cancelable", service.ErrOrderNotCancelable, http.StatusConflict, DetailNotCancelable},
		{"store error", ErrMockDatabase, http.StatusInternalServerError, DetailInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler, mockSvc := newTestOrderHandler()
			if tt.err != nil {
				mockSvc.SetError("cancel", tt.err)
			}

			req := httptest.NewRequest(http.MethodDelete, "/orders/missing", nil)
			req = mux.SetURLVars(req, map[string]string{"id": "missing"})
			w := httptest.NewRecorder()

			handler.CancelOrder(w, req)

			if w.Code != tt.wantStatus {
				t.Fatalf("expected status %d, got %d", tt.wantStatus, w.Code)
			}

			var resp detailResponse
			if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
				t.Fatalf("failed to decode response: %v", err)
			}
			if resp.Detail != tt.wantDetail {
				t.Errorf("expected %q, got %q", tt.wantDetail, resp.Detail)
			}
		})
	}
}

// ============ Common ============

func TestHealthCheck(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/health-check/", nil)
	w := httptest.NewRecorder()

	HealthCheck(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, w.Code)
	}
	if got := string(bytes.TrimSpace(w.Body.Bytes())); got != `{"message":"OK"}` {
		t.Errorf("unexpected body %s", got)
	}
}

func TestNotFoundAndMethodNotAllowed(t *testing.T) {
	w := httptest.NewRecorder()
	NotFound(w, httptest.NewRequest(http.MethodGet, "/nope", nil))
	if w.Code != http.StatusNotFound || string(bytes.TrimSpace(w.Body.Bytes())) != `{"detail":"Not Found"}` {
		t.Errorf("unexpected not found response: %d %s", w.Code, w.Body.String())
	}

	w = httptest.NewRecorder()
	MethodNotAllowed(w, httptest.NewRequest(http.MethodPut, "/orders", nil))
	if w.Code != http.StatusMethodNotAllowed || string(bytes.TrimSpace(w.Body.Bytes())) != `{"detail":"Method Not Allowed"}` {
		t.Errorf("unexpected method not allowed response: %d %s", w.Code, w.Body.String())
	}
}
