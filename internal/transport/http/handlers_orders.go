package httptransport

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"ordercore/internal/orders/models"
	"ordercore/internal/orders/service"
	"ordercore/internal/transport/http/shared"
	"ordercore/pkg/requestcontext"
)

// OrdersService is what the orders handlers need from the service layer.
type OrdersService interface {
	CreateOrder(ctx context.Context, cmd service.CreateOrderCommand) (*models.Order, error)
	GetOrder(ctx context.Context, id uuid.UUID) (*models.Order, error)
	CancelOrder(ctx context.Context, id uuid.UUID, reason string) error
	DeleteOrder(ctx context.Context, id uuid.UUID) error
}

// OrdersHandler exposes the orders commands over HTTP.
type OrdersHandler struct {
	svc    OrdersService
	logger *slog.Logger
}

func NewOrdersHandler(svc OrdersService, logger *slog.Logger) *OrdersHandler {
	return &OrdersHandler{
		svc:    svc,
		logger: logger.With("component", "orders.handler"),
	}
}

// Register mounts the orders routes.
func (h *OrdersHandler) Register(r chi.Router) {
	r.Post("/v1/orders", h.handleCreateOrder)
	r.Get("/v1/orders/{id}", h.handleGetOrder)
	r.Post("/v1/orders/{id}/cancel", h.handleCancelOrder)
	r.Delete("/v1/orders/{id}", h.handleDeleteOrder)
}

type createOrderRequest struct {
	CustomerID uuid.UUID `json:"customer_id"`
	TotalCents int64     `json:"total_cents"`
	Currency   string    `json:"currency"`
}

type cancelOrderRequest struct {
	Reason string `json:"reason"`
}

type orderResponse struct {
	ID         uuid.UUID  `json:"id"`
	CustomerID uuid.UUID  `json:"customer_id"`
	TotalCents int64      `json:"total_cents"`
	Currency   string     `json:"currency"`
	Status     string     `json:"status"`
	IsDeleted  bool       `json:"is_deleted"`
	DeletedAt  *time.Time `json:"deleted_at,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

func toOrderResponse(o *models.Order) orderResponse {
	return orderResponse{
		ID:         o.ID,
		CustomerID: o.CustomerID,
		TotalCents: o.TotalCents,
		Currency:   o.Currency,
		Status:     string(o.Status),
		IsDeleted:  o.IsDeleted,
		DeletedAt:  o.DeletedAt,
		CreatedAt:  o.CreatedAt,
		UpdatedAt:  o.UpdatedAt,
	}
}

// handleCreateOrder requires an Idempotency-Key header; a repeat of the
// same key answers 409 rather than creating a second order.
func (h *OrdersHandler) handleCreateOrder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if requestcontext.RequestID(ctx) == uuid.Nil {
		shared.WriteBadRequest(w, "Idempotency-Key header with a UUID value is required")
		return
	}

	var req createOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteBadRequest(w, "invalid request body")
		return
	}
	if req.CustomerID == uuid.Nil || req.TotalCents <= 0 || req.Currency == "" {
		shared.WriteBadRequest(w, "customer_id, total_cents and currency are required")
		return
	}

	order, err := h.svc.CreateOrder(ctx, service.CreateOrderCommand{
		CustomerID: req.CustomerID,
		TotalCents: req.TotalCents,
		Currency:   req.Currency,
	})
	if err != nil {
		h.logger.ErrorContext(ctx, "create order failed", "error", err)
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusCreated, toOrderResponse(order))
}

func (h *OrdersHandler) handleGetOrder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		shared.WriteBadRequest(w, "order id must be a UUID")
		return
	}

	order, err := h.svc.GetOrder(ctx, id)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, toOrderResponse(order))
}

func (h *OrdersHandler) handleCancelOrder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if requestcontext.RequestID(ctx) == uuid.Nil {
		shared.WriteBadRequest(w, "Idempotency-Key header with a UUID value is required")
		return
	}
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		shared.WriteBadRequest(w, "order id must be a UUID")
		return
	}

	var req cancelOrderRequest
	if r.Body != nil {
		// Reason is optional; an empty body cancels without one.
		_ = json.NewDecoder(r.Body).Decode(&req)
	}

	if err := h.svc.CancelOrder(ctx, id, req.Reason); err != nil {
		h.logger.ErrorContext(ctx, "cancel order failed", "order_id", id, "error", err)
		shared.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *OrdersHandler) handleDeleteOrder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if requestcontext.RequestID(ctx) == uuid.Nil {
		shared.WriteBadRequest(w, "Idempotency-Key header with a UUID value is required")
		return
	}
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		shared.WriteBadRequest(w, "order id must be a UUID")
		return
	}

	if err := h.svc.DeleteOrder(ctx, id); err != nil {
		h.logger.ErrorContext(ctx, "delete order failed", "order_id", id, "error", err)
		shared.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
