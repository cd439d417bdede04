package v1

import (
	"context"
	"net/http"

	"storefront-backend/internal/domain"
	"storefront-backend/pkg/utils"
)

type orderAdminService interface {
	GetAllOrders(ctx context.Context, filter domain.OrderFilter) ([]domain.Order, int64, error)
	GetOrder(ctx context.Context, id string) (*domain.Order, error)
	GetOrderHistory(ctx context.Context, id string) ([]domain.OrderHistory, error)
	UpdateOrderStatus(ctx context.Context, orderID, newStatus, note, actorID string) (*domain.Order, error)
	DeleteOrder(ctx context.Context, id string) error
}

type AdminOrderHandler struct {
	orderUC orderAdminService
}

func NewAdminOrderHandler(uc orderAdminService) *AdminOrderHandler {
	return &AdminOrderHandler{orderUC: uc}
}

// GET /api/v1/admin/orders?page=1&limit=20&status=pending&search=AB12&from=2026-01-01&to=2026-01-31
func (h *AdminOrderHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	page, limit := pageParams(r)
	from, to, err := dateRange(r, "from", "to", false)
	if err != nil {
		writeError(w, r, err)
		return
	}

	filter := domain.OrderFilter{
		Page:     page,
		Limit:    limit,
		Status:   r.URL.Query().Get("status"),
		Search:   r.URL.Query().Get("search"),
		DateFrom: from,
		DateTo:   to,
	}

	orders, total, err := h.orderUC.GetAllOrders(r.Context(), filter)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if orders == nil {
		orders = []domain.Order{}
	}

	utils.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"orders":     orders,
		"pagination": domain.NewPagination(page, limit, total),
	})
}

// GET /api/v1/admin/orders/{id}
func (h *AdminOrderHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	order, err := h.orderUC.GetOrder(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, order)
}

// GET /api/v1/admin/orders/{id}/history
func (h *AdminOrderHandler) GetOrderHistory(w http.ResponseWriter, r *http.Request) {
	history, err := h.orderUC.GetOrderHistory(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	if history == nil {
		history = []domain.OrderHistory{}
	}
	utils.WriteJSON(w, http.StatusOK, history)
}

// PATCH /api/v1/admin/orders/{id}/status
func (h *AdminOrderHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	admin, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req struct {
		Status string `json:"status"`
		Note   string `json:"note"`
	}
	if err := utils.DecodeJSON(w, r, &req); err != nil {
		utils.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	order, err := h.orderUC.UpdateOrderStatus(r.Context(), r.PathValue("id"), req.Status, req.Note, admin.ID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, order)
}

// DELETE /api/v1/admin/orders/{id}
func (h *AdminOrderHandler) DeleteOrder(w http.ResponseWriter, r *http.Request) {
	if err := h.orderUC.DeleteOrder(r.Context(), r.PathValue("id")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
