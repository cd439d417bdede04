package v1

import (
	"context"
	"net/http"

	"storefront-backend/internal/domain"
	"storefront-backend/internal/usecase"
	"storefront-backend/pkg/utils"
)

type orderService interface {
	Checkout(ctx context.Context, user domain.User, req usecase.CheckoutReq) (*domain.Order, error)
	GetMyOrders(ctx context.Context, userID string) ([]domain.Order, error)
	GetMyOrder(ctx context.Context, userID, orderID string) (*domain.Order, error)
}

type OrderHandler struct {
	orderUC orderService
}

func NewOrderHandler(uc orderService) *OrderHandler {
	return &OrderHandler{orderUC: uc}
}

// POST /api/v1/orders
func (h *OrderHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}
	var req usecase.CheckoutReq
	if err := utils.DecodeJSON(w, r, &req); err != nil {
		utils.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	order, err := h.orderUC.Checkout(r.Context(), *user, req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusCreated, order)
}

// GET /api/v1/orders
func (h *OrderHandler) GetMyOrders(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}
	orders, err := h.orderUC.GetMyOrders(r.Context(), user.ID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if orders == nil {
		orders = []domain.Order{}
	}
	utils.WriteJSON(w, http.StatusOK, orders)
}

// GET /api/v1/orders/{id}
func (h *OrderHandler) GetMyOrder(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}
	order, err := h.orderUC.GetMyOrder(r.Context(), user.ID, r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, order)
}
