package v1

import (
	"context"
	"net/http"

	"storefront-backend/internal/domain"
	"storefront-backend/pkg/utils"
)

type cartService interface {
	GetCart(ctx context.Context, owner domain.CartOwner) (*domain.Cart, error)
	AddItem(ctx context.Context, owner domain.CartOwner, variantID string, quantity int) (*domain.Cart, error)
	UpdateItem(ctx context.Context, owner domain.CartOwner, itemID string, quantity int) (*domain.Cart, error)
	RemoveItem(ctx context.Context, owner domain.CartOwner, itemID string) (*domain.Cart, error)
	MergeCarts(ctx context.Context, sessionID, userID string) (*domain.Cart, error)
}

// CartHandler serves both signed-in carts and guest carts identified by
// the X-Session-ID header.
type CartHandler struct {
	cartUC cartService
}

func NewCartHandler(uc cartService) *CartHandler {
	return &CartHandler{cartUC: uc}
}

// GET /api/v1/cart
func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	owner, ok := cartOwner(r)
	if !ok {
		utils.WriteError(w, http.StatusBadRequest, "Sign in or send "+sessionHeader)
		return
	}
	cart, err := h.cartUC.GetCart(r.Context(), owner)
	if err != nil {
		writeError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, cart)
}

type addToCartReq struct {
	VariantID string `json:"variantId"`
	Quantity  int    `json:"quantity"`
}

// POST /api/v1/cart/items
func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	owner, ok := cartOwner(r)
	if !ok {
		utils.WriteError(w, http.StatusBadRequest, "Sign in or send "+sessionHeader)
		return
	}
	var req addToCartReq
	if err := utils.DecodeJSON(w, r, &req); err != nil {
		utils.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.VariantID == "" {
		utils.WriteError(w, http.StatusBadRequest, "variantId is required")
		return
	}

	cart, err := h.cartUC.AddItem(r.Context(), owner, req.VariantID, req.Quantity)
	if err != nil {
		writeError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, cart)
}

// PATCH /api/v1/cart/items/{itemId}
func (h *CartHandler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	owner, ok := cartOwner(r)
	if !ok {
		utils.WriteError(w, http.StatusBadRequest, "Sign in or send "+sessionHeader)
		return
	}
	var req struct {
		Quantity int `json:"quantity"`
	}
	if err := utils.DecodeJSON(w, r, &req); err != nil {
		utils.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	cart, err := h.cartUC.UpdateItem(r.Context(), owner, r.PathValue("itemId"), req.Quantity)
	if err != nil {
		writeError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, cart)
}

// DELETE /api/v1/cart/items/{itemId}
func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	owner, ok := cartOwner(r)
	if !ok {
		utils.WriteError(w, http.StatusBadRequest, "Sign in or send "+sessionHeader)
		return
	}
	cart, err := h.cartUC.RemoveItem(r.Context(), owner, r.PathValue("itemId"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, cart)
}

// POST /api/v1/cart/merge, called right after sign-in with the guest
// session header still set.
func (h *CartHandler) MergeCart(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}
	sessionID := r.Header.Get(sessionHeader)
	if sessionID == "" {
		utils.WriteError(w, http.StatusBadRequest, sessionHeader+" header required")
		return
	}
	cart, err := h.cartUC.MergeCarts(r.Context(), sessionID, user.ID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, cart)
}
