package v1

import (
	"context"
	"net/http"

	"storefront-backend/internal/domain"
	"storefront-backend/internal/usecase"
	"storefront-backend/pkg/utils"
)

type promoAdminService interface {
	CreatePromoCode(ctx context.Context, req usecase.PromoCodeRequest) (*domain.PromoCode, error)
	UpdatePromoCode(ctx context.Context, id string, req usecase.PromoCodeRequest) (*domain.PromoCode, error)
	GetPromoCode(ctx context.Context, id string) (*domain.PromoCode, error)
	ListPromoCodes(ctx context.Context, search string, limit, offset int) ([]domain.PromoCode, int64, error)
	DeletePromoCode(ctx context.Context, id string) error
	ListUsages(ctx context.Context, promoID string, limit, offset int) ([]domain.PromoCodeUsage, error)
}

// AdminPromoHandler handles admin promo code management endpoints.
type AdminPromoHandler struct {
	promoUC promoAdminService
}

func NewAdminPromoHandler(uc promoAdminService) *AdminPromoHandler {
	return &AdminPromoHandler{promoUC: uc}
}

// ListPromoCodes returns a page of codes.
// GET /api/v1/admin/promo-codes?page=1&limit=20&search=SUMMER
func (h *AdminPromoHandler) ListPromoCodes(w http.ResponseWriter, r *http.Request) {
	page, limit := pageParams(r)

	promos, total, err := h.promoUC.ListPromoCodes(r.Context(), r.URL.Query().Get("search"), limit, (page-1)*limit)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if promos == nil {
		promos = []domain.PromoCode{}
	}

	utils.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"promoCodes": promos,
		"pagination": domain.NewPagination(page, limit, total),
	})
}

// POST /api/v1/admin/promo-codes
func (h *AdminPromoHandler) CreatePromoCode(w http.ResponseWriter, r *http.Request) {
	var req usecase.PromoCodeRequest
	if err := utils.DecodeJSON(w, r, &req); err != nil {
		utils.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	promo, err := h.promoUC.CreatePromoCode(r.Context(), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusCreated, promo)
}

// GET /api/v1/admin/promo-codes/{id}
func (h *AdminPromoHandler) GetPromoCode(w http.ResponseWriter, r *http.Request) {
	promo, err := h.promoUC.GetPromoCode(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, promo)
}

// PUT /api/v1/admin/promo-codes/{id}
func (h *AdminPromoHandler) UpdatePromoCode(w http.ResponseWriter, r *http.Request) {
	var req usecase.PromoCodeRequest
	if err := utils.DecodeJSON(w, r, &req); err != nil {
		utils.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	promo, err := h.promoUC.UpdatePromoCode(r.Context(), r.PathValue("id"), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, promo)
}

// DELETE /api/v1/admin/promo-codes/{id}
func (h *AdminPromoHandler) DeletePromoCode(w http.ResponseWriter, r *http.Request) {
	if err := h.promoUC.DeletePromoCode(r.Context(), r.PathValue("id")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GET /api/v1/admin/promo-codes/{id}/usages?page=1&limit=50
func (h *AdminPromoHandler) ListUsages(w http.ResponseWriter, r *http.Request) {
	page, limit := pageParams(r)

	usages, err := h.promoUC.ListUsages(r.Context(), r.PathValue("id"), limit, (page-1)*limit)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if usages == nil {
		usages = []domain.PromoCodeUsage{}
	}
	utils.WriteJSON(w, http.StatusOK, usages)
}
