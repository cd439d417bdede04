package v1

import (
	"context"
	"net/http"

	"storefront-backend/internal/delivery/http/middleware"
	"storefront-backend/internal/domain"
	"storefront-backend/pkg/utils"

	"github.com/shopspring/decimal"
)

type promoValidator interface {
	Validate(ctx context.Context, code string, total decimal.Decimal, userID string) (*domain.PromoValidationResult, error)
}

type PromoHandler struct {
	promoUC promoValidator
}

func NewPromoHandler(uc promoValidator) *PromoHandler {
	return &PromoHandler{promoUC: uc}
}

type validatePromoReq struct {
	Code        string          `json:"code"`
	TotalAmount decimal.Decimal `json:"totalAmount"`
}

// POST /api/v1/promo-codes/validate
//
// Previews a code against a cart total. Nothing is reserved; checkout
// evaluates the code again.
func (h *PromoHandler) Validate(w http.ResponseWriter, r *http.Request) {
	var req validatePromoReq
	if err := utils.DecodeJSON(w, r, &req); err != nil {
		utils.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.TotalAmount.IsNegative() {
		utils.WriteError(w, http.StatusBadRequest, "totalAmount must not be negative")
		return
	}

	userID := ""
	if user, ok := middleware.UserFromContext(r.Context()); ok {
		userID = user.ID
	}

	res, err := h.promoUC.Validate(r.Context(), req.Code, req.TotalAmount, userID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, res)
}
