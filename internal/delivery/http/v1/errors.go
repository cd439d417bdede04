package v1

import (
	"errors"
	"net/http"

	"storefront-backend/internal/domain"
	"storefront-backend/pkg/logger"
	"storefront-backend/pkg/utils"
)

type errorBody struct {
	Error string `json:"error"`
	SKU   string `json:"sku,omitempty"`
}

// writeError maps domain errors to a status code and a client-safe message.
// Anything unrecognized is logged and reported as a 500.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var stockErr *domain.InsufficientStockError
	if errors.As(err, &stockErr) {
		utils.WriteJSON(w, http.StatusConflict, errorBody{Error: stockErr.Error(), SKU: stockErr.SKU})
		return
	}

	status, msg := classify(err)
	if status >= http.StatusInternalServerError {
		logger.WithContext(r.Context()).Error().Err(err).Str("path", r.URL.Path).Msg("Request failed")
	}
	if status == http.StatusServiceUnavailable {
		w.Header().Set("Retry-After", "1")
	}
	utils.WriteJSON(w, status, errorBody{Error: msg})
}

func classify(err error) (int, string) {
	switch {
	case errors.Is(err, domain.ErrEmptyCart),
		errors.Is(err, domain.ErrMissingShippingAddress),
		errors.Is(err, domain.ErrInvalidInput),
		errors.Is(err, domain.ErrInvalidStatusTransition),
		errors.Is(err, domain.ErrPromoInvalid):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, domain.ErrAddressNotOwned):
		return http.StatusBadRequest, domain.ErrAddressNotOwned.Error()
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, "Resource not found"
	case errors.Is(err, domain.ErrInsufficientStock),
		errors.Is(err, domain.ErrCartChanged),
		errors.Is(err, domain.ErrCartItemUnavailable),
		errors.Is(err, domain.ErrPromoUsageExhausted),
		errors.Is(err, domain.ErrDuplicatePromoCode):
		return http.StatusConflict, err.Error()
	case errors.Is(err, domain.ErrPaymentAuthorization):
		return http.StatusPaymentRequired, domain.ErrPaymentAuthorization.Error()
	case errors.Is(err, domain.ErrOrderNumberAllocation):
		return http.StatusServiceUnavailable, domain.ErrOrderNumberAllocation.Error() + ", please retry"
	default:
		return http.StatusInternalServerError, "Internal server error"
	}
}
