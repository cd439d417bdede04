package v1

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"storefront-backend/internal/domain"
	"storefront-backend/pkg/utils"
)

type statsService interface {
	GetRevenueKPIs(ctx context.Context, start, end time.Time) (*domain.RevenueKPIs, error)
	GetPromoSummary(ctx context.Context, start, end time.Time, limit int) ([]domain.PromoSummary, error)
	GetLowStockVariants(ctx context.Context, threshold, limit int) ([]domain.LowStockVariant, error)
	Invalidate(ctx context.Context)
}

// AdminStatsHandler takes every parameter from the query string. Passing
// refresh=true drops cached reports before answering.
type AdminStatsHandler struct {
	statsUC statsService
}

func NewAdminStatsHandler(uc statsService) *AdminStatsHandler {
	return &AdminStatsHandler{statsUC: uc}
}

func (h *AdminStatsHandler) maybeRefresh(r *http.Request) {
	if refresh, _ := strconv.ParseBool(r.URL.Query().Get("refresh")); refresh {
		h.statsUC.Invalidate(r.Context())
	}
}

// GET /api/v1/admin/stats/kpis?start=2026-01-01&end=2026-01-31
func (h *AdminStatsHandler) GetRevenueKPIs(w http.ResponseWriter, r *http.Request) {
	start, end, err := dateRange(r, "start", "end", true)
	if err != nil {
		writeError(w, r, err)
		return
	}
	h.maybeRefresh(r)

	kpis, err := h.statsUC.GetRevenueKPIs(r.Context(), *start, *end)
	if err != nil {
		writeError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, kpis)
}

// GET /api/v1/admin/stats/promo-codes?start=2026-01-01&end=2026-01-31&limit=25
func (h *AdminStatsHandler) GetPromoSummary(w http.ResponseWriter, r *http.Request) {
	start, end, err := dateRange(r, "start", "end", true)
	if err != nil {
		writeError(w, r, err)
		return
	}
	h.maybeRefresh(r)

	limit := utils.ParseInt(r.URL.Query().Get("limit"), 25)
	rows, err := h.statsUC.GetPromoSummary(r.Context(), *start, *end, limit)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if rows == nil {
		rows = []domain.PromoSummary{}
	}
	utils.WriteJSON(w, http.StatusOK, rows)
}

// GET /api/v1/admin/stats/inventory/low-stock?threshold=5&limit=50
func (h *AdminStatsHandler) GetLowStockVariants(w http.ResponseWriter, r *http.Request) {
	h.maybeRefresh(r)

	threshold := utils.ParseInt(r.URL.Query().Get("threshold"), 5)
	limit := utils.ParseInt(r.URL.Query().Get("limit"), 50)
	rows, err := h.statsUC.GetLowStockVariants(r.Context(), threshold, limit)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if rows == nil {
		rows = []domain.LowStockVariant{}
	}
	utils.WriteJSON(w, http.StatusOK, rows)
}
