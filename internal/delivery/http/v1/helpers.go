package v1

import (
	"fmt"
	"net/http"
	"time"

	"storefront-backend/internal/delivery/http/middleware"
	"storefront-backend/internal/domain"
	"storefront-backend/pkg/utils"
)

const sessionHeader = "X-Session-ID"

// cartOwner identifies the caller's cart: the signed-in user, else the guest
// session header.
func cartOwner(r *http.Request) (domain.CartOwner, bool) {
	if user, ok := middleware.UserFromContext(r.Context()); ok {
		return domain.CartOwner{UserID: user.ID}, true
	}
	if sid := r.Header.Get(sessionHeader); sid != "" {
		return domain.CartOwner{SessionID: sid}, true
	}
	return domain.CartOwner{}, false
}

func requireUser(w http.ResponseWriter, r *http.Request) (*domain.User, bool) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		utils.WriteError(w, http.StatusUnauthorized, "Unauthorized")
		return nil, false
	}
	return user, true
}

// dateRange reads inclusive YYYY-MM-DD bounds and returns [start, end+1d).
func dateRange(r *http.Request, startParam, endParam string, required bool) (*time.Time, *time.Time, error) {
	q := r.URL.Query()
	var start, end *time.Time

	if s := q.Get(startParam); s != "" {
		t, err := utils.ParseDate(s)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: %s must be YYYY-MM-DD", domain.ErrInvalidInput, startParam)
		}
		start = &t
	} else if required {
		return nil, nil, fmt.Errorf("%w: %s date required (format: YYYY-MM-DD)", domain.ErrInvalidInput, startParam)
	}

	if s := q.Get(endParam); s != "" {
		t, err := utils.ParseDate(s)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: %s must be YYYY-MM-DD", domain.ErrInvalidInput, endParam)
		}
		t = t.AddDate(0, 0, 1)
		end = &t
	} else if required {
		return nil, nil, fmt.Errorf("%w: %s date required (format: YYYY-MM-DD)", domain.ErrInvalidInput, endParam)
	}
	return start, end, nil
}

func pageParams(r *http.Request) (page, limit int) {
	page = utils.ParseInt(r.URL.Query().Get("page"), 1)
	if page < 1 {
		page = 1
	}
	limit = utils.ParseInt(r.URL.Query().Get("limit"), 20)
	if limit < 1 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	return page, limit
}
