package domain

import (
	"database/sql/driver"
	"errors"

	"github.com/goccy/go-json"
)

// --- Shared Custom Types ---

// JSONB is a helper for handling JSONB columns in Postgres as a map.
type JSONB map[string]interface{}

func (j JSONB) Value() (driver.Value, error) {
	return json.Marshal(j)
}

func (j *JSONB) Scan(value interface{}) error {
	switch v := value.(type) {
	case nil:
		*j = nil
		return nil
	case []byte:
		return json.Unmarshal(v, j)
	case string:
		return json.Unmarshal([]byte(v), j)
	case map[string]interface{}:
		*j = v
		return nil
	}
	return errors.New("type assertion to []byte failed")
}

// IsEmpty reports whether no field carries a value.
func (j JSONB) IsEmpty() bool {
	for _, v := range j {
		if s, ok := v.(string); ok && s == "" {
			continue
		}
		if v != nil {
			return false
		}
	}
	return true
}

// Pagination
type Pagination struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	TotalItems int64 `json:"totalItems"`
	TotalPages int   `json:"totalPages"`
}

func NewPagination(page, limit int, total int64) Pagination {
	pages := 0
	if limit > 0 {
		pages = int((total + int64(limit) - 1) / int64(limit))
	}
	return Pagination{Page: page, Limit: limit, TotalItems: total, TotalPages: pages}
}
