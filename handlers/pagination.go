package handlers

import (
	"strconv"
	"time"

	"saferoute-api/apperrors"
	"saferoute-api/services"

	"github.com/gin-gonic/gin"
)

const (
	DefaultLimit = services.DefaultListLimit
	MaxLimit     = services.MaxListLimit
)

type PaginationParams struct {
	Limit  int
	Before *time.Time
	After  *time.Time
}

type CursorResponse struct {
	Data       interface{} `json:"data"`
	NextCursor string      `json:"next_cursor,omitempty"`
	HasMore    bool        `json:"has_more"`
}

// ParsePagination reads limit, before and after. A bad limit falls back to
// the default; a malformed cursor is a validation error.
func ParsePagination(c *gin.Context) (PaginationParams, error) {
	p := PaginationParams{Limit: parseLimit(c)}

	var err error
	if p.Before, err = parseCursor(c, "before"); err != nil {
		return p, err
	}
	if p.After, err = parseCursor(c, "after"); err != nil {
		return p, err
	}
	return p, nil
}

// parseLimit reads the limit query parameter, falling back to the default
// when it is missing or malformed.
func parseLimit(c *gin.Context) int {
	limit := DefaultLimit
	if limitStr := c.Query("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 {
			limit = l
		}
	}
	return services.ClampLimit(limit)
}

func parseCursor(c *gin.Context, name string) (*time.Time, error) {
	raw := c.Query(name)
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return nil, apperrors.Validation(name + " must be an RFC3339 timestamp")
	}
	return &t, nil
}

func newCursorResponse(page services.HazardPage) CursorResponse {
	resp := CursorResponse{Data: page.Items, HasMore: page.HasMore}
	if page.NextCursor != nil {
		resp.NextCursor = page.NextCursor.Format(time.RFC3339Nano)
	}
	return resp
}
