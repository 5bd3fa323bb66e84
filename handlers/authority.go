package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"

	"saferoute-api/apperrors"
	"saferoute-api/middleware"
	"saferoute-api/models"
	"saferoute-api/services"

	"github.com/gin-gonic/gin"
)

// AuthorityHandler serves the authority portal. Every route sits behind
// middleware.RequireAuthority.
type AuthorityHandler struct {
	hazards *services.HazardService
}

func NewAuthorityHandler(hazards *services.HazardService) *AuthorityHandler {
	return &AuthorityHandler{hazards: hazards}
}

type ActionRequest struct {
	Notes string `json:"notes"`
}

type listQuery struct {
	Status string `form:"status" binding:"omitempty,hazardstatus"`
}

func (h *AuthorityHandler) ListHazards(c *gin.Context) {
	var q listQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		respondBindError(c, err)
		return
	}
	p, err := ParsePagination(c)
	if err != nil {
		respondError(c, err)
		return
	}

	filter := services.HazardFilter{Limit: p.Limit, Before: p.Before}
	if q.Status != "" {
		status, err := models.ParseHazardStatus(q.Status)
		if err != nil {
			respondBindError(c, err)
			return
		}
		filter.Status = &status
	}

	page, err := h.hazards.ListHazards(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, newCursorResponse(page))
}

func (h *AuthorityHandler) ListPending(c *gin.Context) {
	p, err := ParsePagination(c)
	if err != nil {
		respondError(c, err)
		return
	}
	page, err := h.hazards.ListPendingQueue(c.Request.Context(), p.Limit, p.After)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, newCursorResponse(page))
}

func (h *AuthorityHandler) GetHazard(c *gin.Context) {
	history, err := h.hazards.GetHazardWithHistory(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, history)
}

func (h *AuthorityHandler) Verify(c *gin.Context) {
	h.act(c, h.hazards.Verify)
}

func (h *AuthorityHandler) Reject(c *gin.Context) {
	h.act(c, h.hazards.Reject)
}

func (h *AuthorityHandler) Resolve(c *gin.Context) {
	h.act(c, h.hazards.Resolve)
}

type transitionFunc func(ctx context.Context, hazardID string, actor services.Actor, notes string) (*models.Hazard, error)

func (h *AuthorityHandler) act(c *gin.Context, apply transitionFunc) {
	actor, ok := middleware.CurrentActor(c)
	if !ok {
		respondError(c, apperrors.Unauthorized("authentication required"))
		return
	}

	var req ActionRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		respondBindError(c, err)
		return
	}

	updated, err := apply(c.Request.Context(), c.Param("id"), actor, req.Notes)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

func (h *AuthorityHandler) Stats(c *gin.Context) {
	stats, err := h.hazards.Stats(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}
