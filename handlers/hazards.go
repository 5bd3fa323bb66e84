package handlers

import (
	"net/http"
	"time"

	"saferoute-api/models"
	"saferoute-api/services"

	"github.com/gin-gonic/gin"
)

// HazardHandler serves the unauthenticated driver endpoints.
type HazardHandler struct {
	hazards *services.HazardService
}

func NewHazardHandler(hazards *services.HazardService) *HazardHandler {
	return &HazardHandler{hazards: hazards}
}

type ReportRequest struct {
	HazardType string     `json:"hazard_type" binding:"required,hazardtype"`
	Latitude   *float64   `json:"latitude" binding:"required"`
	Longitude  *float64   `json:"longitude" binding:"required"`
	ObservedAt *time.Time `json:"observed_at"`
}

type ReportResponse struct {
	Status    string `json:"status"`
	Message   string `json:"message"`
	HazardID  string `json:"hazard_id"`
	Timestamp string `json:"timestamp"`
}

// DriverHazard is everything a driver may see about a hazard.
type DriverHazard struct {
	ID         string            `json:"id"`
	HazardType models.HazardType `json:"hazard_type"`
	Latitude   float64           `json:"latitude"`
	Longitude  float64           `json:"longitude"`
	CreatedAt  time.Time         `json:"created_at"`
}

func (h *HazardHandler) Report(c *gin.Context) {
	var req ReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	hazardType, err := models.ParseHazardType(req.HazardType)
	if err != nil {
		respondBindError(c, err)
		return
	}

	hazard, err := h.hazards.Report(c.Request.Context(), services.ReportInput{
		Type:       hazardType,
		Latitude:   *req.Latitude,
		Longitude:  *req.Longitude,
		ObservedAt: req.ObservedAt,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, ReportResponse{
		Status:    "received",
		Message:   "Hazard report sent to safety team",
		HazardID:  hazard.ID,
		Timestamp: hazard.CreatedAt.Format(time.RFC3339Nano),
	})
}

// GetVerified returns the driver feed. Any status parameter is ignored.
func (h *HazardHandler) GetVerified(c *gin.Context) {
	rows, err := h.hazards.GetVisibleHazards(c.Request.Context(), parseLimit(c))
	if err != nil {
		respondError(c, err)
		return
	}

	out := make([]DriverHazard, 0, len(rows))
	for _, hz := range rows {
		out = append(out, DriverHazard{
			ID:         hz.ID,
			HazardType: hz.HazardType,
			Latitude:   hz.Latitude,
			Longitude:  hz.Longitude,
			CreatedAt:  hz.CreatedAt,
		})
	}
	c.JSON(http.StatusOK, out)
}
