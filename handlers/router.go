package handlers

import (
	"log/slog"

	"saferoute-api/middleware"
	"saferoute-api/services"

	"github.com/gin-gonic/gin"
)

type RouterDeps struct {
	Hazards     *services.HazardService
	Authorities *services.AuthorityService
	Logger      *slog.Logger
}

// NewRouter builds the HTTP surface. Driver routes are open; everything
// under /authority except token redemption needs a session token.
func NewRouter(d RouterDeps) (*gin.Engine, error) {
	if err := RegisterValidators(); err != nil {
		return nil, err
	}

	logger := d.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	router := gin.New()
	router.Use(gin.Recovery(), middleware.RequestID(), middleware.RequestLogger(logger))

	hazards := NewHazardHandler(d.Hazards)
	authority := NewAuthorityHandler(d.Hazards)
	auth := NewAuthHandler(d.Authorities)

	driver := router.Group("/hazards")
	driver.POST("/report", hazards.Report)
	driver.GET("/verified", hazards.GetVerified)

	router.POST("/auth/login", auth.Login)
	router.POST("/authority/verify-token", auth.RedeemToken)

	portal := router.Group("/authority", middleware.RequireAuthority(d.Authorities, logger))
	portal.GET("/hazards", authority.ListHazards)
	portal.GET("/hazards/pending", authority.ListPending)
	portal.GET("/hazards/:id", authority.GetHazard)
	portal.POST("/hazards/:id/verify", authority.Verify)
	portal.POST("/hazards/:id/reject", authority.Reject)
	portal.POST("/hazards/:id/resolve", authority.Resolve)
	portal.GET("/stats", authority.Stats)

	return router, nil
}
