package handlers

import (
	"errors"
	"io"
	"net/http"

	"saferoute-api/services"

	"github.com/gin-gonic/gin"
)

type AuthHandler struct {
	authorities *services.AuthorityService
}

func NewAuthHandler(authorities *services.AuthorityService) *AuthHandler {
	return &AuthHandler{authorities: authorities}
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// RedeemTokenRequest may arrive as a JSON body or as query parameters, the
// latter matching the link in the verification email.
type RedeemTokenRequest struct {
	HazardID string `json:"hazard_id" form:"hazard_id"`
	Token    string `json:"token" form:"token"`
}

type RedeemTokenResponse struct {
	Status   string `json:"status"`
	Message  string `json:"message"`
	HazardID string `json:"hazard_id"`
	services.Session
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	session, err := h.authorities.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, session)
}

// RedeemToken exchanges an emailed verification token for a session.
func (h *AuthHandler) RedeemToken(c *gin.Context) {
	var req RedeemTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		respondBindError(c, err)
		return
	}
	if req.HazardID == "" {
		req.HazardID = c.Query("hazard_id")
	}
	if req.Token == "" {
		req.Token = c.Query("token")
	}
	if req.HazardID == "" || req.Token == "" {
		respondBindError(c, errors.New("hazard_id and token are required"))
		return
	}

	session, err := h.authorities.RedeemVerificationToken(c.Request.Context(), req.HazardID, req.Token)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, RedeemTokenResponse{
		Status:   "verified",
		Message:  "Token verified successfully",
		HazardID: req.HazardID,
		Session:  *session,
	})
}
