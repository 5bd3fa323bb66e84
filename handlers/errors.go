package handlers

import (
	"net/http"

	"saferoute-api/apperrors"

	"github.com/gin-gonic/gin"
)

var statusByCode = map[apperrors.Code]int{
	apperrors.CodeValidation:             http.StatusBadRequest,
	apperrors.CodeInvalidStateTransition: http.StatusConflict,
	apperrors.CodeNotFound:               http.StatusNotFound,
	apperrors.CodeUnauthorized:           http.StatusUnauthorized,
	apperrors.CodeForbidden:              http.StatusForbidden,
	apperrors.CodeExpired:                http.StatusGone,
	apperrors.CodeAlreadyUsed:            http.StatusConflict,
	apperrors.CodeConflict:               http.StatusConflict,
	apperrors.CodeInternal:               http.StatusInternalServerError,
}

// HTTPStatus maps an error to its response status.
func HTTPStatus(err error) int {
	if status, ok := statusByCode[apperrors.CodeOf(err)]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// respondError writes the error body and records err for the request logger.
// Internal errors never leak their message.
func respondError(c *gin.Context, err error) {
	_ = c.Error(err)

	code := apperrors.CodeOf(err)
	msg := err.Error()
	if code == apperrors.CodeInternal {
		msg = "internal server error"
	}
	if code == apperrors.CodeUnauthorized {
		c.Header("WWW-Authenticate", "Bearer")
	}
	c.AbortWithStatusJSON(HTTPStatus(err), gin.H{"error": msg, "code": code})
}

func respondBindError(c *gin.Context, err error) {
	respondError(c, apperrors.Wrap(err, apperrors.CodeValidation, err.Error()))
}
