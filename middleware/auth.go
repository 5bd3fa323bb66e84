package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"saferoute-api/apperrors"
	"saferoute-api/services"

	"github.com/gin-gonic/gin"
)

const actorKey = "saferoute.actor"

// Authenticator resolves a bearer token to the authority behind it.
type Authenticator interface {
	Authenticate(ctx context.Context, bearer string) (services.Actor, error)
}

// RequireAuthority rejects requests without a valid session token for an
// active authority and stores the resulting actor on the context.
func RequireAuthority(auth Authenticator, logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		token, ok := strings.CutPrefix(c.GetHeader("Authorization"), "Bearer ")
		if !ok || strings.TrimSpace(token) == "" {
			logger.WarnContext(ctx, "unauthorized access - missing token",
				"request_id", RequestIDFrom(c),
			)
			abortUnauthorized(c, "missing or invalid Authorization header")
			return
		}

		actor, err := auth.Authenticate(ctx, strings.TrimSpace(token))
		if err != nil {
			if apperrors.HasCode(err, apperrors.CodeUnauthorized) {
				logger.WarnContext(ctx, "unauthorized access - invalid token",
					"error", err,
					"request_id", RequestIDFrom(c),
				)
				abortUnauthorized(c, err.Error())
				return
			}
			logger.ErrorContext(ctx, "failed to authenticate authority",
				"error", err,
				"request_id", RequestIDFrom(c),
			)
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
				"error": "failed to validate token",
				"code":  apperrors.CodeInternal,
			})
			return
		}

		c.Set(actorKey, actor)
		c.Next()
	}
}

// CurrentActor returns the authority established by RequireAuthority.
func CurrentActor(c *gin.Context) (services.Actor, bool) {
	v, ok := c.Get(actorKey)
	if !ok {
		return services.Actor{}, false
	}
	actor, ok := v.(services.Actor)
	return actor, ok
}

func abortUnauthorized(c *gin.Context, msg string) {
	c.Header("WWW-Authenticate", "Bearer")
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"error": msg,
		"code":  apperrors.CodeUnauthorized,
	})
}
