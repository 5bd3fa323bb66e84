package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"saferoute-api/apperrors"
	"saferoute-api/models"
	"saferoute-api/services"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubAuthenticator struct {
	actor services.Actor
	err   error
	got   string
}

func (s *stubAuthenticator) Authenticate(_ context.Context, bearer string) (services.Actor, error) {
	s.got = bearer
	return s.actor, s.err
}

func newTestRouter(auth Authenticator, logger *slog.Logger) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestID(), RequestLogger(logger))
	r.GET("/open", func(c *gin.Context) { c.Status(http.StatusNoContent) })
	r.GET("/private", RequireAuthority(auth, logger), func(c *gin.Context) {
		actor, ok := CurrentActor(c)
		if !ok {
			c.Status(http.StatusInternalServerError)
			return
		}
		c.JSON(http.StatusOK, gin.H{"authority_id": actor.AuthorityID})
	})
	return r
}

func serve(r *gin.Engine, path, authHeader string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func discard() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func TestRequireAuthority(t *testing.T) {
	t.Run("missing header", func(t *testing.T) {
		auth := &stubAuthenticator{}
		rec := serve(newTestRouter(auth, discard()), "/private", "")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, "Bearer", rec.Header().Get("WWW-Authenticate"))
		assert.Empty(t, auth.got)
	})

	t.Run("wrong scheme", func(t *testing.T) {
		rec := serve(newTestRouter(&stubAuthenticator{}, discard()), "/private", "Basic abc")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("rejected token", func(t *testing.T) {
		auth := &stubAuthenticator{err: apperrors.Unauthorized("session token expired")}
		rec := serve(newTestRouter(auth, discard()), "/private", "Bearer abc")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Contains(t, rec.Body.String(), "session token expired")
		assert.Equal(t, "abc", auth.got)
	})

	t.Run("store failure", func(t *testing.T) {
		auth := &stubAuthenticator{err: errors.New("connection refused")}
		rec := serve(newTestRouter(auth, discard()), "/private", "Bearer abc")
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.NotContains(t, rec.Body.String(), "connection refused")
	})

	t.Run("valid token", func(t *testing.T) {
		auth := &stubAuthenticator{actor: services.Actor{
			AuthorityID: "auth-1",
			Email:       "roads@manchester.gov",
			Level:       models.LevelLocal,
		}}
		rec := serve(newTestRouter(auth, discard()), "/private", "Bearer abc")
		require.Equal(t, http.StatusOK, rec.Code)

		var body map[string]string
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, "auth-1", body["authority_id"])
	})
}

func TestCurrentActorWithoutMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	_, ok := CurrentActor(c)
	assert.False(t, ok)
}

func TestRequestID(t *testing.T) {
	r := newTestRouter(&stubAuthenticator{}, discard())

	req := httptest.NewRequest(http.MethodGet, "/open", nil)
	req.Header.Set("X-Request-ID", "abc.123_x-y")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, "abc.123_x-y", rec.Header().Get("X-Request-ID"))

	req = httptest.NewRequest(http.MethodGet, "/open", nil)
	req.Header.Set("X-Request-ID", "bad id\nwith newline")
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	generated := rec.Header().Get("X-Request-ID")
	assert.NotEqual(t, "bad id\nwith newline", generated)
	assert.Len(t, generated, 36)

	assert.False(t, isValidRequestID(strings.Repeat("a", MaxRequestIDLength+1)))
	assert.True(t, isValidRequestID(strings.Repeat("a", MaxRequestIDLength)))
}

func TestRequestLoggerLevels(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	r := newTestRouter(&stubAuthenticator{}, logger)

	serve(r, "/open", "")
	serve(r, "/private", "")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	var requests []map[string]any
	for _, line := range lines {
		var entry map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &entry))
		if entry["msg"] == "http request" {
			requests = append(requests, entry)
		}
	}
	require.Len(t, requests, 2)

	assert.Equal(t, "INFO", requests[0]["level"])
	assert.Equal(t, float64(http.StatusNoContent), requests[0]["status"])
	assert.Equal(t, "/open", requests[0]["route"])
	assert.NotEmpty(t, requests[0]["request_id"])

	assert.Equal(t, "WARN", requests[1]["level"])
	assert.Equal(t, float64(http.StatusUnauthorized), requests[1]["status"])
}
