package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/tbayconnect/api/pkg/auth"
)

// probeRouter exposes whether the middleware under test injected claims
func probeRouter(mw gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/probe", mw, func(c *gin.Context) {
		if v, ok := c.Get("user_id"); ok {
			c.JSON(http.StatusOK, gin.H{"user_id": v.(uuid.UUID).String()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"user_id": ""})
	})
	return r
}

func TestOptionalAuthInjectsClaimsForValidToken(t *testing.T) {
	jm := auth.NewJWTManager("test-secret", time.Hour)
	userID := uuid.New()
	token, err := jm.GenerateToken(userID, "viewer@tbayconnect.local", "Viewer", false)
	require.NoError(t, err)

	r := probeRouter(OptionalAuthMiddleware(jm, nil))

	req := httptest.NewRequest(http.MethodGet, "/probe", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), userID.String())
}

func TestOptionalAuthNeverRejects(t *testing.T) {
	jm := auth.NewJWTManager("test-secret", time.Hour)
	r := probeRouter(OptionalAuthMiddleware(jm, nil))

	for name, header := range map[string]string{
		"anonymous":     "",
		"garbage token": "Bearer not-a-jwt",
		"wrong scheme":  "Basic dXNlcjpwYXNz",
	} {
		req := httptest.NewRequest(http.MethodGet, "/probe", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code, name)
		require.Contains(t, w.Body.String(), `"user_id":""`, name)
	}
}

func TestOptionalAuthIgnoresTokenSignedWithOtherSecret(t *testing.T) {
	other := auth.NewJWTManager("other-secret", time.Hour)
	token, err := other.GenerateToken(uuid.New(), "x@tbayconnect.local", "X", false)
	require.NoError(t, err)

	jm := auth.NewJWTManager("test-secret", time.Hour)
	r := probeRouter(OptionalAuthMiddleware(jm, nil))

	req := httptest.NewRequest(http.MethodGet, "/probe", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), `"user_id":""`)
}

func TestAuthMiddlewareStillRejectsAnonymous(t *testing.T) {
	jm := auth.NewJWTManager("test-secret", time.Hour)
	r := probeRouter(AuthMiddleware(jm, nil))

	req := httptest.NewRequest(http.MethodGet, "/probe", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthMiddlewareAcceptsValidTokenWithoutRedis(t *testing.T) {
	jm := auth.NewJWTManager("test-secret", time.Hour)
	userID := uuid.New()
	token, err := jm.GenerateToken(userID, "viewer@tbayconnect.local", "Viewer", false)
	require.NoError(t, err)

	r := probeRouter(AuthMiddleware(jm, nil))

	req := httptest.NewRequest(http.MethodGet, "/probe", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), userID.String())
}
