package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trackpub/infrastructure/utils"
	"trackpub/interfaces/middleware"
)

const testSecret = "test-secret"

func authRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(middleware.Auth(testSecret))
	router.GET("/ping", func(ctx *gin.Context) {
		caller, _ := ctx.Get("caller")
		ctx.JSON(http.StatusOK, gin.H{"caller": caller})
	})
	return router
}

func doAuthRequest(t *testing.T, header string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	rec := httptest.NewRecorder()
	authRouter().ServeHTTP(rec, req)
	return rec
}

func TestAuth_ValidToken(t *testing.T) {
	token, err := utils.GenerateToken(map[string]interface{}{
		"iss": "generation-service",
		"exp": time.Now().Add(time.Hour).Unix(),
	}, testSecret)
	require.NoError(t, err)

	rec := doAuthRequest(t, "Bearer "+token)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "generation-service")
}

func TestAuth_MissingHeader(t *testing.T) {
	rec := doAuthRequest(t, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuth_MalformedHeader(t *testing.T) {
	rec := doAuthRequest(t, "Basic abc123")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuth_GarbageToken(t *testing.T) {
	rec := doAuthRequest(t, "Bearer not.a.token")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "not even a token")
}

func TestAuth_ExpiredToken(t *testing.T) {
	token, err := utils.GenerateToken(map[string]interface{}{
		"iss": "generation-service",
		"exp": time.Now().Add(-time.Hour).Unix(),
	}, testSecret)
	require.NoError(t, err)

	rec := doAuthRequest(t, "Bearer "+token)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "expired")
}

func TestAuth_WrongSecret(t *testing.T) {
	token, err := utils.GenerateToken(map[string]interface{}{"iss": "x"}, "other-secret")
	require.NoError(t, err)

	rec := doAuthRequest(t, "Bearer "+token)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
