package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func newRouter(mw gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(mw)
	router.POST("/chat", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})
	return router
}

func preflight(router *gin.Engine, origin string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodOptions, "/chat", nil)
	req.Header.Set("Origin", origin)
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestCORSAllowsConfiguredOrigin(t *testing.T) {
	router := newRouter(CORS([]string{"http://localhost:3000"}))

	w := preflight(router, "http://localhost:3000")
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "http://localhost:3000", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestCORSRejectsUnknownOrigin(t *testing.T) {
	router := newRouter(CORS([]string{"http://localhost:3000"}))

	w := preflight(router, "http://evil.example")
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestCORSWildcardAdmitsAnyOrigin(t *testing.T) {
	for _, origins := range [][]string{nil, {"*"}} {
		router := newRouter(CORS(origins))

		w := preflight(router, "http://anywhere.example")
		assert.Equal(t, http.StatusNoContent, w.Code)
		assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
	}
}

func send(router *gin.Engine, addr string) int {
	req := httptest.NewRequest(http.MethodPost, "/chat", nil)
	req.RemoteAddr = addr
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w.Code
}

func TestRateLimitThrottlesWithinBurst(t *testing.T) {
	router := newRouter(RateLimit(1, 2))

	assert.Equal(t, http.StatusOK, send(router, "10.0.0.1:5000"))
	assert.Equal(t, http.StatusOK, send(router, "10.0.0.1:5000"))
	assert.Equal(t, http.StatusTooManyRequests, send(router, "10.0.0.1:5000"))
}

func TestRateLimitIsPerClient(t *testing.T) {
	router := newRouter(RateLimit(1, 1))

	assert.Equal(t, http.StatusOK, send(router, "10.0.0.1:5000"))
	assert.Equal(t, http.StatusTooManyRequests, send(router, "10.0.0.1:5001"))

	// A different address carries its own budget
	assert.Equal(t, http.StatusOK, send(router, "10.0.0.2:5000"))
}
