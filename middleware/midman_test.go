package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestChain_AbortStopsRequest(t *testing.T) {
	gin.SetMode(gin.TestMode)
	chain := NewChain()
	var seen []string
	chain.Add(func(c *gin.Context) { seen = append(seen, "a") })
	chain.Add(func(c *gin.Context) {
		if c.Query("deny") != "" {
			c.AbortWithStatus(http.StatusForbidden)
		}
	})
	assert.Equal(t, 2, chain.Len())

	r := gin.New()
	r.Use(chain.Use())
	r.GET("/x", func(c *gin.Context) {
		seen = append(seen, "handler")
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []string{"a", "handler"}, seen)

	seen = nil
	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x?deny=1", nil))
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, []string{"a"}, seen)
}
