package middlewares

import (
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestAuth(t *testing.T) {
	tests := []struct {
		name     string
		expected string
		header   string
		want     int
	}{
		{name: "valid", expected: "secret", header: "Bearer secret", want: http.StatusNoContent},
		{name: "wrong token", expected: "secret", header: "Bearer nope", want: http.StatusUnauthorized},
		{name: "missing header", expected: "secret", want: http.StatusUnauthorized},
		{name: "not bearer", expected: "secret", header: "Basic secret", want: http.StatusUnauthorized},
		{name: "empty token without header", expected: "", want: http.StatusUnauthorized},
		{name: "empty token with empty bearer", expected: "", header: "Bearer ", want: http.StatusUnauthorized},
	}

	gin.SetMode(gin.TestMode)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := gin.New()
			r.GET("/", New().Auth(tt.expected), func(c *gin.Context) { c.Status(http.StatusNoContent) })

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			assert.Equal(t, tt.want, w.Code)
		})
	}
}
