package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Jansmig/magmamath/pkg/logger"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// echoRouter answers with the correlation id seen by the gin context and by
// the request context, separated by a pipe.
func echoRouter(withMiddleware bool) *gin.Engine {
	r := gin.New()
	if withMiddleware {
		r.Use(CorrelationID())
	}
	r.GET("/echo", func(c *gin.Context) {
		c.String(http.StatusOK, GetCorrelationID(c)+"|"+logger.CorrelationID(c.Request.Context()))
	})
	return r
}

func TestCorrelationID(t *testing.T) {
	tests := []struct {
		name   string
		header string
	}{
		{name: "caller supplied id is kept", header: "req-7f3a"},
		{name: "missing id is generated"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/echo", nil)
			if tt.header != "" {
				req.Header.Set(CorrelationIDHeader, tt.header)
			}
			w := httptest.NewRecorder()
			echoRouter(true).ServeHTTP(w, req)

			require.Equal(t, http.StatusOK, w.Code)
			id := w.Header().Get(CorrelationIDHeader)
			if tt.header != "" {
				assert.Equal(t, tt.header, id)
			} else {
				_, err := uuid.Parse(id)
				assert.NoError(t, err)
			}
			assert.Equal(t, id+"|"+id, w.Body.String())
		})
	}
}

func TestGetCorrelationIDWithoutMiddleware(t *testing.T) {
	w := httptest.NewRecorder()
	echoRouter(false).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/echo", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Header().Get(CorrelationIDHeader))
	// A fresh id is still handed out; the request context has none.
	assert.Regexp(t, `^[0-9a-f-]{36}\|$`, w.Body.String())
}
