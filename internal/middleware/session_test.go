package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/library-console/internal/session"
	appErrors "github.com/noah-isme/library-console/pkg/errors"
	"github.com/noah-isme/library-console/pkg/logger"
)

type lookupStub struct {
	sessions map[string]*session.Session
}

func (l lookupStub) Get(id string) (*session.Session, error) {
	if s, ok := l.sessions[id]; ok {
		return s, nil
	}
	return nil, appErrors.ErrSessionRequired
}

func TestRequireSession(t *testing.T) {
	gin.SetMode(gin.TestMode)
	known := &session.Session{ID: "abc"}
	lookup := lookupStub{sessions: map[string]*session.Session{"abc": known}}

	router := gin.New()
	router.Use(RequireSession(lookup))
	router.GET("/roster", func(c *gin.Context) {
		value, _ := c.Get(ContextSessionKey)
		assert.Same(t, known, value)
		assert.Equal(t, "abc", c.GetString(logger.SessionIDKey))
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/roster", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/roster", nil)
	req.Header.Set(SessionHeader, "nope")
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/roster", nil)
	req.Header.Set(SessionHeader, "abc")
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
}

type observerStub struct {
	path   string
	status int
}

func (o *observerStub) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	o.path = path
	o.status = status
}

func TestMetricsUsesRouteTemplate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	observer := &observerStub{}
	router := gin.New()
	router.Use(Metrics(observer))
	router.GET("/students/:id", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/students/42", nil))
	assert.Equal(t, "/students/:id", observer.path)
	assert.Equal(t, http.StatusNoContent, observer.status)
}
