package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/library-console/internal/session"
	appErrors "github.com/noah-isme/library-console/pkg/errors"
	"github.com/noah-isme/library-console/pkg/logger"
	"github.com/noah-isme/library-console/pkg/response"
)

const (
	// SessionHeader carries the console session id on every roster request.
	SessionHeader = "X-Console-Session"
	// ContextSessionKey is the gin key holding the resolved *session.Session.
	ContextSessionKey = "console_session"
)

// SessionLookup resolves a live session by id.
type SessionLookup interface {
	Get(id string) (*session.Session, error)
}

// RequireSession resolves the caller's console session or aborts with 401.
func RequireSession(sessions SessionLookup) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := strings.TrimSpace(c.GetHeader(SessionHeader))
		if id == "" {
			response.Error(c, appErrors.ErrSessionRequired)
			c.Abort()
			return
		}
		s, err := sessions.Get(id)
		if err != nil {
			response.Error(c, err)
			c.Abort()
			return
		}
		c.Set(ContextSessionKey, s)
		c.Set(logger.SessionIDKey, s.ID)
		c.Next()
	}
}
