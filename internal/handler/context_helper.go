package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/library-console/internal/middleware"
	"github.com/noah-isme/library-console/internal/session"
	appErrors "github.com/noah-isme/library-console/pkg/errors"
)

func sessionFromContext(c *gin.Context) (*session.Session, error) {
	value, exists := c.Get(middleware.ContextSessionKey)
	if !exists {
		return nil, appErrors.ErrSessionRequired
	}
	s, ok := value.(*session.Session)
	if !ok || s == nil {
		return nil, appErrors.ErrSessionRequired
	}
	return s, nil
}

func bindError(err error) error {
	return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid request body")
}
