package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/library-console/internal/dto"
	"github.com/noah-isme/library-console/internal/session"
	"github.com/noah-isme/library-console/pkg/response"
)

type sessionManager interface {
	Create(ctx context.Context) (*session.Session, error)
	Reload(ctx context.Context, s *session.Session) error
	Delete(id string)
}

// SessionHandler opens, reloads and closes console sessions.
type SessionHandler struct {
	sessions sessionManager
}

// NewSessionHandler constructs SessionHandler.
func NewSessionHandler(sessions sessionManager) *SessionHandler {
	return &SessionHandler{sessions: sessions}
}

// Create godoc
// @Summary Open a console session
// @Description Loads the roster from the library API and returns the session id to send as X-Console-Session.
// @Tags Sessions
// @Produce json
// @Success 201 {object} response.Envelope
// @Failure 502 {object} response.Envelope
// @Router /sessions [post]
func (h *SessionHandler) Create(c *gin.Context) {
	s, err := h.sessions.Create(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("X-Console-Session", s.ID)
	response.Created(c, dto.SessionResponse{SessionID: s.ID, Students: len(s.Store.Students())})
}

// Reload godoc
// @Summary Reload the roster
// @Description Replaces the roster with a fresh listing, closes all dialogs and returns to page 1.
// @Tags Sessions
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /sessions/reload [post]
func (h *SessionHandler) Reload(c *gin.Context) {
	s, err := sessionFromContext(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	if err := h.sessions.Reload(c.Request.Context(), s); err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, dto.SessionResponse{SessionID: s.ID, Students: len(s.Store.Students())}, nil)
}

// Delete godoc
// @Summary Close the console session
// @Tags Sessions
// @Success 204
// @Router /sessions [delete]
func (h *SessionHandler) Delete(c *gin.Context) {
	s, err := sessionFromContext(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	h.sessions.Delete(s.ID)
	response.NoContent(c)
}
