package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/library-console/internal/dto"
	"github.com/noah-isme/library-console/internal/models"
	"github.com/noah-isme/library-console/internal/roster"
	"github.com/noah-isme/library-console/internal/service"
	"github.com/noah-isme/library-console/internal/session"
	"github.com/noah-isme/library-console/pkg/response"
)

type unbanner interface {
	Unban(ctx context.Context, store *roster.Store, student models.Student) (*models.Student, error)
}

type rosterExporter interface {
	Export(students []models.Student, format string) (*service.ExportResult, error)
}

// RosterHandler serves the paged roster view and direct student actions.
type RosterHandler struct {
	mutations unbanner
	exports   rosterExporter
}

// NewRosterHandler constructs RosterHandler.
func NewRosterHandler(mutations unbanner, exports rosterExporter) *RosterHandler {
	return &RosterHandler{mutations: mutations, exports: exports}
}

// View godoc
// @Summary Current roster page
// @Tags Roster
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /roster [get]
func (h *RosterHandler) View(c *gin.Context) {
	s, err := sessionFromContext(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	page := s.Render()
	response.JSON(c, http.StatusOK, page, page.Pagination)
}

// UpdateView godoc
// @Summary Change search text, filters or page
// @Tags Roster
// @Accept json
// @Produce json
// @Param payload body dto.ViewRequest true "View changes"
// @Success 200 {object} response.Envelope
// @Router /roster/view [patch]
func (h *RosterHandler) UpdateView(c *gin.Context) {
	s, err := sessionFromContext(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	var req dto.ViewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err))
		return
	}
	if err := applyView(s, req); err != nil {
		response.Error(c, err)
		return
	}
	page := s.Render()
	response.JSON(c, http.StatusOK, page, page.Pagination)
}

func applyView(s *session.Session, req dto.ViewRequest) error {
	if req.Filters != nil {
		filters, err := req.Filters.ToFilterState()
		if err != nil {
			return err
		}
		s.ApplyFilters(filters)
	}
	if req.Search != nil {
		s.SetSearch(*req.Search)
	}
	if req.Page != nil {
		if _, err := s.SetPage(*req.Page); err != nil {
			return err
		}
	}
	return nil
}

// Select godoc
// @Summary View a student
// @Description Marks the student as selected; later updates to it refresh the selection.
// @Tags Roster
// @Produce json
// @Param id path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Router /students/{id} [get]
func (h *RosterHandler) Select(c *gin.Context) {
	s, err := sessionFromContext(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	student, err := s.Select(c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, student, nil)
}

// Deselect godoc
// @Summary Clear the viewed student
// @Tags Roster
// @Success 204
// @Router /roster/selection [delete]
func (h *RosterHandler) Deselect(c *gin.Context) {
	s, err := sessionFromContext(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	s.Deselect()
	response.NoContent(c)
}

// Unban godoc
// @Summary Lift a student's ban
// @Tags Roster
// @Produce json
// @Param id path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Failure 502 {object} response.Envelope
// @Router /students/{id}/unban [post]
func (h *RosterHandler) Unban(c *gin.Context) {
	s, err := sessionFromContext(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	student, err := s.Student(c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	// A dropped request must not abort an unban already sent upstream.
	updated, err := h.mutations.Unban(context.WithoutCancel(c.Request.Context()), s.Store, student)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, updated, nil)
}

// Export godoc
// @Summary Download the visible roster
// @Description Exports every student matching the current search and filters, in display order, ignoring paging.
// @Tags Roster
// @Produce text/csv
// @Produce application/pdf
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param format query string false "csv, pdf or xlsx"
// @Success 200 {file} file
// @Router /roster/export [get]
func (h *RosterHandler) Export(c *gin.Context) {
	s, err := sessionFromContext(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	result, err := h.exports.Export(s.Visible(), c.DefaultQuery("format", "csv"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, result.Filename, result.ContentType, result.Body)
}
