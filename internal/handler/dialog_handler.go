package handler

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/library-console/internal/dialog"
	"github.com/noah-isme/library-console/internal/dto"
	"github.com/noah-isme/library-console/internal/models"
	appErrors "github.com/noah-isme/library-console/pkg/errors"
	"github.com/noah-isme/library-console/pkg/response"
)

const maxImageBytes = 5 << 20

// DialogHandler drives the session's ban, notify, edit and filter dialogs.
type DialogHandler struct{}

// NewDialogHandler constructs DialogHandler.
func NewDialogHandler() *DialogHandler {
	return &DialogHandler{}
}

func dialogMeta(view interface{}) map[string]interface{} {
	return map[string]interface{}{"dialog": view}
}

// OpenBan godoc
// @Summary Open the ban dialog
// @Description Resolves the student's default ban length from their category and proposes today plus that many days.
// @Tags Dialogs
// @Accept json
// @Produce json
// @Param payload body dto.OpenStudentDialogRequest true "Student"
// @Success 200 {object} response.Envelope
// @Router /dialogs/ban [post]
func (h *DialogHandler) OpenBan(c *gin.Context) {
	s, err := sessionFromContext(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	var req dto.OpenStudentDialogRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err))
		return
	}
	view, err := s.OpenBan(c.Request.Context(), req.StudentID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, view, nil)
}

// BanView godoc
// @Summary Ban dialog state
// @Tags Dialogs
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /dialogs/ban [get]
func (h *DialogHandler) BanView(c *gin.Context) {
	s, err := sessionFromContext(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, s.Ban.View(), nil)
}

// SetBanDate godoc
// @Summary Override the ban end date
// @Tags Dialogs
// @Accept json
// @Produce json
// @Param payload body dto.BanDateRequest true "End date"
// @Success 200 {object} response.Envelope
// @Router /dialogs/ban [put]
func (h *DialogHandler) SetBanDate(c *gin.Context) {
	s, err := sessionFromContext(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	var req dto.BanDateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err))
		return
	}
	view, err := s.Ban.SetDate(strings.TrimSpace(req.BannedUntil))
	if err != nil {
		response.ErrorWithMeta(c, err, dialogMeta(view))
		return
	}
	response.JSON(c, http.StatusOK, view, nil)
}

// SubmitBan godoc
// @Summary Ban the student
// @Description Bans until the end of the chosen day. On failure the dialog stays open with the error.
// @Tags Dialogs
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /dialogs/ban/submit [post]
func (h *DialogHandler) SubmitBan(c *gin.Context) {
	s, err := sessionFromContext(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	student, view, err := s.Ban.Submit(c.Request.Context(), s.Store)
	if err != nil {
		response.ErrorWithMeta(c, err, dialogMeta(view))
		return
	}
	response.JSON(c, http.StatusOK, student, nil, dialogMeta(view))
}

// CloseBan godoc
// @Summary Close the ban dialog
// @Tags Dialogs
// @Success 204
// @Router /dialogs/ban [delete]
func (h *DialogHandler) CloseBan(c *gin.Context) {
	s, err := sessionFromContext(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	s.Ban.Close()
	response.NoContent(c)
}

// OpenNotify godoc
// @Summary Open the notification dialog
// @Tags Dialogs
// @Accept json
// @Produce json
// @Param payload body dto.OpenStudentDialogRequest true "Student"
// @Success 200 {object} response.Envelope
// @Router /dialogs/notify [post]
func (h *DialogHandler) OpenNotify(c *gin.Context) {
	s, err := sessionFromContext(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	var req dto.OpenStudentDialogRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err))
		return
	}
	view, err := s.OpenNotify(req.StudentID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, view, nil)
}

// NotifyView godoc
// @Summary Notification dialog state
// @Tags Dialogs
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /dialogs/notify [get]
func (h *DialogHandler) NotifyView(c *gin.Context) {
	s, err := sessionFromContext(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, s.Notify.View(), nil)
}

// SubmitNotify godoc
// @Summary Send the notification
// @Tags Dialogs
// @Accept json
// @Produce json
// @Param payload body dto.NotifySubmitRequest true "Notification"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /dialogs/notify/submit [post]
func (h *DialogHandler) SubmitNotify(c *gin.Context) {
	s, err := sessionFromContext(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	var req dto.NotifySubmitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err))
		return
	}
	notification, view, err := s.Notify.Submit(c.Request.Context(), req.Category, req.Message)
	if err != nil {
		response.ErrorWithMeta(c, err, dialogMeta(view))
		return
	}
	response.JSON(c, http.StatusCreated, notification, nil, dialogMeta(view))
}

// CloseNotify godoc
// @Summary Close the notification dialog
// @Tags Dialogs
// @Success 204
// @Router /dialogs/notify [delete]
func (h *DialogHandler) CloseNotify(c *gin.Context) {
	s, err := sessionFromContext(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	s.Notify.Close()
	response.NoContent(c)
}

// OpenEdit godoc
// @Summary Open the edit dialog
// @Description With a studentId the form is pre-populated for editing; without one it opens in create mode.
// @Tags Dialogs
// @Accept json
// @Produce json
// @Param payload body dto.OpenEditDialogRequest false "Student"
// @Success 200 {object} response.Envelope
// @Router /dialogs/edit [post]
func (h *DialogHandler) OpenEdit(c *gin.Context) {
	s, err := sessionFromContext(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	var req dto.OpenEditDialogRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.Error(c, bindError(err))
			return
		}
	}
	if req.StudentID == "" {
		response.JSON(c, http.StatusOK, s.Edit.OpenCreate(), nil)
		return
	}
	view, err := s.OpenEdit(req.StudentID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, view, nil)
}

// EditView godoc
// @Summary Edit dialog state
// @Tags Dialogs
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /dialogs/edit [get]
func (h *DialogHandler) EditView(c *gin.Context) {
	s, err := sessionFromContext(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, s.Edit.View(), nil)
}

// SubmitEdit godoc
// @Summary Save the student
// @Description Accepts JSON or multipart/form-data with an optional image file.
// @Tags Dialogs
// @Accept json
// @Accept mpfd
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /dialogs/edit/submit [post]
func (h *DialogHandler) SubmitEdit(c *gin.Context) {
	s, err := sessionFromContext(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	form, err := bindStudentForm(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	mode := s.Edit.View().Mode
	student, view, err := s.Edit.Submit(c.Request.Context(), s.Store, form)
	if err != nil {
		response.ErrorWithMeta(c, err, dialogMeta(view))
		return
	}
	status := http.StatusOK
	if mode == dialog.ModeCreate {
		status = http.StatusCreated
	}
	response.JSON(c, status, student, nil, dialogMeta(view))
}

func bindStudentForm(c *gin.Context) (dialog.StudentForm, error) {
	if c.ContentType() != gin.MIMEMultipartPOSTForm {
		var form dialog.StudentForm
		if err := c.ShouldBindJSON(&form); err != nil {
			return form, bindError(err)
		}
		return form, nil
	}

	form := dialog.StudentForm{
		Name:        c.PostForm("name"),
		StudentCode: c.PostForm("studentId"),
		Email:       c.PostForm("email"),
		Phone:       c.PostForm("phone"),
		DateOfBirth: c.PostForm("dateOfBirth"),
		Category:    c.PostForm("category"),
	}
	header, err := c.FormFile("image")
	if errors.Is(err, http.ErrMissingFile) {
		return form, nil
	}
	if err != nil {
		return form, bindError(err)
	}
	if header.Size > maxImageBytes {
		return form, appErrors.WithField(appErrors.ErrValidation, "image", "image must be 5MB or smaller")
	}
	file, err := header.Open()
	if err != nil {
		return form, bindError(err)
	}
	defer file.Close()
	content, err := io.ReadAll(io.LimitReader(file, maxImageBytes+1))
	if err != nil {
		return form, bindError(err)
	}
	form.Image = &models.ImageUpload{
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Content:     content,
	}
	return form, nil
}

// CloseEdit godoc
// @Summary Close the edit dialog
// @Tags Dialogs
// @Success 204
// @Router /dialogs/edit [delete]
func (h *DialogHandler) CloseEdit(c *gin.Context) {
	s, err := sessionFromContext(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	s.Edit.Close()
	response.NoContent(c)
}

// OpenFilter godoc
// @Summary Open the filter dialog
// @Tags Dialogs
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /dialogs/filter [post]
func (h *DialogHandler) OpenFilter(c *gin.Context) {
	s, err := sessionFromContext(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, s.OpenFilter(), nil)
}

// FilterView godoc
// @Summary Filter dialog state
// @Tags Dialogs
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /dialogs/filter [get]
func (h *DialogHandler) FilterView(c *gin.Context) {
	s, err := sessionFromContext(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, s.Filter.View(), nil)
}

// SetFilter godoc
// @Summary Edit the draft filters
// @Description The draft has no effect on the roster until submitted.
// @Tags Dialogs
// @Accept json
// @Produce json
// @Param payload body dto.FilterRequest true "Draft filters"
// @Success 200 {object} response.Envelope
// @Router /dialogs/filter [put]
func (h *DialogHandler) SetFilter(c *gin.Context) {
	s, err := sessionFromContext(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	var req dto.FilterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err))
		return
	}
	draft, err := req.ToFilterState()
	if err != nil {
		response.Error(c, err)
		return
	}
	view, err := s.Filter.Set(draft)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, view, nil)
}

// SubmitFilter godoc
// @Summary Apply the draft filters
// @Description Applies the draft, closes the dialog and returns the first page of the refiltered roster.
// @Tags Dialogs
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /dialogs/filter/submit [post]
func (h *DialogHandler) SubmitFilter(c *gin.Context) {
	s, err := sessionFromContext(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	if _, err := s.SubmitFilter(); err != nil {
		response.Error(c, err)
		return
	}
	page := s.Render()
	response.JSON(c, http.StatusOK, page, page.Pagination)
}

// CloseFilter godoc
// @Summary Discard the draft filters
// @Tags Dialogs
// @Success 204
// @Router /dialogs/filter [delete]
func (h *DialogHandler) CloseFilter(c *gin.Context) {
	s, err := sessionFromContext(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	s.Filter.Close()
	response.NoContent(c)
}
