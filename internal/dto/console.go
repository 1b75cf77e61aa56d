package dto

import (
	"strings"

	"github.com/noah-isme/library-console/internal/models"
	appErrors "github.com/noah-isme/library-console/pkg/errors"
)

// SessionResponse is returned when a console session is opened or reloaded.
type SessionResponse struct {
	SessionID string `json:"sessionId"`
	Students  int    `json:"students"`
}

// ViewRequest patches the roster view. Absent fields are left unchanged.
// Changing search or filters returns to page 1 before Page is applied.
type ViewRequest struct {
	Search  *string        `json:"search"`
	Filters *FilterRequest `json:"filters"`
	Page    *int           `json:"page" binding:"omitempty,min=1"`
}

// FilterRequest is the wire form of a filter selection.
type FilterRequest struct {
	Category string `json:"category"`
	Status   string `json:"status"`
	Sort     string `json:"sort"`
}

// ToFilterState validates and converts the request.
func (r FilterRequest) ToFilterState() (models.FilterState, error) {
	status, ok := models.ParseStatusFilter(r.Status)
	if !ok {
		return models.FilterState{}, appErrors.WithField(appErrors.ErrValidation, "status", "status must be active or banned")
	}
	sort, ok := models.ParseSortKey(r.Sort)
	if !ok {
		return models.FilterState{}, appErrors.WithField(appErrors.ErrValidation, "sort", "sort must be one of name, name_desc, id, id_desc")
	}
	return models.FilterState{Category: strings.TrimSpace(r.Category), Status: status, Sort: sort}, nil
}

// OpenStudentDialogRequest opens a per-student dialog.
type OpenStudentDialogRequest struct {
	StudentID string `json:"studentId" binding:"required"`
}

// OpenEditDialogRequest opens the edit dialog; an empty StudentID opens create mode.
type OpenEditDialogRequest struct {
	StudentID string `json:"studentId"`
}

// BanDateRequest overrides the proposed ban end date (YYYY-MM-DD). Empty clears it.
type BanDateRequest struct {
	BannedUntil string `json:"bannedUntil"`
}

// NotifySubmitRequest sends the notification dialog.
type NotifySubmitRequest struct {
	Category models.NotificationCategory `json:"category"`
	Message  string                      `json:"message"`
}
