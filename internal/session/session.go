// Package session binds one operator's roster store, view state and dialogs.
package session

import (
	"context"
	"sync"
	"time"

	"github.com/noah-isme/library-console/internal/dialog"
	"github.com/noah-isme/library-console/internal/models"
	"github.com/noah-isme/library-console/internal/query"
	"github.com/noah-isme/library-console/internal/roster"
	appErrors "github.com/noah-isme/library-console/pkg/errors"
)

// ViewState is what the operator is currently looking at.
type ViewState struct {
	Search  string             `json:"search"`
	Filters models.FilterState `json:"filters"`
	Page    int                `json:"page"`
}

// RosterPage is one rendered page of the visible roster.
type RosterPage struct {
	View       ViewState           `json:"view"`
	Items      []models.Student    `json:"items"`
	Pagination *models.Pagination  `json:"pagination"`
	Buttons    []models.PageButton `json:"buttons"`
	Selected   *models.Student     `json:"selected,omitempty"`
}

// Session is a single operator's console state.
type Session struct {
	ID        string
	CreatedAt time.Time

	Store  *roster.Store
	Ban    *dialog.BanDialog
	Notify *dialog.NotifyDialog
	Edit   *dialog.EditDialog
	Filter *dialog.FilterDialog

	pipeline *query.Pipeline
	pageSize int

	mu       sync.Mutex
	view     ViewState
	lastSeen time.Time
}

// View returns the current view state.
func (s *Session) View() ViewState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view
}

// SetSearch replaces the search text and returns to the first page.
func (s *Session) SetSearch(search string) ViewState {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.view.Search = search
	s.view.Page = 1
	return s.view
}

// ApplyFilters replaces the filters and returns to the first page.
func (s *Session) ApplyFilters(filters models.FilterState) ViewState {
	s.mu.Lock()
	defer s.mu.Unlock()
	if filters.Sort == "" {
		filters.Sort = models.SortName
	}
	s.view.Filters = filters
	s.view.Page = 1
	return s.view
}

// SetPage moves to page n. Pages past the end are allowed and render empty.
func (s *Session) SetPage(n int) (ViewState, error) {
	if n < 1 {
		return s.View(), appErrors.WithField(appErrors.ErrValidation, "page", "page must be at least 1")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.view.Page = n
	return s.view, nil
}

// Visible returns the filtered, ordered roster without paging.
func (s *Session) Visible() []models.Student {
	view := s.View()
	return s.pipeline.Apply(s.Store.Students(), view.Search, view.Filters)
}

// Render produces the current page of the visible roster.
func (s *Session) Render() RosterPage {
	view := s.View()
	snapshot := s.Store.Snapshot()
	visible := s.pipeline.Apply(snapshot.Students, view.Search, view.Filters)
	page := query.Paginate(visible, s.pageSize, view.Page)
	return RosterPage{
		View:       view,
		Items:      page.Items,
		Pagination: page.Pagination(),
		Buttons:    query.PageButtons(view.Page, page.TotalPages),
		Selected:   snapshot.Selected,
	}
}

// Student looks up a roster entry by ID.
func (s *Session) Student(id string) (models.Student, error) {
	student, ok := s.Store.Snapshot().Find(id)
	if !ok {
		return models.Student{}, appErrors.Clone(appErrors.ErrNotFound, "student not found")
	}
	return student, nil
}

// Select marks the student with id as the one being viewed.
func (s *Session) Select(id string) (models.Student, error) {
	student, err := s.Student(id)
	if err != nil {
		return models.Student{}, err
	}
	s.Store.Dispatch(roster.Selected(student))
	return student, nil
}

// Deselect clears the viewed student.
func (s *Session) Deselect() {
	s.Store.Dispatch(roster.Deselected())
}

// CloseDialogs discards every dialog's local input.
func (s *Session) CloseDialogs() {
	s.Ban.Close()
	s.Notify.Close()
	s.Edit.Close()
	s.Filter.Close()
}

// OpenBan opens the ban dialog for the student with id.
func (s *Session) OpenBan(ctx context.Context, id string) (dialog.BanView, error) {
	student, err := s.Student(id)
	if err != nil {
		return dialog.BanView{}, err
	}
	return s.Ban.Open(ctx, student), nil
}

// OpenNotify opens the notification dialog for the student with id.
func (s *Session) OpenNotify(id string) (dialog.NotifyView, error) {
	student, err := s.Student(id)
	if err != nil {
		return dialog.NotifyView{}, err
	}
	return s.Notify.Open(student), nil
}

// OpenEdit opens the edit dialog for the student with id.
func (s *Session) OpenEdit(id string) (dialog.EditView, error) {
	student, err := s.Student(id)
	if err != nil {
		return dialog.EditView{}, err
	}
	return s.Edit.OpenEdit(student), nil
}

// OpenFilter opens the filter dialog seeded with the applied filters.
func (s *Session) OpenFilter() dialog.FilterView {
	return s.Filter.Open(s.View().Filters)
}

// SubmitFilter applies the filter dialog's draft.
func (s *Session) SubmitFilter() (ViewState, error) {
	filters, err := s.Filter.Submit()
	if err != nil {
		return s.View(), err
	}
	return s.ApplyFilters(filters), nil
}

func (s *Session) touch(now time.Time) {
	s.mu.Lock()
	s.lastSeen = now
	s.mu.Unlock()
}

func (s *Session) idleSince() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeen
}

func (s *Session) resetPage() {
	s.mu.Lock()
	s.view.Page = 1
	s.mu.Unlock()
}
