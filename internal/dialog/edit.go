package dialog

import (
	"context"
	"strings"
	"sync"

	"github.com/noah-isme/library-console/internal/models"
	"github.com/noah-isme/library-console/internal/roster"
	"github.com/noah-isme/library-console/pkg/datefmt"
	appErrors "github.com/noah-isme/library-console/pkg/errors"
)

// Mode tells whether the edit dialog creates or updates a student.
type Mode string

const (
	ModeCreate Mode = "create"
	ModeEdit   Mode = "edit"
)

// StudentForm holds the edit dialog's inputs. DateOfBirth is in calendar form.
type StudentForm struct {
	Name        string              `json:"name"`
	StudentCode string              `json:"studentId"`
	Email       string              `json:"email"`
	Phone       string              `json:"phone"`
	DateOfBirth string              `json:"dateOfBirth"`
	Category    string              `json:"category"`
	Image       *models.ImageUpload `json:"-"`
}

// FormFromStudent pre-populates a form. Dates the boundary cannot read are
// shown as stored so the operator can correct them.
func FormFromStudent(s models.Student) StudentForm {
	dob, err := datefmt.ToCalendar(s.DateOfBirth)
	if err != nil {
		dob = s.DateOfBirth
	}
	return StudentForm{
		Name:        s.Name,
		StudentCode: s.StudentCode,
		Email:       s.Email,
		Phone:       s.Phone,
		DateOfBirth: dob,
		Category:    s.CategoryValue(),
	}
}

// Draft converts the form into the API payload, translating the date of birth
// into storage form.
func (f StudentForm) Draft() (models.StudentDraft, error) {
	dob, err := datefmt.ToStorage(f.DateOfBirth)
	if err != nil {
		return models.StudentDraft{}, appErrors.WithField(appErrors.ErrValidation, "dateOfBirth", "invalid date of birth")
	}
	return models.StudentDraft{
		Name:        strings.TrimSpace(f.Name),
		StudentCode: strings.TrimSpace(f.StudentCode),
		Email:       strings.TrimSpace(f.Email),
		Phone:       strings.TrimSpace(f.Phone),
		DateOfBirth: dob,
		Category:    strings.TrimSpace(f.Category),
		Image:       f.Image,
	}, nil
}

// EditView is what the edit/create dialog shows.
type EditView struct {
	State     State            `json:"state"`
	Mode      Mode             `json:"mode,omitempty"`
	StudentID string           `json:"studentId,omitempty"`
	Form      *StudentForm     `json:"form,omitempty"`
	Error     *appErrors.Error `json:"error,omitempty"`
}

// EditDialog creates a new student or edits an existing one.
type EditDialog struct {
	mu sync.Mutex
	lifecycle

	mutator   Mutator
	defaults  StudentForm
	mode      Mode
	studentID string
	form      StudentForm
}

// NewEditDialog builds a closed edit dialog; defaults seed create mode.
func NewEditDialog(mutator Mutator, defaults StudentForm) *EditDialog {
	return &EditDialog{mutator: mutator, defaults: defaults}
}

// OpenCreate starts a blank create form.
func (d *EditDialog) OpenCreate() EditView {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.open()
	d.mode = ModeCreate
	d.studentID = ""
	d.form = d.defaults
	return d.viewLocked()
}

// OpenEdit starts editing student.
func (d *EditDialog) OpenEdit(student models.Student) EditView {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.open()
	d.mode = ModeEdit
	d.studentID = student.ID
	d.form = FormFromStudent(student)
	return d.viewLocked()
}

// Submit stores form and sends it. Field errors (bad date, uniqueness
// conflicts) leave the dialog open with the error attributed to the field.
func (d *EditDialog) Submit(ctx context.Context, store *roster.Store, form StudentForm) (*models.Student, EditView, error) {
	d.mu.Lock()
	if err := d.requireCollecting(); err != nil {
		view := d.viewLocked()
		d.mu.Unlock()
		return nil, view, err
	}
	d.form = form
	draft, err := form.Draft()
	if err != nil {
		d.fail(err)
		view := d.viewLocked()
		d.mu.Unlock()
		return nil, view, err
	}
	gen, err := d.beginSubmit()
	if err != nil {
		view := d.viewLocked()
		d.mu.Unlock()
		return nil, view, err
	}
	mode, id := d.mode, d.studentID
	d.mu.Unlock()

	var student *models.Student
	switch mode {
	case ModeEdit:
		student, err = d.mutator.Update(detach(ctx), store, id, draft)
	case ModeCreate:
		student, err = d.mutator.Create(detach(ctx), store, draft)
	default:
		err = appErrors.Clone(appErrors.ErrDialogState, "unknown dialog mode")
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	d.finish(gen, err)
	return student, d.viewLocked(), err
}

// Close discards all local edits.
func (d *EditDialog) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.close()
	d.mode = ""
	d.studentID = ""
	d.form = StudentForm{}
}

// View returns the current dialog contents.
func (d *EditDialog) View() EditView {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.viewLocked()
}

func (d *EditDialog) viewLocked() EditView {
	view := EditView{State: d.state, Error: d.err}
	if d.state == StateClosed {
		return view
	}
	form := d.form
	view.Mode = d.mode
	view.StudentID = d.studentID
	view.Form = &form
	return view
}
