package dialog

import (
	"context"
	"sync"

	"github.com/noah-isme/library-console/internal/models"
	appErrors "github.com/noah-isme/library-console/pkg/errors"
)

// NotifyView is what the notification dialog shows.
type NotifyView struct {
	State      State                         `json:"state"`
	Student    *models.Student               `json:"student,omitempty"`
	Category   models.NotificationCategory   `json:"category,omitempty"`
	Message    string                        `json:"message,omitempty"`
	Categories []models.NotificationCategory `json:"categories,omitempty"`
	Error      *appErrors.Error              `json:"error,omitempty"`
}

// NotifyDialog composes a notification for one student.
type NotifyDialog struct {
	mu sync.Mutex
	lifecycle

	mutator  Mutator
	student  models.Student
	category models.NotificationCategory
	message  string
}

// NewNotifyDialog builds a closed notification dialog.
func NewNotifyDialog(mutator Mutator) *NotifyDialog {
	return &NotifyDialog{mutator: mutator}
}

// Open starts composing for student with the general category selected.
func (d *NotifyDialog) Open(student models.Student) NotifyView {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.open()
	d.student = student
	d.category = models.NotificationGeneral
	d.message = ""
	return d.viewLocked()
}

// Submit sends category and message. Blank messages fail locally and leave
// the dialog open; a successful send closes it and returns the notification.
func (d *NotifyDialog) Submit(ctx context.Context, category models.NotificationCategory, message string) (*models.Notification, NotifyView, error) {
	d.mu.Lock()
	if category != "" {
		d.category = category
	}
	d.message = message
	gen, err := d.beginSubmit()
	if err != nil {
		view := d.viewLocked()
		d.mu.Unlock()
		return nil, view, err
	}
	student := d.student
	category, message = d.category, d.message
	d.mu.Unlock()

	notification, err := d.mutator.Notify(detach(ctx), student, category, message)

	d.mu.Lock()
	defer d.mu.Unlock()
	d.finish(gen, err)
	return notification, d.viewLocked(), err
}

// Close discards the draft.
func (d *NotifyDialog) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.close()
	d.student = models.Student{}
	d.category = ""
	d.message = ""
}

// View returns the current dialog contents.
func (d *NotifyDialog) View() NotifyView {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.viewLocked()
}

func (d *NotifyDialog) viewLocked() NotifyView {
	view := NotifyView{State: d.state, Error: d.err}
	if d.state == StateClosed {
		return view
	}
	student := d.student
	view.Student = &student
	view.Category = d.category
	view.Message = d.message
	view.Categories = models.NotificationCategories
	return view
}
