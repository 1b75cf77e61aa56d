package dialog

import (
	"context"
	"sync"
	"time"

	"github.com/noah-isme/library-console/internal/models"
	"github.com/noah-isme/library-console/internal/roster"
	"github.com/noah-isme/library-console/pkg/datefmt"
	appErrors "github.com/noah-isme/library-console/pkg/errors"
)

// BanView is what the ban dialog shows. Dates are in calendar form.
type BanView struct {
	State         State            `json:"state"`
	Student       *models.Student  `json:"student,omitempty"`
	DefaultDays   int              `json:"defaultDays"`
	ProposedUntil string           `json:"proposedUntil,omitempty"`
	BannedUntil   string           `json:"bannedUntil"`
	MinDate       string           `json:"minDate,omitempty"`
	Error         *appErrors.Error `json:"error,omitempty"`
}

// BanDialog collects a ban end date for one student.
type BanDialog struct {
	mu sync.Mutex
	lifecycle

	mutator     Mutator
	newResolver func() BanDurationResolver
	now         func() time.Time

	student     models.Student
	defaultDays int
	proposed    time.Time
	chosen      time.Time
}

// NewBanDialog builds a closed ban dialog. newResolver is called on every
// open so that category lookups are cached per dialog instance only.
func NewBanDialog(mutator Mutator, newResolver func() BanDurationResolver, now func() time.Time) *BanDialog {
	if now == nil {
		now = time.Now
	}
	return &BanDialog{mutator: mutator, newResolver: newResolver, now: now}
}

// Open resolves the default ban length and proposes today + that many days.
// The lookup runs without the dialog lock; its result is dropped if the
// dialog was closed or reopened meanwhile.
func (d *BanDialog) Open(ctx context.Context, student models.Student) BanView {
	d.mu.Lock()
	d.open()
	gen := d.generation
	d.student = student
	d.defaultDays = 0
	d.proposed, d.chosen = time.Time{}, time.Time{}
	d.mu.Unlock()

	days := d.newResolver().DefaultBanDays(ctx, student)

	d.mu.Lock()
	defer d.mu.Unlock()
	if gen != d.generation {
		return d.viewLocked()
	}
	d.defaultDays = days
	d.proposed = datefmt.AddDays(d.now(), days)
	if d.chosen.IsZero() {
		d.chosen = d.proposed
	}
	return d.viewLocked()
}

// SetDate records the operator's chosen end date. An empty value clears it.
func (d *BanDialog) SetDate(raw string) (BanView, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.requireCollecting(); err != nil {
		return d.viewLocked(), err
	}
	if raw == "" {
		d.chosen = time.Time{}
		return d.viewLocked(), nil
	}
	chosen, err := datefmt.ParseDate(raw)
	if err != nil {
		appErr := appErrors.WithField(appErrors.ErrValidation, "bannedUntil", "invalid date")
		d.fail(appErr)
		return d.viewLocked(), appErr
	}
	d.chosen = chosen
	d.state = StateOpen
	d.err = nil
	return d.viewLocked(), nil
}

// Submit sends the ban. On success the dialog closes; on failure it stays
// open showing the error. The updated student is returned whenever the
// request succeeded, even if the dialog was closed in the meantime.
func (d *BanDialog) Submit(ctx context.Context, store *roster.Store) (*models.Student, BanView, error) {
	d.mu.Lock()
	gen, err := d.beginSubmit()
	if err != nil {
		view := d.viewLocked()
		d.mu.Unlock()
		return nil, view, err
	}
	student, chosen := d.student, d.chosen
	d.mu.Unlock()

	updated, err := d.mutator.Ban(detach(ctx), store, student, chosen)

	d.mu.Lock()
	defer d.mu.Unlock()
	d.finish(gen, err)
	return updated, d.viewLocked(), err
}

// Close discards the dialog's input.
func (d *BanDialog) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.close()
	d.student = models.Student{}
	d.defaultDays = 0
	d.proposed, d.chosen = time.Time{}, time.Time{}
}

// View returns the current dialog contents.
func (d *BanDialog) View() BanView {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.viewLocked()
}

func (d *BanDialog) viewLocked() BanView {
	view := BanView{State: d.state, Error: d.err}
	if d.state == StateClosed {
		return view
	}
	student := d.student
	view.Student = &student
	view.DefaultDays = d.defaultDays
	view.MinDate = datefmt.StartOfDay(d.now()).Format(datefmt.CalendarLayout)
	if !d.proposed.IsZero() {
		view.ProposedUntil = d.proposed.Format(datefmt.CalendarLayout)
	}
	if !d.chosen.IsZero() {
		view.BannedUntil = d.chosen.Format(datefmt.CalendarLayout)
	}
	return view
}
