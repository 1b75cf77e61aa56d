package dialog

import (
	"sync"

	"github.com/noah-isme/library-console/internal/models"
	appErrors "github.com/noah-isme/library-console/pkg/errors"
)

// FilterView is what the filter dialog shows.
type FilterView struct {
	State State               `json:"state"`
	Draft *models.FilterState `json:"draft,omitempty"`
	Error *appErrors.Error    `json:"error,omitempty"`
}

// FilterDialog edits a draft FilterState that only takes effect on submit.
type FilterDialog struct {
	mu sync.Mutex
	lifecycle

	draft models.FilterState
}

// NewFilterDialog builds a closed filter dialog.
func NewFilterDialog() *FilterDialog {
	return &FilterDialog{}
}

// Open copies current into the draft.
func (d *FilterDialog) Open(current models.FilterState) FilterView {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.open()
	d.draft = current
	return d.viewLocked()
}

// Set replaces the draft.
func (d *FilterDialog) Set(draft models.FilterState) (FilterView, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.requireCollecting(); err != nil {
		return d.viewLocked(), err
	}
	d.draft = draft
	return d.viewLocked(), nil
}

// Submit closes the dialog and returns the draft for the caller to apply.
func (d *FilterDialog) Submit() (models.FilterState, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	gen, err := d.beginSubmit()
	if err != nil {
		return models.FilterState{}, err
	}
	draft := d.draft
	if draft.Sort == "" {
		draft.Sort = models.SortName
	}
	d.finish(gen, nil)
	d.draft = models.FilterState{}
	return draft, nil
}

// Close discards the draft.
func (d *FilterDialog) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.close()
	d.draft = models.FilterState{}
}

// View returns the current dialog contents.
func (d *FilterDialog) View() FilterView {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.viewLocked()
}

func (d *FilterDialog) viewLocked() FilterView {
	view := FilterView{State: d.state, Error: d.err}
	if d.state == StateClosed {
		return view
	}
	draft := d.draft
	view.Draft = &draft
	return view
}
