package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/noah-isme/library-console/internal/models"
)

var errNetwork = errors.New("dial tcp: connection refused")

type mockLibrary struct {
	mu sync.Mutex

	categories    map[string]models.Category
	categoryErr   error
	categoryCalls int

	createResp *models.Student
	createErr  error
	updateResp *models.Student
	updateErr  error
	banResp    *models.Student
	banErr     error
	unbanResp  *models.Student
	unbanErr   error
	notifyResp *models.Notification
	notifyErr  error

	calls     []string
	lastDraft models.StudentDraft
	lastUntil time.Time
	lastNote  models.NotificationDraft
}

func (m *mockLibrary) record(call string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, call)
}

func (m *mockLibrary) GetCategory(ctx context.Context, id string) (*models.Category, error) {
	m.record("get_category")
	m.mu.Lock()
	m.categoryCalls++
	m.mu.Unlock()
	if m.categoryErr != nil {
		return nil, m.categoryErr
	}
	c, ok := m.categories[id]
	if !ok {
		return nil, errors.New("not found")
	}
	return &c, nil
}

func (m *mockLibrary) CreateStudent(ctx context.Context, draft models.StudentDraft) (*models.Student, error) {
	m.record("create")
	m.lastDraft = draft
	return m.createResp, m.createErr
}

func (m *mockLibrary) UpdateStudent(ctx context.Context, id string, draft models.StudentDraft) (*models.Student, error) {
	m.record("update")
	m.lastDraft = draft
	return m.updateResp, m.updateErr
}

func (m *mockLibrary) BanStudent(ctx context.Context, id string, until time.Time) (*models.Student, error) {
	m.record("ban")
	m.lastUntil = until
	return m.banResp, m.banErr
}

func (m *mockLibrary) UnbanStudent(ctx context.Context, id string) (*models.Student, error) {
	m.record("unban")
	return m.unbanResp, m.unbanErr
}

func (m *mockLibrary) CreateNotification(ctx context.Context, draft models.NotificationDraft) (*models.Notification, error) {
	m.record("notify")
	m.lastNote = draft
	return m.notifyResp, m.notifyErr
}
