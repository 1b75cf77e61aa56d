package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/library-console/internal/dialog"
	"github.com/noah-isme/library-console/internal/middleware"
	"github.com/noah-isme/library-console/internal/models"
	"github.com/noah-isme/library-console/internal/roster"
	"github.com/noah-isme/library-console/internal/service"
	"github.com/noah-isme/library-console/internal/session"
	appErrors "github.com/noah-isme/library-console/pkg/errors"
)

type loaderStub struct {
	students []models.Student
	err      error
}

func (l *loaderStub) ListStudents(ctx context.Context) ([]models.Student, error) {
	return append([]models.Student(nil), l.students...), l.err
}

type mutatorMock struct {
	banErr      error
	createErr   error
	unbanErr    error
	lastDraft   models.StudentDraft
	notifyCalls int
	banCalls    int
	unbanCtxErr error
}

func (m *mutatorMock) Create(ctx context.Context, store *roster.Store, draft models.StudentDraft) (*models.Student, error) {
	m.lastDraft = draft
	if m.createErr != nil {
		return nil, m.createErr
	}
	s := models.Student{ID: "new-1", Name: draft.Name, StudentCode: draft.StudentCode}
	store.Dispatch(roster.Appended(s))
	return &s, nil
}

func (m *mutatorMock) Update(ctx context.Context, store *roster.Store, id string, draft models.StudentDraft) (*models.Student, error) {
	m.lastDraft = draft
	s := models.Student{ID: id, Name: draft.Name}
	store.Dispatch(roster.Upserted(s, store.Issue()))
	return &s, nil
}

func (m *mutatorMock) Ban(ctx context.Context, store *roster.Store, student models.Student, until time.Time) (*models.Student, error) {
	if until.IsZero() {
		return nil, appErrors.WithField(appErrors.ErrValidation, "bannedUntil", "ban end date is required")
	}
	m.banCalls++
	if m.banErr != nil {
		return nil, m.banErr
	}
	student.Banned = true
	store.Dispatch(roster.Upserted(student, store.Issue()))
	return &student, nil
}

func (m *mutatorMock) Unban(ctx context.Context, store *roster.Store, student models.Student) (*models.Student, error) {
	m.unbanCtxErr = ctx.Err()
	if m.unbanErr != nil {
		return nil, m.unbanErr
	}
	student.Banned = false
	store.Dispatch(roster.Upserted(student, store.Issue()))
	return &student, nil
}

func (m *mutatorMock) Notify(ctx context.Context, student models.Student, category models.NotificationCategory, message string) (*models.Notification, error) {
	if message == "" {
		return nil, appErrors.WithField(appErrors.ErrValidation, "message", "message cannot be empty")
	}
	m.notifyCalls++
	return &models.Notification{ID: "n-1", StudentID: student.ID, Category: category, Message: message}, nil
}

type days int

func (d days) DefaultBanDays(ctx context.Context, student models.Student) int { return int(d) }

func newSession(t *testing.T, mutator *mutatorMock, students ...models.Student) (*session.Manager, *session.Session) {
	t.Helper()
	manager := session.NewManager(&loaderStub{students: students}, session.Options{
		PageSize: 2,
		TTL:      time.Hour,
		Mutator:  mutator,
		Resolver: func() dialog.BanDurationResolver { return days(7) },
		Now:      func() time.Time { return time.Date(2026, 10, 15, 9, 0, 0, 0, time.UTC) },
	}, nil, nil)
	s, err := manager.Create(context.Background())
	require.NoError(t, err)
	return manager, s
}

func testContext(s *session.Session, method, target string, body []byte) (*gin.Context, *httptest.ResponseRecorder) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req := httptest.NewRequest(method, target, bytes.NewReader(body))
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	c.Request = req
	if s != nil {
		c.Set(middleware.ContextSessionKey, s)
	}
	return c, w
}

type envelope struct {
	Data       json.RawMessage        `json:"data"`
	Error      *appErrors.Error       `json:"error"`
	Pagination *models.Pagination     `json:"pagination"`
	Meta       map[string]interface{} `json:"meta"`
}

func decode(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	return env
}

var students = []models.Student{
	{ID: "1", Name: "Bob", StudentCode: "B1"},
	{ID: "2", Name: "Amy", StudentCode: "A1", Banned: true},
	{ID: "3", Name: "Cleo", StudentCode: "C1"},
}

func TestSessionHandlerCreate(t *testing.T) {
	manager := session.NewManager(&loaderStub{students: students}, session.Options{PageSize: 10}, nil, nil)
	h := NewSessionHandler(manager)

	c, w := testContext(nil, http.MethodPost, "/sessions", nil)
	h.Create(c)

	require.Equal(t, http.StatusCreated, w.Code)
	assert.NotEmpty(t, w.Header().Get("X-Console-Session"))
	assert.Equal(t, 1, manager.Len())
}

func TestSessionHandlerCreateUpstreamDown(t *testing.T) {
	manager := session.NewManager(&loaderStub{err: appErrors.Clone(appErrors.ErrUpstreamUnavailable, "library api unreachable")}, session.Options{}, nil, nil)
	h := NewSessionHandler(manager)

	c, w := testContext(nil, http.MethodPost, "/sessions", nil)
	h.Create(c)

	require.Equal(t, http.StatusBadGateway, w.Code)
	assert.True(t, decode(t, w).Error.Retryable)
}

func TestRosterViewRequiresSession(t *testing.T) {
	h := NewRosterHandler(&mutatorMock{}, nil)
	c, w := testContext(nil, http.MethodGet, "/roster", nil)
	h.View(c)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRosterViewAndUpdate(t *testing.T) {
	_, s := newSession(t, &mutatorMock{}, students...)
	h := NewRosterHandler(&mutatorMock{}, nil)

	c, w := testContext(s, http.MethodGet, "/roster", nil)
	h.View(c)
	require.Equal(t, http.StatusOK, w.Code)
	env := decode(t, w)
	assert.Equal(t, 2, env.Pagination.TotalPages)
	var page session.RosterPage
	require.NoError(t, json.Unmarshal(env.Data, &page))
	assert.Equal(t, "Amy", page.Items[0].Name)

	c, w = testContext(s, http.MethodPatch, "/roster/view", []byte(`{"page":2}`))
	h.UpdateView(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 2, s.View().Page)

	c, w = testContext(s, http.MethodPatch, "/roster/view", []byte(`{"filters":{"status":"active"}}`))
	h.UpdateView(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, s.View().Page)
	assert.Equal(t, 2, decode(t, w).Pagination.TotalCount)

	c, w = testContext(s, http.MethodPatch, "/roster/view", []byte(`{"filters":{"status":"zombie"}}`))
	h.UpdateView(c)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "status", decode(t, w).Error.Field)
}

func TestRosterSelectAndUnban(t *testing.T) {
	_, s := newSession(t, &mutatorMock{}, students...)
	h := NewRosterHandler(&mutatorMock{}, nil)

	c, w := testContext(s, http.MethodGet, "/students/2", nil)
	c.Params = gin.Params{{Key: "id", Value: "2"}}
	h.Select(c)
	require.Equal(t, http.StatusOK, w.Code)

	c, w = testContext(s, http.MethodPost, "/students/2/unban", nil)
	c.Params = gin.Params{{Key: "id", Value: "2"}}
	h.Unban(c)
	require.Equal(t, http.StatusOK, w.Code)

	selected := s.Store.Snapshot().Selected
	require.NotNil(t, selected)
	assert.False(t, selected.Banned)

	c, w = testContext(s, http.MethodPost, "/students/9/unban", nil)
	c.Params = gin.Params{{Key: "id", Value: "9"}}
	h.Unban(c)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRosterUnbanSurvivesCancelledRequest(t *testing.T) {
	mutator := &mutatorMock{}
	_, s := newSession(t, mutator, students...)
	h := NewRosterHandler(mutator, nil)

	c, w := testContext(s, http.MethodPost, "/students/2/unban", nil)
	ctx, cancel := context.WithCancel(c.Request.Context())
	cancel()
	c.Request = c.Request.WithContext(ctx)
	c.Params = gin.Params{{Key: "id", Value: "2"}}
	h.Unban(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.NoError(t, mutator.unbanCtxErr)
}

type exporterStub struct {
	students []models.Student
}

func (e *exporterStub) Export(students []models.Student, format string) (*service.ExportResult, error) {
	e.students = students
	return &service.ExportResult{Filename: "roster.csv", ContentType: "text/csv", Body: []byte("Name\n")}, nil
}

func TestRosterExportUsesVisibleRoster(t *testing.T) {
	_, s := newSession(t, &mutatorMock{}, students...)
	s.ApplyFilters(models.FilterState{Status: models.StatusActive})
	exporter := &exporterStub{}
	h := NewRosterHandler(&mutatorMock{}, exporter)

	c, w := testContext(s, http.MethodGet, "/roster/export?format=csv", nil)
	h.Export(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Disposition"), "roster.csv")
	require.Len(t, exporter.students, 2)
	assert.Equal(t, "Bob", exporter.students[0].Name)
}

func TestBanDialogFlow(t *testing.T) {
	mutator := &mutatorMock{}
	_, s := newSession(t, mutator, students...)
	h := NewDialogHandler()

	c, w := testContext(s, http.MethodPost, "/dialogs/ban", []byte(`{"studentId":"1"}`))
	h.OpenBan(c)
	require.Equal(t, http.StatusOK, w.Code)
	var view dialog.BanView
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &view))
	assert.Equal(t, "2026-10-22", view.BannedUntil)

	c, w = testContext(s, http.MethodPut, "/dialogs/ban", []byte(`{"bannedUntil":""}`))
	h.SetBanDate(c)
	require.Equal(t, http.StatusOK, w.Code)

	c, w = testContext(s, http.MethodPost, "/dialogs/ban/submit", nil)
	h.SubmitBan(c)
	require.Equal(t, http.StatusBadRequest, w.Code)
	env := decode(t, w)
	assert.Equal(t, "bannedUntil", env.Error.Field)
	assert.Contains(t, env.Meta, "dialog")
	assert.Equal(t, 0, mutator.banCalls)
	assert.Equal(t, dialog.StateError, s.Ban.View().State)

	c, w = testContext(s, http.MethodPut, "/dialogs/ban", []byte(`{"bannedUntil":"2026-10-20"}`))
	h.SetBanDate(c)
	require.Equal(t, http.StatusOK, w.Code)

	c, w = testContext(s, http.MethodPost, "/dialogs/ban/submit", nil)
	h.SubmitBan(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, dialog.StateClosed, s.Ban.View().State)
	st, err := s.Student("1")
	require.NoError(t, err)
	assert.True(t, st.Banned)
}

func TestNotifyDialogFlow(t *testing.T) {
	mutator := &mutatorMock{}
	_, s := newSession(t, mutator, students...)
	h := NewDialogHandler()

	c, w := testContext(s, http.MethodPost, "/dialogs/notify", []byte(`{}`))
	h.OpenNotify(c)
	require.Equal(t, http.StatusBadRequest, w.Code)

	c, w = testContext(s, http.MethodPost, "/dialogs/notify", []byte(`{"studentId":"3"}`))
	h.OpenNotify(c)
	require.Equal(t, http.StatusOK, w.Code)

	c, w = testContext(s, http.MethodPost, "/dialogs/notify/submit", []byte(`{"category":"overdue","message":""}`))
	h.SubmitNotify(c)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, dialog.StateError, s.Notify.View().State)

	c, w = testContext(s, http.MethodPost, "/dialogs/notify/submit", []byte(`{"category":"overdue","message":"Return the atlas"}`))
	h.SubmitNotify(c)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, 1, mutator.notifyCalls)
}

func TestEditDialogCreateConflictKeepsDialogOpen(t *testing.T) {
	mutator := &mutatorMock{createErr: appErrors.WithField(appErrors.ErrConflict, "email", "Email already registered")}
	_, s := newSession(t, mutator, students...)
	h := NewDialogHandler()

	c, w := testContext(s, http.MethodPost, "/dialogs/edit", nil)
	h.OpenEdit(c)
	require.Equal(t, http.StatusOK, w.Code)

	c, w = testContext(s, http.MethodPost, "/dialogs/edit/submit", []byte(`{"name":"Dana","studentId":"D1","email":"amy@example.com"}`))
	h.SubmitEdit(c)
	require.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "email", decode(t, w).Error.Field)
	assert.Equal(t, dialog.StateError, s.Edit.View().State)
	assert.Len(t, s.Store.Students(), 3)
}

func TestEditDialogMultipartCreate(t *testing.T) {
	mutator := &mutatorMock{}
	_, s := newSession(t, mutator, students...)
	h := NewDialogHandler()

	c, _ := testContext(s, http.MethodPost, "/dialogs/edit", nil)
	h.OpenEdit(c)

	body := &bytes.Buffer{}
	mw := multipart.NewWriter(body)
	require.NoError(t, mw.WriteField("name", "Dana"))
	require.NoError(t, mw.WriteField("studentId", "D1"))
	require.NoError(t, mw.WriteField("dateOfBirth", "2005-06-07"))
	part, err := mw.CreateFormFile("image", "dana.png")
	require.NoError(t, err)
	_, err = part.Write([]byte("png-bytes"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	c, w := testContext(s, http.MethodPost, "/dialogs/edit/submit", nil)
	c.Request = httptest.NewRequest(http.MethodPost, "/dialogs/edit/submit", body)
	c.Request.Header.Set("Content-Type", mw.FormDataContentType())
	h.SubmitEdit(c)

	require.Equal(t, http.StatusCreated, w.Code)
	require.NotNil(t, mutator.lastDraft.Image)
	assert.Equal(t, "dana.png", mutator.lastDraft.Image.Filename)
	assert.Equal(t, []byte("png-bytes"), mutator.lastDraft.Image.Content)
	assert.Equal(t, "07/06/2005", mutator.lastDraft.DateOfBirth)
	assert.Len(t, s.Store.Students(), 4)
}

func TestFilterDialogDraftAppliesOnSubmit(t *testing.T) {
	_, s := newSession(t, &mutatorMock{}, students...)
	h := NewDialogHandler()

	c, w := testContext(s, http.MethodPost, "/dialogs/filter", nil)
	h.OpenFilter(c)
	require.Equal(t, http.StatusOK, w.Code)

	c, w = testContext(s, http.MethodPut, "/dialogs/filter", []byte(`{"status":"banned","sort":"id_desc"}`))
	h.SetFilter(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, models.StatusAny, s.View().Filters.Status)

	c, w = testContext(s, http.MethodPost, "/dialogs/filter/submit", nil)
	h.SubmitFilter(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, models.FilterState{Status: models.StatusBanned, Sort: models.SortIDDesc}, s.View().Filters)
	assert.Equal(t, 1, decode(t, w).Pagination.TotalCount)

	c, w = testContext(s, http.MethodPost, "/dialogs/filter/submit", nil)
	h.SubmitFilter(c)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestMetricsHandlerReady(t *testing.T) {
	manager, _ := newSession(t, &mutatorMock{}, students...)
	h := NewMetricsHandler(nil, manager)

	c, w := testContext(nil, http.MethodGet, "/ready", nil)
	h.Ready(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ready","sessions":1}`, w.Body.String())

}

func TestCloseBanRespondsNoContent(t *testing.T) {
	_, s := newSession(t, &mutatorMock{}, students...)
	h := NewDialogHandler()

	c, w := testContext(s, http.MethodPost, "/dialogs/ban/close", nil)
	h.CloseBan(c)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, dialog.StateClosed, s.Ban.View().State)
}

func TestMetricsHandlerDisabledPrometheus(t *testing.T) {
	h := NewMetricsHandler(nil, nil)

	c, w := testContext(nil, http.MethodGet, "/metrics", nil)
	h.Prometheus(c)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.True(t, c.IsAborted())
}
