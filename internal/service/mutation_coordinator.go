package service

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/library-console/internal/models"
	"github.com/noah-isme/library-console/internal/roster"
	"github.com/noah-isme/library-console/pkg/datefmt"
	appErrors "github.com/noah-isme/library-console/pkg/errors"
)

type studentGateway interface {
	CreateStudent(ctx context.Context, draft models.StudentDraft) (*models.Student, error)
	UpdateStudent(ctx context.Context, id string, draft models.StudentDraft) (*models.Student, error)
	BanStudent(ctx context.Context, id string, until time.Time) (*models.Student, error)
	UnbanStudent(ctx context.Context, id string) (*models.Student, error)
	CreateNotification(ctx context.Context, draft models.NotificationDraft) (*models.Notification, error)
}

// Field names used when an error is attributed to a single input.
const (
	FieldEmail       = "email"
	FieldStudentCode = "studentId"
	FieldBannedUntil = "bannedUntil"
	FieldMessage     = "message"
	FieldCategory    = "category"
	FieldDateOfBirth = "dateOfBirth"
)

// MutationCoordinator sends roster mutations to the library API and
// reconciles the caller's store with the returned records. The store is
// always passed in by the owner; the coordinator keeps no roster state.
type MutationCoordinator struct {
	api       studentGateway
	validator *validator.Validate
	logger    *zap.Logger
	metrics   *MetricsService
	now       func() time.Time
}

// NewMutationCoordinator constructs the coordinator.
func NewMutationCoordinator(api studentGateway, validate *validator.Validate, logger *zap.Logger, metrics *MetricsService) *MutationCoordinator {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MutationCoordinator{api: api, validator: validate, logger: logger, metrics: metrics, now: time.Now}
}

// Create submits a new student and appends the persisted record.
func (m *MutationCoordinator) Create(ctx context.Context, store *roster.Store, draft models.StudentDraft) (*models.Student, error) {
	if err := m.validateDraft(draft); err != nil {
		m.metrics.RecordMutation("create", "rejected")
		return nil, err
	}
	student, err := m.api.CreateStudent(ctx, draft)
	if err != nil {
		return nil, m.fail("create", attributeConflict(err))
	}
	store.Dispatch(roster.Appended(*student))
	m.metrics.RecordMutation("create", "ok")
	m.logger.Info("student created", zap.String("student_id", student.ID))
	return student, nil
}

// Update replaces the editable fields of student id and reconciles the roster
// entry (and the selected student, if it is the same one).
func (m *MutationCoordinator) Update(ctx context.Context, store *roster.Store, id string, draft models.StudentDraft) (*models.Student, error) {
	if strings.TrimSpace(id) == "" {
		m.metrics.RecordMutation("update", "rejected")
		return nil, appErrors.Clone(appErrors.ErrValidation, "student id is required")
	}
	if err := m.validateDraft(draft); err != nil {
		m.metrics.RecordMutation("update", "rejected")
		return nil, err
	}
	ticket := store.Issue()
	student, err := m.api.UpdateStudent(ctx, id, draft)
	if err != nil {
		return nil, m.fail("update", attributeConflict(err))
	}
	m.reconcile(store, "update", *student, ticket)
	return student, nil
}

// Ban bans student until the end of the chosen calendar day, read in the
// console's local time. A zero date means none was chosen; it and any day
// before today are rejected before a request is made.
func (m *MutationCoordinator) Ban(ctx context.Context, store *roster.Store, student models.Student, until time.Time) (*models.Student, error) {
	if until.IsZero() {
		m.metrics.RecordMutation("ban", "rejected")
		return nil, appErrors.WithField(appErrors.ErrValidation, FieldBannedUntil, "ban end date is required")
	}
	now := m.now()
	y, mo, d := until.Date()
	chosen := time.Date(y, mo, d, 0, 0, 0, 0, now.Location())
	if chosen.Before(datefmt.StartOfDay(now)) {
		m.metrics.RecordMutation("ban", "rejected")
		return nil, appErrors.WithField(appErrors.ErrValidation, FieldBannedUntil, "ban end date cannot be before today")
	}
	end := datefmt.EndOfDay(chosen, now.Location())

	ticket := store.Issue()
	updated, err := m.api.BanStudent(ctx, student.ID, end)
	if err != nil {
		return nil, m.fail("ban", err)
	}
	m.reconcile(store, "ban", *updated, ticket)
	return updated, nil
}

// Unban lifts the ban on student.
func (m *MutationCoordinator) Unban(ctx context.Context, store *roster.Store, student models.Student) (*models.Student, error) {
	ticket := store.Issue()
	updated, err := m.api.UnbanStudent(ctx, student.ID)
	if err != nil {
		return nil, m.fail("unban", err)
	}
	m.reconcile(store, "unban", *updated, ticket)
	return updated, nil
}

// Notify sends a notification to student. Blank messages and unknown
// categories are rejected locally; server failures keep the server's message.
func (m *MutationCoordinator) Notify(ctx context.Context, student models.Student, category models.NotificationCategory, message string) (*models.Notification, error) {
	if strings.TrimSpace(message) == "" {
		m.metrics.RecordMutation("notify", "rejected")
		return nil, appErrors.WithField(appErrors.ErrValidation, FieldMessage, "message cannot be empty")
	}
	if !category.Valid() {
		m.metrics.RecordMutation("notify", "rejected")
		return nil, appErrors.WithField(appErrors.ErrValidation, FieldCategory, "unknown notification category")
	}
	notification, err := m.api.CreateNotification(ctx, models.NotificationDraft{
		StudentID: student.ID,
		Category:  category,
		Message:   message,
	})
	if err != nil {
		return nil, m.fail("notify", err)
	}
	m.metrics.RecordMutation("notify", "ok")
	return notification, nil
}

func (m *MutationCoordinator) reconcile(store *roster.Store, operation string, student models.Student, ticket uint64) {
	if !store.Dispatch(roster.Upserted(student, ticket)) {
		m.metrics.RecordStaleResponse()
		m.logger.Info("dropped stale mutation response",
			zap.String("operation", operation),
			zap.String("student_id", student.ID),
			zap.Uint64("ticket", ticket),
		)
	}
	m.metrics.RecordMutation(operation, "ok")
}

func (m *MutationCoordinator) fail(operation string, err error) error {
	appErr := appErrors.FromError(err)
	outcome := "failed"
	if appErr.Code == appErrors.ErrConflict.Code {
		outcome = "conflict"
	}
	m.metrics.RecordMutation(operation, outcome)
	m.logger.Warn("roster mutation failed",
		zap.String("operation", operation),
		zap.String("code", appErr.Code),
		zap.String("field", appErr.Field),
		zap.Error(err),
	)
	return err
}

func (m *MutationCoordinator) validateDraft(draft models.StudentDraft) error {
	if err := m.validator.Struct(draft); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
			field := jsonFieldName(fieldErrs[0].StructField())
			return appErrors.WithField(appErrors.ErrValidation, field, "invalid "+field)
		}
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid student payload")
	}
	if draft.DateOfBirth != "" {
		if _, err := datefmt.ParseDate(draft.DateOfBirth); err != nil {
			return appErrors.WithField(appErrors.ErrValidation, FieldDateOfBirth, "invalid date of birth")
		}
	}
	return nil
}

func jsonFieldName(structField string) string {
	switch structField {
	case "StudentCode":
		return FieldStudentCode
	case "DateOfBirth":
		return FieldDateOfBirth
	default:
		return strings.ToLower(structField[:1]) + structField[1:]
	}
}

var (
	conflictMarkers    = []string{"already", "exists", "in use", "taken", "duplicate", "unique"}
	studentCodeMarkers = []string{"studentid", "student id", "student_id", "student code", "student number"}
	studentCodeTokens  = []string{"id", "code"}
)

// attributeConflict maps uniqueness failures on email or student code to the
// offending field. Other errors pass through unchanged.
func attributeConflict(err error) error {
	appErr := appErrors.FromError(err)
	message := strings.ToLower(appErr.Message)
	if !containsAny(message, conflictMarkers) {
		return err
	}
	switch {
	case strings.Contains(message, "email"):
		return appErrors.WithField(appErrors.ErrConflict, FieldEmail, appErr.Message)
	case containsAny(message, studentCodeMarkers) || containsToken(message, studentCodeTokens):
		return appErrors.WithField(appErrors.ErrConflict, FieldStudentCode, appErr.Message)
	default:
		return err
	}
}

// containsToken reports whether any of tokens appears as a whole word in s.
func containsToken(s string, tokens []string) bool {
	words := strings.FieldsFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_'
	})
	for _, w := range words {
		for _, t := range tokens {
			if w == t {
				return true
			}
		}
	}
	return false
}

func containsAny(s string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(s, n) {
			return true
		}
	}
	return false
}
