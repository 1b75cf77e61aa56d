package dialog

import (
	"context"
	"time"

	"github.com/noah-isme/library-console/internal/models"
	"github.com/noah-isme/library-console/internal/roster"
)

// Mutator is the subset of the mutation coordinator the dialogs submit through.
type Mutator interface {
	Create(ctx context.Context, store *roster.Store, draft models.StudentDraft) (*models.Student, error)
	Update(ctx context.Context, store *roster.Store, id string, draft models.StudentDraft) (*models.Student, error)
	Ban(ctx context.Context, store *roster.Store, student models.Student, until time.Time) (*models.Student, error)
	Notify(ctx context.Context, student models.Student, category models.NotificationCategory, message string) (*models.Notification, error)
}

// BanDurationResolver supplies the default ban length for a student.
type BanDurationResolver interface {
	DefaultBanDays(ctx context.Context, student models.Student) int
}

// detach keeps a submit running to completion even if the HTTP request that
// started it goes away.
func detach(ctx context.Context) context.Context {
	return context.WithoutCancel(ctx)
}
