package notes

import (
	"context"
	"time"

	"github.com/pathakanu/memobot/internal/model"
)

// DefaultUpcomingLimit is used by ListUpcoming when no positive limit is given.
const DefaultUpcomingLimit = 10

// Repository persists notes. Every method except Create, MarkReminderSent,
// RecordDeliveryFailure and DueForReminder is scoped by the owner id;
// notes of other owners behave as if they did not exist.
type Repository interface {
	Create(ctx context.Context, note *model.Note) (uint, error)
	Get(ctx context.Context, id uint, ownerID string) (model.Note, bool, error)
	List(ctx context.Context, ownerID string) ([]model.Note, error)
	ListByCategory(ctx context.Context, ownerID, category string) ([]model.Note, error)
	ListByDate(ctx context.Context, ownerID string, date time.Time) ([]model.Note, error)
	ListUpcoming(ctx context.Context, ownerID string, limit int) ([]model.Note, error)
	Delete(ctx context.Context, id uint, ownerID string) (bool, error)
	Edit(ctx context.Context, id uint, ownerID, text string) (bool, error)
	MarkComplete(ctx context.Context, id uint, ownerID string) (bool, error)

	MarkReminderSent(ctx context.Context, id uint, kind model.ReminderKind) error
	RecordDeliveryFailure(ctx context.Context, id uint, kind model.ReminderKind) error
	DueForReminder(ctx context.Context) ([]model.Note, error)
}
