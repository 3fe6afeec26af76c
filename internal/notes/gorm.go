package notes

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/pathakanu/memobot/internal/model"
)

// GormRepository stores notes through GORM.
type GormRepository struct {
	db  *gorm.DB
	loc *time.Location
	now func() time.Time
}

// Option configures a GormRepository.
type Option func(*GormRepository)

// WithClock replaces the wall clock used to reject past due instants and to
// select upcoming notes.
func WithClock(now func() time.Time) Option {
	return func(r *GormRepository) {
		r.now = now
	}
}

// NewGormRepository returns a repository that interprets due dates in loc.
func NewGormRepository(db *gorm.DB, loc *time.Location, opts ...Option) *GormRepository {
	if loc == nil {
		loc = time.Local
	}
	r := &GormRepository{db: db, loc: loc, now: time.Now}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Location returns the timezone due dates are interpreted in.
func (r *GormRepository) Location() *time.Location {
	return r.loc
}

// Create validates and inserts note, assigning its ID. Reminder flags and
// completion always start out false.
func (r *GormRepository) Create(ctx context.Context, note *model.Note) (uint, error) {
	if note == nil {
		return 0, Invalid("note", "missing")
	}
	if strings.TrimSpace(note.OwnerID) == "" {
		return 0, Invalid("owner", "must not be empty")
	}
	if strings.TrimSpace(note.Text) == "" {
		return 0, Invalid("text", "must not be empty")
	}
	due, err := note.DueAt(r.loc)
	if err != nil {
		return 0, Invalid("due", "expected a date like 2026-01-31 and a time like 09:30")
	}
	if due.Before(r.now()) {
		return 0, Invalid("due", "is in the past")
	}

	record := model.Note{
		OwnerID:  note.OwnerID,
		Text:     note.Text,
		Category: note.Category,
		DueDate:  note.DueDate,
		DueTime:  note.DueTime,
	}
	if err := r.db.WithContext(ctx).Create(&record).Error; err != nil {
		return 0, fmt.Errorf("create note: %w", err)
	}
	*note = record
	return record.ID, nil
}

// Get returns the note with id when it belongs to ownerID.
func (r *GormRepository) Get(ctx context.Context, id uint, ownerID string) (model.Note, bool, error) {
	var note model.Note
	err := r.db.WithContext(ctx).
		Where("id = ? AND owner_id = ?", id, ownerID).
		First(&note).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.Note{}, false, nil
	}
	if err != nil {
		return model.Note{}, false, fmt.Errorf("get note %d: %w", id, err)
	}
	return note, true, nil
}

// List returns all notes of ownerID ordered by due date and time.
func (r *GormRepository) List(ctx context.Context, ownerID string) ([]model.Note, error) {
	var notes []model.Note
	if err := r.db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Order("due_date ASC, due_time ASC, id ASC").
		Find(&notes).Error; err != nil {
		return nil, fmt.Errorf("list notes: %w", err)
	}
	return notes, nil
}

// ListByCategory returns the notes whose category matches, ignoring case and surrounding spaces.
func (r *GormRepository) ListByCategory(ctx context.Context, ownerID, category string) ([]model.Note, error) {
	want := strings.TrimSpace(category)
	return r.filter(ctx, ownerID, func(n model.Note) bool {
		return strings.EqualFold(strings.TrimSpace(n.Category), want)
	})
}

// ListByDate returns the notes due on the calendar day of date.
func (r *GormRepository) ListByDate(ctx context.Context, ownerID string, date time.Time) ([]model.Note, error) {
	day := date.Format(model.DateLayout)
	return r.filter(ctx, ownerID, func(n model.Note) bool {
		return n.DueDate == day
	})
}

// ListUpcoming returns at most limit notes that are not yet due.
func (r *GormRepository) ListUpcoming(ctx context.Context, ownerID string, limit int) ([]model.Note, error) {
	if limit <= 0 {
		limit = DefaultUpcomingLimit
	}
	now := r.now()
	upcoming, err := r.filter(ctx, ownerID, func(n model.Note) bool {
		due, err := n.DueAt(r.loc)
		return err == nil && !due.Before(now)
	})
	if err != nil {
		return nil, err
	}
	if len(upcoming) > limit {
		upcoming = upcoming[:limit]
	}
	return upcoming, nil
}

func (r *GormRepository) filter(ctx context.Context, ownerID string, keep func(model.Note) bool) ([]model.Note, error) {
	all, err := r.List(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	matched := make([]model.Note, 0, len(all))
	for _, n := range all {
		if keep(n) {
			matched = append(matched, n)
		}
	}
	return matched, nil
}

// Delete removes the note and reports whether a row matched both id and owner.
func (r *GormRepository) Delete(ctx context.Context, id uint, ownerID string) (bool, error) {
	res := r.db.WithContext(ctx).
		Where("id = ? AND owner_id = ?", id, ownerID).
		Delete(&model.Note{})
	if res.Error != nil {
		return false, fmt.Errorf("delete note %d: %w", id, res.Error)
	}
	return res.RowsAffected > 0, nil
}

// Edit replaces the text of the note. It reports false when the note does not exist for ownerID.
func (r *GormRepository) Edit(ctx context.Context, id uint, ownerID, text string) (bool, error) {
	if strings.TrimSpace(text) == "" {
		return false, Invalid("text", "must not be empty")
	}
	return r.update(ctx, id, ownerID, "text", text)
}

// MarkComplete flags the note as completed.
func (r *GormRepository) MarkComplete(ctx context.Context, id uint, ownerID string) (bool, error) {
	return r.update(ctx, id, ownerID, "completed", true)
}

func (r *GormRepository) update(ctx context.Context, id uint, ownerID, column string, value any) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&model.Note{}).
		Where("id = ? AND owner_id = ?", id, ownerID).
		Update(column, value)
	if res.Error != nil {
		return false, fmt.Errorf("update note %d %s: %w", id, column, res.Error)
	}
	return res.RowsAffected > 0, nil
}

// MarkReminderSent sets the sent flag for kind. Setting it twice, or on a
// note that no longer exists, is a no-op.
func (r *GormRepository) MarkReminderSent(ctx context.Context, id uint, kind model.ReminderKind) error {
	if !kind.Valid() {
		return fmt.Errorf("mark reminder sent: unknown kind %q", kind)
	}
	if err := r.db.WithContext(ctx).
		Model(&model.Note{}).
		Where("id = ?", id).
		Update(kind.SentColumn(), true).Error; err != nil {
		return fmt.Errorf("mark reminder %s sent for note %d: %w", kind, id, err)
	}
	return nil
}

// RecordDeliveryFailure increments the failure counter for kind.
func (r *GormRepository) RecordDeliveryFailure(ctx context.Context, id uint, kind model.ReminderKind) error {
	if !kind.Valid() {
		return fmt.Errorf("record delivery failure: unknown kind %q", kind)
	}
	column := kind.FailuresColumn()
	if err := r.db.WithContext(ctx).
		Model(&model.Note{}).
		Where("id = ?", id).
		Update(column, gorm.Expr(column+" + 1")).Error; err != nil {
		return fmt.Errorf("record %s failure for note %d: %w", kind, id, err)
	}
	return nil
}

// DueForReminder returns every note that still has a reminder to send.
func (r *GormRepository) DueForReminder(ctx context.Context) ([]model.Note, error) {
	var notes []model.Note
	if err := r.db.WithContext(ctx).
		Where("reminder_24h_sent = ? OR reminder_1h_sent = ?", false, false).
		Order("id ASC").
		Find(&notes).Error; err != nil {
		return nil, fmt.Errorf("notes due for reminder: %w", err)
	}
	return notes, nil
}
