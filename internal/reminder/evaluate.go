package reminder

import (
	"fmt"
	"time"

	"github.com/pathakanu/memobot/internal/model"
)

// ParseError reports a note whose stored due instant cannot be read.
type ParseError struct {
	NoteID uint
	Err    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("note %d: %v", e.NoteID, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// Evaluate decides which reminder, if any, note is due for at now. The 24h
// reminder fires while 1h < remaining <= 24h, the 1h reminder while
// 0 < remaining <= 1h. At most one kind is returned and the 24h check wins.
func Evaluate(note model.Note, now time.Time, loc *time.Location) (model.ReminderKind, bool, error) {
	due, err := note.DueAt(loc)
	if err != nil {
		return "", false, &ParseError{NoteID: note.ID, Err: err}
	}
	remaining := due.Sub(now)

	switch {
	case !note.Reminder24hSent && remaining > model.Reminder1h.Lead() && remaining <= model.Reminder24h.Lead():
		return model.Reminder24h, true, nil
	case !note.Reminder1hSent && remaining > 0 && remaining <= model.Reminder1h.Lead():
		return model.Reminder1h, true, nil
	default:
		return "", false, nil
	}
}
