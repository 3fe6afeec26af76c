package session

import (
	"context"
	"time"
)

// State is the step of the add-note conversation a user is in.
type State int

const (
	Idle State = iota
	AwaitingText
	AwaitingCategory
	AwaitingHour
	AwaitingMinute
	AwaitingDate
	AwaitingEditText
)

var stateNames = map[State]string{
	Idle:             "idle",
	AwaitingText:     "awaiting_text",
	AwaitingCategory: "awaiting_category",
	AwaitingHour:     "awaiting_hour",
	AwaitingMinute:   "awaiting_minute",
	AwaitingDate:     "awaiting_date",
	AwaitingEditText: "awaiting_edit_text",
}

func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return "unknown"
}

// AcceptsText reports whether the state consumes free text as its input.
func (s State) AcceptsText() bool {
	return s == AwaitingText || s == AwaitingCategory || s == AwaitingEditText
}

// Draft holds the fields collected so far. Which fields are meaningful
// depends on the session state: Text from AwaitingCategory on, Category
// from AwaitingHour, Hour from AwaitingMinute, Minute and the calendar
// page in AwaitingDate, EditNoteID in AwaitingEditText.
type Draft struct {
	Text       string     `json:"text,omitempty"`
	Category   string     `json:"category,omitempty"`
	Hour       *int       `json:"hour,omitempty"`
	Minute     *int       `json:"minute,omitempty"`
	ViewYear   int        `json:"view_year,omitempty"`
	ViewMonth  time.Month `json:"view_month,omitempty"`
	EditNoteID uint       `json:"edit_note_id,omitempty"`
}

// Session is the in-progress conversation of one user.
type Session struct {
	UserID    string    `json:"user_id"`
	State     State     `json:"state"`
	Draft     Draft     `json:"draft"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Active reports whether a conversation is in progress.
func (s Session) Active() bool {
	return s.State != Idle
}

// Store keeps at most one session per user. Saving overwrites whatever was
// stored before; concurrent writers for the same user race and the last
// write wins.
type Store interface {
	// Load returns the stored session, or an idle session when none exists.
	Load(ctx context.Context, userID string) (Session, error)
	Save(ctx context.Context, s Session) error
	Clear(ctx context.Context, userID string) error
}
