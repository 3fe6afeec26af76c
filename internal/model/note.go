package model

import (
	"errors"
	"fmt"
	"time"
)

// Layouts used to persist the due date and time of a note.
const (
	DateLayout = "2006-01-02"
	TimeLayout = "15:04"
)

// ErrMalformedDue is returned when a stored due date or time cannot be parsed.
var ErrMalformedDue = errors.New("malformed due date or time")

// Note represents a timed note owned by a single user.
type Note struct {
	ID                  uint      `gorm:"primaryKey"`
	OwnerID             string    `gorm:"index;not null"`
	Text                string    `gorm:"type:text;not null"`
	Category            string    `gorm:"index"`
	DueDate             string    `gorm:"size:10;not null"`
	DueTime             string    `gorm:"size:5;not null"`
	Reminder24hSent     bool      `gorm:"column:reminder_24h_sent;not null;default:false"`
	Reminder1hSent      bool      `gorm:"column:reminder_1h_sent;not null;default:false"`
	Reminder24hFailures int       `gorm:"column:reminder_24h_failures;not null;default:0"`
	Reminder1hFailures  int       `gorm:"column:reminder_1h_failures;not null;default:0"`
	Completed           bool      `gorm:"not null;default:false"`
	CreatedAt           time.Time `gorm:"autoCreateTime"`
	UpdatedAt           time.Time `gorm:"autoUpdateTime"`
}

// DueAt combines DueDate and DueTime into an instant in loc.
func (n Note) DueAt(loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.Local
	}
	due, err := time.ParseInLocation(DateLayout+" "+TimeLayout, n.DueDate+" "+n.DueTime, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: note %d %q %q", ErrMalformedDue, n.ID, n.DueDate, n.DueTime)
	}
	return due, nil
}

// SetDue stores t as the note's due date and time, truncated to the minute.
func (n *Note) SetDue(t time.Time) {
	n.DueDate = t.Format(DateLayout)
	n.DueTime = t.Format(TimeLayout)
}

// FormatDue renders the due instant as stored.
func (n Note) FormatDue() string {
	return n.DueDate + " " + n.DueTime
}

// ReminderKind names one of the two reminder thresholds.
type ReminderKind string

const (
	Reminder24h ReminderKind = "24h"
	Reminder1h  ReminderKind = "1h"
)

// Lead returns how long before the due instant the reminder fires.
func (k ReminderKind) Lead() time.Duration {
	switch k {
	case Reminder24h:
		return 24 * time.Hour
	case Reminder1h:
		return time.Hour
	default:
		return 0
	}
}

// Valid reports whether k is a known reminder kind.
func (k ReminderKind) Valid() bool {
	return k == Reminder24h || k == Reminder1h
}

// SentColumn returns the column holding the sent flag for k.
func (k ReminderKind) SentColumn() string {
	return "reminder_" + string(k) + "_sent"
}

// FailuresColumn returns the column holding the delivery failure counter for k.
func (k ReminderKind) FailuresColumn() string {
	return "reminder_" + string(k) + "_failures"
}

// Sent reports whether the reminder of kind k was already delivered.
func (n Note) Sent(k ReminderKind) bool {
	switch k {
	case Reminder24h:
		return n.Reminder24hSent
	case Reminder1h:
		return n.Reminder1hSent
	default:
		return false
	}
}

// Failures returns the delivery failure count recorded for k.
func (n Note) Failures(k ReminderKind) int {
	switch k {
	case Reminder24h:
		return n.Reminder24hFailures
	case Reminder1h:
		return n.Reminder1hFailures
	default:
		return 0
	}
}
