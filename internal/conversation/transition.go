package conversation

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/pathakanu/memobot/internal/model"
	"github.com/pathakanu/memobot/internal/notes"
	"github.com/pathakanu/memobot/internal/session"
)

// ErrNoConversation is returned for free input while no conversation is in progress.
var ErrNoConversation = errors.New("no conversation in progress")

// Step is the outcome of a transition: the next session and at most one effect.
type Step struct {
	Session   session.Session
	Commit    *model.Note
	Edit      *EditRequest
	Cancelled bool
}

// EditRequest asks for the text of an existing note to be replaced.
type EditRequest struct {
	NoteID uint
	Text   string
}

// noCategory is what users send to skip the category step.
const noCategory = "-"

var dateLayouts = []string{model.DateLayout, "02-01-2006", "02.01.2006", "02/01/2006"}

// ParseDate reads a calendar day typed by the user.
func ParseDate(raw string, loc *time.Location) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	for _, layout := range dateLayouts {
		if d, err := time.ParseInLocation(layout, raw, loc); err == nil {
			return d, nil
		}
	}
	return time.Time{}, notes.Invalid("date", "expected a date like 2026-01-31 or 31.01.2026")
}

// Transition computes the next session for input a at instant now. It does
// no I/O. On error the returned step holds s unchanged.
func Transition(s session.Session, a Action, now time.Time) (Step, error) {
	switch a.Kind {
	case ActionStartAdd:
		return Step{Session: reset(s, session.AwaitingText)}, nil
	case ActionEdit:
		if a.NoteID == 0 {
			return Step{Session: s}, notes.Invalid("note", "unknown note")
		}
		next := reset(s, session.AwaitingEditText)
		next.Draft.EditNoteID = a.NoteID
		return Step{Session: next}, nil
	case ActionCancel:
		if !s.Active() {
			return Step{Session: s}, nil
		}
		return Step{Session: reset(s, session.Idle), Cancelled: true}, nil
	}

	next := s
	switch s.State {
	case session.Idle:
		return Step{Session: s}, ErrNoConversation

	case session.AwaitingText:
		text := strings.TrimSpace(a.Raw)
		if text == "" {
			return Step{Session: s}, notes.Invalid("text", "must not be empty")
		}
		next.State = session.AwaitingCategory
		next.Draft.Text = text

	case session.AwaitingCategory:
		next.State = session.AwaitingHour
		next.Draft.Category = strings.TrimSpace(a.Raw)
		if next.Draft.Category == noCategory {
			next.Draft.Category = ""
		}

	case session.AwaitingHour:
		h, err := numberInput(a, ActionSelectHour, "hour", 23)
		if err != nil {
			return Step{Session: s}, err
		}
		next.State = session.AwaitingMinute
		next.Draft.Hour = &h

	case session.AwaitingMinute:
		m, err := numberInput(a, ActionSelectMinute, "minute", 59)
		if err != nil {
			return Step{Session: s}, err
		}
		next.State = session.AwaitingDate
		next.Draft.Minute = &m
		next.Draft.ViewYear, next.Draft.ViewMonth = now.Year(), now.Month()

	case session.AwaitingDate:
		return dateStep(s, a, now)

	case session.AwaitingEditText:
		text := strings.TrimSpace(a.Raw)
		if text == "" {
			return Step{Session: s}, notes.Invalid("text", "must not be empty")
		}
		edit := &EditRequest{NoteID: s.Draft.EditNoteID, Text: text}
		return Step{Session: reset(s, session.Idle), Edit: edit}, nil

	default:
		return Step{Session: reset(s, session.Idle)}, notes.Invalid("state", "conversation was reset, please start again")
	}
	return Step{Session: next}, nil
}

func reset(s session.Session, state session.State) session.Session {
	return session.Session{UserID: s.UserID, State: state}
}

func numberInput(a Action, kind ActionKind, field string, max int) (int, error) {
	var v int
	switch a.Kind {
	case kind:
		v = a.Value
	case ActionText:
		n, err := strconv.Atoi(strings.TrimSpace(a.Raw))
		if err != nil {
			return 0, notes.Invalid(field, "expected a number from 0 to "+strconv.Itoa(max))
		}
		v = n
	default:
		return 0, notes.Invalid(field, "please choose a "+field)
	}
	if v < 0 || v > max {
		return 0, notes.Invalid(field, "expected a number from 0 to "+strconv.Itoa(max))
	}
	return v, nil
}

func dateStep(s session.Session, a Action, now time.Time) (Step, error) {
	loc := now.Location()
	var day time.Time

	switch a.Kind {
	case ActionPrevMonth, ActionNextMonth:
		next := s
		next.Draft.ViewYear, next.Draft.ViewMonth = shiftMonth(s, a, now)
		return Step{Session: next}, nil
	case ActionSelectDay:
		d, err := civilDate(a.Year, a.Month, a.Day, loc)
		if err != nil {
			return Step{Session: s}, err
		}
		day = d
	case ActionToday:
		day = now
	case ActionTomorrow:
		day = now.AddDate(0, 0, 1)
	case ActionText:
		d, err := ParseDate(a.Raw, loc)
		if err != nil {
			return Step{Session: s}, err
		}
		day = d
	default:
		return Step{Session: s}, notes.Invalid("date", "please choose a day")
	}

	if s.Draft.Hour == nil || s.Draft.Minute == nil {
		return Step{Session: reset(s, session.Idle)}, notes.Invalid("time", "conversation was reset, please start again")
	}
	due := time.Date(day.Year(), day.Month(), day.Day(), *s.Draft.Hour, *s.Draft.Minute, 0, 0, loc)
	if due.Before(now) {
		return Step{Session: s}, notes.Invalid("due", "is in the past, choose a later day")
	}

	note := &model.Note{
		OwnerID:  s.UserID,
		Text:     s.Draft.Text,
		Category: s.Draft.Category,
	}
	note.SetDue(due)
	return Step{Session: reset(s, session.Idle), Commit: note}, nil
}

func shiftMonth(s session.Session, a Action, now time.Time) (int, time.Month) {
	year, month := a.Year, a.Month
	if year == 0 || month < time.January || month > time.December {
		year, month = s.Draft.ViewYear, s.Draft.ViewMonth
	}
	if year == 0 || month < time.January || month > time.December {
		year, month = now.Year(), now.Month()
	}
	delta := 1
	if a.Kind == ActionPrevMonth {
		delta = -1
	}
	first := time.Date(year, month+time.Month(delta), 1, 0, 0, 0, 0, now.Location())
	return first.Year(), first.Month()
}

func civilDate(year int, month time.Month, day int, loc *time.Location) (time.Time, error) {
	t := time.Date(year, month, day, 0, 0, 0, 0, loc)
	if t.Year() != year || t.Month() != month || t.Day() != day {
		return time.Time{}, notes.Invalid("date", "no such day")
	}
	return t, nil
}
