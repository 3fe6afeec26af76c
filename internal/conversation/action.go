package conversation

import "time"

// ActionKind identifies a user input the conversation understands.
type ActionKind int

const (
	ActionText ActionKind = iota
	ActionStartAdd
	ActionCancel
	ActionSelectHour
	ActionSelectMinute
	ActionSelectDay
	ActionToday
	ActionTomorrow
	ActionPrevMonth
	ActionNextMonth
	ActionEdit
)

// Action is one discrete user input. Raw always carries the message as the
// user sent it, so states that expect free text can read any action as text.
type Action struct {
	Kind   ActionKind
	Raw    string
	Value  int
	Year   int
	Month  time.Month
	Day    int
	NoteID uint
}

func Text(raw string) Action { return Action{Kind: ActionText, Raw: raw} }

func StartAdd() Action { return Action{Kind: ActionStartAdd} }

func Cancel() Action { return Action{Kind: ActionCancel} }

func SelectHour(h int) Action { return Action{Kind: ActionSelectHour, Value: h} }

func SelectMinute(m int) Action { return Action{Kind: ActionSelectMinute, Value: m} }

func SelectDay(year int, month time.Month, day int) Action {
	return Action{Kind: ActionSelectDay, Year: year, Month: month, Day: day}
}

func Today() Action { return Action{Kind: ActionToday} }

func Tomorrow() Action { return Action{Kind: ActionTomorrow} }

// PrevMonth moves the calendar one month back from year/month. A zero year
// means the month currently shown.
func PrevMonth(year int, month time.Month) Action {
	return Action{Kind: ActionPrevMonth, Year: year, Month: month}
}

// NextMonth moves the calendar one month forward from year/month.
func NextMonth(year int, month time.Month) Action {
	return Action{Kind: ActionNextMonth, Year: year, Month: month}
}

func Edit(noteID uint) Action { return Action{Kind: ActionEdit, NoteID: noteID} }

// WithRaw returns a copy of a carrying raw as the text the user sent.
func (a Action) WithRaw(raw string) Action {
	a.Raw = raw
	return a
}
