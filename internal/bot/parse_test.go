package bot

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/pathakanu/memobot/internal/conversation"
)

func TestParseCommand(t *testing.T) {
	t.Parallel()

	cases := map[string]Command{
		"/start":           {Kind: CmdStart},
		"Menu":             {Kind: CmdStart},
		"help":             {Kind: CmdHelp},
		"list":             {Kind: CmdList, Page: 1},
		"list 3":           {Kind: CmdList, Page: 3},
		"upcoming":         {Kind: CmdUpcoming},
		"view 12":          {Kind: CmdView, NoteID: 12},
		"show #12":         {Kind: CmdView, NoteID: 12},
		"delete 4":         {Kind: CmdDelete, NoteID: 4},
		"done 5":           {Kind: CmdComplete, NoteID: 5},
		"complete 5":       {Kind: CmdComplete, NoteID: 5},
		"date 2026-10-21":  {Kind: CmdDate, Argument: "2026-10-21"},
		"category Home Ops": {Kind: CmdCategory, Argument: "Home Ops"},
	}
	for input, want := range cases {
		assert.Equalf(t, want, ParseCommand(input), "input %q", input)
	}
}

func TestParseConversationActions(t *testing.T) {
	t.Parallel()

	cases := map[string]conversation.Action{
		"add":             conversation.StartAdd(),
		"/new":            conversation.StartAdd(),
		"Cancel":          conversation.Cancel(),
		"today":           conversation.Today(),
		"tomorrow":        conversation.Tomorrow(),
		"prev":            conversation.PrevMonth(0, 0),
		"next 2026-12":    conversation.NextMonth(2026, time.December),
		"prev 2027-01":    conversation.PrevMonth(2027, time.January),
		"hour 14":         conversation.SelectHour(14),
		"minute 5":        conversation.SelectMinute(5),
		"min 55":          conversation.SelectMinute(55),
		"day 2026-10-21":  conversation.SelectDay(2026, time.October, 21),
		"edit 9":          conversation.Edit(9),
		"Buy milk":        conversation.Text("Buy milk"),
		"14":              conversation.Text("14"),
		"hour fourteen":   conversation.Text("hour fourteen"),
		"view 0":          conversation.Text("view 0"),
		"next 2026-13":    conversation.Text("next 2026-13"),
		"list of things":  conversation.Text("list of things"),
		"add milk please": conversation.Text("add milk please"),
	}
	for input, want := range cases {
		got := ParseCommand(input)
		assert.Equalf(t, CmdConversation, got.Kind, "input %q", input)
		assert.Equalf(t, want.WithRaw(input), got.Action, "input %q", input)
	}
}
