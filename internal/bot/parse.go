package bot

import (
	"strconv"
	"strings"
	"time"

	"github.com/pathakanu/memobot/internal/conversation"
)

// CommandKind identifies what an inbound message asks for.
type CommandKind int

const (
	// CmdConversation feeds Action into the conversation controller.
	CmdConversation CommandKind = iota
	CmdStart
	CmdHelp
	CmdView
	CmdDelete
	CmdComplete
	CmdList
	CmdCategory
	CmdDate
	CmdUpcoming
)

// Command is a parsed inbound message.
type Command struct {
	Kind     CommandKind
	Action   conversation.Action
	NoteID   uint
	Page     int
	Argument string
}

func converse(a conversation.Action, body string) Command {
	return Command{Kind: CmdConversation, Action: a.WithRaw(body)}
}

// ParseCommand turns message text into a command. Anything that is not a
// known command becomes conversation text.
func ParseCommand(body string) Command {
	body = strings.TrimSpace(body)
	fields := strings.Fields(body)
	if len(fields) == 0 {
		return converse(conversation.Text(body), body)
	}

	word := strings.TrimPrefix(strings.ToLower(fields[0]), "/")
	args := fields[1:]
	rest := strings.TrimSpace(body[len(fields[0]):])

	switch {
	case len(args) == 0:
		switch word {
		case "start", "menu":
			return Command{Kind: CmdStart}
		case "help":
			return Command{Kind: CmdHelp}
		case "add", "new":
			return converse(conversation.StartAdd(), body)
		case "cancel":
			return converse(conversation.Cancel(), body)
		case "today":
			return converse(conversation.Today(), body)
		case "tomorrow":
			return converse(conversation.Tomorrow(), body)
		case "prev":
			return converse(conversation.PrevMonth(0, 0), body)
		case "next":
			return converse(conversation.NextMonth(0, 0), body)
		case "list":
			return Command{Kind: CmdList, Page: 1}
		case "upcoming":
			return Command{Kind: CmdUpcoming}
		}

	case len(args) == 1:
		arg := args[0]
		switch word {
		case "hour":
			if n, err := strconv.Atoi(arg); err == nil {
				return converse(conversation.SelectHour(n), body)
			}
		case "minute", "min":
			if n, err := strconv.Atoi(arg); err == nil {
				return converse(conversation.SelectMinute(n), body)
			}
		case "day":
			if y, m, d, ok := splitDate(arg); ok {
				return converse(conversation.SelectDay(y, m, d), body)
			}
		case "prev", "next":
			if y, m, ok := splitMonth(arg); ok {
				if word == "prev" {
					return converse(conversation.PrevMonth(y, m), body)
				}
				return converse(conversation.NextMonth(y, m), body)
			}
		case "list":
			if n, err := strconv.Atoi(arg); err == nil && n > 0 {
				return Command{Kind: CmdList, Page: n}
			}
		case "date":
			return Command{Kind: CmdDate, Argument: arg}
		}
		if id, ok := noteID(arg); ok {
			switch word {
			case "view", "show":
				return Command{Kind: CmdView, NoteID: id}
			case "delete", "remove":
				return Command{Kind: CmdDelete, NoteID: id}
			case "edit":
				return converse(conversation.Edit(id), body)
			case "done", "complete":
				return Command{Kind: CmdComplete, NoteID: id}
			}
		}
	}

	if word == "category" && rest != "" {
		return Command{Kind: CmdCategory, Argument: rest}
	}
	return converse(conversation.Text(body), body)
}

func noteID(arg string) (uint, bool) {
	n, err := strconv.ParseUint(strings.TrimPrefix(arg, "#"), 10, 64)
	if err != nil || n == 0 {
		return 0, false
	}
	return uint(n), true
}

// splitDate reads YYYY-MM-DD without checking that the day exists.
func splitDate(arg string) (int, time.Month, int, bool) {
	parts := strings.Split(arg, "-")
	if len(parts) != 3 {
		return 0, 0, 0, false
	}
	nums := make([]int, 3)
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil {
			return 0, 0, 0, false
		}
		nums[i] = n
	}
	return nums[0], time.Month(nums[1]), nums[2], true
}

// splitMonth reads YYYY-MM.
func splitMonth(arg string) (int, time.Month, bool) {
	parts := strings.Split(arg, "-")
	if len(parts) != 2 {
		return 0, 0, false
	}
	y, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, 0, false
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || m < 1 || m > 12 {
		return 0, 0, false
	}
	return y, time.Month(m), true
}
