package bot

import (
	"fmt"
	"strings"
	"time"

	"github.com/pathakanu/memobot/internal/model"
	"github.com/pathakanu/memobot/internal/session"
)

// PageSize is the number of notes shown per list page.
const PageSize = 10

const (
	msgFailure      = "Something went wrong on my side. Please try again in a moment."
	msgNotFound     = "I couldn't find that note."
	msgUnrecognised = "Sorry, I didn't get that. Send *add* to create a note or *help* to see what I can do."
	msgCancelled    = "Cancelled. Nothing was saved."
	shortTextLimit  = 25
)

func welcomeResponse() string {
	return "*Welcome!*\n\nWrite down a task, pick when it is due, and I'll remind you *24 hours* and *1 hour* before the deadline.\n\n" + mainMenu()
}

func mainMenu() string {
	return "What would you like to do?\n" +
		"- *add* to create a note\n" +
		"- *list* to see your notes\n" +
		"- *upcoming* for what is due next\n" +
		"- *help* for all commands"
}

func helpResponse() string {
	return "You can say things like:\n" +
		"- *add* to start a new note, *cancel* to abort\n" +
		"- *list* or *list 2* to page through your notes\n" +
		"- *view 3*, *edit 3*, *done 3*, *delete 3* to work with note 3\n" +
		"- *category shopping* to find notes by category\n" +
		"- *date 2026-10-21* to find notes due on a day\n" +
		"- *upcoming* for the next notes due"
}

// prompt asks for the input the session is waiting for.
func prompt(s session.Session, now time.Time) string {
	switch s.State {
	case session.AwaitingText:
		return "Send the text of your note. (*cancel* to abort)"
	case session.AwaitingCategory:
		return "Send a category for the note, or *-* for none."
	case session.AwaitingHour:
		return hoursMenu()
	case session.AwaitingMinute:
		return minutesMenu()
	case session.AwaitingDate:
		year, month := s.Draft.ViewYear, s.Draft.ViewMonth
		if year == 0 {
			year, month = now.Year(), now.Month()
		}
		return calendarMenu(year, month, now)
	case session.AwaitingEditText:
		return fmt.Sprintf("Send the new text for note #%d. (*cancel* to abort)", s.Draft.EditNoteID)
	default:
		return mainMenu()
	}
}

func hoursMenu() string {
	var sb strings.Builder
	sb.WriteString("Choose the hour:\n```\n")
	for row := 0; row < 24; row += 6 {
		for h := row; h < row+6; h++ {
			if h > row {
				sb.WriteByte(' ')
			}
			fmt.Fprintf(&sb, "%02d", h)
		}
		sb.WriteByte('\n')
	}
	sb.WriteString("```\nReply with the number, e.g. *14*.")
	return sb.String()
}

func minutesMenu() string {
	var sb strings.Builder
	sb.WriteString("Choose the minute:\n```\n")
	for row := 0; row < 60; row += 15 {
		for m := row; m < row+15; m += 5 {
			if m > row {
				sb.WriteByte(' ')
			}
			fmt.Fprintf(&sb, "%02d", m)
		}
		sb.WriteByte('\n')
	}
	sb.WriteString("```\nReply with the number, e.g. *30*.")
	return sb.String()
}

// calendarMenu renders one month with past days crossed out.
func calendarMenu(year int, month time.Month, now time.Time) string {
	loc := now.Location()
	first := time.Date(year, month, 1, 0, 0, 0, 0, loc)
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, loc)
	daysInMonth := first.AddDate(0, 1, -1).Day()
	// Monday first
	offset := (int(first.Weekday()) + 6) % 7

	var sb strings.Builder
	fmt.Fprintf(&sb, "Choose the day:\n```\n%s %d\nMo Tu We Th Fr Sa Su\n", month, year)
	col := 0
	for ; col < offset; col++ {
		sb.WriteString("   ")
	}
	for day := 1; day <= daysInMonth; day++ {
		if time.Date(year, month, day, 0, 0, 0, 0, loc).Before(today) {
			sb.WriteString(" x")
		} else {
			fmt.Fprintf(&sb, "%2d", day)
		}
		col++
		if col%7 == 0 || day == daysInMonth {
			sb.WriteByte('\n')
		} else {
			sb.WriteByte(' ')
		}
	}
	sb.WriteString("```\n")
	fmt.Fprintf(&sb, "Reply *day %04d-%02d-DD*, *today* or *tomorrow*. *prev* / *next* change the month.", year, int(month))
	return sb.String()
}

func savedResponse(n *model.Note) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Note saved: *%s*\n%q", n.FormatDue(), n.Text)
	if n.Category != "" {
		fmt.Fprintf(&sb, " in category %q", n.Category)
	}
	fmt.Fprintf(&sb, "\n\nSend *view %d* to open it, *add* for another one, or *list* to see all notes.", n.ID)
	return sb.String()
}

func shortText(text string) string {
	runes := []rune(text)
	if len(runes) <= shortTextLimit {
		return text
	}
	return string(runes[:shortTextLimit]) + "..."
}

func noteLine(n model.Note) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "#%d %s - %s", n.ID, n.FormatDue(), shortText(n.Text))
	if n.Category != "" {
		fmt.Fprintf(&sb, " [%s]", n.Category)
	}
	if n.Completed {
		sb.WriteString(" (done)")
	}
	return sb.String()
}

func noteLines(title string, list []model.Note) string {
	var sb strings.Builder
	sb.WriteString(title)
	sb.WriteByte('\n')
	for _, n := range list {
		sb.WriteString(noteLine(n))
		sb.WriteByte('\n')
	}
	sb.WriteString("\nSend *view N* to open a note.")
	return sb.String()
}

// listPage renders page (1-based) of list; out-of-range pages are clamped.
func listPage(list []model.Note, page int) string {
	if len(list) == 0 {
		return "You have no notes yet. Send *add* to create one."
	}
	total := (len(list) + PageSize - 1) / PageSize
	if page < 1 {
		page = 1
	}
	if page > total {
		page = total
	}
	start := (page - 1) * PageSize
	end := start + PageSize
	if end > len(list) {
		end = len(list)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Your notes (page %d of %d):\n", page, total)
	for _, n := range list[start:end] {
		sb.WriteString(noteLine(n))
		sb.WriteByte('\n')
	}
	sb.WriteByte('\n')
	var nav []string
	if page > 1 {
		nav = append(nav, fmt.Sprintf("*list %d* for the previous page", page-1))
	}
	if page < total {
		nav = append(nav, fmt.Sprintf("*list %d* for the next page", page+1))
	}
	if len(nav) > 0 {
		sb.WriteString("Send " + strings.Join(nav, ", ") + ".\n")
	}
	sb.WriteString("Send *view N* to open a note or *add* for a new one.")
	return sb.String()
}

func noteView(n model.Note) string {
	status := "open"
	if n.Completed {
		status = "completed"
	}
	category := n.Category
	if category == "" {
		category = "none"
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "*Note #%d*\n%s\n\n", n.ID, n.Text)
	fmt.Fprintf(&sb, "Due: %s\nCategory: %s\nStatus: %s\n", n.FormatDue(), category, status)
	fmt.Fprintf(&sb, "Reminders: 24h %s, 1h %s\n\n", sentLabel(n.Reminder24hSent), sentLabel(n.Reminder1hSent))
	fmt.Fprintf(&sb, "*edit %d* - change the text\n*done %d* - mark as completed\n*delete %d* - remove it\n*list* - back to the list", n.ID, n.ID, n.ID)
	return sb.String()
}

func sentLabel(sent bool) string {
	if sent {
		return "sent"
	}
	return "pending"
}
