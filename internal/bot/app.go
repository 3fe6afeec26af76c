package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/pathakanu/memobot/internal/config"
	"github.com/pathakanu/memobot/internal/conversation"
	"github.com/pathakanu/memobot/internal/model"
	"github.com/pathakanu/memobot/internal/notes"
	myopenai "github.com/pathakanu/memobot/internal/openai"
	"github.com/pathakanu/memobot/internal/reminder"
	"github.com/pathakanu/memobot/internal/session"
)

// IntentClassifier guesses what an idle user's free text asks for.
type IntentClassifier interface {
	ClassifyIntent(ctx context.Context, content string) (myopenai.Intent, error)
}

// RequestValidator verifies that a webhook call really comes from Twilio.
type RequestValidator interface {
	ValidRequest(url string, params map[string]string, signature string) bool
}

// Deps are the collaborators the application is assembled from.
type Deps struct {
	Notes      notes.Repository
	Sessions   session.Store
	Notifier   reminder.Notifier
	Classifier IntentClassifier
	Summarizer reminder.Summarizer
	// Validator is consulted only when signature validation is enabled.
	Validator RequestValidator
	// Ping reports store health for /healthz.
	Ping   func(context.Context) error
	Now    func() time.Time
	Logger zerolog.Logger
}

// App is the application context: it owns the note repository, the session
// store and the notifier, and wires them into the conversation controller
// and the reminder scheduler.
type App struct {
	cfg        *config.Config
	notes      notes.Repository
	controller *conversation.Controller
	scheduler  *reminder.Scheduler
	classifier IntentClassifier
	validator  RequestValidator
	ping       func(context.Context) error
	log        zerolog.Logger
}

// New creates a fully configured App.
func New(cfg *config.Config, deps Deps) *App {
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	log := deps.Logger.With().Str("component", "bot").Logger()

	var validator RequestValidator
	if cfg.TwilioValidateSignature {
		validator = deps.Validator
	}

	return &App{
		cfg:   cfg,
		notes: deps.Notes,
		controller: conversation.NewController(deps.Notes, deps.Sessions, cfg.LocalTimezone, deps.Logger,
			conversation.WithClock(now)),
		scheduler: reminder.New(deps.Notes, deps.Notifier, reminder.Options{
			Interval:    cfg.ReminderInterval,
			MaxAttempts: cfg.ReminderMaxAttempts,
			Location:    cfg.LocalTimezone,
			Now:         now,
			Summarizer:  deps.Summarizer,
			Logger:      deps.Logger,
		}),
		classifier: deps.Classifier,
		validator:  validator,
		ping:       deps.Ping,
		log:        log,
	}
}

// StartScheduler starts the periodic reminder scan.
func (a *App) StartScheduler() error {
	return a.scheduler.Start()
}

// StopScheduler stops the reminder scan and waits for a running tick.
func (a *App) StopScheduler() {
	a.scheduler.Stop()
}

// RunReminders performs a single reminder scan.
func (a *App) RunReminders(ctx context.Context) reminder.TickReport {
	return a.scheduler.Tick(ctx)
}

// Reply handles one inbound message from userID and returns the text to send back.
func (a *App) Reply(ctx context.Context, userID, body string) string {
	cmd := ParseCommand(body)

	s, err := a.controller.Session(ctx, userID)
	if err != nil {
		a.log.Error().Err(err).Str("user", userID).Msg("load session")
		return msgFailure
	}
	// while a free-text answer is expected only cancel escapes
	if s.State.AcceptsText() && !(cmd.Kind == CmdConversation && cmd.Action.Kind == conversation.ActionCancel) {
		cmd = converse(conversation.Text(body), body)
	}

	switch cmd.Kind {
	case CmdStart:
		return welcomeResponse()
	case CmdHelp:
		return helpResponse()
	case CmdView:
		return a.viewNote(ctx, userID, cmd.NoteID)
	case CmdDelete:
		return a.deleteNote(ctx, userID, cmd.NoteID)
	case CmdComplete:
		return a.completeNote(ctx, userID, cmd.NoteID)
	case CmdList:
		return a.listNotes(ctx, userID, cmd.Page)
	case CmdCategory:
		return a.notesByCategory(ctx, userID, cmd.Argument)
	case CmdDate:
		return a.notesByDate(ctx, userID, cmd.Argument)
	case CmdUpcoming:
		return a.upcomingNotes(ctx, userID)
	default:
		return a.converse(ctx, userID, cmd.Action)
	}
}

func (a *App) converse(ctx context.Context, userID string, action conversation.Action) string {
	res, err := a.controller.Handle(ctx, userID, action)

	var verr *notes.ValidationError
	switch {
	case errors.Is(err, conversation.ErrNoConversation):
		return a.unrecognised(ctx, userID, action.Raw)
	case errors.As(err, &verr):
		return fmt.Sprintf("That didn't work: %s.\n\n%s", verr.Error(), prompt(res.Session, a.controller.Now()))
	case errors.Is(err, notes.ErrNotFound):
		return msgNotFound
	case err != nil:
		a.log.Error().Err(err).Str("user", userID).Msg("conversation")
		return msgFailure
	}

	switch {
	case res.Created != nil:
		return savedResponse(res.Created)
	case res.Edited != nil && res.EditFound:
		return fmt.Sprintf("Note #%d updated.\n\n%s", res.Edited.NoteID, mainMenu())
	case res.Edited != nil:
		return msgNotFound
	case res.Cancelled:
		return msgCancelled + "\n\n" + mainMenu()
	}
	return prompt(res.Session, a.controller.Now())
}

// unrecognised handles free text outside a conversation, asking the
// classifier when one is configured.
func (a *App) unrecognised(ctx context.Context, userID, body string) string {
	if a.classifier == nil || strings.TrimSpace(body) == "" {
		return msgUnrecognised
	}

	intent, err := a.classifier.ClassifyIntent(ctx, body)
	if err != nil {
		if !errors.Is(err, myopenai.ErrClientNotInitialised) {
			a.log.Warn().Err(err).Msg("intent classification")
		}
		return msgUnrecognised
	}

	switch intent {
	case myopenai.IntentAddNote:
		return a.converse(ctx, userID, conversation.StartAdd())
	case myopenai.IntentListNotes:
		return a.listNotes(ctx, userID, 1)
	case myopenai.IntentUpcoming:
		return a.upcomingNotes(ctx, userID)
	case myopenai.IntentHelp:
		return helpResponse()
	default:
		return msgUnrecognised
	}
}

func (a *App) viewNote(ctx context.Context, userID string, id uint) string {
	note, ok, err := a.notes.Get(ctx, id, userID)
	if err != nil {
		a.log.Error().Err(err).Uint("note", id).Msg("view note")
		return msgFailure
	}
	if !ok {
		return msgNotFound
	}
	return noteView(note)
}

func (a *App) deleteNote(ctx context.Context, userID string, id uint) string {
	deleted, err := a.notes.Delete(ctx, id, userID)
	if err != nil {
		a.log.Error().Err(err).Uint("note", id).Msg("delete note")
		return msgFailure
	}
	if !deleted {
		return "I couldn't delete that note."
	}
	return fmt.Sprintf("Note #%d deleted. Send *list* to see the rest.", id)
}

func (a *App) completeNote(ctx context.Context, userID string, id uint) string {
	done, err := a.notes.MarkComplete(ctx, id, userID)
	if err != nil {
		a.log.Error().Err(err).Uint("note", id).Msg("complete note")
		return msgFailure
	}
	if !done {
		return msgNotFound
	}
	return fmt.Sprintf("Note #%d marked as completed.", id)
}

func (a *App) listNotes(ctx context.Context, userID string, page int) string {
	list, err := a.notes.List(ctx, userID)
	if err != nil {
		a.log.Error().Err(err).Msg("list notes")
		return msgFailure
	}
	return listPage(list, page)
}

func (a *App) notesByCategory(ctx context.Context, userID, category string) string {
	list, err := a.notes.ListByCategory(ctx, userID, category)
	if err != nil {
		a.log.Error().Err(err).Msg("list notes by category")
		return msgFailure
	}
	if len(list) == 0 {
		return fmt.Sprintf("No notes in category %q.", category)
	}
	return noteLines(fmt.Sprintf("Notes in category %q:", category), list)
}

func (a *App) notesByDate(ctx context.Context, userID, raw string) string {
	day, err := conversation.ParseDate(raw, a.cfg.LocalTimezone)
	if err != nil {
		return fmt.Sprintf("That didn't work: %s.", err)
	}
	list, err := a.notes.ListByDate(ctx, userID, day)
	if err != nil {
		a.log.Error().Err(err).Msg("list notes by date")
		return msgFailure
	}
	label := day.Format(model.DateLayout)
	if len(list) == 0 {
		return fmt.Sprintf("No notes due on %s.", label)
	}
	return noteLines(fmt.Sprintf("Notes due on %s:", label), list)
}

func (a *App) upcomingNotes(ctx context.Context, userID string) string {
	list, err := a.notes.ListUpcoming(ctx, userID, notes.DefaultUpcomingLimit)
	if err != nil {
		a.log.Error().Err(err).Msg("list upcoming notes")
		return msgFailure
	}
	if len(list) == 0 {
		return "Nothing coming up. Send *add* to create a note."
	}
	return noteLines("Coming up next:", list)
}
