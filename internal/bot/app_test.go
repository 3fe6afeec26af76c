package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pathakanu/memobot/internal/config"
	"github.com/pathakanu/memobot/internal/database"
	"github.com/pathakanu/memobot/internal/model"
	"github.com/pathakanu/memobot/internal/notes"
	myopenai "github.com/pathakanu/memobot/internal/openai"
	"github.com/pathakanu/memobot/internal/session"
)

var testNow = time.Date(2026, time.October, 19, 15, 20, 0, 0, time.UTC)

type recordingNotifier struct {
	mu       sync.Mutex
	messages []string
}

func (n *recordingNotifier) Notify(_ context.Context, userID, message string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.messages = append(n.messages, userID+": "+message)
	return nil
}

type stubClassifier struct {
	intent myopenai.Intent
	err    error
}

func (s stubClassifier) ClassifyIntent(context.Context, string) (myopenai.Intent, error) {
	return s.intent, s.err
}

type testApp struct {
	*App
	repo     *notes.GormRepository
	notifier *recordingNotifier
}

func newTestApp(t *testing.T, mutate ...func(*config.Config, *Deps)) testApp {
	t.Helper()

	name := strings.ReplaceAll(t.Name(), "/", "_")
	dsn := fmt.Sprintf("file:%s_%d?mode=memory&cache=shared", name, time.Now().UnixNano())
	db, err := database.Open("", dsn)
	require.NoError(t, err, "open sqlite memory")
	require.NoError(t, database.Migrate(db), "migrate")

	clock := func() time.Time { return testNow }
	repo := notes.NewGormRepository(db, time.UTC, notes.WithClock(clock))
	notifier := &recordingNotifier{}

	cfg := config.Defaults()
	cfg.LocalTimezone = time.UTC
	deps := Deps{
		Notes:    repo,
		Sessions: session.NewMemoryStore(0),
		Notifier: notifier,
		Now:      clock,
		Logger:   zerolog.Nop(),
		Ping: func(ctx context.Context) error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		},
	}
	for _, m := range mutate {
		m(cfg, &deps)
	}
	return testApp{App: New(cfg, deps), repo: repo, notifier: notifier}
}

func (a testApp) say(t *testing.T, user string, messages ...string) string {
	t.Helper()
	var reply string
	for _, m := range messages {
		reply = a.Reply(context.Background(), user, m)
	}
	return reply
}

func TestAddNoteConversation(t *testing.T) {
	t.Parallel()
	app := newTestApp(t)
	ctx := context.Background()

	assert.Contains(t, app.say(t, "alice", "add"), "Send the text of your note")
	assert.Contains(t, app.say(t, "alice", "Buy milk"), "Send a category")
	assert.Contains(t, app.say(t, "alice", "shopping"), "Choose the hour")
	assert.Contains(t, app.say(t, "alice", "10"), "Choose the minute")

	calendar := app.say(t, "alice", "minute 0")
	assert.Contains(t, calendar, "October 2026")
	assert.Contains(t, app.say(t, "alice", "next"), "November 2026")

	reply := app.say(t, "alice", "tomorrow")
	assert.Contains(t, reply, "Note saved: *2026-10-20 10:00*")
	assert.Contains(t, reply, `"Buy milk" in category "shopping"`)

	list, err := app.repo.List(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Buy milk", list[0].Text)
	assert.Equal(t, "shopping", list[0].Category)
}

func TestValidationRePrompts(t *testing.T) {
	t.Parallel()
	app := newTestApp(t)

	app.say(t, "alice", "add", "Dentist", "-")
	reply := app.say(t, "alice", "hour 24")
	assert.Contains(t, reply, "That didn't work: hour")
	assert.Contains(t, reply, "Choose the hour")

	app.say(t, "alice", "9", "30")
	reply = app.say(t, "alice", "today")
	assert.Contains(t, reply, "is in the past")
	assert.Contains(t, reply, "Choose the day")

	reply = app.say(t, "alice", "31.02.2027")
	assert.Contains(t, reply, "That didn't work")

	reply = app.say(t, "alice", "day 2026-10-22")
	assert.Contains(t, reply, "Note saved: *2026-10-22 09:30*")
	assert.NotContains(t, reply, "category")
}

func TestCancelLeavesNotesUnchanged(t *testing.T) {
	t.Parallel()
	app := newTestApp(t)
	ctx := context.Background()

	before, err := app.repo.List(ctx, "alice")
	require.NoError(t, err)

	app.say(t, "alice", "add", "Buy milk")
	reply := app.say(t, "alice", "cancel")
	assert.Contains(t, reply, msgCancelled)

	after, err := app.repo.List(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, before, after)

	assert.Equal(t, msgUnrecognised, app.say(t, "alice", "hello there"))
}

func TestCommandsAreTextWhileTyping(t *testing.T) {
	t.Parallel()
	app := newTestApp(t)

	app.say(t, "alice", "add")
	assert.Contains(t, app.say(t, "alice", "list"), "Send a category")
	assert.Contains(t, app.say(t, "alice", "help"), "Choose the hour")
	app.say(t, "alice", "8", "0")
	reply := app.say(t, "alice", "tomorrow")
	assert.Contains(t, reply, `"list" in category "help"`)
}

func TestNoteCommands(t *testing.T) {
	t.Parallel()
	app := newTestApp(t)
	ctx := context.Background()

	n := &model.Note{OwnerID: "alice", Text: "Pay rent", Category: "home"}
	n.SetDue(testNow.Add(26 * time.Hour))
	_, err := app.repo.Create(ctx, n)
	require.NoError(t, err)
	id := fmt.Sprint(n.ID)

	view := app.say(t, "alice", "view "+id)
	assert.Contains(t, view, "Pay rent")
	assert.Contains(t, view, "Status: open")
	assert.Contains(t, view, "Reminders: 24h pending, 1h pending")

	assert.Equal(t, msgNotFound, app.say(t, "bob", "view "+id))
	assert.Equal(t, msgNotFound, app.say(t, "bob", "edit "+id))
	assert.Equal(t, msgNotFound, app.say(t, "bob", "done "+id))
	assert.Contains(t, app.say(t, "bob", "delete "+id), "couldn't delete")

	assert.Contains(t, app.say(t, "alice", "edit "+id), "Send the new text for note #"+id)
	assert.Contains(t, app.say(t, "alice", "Pay rent today"), "updated")
	assert.Contains(t, app.say(t, "alice", "done "+id), "marked as completed")

	view = app.say(t, "alice", "view "+id)
	assert.Contains(t, view, "Pay rent today")
	assert.Contains(t, view, "Status: completed")

	assert.Contains(t, app.say(t, "alice", "category HOME"), "Pay rent today")
	assert.Contains(t, app.say(t, "alice", "category work"), `No notes in category "work"`)
	assert.Contains(t, app.say(t, "alice", "date 2026-10-20"), "Pay rent today")
	assert.Contains(t, app.say(t, "alice", "date 21.10.2026"), "No notes due on 2026-10-21")
	assert.Contains(t, app.say(t, "alice", "date someday"), "That didn't work")
	assert.Contains(t, app.say(t, "alice", "upcoming"), "Coming up next")

	assert.Contains(t, app.say(t, "alice", "delete "+id), "deleted")
	assert.Contains(t, app.say(t, "alice", "list"), "You have no notes yet")
}

func TestListPagination(t *testing.T) {
	t.Parallel()
	app := newTestApp(t)
	ctx := context.Background()

	for i := 0; i < 12; i++ {
		n := &model.Note{OwnerID: "alice", Text: fmt.Sprintf("task %02d", i)}
		n.SetDue(testNow.Add(time.Duration(i+1) * time.Hour))
		_, err := app.repo.Create(ctx, n)
		require.NoError(t, err)
	}

	first := app.say(t, "alice", "list")
	assert.Contains(t, first, "page 1 of 2")
	assert.Contains(t, first, "task 00")
	assert.Contains(t, first, "task 09")
	assert.NotContains(t, first, "task 10")
	assert.Contains(t, first, "*list 2* for the next page")

	second := app.say(t, "alice", "list 2")
	assert.Contains(t, second, "page 2 of 2")
	assert.Contains(t, second, "task 11")
	assert.Contains(t, second, "*list 1* for the previous page")

	assert.Contains(t, app.say(t, "alice", "list 9"), "page 2 of 2")
}

func TestUnrecognisedUsesClassifier(t *testing.T) {
	t.Parallel()

	app := newTestApp(t, func(_ *config.Config, d *Deps) {
		d.Classifier = stubClassifier{intent: myopenai.IntentAddNote}
	})
	assert.Contains(t, app.say(t, "alice", "I need to remember something"), "Send the text of your note")

	app = newTestApp(t, func(_ *config.Config, d *Deps) {
		d.Classifier = stubClassifier{intent: myopenai.IntentHelp}
	})
	assert.Equal(t, helpResponse(), app.say(t, "alice", "what can you do?"))

	app = newTestApp(t, func(_ *config.Config, d *Deps) {
		d.Classifier = stubClassifier{err: errors.New("rate limited")}
	})
	assert.Equal(t, msgUnrecognised, app.say(t, "alice", "blah"))
}

func TestRunRemindersUsesNotifier(t *testing.T) {
	t.Parallel()
	app := newTestApp(t)
	ctx := context.Background()

	n := &model.Note{OwnerID: "+15551234567", Text: "Standup"}
	n.SetDue(testNow.Add(45 * time.Minute))
	_, err := app.repo.Create(ctx, n)
	require.NoError(t, err)

	report := app.RunReminders(ctx)
	assert.Equal(t, 1, report.Sent)

	app.notifier.mu.Lock()
	defer app.notifier.mu.Unlock()
	require.Len(t, app.notifier.messages, 1)
	assert.True(t, strings.HasPrefix(app.notifier.messages[0], "+15551234567: Reminder (1 hour)"))
}

func TestSchedulerLifecycle(t *testing.T) {
	t.Parallel()
	app := newTestApp(t)

	require.NoError(t, app.StartScheduler())
	app.StopScheduler()
}
