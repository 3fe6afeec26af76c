package reminder

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/pathakanu/memobot/internal/model"
	"github.com/pathakanu/memobot/internal/notes"
)

// Notifier delivers a reminder message to a user.
type Notifier interface {
	Notify(ctx context.Context, userID, message string) error
}

// Summarizer shortens long note texts for reminder messages.
type Summarizer interface {
	SummarizeNote(ctx context.Context, text string) (string, error)
}

// summaryThreshold is the note length above which the Summarizer is consulted.
const summaryThreshold = 120

// Options configures a Scheduler.
type Options struct {
	// Interval between ticks. Defaults to one minute.
	Interval time.Duration
	// MaxAttempts caps delivery attempts per note and threshold. Zero retries forever.
	MaxAttempts int
	Location    *time.Location
	Now         func() time.Time
	Summarizer  Summarizer
	Logger      zerolog.Logger
}

// Scheduler periodically scans notes and sends 24h and 1h reminders.
// Only one Scheduler may run against a store: two instances would both send.
type Scheduler struct {
	notes      notes.Repository
	notifier   Notifier
	summarizer Summarizer
	interval   time.Duration
	maxAtt     int
	loc        *time.Location
	now        func() time.Time
	log        zerolog.Logger

	mu     sync.Mutex
	cron   *cron.Cron
	cancel context.CancelFunc
}

// TickReport summarises one tick.
type TickReport struct {
	Checked int
	Sent    int
	Failed  int
	Skipped int
}

// New returns a stopped scheduler.
func New(repo notes.Repository, notifier Notifier, opts Options) *Scheduler {
	if opts.Interval <= 0 {
		opts.Interval = time.Minute
	}
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Scheduler{
		notes:      repo,
		notifier:   notifier,
		summarizer: opts.Summarizer,
		interval:   opts.Interval,
		maxAtt:     opts.MaxAttempts,
		loc:        opts.Location,
		now:        opts.Now,
		log:        opts.Logger.With().Str("component", "reminder").Logger(),
	}
}

// Start registers the periodic tick and starts the cron loop. A tick that
// is still running when the next one is due makes the next one skip.
func (s *Scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cron != nil {
		return errors.New("reminder: scheduler already started")
	}

	cronLog := cron.PrintfLogger(&s.log)
	c := cron.New(
		cron.WithLocation(s.loc),
		cron.WithLogger(cronLog),
		cron.WithChain(cron.Recover(cronLog), cron.SkipIfStillRunning(cronLog)),
	)
	ctx, cancel := context.WithCancel(context.Background())
	if _, err := c.AddFunc(fmt.Sprintf("@every %s", s.interval), func() {
		s.Tick(ctx)
	}); err != nil {
		cancel()
		return fmt.Errorf("reminder: schedule: %w", err)
	}

	s.cron, s.cancel = c, cancel
	c.Start()
	s.log.Info().Dur("interval", s.interval).Msg("scheduler started")
	return nil
}

// Stop cancels the running tick, if any, and waits for it to return.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	c, cancel := s.cron, s.cancel
	s.cron, s.cancel = nil, nil
	s.mu.Unlock()
	if c == nil {
		return
	}

	cancel()
	<-c.Stop().Done()
	s.log.Info().Msg("scheduler stopped")
}

// Tick runs one scan over every note with an unsent reminder. Failures on
// one note never abort the others.
func (s *Scheduler) Tick(ctx context.Context) TickReport {
	var report TickReport

	due, err := s.notes.DueForReminder(ctx)
	if err != nil {
		s.log.Error().Err(err).Msg("fetch notes due for reminder")
		return report
	}
	now := s.now()

	for _, note := range due {
		if ctx.Err() != nil {
			s.log.Warn().Err(ctx.Err()).Msg("tick interrupted")
			break
		}
		report.Checked++

		kind, ok, err := Evaluate(note, now, s.loc)
		if err != nil {
			s.log.Error().Err(err).Uint("note", note.ID).Msg("skip note with malformed due date")
			report.Skipped++
			continue
		}
		if !ok {
			continue
		}
		if s.maxAtt > 0 && note.Failures(kind) >= s.maxAtt {
			s.log.Debug().Uint("note", note.ID).Str("kind", string(kind)).Msg("delivery attempts exhausted")
			report.Skipped++
			continue
		}

		if s.deliver(ctx, note, kind) {
			report.Sent++
		} else {
			report.Failed++
		}
	}

	if report.Sent > 0 || report.Failed > 0 || report.Skipped > 0 {
		s.log.Info().
			Int("checked", report.Checked).
			Int("sent", report.Sent).
			Int("failed", report.Failed).
			Int("skipped", report.Skipped).
			Msg("tick finished")
	}
	return report
}

// deliver sends the reminder and then marks it sent. The flag is only set
// after a successful send, so a failure is retried on the next tick.
func (s *Scheduler) deliver(ctx context.Context, note model.Note, kind model.ReminderKind) bool {
	log := s.log.With().Uint("note", note.ID).Str("user", note.OwnerID).Str("kind", string(kind)).Logger()

	if err := s.notifier.Notify(ctx, note.OwnerID, s.message(ctx, note, kind)); err != nil {
		log.Error().Err(err).Msg("send reminder")
		if err := s.notes.RecordDeliveryFailure(ctx, note.ID, kind); err != nil {
			log.Error().Err(err).Msg("record delivery failure")
		}
		return false
	}

	if err := s.notes.MarkReminderSent(ctx, note.ID, kind); err != nil {
		// the user got the message; the next tick may send it again
		log.Error().Err(err).Msg("mark reminder sent")
		return true
	}
	log.Info().Msg("reminder sent")
	return true
}

func (s *Scheduler) message(ctx context.Context, note model.Note, kind model.ReminderKind) string {
	text := note.Text
	if s.summarizer != nil && len(text) > summaryThreshold {
		if summary, err := s.summarizer.SummarizeNote(ctx, text); err != nil {
			s.log.Warn().Err(err).Uint("note", note.ID).Msg("summarise note")
		} else if strings.TrimSpace(summary) != "" {
			text = summary
		}
	}

	lead := "24 hours"
	if kind == model.Reminder1h {
		lead = "1 hour"
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Reminder (%s): %q", lead, text)
	if note.Category != "" {
		fmt.Fprintf(&sb, " in category %q", note.Category)
	}
	fmt.Fprintf(&sb, " is scheduled for %s.", note.FormatDue())
	return sb.String()
}
