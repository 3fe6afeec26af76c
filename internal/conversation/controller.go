package conversation

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/pathakanu/memobot/internal/model"
	"github.com/pathakanu/memobot/internal/notes"
	"github.com/pathakanu/memobot/internal/session"
)

// Controller drives the add-note and edit-note conversations, persisting
// sessions in a session.Store and finished notes in a notes.Repository.
type Controller struct {
	notes    notes.Repository
	sessions session.Store
	loc      *time.Location
	now      func() time.Time
	log      zerolog.Logger
}

// Option configures a Controller.
type Option func(*Controller)

// WithClock replaces the wall clock.
func WithClock(now func() time.Time) Option {
	return func(c *Controller) {
		c.now = now
	}
}

// NewController returns a controller interpreting dates in loc.
func NewController(repo notes.Repository, store session.Store, loc *time.Location, log zerolog.Logger, opts ...Option) *Controller {
	if loc == nil {
		loc = time.Local
	}
	c := &Controller{
		notes:    repo,
		sessions: store,
		loc:      loc,
		now:      time.Now,
		log:      log.With().Str("component", "conversation").Logger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Result describes what Handle did.
type Result struct {
	// Session is the user's session after the action.
	Session session.Session
	// Created is the note persisted by a completed add flow.
	Created *model.Note
	// Edited is set when an edit flow finished; EditFound reports whether the note still existed.
	Edited    *EditRequest
	EditFound bool
	Cancelled bool
}

// Session returns the current session of userID.
func (c *Controller) Session(ctx context.Context, userID string) (session.Session, error) {
	s, err := c.sessions.Load(ctx, userID)
	if err != nil {
		return session.Session{}, fmt.Errorf("load session: %w", err)
	}
	s.UserID = userID
	return s, nil
}

// Now returns the controller's current time in its location.
func (c *Controller) Now() time.Time {
	return c.now().In(c.loc)
}

// Handle applies one user action. Validation failures are returned as
// *notes.ValidationError with the session left as it was; the caller is
// expected to re-prompt. A note is only committed together with clearing
// the session: if Create fails the session is kept, and if clearing the
// session fails the created note is deleted again.
func (c *Controller) Handle(ctx context.Context, userID string, a Action) (Result, error) {
	s, err := c.Session(ctx, userID)
	if err != nil {
		return Result{}, err
	}

	if a.Kind == ActionEdit {
		if _, ok, err := c.notes.Get(ctx, a.NoteID, userID); err != nil {
			return Result{Session: s}, err
		} else if !ok {
			return Result{Session: s}, notes.ErrNotFound
		}
	}

	step, err := Transition(s, a, c.Now())
	if err != nil {
		if step.Session.State != s.State {
			// corrupt session, Transition already reset it
			if saveErr := c.sessions.Save(ctx, step.Session); saveErr != nil {
				c.log.Error().Err(saveErr).Str("user", userID).Msg("reset session")
			}
		}
		return Result{Session: step.Session}, err
	}

	res := Result{Session: step.Session, Cancelled: step.Cancelled}
	switch {
	case step.Commit != nil:
		if _, err := c.notes.Create(ctx, step.Commit); err != nil {
			return Result{Session: s}, err
		}
		res.Created = step.Commit
		c.log.Info().Str("user", userID).Uint("note", step.Commit.ID).Str("due", step.Commit.FormatDue()).Msg("note created")
	case step.Edit != nil:
		found, err := c.notes.Edit(ctx, step.Edit.NoteID, userID, step.Edit.Text)
		if err != nil {
			return Result{Session: s}, err
		}
		res.Edited = step.Edit
		res.EditFound = found
	}

	if err := c.sessions.Save(ctx, step.Session); err != nil {
		if res.Created != nil {
			// the session still awaits a date, so the note must go too
			if _, delErr := c.notes.Delete(ctx, res.Created.ID, userID); delErr != nil {
				c.log.Error().Err(delErr).Str("user", userID).Uint("note", res.Created.ID).Msg("undo note create")
			}
			return Result{Session: s}, fmt.Errorf("save session: %w", err)
		}
		return res, fmt.Errorf("save session: %w", err)
	}
	return res, nil
}
