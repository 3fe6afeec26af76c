package model

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDueAt(t *testing.T) {
	t.Parallel()

	loc, err := time.LoadLocation("Europe/Moscow")
	require.NoError(t, err)

	n := Note{DueDate: "2026-10-20", DueTime: "09:05"}
	due, err := n.DueAt(loc)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, time.October, 20, 9, 5, 0, 0, loc), due)
}

func TestDueAtMalformed(t *testing.T) {
	t.Parallel()

	for _, n := range []Note{
		{DueDate: "20-10-2026", DueTime: "09:05"},
		{DueDate: "2026-10-20", DueTime: "9h"},
		{DueDate: "2026-02-31", DueTime: "10:00"},
		{},
	} {
		_, err := n.DueAt(time.UTC)
		assert.Truef(t, errors.Is(err, ErrMalformedDue), "%q %q: %v", n.DueDate, n.DueTime, err)
	}
}

func TestSetDueRoundTrip(t *testing.T) {
	t.Parallel()

	want := time.Date(2026, time.January, 2, 3, 4, 0, 0, time.UTC)
	var n Note
	n.SetDue(want)
	assert.Equal(t, "2026-01-02", n.DueDate)
	assert.Equal(t, "03:04", n.DueTime)

	got, err := n.DueAt(time.UTC)
	require.NoError(t, err)
	assert.True(t, want.Equal(got))
}

func TestReminderKind(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 24*time.Hour, Reminder24h.Lead())
	assert.Equal(t, time.Hour, Reminder1h.Lead())
	assert.Equal(t, "reminder_24h_sent", Reminder24h.SentColumn())
	assert.Equal(t, "reminder_1h_failures", Reminder1h.FailuresColumn())
	assert.False(t, ReminderKind("2h").Valid())

	n := Note{Reminder1hSent: true, Reminder24hFailures: 3}
	assert.True(t, n.Sent(Reminder1h))
	assert.False(t, n.Sent(Reminder24h))
	assert.Equal(t, 3, n.Failures(Reminder24h))
}
