package openai

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSummarizeNoteFallback(t *testing.T) {
	t.Parallel()
	client := New("")
	ctx := context.Background()

	content := strings.Repeat("Купить молоко и хлеб. ", 10)
	summary, err := client.SummarizeNote(ctx, content)
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(summary, "..."))
	assert.Equal(t, maxFallbackSummary+3, len([]rune(summary)))

	summary, err = client.SummarizeNote(ctx, "short")
	require.NoError(t, err)
	assert.Equal(t, "short", summary)

	_, err = client.SummarizeNote(ctx, "  ")
	assert.Error(t, err)
}

func TestClassifyIntentWithoutKey(t *testing.T) {
	t.Parallel()
	client := New("")

	assert.False(t, client.Enabled())
	intent, err := client.ClassifyIntent(context.Background(), "remind me to call mum")
	assert.ErrorIs(t, err, ErrClientNotInitialised)
	assert.Equal(t, IntentUnknown, intent)
}

func TestParseIntent(t *testing.T) {
	t.Parallel()

	cases := map[string]Intent{
		"add_note":       IntentAddNote,
		" LIST_NOTES\n":  IntentListNotes,
		"upcoming_notes": IntentUpcoming,
		"help":           IntentHelp,
		"delete_note":    IntentUnknown,
		"":               IntentUnknown,
	}
	for label, want := range cases {
		assert.Equalf(t, want, ParseIntent(label), "label %q", label)
	}
}
