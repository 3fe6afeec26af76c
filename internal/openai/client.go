package openai

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	openai "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

// Client wraps the OpenAI SDK and provides utility helpers.
type Client struct {
	apiKey string
	client *openai.Client
	model  openai.ChatModel
}

// ErrClientNotInitialised is returned when attempting to call the API without a configured client.
var ErrClientNotInitialised = errors.New("openai client not initialised")

// Intent represents the high-level action inferred from a message sent outside a conversation.
type Intent string

const (
	// IntentUnknown indicates the message intent could not be resolved.
	IntentUnknown Intent = "unknown"
	// IntentAddNote asks the bot to start capturing a new note.
	IntentAddNote Intent = "add_note"
	// IntentListNotes asks the bot to list saved notes.
	IntentListNotes Intent = "list_notes"
	// IntentUpcoming asks for the notes coming up next.
	IntentUpcoming Intent = "upcoming_notes"
	// IntentHelp asks for usage guidance.
	IntentHelp Intent = "help"
)

// maxFallbackSummary bounds the truncated text used when no API key is set.
const maxFallbackSummary = 80

// New returns an OpenAI client. Without apiKey the client works offline:
// summaries fall back to truncation and classification reports ErrClientNotInitialised.
func New(apiKey string) *Client {
	if apiKey == "" {
		return &Client{}
	}
	client := openai.NewClient(option.WithAPIKey(apiKey))
	return &Client{
		apiKey: apiKey,
		client: &client,
		model:  openai.ChatModelGPT4oMini,
	}
}

// Enabled reports whether an API key was configured.
func (c *Client) Enabled() bool {
	return c != nil && c.client != nil
}

// SummarizeNote asks the model to shorten a note for a reminder message.
func (c *Client) SummarizeNote(ctx context.Context, content string) (string, error) {
	if strings.TrimSpace(content) == "" {
		return "", fmt.Errorf("content cannot be empty")
	}
	if !c.Enabled() {
		return truncate(content, maxFallbackSummary), nil
	}

	ctx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	answer, err := c.complete(ctx,
		"You shorten personal notes to one short sentence, keeping names, places and amounts.",
		fmt.Sprintf("Shorten this note: %s", content),
		0.3, 60)
	if err != nil {
		return "", err
	}
	return answer, nil
}

// ClassifyIntent uses the language model to infer what an idle user wants.
func (c *Client) ClassifyIntent(ctx context.Context, content string) (Intent, error) {
	if strings.TrimSpace(content) == "" {
		return IntentUnknown, fmt.Errorf("content cannot be empty")
	}
	if !c.Enabled() {
		return IntentUnknown, ErrClientNotInitialised
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	label, err := c.complete(ctx,
		"Classify the user's request for a note and reminder bot. Reply with exactly one label: add_note, list_notes, upcoming_notes, help, or unknown.",
		content,
		0.0, 8)
	if err != nil {
		return IntentUnknown, err
	}
	return ParseIntent(label), nil
}

// ParseIntent maps a model label to an Intent.
func ParseIntent(label string) Intent {
	switch intent := Intent(strings.ToLower(strings.TrimSpace(label))); intent {
	case IntentAddNote, IntentListNotes, IntentUpcoming, IntentHelp:
		return intent
	default:
		return IntentUnknown
	}
}

func (c *Client) complete(ctx context.Context, system, user string, temperature float64, maxTokens int64) (string, error) {
	req := openai.ChatCompletionNewParams{
		Model: c.model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			{
				OfSystem: &openai.ChatCompletionSystemMessageParam{
					Content: openai.ChatCompletionSystemMessageParamContentUnion{
						OfString: openai.String(system),
					},
				},
			},
			{
				OfUser: &openai.ChatCompletionUserMessageParam{
					Content: openai.ChatCompletionUserMessageParamContentUnion{
						OfString: openai.String(user),
					},
				},
			},
		},
		Temperature:         openai.Float(temperature),
		MaxCompletionTokens: openai.Int(maxTokens),
	}

	resp, err := c.client.Chat.Completions.New(ctx, req)
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no completion received")
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

func truncate(content string, max int) string {
	runes := []rune(content)
	if len(runes) <= max {
		return content
	}
	return string(runes[:max]) + "..."
}
