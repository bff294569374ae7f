package affirm

import (
	"context"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/stillmind-app/stillmind/internal/models"
)

// Client wraps the Anthropic API for affirmation generation.
type Client struct {
	api   *anthropic.Client
	model anthropic.Model
}

// NewClient creates an affirmation client with the given API key and model.
func NewClient(apiKey, model string) *Client {
	opts := []option.RequestOption{}
	if apiKey != "" {
		opts = append(opts, option.WithAPIKey(apiKey))
	}
	client := anthropic.NewClient(opts...)
	return &Client{
		api:   &client,
		model: anthropic.Model(model),
	}
}

const systemPrompt = `You write short meditation affirmations. Return ONLY the affirmation text: one or two sentences, first person, present tense, warm but plain. No quotes, no preamble, no emoji.`

// buildPrompt constructs the user prompt from the optional theme and the
// user's practice so far.
func buildPrompt(theme string, view models.StatsView) string {
	var sb strings.Builder
	if theme != "" {
		sb.WriteString("Theme: ")
		sb.WriteString(theme)
		sb.WriteString("\n")
	}
	if view.TotalSessions > 0 {
		fmt.Fprintf(&sb, "The reader has meditated %d minutes across %d sessions", view.TotalMinutes, view.TotalSessions)
		if view.CurrentStreak > 0 {
			fmt.Fprintf(&sb, " and is on a %d-day streak", view.CurrentStreak)
		}
		sb.WriteString(".\n")
	} else {
		sb.WriteString("The reader is just starting a meditation practice.\n")
	}
	sb.WriteString("Write one affirmation for today.")
	return sb.String()
}

// Generate returns a single affirmation grounded in the user's practice.
func (c *Client) Generate(ctx context.Context, theme string, view models.StatsView) (string, error) {
	msg, err := c.api.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     c.model,
		MaxTokens: 200,
		System: []anthropic.TextBlockParam{
			{Text: systemPrompt},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(buildPrompt(theme, view))),
		},
	})
	if err != nil {
		return "", fmt.Errorf("anthropic API call: %w", err)
	}

	var text string
	for _, block := range msg.Content {
		if block.Type == "text" {
			text = block.Text
			break
		}
	}
	text = strings.TrimSpace(strings.Trim(strings.TrimSpace(text), `"`))
	if text == "" {
		return "", fmt.Errorf("no text content in API response")
	}
	return text, nil
}
