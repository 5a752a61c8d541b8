// Package ai wraps the Anthropic API for the schema-aware query assistant.
package ai

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/querypad/querypad/schema"
)

const defaultModel = "claude-sonnet-4-5-20250929"

type Message struct {
	Role    string // "user" or "assistant"
	Content string
}

type Client struct {
	client anthropic.Client
	model  string
}

// New creates a Client reading the API key from the ANTHROPIC_API_KEY env var.
func New() (*Client, error) {
	key := os.Getenv("ANTHROPIC_API_KEY")
	if key == "" {
		return nil, errors.New("ANTHROPIC_API_KEY environment variable is not set")
	}
	return NewWithKey(key), nil
}

// NewWithKey creates a Client with the given API key.
func NewWithKey(apiKey string) *Client {
	return &Client{
		client: anthropic.NewClient(option.WithAPIKey(apiKey)),
		model:  defaultModel,
	}
}

// SetModel overrides the default model.
func (c *Client) SetModel(model string) {
	if model != "" {
		c.model = model
	}
}

// Chat sends the conversation history with a system prompt to Claude and returns the assistant response.
func (c *Client) Chat(ctx context.Context, systemPrompt string, messages []Message) (string, error) {
	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(c.model),
		MaxTokens: 4096,
		System: []anthropic.TextBlockParam{
			{Text: systemPrompt},
		},
		Messages: convertMessages(messages),
	}

	resp, err := c.client.Messages.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("claude API error: %w", err)
	}

	// Extract text from response content blocks
	var text string
	for _, block := range resp.Content {
		if block.Type == "text" {
			text += block.Text
		}
	}
	return text, nil
}

// SystemPrompt builds the assistant system prompt, embedding a textual
// summary of the normalized schema when one is available.
func SystemPrompt(tables []schema.Table) string {
	var b strings.Builder
	b.WriteString("You are a SQL assistant embedded in a SQL editor. ")
	b.WriteString("Answer concisely and put every query in a ```sql code block.\n")

	if len(tables) == 0 {
		b.WriteString("No schema is available; write generic SQL and say which tables you assumed.")
		return b.String()
	}

	b.WriteString("The available schema is:\n")
	for _, t := range tables {
		b.WriteString("- ")
		b.WriteString(t.Name)
		if t.Columns == nil {
			b.WriteString(" (columns unknown)\n")
			continue
		}
		b.WriteString("(")
		for i, c := range t.Columns {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(c.Name)
			if c.Type != "" {
				b.WriteString(" ")
				b.WriteString(c.Type)
			}
		}
		b.WriteString(")\n")
	}
	b.WriteString("Only reference tables and columns from this schema.")
	return b.String()
}

func convertMessages(msgs []Message) []anthropic.MessageParam {
	params := make([]anthropic.MessageParam, len(msgs))
	for i, m := range msgs {
		switch m.Role {
		case "assistant":
			params[i] = anthropic.NewAssistantMessage(anthropic.NewTextBlock(m.Content))
		default:
			params[i] = anthropic.NewUserMessage(anthropic.NewTextBlock(m.Content))
		}
	}
	return params
}
