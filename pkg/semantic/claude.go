package semantic

import (
	"context"
	"fmt"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/rotisserie/eris"

	"github.com/sells-group/validate-cli/internal/resilience"
)

const validationSystemPrompt = `You are a data validation expert. Compare two values and determine if they represent the same information.

RESPOND ONLY WITH VALID JSON in this exact format:
{"match": true/false, "confidence": 0.0-1.0, "reasoning": "brief explanation"}

Rules:
- Exact text matches = confidence 1.0
- Case differences = confidence 0.9-1.0
- Formatting differences (spaces, punctuation) = confidence 0.8-1.0
- Semantic equivalence = confidence 0.7-1.0
- Different values = confidence 0.0-0.3

Handle special characters, accents, and encoding properly.`

// claudeClient implements Client by prompting Claude with the validation
// contract instead of calling a local validation server.
type claudeClient struct {
	client sdk.Client
	model  string
}

// NewClaudeClient creates a Claude-backed validation client.
func NewClaudeClient(apiKey, model string) Client {
	return &claudeClient{
		client: sdk.NewClient(
			option.WithAPIKey(apiKey),
		),
		model: model,
	}
}

func (c *claudeClient) Validate(ctx context.Context, req Request) (string, error) {
	prompt := fmt.Sprintf("Field: %s (type: %s)\nCSV Value: %q\nWeb Value: %q\n\nAre these values equivalent? Respond with JSON only.",
		req.FieldName, req.FieldType, req.SourceValue, req.ExtractedValue)

	temp := 0.1
	msg, err := c.client.Messages.New(ctx, sdk.MessageNewParams{
		Model:     sdk.Model(c.model),
		MaxTokens: 256,
		System: []sdk.TextBlockParam{
			{Text: validationSystemPrompt},
		},
		Messages: []sdk.MessageParam{
			sdk.NewUserMessage(sdk.NewTextBlock(prompt)),
		},
		Temperature: sdk.Float(temp),
	})
	if err != nil {
		// SDK errors from rate limiting or overload are safe to retry.
		return "", resilience.NewTransientError(eris.Wrap(err, "semantic: claude create message"), 0)
	}

	var text string
	for _, block := range msg.Content {
		if block.Type == "text" {
			text += block.Text
		}
	}
	if text == "" {
		return "", eris.New("semantic: claude returned no text content")
	}
	return text, nil
}

// Healthy always succeeds for the Claude backend; the API has no separate
// readiness endpoint and failed calls are handled by the retry policy.
func (c *claudeClient) Healthy(ctx context.Context) error {
	return nil
}
