package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"FinanceDesk/internal/model"
)

// DefaultClaudeModel is used when no model is configured.
const DefaultClaudeModel = "claude-sonnet-4-20250514"

// Claude generates text with the Anthropic Messages API.
type Claude struct {
	Model  string
	apiKey string
	client anthropic.Client
}

// NewClaude creates a Claude generator. Extra options (base URL, HTTP client)
// are passed to the SDK client.
func NewClaude(apiKey, modelName string, opts ...option.RequestOption) *Claude {
	if modelName == "" {
		modelName = DefaultClaudeModel
	}
	opts = append([]option.RequestOption{option.WithAPIKey(apiKey), option.WithMaxRetries(0)}, opts...)
	return &Claude{
		Model:  modelName,
		apiKey: apiKey,
		client: anthropic.NewClient(opts...),
	}
}

func (c *Claude) Name() string { return ProviderClaude }

func (c *Claude) Generate(ctx context.Context, req *Request) (string, error) {
	if c.apiKey == "" {
		return "", fmt.Errorf("claude: %w", ErrNoAPIKey)
	}

	messages := make([]anthropic.MessageParam, 0, len(req.Messages))
	for _, m := range req.Messages {
		if m.Role == model.RoleAssistant {
			messages = append(messages, anthropic.NewAssistantMessage(anthropic.NewTextBlock(m.Content)))
		} else {
			messages = append(messages, anthropic.NewUserMessage(anthropic.NewTextBlock(m.Content)))
		}
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(c.Model),
		MaxTokens: int64(req.MaxTokens),
		Messages:  messages,
	}
	if req.System != "" {
		params.System = []anthropic.TextBlockParam{{Text: req.System}}
	}

	resp, err := c.client.Messages.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("claude: %w", err)
	}

	var text strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}
	if text.Len() == 0 {
		return "", fmt.Errorf("claude: empty response")
	}
	return text.String(), nil
}
