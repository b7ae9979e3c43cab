package llm

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"FinanceDesk/internal/model"
)

// DefaultGeminiModel is used when no model is configured.
const DefaultGeminiModel = "gemini-2.5-flash"

// Gemini generates text with the Google Gemini API.
type Gemini struct {
	Model  string
	client *genai.Client
}

// NewGemini creates a Gemini generator. baseURL overrides the API host when set.
func NewGemini(ctx context.Context, apiKey, modelName string, baseURL ...string) (*Gemini, error) {
	if modelName == "" {
		modelName = DefaultGeminiModel
	}
	g := &Gemini{Model: modelName}
	if apiKey == "" {
		return g, nil
	}
	cc := &genai.ClientConfig{APIKey: apiKey, Backend: genai.BackendGeminiAPI}
	if len(baseURL) > 0 && baseURL[0] != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: baseURL[0]}
	}
	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("init genai client: %w", err)
	}
	g.client = client
	return g, nil
}

func (g *Gemini) Name() string { return ProviderGemini }

func (g *Gemini) Generate(ctx context.Context, req *Request) (string, error) {
	if g.client == nil {
		return "", fmt.Errorf("gemini: %w", ErrNoAPIKey)
	}

	contents := make([]*genai.Content, 0, len(req.Messages))
	for _, m := range req.Messages {
		role := genai.RoleUser
		if m.Role == model.RoleAssistant {
			role = genai.RoleModel
		}
		contents = append(contents, &genai.Content{
			Role:  role,
			Parts: []*genai.Part{genai.NewPartFromText(m.Content)},
		})
	}

	gc := &genai.GenerateContentConfig{MaxOutputTokens: int32(req.MaxTokens)}
	if req.System != "" {
		gc.SystemInstruction = genai.NewContentFromText(req.System, genai.RoleUser)
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.Model, contents, gc)
	if err != nil {
		return "", fmt.Errorf("gemini: %w", err)
	}

	var text strings.Builder
	if resp != nil {
		for _, cand := range resp.Candidates {
			if cand.Content == nil {
				continue
			}
			for _, part := range cand.Content.Parts {
				text.WriteString(part.Text)
			}
			if text.Len() > 0 {
				break
			}
		}
	}
	if text.Len() == 0 {
		return "", fmt.Errorf("gemini: empty response")
	}
	return text.String(), nil
}
