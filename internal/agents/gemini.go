package agents

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
)

// Gemini implements the Agent interface via the Google generative AI SDK.
type Gemini struct {
	client *genai.Client
	model  *genai.GenerativeModel
}

// NewGemini creates a new Gemini agent.
func NewGemini(ctx context.Context, model string) (Agent, error) {
	key := os.Getenv("GEMINI_API_KEY")
	if key == "" {
		key = os.Getenv("GOOGLE_API_KEY")
	}
	if key == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY environment variable is not set")
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(key))
	if err != nil {
		return nil, fmt.Errorf("creating gemini client: %w", err)
	}

	gm := client.GenerativeModel(model)
	gm.SetTemperature(0)

	return &Gemini{client: client, model: gm}, nil
}

func (g *Gemini) Name() string { return "gemini" }

func (g *Gemini) Review(ctx context.Context, req Request) (Response, error) {
	if req.SystemPrompt != "" {
		g.model.SystemInstruction = &genai.Content{
			Parts: []genai.Part{genai.Text(req.SystemPrompt)},
		}
	}
	if req.MaxTokens > 0 {
		mt := int32(req.MaxTokens)
		g.model.MaxOutputTokens = &mt
	}

	var resp Response
	err := callWithRetry(ctx, g.Name(), func() error {
		result, err := g.model.GenerateContent(ctx, genai.Text(req.UserPrompt))
		if err != nil {
			if strings.Contains(err.Error(), "429") {
				return &rateLimitError{}
			}
			if strings.Contains(err.Error(), "API key") {
				return &authError{kind: g.Name(), message: err.Error()}
			}
			return fmt.Errorf("generating content: %w", err)
		}

		if len(result.Candidates) == 0 || result.Candidates[0].Content == nil {
			return fmt.Errorf("empty response from gemini")
		}

		var content strings.Builder
		for _, part := range result.Candidates[0].Content.Parts {
			if text, ok := part.(genai.Text); ok {
				content.WriteString(string(text))
			}
		}

		var tokens int
		if result.UsageMetadata != nil {
			tokens = int(result.UsageMetadata.TotalTokenCount)
		}

		resp = Response{Content: content.String(), TokensUsed: tokens}
		return nil
	})

	return resp, err
}

// ListModels returns the generation-capable model names available to the
// configured key.
func (g *Gemini) ListModels(ctx context.Context) ([]string, error) {
	iter := g.client.ListModels(ctx)
	var names []string
	for {
		m, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, err
		}
		if strings.Contains(m.Name, "gemini") {
			names = append(names, strings.TrimPrefix(m.Name, "models/"))
		}
	}
	return names, nil
}

// Close releases the underlying client.
func (g *Gemini) Close() error {
	return g.client.Close()
}
