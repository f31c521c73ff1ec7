package agents

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"
)

const defaultCodexURL = "https://api.openai.com/v1/chat/completions"

// Codex implements the Agent interface for OpenAI-compatible APIs.
type Codex struct {
	apiKey  string
	model   string
	baseURL string
	client  *http.Client
}

// NewCodex creates a new Codex agent.
func NewCodex(model string) (*Codex, error) {
	key := os.Getenv("OPENAI_API_KEY")
	if key == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY environment variable is not set")
	}
	baseURL := os.Getenv("VERDICT_CODEX_BASE_URL")
	if baseURL == "" {
		baseURL = defaultCodexURL
	}
	return &Codex{
		apiKey:  key,
		model:   model,
		baseURL: baseURL,
		client:  &http.Client{Timeout: 180 * time.Second},
	}, nil
}

func (o *Codex) Name() string { return "codex" }

func (o *Codex) Review(ctx context.Context, req Request) (Response, error) {
	maxTokens := req.MaxTokens
	if maxTokens == 0 {
		maxTokens = 4096
	}

	messages := []codexMessage{
		{Role: "system", Content: req.SystemPrompt},
		{Role: "user", Content: req.UserPrompt},
	}

	body := codexRequest{
		Model:     o.model,
		Messages:  messages,
		MaxTokens: maxTokens,
	}
	if req.Temperature > 0 {
		body.Temperature = &req.Temperature
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return Response{}, fmt.Errorf("marshaling request: %w", err)
	}

	var resp Response
	err = callWithRetry(ctx, o.Name(), func() error {
		httpReq, err := http.NewRequestWithContext(ctx, "POST", o.baseURL, bytes.NewReader(payload))
		if err != nil {
			return fmt.Errorf("creating request: %w", err)
		}
		httpReq.Header.Set("Content-Type", "application/json")
		httpReq.Header.Set("Authorization", "Bearer "+o.apiKey)

		httpResp, err := o.client.Do(httpReq)
		if err != nil {
			return fmt.Errorf("sending request: %w", err)
		}
		defer httpResp.Body.Close()

		respBody, err := io.ReadAll(httpResp.Body)
		if err != nil {
			return fmt.Errorf("reading response: %w", err)
		}

		if httpResp.StatusCode == 429 {
			return &rateLimitError{retryAfter: retryAfterHint(httpResp.Header)}
		}
		if httpResp.StatusCode == 401 || httpResp.StatusCode == 403 {
			return &authError{kind: o.Name(), message: string(respBody)}
		}
		if httpResp.StatusCode >= 500 {
			return fmt.Errorf("API error (status %d): %s", httpResp.StatusCode, string(respBody))
		}
		if httpResp.StatusCode != 200 {
			return fmt.Errorf("API error (status %d): %s", httpResp.StatusCode, string(respBody))
		}

		var result codexResponse
		if err := json.Unmarshal(respBody, &result); err != nil {
			return fmt.Errorf("parsing response: %w", err)
		}

		if len(result.Choices) == 0 {
			return fmt.Errorf("no choices in response")
		}
		if result.Choices[0].Message.Content == "" {
			return fmt.Errorf("empty text content in API response")
		}

		resp = Response{
			Content:    result.Choices[0].Message.Content,
			TokensUsed: result.Usage.TotalTokens,
		}
		return nil
	})

	return resp, err
}

type codexRequest struct {
	Model       string         `json:"model"`
	Messages    []codexMessage `json:"messages"`
	MaxTokens   int            `json:"max_tokens"`
	Temperature *float64       `json:"temperature,omitempty"`
}

type codexMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type codexResponse struct {
	Choices []codexChoice `json:"choices"`
	Usage   codexUsage    `json:"usage"`
}

type codexChoice struct {
	Message codexMessage `json:"message"`
}

type codexUsage struct {
	TotalTokens int `json:"total_tokens"`
}
