package genai

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Client calls a chat-completions style generative text API. It backs
// the three assistant features: rewrite, analyze and reply suggestions.
type Client struct {
	baseURL string
	apiKey  string
	model   string
	http    *http.Client
}

// New creates a generative API client.
func New(baseURL, apiKey, model string) *Client {
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		model:   model,
		http:    &http.Client{Timeout: 60 * time.Second},
	}
}

// Analysis is the result of checking a drafted message.
type Analysis struct {
	Errors    bool `json:"errors"`
	Profanity bool `json:"profanity"`
}

// Rewrite asks the model to rewrite text with the given tone, style
// and length and returns the rewritten text.
func (c *Client) Rewrite(ctx context.Context, text, tone, style, length string) (string, error) {
	system := "You rewrite customer support messages. Reply with the rewritten text only."
	prompt := fmt.Sprintf("Rewrite the following message.\nTone: %s\nStyle: %s\nLength: %s\n\n%s",
		tone, style, length, text)

	reply, err := c.complete(ctx, system, prompt)
	if err != nil {
		return "", err
	}
	out := extractPayload(reply)
	if out == "" {
		return "", ErrMalformedReply
	}
	return out, nil
}

// Analyze checks a drafted message for writing errors and profanity.
func (c *Client) Analyze(ctx context.Context, text string) (*Analysis, error) {
	system := `You review customer support messages. Reply with JSON: {"errors": bool, "profanity": bool}.`
	reply, err := c.complete(ctx, system, text)
	if err != nil {
		return nil, err
	}

	var a Analysis
	if err := json.Unmarshal([]byte(extractPayload(reply)), &a); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedReply, err)
	}
	return &a, nil
}

// SuggestReplies proposes up to three short replies to the given
// conversation history, steered by the operator's free-text hint.
func (c *Client) SuggestReplies(ctx context.Context, history []string, hint string) ([]string, error) {
	system := `You suggest short replies for a support operator. Reply with a JSON array of at most 3 strings.`
	var sb strings.Builder
	if hint != "" {
		sb.WriteString("Context: " + hint + "\n\n")
	}
	sb.WriteString("Conversation:\n")
	for _, line := range history {
		sb.WriteString(line)
		sb.WriteByte('\n')
	}

	reply, err := c.complete(ctx, system, sb.String())
	if err != nil {
		return nil, err
	}

	var suggestions []string
	if err := json.Unmarshal([]byte(extractPayload(reply)), &suggestions); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedReply, err)
	}
	if len(suggestions) > 3 {
		suggestions = suggestions[:3]
	}
	return suggestions, nil
}

type completionRequest struct {
	Model    string    `json:"model"`
	Messages []message `json:"messages"`
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type completionResponse struct {
	Choices []struct {
		Message message `json:"message"`
	} `json:"choices"`
}

func (c *Client) complete(ctx context.Context, system, user string) (string, error) {
	payload, err := json.Marshal(completionRequest{
		Model: c.model,
		Messages: []message{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
	})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", strings.NewReader(string(payload)))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode == http.StatusTooManyRequests {
		return "", ErrRateLimited
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("genai: API error (%d): %s", resp.StatusCode, string(respBody))
	}

	var result completionResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return "", fmt.Errorf("parse response: %w", err)
	}
	if len(result.Choices) == 0 {
		return "", ErrMalformedReply
	}
	return result.Choices[0].Message.Content, nil
}
