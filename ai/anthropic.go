// ABOUTME: Anthropic messages API client used as an alternative summary generator
// ABOUTME: Concatenates the text blocks of the reply
package ai

import (
	"context"
	"errors"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/harperreed/onsite/summary"
)

const (
	DefaultAnthropicBaseURL = "https://api.anthropic.com/v1"
	DefaultAnthropicModel   = "claude-haiku-4-5"
	anthropicVersion        = "2023-06-01"
)

type Anthropic struct {
	APIKey    string
	BaseURL   string
	Model     string
	MaxTokens int

	client httpClient
}

func NewAnthropic(apiKey string, logger *log.Logger) *Anthropic {
	return &Anthropic{
		APIKey:    apiKey,
		BaseURL:   DefaultAnthropicBaseURL,
		Model:     DefaultAnthropicModel,
		MaxTokens: 4096,
		client:    newHTTPClient("anthropic", logger),
	}
}

type anthropicRequest struct {
	Model     string             `json:"model"`
	MaxTokens int                `json:"max_tokens"`
	System    string             `json:"system,omitempty"`
	Messages  []anthropicMessage `json:"messages"`
}

type anthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type anthropicResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
}

func (a *Anthropic) Generate(ctx context.Context, req summary.Request) (string, error) {
	if err := ensureAPIKey("anthropic", a.APIKey); err != nil {
		return "", err
	}

	body := anthropicRequest{
		Model:     a.Model,
		MaxTokens: a.MaxTokens,
		System:    req.System,
		Messages:  []anthropicMessage{{Role: "user", Content: req.Prompt}},
	}
	headers := map[string]string{
		"x-api-key":         a.APIKey,
		"anthropic-version": anthropicVersion,
	}

	var resp anthropicResponse
	if err := a.client.postJSON(ctx, a.BaseURL+"/messages", headers, body, &resp); err != nil {
		return "", err
	}

	var text string
	for _, block := range resp.Content {
		if block.Type == "text" {
			text += block.Text
		}
	}
	if strings.TrimSpace(text) == "" {
		return "", errors.New("empty response from anthropic")
	}
	return strings.TrimSpace(text), nil
}
