// ABOUTME: Gemini generateContent client, the default summary generator
// ABOUTME: The system text is sent as a system instruction alongside the visit prompt
package ai

import (
	"context"
	"errors"
	"net/url"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/harperreed/onsite/summary"
)

const (
	DefaultGeminiBaseURL = "https://generativelanguage.googleapis.com/v1beta"
	DefaultGeminiModel   = "gemini-1.5-flash"
)

type Gemini struct {
	APIKey  string
	BaseURL string
	Model   string

	client httpClient
}

func NewGemini(apiKey string, logger *log.Logger) *Gemini {
	return &Gemini{
		APIKey:  apiKey,
		BaseURL: DefaultGeminiBaseURL,
		Model:   DefaultGeminiModel,
		client:  newHTTPClient("gemini", logger),
	}
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

func (g *Gemini) Generate(ctx context.Context, req summary.Request) (string, error) {
	if err := ensureAPIKey("gemini", g.APIKey); err != nil {
		return "", err
	}

	payload := struct {
		SystemInstruction *geminiContent  `json:"systemInstruction,omitempty"`
		Contents          []geminiContent `json:"contents"`
	}{
		Contents: []geminiContent{{Role: "user", Parts: []geminiPart{{Text: req.Prompt}}}},
	}
	if req.System != "" {
		payload.SystemInstruction = &geminiContent{Parts: []geminiPart{{Text: req.System}}}
	}

	var response struct {
		Candidates []struct {
			Content geminiContent `json:"content"`
		} `json:"candidates"`
	}

	endpoint := g.BaseURL + "/models/" + url.PathEscape(g.Model) + ":generateContent"
	headers := map[string]string{"x-goog-api-key": g.APIKey}
	if err := g.client.postJSON(ctx, endpoint, headers, payload, &response); err != nil {
		return "", err
	}

	var b strings.Builder
	for _, c := range response.Candidates {
		for _, p := range c.Content.Parts {
			b.WriteString(p.Text)
		}
		if b.Len() > 0 {
			break
		}
	}
	if b.Len() == 0 {
		return "", errors.New("empty response from gemini")
	}
	return strings.TrimSpace(b.String()), nil
}
