// ABOUTME: OpenAI client: whisper transcription of recorded answers and chat summary generation
// ABOUTME: Implements both the recording Transcriber and the summary Generator ports
package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/harperreed/onsite/media"
	"github.com/harperreed/onsite/summary"
)

const (
	DefaultOpenAIBaseURL         = "https://api.openai.com/v1"
	DefaultOpenAITranscribeModel = "whisper-1"
	DefaultOpenAISummaryModel    = "gpt-4-turbo-preview"
)

var allowedAudioMIMEs = map[string]struct{}{
	"audio/webm":  {},
	"audio/mpeg":  {},
	"audio/mp4":   {},
	"audio/x-m4a": {},
	"audio/wav":   {},
	"audio/x-wav": {},
	"audio/ogg":   {},
}

type OpenAI struct {
	APIKey          string
	BaseURL         string
	TranscribeModel string
	SummaryModel    string

	client httpClient
}

func NewOpenAI(apiKey string, logger *log.Logger) *OpenAI {
	return &OpenAI{
		APIKey:          apiKey,
		BaseURL:         DefaultOpenAIBaseURL,
		TranscribeModel: DefaultOpenAITranscribeModel,
		SummaryModel:    DefaultOpenAISummaryModel,
		client:          newHTTPClient("openai", logger),
	}
}

// Transcribe uploads a finalized blob to the transcription endpoint.
func (o *OpenAI) Transcribe(ctx context.Context, blob media.Blob) (string, error) {
	if err := ensureAPIKey("openai", o.APIKey); err != nil {
		return "", err
	}

	mime := strings.ToLower(strings.TrimSpace(strings.SplitN(blob.MIMEType, ";", 2)[0]))
	if mime != "" {
		if _, ok := allowedAudioMIMEs[mime]; !ok {
			return "", fmt.Errorf("unsupported audio mime type: %s", blob.MIMEType)
		}
	}

	name := blob.Name
	if name == "" {
		name = "recording.wav"
	}

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	part, err := writer.CreateFormFile("file", name)
	if err != nil {
		return "", fmt.Errorf("create multipart file: %w", err)
	}
	if _, err := io.Copy(part, bytes.NewReader(blob.Data)); err != nil {
		return "", fmt.Errorf("copy audio data: %w", err)
	}
	if err := writer.WriteField("model", o.TranscribeModel); err != nil {
		return "", fmt.Errorf("write model field: %w", err)
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("close multipart writer: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.BaseURL+"/audio/transcriptions", body)
	if err != nil {
		return "", fmt.Errorf("create transcription request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+o.APIKey)
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := o.client.do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return "", o.client.decodeAPIError(resp)
	}

	var payload struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", fmt.Errorf("decode transcription response: %w", err)
	}

	return strings.TrimSpace(payload.Text), nil
}

// Generate runs a chat completion with the request's system and user messages.
func (o *OpenAI) Generate(ctx context.Context, req summary.Request) (string, error) {
	if err := ensureAPIKey("openai", o.APIKey); err != nil {
		return "", err
	}

	payload := map[string]any{
		"model": o.SummaryModel,
		"messages": []map[string]string{
			{"role": "system", "content": req.System},
			{"role": "user", "content": req.Prompt},
		},
		"max_tokens":  4000,
		"temperature": 0.7,
	}

	var response struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}

	headers := map[string]string{"Authorization": "Bearer " + o.APIKey}
	if err := o.client.postJSON(ctx, o.BaseURL+"/chat/completions", headers, payload, &response); err != nil {
		return "", err
	}

	if len(response.Choices) == 0 {
		return "", errors.New("no summary returned")
	}

	return strings.TrimSpace(response.Choices[0].Message.Content), nil
}
