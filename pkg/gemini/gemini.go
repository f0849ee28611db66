package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"
)

const (
	defaultModel   = "gemini-2.5-flash"
	defaultBaseURL = "https://generativelanguage.googleapis.com"

	systemPrompt = `You are an AI study assistant for a learning management system.
Help students understand course material, prepare for quizzes and plan their studies.
Answer in concise, well-structured markdown. Stay on educational topics.`
)

// ErrNotConfigured is returned when no API key is set; callers fall back to
// canned responses.
var ErrNotConfigured = errors.New("gemini: api key not configured")

// Client calls the Generative Language API. All failures are recoverable:
// callers are expected to serve a fallback response instead of surfacing the
// error to the student.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	model      string
}

type part struct {
	Text string `json:"text"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type generateRequest struct {
	Contents          []content `json:"contents"`
	SystemInstruction *content  `json:"systemInstruction,omitempty"`
}

type generateResponse struct {
	Candidates []struct {
		Content content `json:"content"`
	} `json:"candidates"`
}

// NewClient reads GEMINI_API_KEY, GEMINI_API_URL and GEMINI_MODEL from the
// environment. A missing key is not an error; the client just reports itself
// unconfigured.
func NewClient() *Client {
	baseURL := strings.TrimSpace(os.Getenv("GEMINI_API_URL"))
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	model := strings.TrimSpace(os.Getenv("GEMINI_MODEL"))
	if model == "" {
		model = defaultModel
	}
	return &Client{
		httpClient: &http.Client{Timeout: 60 * time.Second},
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     strings.TrimSpace(os.Getenv("GEMINI_API_KEY")),
		model:      model,
	}
}

// Configured reports whether an API key is present.
func (c *Client) Configured() bool {
	return c.apiKey != ""
}

// Generate sends a single prompt (optionally prefixed with course context)
// and returns the model's text reply.
func (c *Client) Generate(ctx context.Context, prompt, studentContext string) (string, error) {
	if !c.Configured() {
		return "", ErrNotConfigured
	}
	text := prompt
	if studentContext != "" {
		text = "Student context: " + studentContext + "\n\n" + prompt
	}
	reqBody := generateRequest{
		Contents:          []content{{Role: "user", Parts: []part{{Text: text}}}},
		SystemInstruction: &content{Parts: []part{{Text: systemPrompt}}},
	}
	payload, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("gemini: serialize request: %w", err)
	}

	url := fmt.Sprintf("%s/v1beta/models/%s:generateContent?key=%s", c.baseURL, c.model, c.apiKey)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("gemini: new request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("gemini: request error: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", fmt.Errorf("gemini: status %d: %s", resp.StatusCode, string(body))
	}

	var decoded generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return "", fmt.Errorf("gemini: parse response: %w", err)
	}
	if len(decoded.Candidates) == 0 || len(decoded.Candidates[0].Content.Parts) == 0 {
		return "", errors.New("gemini: empty response")
	}
	reply := strings.TrimSpace(decoded.Candidates[0].Content.Parts[0].Text)
	if reply == "" {
		return "", errors.New("gemini: empty response")
	}
	return reply, nil
}
