package gemini

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func testClient(serverURL, key string) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 5 * time.Second},
		baseURL:    serverURL,
		apiKey:     key,
		model:      defaultModel,
	}
}

func TestGenerateUnconfigured(t *testing.T) {
	c := testClient("http://unused", "")
	if c.Configured() {
		t.Fatal("client without key reported configured")
	}
	if _, err := c.Generate(context.Background(), "hello", ""); err != ErrNotConfigured {
		t.Fatalf("expected ErrNotConfigured, got %v", err)
	}
}

func TestGenerateSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.Contains(r.URL.Path, defaultModel) {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		var req generateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("bad request body: %v", err)
		}
		if len(req.Contents) != 1 || !strings.Contains(req.Contents[0].Parts[0].Text, "binary search") {
			t.Errorf("prompt not forwarded: %+v", req.Contents)
		}
		resp := generateResponse{}
		resp.Candidates = []struct {
			Content content `json:"content"`
		}{{Content: content{Parts: []part{{Text: "  A binary search halves the range.  "}}}}}
		_ = json.NewEncoder(w).Encode(resp)
	}))
	defer srv.Close()

	c := testClient(srv.URL, "k")
	reply, err := c.Generate(context.Background(), "explain binary search", "Algorithms 101")
	if err != nil {
		t.Fatalf("generate failed: %v", err)
	}
	if reply != "A binary search halves the range." {
		t.Fatalf("unexpected reply: %q", reply)
	}
}

func TestGenerateServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota exceeded", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := testClient(srv.URL, "k")
	if _, err := c.Generate(context.Background(), "hi", ""); err == nil {
		t.Fatal("expected error on non-200 response")
	}
}

func TestFallbackResponseKeyedOnTopic(t *testing.T) {
	cases := map[string]string{
		"how do I prepare for my quiz": "Quiz Preparation",
		"help with my assignment":      "Assignment Help",
		"how should I study":           "Study Advice",
		"unrelated":                    "Thanks for Your Question",
	}
	for prompt, want := range cases {
		if got := FallbackResponse(prompt); !strings.Contains(got, want) {
			t.Errorf("FallbackResponse(%q) missing %q", prompt, want)
		}
	}
}

func TestWelcomeMessage(t *testing.T) {
	msg := WelcomeMessage("Priya", []string{"Data Structures", "Databases"})
	if !strings.Contains(msg, "Priya") || !strings.Contains(msg, "Data Structures, Databases") {
		t.Fatalf("welcome message not personalized: %s", msg)
	}
	if !strings.Contains(WelcomeMessage("Sam", nil), "your courses") {
		t.Fatal("welcome message without courses should use generic wording")
	}
}
