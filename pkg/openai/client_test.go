package openai

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func newTestClient(baseURL string) *Client {
	return &Client{
		httpClient: http.DefaultClient,
		baseURL:    baseURL,
		apiKey:     "key",
		model:      "test-model",
	}
}

func TestCreateChatCompletionReturnsToolCalls(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer key" {
			t.Errorf("unexpected authorization header %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id": "chatcmpl-1",
			"choices": [{
				"message": {
					"role": "assistant",
					"content": "",
					"tool_calls": [{
						"id": "call_1",
						"type": "function",
						"function": {"name": "search_games", "arguments": "{\"query\":\"souls-like\"}"}
					}]
				},
				"finish_reason": "tool_calls"
			}]
		}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	resp, err := client.CreateChatCompletion(context.Background(), ChatRequest{
		Messages: []Message{{Role: RoleUser, Content: "any souls-likes?"}},
	})
	if err != nil {
		t.Fatalf("chat completion: %v", err)
	}

	calls := resp.Choices[0].Message.ToolCalls
	if len(calls) != 1 || calls[0].Function.Name != "search_games" {
		t.Fatalf("unexpected tool calls %+v", calls)
	}
	if !strings.Contains(calls[0].Function.Arguments, "souls-like") {
		t.Fatalf("unexpected arguments %q", calls[0].Function.Arguments)
	}
}

func TestStreamChatCompletionForwardsDeltas(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		_, _ = w.Write([]byte("data: {\"choices\":[{\"delta\":{\"content\":\"Try \"}}]}\n\n"))
		_, _ = w.Write([]byte("data: {\"choices\":[{\"delta\":{\"content\":\"Hades\"}}]}\n\n"))
		_, _ = w.Write([]byte("data: [DONE]\n\n"))
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	var out strings.Builder
	err := client.StreamChatCompletion(context.Background(), ChatRequest{
		Messages: []Message{{Role: RoleUser, Content: "recommend something"}},
	}, func(delta string) error {
		out.WriteString(delta)
		return nil
	})
	if err != nil {
		t.Fatalf("stream: %v", err)
	}
	if out.String() != "Try Hades" {
		t.Fatalf("unexpected streamed content %q", out.String())
	}
}

func TestStreamChatCompletionStopsOnCallbackError(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("data: {\"choices\":[{\"delta\":{\"content\":\"x\"}}]}\n\n"))
		_, _ = w.Write([]byte("data: {\"choices\":[{\"delta\":{\"content\":\"y\"}}]}\n\n"))
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	calls := 0
	err := client.StreamChatCompletion(context.Background(), ChatRequest{}, func(delta string) error {
		calls++
		return context.Canceled
	})
	if err == nil {
		t.Fatal("expected callback error to propagate")
	}
	if calls != 1 {
		t.Fatalf("expected stream to stop after first delta, got %d calls", calls)
	}
}
