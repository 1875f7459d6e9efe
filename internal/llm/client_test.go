package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestAnthropicClientInvoke(t *testing.T) {
	var captured AnthropicRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("x-api-key"); got != "test-key" {
			t.Errorf("x-api-key = %q", got)
		}
		if got := r.Header.Get("anthropic-version"); got != "2023-06-01" {
			t.Errorf("anthropic-version = %q", got)
		}
		if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
			t.Errorf("decode request: %v", err)
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"content": []map[string]interface{}{
				{"type": "text", "text": "  {\"ok\": true}  "},
			},
			"stop_reason": "end_turn",
		})
	}))
	defer server.Close()

	config := DefaultAnthropicConfig("test-key")
	config.BaseURL = server.URL
	client := NewAnthropicClientWithConfig(config)

	got, err := client.Invoke(context.Background(), []Message{
		SystemMessage("You analyze ventures."),
		UserMessage("Analyze this."),
	})
	if err != nil {
		t.Fatalf("Invoke: %v", err)
	}
	if got != `{"ok": true}` {
		t.Errorf("reply = %q, want trimmed text", got)
	}
	if captured.System != "You analyze ventures." {
		t.Errorf("system = %q, system turn not lifted", captured.System)
	}
	if len(captured.Messages) != 1 || captured.Messages[0].Role != "user" {
		t.Errorf("messages = %+v", captured.Messages)
	}
}

func TestAnthropicClientMissingKey(t *testing.T) {
	client := NewAnthropicClient("")
	_, err := client.Invoke(context.Background(), []Message{UserMessage("hi")})
	if !errors.Is(err, ErrCapabilityUnavailable) {
		t.Errorf("err = %v, want ErrCapabilityUnavailable", err)
	}
}

func TestAnthropicClientHTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error": {"type": "rate_limit_error", "message": "slow down"}}`))
	}))
	defer server.Close()

	config := DefaultAnthropicConfig("test-key")
	config.BaseURL = server.URL
	client := NewAnthropicClientWithConfig(config)

	_, err := client.Invoke(context.Background(), []Message{UserMessage("hi")})
	if err == nil {
		t.Fatal("expected error for non-200 status")
	}
}

func TestOpenAIClientInvoke(t *testing.T) {
	var captured OpenAIRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("authorization = %q", got)
		}
		if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
			t.Errorf("decode request: %v", err)
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"choices": []map[string]interface{}{
				{
					"index":         0,
					"message":       map[string]string{"role": "assistant", "content": "three approaches"},
					"finish_reason": "stop",
				},
			},
		})
	}))
	defer server.Close()

	config := DefaultOpenAIConfig("test-key")
	config.BaseURL = server.URL
	client := NewOpenAIClientWithConfig(config)

	got, err := client.Invoke(context.Background(), []Message{
		SystemMessage("You design solutions."),
		UserMessage("Propose approaches."),
	})
	if err != nil {
		t.Fatalf("Invoke: %v", err)
	}
	if got != "three approaches" {
		t.Errorf("reply = %q", got)
	}
	// System turns ride along in the message list for this wire format.
	if len(captured.Messages) != 2 || captured.Messages[0].Role != "system" {
		t.Errorf("messages = %+v", captured.Messages)
	}
}

func TestOpenAIClientEmptyChoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{"choices": []interface{}{}})
	}))
	defer server.Close()

	config := DefaultOpenAIConfig("test-key")
	config.BaseURL = server.URL
	client := NewOpenAIClientWithConfig(config)

	_, err := client.Invoke(context.Background(), []Message{UserMessage("hi")})
	if err == nil || err.Error() != "no completion returned" {
		t.Errorf("err = %v, want no completion returned", err)
	}
}

func TestGeminiClientMissingKey(t *testing.T) {
	client := NewGeminiClient("")

	_, err := client.Invoke(context.Background(), []Message{UserMessage("hi")})
	if !errors.Is(err, ErrCapabilityUnavailable) {
		t.Errorf("err = %v, want ErrCapabilityUnavailable", err)
	}

	// Initialization failure is sticky across calls.
	_, err = client.Invoke(context.Background(), []Message{UserMessage("again")})
	if !errors.Is(err, ErrCapabilityUnavailable) {
		t.Errorf("second call err = %v, want ErrCapabilityUnavailable", err)
	}
}

func TestSplitSystem(t *testing.T) {
	system, turns := splitSystem([]Message{
		SystemMessage("first directive"),
		UserMessage("question"),
		SystemMessage("second directive"),
		AssistantMessage("answer"),
	})
	if system != "first directive\n\nsecond directive" {
		t.Errorf("system = %q", system)
	}
	if len(turns) != 2 || turns[0].Role != "user" || turns[1].Role != "assistant" {
		t.Errorf("turns = %+v", turns)
	}
}

func TestWantsJSON(t *testing.T) {
	if !wantsJSON([]Message{UserMessage("Respond with JSON only.")}) {
		t.Error("explicit JSON request not detected")
	}
	if !wantsJSON([]Message{UserMessage("respond as json")}) {
		t.Error("lowercase json not detected")
	}
	if wantsJSON([]Message{UserMessage("write a poem")}) {
		t.Error("false positive")
	}
}
