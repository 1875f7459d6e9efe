// Package llm routes pipeline roles to model providers. Each role carries
// its own client so stages can run on different models; the registry refuses
// to build until every role is bound and applies one time limit per call.
package llm

import (
	"context"
	"errors"
	"strings"
)

// Message represents one turn of a model conversation.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

const (
	roleSystem    = "system"
	roleUser      = "user"
	roleAssistant = "assistant"
)

// SystemMessage builds a system turn.
func SystemMessage(content string) Message {
	return Message{Role: roleSystem, Content: content}
}

// UserMessage builds a user turn.
func UserMessage(content string) Message {
	return Message{Role: roleUser, Content: content}
}

// AssistantMessage builds an assistant turn.
func AssistantMessage(content string) Message {
	return Message{Role: roleAssistant, Content: content}
}

// Client produces one completion per conversation. Implementations make a
// single attempt; the caller decides how a failed call degrades.
type Client interface {
	Invoke(ctx context.Context, messages []Message) (string, error)
}

var (
	// ErrCapabilityUnavailable marks a client whose provider never became
	// usable, usually a missing API key.
	ErrCapabilityUnavailable = errors.New("model capability unavailable")

	// ErrCallTimeout marks a call that exceeded the per-call time limit.
	ErrCallTimeout = errors.New("model call timed out")

	// ErrUnboundRole marks a role with no client behind it.
	ErrUnboundRole = errors.New("no client bound for role")
)

// splitSystem separates system text from conversation turns for providers
// with a dedicated system field. Turn order is preserved.
func splitSystem(messages []Message) (string, []Message) {
	var system []string
	turns := make([]Message, 0, len(messages))
	for _, m := range messages {
		if m.Role == roleSystem {
			system = append(system, m.Content)
			continue
		}
		turns = append(turns, m)
	}
	return strings.Join(system, "\n\n"), turns
}

// wantsJSON reports whether any turn asks for JSON output.
func wantsJSON(messages []Message) bool {
	for _, m := range messages {
		if strings.Contains(strings.ToUpper(m.Content), "JSON") {
			return true
		}
	}
	return false
}
