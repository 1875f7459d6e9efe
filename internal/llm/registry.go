package llm

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Role names a pipeline capability.
type Role string

const (
	RoleContextAnalyzer   Role = "context_analyzer"
	RoleResearchEngine    Role = "research_engine"
	RoleValidator         Role = "validator"
	RoleSolutionArchitect Role = "solution_architect"
)

// Roles returns every pipeline role in stage order.
func Roles() []Role {
	return []Role{RoleContextAnalyzer, RoleResearchEngine, RoleValidator, RoleSolutionArchitect}
}

// DefaultCallTimeout bounds a single model call.
const DefaultCallTimeout = 120 * time.Second

// Registry dispatches role invocations to their bound clients under one
// per-call timeout.
type Registry struct {
	clients map[Role]Client
	timeout time.Duration
}

// NewRegistry builds a registry from role bindings. The role set is closed:
// a missing binding fails construction, never a later call. A non-positive
// timeout falls back to DefaultCallTimeout.
func NewRegistry(bindings map[Role]Client, timeout time.Duration) (*Registry, error) {
	clients := make(map[Role]Client, len(bindings))
	for _, role := range Roles() {
		client := bindings[role]
		if client == nil {
			return nil, fmt.Errorf("%w: %s", ErrUnboundRole, role)
		}
		clients[role] = client
	}
	if timeout <= 0 {
		timeout = DefaultCallTimeout
	}
	return &Registry{clients: clients, timeout: timeout}, nil
}

// Timeout returns the per-call time limit.
func (r *Registry) Timeout() time.Duration {
	return r.timeout
}

// Invoke runs one model call for the role. A call that outlives the per-call
// limit reports ErrCallTimeout; cancellation of the parent context passes
// through unclassified.
func (r *Registry) Invoke(ctx context.Context, role Role, messages []Message) (string, error) {
	client, ok := r.clients[role]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnboundRole, role)
	}

	callCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	result, err := client.Invoke(callCtx, messages)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
			return "", fmt.Errorf("role %s: %w", role, ErrCallTimeout)
		}
		return "", fmt.Errorf("role %s: %w", role, err)
	}
	return result, nil
}
