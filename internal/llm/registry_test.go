package llm

import (
	"context"
	"errors"
	"testing"
	"time"
)

type stubClient struct {
	reply string
	err   error
	delay time.Duration
}

func (s *stubClient) Invoke(ctx context.Context, _ []Message) (string, error) {
	if s.delay > 0 {
		select {
		case <-time.After(s.delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	if s.err != nil {
		return "", s.err
	}
	return s.reply, nil
}

func fullBindings(client Client) map[Role]Client {
	bindings := make(map[Role]Client)
	for _, role := range Roles() {
		bindings[role] = client
	}
	return bindings
}

func TestNewRegistryRequiresEveryRole(t *testing.T) {
	for _, missing := range Roles() {
		t.Run(string(missing), func(t *testing.T) {
			bindings := fullBindings(&stubClient{reply: "ok"})
			delete(bindings, missing)

			_, err := NewRegistry(bindings, time.Second)
			if !errors.Is(err, ErrUnboundRole) {
				t.Errorf("err = %v, want ErrUnboundRole", err)
			}
		})
	}
}

func TestNewRegistryComplete(t *testing.T) {
	r, err := NewRegistry(fullBindings(&stubClient{reply: "ok"}), 0)
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}
	if r.Timeout() != DefaultCallTimeout {
		t.Errorf("timeout = %v, want default", r.Timeout())
	}
}

func TestRegistryRoutesByRole(t *testing.T) {
	bindings := map[Role]Client{
		RoleContextAnalyzer:   &stubClient{reply: "context"},
		RoleResearchEngine:    &stubClient{reply: "research"},
		RoleValidator:         &stubClient{reply: "validation"},
		RoleSolutionArchitect: &stubClient{reply: "solutions"},
	}
	r, err := NewRegistry(bindings, time.Second)
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}

	got, err := r.Invoke(context.Background(), RoleValidator, []Message{UserMessage("check")})
	if err != nil {
		t.Fatalf("Invoke: %v", err)
	}
	if got != "validation" {
		t.Errorf("reply = %q, want validation", got)
	}
}

func TestRegistryCallTimeout(t *testing.T) {
	slow := &stubClient{reply: "late", delay: time.Second}
	r, err := NewRegistry(fullBindings(slow), 20*time.Millisecond)
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}

	_, err = r.Invoke(context.Background(), RoleResearchEngine, []Message{UserMessage("go")})
	if !errors.Is(err, ErrCallTimeout) {
		t.Errorf("err = %v, want ErrCallTimeout", err)
	}
}

func TestRegistryParentCancelNotClassifiedAsTimeout(t *testing.T) {
	slow := &stubClient{reply: "late", delay: time.Second}
	r, err := NewRegistry(fullBindings(slow), time.Minute)
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	_, err = r.Invoke(ctx, RoleValidator, []Message{UserMessage("go")})
	if err == nil {
		t.Fatal("expected error")
	}
	if errors.Is(err, ErrCallTimeout) {
		t.Error("parent cancellation must not classify as call timeout")
	}
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled in chain", err)
	}
}

func TestRegistryPreservesCapabilityError(t *testing.T) {
	broken := &stubClient{err: ErrCapabilityUnavailable}
	r, err := NewRegistry(fullBindings(broken), time.Second)
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}

	_, err = r.Invoke(context.Background(), RoleSolutionArchitect, []Message{UserMessage("go")})
	if !errors.Is(err, ErrCapabilityUnavailable) {
		t.Errorf("err = %v, want ErrCapabilityUnavailable in chain", err)
	}
}
