package llm

import (
	"context"
	"errors"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/nexa-assistant/nexa/internal/intent"
	"github.com/nexa-assistant/nexa/internal/provider"
)

type fakeProvider struct {
	id       string
	reply    string
	err      error
	requests []*provider.CompletionRequest
}

func (f *fakeProvider) ID() string { return f.id }

func (f *fakeProvider) Complete(_ context.Context, req *provider.CompletionRequest) (*provider.CompletionResponse, error) {
	f.requests = append(f.requests, req)
	if f.err != nil {
		return nil, f.err
	}
	return &provider.CompletionResponse{Content: f.reply}, nil
}

func testService(t *testing.T, fn, ans *fakeProvider) *Service {
	t.Helper()
	reg, err := intent.NewRegistry(intent.ActionSpec{
		Name:        "ask_the_ai",
		Description: "Answer a general question.",
		Params: []intent.Param{
			{Name: "query", Type: intent.TypeString, Required: true},
		},
		Handler: func(context.Context, map[string]any) (string, error) { return "", nil },
	})
	if err != nil {
		t.Fatal(err)
	}
	return NewService(fn, ans, "ollama/nexus", "ollama/llama3", reg, zap.NewNop())
}

func TestInferCallRequestShape(t *testing.T) {
	fn := &fakeProvider{id: "ollama", reply: "  Call: ask_the_ai(query='hi')\n"}
	svc := testService(t, fn, &fakeProvider{id: "ollama"})

	call, err := svc.InferCall(context.Background(), "say hi")
	if err != nil {
		t.Fatal(err)
	}
	if call != "Call: ask_the_ai(query='hi')" {
		t.Errorf("call = %q, want trimmed call text", call)
	}

	if len(fn.requests) != 1 {
		t.Fatalf("requests = %d", len(fn.requests))
	}
	req := fn.requests[0]
	if req.Model != "nexus" {
		t.Errorf("Model = %q", req.Model)
	}
	if req.Temperature == nil || *req.Temperature != 0.001 {
		t.Errorf("Temperature = %v", req.Temperature)
	}
	if len(req.Stop) != 1 || req.Stop[0] != "<bot_end>" {
		t.Errorf("Stop = %v", req.Stop)
	}
	if len(req.Messages) != 1 || req.Messages[0].Role != provider.RoleUser {
		t.Fatalf("Messages = %+v", req.Messages)
	}
	prompt := req.Messages[0].Content
	if !strings.Contains(prompt, "Function: ask_the_ai") {
		t.Errorf("prompt missing function definition:\n%s", prompt)
	}
	if !strings.Contains(prompt, "User utterance: say hi") {
		t.Errorf("prompt missing utterance:\n%s", prompt)
	}
}

func TestInferCallProviderError(t *testing.T) {
	fn := &fakeProvider{id: "ollama", err: errors.New("connection refused")}
	svc := testService(t, fn, &fakeProvider{id: "ollama"})

	if _, err := svc.InferCall(context.Background(), "say hi"); err == nil {
		t.Fatal("expected error")
	} else if !strings.Contains(err.Error(), "connection refused") {
		t.Errorf("err = %v", err)
	}
}

func TestInferAnswerSystemRole(t *testing.T) {
	ans := &fakeProvider{id: "ollama", reply: "Certainly."}
	svc := testService(t, &fakeProvider{id: "ollama"}, ans)

	got, err := svc.InferAnswer(context.Background(), "please answer", "You are a calm and professional assistant.")
	if err != nil {
		t.Fatal(err)
	}
	if got != "Certainly." {
		t.Errorf("answer = %q", got)
	}

	req := ans.requests[0]
	if req.Model != "llama3" {
		t.Errorf("Model = %q", req.Model)
	}
	if len(req.Messages) != 2 {
		t.Fatalf("Messages = %+v", req.Messages)
	}
	if req.Messages[0].Role != provider.RoleSystem || req.Messages[0].Content != "You are a calm and professional assistant." {
		t.Errorf("system message = %+v", req.Messages[0])
	}
	if req.Messages[1].Role != provider.RoleUser {
		t.Errorf("user message = %+v", req.Messages[1])
	}
}

func TestInferAnswerNoSystemRole(t *testing.T) {
	ans := &fakeProvider{id: "ollama", reply: "ok"}
	svc := testService(t, &fakeProvider{id: "ollama"}, ans)

	if _, err := svc.InferAnswer(context.Background(), "prompt", ""); err != nil {
		t.Fatal(err)
	}
	if len(ans.requests[0].Messages) != 1 {
		t.Errorf("Messages = %+v, want user message only", ans.requests[0].Messages)
	}
}
