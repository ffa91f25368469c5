package intent

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

func validatedCall(t *testing.T, spec ActionSpec, args map[string]any) *ValidatedCall {
	t.Helper()
	if args == nil {
		args = map[string]any{}
	}
	return &ValidatedCall{Spec: &spec, Args: args}
}

func TestExecuteSuccess(t *testing.T) {
	spec := ActionSpec{
		Name: "get_weather_forecast",
		Handler: func(_ context.Context, args map[string]any) (string, error) {
			if args["duration"] != "today" {
				t.Errorf("duration = %v", args["duration"])
			}
			return "Sunny, 20°C", nil
		},
	}
	exec := NewExecutor()

	env := exec.Execute(context.Background(), "Call: get_weather_forecast(duration='today')",
		validatedCall(t, spec, map[string]any{"duration": "today"}))

	if env.Status != StatusSuccess {
		t.Fatalf("Status = %q", env.Status)
	}
	if env.Data != "Sunny, 20°C" {
		t.Errorf("Data = %q", env.Data)
	}
	if env.Request != "Call: get_weather_forecast(duration='today')" {
		t.Errorf("Request = %q", env.Request)
	}
	if env.Timestamp.IsZero() {
		t.Error("Timestamp not set")
	}
}

func TestExecuteDomainError(t *testing.T) {
	spec := ActionSpec{
		Name: "get_weather_forecast",
		Handler: func(context.Context, map[string]any) (string, error) {
			return "", &DomainError{Op: "geocoding location", Err: errors.New("connection refused")}
		},
	}
	exec := NewExecutor()

	env := exec.Execute(context.Background(), "req", validatedCall(t, spec, nil))
	if env.Status != StatusError {
		t.Fatalf("Status = %q, want error", env.Status)
	}
	if !strings.Contains(env.Data, "geocoding location") {
		t.Errorf("Data = %q", env.Data)
	}
}

func TestExecuteRecoverPanic(t *testing.T) {
	spec := ActionSpec{
		Name: "explode",
		Handler: func(context.Context, map[string]any) (string, error) {
			panic("boom")
		},
	}
	exec := NewExecutor()

	env := exec.Execute(context.Background(), "req", validatedCall(t, spec, nil))
	if env.Status != StatusError {
		t.Fatalf("Status = %q, want error", env.Status)
	}
	if !strings.Contains(env.Data, "panicked") {
		t.Errorf("Data = %q", env.Data)
	}
}

func TestExecuteTimeout(t *testing.T) {
	spec := ActionSpec{
		Name: "slow",
		Handler: func(ctx context.Context, _ map[string]any) (string, error) {
			<-ctx.Done()
			time.Sleep(50 * time.Millisecond)
			return "too late", nil
		},
	}
	exec := NewExecutor()
	exec.Timeout = 10 * time.Millisecond

	env := exec.Execute(context.Background(), "req", validatedCall(t, spec, nil))
	if env.Status != StatusError {
		t.Fatalf("Status = %q, want error", env.Status)
	}
	if !strings.Contains(env.Data, "timed out") {
		t.Errorf("Data = %q", env.Data)
	}
}

func TestRejectBuildsFailureEnvelope(t *testing.T) {
	exec := NewExecutor()
	env := exec.Reject("please compute 2+2", &ParseError{Reason: "missing \"Call:\" prefix"})

	if env.Status != StatusFailure {
		t.Fatalf("Status = %q", env.Status)
	}
	if !strings.Contains(env.Data, "missing") {
		t.Errorf("Data = %q", env.Data)
	}
	if env.Request != "please compute 2+2" {
		t.Errorf("Request = %q", env.Request)
	}
}
