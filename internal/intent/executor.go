package intent

import (
	"context"
	"fmt"
	"time"
)

// DefaultHandlerTimeout bounds a single action execution. Collaborators
// own their own retry policy; the executor never retries.
const DefaultHandlerTimeout = 30 * time.Second

// Executor invokes validated calls and converts every outcome, including
// handler panics and timeouts, into a ResultEnvelope. A collaborator fault
// must never terminate the pipeline.
type Executor struct {
	Timeout time.Duration
	now     func() time.Time
}

// NewExecutor returns an executor with the default handler timeout.
func NewExecutor() *Executor {
	return &Executor{Timeout: DefaultHandlerTimeout, now: time.Now}
}

type handlerOutcome struct {
	text string
	err  error
}

// Execute runs exactly one action. request is the original raw call text
// carried into the envelope.
func (e *Executor) Execute(ctx context.Context, request string, call *ValidatedCall) Envelope {
	callCtx, cancel := context.WithTimeout(ctx, e.timeout())
	defer cancel()

	done := make(chan handlerOutcome, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- handlerOutcome{err: fmt.Errorf("action %s panicked: %v", call.Spec.Name, r)}
			}
		}()
		text, err := call.Spec.Handler(callCtx, call.Args)
		done <- handlerOutcome{text: text, err: err}
	}()

	select {
	case out := <-done:
		if out.err != nil {
			return e.envelope(request, StatusError, out.err.Error())
		}
		return e.envelope(request, StatusSuccess, out.text)
	case <-callCtx.Done():
		return e.envelope(request, StatusError,
			fmt.Sprintf("action %s timed out after %s", call.Spec.Name, e.timeout()))
	}
}

// Reject builds the envelope for a call the pipeline refused before
// execution (parse or validation failure).
func (e *Executor) Reject(request string, err error) Envelope {
	return e.envelope(request, StatusFailure, err.Error())
}

func (e *Executor) envelope(request string, status Status, data string) Envelope {
	return Envelope{
		Request:   request,
		Status:    status,
		Data:      data,
		Timestamp: e.clock()(),
	}
}

func (e *Executor) timeout() time.Duration {
	if e.Timeout > 0 {
		return e.Timeout
	}
	return DefaultHandlerTimeout
}

func (e *Executor) clock() func() time.Time {
	if e.now != nil {
		return e.now
	}
	return time.Now
}
