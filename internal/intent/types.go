package intent

import (
	"context"
	"time"
)

// Status classifies the outcome of one pipeline run.
type Status string

const (
	// StatusSuccess means the action ran and returned a value.
	StatusSuccess Status = "success"
	// StatusFailure means the call was rejected before execution
	// (bad format, unknown action, missing or invalid argument).
	StatusFailure Status = "failure"
	// StatusError means the action handler itself failed during execution.
	StatusError Status = "error"
)

// Envelope is the uniform result record flowing out of the pipeline.
// It is created once per run and never mutated, only rebuilt.
type Envelope struct {
	Request   string    `json:"request"`
	Status    Status    `json:"status"`
	Data      string    `json:"data"`
	Timestamp time.Time `json:"timestamp"`
}

// PublicResponse is the shape handed to the surrounding web/voice layer.
type PublicResponse struct {
	Type     string `json:"type"` // "statement" or "question"
	Response string `json:"response"`
}

const (
	ResponseStatement = "statement"
	ResponseQuestion  = "question"
)

// LiteralKind tags the syntactic form of an argument value.
type LiteralKind string

const (
	LiteralString LiteralKind = "string" // quoted
	LiteralNumber LiteralKind = "number" // bare decimal
	LiteralIdent  LiteralKind = "ident"  // bare identifier (true, false, None, ...)
)

// Literal is one parsed argument value. Text holds the decoded string for
// quoted literals and the raw token otherwise.
type Literal struct {
	Kind LiteralKind
	Text string
}

// Argument is one key=value pair in call order.
type Argument struct {
	Key   string
	Value Literal
}

// CallDescriptor is the structured form of a model-produced call string.
// Argument keys are unique; order is preserved. Immutable once created.
type CallDescriptor struct {
	Action string
	Args   []Argument
}

// ParamType is the declared type of an action parameter.
type ParamType string

const (
	TypeString ParamType = "string"
	TypeNumber ParamType = "number"
	TypeBool   ParamType = "boolean"
)

// Param declares one parameter of an action.
type Param struct {
	Name        string
	Type        ParamType
	Description string
	Required    bool
	// Default fills the argument when an optional parameter is absent.
	// nil means absent optionals stay unset.
	Default any
}

// Handler executes an action with validated arguments. Argument values are
// string, float64, or bool according to the declared parameter type.
// Collaborator failures are reported as *DomainError.
type Handler func(ctx context.Context, args map[string]any) (string, error)

// ActionSpec declares one registered capability: its name, parameter
// schema, and handler.
type ActionSpec struct {
	Name        string
	Description string
	Params      []Param
	Handler     Handler
}

// Param returns the declared parameter with the given name.
func (s *ActionSpec) Param(name string) (Param, bool) {
	for _, p := range s.Params {
		if p.Name == name {
			return p, true
		}
	}
	return Param{}, false
}

// ValidatedCall is a call whose argument mapping is complete and
// type-correct for the target handler.
type ValidatedCall struct {
	Spec *ActionSpec
	Args map[string]any
}
