package intent

import "fmt"

// ParseError describes call text that does not match the call grammar.
// Offending holds the substring the parser choked on, when one exists.
type ParseError struct {
	Offending string
	Reason    string
}

func (e *ParseError) Error() string {
	if e.Offending == "" {
		return fmt.Sprintf("invalid function call format: %s", e.Reason)
	}
	return fmt.Sprintf("invalid function call format: %s (at %q)", e.Reason, e.Offending)
}

// ValidationRule identifies which admission rule a call violated.
type ValidationRule string

const (
	RuleUnknownAction   ValidationRule = "unknown_action"
	RuleUnknownArgument ValidationRule = "unknown_argument"
	RuleMissingArgument ValidationRule = "missing_argument"
	RuleTypeMismatch    ValidationRule = "type_mismatch"
)

// ValidationError describes a well-formed but inadmissible call.
// Key is set for argument-level violations.
type ValidationError struct {
	Rule   ValidationRule
	Action string
	Key    string
	Reason string
}

func (e *ValidationError) Error() string {
	switch e.Rule {
	case RuleUnknownAction:
		return fmt.Sprintf("action %q is not allowed: %s", e.Action, e.Reason)
	default:
		return fmt.Sprintf("action %q, argument %q: %s", e.Action, e.Key, e.Reason)
	}
}

// DomainError reports a collaborator failure during action execution,
// e.g. geocoding failed or an upstream API was unreachable.
type DomainError struct {
	Op  string
	Err error
}

func (e *DomainError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *DomainError) Unwrap() error { return e.Err }
