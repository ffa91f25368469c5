package intent

import (
	"fmt"
	"strconv"
)

// Validate checks a parsed call against the registry and coerces its
// arguments to the declared parameter types. Rules run in order and the
// first violation wins: unknown action, unknown argument, missing required
// argument, type mismatch. Absent optionals with declared defaults are
// filled in.
func Validate(call *CallDescriptor, registry *Registry) (*ValidatedCall, error) {
	spec, ok := registry.Get(call.Action)
	if !ok {
		return nil, &ValidationError{
			Rule:   RuleUnknownAction,
			Action: call.Action,
			Reason: "unknown action",
		}
	}

	for _, arg := range call.Args {
		if _, declared := spec.Param(arg.Key); !declared {
			return nil, &ValidationError{
				Rule:   RuleUnknownArgument,
				Action: spec.Name,
				Key:    arg.Key,
				Reason: "not a declared parameter",
			}
		}
	}

	supplied := make(map[string]Literal, len(call.Args))
	for _, arg := range call.Args {
		supplied[arg.Key] = arg.Value
	}

	for _, p := range spec.Params {
		if p.Required {
			if _, ok := supplied[p.Name]; !ok {
				return nil, &ValidationError{
					Rule:   RuleMissingArgument,
					Action: spec.Name,
					Key:    p.Name,
					Reason: "required argument missing",
				}
			}
		}
	}

	args := make(map[string]any, len(spec.Params))
	for _, p := range spec.Params {
		lit, ok := supplied[p.Name]
		if !ok {
			if !p.Required && p.Default != nil {
				args[p.Name] = p.Default
			}
			continue
		}
		value, err := coerce(lit, p.Type)
		if err != nil {
			return nil, &ValidationError{
				Rule:   RuleTypeMismatch,
				Action: spec.Name,
				Key:    p.Name,
				Reason: err.Error(),
			}
		}
		args[p.Name] = value
	}

	return &ValidatedCall{Spec: spec, Args: args}, nil
}

// coerce converts one literal to the declared parameter type. Coercion is
// explicit and total: numbers parse via the strict decimal grammar the
// parser already enforced, booleans only from the true/false tokens, and
// string parameters accept any literal as its text.
func coerce(lit Literal, typ ParamType) (any, error) {
	switch typ {
	case TypeString:
		return lit.Text, nil

	case TypeNumber:
		if lit.Kind == LiteralIdent {
			return nil, fmt.Errorf("expected a number, got identifier %q", lit.Text)
		}
		if !numberPattern.MatchString(lit.Text) {
			return nil, fmt.Errorf("expected a number, got %q", lit.Text)
		}
		f, err := strconv.ParseFloat(lit.Text, 64)
		if err != nil {
			return nil, fmt.Errorf("expected a number, got %q", lit.Text)
		}
		return f, nil

	case TypeBool:
		switch lit.Text {
		case "true":
			return true, nil
		case "false":
			return false, nil
		default:
			return nil, fmt.Errorf("expected true or false, got %q", lit.Text)
		}

	default:
		return nil, fmt.Errorf("unknown parameter type %q", typ)
	}
}
