package intent

import (
	"fmt"
	"strings"
)

// BuildCallPrompt renders the function-selection prompt for the function
// model. The function definitions are generated from the registry so the
// model can only ever be told about registered actions.
func BuildCallPrompt(registry *Registry, utterance string) string {
	var sb strings.Builder

	sb.WriteString("You translate a user's utterance into exactly one call to one of the functions defined below.\n")
	sb.WriteString("Reply with a single line of the form:\n\n")
	sb.WriteString("Call: function_name(key='value', other_key='value')\n\n")
	sb.WriteString("Rules:\n")
	sb.WriteString("- Output nothing before or after the call line.\n")
	sb.WriteString("- Argument values must be literals: quoted strings, plain numbers, or true/false.\n")
	sb.WriteString("- Never reference variables, do arithmetic, or nest function calls inside arguments.\n")
	sb.WriteString("- Omit optional arguments you have no value for.\n\n")

	for _, spec := range registry.List() {
		sb.WriteString(fmt.Sprintf("Function: %s\n", spec.Name))
		if spec.Description != "" {
			sb.WriteString("  " + spec.Description + "\n")
		}
		if len(spec.Params) > 0 {
			sb.WriteString("  Arguments:\n")
			for _, p := range spec.Params {
				sb.WriteString("    - " + p.Name + " (" + string(p.Type))
				if p.Required {
					sb.WriteString(", required")
				} else if p.Default != nil {
					sb.WriteString(fmt.Sprintf(", optional, default %v", p.Default))
				} else {
					sb.WriteString(", optional")
				}
				sb.WriteString(")")
				if p.Description != "" {
					sb.WriteString(": " + p.Description)
				}
				sb.WriteString("\n")
			}
		}
		sb.WriteString("\n")
	}

	sb.WriteString("User utterance: " + utterance + "\n")
	return sb.String()
}
