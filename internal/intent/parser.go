package intent

import (
	"fmt"
	"regexp"
	"strings"
)

// callPrefix is the literal the function model is prompted to emit.
const callPrefix = "Call:"

var (
	identPattern  = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)
	numberPattern = regexp.MustCompile(`^-?[0-9]+(\.[0-9]+)?$`)
)

// Parse converts raw model output into a CallDescriptor. The grammar is
// deliberately closed: "Call:" followed by an identifier and a
// parenthesized, comma-separated list of key=value pairs whose values are
// quoted strings, bare numbers, or bare identifiers. Nothing in the input
// is ever evaluated; anything outside the grammar is a *ParseError.
func Parse(raw string) (*CallDescriptor, error) {
	p := &callParser{input: strings.TrimSpace(raw)}
	return p.parse()
}

type callParser struct {
	input string
	pos   int
}

func (p *callParser) parse() (*CallDescriptor, error) {
	if !strings.HasPrefix(p.input, callPrefix) {
		return nil, &ParseError{
			Offending: head(p.input),
			Reason:    fmt.Sprintf("missing %q prefix", callPrefix),
		}
	}
	p.pos = len(callPrefix)
	p.skipSpaces()

	name, err := p.scanIdent("action name")
	if err != nil {
		return nil, err
	}

	p.skipSpaces()
	if !p.consume('(') {
		return nil, &ParseError{
			Offending: head(p.rest()),
			Reason:    "expected '(' after action name",
		}
	}

	call := &CallDescriptor{Action: name}
	seen := make(map[string]bool)

	p.skipSpaces()
	if !p.consume(')') {
		for {
			arg, err := p.scanArgument()
			if err != nil {
				return nil, err
			}
			if seen[arg.Key] {
				return nil, &ParseError{
					Offending: arg.Key,
					Reason:    "duplicate argument key",
				}
			}
			seen[arg.Key] = true
			call.Args = append(call.Args, arg)

			p.skipSpaces()
			if p.consume(')') {
				break
			}
			if !p.consume(',') {
				return nil, &ParseError{
					Offending: head(p.rest()),
					Reason:    "expected ',' or ')' after argument value",
				}
			}
			p.skipSpaces()
			if p.peek() == ')' {
				return nil, &ParseError{
					Offending: ",)",
					Reason:    "trailing comma in argument list",
				}
			}
		}
	}

	if rest := strings.TrimSpace(p.rest()); rest != "" {
		return nil, &ParseError{
			Offending: head(rest),
			Reason:    "trailing characters after call",
		}
	}
	return call, nil
}

func (p *callParser) scanArgument() (Argument, error) {
	key, err := p.scanIdent("argument key")
	if err != nil {
		return Argument{}, err
	}
	p.skipSpaces()
	if !p.consume('=') {
		return Argument{}, &ParseError{
			Offending: key,
			Reason:    "expected '=' after argument key",
		}
	}
	p.skipSpaces()
	value, err := p.scanLiteral()
	if err != nil {
		return Argument{}, err
	}
	return Argument{Key: key, Value: value}, nil
}

// scanLiteral accepts exactly one quoted string, bare number, or bare
// identifier. Expressions, name references, and nested calls are rejected.
func (p *callParser) scanLiteral() (Literal, error) {
	switch c := p.peek(); c {
	case '\'', '"':
		return p.scanQuoted(c)
	case 0:
		return Literal{}, &ParseError{Reason: "unexpected end of input, expected argument value"}
	}

	start := p.pos
	for p.pos < len(p.input) {
		c := p.input[p.pos]
		if c == ',' || c == ')' || c == ' ' || c == '\t' {
			break
		}
		p.pos++
	}
	token := p.input[start:p.pos]
	switch {
	case token == "":
		return Literal{}, &ParseError{
			Offending: head(p.rest()),
			Reason:    "expected argument value",
		}
	case numberPattern.MatchString(token):
		return Literal{Kind: LiteralNumber, Text: token}, nil
	case identPattern.MatchString(token):
		return Literal{Kind: LiteralIdent, Text: token}, nil
	case strings.Contains(token, "("):
		return Literal{}, &ParseError{
			Offending: token,
			Reason:    "nested call in argument value",
		}
	default:
		return Literal{}, &ParseError{
			Offending: token,
			Reason:    "value is not a literal (only quoted strings, numbers, and bare identifiers are allowed)",
		}
	}
}

func (p *callParser) scanQuoted(quote byte) (Literal, error) {
	p.pos++ // opening quote
	var sb strings.Builder
	for p.pos < len(p.input) {
		c := p.input[p.pos]
		switch c {
		case quote:
			p.pos++
			return Literal{Kind: LiteralString, Text: sb.String()}, nil
		case '\\':
			p.pos++
			if p.pos >= len(p.input) {
				return Literal{}, &ParseError{Reason: "unterminated escape in string literal"}
			}
			switch e := p.input[p.pos]; e {
			case 'n':
				sb.WriteByte('\n')
			case 't':
				sb.WriteByte('\t')
			case '\\', '\'', '"':
				sb.WriteByte(e)
			default:
				return Literal{}, &ParseError{
					Offending: string([]byte{'\\', e}),
					Reason:    "unsupported escape sequence",
				}
			}
			p.pos++
		default:
			sb.WriteByte(c)
			p.pos++
		}
	}
	return Literal{}, &ParseError{
		Offending: head(sb.String()),
		Reason:    "unterminated string literal",
	}
}

func (p *callParser) scanIdent(what string) (string, error) {
	start := p.pos
	for p.pos < len(p.input) {
		c := p.input[p.pos]
		if c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9' || c == '_' {
			p.pos++
			continue
		}
		break
	}
	token := p.input[start:p.pos]
	if !identPattern.MatchString(token) {
		return "", &ParseError{
			Offending: head(p.input[start:]),
			Reason:    fmt.Sprintf("expected %s identifier", what),
		}
	}
	return token, nil
}

func (p *callParser) skipSpaces() {
	for p.pos < len(p.input) && (p.input[p.pos] == ' ' || p.input[p.pos] == '\t') {
		p.pos++
	}
}

func (p *callParser) peek() byte {
	if p.pos >= len(p.input) {
		return 0
	}
	return p.input[p.pos]
}

func (p *callParser) consume(c byte) bool {
	if p.peek() == c {
		p.pos++
		return true
	}
	return false
}

func (p *callParser) rest() string {
	if p.pos >= len(p.input) {
		return ""
	}
	return p.input[p.pos:]
}

// head trims a snippet for error reporting.
func head(s string) string {
	const max = 24
	if len(s) > max {
		return s[:max] + "..."
	}
	return s
}
