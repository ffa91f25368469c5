package intent

import (
	"context"
	"errors"
	"testing"
)

func testRegistry(t *testing.T) *Registry {
	t.Helper()
	typedSpec := ActionSpec{
		Name:    "set_timer",
		Handler: echoHandler,
		Params: []Param{
			{Name: "minutes", Type: TypeNumber, Required: true},
			{Name: "repeat", Type: TypeBool, Default: false},
			{Name: "label", Type: TypeString},
		},
	}
	reg, err := NewRegistry(weatherSpec(), askSpec(), typedSpec)
	if err != nil {
		t.Fatal(err)
	}
	return reg
}

func mustParse(t *testing.T, raw string) *CallDescriptor {
	t.Helper()
	call, err := Parse(raw)
	if err != nil {
		t.Fatalf("Parse(%q): %v", raw, err)
	}
	return call
}

func TestValidateFillsDefaults(t *testing.T) {
	reg := testRegistry(t)
	call := mustParse(t, "Call: get_weather_forecast(weather_condition='snow')")

	validated, err := Validate(call, reg)
	if err != nil {
		t.Fatal(err)
	}
	if validated.Args["duration"] != "today" {
		t.Errorf("duration = %v, want default today", validated.Args["duration"])
	}
	if validated.Args["weather_condition"] != "snow" {
		t.Errorf("weather_condition = %v", validated.Args["weather_condition"])
	}
	// Optionals without defaults stay unset.
	if _, ok := validated.Args["location"]; ok {
		t.Error("location should be absent")
	}
	if len(validated.Args) != 2 {
		t.Errorf("args = %v, want exactly supplied + defaults", validated.Args)
	}
}

func TestValidateCoercesTypes(t *testing.T) {
	reg := testRegistry(t)
	call := mustParse(t, "Call: set_timer(minutes=12.5, repeat=true, label='tea')")

	validated, err := Validate(call, reg)
	if err != nil {
		t.Fatal(err)
	}
	if got := validated.Args["minutes"]; got != 12.5 {
		t.Errorf("minutes = %v (%T)", got, got)
	}
	if got := validated.Args["repeat"]; got != true {
		t.Errorf("repeat = %v (%T)", got, got)
	}
	if got := validated.Args["label"]; got != "tea" {
		t.Errorf("label = %v", got)
	}
}

func TestValidateQuotedNumberAndBool(t *testing.T) {
	reg := testRegistry(t)
	call := mustParse(t, "Call: set_timer(minutes='3', repeat='false')")

	validated, err := Validate(call, reg)
	if err != nil {
		t.Fatal(err)
	}
	if got := validated.Args["minutes"]; got != 3.0 {
		t.Errorf("minutes = %v (%T)", got, got)
	}
	if got := validated.Args["repeat"]; got != false {
		t.Errorf("repeat = %v (%T)", got, got)
	}
}

func TestValidateRuleOrder(t *testing.T) {
	reg := testRegistry(t)

	tests := []struct {
		name string
		raw  string
		rule ValidationRule
		key  string
	}{
		{"unknown action", "Call: delete_everything()", RuleUnknownAction, ""},
		{"unknown argument", "Call: ask_the_ai(query='hi', volume=11)", RuleUnknownArgument, "volume"},
		{"missing required", "Call: ask_the_ai()", RuleMissingArgument, "query"},
		{"number mismatch", "Call: set_timer(minutes='soon')", RuleTypeMismatch, "minutes"},
		{"bool mismatch", "Call: set_timer(minutes=1, repeat='maybe')", RuleTypeMismatch, "repeat"},
		// Unknown argument is checked before missing required args.
		{"unknown beats missing", "Call: ask_the_ai(volume=11)", RuleUnknownArgument, "volume"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Validate(mustParse(t, tt.raw), reg)
			if err == nil {
				t.Fatal("expected validation error")
			}
			var ve *ValidationError
			if !errors.As(err, &ve) {
				t.Fatalf("error type = %T", err)
			}
			if ve.Rule != tt.rule {
				t.Errorf("Rule = %q, want %q", ve.Rule, tt.rule)
			}
			if ve.Key != tt.key {
				t.Errorf("Key = %q, want %q", ve.Key, tt.key)
			}
		})
	}
}

func TestValidateArgumentMappingIsComplete(t *testing.T) {
	// parse + validate on a fully supplied call yields exactly the union of
	// required, supplied optional, and defaulted params.
	reg := testRegistry(t)
	call := mustParse(t, "Call: set_timer(minutes=5)")

	validated, err := Validate(call, reg)
	if err != nil {
		t.Fatal(err)
	}
	want := map[string]any{"minutes": 5.0, "repeat": false}
	if len(validated.Args) != len(want) {
		t.Fatalf("args = %v, want %v", validated.Args, want)
	}
	for k, v := range want {
		if validated.Args[k] != v {
			t.Errorf("args[%q] = %v, want %v", k, validated.Args[k], v)
		}
	}
}

func TestValidateHandlerUntouched(t *testing.T) {
	// Validation must never invoke the handler.
	called := false
	spec := ActionSpec{
		Name: "probe",
		Handler: func(context.Context, map[string]any) (string, error) {
			called = true
			return "", nil
		},
	}
	reg, err := NewRegistry(spec)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := Validate(mustParse(t, "Call: probe()"), reg); err != nil {
		t.Fatal(err)
	}
	if called {
		t.Error("validator invoked the handler")
	}
}
