package llmjson

import (
	"encoding/json"
	"errors"
	"reflect"
	"testing"
)

func TestRepairMissingClosingBraceRoundTrip(t *testing.T) {
	damaged := `{"risk": "High", "summary": "reservoirs are low", "sources": ["https://a.example"]`
	corrected := `{"risk": "High", "summary": "reservoirs are low", "sources": ["https://a.example"]}`

	var got, want map[string]any
	if err := DecodeObject(damaged, &got); err != nil {
		t.Fatalf("DecodeObject(damaged) error = %v", err)
	}
	if err := json.Unmarshal([]byte(corrected), &want); err != nil {
		t.Fatalf("unmarshal corrected: %v", err)
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("repaired object = %#v, want %#v", got, want)
	}
}

func TestRepairTrailingCommas(t *testing.T) {
	var v struct {
		Agent    string `json:"agent"`
		Location string `json:"location"`
	}
	raw := `{"agent": "weather", "location": "Reykjavik",}`
	if err := DecodeObject(raw, &v); err != nil {
		t.Fatalf("DecodeObject error = %v", err)
	}
	if v.Agent != "weather" || v.Location != "Reykjavik" {
		t.Fatalf("decoded = %+v", v)
	}
}

func TestRepairUnquotedKeys(t *testing.T) {
	var v struct {
		Agent    string `json:"agent"`
		Location string `json:"location"`
	}
	raw := `{agent: "waterShortage", location: "Chennai"}`
	if err := DecodeObject(raw, &v); err != nil {
		t.Fatalf("DecodeObject error = %v", err)
	}
	if v.Agent != "waterShortage" || v.Location != "Chennai" {
		t.Fatalf("decoded = %+v", v)
	}
}

func TestRepairStripsFencesAndProse(t *testing.T) {
	var v struct {
		Risk string `json:"risk"`
	}
	raw := "Here is the assessment you asked for:\n```json\n{\"risk\": \"Low\"}\n```\nLet me know if you need more."
	if err := DecodeObject(raw, &v); err != nil {
		t.Fatalf("DecodeObject error = %v", err)
	}
	if v.Risk != "Low" {
		t.Fatalf("risk = %q, want Low", v.Risk)
	}
}

func TestRepairIgnoresBracesInsideStrings(t *testing.T) {
	var v struct {
		Summary string `json:"summary"`
	}
	raw := `{"summary": "rainfall {mm} was \"low\" this year"}`
	if err := DecodeObject(raw, &v); err != nil {
		t.Fatalf("DecodeObject error = %v", err)
	}
	if v.Summary != `rainfall {mm} was "low" this year` {
		t.Fatalf("summary = %q", v.Summary)
	}
}

func TestRepairTrailingCommaBeforeMissingBrace(t *testing.T) {
	var v map[string]any
	if err := DecodeObject(`{"a": 1,`, &v); err != nil {
		t.Fatalf("DecodeObject error = %v", err)
	}
	if v["a"] != float64(1) {
		t.Fatalf("v = %#v", v)
	}
}

func TestDecodeObjectNoJSONIsParseError(t *testing.T) {
	var v map[string]any
	err := DecodeObject("sorry, I cannot answer that", &v)
	var pe *ParseError
	if !errors.As(err, &pe) {
		t.Fatalf("err = %v, want *ParseError", err)
	}
}

func TestDecodeObjectGarbageIsParseError(t *testing.T) {
	var v map[string]any
	err := DecodeObject(`{"agent": weather crash`, &v)
	var pe *ParseError
	if !errors.As(err, &pe) {
		t.Fatalf("err = %v, want *ParseError", err)
	}
}
