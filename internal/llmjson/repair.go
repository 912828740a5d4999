// Package llmjson repairs near-valid JSON produced by language models and
// then parses it strictly. Repair accepts the classes of damage models
// actually produce (markdown fences, leading/trailing prose, trailing
// commas, unquoted keys, missing closing braces); everything else is a
// parse failure, not a guess.
package llmjson

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/tidwall/gjson"
)

// ParseError reports model output that survived repair but still failed
// validation or strict decoding.
type ParseError struct {
	Raw string
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("model output is not a valid JSON object: %v", e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// Repair extracts the outermost JSON object from model chatter and fixes
// the tolerated defect classes. Returns "" when no object start is present.
func Repair(raw string) string {
	s := stripFences(raw)
	start := strings.IndexByte(s, '{')
	if start == -1 {
		return ""
	}
	s = s[start:]

	out := make([]byte, 0, len(s))
	var stack []byte
	inStr := false
	esc := false

	for i := 0; i < len(s); i++ {
		c := s[i]
		if inStr {
			out = append(out, c)
			switch {
			case esc:
				esc = false
			case c == '\\':
				esc = true
			case c == '"':
				inStr = false
			}
			continue
		}

		switch c {
		case '"':
			inStr = true
			out = append(out, c)
		case '{':
			stack = append(stack, '}')
			out = append(out, c)
		case '[':
			stack = append(stack, ']')
			out = append(out, c)
		case '}', ']':
			if len(stack) == 0 || stack[len(stack)-1] != c {
				// Stray or mismatched closer: drop it.
				continue
			}
			out = trimTrailingComma(out)
			stack = stack[:len(stack)-1]
			out = append(out, c)
			if len(stack) == 0 {
				// Object complete; ignore trailing prose.
				return string(out)
			}
		default:
			if isIdentStart(c) && expectingKey(out, stack) {
				key, rest, colon := scanBareKey(s[i:])
				if colon {
					out = append(out, '"')
					out = append(out, key...)
					out = append(out, '"')
					i += len(key) + rest - 1
					continue
				}
			}
			out = append(out, c)
		}
	}

	if inStr {
		out = append(out, '"')
	}
	out = trimTrailingComma(out)
	for i := len(stack) - 1; i >= 0; i-- {
		out = append(out, stack[i])
	}
	return string(out)
}

// DecodeObject repairs raw model output and strictly unmarshals the result
// into v. Any failure is returned as a *ParseError.
func DecodeObject(raw string, v any) error {
	repaired := Repair(raw)
	if repaired == "" {
		return &ParseError{Raw: raw, Err: fmt.Errorf("no JSON object found")}
	}
	if !gjson.Valid(repaired) {
		return &ParseError{Raw: raw, Err: fmt.Errorf("repaired text failed validation")}
	}
	if err := json.Unmarshal([]byte(repaired), v); err != nil {
		return &ParseError{Raw: raw, Err: err}
	}
	return nil
}

func stripFences(s string) string {
	idx := strings.Index(s, "```")
	if idx == -1 {
		return s
	}
	rest := s[idx+3:]
	if nl := strings.IndexByte(rest, '\n'); nl != -1 {
		// Drop the fence language tag line.
		if end := strings.Index(rest[nl:], "```"); end != -1 {
			return rest[nl : nl+end]
		}
		return rest[nl:]
	}
	return rest
}

// expectingKey reports whether the next token inside the current object
// position must be a key: directly after '{' or after a ',' at object level.
func expectingKey(out []byte, stack []byte) bool {
	if len(stack) == 0 || stack[len(stack)-1] != '}' {
		return false
	}
	for i := len(out) - 1; i >= 0; i-- {
		switch out[i] {
		case ' ', '\t', '\n', '\r':
			continue
		case '{', ',':
			return true
		default:
			return false
		}
	}
	return false
}

// scanBareKey reads an unquoted identifier and the whitespace up to a ':'.
// Returns the identifier, the count of skipped whitespace, and whether a
// colon actually follows (otherwise the token was not a key).
func scanBareKey(s string) (key string, ws int, colon bool) {
	i := 0
	for i < len(s) && isIdentPart(s[i]) {
		i++
	}
	key = s[:i]
	j := i
	for j < len(s) && (s[j] == ' ' || s[j] == '\t') {
		j++
	}
	if j < len(s) && s[j] == ':' {
		return key, j - i, true
	}
	return key, 0, false
}

func trimTrailingComma(out []byte) []byte {
	i := len(out) - 1
	for i >= 0 && (out[i] == ' ' || out[i] == '\t' || out[i] == '\n' || out[i] == '\r') {
		i--
	}
	if i >= 0 && out[i] == ',' {
		return out[:i]
	}
	return out
}

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentPart(c byte) bool {
	return isIdentStart(c) || (c >= '0' && c <= '9') || c == '-'
}
