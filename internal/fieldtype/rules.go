package fieldtype

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Rules is the decoded form of a field's validation_rules column.
type Rules struct {
	MinLength *int
	MaxLength *int
	Min       string
	Max       string
	Pattern   string

	re *regexp.Regexp
}

// Option is one choice of a SELECT, RADIO or CHECKBOX field.
type Option struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

func isNullJSON(raw []byte) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}

func decodeJSON(raw []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	return v, nil
}

// ParseRules accepts both snake_case and camelCase keys (min_length, minLength).
func ParseRules(raw []byte) (Rules, error) {
	var rules Rules
	if isNullJSON(raw) {
		return rules, nil
	}

	v, err := decodeJSON(raw)
	if err != nil {
		return rules, fmt.Errorf("validation_rules is not valid JSON: %w", err)
	}
	m, ok := v.(map[string]any)
	if !ok {
		return rules, errors.New("validation_rules must be a JSON object")
	}

	if rules.MinLength, err = intRule(m, "min_length", "minLength"); err != nil {
		return rules, err
	}
	if rules.MaxLength, err = intRule(m, "max_length", "maxLength"); err != nil {
		return rules, err
	}
	if rules.Min, err = scalarRule(m, "min"); err != nil {
		return rules, err
	}
	if rules.Max, err = scalarRule(m, "max"); err != nil {
		return rules, err
	}

	if p, found := m["pattern"]; found && p != nil {
		s, ok := p.(string)
		if !ok {
			return rules, errors.New("validation_rules.pattern must be a string")
		}
		if s != "" {
			re, err := regexp.Compile("^(?:" + s + ")$")
			if err != nil {
				return rules, fmt.Errorf("validation_rules.pattern does not compile: %w", err)
			}
			rules.Pattern = s
			rules.re = re
		}
	}

	return rules, nil
}

func intRule(m map[string]any, keys ...string) (*int, error) {
	for _, key := range keys {
		v, found := m[key]
		if !found || v == nil {
			continue
		}
		s, ok := scalarString(v)
		if !ok {
			return nil, fmt.Errorf("validation_rules.%s must be an integer", key)
		}
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 {
			return nil, fmt.Errorf("validation_rules.%s must be a non-negative integer", key)
		}
		return &n, nil
	}
	return nil, nil
}

func scalarRule(m map[string]any, key string) (string, error) {
	v, found := m[key]
	if !found || v == nil {
		return "", nil
	}
	s, ok := scalarString(v)
	if !ok {
		return "", fmt.Errorf("validation_rules.%s must be a number or string", key)
	}
	return s, nil
}

func scalarString(v any) (string, bool) {
	switch t := v.(type) {
	case string:
		return t, true
	case json.Number:
		return t.String(), true
	case bool:
		return strconv.FormatBool(t), true
	default:
		return "", false
	}
}

// ParseOptions accepts [{"label","value"}], ["a","b"] or {"choices": [...]}.
func ParseOptions(raw []byte) ([]Option, error) {
	if isNullJSON(raw) {
		return nil, nil
	}

	v, err := decodeJSON(raw)
	if err != nil {
		return nil, fmt.Errorf("field_options is not valid JSON: %w", err)
	}

	if obj, ok := v.(map[string]any); ok {
		inner, found := obj["choices"]
		if !found {
			inner, found = obj["options"]
		}
		if !found {
			return nil, errors.New(`field_options object must contain "choices"`)
		}
		v = inner
	}

	list, ok := v.([]any)
	if !ok {
		return nil, errors.New("field_options must be a list")
	}

	opts := make([]Option, 0, len(list))
	for i, item := range list {
		if obj, ok := item.(map[string]any); ok {
			value, ok := scalarString(obj["value"])
			if !ok || value == "" {
				return nil, fmt.Errorf("field_options[%d] has no value", i)
			}
			label, _ := scalarString(obj["label"])
			if label == "" {
				label = value
			}
			opts = append(opts, Option{Label: label, Value: value})
			continue
		}
		value, ok := scalarString(item)
		if !ok {
			return nil, fmt.Errorf("field_options[%d] must be a string or an object", i)
		}
		opts = append(opts, Option{Label: value, Value: value})
	}
	return opts, nil
}

// SplitMulti decodes a CHECKBOX value: a JSON array or a comma separated list.
// Several choices that contain commas need the JSON array form.
func SplitMulti(raw string) ([]string, error) {
	trimmed := strings.TrimSpace(raw)
	if strings.HasPrefix(trimmed, "[") {
		v, err := decodeJSON([]byte(trimmed))
		if err != nil {
			return nil, err
		}
		list, ok := v.([]any)
		if !ok {
			return nil, errors.New("expected a list")
		}
		out := make([]string, 0, len(list))
		for _, item := range list {
			s, ok := scalarString(item)
			if !ok {
				return nil, errors.New("list items must be strings")
			}
			if s = strings.TrimSpace(s); s != "" {
				out = append(out, s)
			}
		}
		return out, nil
	}

	parts := strings.Split(trimmed, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out, nil
}
