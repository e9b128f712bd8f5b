package fieldtype

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

type Type string

const (
	Text     Type = "TEXT"
	Number   Type = "NUMBER"
	Date     Type = "DATE"
	Password Type = "PASSWORD"
	Email    Type = "EMAIL"
	Phone    Type = "PHONE"
	Textarea Type = "TEXTAREA"
	Select   Type = "SELECT"
	Checkbox Type = "CHECKBOX"
	Radio    Type = "RADIO"
	File     Type = "FILE"
)

// DefaultPhonePattern accepts digits, spaces, dashes, dots and parentheses with
// an optional leading plus.
const DefaultPhonePattern = `^\+?[0-9 ()\-.]{6,20}$`

var ordered = []Type{Text, Number, Date, Password, Email, Phone, Textarea, Select, Checkbox, Radio, File}

// Types returns every supported field type in declaration order.
func Types() []Type {
	out := make([]Type, len(ordered))
	copy(out, ordered)
	return out
}

// Parse normalises a caller supplied tag ("text", " Select ") into a Type.
func Parse(s string) (Type, bool) {
	t := Type(strings.ToUpper(strings.TrimSpace(s)))
	_, ok := kinds[t]
	return t, ok
}

func (t Type) Valid() bool {
	_, ok := kinds[t]
	return ok
}

// HasChoices reports whether values of this type are drawn from field_options.
func (t Type) HasChoices() bool {
	k, ok := kinds[t]
	return ok && k.choices
}

// Field is the registry's view of a form field: enough to validate a raw
// value without depending on the persistence model.
type Field struct {
	ID       string
	Name     string
	Label    string
	Type     Type
	Required bool
	Options  []byte
	Rules    []byte
}

func (f Field) displayName() string {
	if strings.TrimSpace(f.Label) != "" {
		return f.Label
	}
	return f.Name
}

type Options struct {
	PhonePattern string
}

// Registry validates raw values against field definitions. It is built once
// at startup and is safe for concurrent use.
type Registry struct {
	phone    *regexp.Regexp
	validate *validator.Validate
}

func NewRegistry(opts Options) (*Registry, error) {
	pattern := strings.TrimSpace(opts.PhonePattern)
	if pattern == "" {
		pattern = DefaultPhonePattern
	}
	phone, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("invalid phone pattern %q: %w", pattern, err)
	}
	return &Registry{
		phone:    phone,
		validate: validator.New(),
	}, nil
}

var defaultRegistry = mustNewRegistry(Options{})

func mustNewRegistry(opts Options) *Registry {
	r, err := NewRegistry(opts)
	if err != nil {
		panic(err)
	}
	return r
}

// Default returns the registry configured with the default phone pattern.
func Default() *Registry {
	return defaultRegistry
}

// Validate checks one raw value against its field. An empty slice means the
// value is acceptable.
func (r *Registry) Validate(f Field, raw string) []Violation {
	k, ok := kinds[f.Type]
	if !ok {
		return []Violation{newViolation(f, RuleType, fmt.Sprintf("unknown field type %q", f.Type))}
	}

	if strings.TrimSpace(raw) == "" {
		if f.Required {
			return []Violation{newViolation(f, RuleRequired, f.displayName()+" is required")}
		}
		return nil
	}

	rules, err := ParseRules(f.Rules)
	if err != nil {
		return []Violation{newViolation(f, RuleInvalidRules, err.Error())}
	}

	return k.validate(r, f, rules, raw)
}

// CheckDefinition validates a field definition at template write time. The
// returned violations name the offending attribute (field_type, field_name...).
func (r *Registry) CheckDefinition(f Field) []Violation {
	var out []Violation
	attr := func(name, rule, msg string) {
		out = append(out, Violation{Field: name, FieldID: f.ID, Rule: rule, Message: msg})
	}

	if strings.TrimSpace(f.Name) == "" {
		attr("field_name", RuleRequired, "field_name is required")
	}
	if strings.TrimSpace(f.Label) == "" {
		attr("field_label", RuleRequired, "field_label is required")
	}

	k, known := kinds[f.Type]
	if !known {
		attr("field_type", RuleType, fmt.Sprintf("%q is not a valid field type", f.Type))
	}

	opts, err := ParseOptions(f.Options)
	if err != nil {
		attr("field_options", RuleInvalidOptions, err.Error())
	} else if known && k.choices && len(opts) == 0 {
		attr("field_options", RuleInvalidOptions, fmt.Sprintf("%s fields need at least one option", f.Type))
	}

	rules, err := ParseRules(f.Rules)
	if err != nil {
		attr("validation_rules", RuleInvalidRules, err.Error())
		return out
	}
	if rules.MinLength != nil && rules.MaxLength != nil && *rules.MinLength > *rules.MaxLength {
		attr("validation_rules", RuleInvalidRules, "min_length must not exceed max_length")
	}
	if known && k.checkBounds != nil {
		if err := k.checkBounds(rules); err != nil {
			attr("validation_rules", RuleInvalidRules, err.Error())
		}
	}

	return out
}
