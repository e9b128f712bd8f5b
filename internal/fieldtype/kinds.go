package fieldtype

import (
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/shopspring/decimal"
)

const DateLayout = "2006-01-02"

type kind struct {
	choices     bool
	validate    func(r *Registry, f Field, rules Rules, raw string) []Violation
	checkBounds func(rules Rules) error
}

var kinds = map[Type]kind{
	Text:     {validate: validateText},
	Textarea: {validate: validateText},
	Password: {validate: validateText},
	Number:   {validate: validateNumber, checkBounds: checkNumberBounds},
	Date:     {validate: validateDate, checkBounds: checkDateBounds},
	Email:    {validate: validateEmail},
	Phone:    {validate: validatePhone},
	Select:   {choices: true, validate: validateChoice},
	Radio:    {choices: true, validate: validateChoice},
	Checkbox: {choices: true, validate: validateMultiChoice},
	File:     {validate: validateFile},
}

func validateText(_ *Registry, f Field, rules Rules, raw string) []Violation {
	var out []Violation
	n := utf8.RuneCountInString(raw)
	if rules.MinLength != nil && n < *rules.MinLength {
		out = append(out, newViolation(f, RuleMinLength,
			fmt.Sprintf("%s must be at least %d characters", f.displayName(), *rules.MinLength)))
	}
	if rules.MaxLength != nil && n > *rules.MaxLength {
		out = append(out, newViolation(f, RuleMaxLength,
			fmt.Sprintf("%s must be at most %d characters", f.displayName(), *rules.MaxLength)))
	}
	if rules.re != nil && !rules.re.MatchString(raw) {
		out = append(out, newViolation(f, RulePattern,
			fmt.Sprintf("%s does not match the required format", f.displayName())))
	}
	return out
}

func validateNumber(_ *Registry, f Field, rules Rules, raw string) []Violation {
	n, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		return []Violation{newViolation(f, RuleType, f.displayName()+" must be a number")}
	}

	var out []Violation
	if rules.Min != "" {
		if min, err := decimal.NewFromString(rules.Min); err == nil && n.LessThan(min) {
			out = append(out, newViolation(f, RuleMin,
				fmt.Sprintf("%s must be greater than or equal to %s", f.displayName(), min.String())))
		}
	}
	if rules.Max != "" {
		if max, err := decimal.NewFromString(rules.Max); err == nil && n.GreaterThan(max) {
			out = append(out, newViolation(f, RuleMax,
				fmt.Sprintf("%s must be less than or equal to %s", f.displayName(), max.String())))
		}
	}
	return out
}

func checkNumberBounds(rules Rules) error {
	var min, max decimal.Decimal
	var err error
	if rules.Min != "" {
		if min, err = decimal.NewFromString(rules.Min); err != nil {
			return errors.New("validation_rules.min must be a number")
		}
	}
	if rules.Max != "" {
		if max, err = decimal.NewFromString(rules.Max); err != nil {
			return errors.New("validation_rules.max must be a number")
		}
	}
	if rules.Min != "" && rules.Max != "" && min.GreaterThan(max) {
		return errors.New("validation_rules.min must not exceed max")
	}
	return nil
}

// ParseDate accepts a calendar date (YYYY-MM-DD) or an RFC 3339 timestamp.
func ParseDate(raw string) (time.Time, error) {
	s := strings.TrimSpace(raw)
	if t, err := time.Parse(DateLayout, s); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, s)
}

func validateDate(_ *Registry, f Field, rules Rules, raw string) []Violation {
	d, err := ParseDate(raw)
	if err != nil {
		return []Violation{newViolation(f, RuleType, f.displayName()+" must be a date in YYYY-MM-DD format")}
	}

	var out []Violation
	if rules.Min != "" {
		if min, err := ParseDate(rules.Min); err == nil && d.Before(min) {
			out = append(out, newViolation(f, RuleMin,
				fmt.Sprintf("%s must not be before %s", f.displayName(), rules.Min)))
		}
	}
	if rules.Max != "" {
		if max, err := ParseDate(rules.Max); err == nil && d.After(max) {
			out = append(out, newViolation(f, RuleMax,
				fmt.Sprintf("%s must not be after %s", f.displayName(), rules.Max)))
		}
	}
	return out
}

func checkDateBounds(rules Rules) error {
	if rules.Min != "" {
		if _, err := ParseDate(rules.Min); err != nil {
			return errors.New("validation_rules.min must be a date")
		}
	}
	if rules.Max != "" {
		if _, err := ParseDate(rules.Max); err != nil {
			return errors.New("validation_rules.max must be a date")
		}
	}
	return nil
}

func validateEmail(r *Registry, f Field, _ Rules, raw string) []Violation {
	if err := r.validate.Var(strings.TrimSpace(raw), "email"); err != nil {
		return []Violation{newViolation(f, RuleType, f.displayName()+" must be a valid email address")}
	}
	return nil
}

func validatePhone(r *Registry, f Field, rules Rules, raw string) []Violation {
	value := strings.TrimSpace(raw)
	if rules.re != nil {
		if !rules.re.MatchString(value) {
			return []Violation{newViolation(f, RulePattern, f.displayName()+" must be a valid phone number")}
		}
		return nil
	}
	if !r.phone.MatchString(value) {
		return []Violation{newViolation(f, RuleType, f.displayName()+" must be a valid phone number")}
	}
	return nil
}

func validateChoice(_ *Registry, f Field, _ Rules, raw string) []Violation {
	opts, err := ParseOptions(f.Options)
	if err != nil {
		return []Violation{newViolation(f, RuleInvalidOptions, err.Error())}
	}
	if !hasOption(opts, strings.TrimSpace(raw)) {
		return []Violation{newViolation(f, RuleChoice,
			fmt.Sprintf("%q is not a valid choice for %s", raw, f.displayName()))}
	}
	return nil
}

func validateMultiChoice(_ *Registry, f Field, _ Rules, raw string) []Violation {
	opts, err := ParseOptions(f.Options)
	if err != nil {
		return []Violation{newViolation(f, RuleInvalidOptions, err.Error())}
	}
	// A single choice that itself contains a comma is taken whole.
	if hasOption(opts, strings.TrimSpace(raw)) {
		return nil
	}
	values, err := SplitMulti(raw)
	if err != nil {
		return []Violation{newViolation(f, RuleType, f.displayName()+" must be a list of choices")}
	}
	if len(values) == 0 && f.Required {
		return []Violation{newViolation(f, RuleRequired, f.displayName()+" is required")}
	}

	var out []Violation
	for _, v := range values {
		if !hasOption(opts, v) {
			out = append(out, newViolation(f, RuleChoice,
				fmt.Sprintf("%q is not a valid choice for %s", v, f.displayName())))
		}
	}
	return out
}

func validateFile(*Registry, Field, Rules, string) []Violation {
	return nil
}

func hasOption(opts []Option, value string) bool {
	for _, o := range opts {
		if o.Value == value {
			return true
		}
	}
	return false
}
