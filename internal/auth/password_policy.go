package auth

import (
	"bufio"
	_ "embed"
	"fmt"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/Abhinav7558/employee-management-system/internal/shared/apperror"

	"github.com/agnivade/levenshtein"
)

//go:embed common_passwords.txt
var commonPasswordList string

const (
	DefaultMinPasswordLength = 8
	maxSimilarity            = 0.7
)

var attributeSplit = regexp.MustCompile(`\W+`)

// PasswordPolicy rejects short, common, all-numeric passwords and passwords
// too close to the user's own attributes.
type PasswordPolicy struct {
	MinLength int
	common    map[string]struct{}
}

func NewPasswordPolicy(minLength int) *PasswordPolicy {
	if minLength <= 0 {
		minLength = DefaultMinPasswordLength
	}
	common := make(map[string]struct{})
	sc := bufio.NewScanner(strings.NewReader(commonPasswordList))
	for sc.Scan() {
		if line := strings.TrimSpace(sc.Text()); line != "" {
			common[strings.ToLower(line)] = struct{}{}
		}
	}
	return &PasswordPolicy{MinLength: minLength, common: common}
}

// Check returns every rule the password breaks. attrs are user attributes
// such as username and email.
func (p *PasswordPolicy) Check(password string, attrs map[string]string) []apperror.FieldError {
	var out []apperror.FieldError
	add := func(rule, msg string) {
		out = append(out, apperror.FieldError{Field: "password", Rule: rule, Message: msg})
	}

	lower := strings.ToLower(password)

	for _, name := range []string{"username", "email", "first_name", "last_name"} {
		value := strings.ToLower(strings.TrimSpace(attrs[name]))
		if value == "" {
			continue
		}
		parts := append([]string{value}, attributeSplit.Split(value, -1)...)
		if similarToAny(lower, parts) {
			add("similar", fmt.Sprintf("The password is too similar to the %s.", strings.ReplaceAll(name, "_", " ")))
			break
		}
	}

	if len([]rune(password)) < p.MinLength {
		add("min_length", fmt.Sprintf("This password is too short. It must contain at least %d characters.", p.MinLength))
	}
	if _, ok := p.common[lower]; ok {
		add("common", "This password is too common.")
	}
	if password != "" && strings.IndexFunc(password, func(r rune) bool { return !unicode.IsDigit(r) }) == -1 {
		add("numeric", "This password is entirely numeric.")
	}

	return out
}

func similarToAny(password string, parts []string) bool {
	for _, part := range parts {
		if len(part) < 3 {
			continue
		}
		if similarity(password, part) >= maxSimilarity {
			return true
		}
	}
	return false
}

// similarity is 1 - levenshtein/maxLen, in [0,1].
func similarity(a, b string) float64 {
	longest := max(utf8.RuneCountInString(a), utf8.RuneCountInString(b))
	if longest == 0 {
		return 1
	}
	return 1 - float64(levenshtein.ComputeDistance(a, b))/float64(longest)
}
