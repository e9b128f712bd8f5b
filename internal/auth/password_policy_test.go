package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func policyRules(t *testing.T, p *PasswordPolicy, password string, attrs map[string]string) []string {
	t.Helper()
	var out []string
	for _, fe := range p.Check(password, attrs) {
		out = append(out, fe.Rule)
	}
	return out
}

func TestPasswordPolicy_Check(t *testing.T) {
	p := NewPasswordPolicy(0)
	attrs := map[string]string{"username": "annlee", "email": "bob.smith@example.com"}

	tests := []struct {
		name     string
		password string
		want     []string
	}{
		{"strong", "Tr0ub4dor&3", nil},
		{"too short", "x9!kq", []string{"min_length"}},
		{"common and numeric", "12345678", []string{"common", "numeric"}},
		{"common ignores case", "PassWord123", []string{"common"}},
		{"numeric only", "98765432", []string{"numeric"}},
		{"similar to username", "annlee99", []string{"similar"}},
		{"similar to email part", "examples", []string{"similar"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, policyRules(t, p, tt.password, attrs))
		})
	}
}

func TestPasswordPolicy_AllProblemsReported(t *testing.T) {
	p := NewPasswordPolicy(10)
	got := p.Check("1234", map[string]string{"username": "1234"})

	rules := make([]string, 0, len(got))
	for _, fe := range got {
		assert.Equal(t, "password", fe.Field)
		assert.NotEmpty(t, fe.Message)
		rules = append(rules, fe.Rule)
	}
	assert.Equal(t, []string{"similar", "min_length", "common", "numeric"}, rules)
}

func TestSimilarity(t *testing.T) {
	assert.Equal(t, 1.0, similarity("abc", "abc"))
	assert.Equal(t, 0.0, similarity("abc", "xyz"))
	assert.InDelta(t, 0.75, similarity("annlee99", "annlee"), 0.001)
	assert.InDelta(t, 0.75, similarity("café", "cafe"), 0.001)
	assert.Equal(t, 1.0, similarity("", ""))
}
