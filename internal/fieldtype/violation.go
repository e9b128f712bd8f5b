package fieldtype

const (
	RuleRequired       = "required"
	RuleType           = "type"
	RuleMinLength      = "min_length"
	RuleMaxLength      = "max_length"
	RuleMin            = "min"
	RuleMax            = "max"
	RulePattern        = "pattern"
	RuleChoice         = "choice"
	RuleInvalidOptions = "field_options"
	RuleInvalidRules   = "validation_rules"
	RuleUnknownField   = "unknown_field"
	RuleDuplicateField = "duplicate_field"
	RuleNotFound       = "not_found"
)

// Violation is a single failed rule for a single field.
type Violation struct {
	Field   string `json:"field"`
	FieldID string `json:"field_id,omitempty"`
	Rule    string `json:"rule"`
	Message string `json:"message"`
}

func newViolation(f Field, rule, msg string) Violation {
	return Violation{
		Field:   f.Name,
		FieldID: f.ID,
		Rule:    rule,
		Message: msg,
	}
}
