package jobspec

import (
	"fmt"
	"strings"
)

// FieldError is one schema failure. Loc is a dotted path such as
// "slides.0.bullets.1.items.2.text"; it is empty for document-level errors.
type FieldError struct {
	Loc string `json:"loc"`
	Msg string `json:"msg"`
}

// SchemaError reports a specification that does not match the schema.
type SchemaError struct {
	Errors []FieldError `json:"errors"`
}

func (e *SchemaError) Error() string {
	parts := make([]string, len(e.Errors))
	for i, fe := range e.Errors {
		if fe.Loc == "" {
			parts[i] = fe.Msg
		} else {
			parts[i] = fe.Loc + ": " + fe.Msg
		}
	}
	return fmt.Sprintf("job spec schema: %d error(s): %s", len(e.Errors), strings.Join(parts, "; "))
}

func (e *SchemaError) add(loc, msg string) {
	e.Errors = append(e.Errors, FieldError{Loc: loc, Msg: msg})
}

// Violation is one broken business rule.
type Violation struct {
	Rule    string `json:"rule"`
	ID      string `json:"id"`
	Message string `json:"message"`
}

// Business rule names.
const (
	RuleEmptySlides    = "empty_slides"
	RuleTitleLength    = "max_title_length"
	RuleBulletLength   = "max_bullet_length"
	RuleBulletLevel    = "max_bullet_level"
	RuleForbiddenWords = "forbidden_words"
)

// BusinessRuleError reports a schema-valid specification that breaks the
// configured rules.
type BusinessRuleError struct {
	Violations []Violation `json:"violations"`
}

func (e *BusinessRuleError) Error() string {
	msgs := make([]string, len(e.Violations))
	for i, v := range e.Violations {
		msgs[i] = v.Message
	}
	return fmt.Sprintf("job spec rules: %s", strings.Join(msgs, "; "))
}

// IDs returns the offending ids in order, without duplicates.
func (e *BusinessRuleError) IDs() []string {
	var out []string
	seen := make(map[string]bool)
	for _, v := range e.Violations {
		if v.ID != "" && !seen[v.ID] {
			seen[v.ID] = true
			out = append(out, v.ID)
		}
	}
	return out
}
