package jobspec

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/tsawler/pptxgen/config"
)

// CheckRules applies the business rules to a schema-valid spec. All
// violations are collected into one *BusinessRuleError.
func CheckRules(spec *Spec, rules *config.Rules) error {
	if rules == nil {
		rules = config.DefaultRules()
	}
	var vs []Violation
	if len(spec.Slides) == 0 {
		vs = append(vs, Violation{Rule: RuleEmptySlides, Message: "the spec declares no slides"})
	}

	forbidden := make([]string, 0, len(rules.ForbiddenWords))
	for _, w := range rules.ForbiddenWords {
		if w = strings.TrimSpace(w); w != "" {
			forbidden = append(forbidden, w)
		}
	}

	for _, s := range spec.Slides {
		if n := utf8.RuneCountInString(s.Title); n > rules.MaxTitleLength {
			vs = append(vs, Violation{
				Rule: RuleTitleLength, ID: s.ID,
				Message: fmt.Sprintf("slide %s: title has %d characters, limit is %d", s.ID, n, rules.MaxTitleLength),
			})
		}
		if w, ok := containsForbidden(s.Title, forbidden); ok {
			vs = append(vs, Violation{
				Rule: RuleForbiddenWords, ID: s.ID,
				Message: fmt.Sprintf("slide %s: title contains forbidden word %q", s.ID, w),
			})
		}
		for _, g := range s.Bullets {
			for _, item := range g.Items {
				id := item.ID
				if id == "" {
					id = s.ID
				}
				if n := utf8.RuneCountInString(item.Text); n > rules.MaxBulletLength {
					vs = append(vs, Violation{
						Rule: RuleBulletLength, ID: id,
						Message: fmt.Sprintf("bullet %s: text has %d characters, limit is %d", id, n, rules.MaxBulletLength),
					})
				}
				if item.Level > rules.MaxBulletLevel {
					vs = append(vs, Violation{
						Rule: RuleBulletLevel, ID: id,
						Message: fmt.Sprintf("bullet %s: level %d exceeds %d", id, item.Level, rules.MaxBulletLevel),
					})
				}
				if w, ok := containsForbidden(item.Text, forbidden); ok {
					vs = append(vs, Violation{
						Rule: RuleForbiddenWords, ID: id,
						Message: fmt.Sprintf("bullet %s: contains forbidden word %q", id, w),
					})
				}
			}
		}
	}
	if len(vs) == 0 {
		return nil
	}
	return &BusinessRuleError{Violations: vs}
}

func containsForbidden(text string, words []string) (string, bool) {
	lower := strings.ToLower(text)
	for _, w := range words {
		if strings.Contains(lower, strings.ToLower(w)) {
			return w, true
		}
	}
	return "", false
}
