package layouts

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// SuiteError reports an artifact that failed schema validation or could not
// be written. It is fatal to the run.
type SuiteError struct {
	Artifact string
	Err      error
}

func (e *SuiteError) Error() string {
	return fmt.Sprintf("layout validation suite: %s: %v", e.Artifact, e.Err)
}

func (e *SuiteError) Unwrap() error { return e.Err }

// schema checks artifacts before they are written.
type schema struct {
	v     *validator.Validate
	vocab *Vocabulary
}

func newSchema(vocab *Vocabulary) *schema {
	return &schema{v: validator.New(), vocab: vocab}
}

// records validates the catalog: struct constraints, the placeholder type
// set, the tag vocabulary and layout id uniqueness.
func (s *schema) records(records []Record) error {
	var errs []error
	ids := make(map[string]bool, len(records))
	for i := range records {
		r := &records[i]
		if err := s.v.Struct(r); err != nil {
			errs = append(errs, fmt.Errorf("record %d (%s): %w", i+1, r.LayoutID, flatten(err)))
		}
		if ids[r.LayoutID] {
			errs = append(errs, fmt.Errorf("record %d: duplicate layout_id %q", i+1, r.LayoutID))
		}
		ids[r.LayoutID] = true
		if i > 0 && r.TemplateID != records[0].TemplateID {
			errs = append(errs, fmt.Errorf("record %d: template_id %q differs from %q", i+1, r.TemplateID, records[0].TemplateID))
		}
		for _, ph := range r.Placeholders {
			if !placeholderTypes[ph.Type] {
				errs = append(errs, fmt.Errorf("record %d: placeholder %q has unknown type %q", i+1, ph.Name, ph.Type))
			}
		}
		for _, t := range r.UsageTags {
			if canon, ok := s.vocab.Normalize(t); !ok || canon != t {
				errs = append(errs, fmt.Errorf("record %d: usage tag %q is not canonical", i+1, t))
			}
		}
		if r.TextHint.MaxChars < r.TextHint.MaxLines {
			errs = append(errs, fmt.Errorf("record %d: max_chars %d below max_lines %d", i+1, r.TextHint.MaxChars, r.TextHint.MaxLines))
		}
	}
	return errors.Join(errs...)
}

func (s *schema) diagnostics(d *Diagnostics) error {
	if err := s.v.Struct(d); err != nil {
		return flatten(err)
	}
	if d.Warnings == nil || d.Errors == nil {
		return errors.New("warnings and errors must be arrays")
	}
	return nil
}

func (s *schema) diffReport(d *DiffReport) error {
	if err := s.v.Struct(d); err != nil {
		return flatten(err)
	}
	for _, ld := range d.LayoutDiffs {
		for _, a := range ld.AnchorsAdded {
			if !contains(ld.PlaceholdersAdded, a) {
				return fmt.Errorf("layout %s: anchor %q added without its placeholder", ld.LayoutID, a)
			}
		}
		for _, a := range ld.AnchorsRemoved {
			if !contains(ld.PlaceholdersRemoved, a) {
				return fmt.Errorf("layout %s: anchor %q removed without its placeholder", ld.LayoutID, a)
			}
		}
	}
	for _, is := range d.Issues {
		if is.Code != CodeAnalyzerAnchorMissing && is.Code != CodeAnalyzerAnchorUnexpected {
			return fmt.Errorf("unknown issue code %q", is.Code)
		}
	}
	return nil
}

// flatten turns validator field errors into one readable error.
func flatten(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	msgs := make([]string, len(verrs))
	for i, fe := range verrs {
		if fe.Param() != "" {
			msgs[i] = fmt.Sprintf("%s: failed %s=%s", fe.Namespace(), fe.Tag(), fe.Param())
		} else {
			msgs[i] = fmt.Sprintf("%s: failed %s", fe.Namespace(), fe.Tag())
		}
	}
	return errors.New(strings.Join(msgs, "; "))
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
