// Package cards holds the inputs that arrive from the authoring stores:
// approved content cards, the slide draft with its layout candidates, and
// the analyzer report of a previous run.
package cards

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Status is the approval state of a card.
type Status string

// Card statuses.
const (
	StatusDraft    Status = "draft"
	StatusApproved Status = "approved"
	StatusReturned Status = "returned"
)

// Card is the approved content of one slide.
type Card struct {
	SlideID        string   `json:"slide_id" validate:"required"`
	Intent         string   `json:"intent,omitempty"`
	TypeHint       string   `json:"type_hint,omitempty"`
	Elements       Elements `json:"elements"`
	Status         Status   `json:"status" validate:"required,oneof=draft approved returned"`
	AppliedAutofix []string `json:"applied_autofix,omitempty"`
}

// Elements is the content of a card.
type Elements struct {
	Title     string     `json:"title,omitempty"`
	Body      []string   `json:"body,omitempty" validate:"max=6,dive,max=40"`
	TableData *TableData `json:"table_data,omitempty"`
	Note      string     `json:"note,omitempty"`
}

// TableData is a table drafted on a card.
type TableData struct {
	Headers []string   `json:"headers,omitempty"`
	Rows    [][]string `json:"rows,omitempty"`
}

// Approved reports whether the card may feed the mapping stage.
func (c *Card) Approved() bool { return c.Status == StatusApproved }

// HasTable reports whether the card carries table data.
func (c *Card) HasTable() bool {
	return c.Elements.TableData != nil && (len(c.Elements.TableData.Headers) > 0 || len(c.Elements.TableData.Rows) > 0)
}

// Tokens returns the distinct lower-cased words of the title and body,
// used for tag overlap scoring.
func (c *Card) Tokens() []string {
	var out []string
	seen := make(map[string]bool)
	for _, s := range append([]string{c.Elements.Title}, c.Elements.Body...) {
		for _, f := range strings.FieldsFunc(strings.ToLower(s), isSeparator) {
			if !seen[f] {
				seen[f] = true
				out = append(out, f)
			}
		}
	}
	return out
}

func isSeparator(r rune) bool {
	switch r {
	case ' ', '\t', '\n', ',', '.', '/', '_', '-', ':', ';', '(', ')', '、', '。', '　', '・':
		return true
	}
	return false
}

// Set is the collection of cards of one run, in input order.
type Set struct {
	Cards []Card `json:"cards" validate:"dive"`
}

// BySlide returns the card for a slide id.
func (s *Set) BySlide(id string) (*Card, bool) {
	if s == nil {
		return nil, false
	}
	for i := range s.Cards {
		if s.Cards[i].SlideID == id {
			return &s.Cards[i], true
		}
	}
	return nil, false
}

// NotApproved returns the slide ids of cards that are not approved.
func (s *Set) NotApproved() []string {
	if s == nil {
		return nil
	}
	var out []string
	for _, c := range s.Cards {
		if !c.Approved() {
			out = append(out, c.SlideID)
		}
	}
	return out
}

// LoadCards reads a card file: either {"cards": [...]} or a bare array.
func LoadCards(path string) (*Set, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading cards: %w", err)
	}
	return ParseCards(data)
}

// ParseCards decodes and validates cards.
func ParseCards(data []byte) (*Set, error) {
	set := &Set{}
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		if err := json.Unmarshal(trimmed, &set.Cards); err != nil {
			return nil, fmt.Errorf("parsing cards: %w", err)
		}
	} else if err := json.Unmarshal(trimmed, set); err != nil {
		return nil, fmt.Errorf("parsing cards: %w", err)
	}
	if err := validator.New().Struct(set); err != nil {
		return nil, fmt.Errorf("invalid cards: %w", err)
	}
	ids := make(map[string]bool)
	for _, c := range set.Cards {
		if ids[c.SlideID] {
			return nil, fmt.Errorf("invalid cards: %w", &DuplicateError{SlideID: c.SlideID})
		}
		ids[c.SlideID] = true
	}
	return set, nil
}

// DuplicateError reports two cards for the same slide.
type DuplicateError struct {
	SlideID string
}

func (e *DuplicateError) Error() string {
	return fmt.Sprintf("duplicate card for slide %q", e.SlideID)
}

// ErrNoCards is returned by callers that require at least one card.
var ErrNoCards = errors.New("no content cards")
