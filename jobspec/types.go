// Package jobspec defines the job specification that describes a deck:
// metadata, authorship and the slides with their bullets, tables, charts,
// images and text boxes. Load parses and schema-checks a specification;
// CheckRules applies the configured business rules.
package jobspec

import "github.com/tsawler/pptxgen/model"

// DefaultLocale is used when meta.locale is empty.
const DefaultLocale = "ja-JP"

// Spec is a job specification.
type Spec struct {
	Meta   Meta    `json:"meta"`
	Auth   Auth    `json:"auth"`
	Slides []Slide `json:"slides" validate:"dive"`
}

// Meta is deck-level metadata.
type Meta struct {
	SchemaVersion string `json:"schema_version" validate:"required"`
	Title         string `json:"title" validate:"required"`
	Client        string `json:"client,omitempty"`
	Author        string `json:"author,omitempty"`
	CreatedAt     string `json:"created_at,omitempty"`
	Theme         string `json:"theme,omitempty"`
	Locale        string `json:"locale,omitempty"`
	TemplatePath  string `json:"template_path,omitempty"`
}

// Auth records who created the specification.
type Auth struct {
	CreatedBy  string `json:"created_by" validate:"required"`
	Department string `json:"department,omitempty"`
}

// Slide is one slide of the deck.
type Slide struct {
	ID        string          `json:"id" validate:"required"`
	Layout    string          `json:"layout" validate:"required"`
	Title     string          `json:"title,omitempty"`
	Subtitle  string          `json:"subtitle,omitempty"`
	Notes     string          `json:"notes,omitempty"`
	Bullets   []BulletGroup   `json:"bullets,omitempty" validate:"dive"`
	Images    []model.Image   `json:"images,omitempty" validate:"dive"`
	Tables    []model.Table   `json:"tables,omitempty" validate:"dive"`
	Charts    []model.Chart   `json:"charts,omitempty" validate:"dive"`
	Textboxes []model.Textbox `json:"textboxes,omitempty" validate:"dive"`
}

// BulletGroup is a list of bullet items. A group with an anchor is placed
// in the shape of that name; groups without one form the slide body.
type BulletGroup struct {
	Anchor string             `json:"anchor,omitempty"`
	Items  []model.BulletItem `json:"items" validate:"dive"`
}

// BodyItems returns the items of every group without an anchor, in order.
func (s *Slide) BodyItems() []model.BulletItem {
	var out []model.BulletItem
	for _, g := range s.Bullets {
		if g.Anchor == "" {
			out = append(out, g.Items...)
		}
	}
	return out
}

// AnchoredGroups returns the groups that name an anchor.
func (s *Slide) AnchoredGroups() []BulletGroup {
	var out []BulletGroup
	for _, g := range s.Bullets {
		if g.Anchor != "" {
			out = append(out, g)
		}
	}
	return out
}

// HasBody reports whether an anchor-less group carries at least one item.
func (s *Slide) HasBody() bool {
	return len(s.BodyItems()) > 0
}

// SetBodyItems replaces the anchor-less groups with a single group holding
// items, placed where the first anchor-less group was.
func (s *Slide) SetBodyItems(items []model.BulletItem) {
	var out []BulletGroup
	placed := false
	for _, g := range s.Bullets {
		if g.Anchor != "" {
			out = append(out, g)
			continue
		}
		if !placed {
			out = append(out, BulletGroup{Items: items})
			placed = true
		}
	}
	if !placed && len(items) > 0 {
		out = append([]BulletGroup{{Items: items}}, out...)
	}
	s.Bullets = out
}

// LocaleOrDefault returns meta.locale or DefaultLocale.
func (m Meta) LocaleOrDefault() string {
	if m.Locale == "" {
		return DefaultLocale
	}
	return m.Locale
}
