// Package template extracts the layout structure of a PowerPoint template:
// every slide layout with its shapes, placeholder kinds and geometry.
package template

import (
	"errors"
	"fmt"

	"github.com/tsawler/pptxgen/model"
)

// Spec is the parsed structure of one template. It is not modified after
// Extract returns.
type Spec struct {
	TemplatePath string       `json:"template_path"`
	Layouts      []LayoutInfo `json:"layouts"`
	Warnings     []string     `json:"warnings"`
	Errors       []string     `json:"errors"`
}

// LayoutInfo describes one slide layout.
type LayoutInfo struct {
	Name       string      `json:"name"`
	Identifier string      `json:"identifier,omitempty"`
	Shapes     []ShapeInfo `json:"shapes"`
	Error      string      `json:"error,omitempty"`
}

// Malformed reports whether the layout could not be parsed.
func (l *LayoutInfo) Malformed() bool { return l.Error != "" }

// Placeholders returns the placeholder shapes of the layout.
func (l *LayoutInfo) Placeholders() []ShapeInfo {
	var out []ShapeInfo
	for _, s := range l.Shapes {
		if s.IsPlaceholder {
			out = append(out, s)
		}
	}
	return out
}

// ShapeInfo describes one shape of a layout.
type ShapeInfo struct {
	Name            string    `json:"name"`
	ShapeType       string    `json:"shape_type"`
	LeftIn          float64   `json:"left_in"`
	TopIn           float64   `json:"top_in"`
	WidthIn         float64   `json:"width_in"`
	HeightIn        float64   `json:"height_in"`
	Box             model.Box `json:"bbox_emu"`
	IsPlaceholder   bool      `json:"is_placeholder"`
	PlaceholderKind string    `json:"placeholder_type,omitempty"`
	PlaceholderIdx  *int      `json:"placeholder_idx,omitempty"`
	Text            string    `json:"text,omitempty"`
	Conflict        string    `json:"conflict,omitempty"`
	MissingFields   []string  `json:"missing_fields,omitempty"`
	Error           string    `json:"error,omitempty"`
}

// Shape class names recorded in ShapeInfo.ShapeType.
const (
	ClassLayoutPlaceholder = "LayoutPlaceholder"
	ClassShape             = "Shape"
	ClassTextBox           = "TextBox"
	ClassPicture           = "Picture"
	ClassGraphicFrame      = "GraphicFrame"
	ClassGroupShape        = "GroupShape"
	ClassConnector         = "Connector"
)

// Placeholder kinds recorded in ShapeInfo.PlaceholderKind.
const (
	KindTitle          = "TITLE"
	KindCenterTitle    = "CENTER_TITLE"
	KindSubtitle       = "SUBTITLE"
	KindBody           = "BODY"
	KindObject         = "OBJECT"
	KindChart          = "CHART"
	KindTable          = "TABLE"
	KindClipArt        = "CLIP_ART"
	KindOrgChart       = "ORG_CHART"
	KindMediaClip      = "MEDIA_CLIP"
	KindSlideImage     = "SLIDE_IMAGE"
	KindPicture        = "PICTURE"
	KindDate           = "DATE"
	KindFooter         = "FOOTER"
	KindSlideNumber    = "SLIDE_NUMBER"
	KindHeader         = "HEADER"
	KindVerticalBody   = "VERTICAL_BODY"
	KindVerticalObject = "VERTICAL_OBJECT"
	KindVerticalTitle  = "VERTICAL_TITLE"
)

// ErrNotPresentation is returned when the template is not a PresentationML
// package.
var ErrNotPresentation = errors.New("not a PowerPoint presentation or template")

// ExtractError reports a failure that stops extraction of a whole template:
// a missing or unreadable file, or a broken package structure.
type ExtractError struct {
	Path string
	Err  error
}

func (e *ExtractError) Error() string {
	return fmt.Sprintf("template extract %s: %v", e.Path, e.Err)
}

func (e *ExtractError) Unwrap() error { return e.Err }
