package model

import (
	"fmt"
	"strconv"
	"strings"
)

// Color represents an RGB color
type Color struct {
	R, G, B uint8
}

// ParseColor parses "#RRGGBB" or "RRGGBB".
func ParseColor(s string) (Color, error) {
	hex := strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(hex) != 6 {
		return Color{}, fmt.Errorf("invalid color %q: want 6 hex digits", s)
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return Color{}, fmt.Errorf("invalid color %q: %w", s, err)
	}
	return Color{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v)}, nil
}

// Hex returns the color as upper-case RRGGBB, the form OOXML expects.
func (c Color) Hex() string {
	return fmt.Sprintf("%02X%02X%02X", c.R, c.G, c.B)
}

// NormalizeHex validates a hex color string and returns it as RRGGBB.
// An empty string is returned unchanged.
func NormalizeHex(s string) (string, error) {
	if s == "" {
		return "", nil
	}
	c, err := ParseColor(s)
	if err != nil {
		return "", err
	}
	return c.Hex(), nil
}

// Font describes run-level text formatting. Zero fields are unset and are
// filled from a fallback by Merge.
type Font struct {
	Name   string  `json:"name,omitempty" yaml:"name,omitempty"`
	SizePt float64 `json:"size_pt,omitempty" yaml:"size_pt,omitempty" validate:"omitempty,gt=0,lte=400"`
	Bold   *bool   `json:"bold,omitempty" yaml:"bold,omitempty"`
	Italic *bool   `json:"italic,omitempty" yaml:"italic,omitempty"`
	Color  string  `json:"color_hex,omitempty" yaml:"color_hex,omitempty" validate:"omitempty,hexcolor|hexadecimal"`
}

// Merge returns f with every unset field taken from fallback.
func (f Font) Merge(fallback Font) Font {
	out := f
	if out.Name == "" {
		out.Name = fallback.Name
	}
	if out.SizePt == 0 {
		out.SizePt = fallback.SizePt
	}
	if out.Bold == nil {
		out.Bold = fallback.Bold
	}
	if out.Italic == nil {
		out.Italic = fallback.Italic
	}
	if out.Color == "" {
		out.Color = fallback.Color
	}
	return out
}

// MergeFont merges an optional override onto a base font.
func MergeFont(override *Font, base Font) Font {
	if override == nil {
		return base
	}
	return override.Merge(base)
}

// Alignment values accepted by ParagraphStyle.Align.
const (
	AlignLeft    = "left"
	AlignCenter  = "center"
	AlignRight   = "right"
	AlignJustify = "justify"
)

// ParagraphStyle describes paragraph-level formatting. Nil fields are unset.
type ParagraphStyle struct {
	Align             string   `json:"align,omitempty" yaml:"align,omitempty" validate:"omitempty,oneof=left center right justify"`
	LineSpacing       *float64 `json:"line_spacing,omitempty" yaml:"line_spacing,omitempty"`
	SpaceBeforePt     *float64 `json:"space_before_pt,omitempty" yaml:"space_before_pt,omitempty"`
	SpaceAfterPt      *float64 `json:"space_after_pt,omitempty" yaml:"space_after_pt,omitempty"`
	LeftIndentIn      *float64 `json:"left_indent_in,omitempty" yaml:"left_indent_in,omitempty"`
	RightIndentIn     *float64 `json:"right_indent_in,omitempty" yaml:"right_indent_in,omitempty"`
	FirstLineIndentIn *float64 `json:"first_line_indent_in,omitempty" yaml:"first_line_indent_in,omitempty"`
}

// Merge returns p with every unset field taken from fallback.
func (p ParagraphStyle) Merge(fallback ParagraphStyle) ParagraphStyle {
	out := p
	if out.Align == "" {
		out.Align = fallback.Align
	}
	if out.LineSpacing == nil {
		out.LineSpacing = fallback.LineSpacing
	}
	if out.SpaceBeforePt == nil {
		out.SpaceBeforePt = fallback.SpaceBeforePt
	}
	if out.SpaceAfterPt == nil {
		out.SpaceAfterPt = fallback.SpaceAfterPt
	}
	if out.LeftIndentIn == nil {
		out.LeftIndentIn = fallback.LeftIndentIn
	}
	if out.RightIndentIn == nil {
		out.RightIndentIn = fallback.RightIndentIn
	}
	if out.FirstLineIndentIn == nil {
		out.FirstLineIndentIn = fallback.FirstLineIndentIn
	}
	return out
}

// MergeParagraph merges an optional override onto a base style.
func MergeParagraph(override *ParagraphStyle, base ParagraphStyle) ParagraphStyle {
	if override == nil {
		return base
	}
	return override.Merge(base)
}
