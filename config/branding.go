package config

import (
	"fmt"

	"github.com/tsawler/pptxgen/model"
)

// Branding is the visual configuration of generated decks: theme fonts and
// colors, per-component defaults, and per-layout placement overrides.
type Branding struct {
	Theme      Theme                     `yaml:"theme" json:"theme"`
	Components Components                `yaml:"components" json:"components"`
	Layouts    map[string]LayoutBranding `yaml:"layouts" json:"layouts"`
}

// Theme holds the deck fonts and colors.
type Theme struct {
	HeadingFont model.Font `yaml:"heading_font" json:"heading_font"`
	BodyFont    model.Font `yaml:"body_font" json:"body_font"`
	Colors      Palette    `yaml:"colors" json:"colors"`
}

// Palette holds the brand colors as RRGGBB.
type Palette struct {
	Primary    string `yaml:"primary" json:"primary"`
	Secondary  string `yaml:"secondary" json:"secondary"`
	Accent     string `yaml:"accent" json:"accent"`
	Background string `yaml:"background" json:"background"`
}

// Components holds per-element defaults.
type Components struct {
	Table   TableComponent   `yaml:"table" json:"table"`
	Chart   ChartComponent   `yaml:"chart" json:"chart"`
	Image   ImageComponent   `yaml:"image" json:"image"`
	Textbox TextboxComponent `yaml:"textbox" json:"textbox"`
}

// TableComponent styles tables.
type TableComponent struct {
	FallbackBox BoxSpec              `yaml:"fallback_box" json:"fallback_box"`
	HeaderFont  model.Font           `yaml:"header_font" json:"header_font"`
	HeaderFill  string               `yaml:"header_fill" json:"header_fill"`
	BodyFont    model.Font           `yaml:"body_font" json:"body_font"`
	ZebraFill   string               `yaml:"zebra_fill" json:"zebra_fill"`
	Paragraph   model.ParagraphStyle `yaml:"paragraph" json:"paragraph"`
}

// ChartComponent styles charts.
type ChartComponent struct {
	FallbackBox BoxSpec    `yaml:"fallback_box" json:"fallback_box"`
	Palette     []string   `yaml:"palette" json:"palette"`
	DataLabels  DataLabels `yaml:"data_labels" json:"data_labels"`
	AxisFont    model.Font `yaml:"axis_font" json:"axis_font"`
}

// DataLabels configures chart data labels.
type DataLabels struct {
	Enabled      bool   `yaml:"enabled" json:"enabled"`
	NumberFormat string `yaml:"number_format" json:"number_format"`
}

// ImageComponent places pictures.
type ImageComponent struct {
	FallbackBox BoxSpec `yaml:"fallback_box" json:"fallback_box"`
	Sizing      string  `yaml:"sizing" json:"sizing"`
}

// TextboxComponent styles free text boxes.
type TextboxComponent struct {
	FallbackBox BoxSpec              `yaml:"fallback_box" json:"fallback_box"`
	Font        model.Font           `yaml:"font" json:"font"`
	Paragraph   model.ParagraphStyle `yaml:"paragraph" json:"paragraph"`
}

// LayoutBranding holds the placements of one layout, keyed by placement
// identifier (usually an element's anchor or id).
type LayoutBranding struct {
	Placements map[string]Placement `yaml:"placements" json:"placements"`
}

// Placement overrides the box, font or paragraph of one element.
type Placement struct {
	Box       *BoxSpec              `yaml:"box,omitempty" json:"box,omitempty"`
	Font      *model.Font           `yaml:"font,omitempty" json:"font,omitempty"`
	Paragraph *model.ParagraphStyle `yaml:"paragraph,omitempty" json:"paragraph,omitempty"`
}

// BoxSpec is a rectangle in inches.
type BoxSpec struct {
	LeftIn   float64 `yaml:"left_in" json:"left_in"`
	TopIn    float64 `yaml:"top_in" json:"top_in"`
	WidthIn  float64 `yaml:"width_in" json:"width_in"`
	HeightIn float64 `yaml:"height_in" json:"height_in"`
}

// Box converts to EMU geometry.
func (b BoxSpec) Box() model.Box {
	return model.BoxFromInches(b.LeftIn, b.TopIn, b.WidthIn, b.HeightIn)
}

func boolPtr(v bool) *bool { return &v }

// DefaultBranding returns the default branding for 13.33 x 7.5 inch slides.
func DefaultBranding() *Branding {
	return &Branding{
		Theme: Theme{
			HeadingFont: model.Font{Name: "Yu Gothic", SizePt: 32, Bold: boolPtr(true), Color: "1F2937"},
			BodyFont:    model.Font{Name: "Yu Gothic", SizePt: 18, Color: "333333"},
			Colors: Palette{
				Primary:    "1F4E79",
				Secondary:  "2E75B6",
				Accent:     "F39C12",
				Background: "FFFFFF",
			},
		},
		Components: Components{
			Table: TableComponent{
				FallbackBox: BoxSpec{LeftIn: 0.8, TopIn: 1.8, WidthIn: 11.7, HeightIn: 4.5},
				HeaderFont:  model.Font{SizePt: 14, Bold: boolPtr(true), Color: "FFFFFF"},
				HeaderFill:  "1F4E79",
				BodyFont:    model.Font{SizePt: 12, Color: "333333"},
				ZebraFill:   "F2F2F2",
			},
			Chart: ChartComponent{
				FallbackBox: BoxSpec{LeftIn: 0.8, TopIn: 1.8, WidthIn: 11.7, HeightIn: 4.8},
				DataLabels:  DataLabels{Enabled: false, NumberFormat: "0"},
				AxisFont:    model.Font{SizePt: 12, Color: "333333"},
			},
			Image: ImageComponent{
				FallbackBox: BoxSpec{LeftIn: 0.8, TopIn: 1.8, WidthIn: 11.7, HeightIn: 4.8},
				Sizing:      model.SizingFit,
			},
			Textbox: TextboxComponent{
				FallbackBox: BoxSpec{LeftIn: 0.8, TopIn: 6.4, WidthIn: 11.7, HeightIn: 0.8},
				Font:        model.Font{SizePt: 16},
			},
		},
		Layouts: map[string]LayoutBranding{},
	}
}

// LoadBranding reads a branding file over the defaults. An empty path
// returns the defaults.
func LoadBranding(path string) (*Branding, error) {
	b := DefaultBranding()
	if path == "" {
		return b, nil
	}
	if err := loadFile(path, b); err != nil {
		return nil, err
	}
	if err := b.Validate(); err != nil {
		return nil, fmt.Errorf("branding %s: %w", path, err)
	}
	return b, nil
}

// Validate checks colors and boxes.
func (b *Branding) Validate() error {
	colors := []struct{ field, value string }{
		{"theme.colors.primary", b.Theme.Colors.Primary},
		{"theme.colors.secondary", b.Theme.Colors.Secondary},
		{"theme.colors.accent", b.Theme.Colors.Accent},
		{"theme.colors.background", b.Theme.Colors.Background},
		{"theme.heading_font.color_hex", b.Theme.HeadingFont.Color},
		{"theme.body_font.color_hex", b.Theme.BodyFont.Color},
		{"components.table.header_fill", b.Components.Table.HeaderFill},
		{"components.table.zebra_fill", b.Components.Table.ZebraFill},
		{"components.table.header_font.color_hex", b.Components.Table.HeaderFont.Color},
	}
	for _, c := range colors {
		if _, err := model.NormalizeHex(c.value); err != nil {
			return fmt.Errorf("%s: %w", c.field, err)
		}
	}
	for i, c := range b.Components.Chart.Palette {
		if _, err := model.NormalizeHex(c); err != nil {
			return fmt.Errorf("components.chart.palette[%d]: %w", i, err)
		}
	}
	boxes := []struct {
		field string
		box   BoxSpec
	}{
		{"components.table.fallback_box", b.Components.Table.FallbackBox},
		{"components.chart.fallback_box", b.Components.Chart.FallbackBox},
		{"components.image.fallback_box", b.Components.Image.FallbackBox},
		{"components.textbox.fallback_box", b.Components.Textbox.FallbackBox},
	}
	for _, bx := range boxes {
		if bx.box.WidthIn <= 0 || bx.box.HeightIn <= 0 {
			return fmt.Errorf("%s: width and height must be positive", bx.field)
		}
	}
	switch b.Components.Image.Sizing {
	case "", model.SizingFit, model.SizingFill, model.SizingStretch:
	default:
		return fmt.Errorf("components.image.sizing: unknown mode %q", b.Components.Image.Sizing)
	}
	return nil
}

// Placement returns the placement override for key on the named layout.
func (b *Branding) Placement(layout, key string) (Placement, bool) {
	if b == nil || key == "" {
		return Placement{}, false
	}
	lb, ok := b.Layouts[layout]
	if !ok {
		return Placement{}, false
	}
	p, ok := lb.Placements[key]
	return p, ok
}

// ChartPalette returns the configured chart palette, or the theme colors
// primary, secondary and accent when none is set.
func (b *Branding) ChartPalette() []string {
	if len(b.Components.Chart.Palette) > 0 {
		return b.Components.Chart.Palette
	}
	var out []string
	for _, c := range []string{b.Theme.Colors.Primary, b.Theme.Colors.Secondary, b.Theme.Colors.Accent} {
		if c != "" {
			out = append(out, c)
		}
	}
	return out
}
