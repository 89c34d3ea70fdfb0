package model

// ElementKind discriminates the variants of Element.
type ElementKind string

const (
	KindText    ElementKind = "text"
	KindBullets ElementKind = "bullets"
	KindTable   ElementKind = "table"
	KindChart   ElementKind = "chart"
	KindImage   ElementKind = "image"
	KindTextbox ElementKind = "textbox"
)

// Element is the interface for all renderable slide elements
type Element interface {
	Kind() ElementKind
}

// Text is a single string such as a title, subtitle or note.
type Text struct {
	Value string
}

// BulletItem is one line of a bullet group.
type BulletItem struct {
	ID    string `json:"id,omitempty"`
	Text  string `json:"text" validate:"max=200"`
	Level int    `json:"level" validate:"min=0,max=5"`
	Font  *Font  `json:"font,omitempty"`
}

// Bullets is an ordered list of bullet lines.
type Bullets struct {
	Items []BulletItem
}

// TableStyle holds optional table styling.
type TableStyle struct {
	HeaderFill string `json:"header_fill,omitempty" validate:"omitempty,hexcolor|hexadecimal"`
	Zebra      bool   `json:"zebra,omitempty"`
}

// Table is a grid of strings with an optional header row.
type Table struct {
	ID      string      `json:"id" validate:"required"`
	Anchor  string      `json:"anchor,omitempty"`
	Columns []string    `json:"columns"`
	Rows    [][]string  `json:"rows"`
	Style   *TableStyle `json:"style,omitempty"`
}

// ColumnCount returns the widest of the header and every row.
func (t *Table) ColumnCount() int {
	n := len(t.Columns)
	for _, row := range t.Rows {
		if len(row) > n {
			n = len(row)
		}
	}
	return n
}

// Chart types
const (
	ChartColumn = "column"
	ChartBar    = "bar"
	ChartLine   = "line"
	ChartPie    = "pie"
)

// Series is one named data series of a chart.
type Series struct {
	Name     string    `json:"name" validate:"required"`
	Values   []float64 `json:"values"`
	ColorHex string    `json:"color_hex,omitempty" validate:"omitempty,hexcolor|hexadecimal"`
}

// ChartOptions holds optional chart presentation settings.
type ChartOptions struct {
	DataLabels  *bool  `json:"data_labels,omitempty"`
	YAxisFormat string `json:"y_axis_format,omitempty"`
}

// Chart is a category chart.
type Chart struct {
	ID         string        `json:"id" validate:"required"`
	Anchor     string        `json:"anchor,omitempty"`
	Type       string        `json:"type" validate:"required,oneof=column bar line pie"`
	Categories []string      `json:"categories"`
	Series     []Series      `json:"series" validate:"required,min=1,dive"`
	Options    *ChartOptions `json:"options,omitempty"`
}

// Image sizing modes
const (
	SizingFit     = "fit"
	SizingFill    = "fill"
	SizingStretch = "stretch"
)

// Image is a picture loaded from a local path or an http(s) URL.
type Image struct {
	ID       string   `json:"id" validate:"required"`
	Source   string   `json:"source" validate:"required"`
	Anchor   string   `json:"anchor,omitempty"`
	Sizing   string   `json:"sizing,omitempty" validate:"omitempty,oneof=fit fill stretch"`
	LeftIn   *float64 `json:"left_in,omitempty" validate:"omitempty,gte=0"`
	TopIn    *float64 `json:"top_in,omitempty" validate:"omitempty,gte=0"`
	WidthIn  *float64 `json:"width_in,omitempty" validate:"omitempty,gt=0"`
	HeightIn *float64 `json:"height_in,omitempty" validate:"omitempty,gt=0"`
}

// SizingMode returns the sizing mode, defaulting to fit.
func (i *Image) SizingMode() string {
	if i.Sizing == "" {
		return SizingFit
	}
	return i.Sizing
}

// ExplicitBox returns the box given by the inch fields, if all four are set.
func (i *Image) ExplicitBox() (Box, bool) {
	if i.LeftIn == nil || i.TopIn == nil || i.WidthIn == nil || i.HeightIn == nil {
		return Box{}, false
	}
	return BoxFromInches(*i.LeftIn, *i.TopIn, *i.WidthIn, *i.HeightIn), true
}

// Position is an explicit placement in inches.
type Position struct {
	LeftIn   float64 `json:"left_in" validate:"gte=0"`
	TopIn    float64 `json:"top_in" validate:"gte=0"`
	WidthIn  float64 `json:"width_in" validate:"gt=0"`
	HeightIn float64 `json:"height_in" validate:"gt=0"`
}

// Box converts the position to a Box.
func (p Position) Box() Box {
	return BoxFromInches(p.LeftIn, p.TopIn, p.WidthIn, p.HeightIn)
}

// Textbox is free text placed at an anchor or explicit position.
type Textbox struct {
	ID        string          `json:"id" validate:"required"`
	Anchor    string          `json:"anchor,omitempty"`
	Text      string          `json:"text"`
	Font      *Font           `json:"font,omitempty"`
	Paragraph *ParagraphStyle `json:"paragraph,omitempty"`
	Position  *Position       `json:"position,omitempty"`
}

func (*Text) Kind() ElementKind    { return KindText }
func (*Bullets) Kind() ElementKind { return KindBullets }
func (*Table) Kind() ElementKind   { return KindTable }
func (*Chart) Kind() ElementKind   { return KindChart }
func (*Image) Kind() ElementKind   { return KindImage }
func (*Textbox) Kind() ElementKind { return KindTextbox }

// Lines returns the bullet texts in order.
func (b *Bullets) Lines() []string {
	lines := make([]string, len(b.Items))
	for i, item := range b.Items {
		lines[i] = item.Text
	}
	return lines
}

// Truncate returns a copy holding at most n items.
func (b *Bullets) Truncate(n int) *Bullets {
	if n < 0 {
		n = 0
	}
	if n > len(b.Items) {
		n = len(b.Items)
	}
	items := make([]BulletItem, n)
	copy(items, b.Items[:n])
	return &Bullets{Items: items}
}
