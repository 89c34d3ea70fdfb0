package pptx

import (
	"strings"

	"github.com/tsawler/pptxgen/model"
)

// ShapeKind is the element a shape tree member was read from.
type ShapeKind string

const (
	KindShape        ShapeKind = "sp"
	KindPicture      ShapeKind = "pic"
	KindGraphicFrame ShapeKind = "graphicFrame"
	KindGroup        ShapeKind = "grpSp"
	KindConnector    ShapeKind = "cxnSp"
)

// Placeholder is the ph element of a placeholder shape.
type Placeholder struct {
	Type   string // raw ph@type; empty means "obj"
	Idx    int
	HasIdx bool
	Orient string
	Size   string
}

// EffectiveType returns the placeholder type with the OOXML default applied.
func (p *Placeholder) EffectiveType() string {
	if p.Type == "" {
		return "obj"
	}
	return p.Type
}

// Shape is one member of a shape tree.
type Shape struct {
	ID          string
	Name        string
	Descr       string
	Kind        ShapeKind
	TextBox     bool
	Placeholder *Placeholder

	Box       model.Box
	HasBox    bool  // Box is known (own or inherited)
	Inherited bool  // Box came from the layout or master
	BoxErr    error // own xfrm could not be parsed

	HasTextFrame bool
	Paragraphs   []Paragraph
	Text         string // paragraphs joined by newlines

	GraphicURI string // graphicData@uri for graphic frames
	Table      *Table
	Children   []Shape // group members
}

// IsPlaceholder reports whether the shape carries a ph element.
func (s *Shape) IsPlaceholder() bool { return s.Placeholder != nil }

// IsChart reports whether a graphic frame holds a chart.
func (s *Shape) IsChart() bool { return s.GraphicURI == uriChart }

// IsTable reports whether a graphic frame holds a table.
func (s *Shape) IsTable() bool { return s.GraphicURI == uriTable }

// Paragraph represents a paragraph within a text frame.
type Paragraph struct {
	Text      string
	Level     int    // Bullet/indent level (0 = top level)
	Alignment string // l, ctr, r, just
	Runs      []Run  // Text runs with formatting
}

// Run represents a text run with consistent formatting.
type Run struct {
	Text     string
	Bold     bool
	Italic   bool
	FontSize int // In hundredths of a point
}

// Table represents a table graphic frame.
type Table struct {
	Rows    [][]TableCell
	Columns int
}

// TableCell represents a cell in a table.
type TableCell struct {
	Text string
}

// Master is a parsed slide master.
type Master struct {
	PartName string
	Shapes   []Shape
}

// Layout is a parsed slide layout. A layout whose XML could not be parsed
// has Err set and no shapes.
type Layout struct {
	Index      int // position in slide-master order
	Name       string
	Identifier string // sldLayoutId@id from the master
	Type       string // sldLayout@type
	PartName   string
	MasterPart string
	Shapes     []Shape
	Err        error
}

// Placeholders returns the placeholder shapes of the layout.
func (l *Layout) Placeholders() []Shape {
	return placeholders(l.Shapes)
}

// Slide represents a parsed slide.
type Slide struct {
	Index      int // 0-indexed slide number
	PartName   string
	LayoutPart string
	LayoutName string
	Title      string // Slide title (from title placeholder)
	Shapes     []Shape
	HasNotes   bool
	Notes      string // Speaker notes
}

// Placeholders returns the placeholder shapes of the slide.
func (s *Slide) Placeholders() []Shape {
	return placeholders(s.Shapes)
}

// ShapeByName returns the first shape with the given name.
func (s *Slide) ShapeByName(name string) (Shape, bool) {
	for _, sh := range s.Shapes {
		if sh.Name == name {
			return sh, true
		}
	}
	return Shape{}, false
}

// GetText returns all text from the slide as a single string.
func (s *Slide) GetText() string {
	var parts []string
	for _, sh := range s.Shapes {
		if sh.Text != "" {
			parts = append(parts, sh.Text)
		}
	}
	return strings.Join(parts, "\n\n")
}

func placeholders(shapes []Shape) []Shape {
	var out []Shape
	for _, sh := range shapes {
		if sh.Placeholder != nil {
			out = append(out, sh)
		}
	}
	return out
}
