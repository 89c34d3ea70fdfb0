package pptx

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/tsawler/pptxgen/format"
	"github.com/tsawler/pptxgen/model"
)

// TableSpec describes a table graphic frame.
type TableSpec struct {
	Rows         [][]TableCellSpec
	ColumnWidths []model.EMU
	RowHeight    model.EMU
	HeaderRow    bool
}

// TableCellSpec is the content and formatting of one table cell.
type TableCellSpec struct {
	Text string
	Font model.Font
	Fill string // RRGGBB; empty leaves the cell unfilled
}

// PictureSpec is an image to embed. Format must be embeddable.
type PictureSpec struct {
	Data   []byte
	Format format.Format
	Crop   model.Crop
	Descr  string
}

// ShapeRef is a shape on a slide under construction.
type ShapeRef struct {
	id          int
	name        string
	placeholder *Placeholder
	box         model.Box
	hasBox      bool
	ownBox      bool // box is written to the slide rather than inherited
	textBox     bool
	text        *TextFrame
	table       *TableSpec
	chart       *ChartSpec
	picture     *PictureSpec
	relID       string // assigned while the deck is saved
}

// ID returns the shape id, unique within its slide.
func (s *ShapeRef) ID() int { return s.id }

// Name returns the shape name.
func (s *ShapeRef) Name() string { return s.name }

// Placeholder returns the placeholder properties, or nil.
func (s *ShapeRef) Placeholder() *Placeholder { return s.placeholder }

// IsPlaceholder reports whether the shape is a placeholder.
func (s *ShapeRef) IsPlaceholder() bool { return s.placeholder != nil }

// Box returns the shape geometry. ok is false when the geometry is unknown.
func (s *ShapeRef) Box() (model.Box, bool) { return s.box, s.hasBox }

// SetBox places the shape explicitly.
func (s *ShapeRef) SetBox(box model.Box) {
	s.box = box
	s.hasBox = true
	s.ownBox = true
}

// HasTextFrame reports whether text can be written into the shape.
func (s *ShapeRef) HasTextFrame() bool {
	return s.table == nil && s.chart == nil && s.picture == nil
}

// SetText replaces the text of the shape.
func (s *ShapeRef) SetText(tf TextFrame) error {
	if !s.HasTextFrame() {
		return fmt.Errorf("shape %q has no text frame", s.name)
	}
	s.text = &tf
	return nil
}

// ClearText empties the text frame.
func (s *ShapeRef) ClearText() {
	s.text = nil
}

// Text returns the text written into the shape.
func (s *ShapeRef) Text() string {
	if s.text == nil {
		return ""
	}
	return s.text.Text()
}

// SlideBuilder collects the shapes of one slide.
type SlideBuilder struct {
	layout *Layout
	shapes []*ShapeRef
	nextID int
	notes  *TextFrame
}

// Layout returns the layout the slide is based on.
func (s *SlideBuilder) Layout() *Layout { return s.layout }

// Shapes returns the slide's shapes in z-order.
func (s *SlideBuilder) Shapes() []*ShapeRef {
	return append([]*ShapeRef(nil), s.shapes...)
}

// ShapeByName returns the first shape with the given name.
func (s *SlideBuilder) ShapeByName(name string) (*ShapeRef, bool) {
	for _, sh := range s.shapes {
		if sh.name == name {
			return sh, true
		}
	}
	return nil, false
}

// PlaceholderByIdx returns the placeholder with the given idx.
func (s *SlideBuilder) PlaceholderByIdx(idx int) (*ShapeRef, bool) {
	for _, sh := range s.shapes {
		if sh.placeholder != nil && sh.placeholder.Idx == idx {
			return sh, true
		}
	}
	return nil, false
}

// PlaceholderByType returns the first placeholder whose type is one of types.
func (s *SlideBuilder) PlaceholderByType(types ...string) (*ShapeRef, bool) {
	for _, sh := range s.shapes {
		if sh.placeholder == nil {
			continue
		}
		for _, t := range types {
			if sh.placeholder.EffectiveType() == t {
				return sh, true
			}
		}
	}
	return nil, false
}

// Remove deletes a shape from the slide.
func (s *SlideBuilder) Remove(target *ShapeRef) error {
	for i, sh := range s.shapes {
		if sh == target {
			s.shapes = append(s.shapes[:i], s.shapes[i+1:]...)
			return nil
		}
	}
	if target == nil {
		return fmt.Errorf("cannot remove nil shape")
	}
	return fmt.Errorf("shape %q is not on the slide", target.name)
}

// AddTextBox adds a text box.
func (s *SlideBuilder) AddTextBox(name string, box model.Box, tf TextFrame) *ShapeRef {
	sh := s.add(name, box)
	sh.textBox = true
	sh.text = &tf
	return sh
}

// AddTable adds a table graphic frame.
func (s *SlideBuilder) AddTable(name string, box model.Box, t TableSpec) *ShapeRef {
	sh := s.add(name, box)
	sh.table = &t
	return sh
}

// AddPicture adds a picture.
func (s *SlideBuilder) AddPicture(name string, box model.Box, p PictureSpec) (*ShapeRef, error) {
	if !p.Format.Embeddable() {
		return nil, fmt.Errorf("picture %q: %s cannot be embedded", name, p.Format)
	}
	sh := s.add(name, box)
	sh.picture = &p
	return sh, nil
}

// AddChart adds a chart graphic frame backed by its own chart part.
func (s *SlideBuilder) AddChart(name string, box model.Box, c ChartSpec) *ShapeRef {
	sh := s.add(name, box)
	sh.chart = &c
	return sh
}

// SetNotes sets the speaker notes of the slide.
func (s *SlideBuilder) SetNotes(tf TextFrame) {
	s.notes = &tf
}

// Notes returns the notes frame, or nil.
func (s *SlideBuilder) Notes() *TextFrame { return s.notes }

func (s *SlideBuilder) add(name string, box model.Box) *ShapeRef {
	id := s.newID()
	if name == "" {
		name = fmt.Sprintf("Shape %d", id-1)
	}
	sh := &ShapeRef{id: id, name: name, box: box, hasBox: true, ownBox: true}
	s.shapes = append(s.shapes, sh)
	return sh
}

func (s *SlideBuilder) newID() int {
	id := s.nextID
	s.nextID++
	return id
}

var placeholderBaseNames = map[string]string{
	"title":    "Title",
	"ctrTitle": "Title",
	"subTitle": "Subtitle",
	"body":     "Text Placeholder",
	"obj":      "Content Placeholder",
	"chart":    "Chart Placeholder",
	"tbl":      "Table Placeholder",
	"pic":      "Picture Placeholder",
	"clipArt":  "ClipArt Placeholder",
	"dgm":      "SmartArt Placeholder",
	"media":    "Media Placeholder",
	"hdr":      "Header Placeholder",
}

// placeholderName names a cloned placeholder the way PowerPoint does, for
// example "Title 1" or "Content Placeholder 2".
func placeholderName(ph *Placeholder, id int) string {
	base, ok := placeholderBaseNames[ph.EffectiveType()]
	if !ok {
		base = "Placeholder"
	}
	if ph.Orient == "vert" {
		base = "Vertical " + base
	}
	return fmt.Sprintf("%s %d", base, id-1)
}

// cloneable reports whether a layout placeholder is copied onto new slides.
// Date, footer and slide number placeholders are not.
func cloneable(ph *Placeholder) bool {
	switch ph.EffectiveType() {
	case "dt", "ftr", "sldNum":
		return false
	}
	return true
}

// writeXML writes the shape as a member of a slide shape tree.
func (s *ShapeRef) writeXML(b *strings.Builder, lang string) {
	switch {
	case s.picture != nil:
		s.writePicture(b)
	case s.chart != nil:
		s.writeChartFrame(b)
	case s.table != nil:
		s.writeTable(b, lang)
	default:
		s.writeSp(b, lang)
	}
}

func writeCNvPr(b *strings.Builder, id int, name, descr string) {
	b.WriteString(`<p:cNvPr id="` + strconv.Itoa(id) + `" name="` + escapeAttr(name) + `"`)
	if descr != "" {
		b.WriteString(` descr="` + escapeAttr(descr) + `"`)
	}
	b.WriteString(`/>`)
}

func writePh(b *strings.Builder, ph *Placeholder) {
	b.WriteString(`<p:ph`)
	if ph.Type != "" {
		b.WriteString(` type="` + escapeAttr(ph.Type) + `"`)
	}
	if ph.Orient != "" {
		b.WriteString(` orient="` + escapeAttr(ph.Orient) + `"`)
	}
	if ph.Size != "" {
		b.WriteString(` sz="` + escapeAttr(ph.Size) + `"`)
	}
	if ph.HasIdx {
		b.WriteString(` idx="` + strconv.Itoa(ph.Idx) + `"`)
	}
	b.WriteString(`/>`)
}

func (s *ShapeRef) writeSp(b *strings.Builder, lang string) {
	b.WriteString(`<p:sp><p:nvSpPr>`)
	writeCNvPr(b, s.id, s.name, "")
	switch {
	case s.placeholder != nil:
		b.WriteString(`<p:cNvSpPr><a:spLocks noGrp="1"/></p:cNvSpPr><p:nvPr>`)
		writePh(b, s.placeholder)
		b.WriteString(`</p:nvPr>`)
	case s.textBox:
		b.WriteString(`<p:cNvSpPr txBox="1"/><p:nvPr/>`)
	default:
		b.WriteString(`<p:cNvSpPr/><p:nvPr/>`)
	}
	b.WriteString(`</p:nvSpPr>`)

	switch {
	case s.placeholder != nil && !s.ownBox:
		b.WriteString(`<p:spPr/>`)
	case s.placeholder != nil:
		b.WriteString(`<p:spPr>`)
		writeXfrm(b, "a:xfrm", s.box)
		b.WriteString(`</p:spPr>`)
	default:
		b.WriteString(`<p:spPr>`)
		writeXfrm(b, "a:xfrm", s.box)
		b.WriteString(`<a:prstGeom prst="rect"><a:avLst/></a:prstGeom><a:noFill/></p:spPr>`)
	}

	if s.textBox {
		b.WriteString(`<p:txBody><a:bodyPr wrap="square" rtlCol="0"><a:noAutofit/></a:bodyPr><a:lstStyle/>`)
	} else {
		b.WriteString(`<p:txBody><a:bodyPr/><a:lstStyle/>`)
	}
	writeParagraphs(b, s.text, lang)
	b.WriteString(`</p:txBody></p:sp>`)
}

func (s *ShapeRef) writeTable(b *strings.Builder, lang string) {
	t := s.table
	b.WriteString(`<p:graphicFrame><p:nvGraphicFramePr>`)
	writeCNvPr(b, s.id, s.name, "")
	b.WriteString(`<p:cNvGraphicFramePr><a:graphicFrameLocks noGrp="1"/></p:cNvGraphicFramePr><p:nvPr/></p:nvGraphicFramePr>`)
	writeXfrm(b, "p:xfrm", s.box)
	b.WriteString(`<a:graphic><a:graphicData uri="` + uriTable + `"><a:tbl>`)
	if t.HeaderRow {
		b.WriteString(`<a:tblPr firstRow="1" bandRow="1"/>`)
	} else {
		b.WriteString(`<a:tblPr bandRow="1"/>`)
	}
	b.WriteString(`<a:tblGrid>`)
	for _, w := range t.ColumnWidths {
		b.WriteString(`<a:gridCol w="` + emuAttr(w) + `"/>`)
	}
	b.WriteString(`</a:tblGrid>`)
	for _, row := range t.Rows {
		b.WriteString(`<a:tr h="` + emuAttr(t.RowHeight) + `">`)
		for col := range t.ColumnWidths {
			var cell TableCellSpec
			if col < len(row) {
				cell = row[col]
			}
			b.WriteString(`<a:tc><a:txBody><a:bodyPr/><a:lstStyle/>`)
			tf := TextLines(cell.Text, cell.Font, model.ParagraphStyle{})
			writeParagraphs(b, &tf, lang)
			b.WriteString(`</a:txBody>`)
			if fill, _ := model.NormalizeHex(cell.Fill); fill != "" {
				b.WriteString(`<a:tcPr>`)
				writeSolidFill(b, fill)
				b.WriteString(`</a:tcPr>`)
			} else {
				b.WriteString(`<a:tcPr/>`)
			}
			b.WriteString(`</a:tc>`)
		}
		b.WriteString(`</a:tr>`)
	}
	b.WriteString(`</a:tbl></a:graphicData></a:graphic></p:graphicFrame>`)
}

func (s *ShapeRef) writePicture(b *strings.Builder) {
	p := s.picture
	b.WriteString(`<p:pic><p:nvPicPr>`)
	writeCNvPr(b, s.id, s.name, p.Descr)
	b.WriteString(`<p:cNvPicPr><a:picLocks noChangeAspect="1"/></p:cNvPicPr><p:nvPr/></p:nvPicPr>`)
	b.WriteString(`<p:blipFill><a:blip r:embed="` + escapeAttr(s.relID) + `"/>`)
	if !p.Crop.IsZero() {
		b.WriteString(`<a:srcRect l="` + cropAttr(p.Crop.Left) + `" t="` + cropAttr(p.Crop.Top) +
			`" r="` + cropAttr(p.Crop.Right) + `" b="` + cropAttr(p.Crop.Bottom) + `"/>`)
	}
	b.WriteString(`<a:stretch><a:fillRect/></a:stretch></p:blipFill><p:spPr>`)
	writeXfrm(b, "a:xfrm", s.box)
	b.WriteString(`<a:prstGeom prst="rect"><a:avLst/></a:prstGeom></p:spPr></p:pic>`)
}

// cropAttr converts a crop fraction to thousandths of a percent.
func cropAttr(f float64) string {
	return strconv.Itoa(int(f*100000 + 0.5))
}

func (s *ShapeRef) writeChartFrame(b *strings.Builder) {
	b.WriteString(`<p:graphicFrame><p:nvGraphicFramePr>`)
	writeCNvPr(b, s.id, s.name, "")
	b.WriteString(`<p:cNvGraphicFramePr/><p:nvPr/></p:nvGraphicFramePr>`)
	writeXfrm(b, "p:xfrm", s.box)
	b.WriteString(`<a:graphic><a:graphicData uri="` + uriChart + `"><c:chart xmlns:c="` + nsChart +
		`" r:id="` + escapeAttr(s.relID) + `"/></a:graphicData></a:graphic></p:graphicFrame>`)
}
