// Package pptxtest builds small PPTX templates for tests.
package pptxtest

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/tsawler/pptxgen/model"
)

const (
	nsA = "http://schemas.openxmlformats.org/drawingml/2006/main"
	nsR = "http://schemas.openxmlformats.org/officeDocument/2006/relationships"
	nsP = "http://schemas.openxmlformats.org/presentationml/2006/main"

	relBase = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/"
	ctBase  = "application/vnd.openxmlformats-officedocument."
)

// Placeholder is a placeholder shape on a layout.
type Placeholder struct {
	Name   string
	Type   string // ph@type; empty writes an untyped (object) placeholder
	Idx    int    // written when greater than zero
	Orient string
	Box    model.Box
	NoXfrm bool // inherit geometry from the master
	Text   string
}

// Shape is a non-placeholder shape on a layout.
type Shape struct {
	Name    string
	Box     model.Box
	TextBox bool
	Text    string
	BadX    string // written verbatim as a:off@x when set
}

// Layout is one slide layout.
type Layout struct {
	Name         string
	Type         string
	Placeholders []Placeholder
	Shapes       []Shape
	Raw          string // replaces the generated part, e.g. malformed XML
}

// Slide is a slide already present in the template.
type Slide struct {
	Layout int // index into Template.Layouts
	Title  string
}

// Template describes a package with one slide master.
type Template struct {
	Layouts []Layout
	Slides  []Slide
}

// Standard geometry used by the helpers, 13.33 x 7.5 inch slides.
var (
	TitleBox    = model.BoxFromInches(0.5, 0.3, 12.3, 1.2)
	SubtitleBox = model.BoxFromInches(0.5, 1.6, 12.3, 1.0)
	BodyBox     = model.BoxFromInches(0.5, 1.6, 12.3, 5.2)
)

// TitleLayout returns a layout with a single title placeholder.
func TitleLayout(name string) Layout {
	return Layout{Name: name, Type: "title", Placeholders: []Placeholder{
		{Name: "Title 1", Type: "title", Box: TitleBox},
	}}
}

// TitleAndContentLayout returns a layout with a title and a body placeholder.
func TitleAndContentLayout(name string) Layout {
	return Layout{Name: name, Type: "obj", Placeholders: []Placeholder{
		{Name: "Title 1", Type: "title", Box: TitleBox},
		{Name: "Content Placeholder 2", Idx: 1, Box: BodyBox},
	}}
}

// Write writes the template into a temporary directory and returns its path.
func (t Template) Write(tb testing.TB) string {
	tb.Helper()
	data, err := t.Bytes()
	if err != nil {
		tb.Fatalf("building template: %v", err)
	}
	path := filepath.Join(tb.TempDir(), "template.pptx")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		tb.Fatalf("writing template: %v", err)
	}
	return path
}

// Bytes returns the zip archive of the template.
func (t Template) Bytes() ([]byte, error) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, part := range t.parts() {
		w, err := zw.Create(part.name)
		if err != nil {
			return nil, err
		}
		if _, err := w.Write([]byte(part.data)); err != nil {
			return nil, err
		}
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

type part struct {
	name string
	data string
}

func (t Template) parts() []part {
	var parts []part
	add := func(name, data string) { parts = append(parts, part{name, data}) }

	var ct strings.Builder
	ct.WriteString(xml.Header + `<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">`)
	ct.WriteString(`<Default Extension="rels" ContentType="application/vnd.openxmlformats-package.relationships+xml"/>`)
	ct.WriteString(`<Default Extension="xml" ContentType="application/xml"/>`)
	override := func(name, typ string) {
		ct.WriteString(`<Override PartName="/` + name + `" ContentType="` + ctBase + typ + `"/>`)
	}
	override("ppt/presentation.xml", "presentationml.presentation.main+xml")
	override("ppt/slideMasters/slideMaster1.xml", "presentationml.slideMaster+xml")
	override("ppt/theme/theme1.xml", "theme+xml")
	for i := range t.Layouts {
		override(fmt.Sprintf("ppt/slideLayouts/slideLayout%d.xml", i+1), "presentationml.slideLayout+xml")
	}
	for i := range t.Slides {
		override(fmt.Sprintf("ppt/slides/slide%d.xml", i+1), "presentationml.slide+xml")
	}
	ct.WriteString(`</Types>`)
	add("[Content_Types].xml", ct.String())

	add("_rels/.rels", rels([]rel{{"rId1", "officeDocument", "ppt/presentation.xml"}}))

	presRels := []rel{{"rId1", "slideMaster", "slideMasters/slideMaster1.xml"}, {"rId2", "theme", "theme/theme1.xml"}}
	var sldIDs strings.Builder
	for i := range t.Slides {
		id := fmt.Sprintf("rId%d", i+3)
		presRels = append(presRels, rel{id, "slide", fmt.Sprintf("slides/slide%d.xml", i+1)})
		sldIDs.WriteString(fmt.Sprintf(`<p:sldId id="%d" r:id="%s"/>`, 256+i, id))
	}
	pres := xml.Header + `<p:presentation xmlns:a="` + nsA + `" xmlns:r="` + nsR + `" xmlns:p="` + nsP + `" saveSubsetFonts="1">` +
		`<p:sldMasterIdLst><p:sldMasterId id="2147483648" r:id="rId1"/></p:sldMasterIdLst>`
	if sldIDs.Len() > 0 {
		pres += `<p:sldIdLst>` + sldIDs.String() + `</p:sldIdLst>`
	}
	pres += `<p:sldSz cx="12192000" cy="6858000"/><p:notesSz cx="6858000" cy="9144000"/></p:presentation>`
	add("ppt/presentation.xml", pres)
	add("ppt/_rels/presentation.xml.rels", rels(presRels))

	var masterRels []rel
	var layoutIDs strings.Builder
	for i := range t.Layouts {
		id := fmt.Sprintf("rId%d", i+1)
		masterRels = append(masterRels, rel{id, "slideLayout", fmt.Sprintf("../slideLayouts/slideLayout%d.xml", i+1)})
		layoutIDs.WriteString(fmt.Sprintf(`<p:sldLayoutId id="%d" r:id="%s"/>`, 2147483649+i, id))
	}
	masterRels = append(masterRels, rel{fmt.Sprintf("rId%d", len(t.Layouts)+1), "theme", "../theme/theme1.xml"})
	add("ppt/slideMasters/slideMaster1.xml", masterXML(layoutIDs.String()))
	add("ppt/slideMasters/_rels/slideMaster1.xml.rels", rels(masterRels))
	add("ppt/theme/theme1.xml", themeXML)

	for i, l := range t.Layouts {
		name := fmt.Sprintf("ppt/slideLayouts/slideLayout%d.xml", i+1)
		data := l.Raw
		if data == "" {
			data = layoutXML(l)
		}
		add(name, data)
		add(fmt.Sprintf("ppt/slideLayouts/_rels/slideLayout%d.xml.rels", i+1),
			rels([]rel{{"rId1", "slideMaster", "../slideMasters/slideMaster1.xml"}}))
	}

	for i, s := range t.Slides {
		add(fmt.Sprintf("ppt/slides/slide%d.xml", i+1), slideXML(s))
		add(fmt.Sprintf("ppt/slides/_rels/slide%d.xml.rels", i+1),
			rels([]rel{{"rId1", "slideLayout", fmt.Sprintf("../slideLayouts/slideLayout%d.xml", s.Layout+1)}}))
	}
	return parts
}

type rel struct {
	id, typ, target string
}

func rels(rs []rel) string {
	var b strings.Builder
	b.WriteString(xml.Header + `<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">`)
	for _, r := range rs {
		b.WriteString(`<Relationship Id="` + r.id + `" Type="` + relBase + r.typ + `" Target="` + r.target + `"/>`)
	}
	b.WriteString(`</Relationships>`)
	return b.String()
}

const groupProps = `<p:nvGrpSpPr><p:cNvPr id="1" name=""/><p:cNvGrpSpPr/><p:nvPr/></p:nvGrpSpPr><p:grpSpPr/>`

func masterXML(layoutIDs string) string {
	var b strings.Builder
	b.WriteString(xml.Header + `<p:sldMaster xmlns:a="` + nsA + `" xmlns:r="` + nsR + `" xmlns:p="` + nsP + `">`)
	b.WriteString(`<p:cSld><p:spTree>` + groupProps)
	writePlaceholder(&b, 2, Placeholder{Name: "Title Placeholder 1", Type: "title", Box: TitleBox})
	writePlaceholder(&b, 3, Placeholder{Name: "Text Placeholder 2", Type: "body", Idx: 1, Box: BodyBox})
	writePlaceholder(&b, 4, Placeholder{Name: "Date Placeholder 3", Type: "dt", Idx: 2, Box: model.BoxFromInches(0.5, 6.95, 3, 0.4)})
	writePlaceholder(&b, 5, Placeholder{Name: "Footer Placeholder 4", Type: "ftr", Idx: 3, Box: model.BoxFromInches(4.4, 6.95, 4.5, 0.4)})
	writePlaceholder(&b, 6, Placeholder{Name: "Slide Number Placeholder 5", Type: "sldNum", Idx: 4, Box: model.BoxFromInches(9.8, 6.95, 3, 0.4)})
	b.WriteString(`</p:spTree></p:cSld>`)
	b.WriteString(`<p:clrMap bg1="lt1" tx1="dk1" bg2="lt2" tx2="dk2" accent1="accent1" accent2="accent2" accent3="accent3" accent4="accent4" accent5="accent5" accent6="accent6" hlink="hlink" folHlink="folHlink"/>`)
	b.WriteString(`<p:sldLayoutIdLst>` + layoutIDs + `</p:sldLayoutIdLst></p:sldMaster>`)
	return b.String()
}

func layoutXML(l Layout) string {
	var b strings.Builder
	b.WriteString(xml.Header + `<p:sldLayout xmlns:a="` + nsA + `" xmlns:r="` + nsR + `" xmlns:p="` + nsP + `"`)
	if l.Type != "" {
		b.WriteString(` type="` + esc(l.Type) + `"`)
	}
	b.WriteString(` preserve="1"><p:cSld name="` + esc(l.Name) + `"><p:spTree>` + groupProps)
	id := 2
	for _, ph := range l.Placeholders {
		writePlaceholder(&b, id, ph)
		id++
	}
	for _, sh := range l.Shapes {
		writeShape(&b, id, sh)
		id++
	}
	b.WriteString(`</p:spTree></p:cSld><p:clrMapOvr><a:masterClrMapping/></p:clrMapOvr></p:sldLayout>`)
	return b.String()
}

func slideXML(s Slide) string {
	var b strings.Builder
	b.WriteString(xml.Header + `<p:sld xmlns:a="` + nsA + `" xmlns:r="` + nsR + `" xmlns:p="` + nsP + `">`)
	b.WriteString(`<p:cSld><p:spTree>` + groupProps)
	writePlaceholder(&b, 2, Placeholder{Name: "Title 1", Type: "title", NoXfrm: true, Text: s.Title})
	b.WriteString(`</p:spTree></p:cSld><p:clrMapOvr><a:masterClrMapping/></p:clrMapOvr></p:sld>`)
	return b.String()
}

func writePlaceholder(b *strings.Builder, id int, ph Placeholder) {
	fmt.Fprintf(b, `<p:sp><p:nvSpPr><p:cNvPr id="%d" name="%s"/><p:cNvSpPr><a:spLocks noGrp="1"/></p:cNvSpPr><p:nvPr><p:ph`, id, esc(ph.Name))
	if ph.Type != "" {
		b.WriteString(` type="` + esc(ph.Type) + `"`)
	}
	if ph.Orient != "" {
		b.WriteString(` orient="` + esc(ph.Orient) + `"`)
	}
	if ph.Idx > 0 {
		fmt.Fprintf(b, ` idx="%d"`, ph.Idx)
	}
	b.WriteString(`/></p:nvPr></p:nvSpPr>`)
	if ph.NoXfrm {
		b.WriteString(`<p:spPr/>`)
	} else {
		b.WriteString(`<p:spPr>` + xfrm(ph.Box, "") + `</p:spPr>`)
	}
	writeTxBody(b, ph.Text)
	b.WriteString(`</p:sp>`)
}

func writeShape(b *strings.Builder, id int, sh Shape) {
	fmt.Fprintf(b, `<p:sp><p:nvSpPr><p:cNvPr id="%d" name="%s"/>`, id, esc(sh.Name))
	if sh.TextBox {
		b.WriteString(`<p:cNvSpPr txBox="1"/>`)
	} else {
		b.WriteString(`<p:cNvSpPr/>`)
	}
	b.WriteString(`<p:nvPr/></p:nvSpPr><p:spPr>` + xfrm(sh.Box, sh.BadX) + `<a:prstGeom prst="rect"><a:avLst/></a:prstGeom></p:spPr>`)
	writeTxBody(b, sh.Text)
	b.WriteString(`</p:sp>`)
}

func writeTxBody(b *strings.Builder, text string) {
	b.WriteString(`<p:txBody><a:bodyPr/><a:lstStyle/><a:p>`)
	if text != "" {
		b.WriteString(`<a:r><a:rPr lang="en-US"/><a:t>` + esc(text) + `</a:t></a:r>`)
	}
	b.WriteString(`</a:p></p:txBody>`)
}

func xfrm(box model.Box, badX string) string {
	x := fmt.Sprint(int64(box.Left))
	if badX != "" {
		x = esc(badX)
	}
	return fmt.Sprintf(`<a:xfrm><a:off x="%s" y="%d"/><a:ext cx="%d" cy="%d"/></a:xfrm>`, x, box.Top, box.Width, box.Height)
}

func esc(s string) string {
	var b strings.Builder
	_ = xml.EscapeText(&b, []byte(s))
	return b.String()
}

const themeXML = xml.Header + `<a:theme xmlns:a="` + nsA + `" name="Test Theme"><a:themeElements>` +
	`<a:clrScheme name="Test"><a:dk1><a:srgbClr val="000000"/></a:dk1><a:lt1><a:srgbClr val="FFFFFF"/></a:lt1>` +
	`<a:dk2><a:srgbClr val="1F497D"/></a:dk2><a:lt2><a:srgbClr val="EEECE1"/></a:lt2>` +
	`<a:accent1><a:srgbClr val="4F81BD"/></a:accent1><a:accent2><a:srgbClr val="C0504D"/></a:accent2>` +
	`<a:accent3><a:srgbClr val="9BBB59"/></a:accent3><a:accent4><a:srgbClr val="8064A2"/></a:accent4>` +
	`<a:accent5><a:srgbClr val="4BACC6"/></a:accent5><a:accent6><a:srgbClr val="F79646"/></a:accent6>` +
	`<a:hlink><a:srgbClr val="0000FF"/></a:hlink><a:folHlink><a:srgbClr val="800080"/></a:folHlink></a:clrScheme>` +
	`<a:fontScheme name="Test"><a:majorFont><a:latin typeface="Calibri"/><a:ea typeface=""/><a:cs typeface=""/></a:majorFont>` +
	`<a:minorFont><a:latin typeface="Calibri"/><a:ea typeface=""/><a:cs typeface=""/></a:minorFont></a:fontScheme>` +
	`<a:fmtScheme name="Test"><a:fillStyleLst><a:solidFill><a:schemeClr val="phClr"/></a:solidFill><a:solidFill><a:schemeClr val="phClr"/></a:solidFill><a:solidFill><a:schemeClr val="phClr"/></a:solidFill></a:fillStyleLst>` +
	`<a:lnStyleLst><a:ln w="9525"><a:solidFill><a:schemeClr val="phClr"/></a:solidFill></a:ln><a:ln w="25400"><a:solidFill><a:schemeClr val="phClr"/></a:solidFill></a:ln><a:ln w="38100"><a:solidFill><a:schemeClr val="phClr"/></a:solidFill></a:ln></a:lnStyleLst>` +
	`<a:effectStyleLst><a:effectStyle><a:effectLst/></a:effectStyle><a:effectStyle><a:effectLst/></a:effectStyle><a:effectStyle><a:effectLst/></a:effectStyle></a:effectStyleLst>` +
	`<a:bgFillStyleLst><a:solidFill><a:schemeClr val="phClr"/></a:solidFill><a:solidFill><a:schemeClr val="phClr"/></a:solidFill><a:solidFill><a:schemeClr val="phClr"/></a:solidFill></a:bgFillStyleLst></a:fmtScheme>` +
	`</a:themeElements></a:theme>`
