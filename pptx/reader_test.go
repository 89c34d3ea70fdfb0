package pptx_test

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"path/filepath"
	"strings"
	"testing"

	"github.com/tsawler/pptxgen/format"
	"github.com/tsawler/pptxgen/model"
	"github.com/tsawler/pptxgen/pptx"
	"github.com/tsawler/pptxgen/pptx/pptxtest"
)

func TestOpenLayoutsInMasterOrder(t *testing.T) {
	path := pptxtest.Template{Layouts: []pptxtest.Layout{
		pptxtest.TitleLayout("Title Slide"),
		pptxtest.TitleAndContentLayout("Title and Content"),
	}}.Write(t)

	r, err := pptx.Open(path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer r.Close()

	layouts := r.Layouts()
	if len(layouts) != 2 {
		t.Fatalf("expected 2 layouts, got %d", len(layouts))
	}
	if layouts[0].Name != "Title Slide" || layouts[1].Name != "Title and Content" {
		t.Errorf("unexpected layout order: %q, %q", layouts[0].Name, layouts[1].Name)
	}
	if layouts[1].Identifier != "2147483650" {
		t.Errorf("expected identifier 2147483650, got %q", layouts[1].Identifier)
	}
	if layouts[1].Index != 1 {
		t.Errorf("expected index 1, got %d", layouts[1].Index)
	}

	phs := layouts[1].Placeholders()
	if len(phs) != 2 {
		t.Fatalf("expected 2 placeholders, got %d", len(phs))
	}
	if phs[1].Placeholder.EffectiveType() != "obj" || phs[1].Placeholder.Idx != 1 {
		t.Errorf("unexpected body placeholder %+v", phs[1].Placeholder)
	}
	if phs[1].Box != pptxtest.BodyBox {
		t.Errorf("expected body box %+v, got %+v", pptxtest.BodyBox, phs[1].Box)
	}

	if w, h := r.SlideSize(); w != 12192000 || h != 6858000 {
		t.Errorf("unexpected slide size %dx%d", w, h)
	}
}

func TestPlaceholderInheritsMasterGeometry(t *testing.T) {
	path := pptxtest.Template{Layouts: []pptxtest.Layout{{
		Name: "Inherited",
		Placeholders: []pptxtest.Placeholder{
			{Name: "Title 1", Type: "title", NoXfrm: true},
			{Name: "Body 2", Type: "body", Idx: 1, NoXfrm: true},
		},
	}}}.Write(t)

	r, err := pptx.Open(path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}

	shapes := r.Layouts()[0].Shapes
	for i, want := range []model.Box{pptxtest.TitleBox, pptxtest.BodyBox} {
		if !shapes[i].HasBox || !shapes[i].Inherited {
			t.Errorf("shape %d: expected inherited box", i)
		}
		if shapes[i].Box != want {
			t.Errorf("shape %d: expected %+v, got %+v", i, want, shapes[i].Box)
		}
	}
}

func TestMalformedLayoutIsRecorded(t *testing.T) {
	path := pptxtest.Template{Layouts: []pptxtest.Layout{
		pptxtest.TitleLayout("Good"),
		{Raw: `<p:sldLayout xmlns:p="http://schemas.openxmlformats.org/presentationml/2006/main"><p:cSld>`},
		pptxtest.TitleLayout("Also Good"),
	}}.Write(t)

	r, err := pptx.Open(path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	layouts := r.Layouts()
	if len(layouts) != 3 {
		t.Fatalf("expected 3 layouts, got %d", len(layouts))
	}
	if layouts[1].Err == nil {
		t.Error("expected malformed layout to carry an error")
	}
	if layouts[0].Err != nil || layouts[2].Err != nil {
		t.Error("expected the other layouts to parse")
	}
}

func TestBadGeometryStaysOnShape(t *testing.T) {
	path := pptxtest.Template{Layouts: []pptxtest.Layout{{
		Name: "Broken Shape",
		Shapes: []pptxtest.Shape{
			{Name: "Bad", BadX: "twelve", Box: model.BoxFromInches(1, 1, 1, 1)},
			{Name: "Fine", TextBox: true, Box: model.BoxFromInches(2, 2, 1, 1), Text: "hello"},
		},
	}}}.Write(t)

	r, err := pptx.Open(path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	shapes := r.Layouts()[0].Shapes
	if shapes[0].BoxErr == nil || shapes[0].HasBox {
		t.Errorf("expected geometry error on first shape, got %+v", shapes[0])
	}
	if shapes[1].BoxErr != nil || !shapes[1].TextBox || shapes[1].Text != "hello" {
		t.Errorf("unexpected second shape %+v", shapes[1])
	}
}

func TestOpenRejectsNonPackage(t *testing.T) {
	if _, err := pptx.Open(filepath.Join(t.TempDir(), "missing.pptx")); err == nil {
		t.Error("expected error for missing file")
	}
	if _, err := pptx.ReadPackage(bytes.NewReader([]byte("not a zip")), 9); err == nil {
		t.Error("expected error for non-zip data")
	}
}

func tinyPNG(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 4, 2))
	img.Set(0, 0, color.RGBA{R: 255, A: 255})
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encoding png: %v", err)
	}
	return buf.Bytes()
}

func TestDeckRoundTrip(t *testing.T) {
	tpl := pptxtest.Template{
		Layouts: []pptxtest.Layout{
			pptxtest.TitleLayout("Title"),
			pptxtest.TitleAndContentLayout("Title and Content"),
		},
		Slides: []pptxtest.Slide{{Layout: 0, Title: "Old slide"}},
	}.Write(t)

	deck, err := pptx.NewDeck(tpl)
	if err != nil {
		t.Fatalf("NewDeck failed: %v", err)
	}
	deck.SetLanguage("ja-JP")

	slide, err := deck.AddSlide(deck.Layouts()[1])
	if err != nil {
		t.Fatalf("AddSlide failed: %v", err)
	}
	title, ok := slide.PlaceholderByType("title", "ctrTitle")
	if !ok {
		t.Fatal("expected cloned title placeholder")
	}
	if title.Name() != "Title 1" {
		t.Errorf("expected cloned name %q, got %q", "Title 1", title.Name())
	}
	if err := title.SetText(pptx.TextLines("売上 & 利益", model.Font{Name: "Meiryo", SizePt: 32}, model.ParagraphStyle{Align: model.AlignCenter})); err != nil {
		t.Fatalf("SetText failed: %v", err)
	}

	body, ok := slide.PlaceholderByIdx(1)
	if !ok {
		t.Fatal("expected body placeholder with idx 1")
	}
	box, _ := body.Box()
	if err := slide.Remove(body); err != nil {
		t.Fatalf("Remove failed: %v", err)
	}
	if err := slide.Remove(body); err == nil {
		t.Error("expected error removing a shape twice")
	}

	slide.AddTable("Sales", box, pptx.TableSpec{
		Rows: [][]pptx.TableCellSpec{
			{{Text: "Region", Fill: "1F4E79"}, {Text: "Q1", Fill: "#1F4E79"}},
			{{Text: "East"}, {Text: "10"}},
		},
		ColumnWidths: []model.EMU{box.Width / 2, box.Width / 2},
		RowHeight:    model.Inches(0.4),
		HeaderRow:    true,
	})
	slide.AddChart("Trend", model.BoxFromInches(1, 1, 4, 3), pptx.ChartSpec{
		Type:       pptx.ChartLine,
		Categories: []string{"Q1", "Q2"},
		Series:     []pptx.ChartSeries{{Name: "Sales", Values: []float64{1.5, 2}, Color: "FF0000"}},
		DataLabels: true,
	})
	if _, err := slide.AddPicture("Logo", model.BoxFromInches(6, 1, 2, 1), pptx.PictureSpec{Data: tinyPNG(t), Format: format.PNG}); err != nil {
		t.Fatalf("AddPicture failed: %v", err)
	}
	if _, err := slide.AddPicture("Bad", model.BoxFromInches(6, 1, 2, 1), pptx.PictureSpec{Format: format.WEBP}); err == nil {
		t.Error("expected error for non-embeddable format")
	}
	slide.AddTextBox("Callout", model.BoxFromInches(1, 5, 3, 1), pptx.TextLines("line one\nline two", model.Font{}, model.ParagraphStyle{}))
	slide.SetNotes(pptx.TextLines("first note\nsecond note", model.Font{}, model.ParagraphStyle{}))

	out := filepath.Join(t.TempDir(), "out.pptx")
	if err := deck.Save(out); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	r, err := pptx.Open(out)
	if err != nil {
		t.Fatalf("reopening deck: %v", err)
	}
	if r.SlideCount() != 1 {
		t.Fatalf("expected template slides to be dropped, got %d slides", r.SlideCount())
	}
	got, _ := r.Slide(0)
	if got.LayoutName != "Title and Content" {
		t.Errorf("expected layout %q, got %q", "Title and Content", got.LayoutName)
	}
	if got.Title != "売上 & 利益" {
		t.Errorf("unexpected title %q", got.Title)
	}
	if !got.HasNotes || got.Notes != "first note\nsecond note" {
		t.Errorf("unexpected notes %q", got.Notes)
	}

	table, ok := got.ShapeByName("Sales")
	if !ok || table.Table == nil {
		t.Fatal("expected table shape")
	}
	if table.Table.Rows[1][0].Text != "East" || table.Table.Columns != 2 {
		t.Errorf("unexpected table %+v", table.Table)
	}
	if chart, ok := got.ShapeByName("Trend"); !ok || !chart.IsChart() {
		t.Error("expected chart graphic frame")
	}
	if pic, ok := got.ShapeByName("Logo"); !ok || pic.Kind != pptx.KindPicture {
		t.Error("expected picture")
	}
	if tb, ok := got.ShapeByName("Callout"); !ok || tb.Text != "line one\nline two" {
		t.Errorf("unexpected text box %+v", tb)
	}
	if _, ok := got.ShapeByName("Content Placeholder 2"); ok {
		t.Error("removed placeholder should not be written")
	}

	pkg := r.Package()
	for _, name := range []string{"ppt/charts/chart1.xml", "ppt/media/image1.png", "ppt/notesMasters/notesMaster1.xml", "ppt/notesSlides/notesSlide1.xml"} {
		if !pkg.Has(name) {
			t.Errorf("expected part %s", name)
		}
	}
	ct, _ := pkg.Part("[Content_Types].xml")
	if !strings.Contains(string(ct), `Extension="png"`) {
		t.Error("expected png default content type")
	}
	pres, _ := pkg.Part("ppt/presentation.xml")
	if !strings.Contains(string(pres), "<p:notesMasterIdLst>") {
		t.Error("expected notes master id list")
	}
	if strings.Count(string(pres), "<p:sldId ") != 1 {
		t.Errorf("expected exactly one slide id in %s", pres)
	}
}

func TestDeckSavesTwice(t *testing.T) {
	tpl := pptxtest.Template{Layouts: []pptxtest.Layout{pptxtest.TitleLayout("Title")}}.Write(t)
	deck, err := pptx.NewDeck(tpl)
	if err != nil {
		t.Fatalf("NewDeck failed: %v", err)
	}
	if _, err := deck.AddSlide(deck.Layouts()[0]); err != nil {
		t.Fatalf("AddSlide failed: %v", err)
	}

	var first, second bytes.Buffer
	if err := deck.Write(&first); err != nil {
		t.Fatalf("first Write failed: %v", err)
	}
	if err := deck.Write(&second); err != nil {
		t.Fatalf("second Write failed: %v", err)
	}
	for _, buf := range []*bytes.Buffer{&first, &second} {
		pkg, err := pptx.ReadPackage(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
		if err != nil {
			t.Fatalf("ReadPackage failed: %v", err)
		}
		r, err := pptx.NewReader(pkg)
		if err != nil {
			t.Fatalf("NewReader failed: %v", err)
		}
		if r.SlideCount() != 1 {
			t.Errorf("expected 1 slide, got %d", r.SlideCount())
		}
	}
}

func TestAddSlideRejectsMalformedLayout(t *testing.T) {
	tpl := pptxtest.Template{Layouts: []pptxtest.Layout{{Raw: "<broken"}}}.Write(t)
	deck, err := pptx.NewDeck(tpl)
	if err != nil {
		t.Fatalf("NewDeck failed: %v", err)
	}
	if _, err := deck.AddSlide(deck.Layouts()[0]); err == nil {
		t.Error("expected error for malformed layout")
	}
	if _, err := deck.AddSlide(nil); err == nil {
		t.Error("expected error for nil layout")
	}
}

func TestRelsPath(t *testing.T) {
	tests := []struct {
		part string
		want string
	}{
		{"ppt/slides/slide1.xml", "ppt/slides/_rels/slide1.xml.rels"},
		{"ppt/presentation.xml", "ppt/_rels/presentation.xml.rels"},
		{"", "_rels/.rels"},
	}
	for _, tt := range tests {
		if got := pptx.RelsPath(tt.part); got != tt.want {
			t.Errorf("RelsPath(%q) = %q, want %q", tt.part, got, tt.want)
		}
	}
}

func TestResolveTarget(t *testing.T) {
	tests := []struct {
		source, target, want string
	}{
		{"ppt/slides/slide1.xml", "../slideLayouts/slideLayout2.xml", "ppt/slideLayouts/slideLayout2.xml"},
		{"ppt/presentation.xml", "slides/slide1.xml", "ppt/slides/slide1.xml"},
		{"ppt/slides/slide1.xml", "/ppt/media/image1.png", "ppt/media/image1.png"},
		{"", "ppt/presentation.xml", "ppt/presentation.xml"},
	}
	for _, tt := range tests {
		if got := pptx.ResolveTarget(tt.source, tt.target); got != tt.want {
			t.Errorf("ResolveTarget(%q, %q) = %q, want %q", tt.source, tt.target, got, tt.want)
		}
	}
}
