package render

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"io/fs"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"

	"github.com/tsawler/pptxgen/config"
	"github.com/tsawler/pptxgen/format"
	"github.com/tsawler/pptxgen/jobspec"
	"github.com/tsawler/pptxgen/model"
	"github.com/tsawler/pptxgen/pptx"
	"github.com/tsawler/pptxgen/pptx/pptxtest"
)

var rightBox = model.BoxFromInches(7, 1.6, 5.8, 5.2)

func twoContentLayout() pptxtest.Layout {
	return pptxtest.Layout{Name: "Two Content", Type: "twoObj", Placeholders: []pptxtest.Placeholder{
		{Name: "Heading Placeholder", Type: "title", Box: pptxtest.TitleBox},
		{Name: "Left Content Placeholder", Idx: 1, Box: pptxtest.BodyBox},
		{Name: "Right Content Placeholder", Idx: 2, Box: rightBox},
	}, Shapes: []pptxtest.Shape{
		{Name: "Logo", Box: model.BoxFromInches(12, 7, 1, 0.4)},
	}}
}

func newSlide(t *testing.T, l pptxtest.Layout) (*pptx.SlideBuilder, *pptx.Layout) {
	t.Helper()
	deck, err := pptx.NewDeck(pptxtest.Template{Layouts: []pptxtest.Layout{l}}.Write(t))
	require.NoError(t, err)
	layout := deck.Layouts()[0]
	sb, err := deck.AddSlide(layout)
	require.NoError(t, err)
	return sb, layout
}

func newJob(slides ...jobspec.Slide) *jobspec.Spec {
	return &jobspec.Spec{
		Meta:   jobspec.Meta{SchemaVersion: "1.1", Title: "Quarterly review"},
		Auth:   jobspec.Auth{CreatedBy: "tester"},
		Slides: slides,
	}
}

// renderAndOpen renders job and opens the written deck.
func renderAndOpen(t *testing.T, r *Renderer, tpl string, job *jobspec.Spec) (*Result, *pptx.Reader) {
	t.Helper()
	out := filepath.Join(t.TempDir(), "out", "deck.pptx")
	res, err := r.Render(context.Background(), job, tpl, out)
	require.NoError(t, err)
	reader, err := pptx.Open(out)
	require.NoError(t, err)
	t.Cleanup(func() { reader.Close() })
	return res, reader
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	img.Set(0, 0, color.RGBA{B: 255, A: 255})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestResolveLadder(t *testing.T) {
	sb, layout := newSlide(t, twoContentLayout())
	a := anchorResolver{sb: sb, layout: layout}
	fallback := model.BoxFromInches(1, 1, 2, 2)

	tests := []struct {
		anchor string
		state  State
		shape  string
		box    model.Box
	}{
		{"Title 1", StateAnchorByName, "Title 1", pptxtest.TitleBox},
		{"Content Placeholder 3", StateAnchorByName, "Content Placeholder 3", rightBox},
		{"Left Content Placeholder", StatePlaceholderByName, "Content Placeholder 2", pptxtest.BodyBox},
		{"Heading Placeholder", StatePlaceholderByName, "Title 1", pptxtest.TitleBox},
		{"Logo", StateFallbackBox, "", fallback},
		{"", StateFallbackBox, "", fallback},
	}
	for _, tt := range tests {
		t.Run(tt.anchor, func(t *testing.T) {
			got, err := a.resolve(tt.anchor, fallback, false)
			require.NoError(t, err)
			assert.Equal(t, tt.state, got.State)
			assert.Equal(t, tt.box, got.Box)
			if tt.shape == "" {
				assert.Nil(t, got.Shape)
				assert.False(t, got.Consumable())
				return
			}
			require.NotNil(t, got.Shape)
			assert.Equal(t, tt.shape, got.Shape.Name())
			assert.True(t, got.Consumable())
		})
	}
}

func TestResolveStrictAnchor(t *testing.T) {
	sb, layout := newSlide(t, twoContentLayout())
	a := anchorResolver{sb: sb, layout: layout}

	_, err := a.resolve("Logo", model.Box{}, true)
	assert.ErrorIs(t, err, ErrAnchorNotFound)

	got, err := a.resolve("Right Content Placeholder", model.Box{}, true)
	require.NoError(t, err)
	assert.Equal(t, StatePlaceholderByName, got.State)
}

func TestConsumePlaceholder(t *testing.T) {
	sb, layout := newSlide(t, twoContentLayout())
	core, logs := observer.New(zapcore.DebugLevel)
	s := &slideRenderer{log: zap.New(core), sb: sb, anchors: anchorResolver{sb: sb, layout: layout}}

	target, err := s.anchors.resolve("Left Content Placeholder", model.Box{}, false)
	require.NoError(t, err)
	s.consume(target)
	_, ok := sb.ShapeByName("Content Placeholder 2")
	assert.False(t, ok, "consumed placeholder should be gone")

	// A second removal fails and is only logged.
	s.consume(target)
	assert.Equal(t, 1, logs.FilterMessage("placeholder removal failed").Len())

	s.consume(Target{State: StateFallbackBox})
	assert.Len(t, sb.Shapes(), 2)
}

func TestChooseLayout(t *testing.T) {
	two := []*pptx.Layout{{Name: "Title"}, {Name: "Title and Content"}}
	one := []*pptx.Layout{{Name: "Only"}}

	tests := []struct {
		name    string
		layouts []*pptx.Layout
		want    string
		exact   bool
	}{
		{"Title", two, "Title", true},
		{"Missing", two, "Title and Content", false},
		{"Missing", one, "Only", false},
	}
	for _, tt := range tests {
		got, exact := chooseLayout(tt.layouts, tt.name)
		assert.Equal(t, tt.want, got.Name)
		assert.Equal(t, tt.exact, exact)
	}
}

func TestRenderTitleOnly(t *testing.T) {
	tpl := pptxtest.Template{Layouts: []pptxtest.Layout{pptxtest.TitleLayout("Title")}}.Write(t)
	job := newJob(jobspec.Slide{ID: "s1", Layout: "Title", Title: "A"})

	res, reader := renderAndOpen(t, New(Options{}), tpl, job)

	require.Equal(t, 1, reader.SlideCount())
	slide, _ := reader.Slide(0)
	assert.Equal(t, "A", slide.Title)
	assert.Equal(t, "Title", slide.LayoutName)
	require.Len(t, res.Slides, 1)
	assert.Equal(t, "Title", res.Slides[0].Layout)
	assert.Greater(t, res.Elapsed.Nanoseconds(), int64(0))
}

func TestRenderLayoutFallback(t *testing.T) {
	tpl := pptxtest.Template{Layouts: []pptxtest.Layout{
		pptxtest.TitleLayout("Title"),
		pptxtest.TitleAndContentLayout("Title and Content"),
	}}.Write(t)
	core, logs := observer.New(zapcore.WarnLevel)
	job := newJob(jobspec.Slide{ID: "s1", Layout: "Agenda", Title: "Plan"})

	_, reader := renderAndOpen(t, New(Options{Logger: zap.New(core)}), tpl, job)

	slide, _ := reader.Slide(0)
	assert.Equal(t, "Title and Content", slide.LayoutName)
	assert.Equal(t, 1, logs.FilterMessage("layout not found in template, using fallback").Len())
}

func TestRenderFailures(t *testing.T) {
	empty := pptxtest.Template{}.Write(t)
	job := newJob(jobspec.Slide{ID: "s1", Layout: "Title", Title: "A"})
	out := filepath.Join(t.TempDir(), "deck.pptx")
	r := New(Options{})

	_, err := r.Render(context.Background(), job, empty, out)
	assert.ErrorIs(t, err, ErrNoLayouts)

	_, err = r.Render(context.Background(), job, "", out)
	assert.ErrorIs(t, err, ErrNoTemplate)

	_, err = r.Render(context.Background(), job, filepath.Join(t.TempDir(), "missing.pptx"), out)
	assert.ErrorIs(t, err, fs.ErrNotExist)

	var rerr *Error
	assert.ErrorAs(t, err, &rerr)
	assert.NoFileExists(t, out)
}

func TestRenderUsesMetaTemplatePath(t *testing.T) {
	tpl := pptxtest.Template{Layouts: []pptxtest.Layout{pptxtest.TitleLayout("Title")}}.Write(t)
	job := newJob(jobspec.Slide{ID: "s1", Layout: "Title", Title: "A"})
	job.Meta.TemplatePath = tpl

	_, reader := renderAndOpen(t, New(Options{}), "", job)
	assert.Equal(t, 1, reader.SlideCount())
}

func TestRenderBullets(t *testing.T) {
	tpl := pptxtest.Template{Layouts: []pptxtest.Layout{twoContentLayout()}}.Write(t)
	job := newJob(jobspec.Slide{
		ID:     "s1",
		Layout: "Two Content",
		Title:  "Overview",
		Bullets: []jobspec.BulletGroup{
			{Items: []model.BulletItem{{Text: "one"}, {Text: "two", Level: 1}}},
			{Anchor: "Right Content Placeholder", Items: []model.BulletItem{{Text: "side"}}},
		},
	})

	res, reader := renderAndOpen(t, New(Options{}), tpl, job)
	slide, _ := reader.Slide(0)

	body, ok := slide.ShapeByName("Content Placeholder 2")
	require.True(t, ok)
	require.Len(t, body.Paragraphs, 2)
	assert.Equal(t, "one", body.Paragraphs[0].Text)
	assert.Equal(t, 0, body.Paragraphs[0].Level)
	assert.Equal(t, "two", body.Paragraphs[1].Text)
	assert.Equal(t, 1, body.Paragraphs[1].Level)

	side, ok := slide.ShapeByName("Content Placeholder 3")
	require.True(t, ok)
	assert.Equal(t, "side", side.Text)

	assert.Contains(t, res.Slides[0].Resolutions, Resolution{Element: "bullets", Anchor: "Right Content Placeholder", State: StatePlaceholderByName})
	assert.Contains(t, res.Slides[0].Resolutions, Resolution{Element: "body", State: StatePlaceholderByName})
}

func TestRenderBodyWithoutPlaceholder(t *testing.T) {
	tpl := pptxtest.Template{Layouts: []pptxtest.Layout{pptxtest.TitleLayout("Title")}}.Write(t)
	job := newJob(jobspec.Slide{
		ID:      "s1",
		Layout:  "Title",
		Title:   "Only a title",
		Bullets: []jobspec.BulletGroup{{Items: []model.BulletItem{{Text: "loose"}}}},
	})

	_, reader := renderAndOpen(t, New(Options{}), tpl, job)
	slide, _ := reader.Slide(0)
	sh, ok := slide.ShapeByName("body")
	require.True(t, ok)
	assert.Equal(t, "loose", sh.Text)
	assert.Equal(t, config.DefaultBranding().Components.Textbox.FallbackBox.Box(), sh.Box)
}

func TestRenderStrictBulletAnchor(t *testing.T) {
	tpl := pptxtest.Template{Layouts: []pptxtest.Layout{twoContentLayout()}}.Write(t)
	out := filepath.Join(t.TempDir(), "deck.pptx")

	job := newJob(jobspec.Slide{ID: "s1", Layout: "Two Content", Bullets: []jobspec.BulletGroup{
		{Anchor: "Missing", Items: []model.BulletItem{{Text: "x"}}},
	}})
	_, err := New(Options{}).Render(context.Background(), job, tpl, out)
	require.ErrorIs(t, err, ErrAnchorNotFound)
	var rerr *Error
	require.ErrorAs(t, err, &rerr)
	assert.Equal(t, "s1", rerr.SlideID)
	assert.Equal(t, "Missing", rerr.Anchor)
	assert.NoFileExists(t, out)

	job = newJob(jobspec.Slide{ID: "s1", Layout: "Two Content", Bullets: []jobspec.BulletGroup{
		{Anchor: "Right Content Placeholder", Items: []model.BulletItem{{Text: "x"}}},
		{Anchor: "Right Content Placeholder", Items: []model.BulletItem{{Text: "y"}}},
	}})
	_, err = New(Options{}).Render(context.Background(), job, tpl, out)
	assert.ErrorIs(t, err, ErrDuplicateAnchor)
}

func TestRenderRenamedAnchorUsesFallbackBox(t *testing.T) {
	layout := pptxtest.Layout{Name: "Two Content", Placeholders: []pptxtest.Placeholder{
		{Name: "Title 1", Type: "title", Box: pptxtest.TitleBox},
		{Name: "Renamed Placeholder", Idx: 1, Box: pptxtest.BodyBox},
	}}
	tpl := pptxtest.Template{Layouts: []pptxtest.Layout{layout}}.Write(t)
	job := newJob(jobspec.Slide{
		ID:     "s1",
		Layout: "Two Content",
		Title:  "Sales",
		Tables: []model.Table{{
			ID:      "t1",
			Anchor:  "Left Content Placeholder",
			Columns: []string{"Region", "Q1"},
			Rows:    [][]string{{"East", "10"}},
		}},
	})
	core, logs := observer.New(zapcore.DebugLevel)

	res, reader := renderAndOpen(t, New(Options{Logger: zap.New(core)}), tpl, job)

	slide, _ := reader.Slide(0)
	table, ok := slide.ShapeByName("t1")
	require.True(t, ok)
	require.NotNil(t, table.Table)
	assert.Equal(t, "East", table.Table.Rows[1][0].Text)
	assert.Equal(t, config.DefaultBranding().Components.Table.FallbackBox.Box(), table.Box)
	assert.Contains(t, res.Slides[0].Resolutions, Resolution{Element: "t1", Anchor: "Left Content Placeholder", State: StateFallbackBox})
	assert.Zero(t, logs.FilterLevelExact(zapcore.ErrorLevel).Len())

	_, ok = slide.ShapeByName("Content Placeholder 2")
	assert.False(t, ok, "the content placeholder the table replaces should be consumed")
	_, ok = slide.ShapeByName("Title 1")
	assert.True(t, ok)
}

func TestRenderFallbackKeepsFilledPlaceholders(t *testing.T) {
	tpl := pptxtest.Template{Layouts: []pptxtest.Layout{twoContentLayout()}}.Write(t)
	job := newJob(jobspec.Slide{
		ID:        "s1",
		Layout:    "Two Content",
		Bullets:   []jobspec.BulletGroup{{Items: []model.BulletItem{{Text: "kept"}}}},
		Charts:    []model.Chart{{ID: "c1", Anchor: "Gone", Type: "column", Series: []model.Series{{Name: "s", Values: []float64{1}}}}},
		Textboxes: []model.Textbox{{ID: "caption", Anchor: "c1", Text: "beside the chart"}},
	})

	_, reader := renderAndOpen(t, New(Options{}), tpl, job)
	slide, _ := reader.Slide(0)

	body, ok := slide.ShapeByName("Content Placeholder 2")
	require.True(t, ok)
	assert.Equal(t, "kept", body.Text)
	_, ok = slide.ShapeByName("Content Placeholder 3")
	assert.False(t, ok, "the empty placeholder should give way to the chart")

	chart, ok := slide.ShapeByName("c1")
	require.True(t, ok)
	assert.Equal(t, config.DefaultBranding().Components.Chart.FallbackBox.Box(), chart.Box)

	// A chart holds no text, so the caption anchored to it gets its own box.
	caption, ok := slide.ShapeByName("caption")
	require.True(t, ok)
	assert.True(t, caption.TextBox)
	assert.Equal(t, "beside the chart", caption.Text)
	assert.True(t, chart.IsChart())
}

func TestRenderTableConsumesPlaceholder(t *testing.T) {
	tpl := pptxtest.Template{Layouts: []pptxtest.Layout{twoContentLayout()}}.Write(t)
	job := newJob(jobspec.Slide{
		ID:     "s1",
		Layout: "Two Content",
		Tables: []model.Table{{ID: "t1", Anchor: "Left Content Placeholder", Columns: []string{"A"}, Rows: [][]string{{"1"}}}},
		Charts: []model.Chart{{ID: "c1", Anchor: "Right Content Placeholder", Type: "column", Series: []model.Series{{Name: "s", Values: []float64{1, 2}}}}},
	})

	_, reader := renderAndOpen(t, New(Options{}), tpl, job)
	slide, _ := reader.Slide(0)

	table, ok := slide.ShapeByName("t1")
	require.True(t, ok)
	assert.Equal(t, pptxtest.BodyBox, table.Box)
	chart, ok := slide.ShapeByName("c1")
	require.True(t, ok)
	assert.True(t, chart.IsChart())
	assert.Equal(t, rightBox, chart.Box)

	for _, name := range []string{"Content Placeholder 2", "Content Placeholder 3"} {
		_, ok := slide.ShapeByName(name)
		assert.False(t, ok, "placeholder %s should be consumed", name)
	}
}

func TestRenderTextboxesAndNotes(t *testing.T) {
	tpl := pptxtest.Template{Layouts: []pptxtest.Layout{pptxtest.TitleLayout("Title")}}.Write(t)
	pos := model.Position{LeftIn: 1, TopIn: 2, WidthIn: 3, HeightIn: 1}
	job := newJob(jobspec.Slide{
		ID:     "s1",
		Layout: "Title",
		Title:  "T",
		Notes:  "first\nsecond",
		Textboxes: []model.Textbox{
			{ID: "placed", Text: "explicit", Position: &pos},
			{ID: "loose", Anchor: "Nowhere", Text: "fallback"},
		},
	})

	_, reader := renderAndOpen(t, New(Options{}), tpl, job)
	slide, _ := reader.Slide(0)

	placed, ok := slide.ShapeByName("placed")
	require.True(t, ok)
	assert.Equal(t, pos.Box(), placed.Box)
	assert.True(t, placed.TextBox)

	loose, ok := slide.ShapeByName("loose")
	require.True(t, ok)
	assert.Equal(t, "fallback", loose.Text)
	assert.Equal(t, config.DefaultBranding().Components.Textbox.FallbackBox.Box(), loose.Box)

	assert.True(t, slide.HasNotes)
	assert.Equal(t, "first\nsecond", slide.Notes)
}

func TestRenderPlacementOverrides(t *testing.T) {
	tpl := pptxtest.Template{Layouts: []pptxtest.Layout{pptxtest.TitleLayout("Title")}}.Write(t)
	b := config.DefaultBranding()
	box := config.BoxSpec{LeftIn: 2, TopIn: 2, WidthIn: 4, HeightIn: 1}
	b.Layouts["Title"] = config.LayoutBranding{Placements: map[string]config.Placement{
		"title": {Font: &model.Font{SizePt: 40}},
		"note":  {Box: &box},
	}}
	job := newJob(jobspec.Slide{
		ID:        "s1",
		Layout:    "Title",
		Title:     "Big",
		Textboxes: []model.Textbox{{ID: "note", Text: "moved"}},
	})

	_, reader := renderAndOpen(t, New(Options{Branding: b}), tpl, job)
	slide, _ := reader.Slide(0)

	title, ok := slide.ShapeByName("Title 1")
	require.True(t, ok)
	require.NotEmpty(t, title.Paragraphs)
	require.NotEmpty(t, title.Paragraphs[0].Runs)
	assert.Equal(t, 4000, title.Paragraphs[0].Runs[0].FontSize)
	assert.True(t, title.Paragraphs[0].Runs[0].Bold, "heading font stays bold under a size-only override")

	note, ok := slide.ShapeByName("note")
	require.True(t, ok)
	assert.Equal(t, box.Box(), note.Box)
}

func TestRenderRemoteImage(t *testing.T) {
	data := pngBytes(t, 40, 20)
	agents := make(chan string, 4)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		agents <- r.Header.Get("User-Agent")
		if r.URL.Path != "/logo.png" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "image/png")
		w.Write(data)
	}))
	defer srv.Close()

	tpl := pptxtest.Template{Layouts: []pptxtest.Layout{pptxtest.TitleLayout("Title")}}.Write(t)
	tmp := t.TempDir()
	r := New(Options{HTTPClient: srv.Client(), TempDir: tmp})
	job := newJob(jobspec.Slide{ID: "s1", Layout: "Title", Title: "T", Images: []model.Image{
		{ID: "img1", Source: srv.URL + "/logo.png"},
	}})

	_, reader := renderAndOpen(t, r, tpl, job)
	assert.Equal(t, UserAgent, <-agents)

	slide, _ := reader.Slide(0)
	pic, ok := slide.ShapeByName("img1")
	require.True(t, ok)
	assert.Equal(t, pptx.KindPicture, pic.Kind)
	fb := config.DefaultBranding().Components.Image.FallbackBox.Box()
	assert.Equal(t, fb.Fit(40, 20), pic.Box)

	entries, err := os.ReadDir(tmp)
	require.NoError(t, err)
	assert.Empty(t, entries, "downloaded images should be removed")

	job.Slides[0].Images[0].Source = srv.URL + "/missing.png"
	_, err = r.Render(context.Background(), job, tpl, filepath.Join(t.TempDir(), "deck.pptx"))
	assert.ErrorIs(t, err, ErrImageFetch)
	entries, err = os.ReadDir(tmp)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestRenderMissingLocalImage(t *testing.T) {
	tpl := pptxtest.Template{Layouts: []pptxtest.Layout{pptxtest.TitleLayout("Title")}}.Write(t)
	job := newJob(jobspec.Slide{ID: "s1", Layout: "Title", Images: []model.Image{
		{ID: "img1", Source: filepath.Join(t.TempDir(), "nope.png")},
	}})

	_, err := New(Options{}).Render(context.Background(), job, tpl, filepath.Join(t.TempDir(), "deck.pptx"))
	assert.ErrorIs(t, err, ErrImageNotFound)
	assert.ErrorIs(t, err, fs.ErrNotExist)
	var rerr *Error
	require.ErrorAs(t, err, &rerr)
	assert.Equal(t, "s1", rerr.SlideID)
}

func TestRenderLocalImageExplicitBox(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "photo.png")
	require.NoError(t, os.WriteFile(path, pngBytes(t, 10, 10), 0o644))
	left, top, w, h := 1.0, 1.0, 4.0, 2.0

	tpl := pptxtest.Template{Layouts: []pptxtest.Layout{pptxtest.TitleLayout("Title")}}.Write(t)
	job := newJob(jobspec.Slide{ID: "s1", Layout: "Title", Images: []model.Image{
		{ID: "img1", Source: path, Sizing: model.SizingStretch, LeftIn: &left, TopIn: &top, WidthIn: &w, HeightIn: &h},
	}})

	_, reader := renderAndOpen(t, New(Options{}), tpl, job)
	slide, _ := reader.Slide(0)
	pic, ok := slide.ShapeByName("img1")
	require.True(t, ok)
	assert.Equal(t, model.BoxFromInches(1, 1, 4, 2), pic.Box)
}

func TestPictureGeometry(t *testing.T) {
	box := model.Box{Width: 1000, Height: 500}

	fit, crop := pictureGeometry(model.SizingFit, box, 100, 100)
	assert.Equal(t, model.Box{Left: 250, Width: 500, Height: 500}, fit)
	assert.True(t, crop.IsZero())

	fill, crop := pictureGeometry(model.SizingFill, box, 100, 100)
	assert.Equal(t, box, fill)
	assert.InDelta(t, 0.25, crop.Top, 1e-9)
	assert.InDelta(t, 0.25, crop.Bottom, 1e-9)
	assert.Zero(t, crop.Left)

	stretch, crop := pictureGeometry(model.SizingStretch, box, 100, 100)
	assert.Equal(t, box, stretch)
	assert.True(t, crop.IsZero())

	def, _ := pictureGeometry("", box, 100, 100)
	assert.Equal(t, fit, def)
}

func TestDecodePicture(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 3, 2))

	var bmpBuf bytes.Buffer
	require.NoError(t, bmp.Encode(&bmpBuf, src))
	var tiffBuf bytes.Buffer
	require.NoError(t, tiff.Encode(&tiffBuf, src, nil))

	for name, data := range map[string][]byte{"bmp": bmpBuf.Bytes(), "tiff": tiffBuf.Bytes()} {
		t.Run(name, func(t *testing.T) {
			pic, err := decodePicture(data)
			require.NoError(t, err)
			assert.Equal(t, format.PNG, pic.format)
			assert.Equal(t, format.PNG, format.DetectFromMagic(pic.data))
			assert.Equal(t, 3, pic.width)
			assert.Equal(t, 2, pic.height)
		})
	}

	data := pngBytes(t, 5, 7)
	pic, err := decodePicture(data)
	require.NoError(t, err)
	assert.Equal(t, data, pic.data, "png is embedded as is")
	assert.Equal(t, 5, pic.width)
	assert.Equal(t, 7, pic.height)

	_, err = decodePicture([]byte("not an image"))
	assert.True(t, errors.Is(err, ErrImageFormat))
}

func TestBuildTable(t *testing.T) {
	b := config.DefaultBranding()
	box := model.BoxFromInches(0, 0, 10, 4)
	tbl := &model.Table{
		ID:      "t",
		Columns: []string{"A", "B", "C"},
		Rows:    [][]string{{"1", "2", "3"}, {"4", "5"}, {"7", "8", "9"}},
		Style:   &model.TableStyle{HeaderFill: "#00ff00", Zebra: true},
	}

	spec, ok := buildTable(tbl, box, b, nil)
	require.True(t, ok)
	assert.True(t, spec.HeaderRow)
	require.Len(t, spec.Rows, 4)
	for _, row := range spec.Rows {
		assert.Len(t, row, 3)
	}
	assert.Equal(t, "", spec.Rows[2][2].Text, "short rows are padded")
	assert.Equal(t, "00FF00", spec.Rows[0][0].Fill)
	assert.Equal(t, "", spec.Rows[1][0].Fill)
	assert.Equal(t, "F2F2F2", spec.Rows[2][0].Fill)
	assert.Equal(t, "", spec.Rows[3][0].Fill)
	assert.Equal(t, box.Height/4, spec.RowHeight)

	var total model.EMU
	for _, w := range spec.ColumnWidths {
		total += w
	}
	assert.Equal(t, box.Width, total)
	assert.Equal(t, spec.ColumnWidths[0], spec.ColumnWidths[1])

	header := spec.Rows[0][0].Font
	require.NotNil(t, header.Bold)
	assert.True(t, *header.Bold)
	assert.Equal(t, "FFFFFF", header.Color)
	assert.Equal(t, "Yu Gothic", header.Name)

	plain, ok := buildTable(&model.Table{ID: "p", Rows: [][]string{{"x"}, {"y"}}}, box, b, nil)
	require.True(t, ok)
	assert.False(t, plain.HeaderRow)
	assert.Len(t, plain.Rows, 2)
	assert.Equal(t, "", plain.Rows[1][0].Fill, "no zebra unless the table asks for it")

	_, ok = buildTable(&model.Table{ID: "e"}, box, b, nil)
	assert.False(t, ok)
}

func TestBuildChart(t *testing.T) {
	b := config.DefaultBranding()
	b.Components.Chart.Palette = []string{"111111", "222222"}
	c := &model.Chart{ID: "c", Type: model.ChartBar, Series: []model.Series{
		{Name: "a", Values: []float64{1, 2, 3}},
		{Name: "b", Values: []float64{1}, ColorHex: "#ff0000"},
		{Name: "c"},
		{Name: "d"},
	}}

	spec := buildChart(c, b)
	assert.Equal(t, pptx.ChartBar, spec.Type)
	assert.Equal(t, []string{"1", "2", "3"}, spec.Categories)
	var colors []string
	for _, s := range spec.Series {
		colors = append(colors, s.Color)
	}
	assert.Equal(t, []string{"111111", "FF0000", "111111", "222222"}, colors)
	assert.False(t, spec.DataLabels)
	assert.Equal(t, "0", spec.NumberFormat)
	assert.True(t, spec.Legend)
	assert.Equal(t, "Yu Gothic", spec.AxisFont.Name)

	on := true
	c.Options = &model.ChartOptions{DataLabels: &on, YAxisFormat: "0.0%"}
	spec = buildChart(c, b)
	assert.True(t, spec.DataLabels)
	assert.Equal(t, "0.0%", spec.NumberFormat)

	pie := buildChart(&model.Chart{ID: "p", Type: model.ChartPie, Categories: []string{"x", "y", "z"},
		Series: []model.Series{{Name: "share", Values: []float64{1, 2, 3}}}}, config.DefaultBranding())
	assert.True(t, pie.Legend)
	assert.Equal(t, []string{"1F4E79", "2E75B6", "F39C12"}, pie.Series[0].PointColors)
}
