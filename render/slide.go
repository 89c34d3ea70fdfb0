package render

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/tsawler/pptxgen/config"
	"github.com/tsawler/pptxgen/jobspec"
	"github.com/tsawler/pptxgen/model"
	"github.com/tsawler/pptxgen/pptx"
)

// Placement keys of the slide-level text elements.
const (
	keyTitle    = "title"
	keySubtitle = "subtitle"
	keyBody     = "body"
)

type slideRenderer struct {
	branding *config.Branding
	log      *zap.Logger
	slide    *jobspec.Slide
	sb       *pptx.SlideBuilder
	anchors  anchorResolver
	images   *imageLoader
	result   SlideResult
}

func (s *slideRenderer) render(ctx context.Context) error {
	s.writeTitle()
	s.writeSubtitle()
	if err := s.writeBullets(); err != nil {
		return err
	}
	for i := range s.slide.Tables {
		s.writeTable(&s.slide.Tables[i])
	}
	for i := range s.slide.Charts {
		s.writeChart(&s.slide.Charts[i])
	}
	for i := range s.slide.Images {
		if err := s.writeImage(ctx, &s.slide.Images[i]); err != nil {
			return err
		}
	}
	for i := range s.slide.Textboxes {
		s.writeTextbox(&s.slide.Textboxes[i])
	}
	s.writeNotes()
	return nil
}

// placement returns the per-layout override for the first key that has one.
func (s *slideRenderer) placement(keys ...string) config.Placement {
	for _, k := range keys {
		if p, ok := s.branding.Placement(s.anchors.layout.Name, k); ok {
			return p
		}
	}
	return config.Placement{}
}

// place runs the anchor ladder and applies a placement box override.
func (s *slideRenderer) place(element, anchor string, fallback model.Box, pl config.Placement, strict bool) (Target, error) {
	t, err := s.anchors.resolve(anchor, fallback, strict)
	if err != nil {
		return Target{}, err
	}
	if pl.Box != nil {
		t.Box = pl.Box.Box()
	}
	s.record(element, anchor, t.State)
	return t, nil
}

func (s *slideRenderer) record(element, anchor string, state State) {
	s.result.Resolutions = append(s.result.Resolutions, Resolution{Element: element, Anchor: anchor, State: state})
	s.log.Debug("element placed",
		zap.String("element", element),
		zap.String("anchor", anchor),
		zap.String("state", string(state)))
}

// direct targets a placeholder found by its type rather than by an anchor.
func (s *slideRenderer) direct(element string, sh *pptx.ShapeRef, pl config.Placement) Target {
	t := newTarget(StatePlaceholderByName, sh, s.branding.Components.Textbox.FallbackBox.Box())
	if pl.Box != nil {
		t.Box = pl.Box.Box()
	}
	s.record(element, "", t.State)
	return t
}

// writeFrame writes text into the target shape, or into a new text box when
// the target cannot hold text.
func (s *slideRenderer) writeFrame(t Target, name string, tf pptx.TextFrame, pl config.Placement) {
	// SetText replaces any prompt text from the template. It refuses shapes
	// without a text frame, which then get a text box instead.
	if t.Shape != nil && t.Shape.SetText(tf) == nil {
		if pl.Box != nil {
			t.Shape.SetBox(t.Box)
		}
		return
	}
	s.sb.AddTextBox(name, t.Box, tf)
	s.consume(t)
}

func (s *slideRenderer) writeTitle() {
	if s.slide.Title == "" {
		return
	}
	sh, ok := s.sb.PlaceholderByType("title", "ctrTitle")
	if !ok {
		s.log.Debug("layout has no title placeholder")
		return
	}
	pl := s.placement(keyTitle)
	font := model.MergeFont(pl.Font, s.branding.Theme.HeadingFont)
	style := model.MergeParagraph(pl.Paragraph, model.ParagraphStyle{})
	s.writeFrame(s.direct(keyTitle, sh, pl), keyTitle, pptx.TextLines(s.slide.Title, font, style), pl)
}

func (s *slideRenderer) writeSubtitle() {
	if s.slide.Subtitle == "" {
		return
	}
	sh, ok := s.sb.PlaceholderByType("subTitle")
	if !ok {
		s.log.Debug("layout has no subtitle placeholder")
		return
	}
	pl := s.placement(keySubtitle)
	font := model.MergeFont(pl.Font, s.branding.Theme.BodyFont)
	style := model.MergeParagraph(pl.Paragraph, model.ParagraphStyle{})
	s.writeFrame(s.direct(keySubtitle, sh, pl), keySubtitle, pptx.TextLines(s.slide.Subtitle, font, style), pl)
}

// writeBullets places anchored groups at their strict anchors and joins the
// anchor-less groups into the body placeholder.
func (s *slideRenderer) writeBullets() error {
	seen := make(map[string]bool)
	for _, g := range s.slide.AnchoredGroups() {
		if seen[g.Anchor] {
			return &Error{SlideID: s.slide.ID, Anchor: g.Anchor, Err: ErrDuplicateAnchor}
		}
		seen[g.Anchor] = true

		pl := s.placement(g.Anchor)
		t, err := s.place("bullets", g.Anchor, s.branding.Components.Textbox.FallbackBox.Box(), pl, true)
		if err != nil {
			return &Error{SlideID: s.slide.ID, Anchor: g.Anchor, Err: err}
		}
		s.writeFrame(t, g.Anchor, s.bulletFrame(g.Items, pl), pl)
	}

	items := s.slide.BodyItems()
	if len(items) == 0 {
		return nil
	}
	pl := s.placement(keyBody)
	frame := s.bulletFrame(items, pl)
	if sh, ok := s.sb.PlaceholderByType("body", "obj"); ok {
		s.writeFrame(s.direct(keyBody, sh, pl), keyBody, frame, pl)
		return nil
	}
	t, _ := s.place(keyBody, "", s.branding.Components.Textbox.FallbackBox.Box(), pl, false)
	s.writeFrame(t, keyBody, frame, pl)
	return nil
}

func (s *slideRenderer) bulletFrame(items []model.BulletItem, pl config.Placement) pptx.TextFrame {
	base := model.MergeFont(pl.Font, s.branding.Theme.BodyFont)
	style := model.MergeParagraph(pl.Paragraph, model.ParagraphStyle{})
	var tf pptx.TextFrame
	for _, item := range items {
		tf.Paragraphs = append(tf.Paragraphs, pptx.TextParagraph{
			Runs:  []pptx.TextRun{{Text: item.Text, Font: model.MergeFont(item.Font, base)}},
			Level: item.Level,
			Style: style,
		})
	}
	return tf
}

func (s *slideRenderer) writeTable(t *model.Table) {
	comp := s.branding.Components.Table
	pl := s.placement(t.Anchor, t.ID)
	target, _ := s.place(t.ID, t.Anchor, comp.FallbackBox.Box(), pl, false)
	target = s.vacant(target)
	spec, ok := buildTable(t, target.Box, s.branding, pl.Font)
	if !ok {
		s.log.Warn("table has no cells, skipping", zap.String("table_id", t.ID))
		return
	}
	s.sb.AddTable(t.ID, target.Box, spec)
	s.consume(target)
}

func (s *slideRenderer) writeChart(c *model.Chart) {
	pl := s.placement(c.Anchor, c.ID)
	target, _ := s.place(c.ID, c.Anchor, s.branding.Components.Chart.FallbackBox.Box(), pl, false)
	target = s.vacant(target)
	s.sb.AddChart(c.ID, target.Box, buildChart(c, s.branding))
	s.consume(target)
}

func (s *slideRenderer) writeImage(ctx context.Context, img *model.Image) error {
	pic, err := s.images.load(ctx, img.Source)
	if err != nil {
		return &Error{SlideID: s.slide.ID, Anchor: img.Anchor, Err: err}
	}

	pl := s.placement(img.Anchor, img.ID)
	var target Target
	if box, ok := img.ExplicitBox(); ok {
		target = Target{Box: box}
	} else {
		target, _ = s.place(img.ID, img.Anchor, s.branding.Components.Image.FallbackBox.Box(), pl, false)
		target = s.vacant(target)
	}

	mode := img.Sizing
	if mode == "" {
		mode = s.branding.Components.Image.Sizing
	}
	box, crop := pictureGeometry(mode, target.Box, pic.width, pic.height)
	if _, err := s.sb.AddPicture(img.ID, box, pptx.PictureSpec{
		Data:   pic.data,
		Format: pic.format,
		Crop:   crop,
		Descr:  img.ID,
	}); err != nil {
		return &Error{SlideID: s.slide.ID, Anchor: img.Anchor, Err: fmt.Errorf("%w: %w", ErrImageFormat, err)}
	}
	s.consume(target)
	return nil
}

func (s *slideRenderer) writeTextbox(tb *model.Textbox) {
	comp := s.branding.Components.Textbox
	pl := s.placement(tb.Anchor, tb.ID)

	base := model.MergeFont(pl.Font, comp.Font.Merge(s.branding.Theme.BodyFont))
	font := model.MergeFont(tb.Font, base)
	style := model.MergeParagraph(tb.Paragraph, model.MergeParagraph(pl.Paragraph, comp.Paragraph))
	tf := pptx.TextLines(tb.Text, font, style)

	if tb.Position != nil {
		s.sb.AddTextBox(tb.ID, tb.Position.Box(), tf)
		return
	}
	target, _ := s.place(tb.ID, tb.Anchor, comp.FallbackBox.Box(), pl, false)
	s.writeFrame(target, tb.ID, tf, pl)
}

func (s *slideRenderer) writeNotes() {
	if s.slide.Notes == "" {
		return
	}
	s.sb.SetNotes(pptx.TextLines(s.slide.Notes, s.branding.Theme.BodyFont, model.ParagraphStyle{}))
}
