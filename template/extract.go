package template

import (
	"fmt"
	"math"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/tsawler/pptxgen/format"
	"github.com/tsawler/pptxgen/model"
	"github.com/tsawler/pptxgen/pptx"
)

// ReservedAnchors are shape names the renderer uses for bullet groups. A
// layout shape carrying one of them is flagged as a conflict.
var ReservedAnchors = []string{"bullets", "bullet_list", "content", "body"}

type options struct {
	layoutPrefix string
	anchorPrefix string
	identifiers  bool
	logger       *zap.Logger
}

// Option configures Extract.
type Option func(*options)

// WithLayoutPrefix keeps only layouts whose name starts with prefix.
func WithLayoutPrefix(prefix string) Option {
	return func(o *options) { o.layoutPrefix = prefix }
}

// WithAnchorPrefix keeps only shapes whose name starts with prefix.
func WithAnchorPrefix(prefix string) Option {
	return func(o *options) { o.anchorPrefix = prefix }
}

// WithLayoutIdentifiers records the master's sldLayoutId as the layout
// identifier. Identifiers are left empty by default, so layout ids are
// derived from layout names.
func WithLayoutIdentifiers(enabled bool) Option {
	return func(o *options) { o.identifiers = enabled }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// Extract parses the template at path. A missing file or a broken package
// returns an *ExtractError; a layout that cannot be parsed is recorded on
// its LayoutInfo and in Spec.Errors, and extraction continues.
func Extract(path string, opts ...Option) (*Spec, error) {
	o := options{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(&o)
	}
	start := time.Now()

	if err := checkFormat(path); err != nil {
		return nil, &ExtractError{Path: path, Err: err}
	}
	r, err := pptx.Open(path)
	if err != nil {
		return nil, &ExtractError{Path: path, Err: err}
	}
	defer r.Close()

	spec := &Spec{TemplatePath: path, Layouts: []LayoutInfo{}, Warnings: []string{}, Errors: []string{}}
	for _, l := range r.Layouts() {
		if o.layoutPrefix != "" && !strings.HasPrefix(l.Name, o.layoutPrefix) {
			continue
		}
		info := LayoutInfo{Name: l.Name, Shapes: []ShapeInfo{}}
		if o.identifiers {
			info.Identifier = l.Identifier
		}
		if l.Err != nil {
			info.Error = l.Err.Error()
			spec.Errors = append(spec.Errors, fmt.Sprintf("layout %d (%s): %v", l.Index+1, l.PartName, l.Err))
			o.logger.Warn("layout could not be parsed", zap.String("part", l.PartName), zap.Error(l.Err))
			spec.Layouts = append(spec.Layouts, info)
			continue
		}

		for _, sh := range l.Shapes {
			if o.anchorPrefix != "" && !strings.HasPrefix(sh.Name, o.anchorPrefix) {
				continue
			}
			si := describeShape(sh)
			if si.Error != "" {
				spec.Warnings = append(spec.Warnings, fmt.Sprintf("layout %q shape %q: %s", l.Name, si.Name, si.Error))
			}
			info.Shapes = append(info.Shapes, si)
		}
		spec.Layouts = append(spec.Layouts, info)
	}

	o.logger.Info("template extracted",
		zap.String("path", path),
		zap.Int("layouts", len(spec.Layouts)),
		zap.Int("errors", len(spec.Errors)),
		zap.Duration("elapsed", time.Since(start)))
	return spec, nil
}

// checkFormat verifies the file exists and is a presentation package.
func checkFormat(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	st, err := f.Stat()
	if err != nil {
		return err
	}
	if st.IsDir() {
		return fmt.Errorf("%s is a directory", path)
	}
	fmtKind, err := format.DetectFromReader(f, st.Size())
	if err != nil {
		return err
	}
	if !fmtKind.IsPresentation() {
		return ErrNotPresentation
	}
	return nil
}

// describeShape converts one layout shape.
func describeShape(sh pptx.Shape) ShapeInfo {
	si := ShapeInfo{
		Name:      strings.TrimSpace(sh.Name),
		ShapeType: shapeClass(sh),
		Text:      sh.Text,
	}
	if si.Name == "" {
		si.Name = "unnamed_shape_" + sh.ID
		si.MissingFields = append(si.MissingFields, "name")
	}

	if sh.Placeholder != nil {
		si.IsPlaceholder = true
		si.PlaceholderKind = PlaceholderKind(sh.Placeholder)
		idx := sh.Placeholder.Idx
		si.PlaceholderIdx = &idx
	}

	if sh.BoxErr != nil {
		si.Error = "invalid geometry: " + sh.BoxErr.Error()
	} else {
		si.Box = sh.Box
		si.LeftIn = roundInches(sh.Box.Left)
		si.TopIn = roundInches(sh.Box.Top)
		si.WidthIn = roundInches(sh.Box.Width)
		si.HeightIn = roundInches(sh.Box.Height)
		if si.Box.Width <= 0 {
			si.MissingFields = append(si.MissingFields, "width")
		}
		if si.Box.Height <= 0 {
			si.MissingFields = append(si.MissingFields, "height")
		}
	}

	if IsReservedAnchor(sh.Name) {
		si.Conflict = fmt.Sprintf("anchor name %q is reserved for bullet groups", strings.TrimSpace(sh.Name))
	}
	return si
}

// IsReservedAnchor reports whether name is a reserved bullet anchor,
// ignoring case and surrounding space.
func IsReservedAnchor(name string) bool {
	name = strings.ToLower(strings.TrimSpace(name))
	for _, r := range ReservedAnchors {
		if name == r {
			return true
		}
	}
	return false
}

func shapeClass(sh pptx.Shape) string {
	switch {
	case sh.Placeholder != nil:
		return ClassLayoutPlaceholder
	case sh.Kind == pptx.KindPicture:
		return ClassPicture
	case sh.Kind == pptx.KindGraphicFrame:
		return ClassGraphicFrame
	case sh.Kind == pptx.KindGroup:
		return ClassGroupShape
	case sh.Kind == pptx.KindConnector:
		return ClassConnector
	case sh.TextBox:
		return ClassTextBox
	}
	return ClassShape
}

var placeholderKinds = map[string]string{
	"title":    KindTitle,
	"ctrTitle": KindCenterTitle,
	"subTitle": KindSubtitle,
	"body":     KindBody,
	"obj":      KindObject,
	"chart":    KindChart,
	"tbl":      KindTable,
	"clipArt":  KindClipArt,
	"dgm":      KindOrgChart,
	"media":    KindMediaClip,
	"sldImg":   KindSlideImage,
	"pic":      KindPicture,
	"dt":       KindDate,
	"ftr":      KindFooter,
	"sldNum":   KindSlideNumber,
	"hdr":      KindHeader,
}

// PlaceholderKind maps an OOXML placeholder to its kind name. Vertical
// bodies, objects and titles get their own kinds. Unrecognized types are
// upper-cased as-is.
func PlaceholderKind(ph *pptx.Placeholder) string {
	t := ph.EffectiveType()
	kind, ok := placeholderKinds[t]
	if !ok {
		return strings.ToUpper(t)
	}
	if ph.Orient == "vert" {
		switch kind {
		case KindBody:
			return KindVerticalBody
		case KindObject:
			return KindVerticalObject
		case KindTitle:
			return KindVerticalTitle
		}
	}
	return kind
}

func roundInches(e model.EMU) float64 {
	return math.Round(e.Inches()*10000) / 10000
}
