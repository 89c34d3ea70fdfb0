// Package render writes a job specification into a deck built from an OOXML
// template. Elements are placed into named shapes of the slide or of its
// layout, and into the fallback boxes of the branding when no shape matches.
package render

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/tsawler/pptxgen/config"
	"github.com/tsawler/pptxgen/internal/atomicfile"
	"github.com/tsawler/pptxgen/jobspec"
	"github.com/tsawler/pptxgen/pptx"
)

// Version is the generator version reported to image hosts.
const Version = "1.0.0"

// UserAgent is sent with every image download.
const UserAgent = "pptx-generator/" + Version

// DefaultDownloadTimeout bounds each remote image fetch.
const DefaultDownloadTimeout = 20 * time.Second

// Options configures a Renderer.
type Options struct {
	Branding        *config.Branding
	Logger          *zap.Logger
	HTTPClient      *http.Client
	DownloadTimeout time.Duration
	// TempDir receives downloaded images. Empty uses the system default.
	TempDir string
}

// Renderer renders job specifications. It keeps no state between calls.
type Renderer struct {
	branding *config.Branding
	log      *zap.Logger
	client   *http.Client
	timeout  time.Duration
	tempDir  string
}

// New returns a Renderer. Unset options take their defaults.
func New(opts Options) *Renderer {
	r := &Renderer{
		branding: opts.Branding,
		log:      opts.Logger,
		client:   opts.HTTPClient,
		timeout:  opts.DownloadTimeout,
		tempDir:  opts.TempDir,
	}
	if r.branding == nil {
		r.branding = config.DefaultBranding()
	}
	if r.log == nil {
		r.log = zap.NewNop()
	}
	if r.client == nil {
		r.client = &http.Client{}
	}
	if r.timeout <= 0 {
		r.timeout = DefaultDownloadTimeout
	}
	return r
}

// Result describes a rendered deck.
type Result struct {
	Path    string
	Slides  []SlideResult
	Elapsed time.Duration
}

// SlideResult records how one slide was built.
type SlideResult struct {
	SlideID string
	// Layout is the template layout used, which differs from the requested
	// one when the ladder fell back.
	Layout      string
	Resolutions []Resolution
}

// Resolution records where one element was placed.
type Resolution struct {
	Element string
	Anchor  string
	State   State
}

// Render builds the deck for job from templatePath and writes it to
// outputPath. An empty templatePath uses job.Meta.TemplatePath. Images
// downloaded along the way are removed before Render returns.
func (r *Renderer) Render(ctx context.Context, job *jobspec.Spec, templatePath, outputPath string) (*Result, error) {
	start := time.Now()
	if job == nil {
		return nil, &Error{Err: errors.New("no job specification")}
	}
	if templatePath == "" {
		templatePath = job.Meta.TemplatePath
	}
	if templatePath == "" {
		return nil, &Error{Err: ErrNoTemplate}
	}

	deck, err := pptx.NewDeck(templatePath)
	if err != nil {
		return nil, &Error{Err: fmt.Errorf("opening template %s: %w", templatePath, err)}
	}
	deck.SetLanguage(job.Meta.LocaleOrDefault())
	layouts := deck.Layouts()
	if len(layouts) == 0 {
		return nil, &Error{Err: ErrNoLayouts}
	}

	images := &imageLoader{client: r.client, timeout: r.timeout, dir: r.tempDir, log: r.log}
	defer images.cleanup()

	res := &Result{Path: outputPath}
	for i := range job.Slides {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		slide := &job.Slides[i]
		layout, exact := chooseLayout(layouts, slide.Layout)
		if !exact {
			r.log.Warn("layout not found in template, using fallback",
				zap.String("slide_id", slide.ID),
				zap.String("layout", slide.Layout),
				zap.String("fallback", layout.Name))
		}
		sb, err := deck.AddSlide(layout)
		if err != nil {
			return nil, &Error{SlideID: slide.ID, Err: err}
		}
		sr := &slideRenderer{
			branding: r.branding,
			log:      r.log.With(zap.String("slide_id", slide.ID)),
			slide:    slide,
			sb:       sb,
			anchors:  anchorResolver{sb: sb, layout: layout},
			images:   images,
			result:   SlideResult{SlideID: slide.ID, Layout: layout.Name},
		}
		if err := sr.render(ctx); err != nil {
			return nil, err
		}
		res.Slides = append(res.Slides, sr.result)
	}

	if err := save(deck, outputPath); err != nil {
		return nil, &Error{Err: err}
	}
	res.Elapsed = time.Since(start)
	r.log.Info("deck rendered",
		zap.String("path", outputPath),
		zap.Int("slides", len(res.Slides)),
		zap.Duration("elapsed", res.Elapsed))
	return res, nil
}

// chooseLayout looks a layout up by name. Otherwise it falls back to the
// second layout, commonly "Title and Content", then to the first. layouts
// must not be empty.
func chooseLayout(layouts []*pptx.Layout, name string) (*pptx.Layout, bool) {
	for _, l := range layouts {
		if l.Name == name {
			return l, true
		}
	}
	if len(layouts) > 1 {
		return layouts[1], false
	}
	return layouts[0], false
}

func save(deck *pptx.Deck, path string) error {
	var buf bytes.Buffer
	if err := deck.Write(&buf); err != nil {
		return fmt.Errorf("writing deck: %w", err)
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating output directory: %w", err)
		}
	}
	return atomicfile.WriteFile(path, buf.Bytes())
}
