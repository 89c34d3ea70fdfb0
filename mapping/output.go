package mapping

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/tsawler/pptxgen/internal/atomicfile"
	"github.com/tsawler/pptxgen/jobspec"
	"github.com/tsawler/pptxgen/model"
)

// Paths lists the artifacts written by WriteArtifacts. FallbackReport is
// empty when no fallback fired.
type Paths struct {
	RenderingReady string
	MappingLog     string
	FallbackReport string
}

// WriteArtifacts writes rendering_ready.json, mapping_log.json and, when a
// fallback fired, fallback_report.json into dir.
func (o *Output) WriteArtifacts(dir string) (Paths, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return Paths{}, fmt.Errorf("creating %s: %w", dir, err)
	}
	p := Paths{
		RenderingReady: filepath.Join(dir, RenderingReadyFile),
		MappingLog:     filepath.Join(dir, MappingLogFile),
	}
	if err := atomicfile.WriteJSON(p.RenderingReady, o.Ready); err != nil {
		return Paths{}, fmt.Errorf("writing %s: %w", RenderingReadyFile, err)
	}
	if err := atomicfile.WriteJSON(p.MappingLog, o.Log); err != nil {
		return Paths{}, fmt.Errorf("writing %s: %w", MappingLogFile, err)
	}
	if o.Fallback != nil {
		p.FallbackReport = filepath.Join(dir, FallbackReportFile)
		if err := atomicfile.WriteJSON(p.FallbackReport, o.Fallback); err != nil {
			return Paths{}, fmt.Errorf("writing %s: %w", FallbackReportFile, err)
		}
	}
	return p, nil
}

// Original returns the elements of slide i before fallbacks.
func (o *Output) Original(i int) *model.Elements {
	if i < 0 || i >= len(o.original) {
		return nil
	}
	return o.original[i].Clone()
}

// Apply projects the plan onto a copy of job: each slide gets the name of
// its selected layout and the possibly truncated body. Layout ids missing
// from the catalog are used as names.
func (o *Output) Apply(job *jobspec.Spec) (*jobspec.Spec, error) {
	if len(job.Slides) != len(o.Ready.Slides) {
		return nil, &Error{Err: fmt.Errorf("plan has %d slides, job specification %d", len(o.Ready.Slides), len(job.Slides))}
	}
	out := job.Clone()
	for i := range out.Slides {
		s := &out.Slides[i]
		rs := o.Ready.Slides[i]
		if s.ID != rs.Meta.Sources[0] {
			return nil, &Error{SlideID: s.ID, Err: fmt.Errorf("plan slide %d maps %s", i+1, rs.Meta.Sources[0])}
		}
		if name, ok := o.names[rs.LayoutID]; ok && name != "" {
			s.Layout = name
		} else {
			s.Layout = rs.LayoutID
		}
		if body, ok := rs.Elements.Bullets(bodyKey); ok {
			s.SetBodyItems(body.Items)
		}
	}
	return out, nil
}
