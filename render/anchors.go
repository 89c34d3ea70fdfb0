package render

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/tsawler/pptxgen/model"
	"github.com/tsawler/pptxgen/pptx"
)

// State is a step of the anchor resolution ladder.
type State string

// Resolution states, tried in this order.
const (
	StateAnchorByName      State = "anchor_by_name"
	StatePlaceholderByName State = "placeholder_by_name"
	StateFallbackBox       State = "fallback_box"
)

// Target is where an element goes: an existing shape, or a bare box when
// the ladder ended at StateFallbackBox.
type Target struct {
	State State
	Shape *pptx.ShapeRef
	Box   model.Box
}

// Consumable reports whether the target is a placeholder that must be
// removed once its replacement is on the slide.
func (t Target) Consumable() bool {
	return t.Shape != nil && t.Shape.IsPlaceholder()
}

// anchorResolver walks the ladder for one slide.
type anchorResolver struct {
	sb     *pptx.SlideBuilder
	layout *pptx.Layout
}

// resolve finds the target for anchor. A strict anchor that matches no
// shape is an error instead of falling back.
func (a anchorResolver) resolve(anchor string, fallback model.Box, strict bool) (Target, error) {
	state := StateAnchorByName
	for {
		switch state {
		case StateAnchorByName:
			if anchor == "" {
				state = StateFallbackBox
				continue
			}
			if sh, ok := a.sb.ShapeByName(anchor); ok {
				return newTarget(state, sh, fallback), nil
			}
			state = StatePlaceholderByName
		case StatePlaceholderByName:
			if sh, ok := a.inherited(anchor); ok {
				return newTarget(state, sh, fallback), nil
			}
			if strict {
				return Target{}, fmt.Errorf("%w: %q", ErrAnchorNotFound, anchor)
			}
			state = StateFallbackBox
		default:
			return Target{State: StateFallbackBox, Box: fallback}, nil
		}
	}
}

// inherited maps a layout placeholder name to the slide placeholder cloned
// from it. Slide copies are renamed, so the lookup goes through idx, or
// through the placeholder type when the layout gives no idx.
func (a anchorResolver) inherited(name string) (*pptx.ShapeRef, bool) {
	if a.layout == nil {
		return nil, false
	}
	for _, sh := range a.layout.Shapes {
		if sh.Name != name || sh.Placeholder == nil {
			continue
		}
		if sh.Placeholder.HasIdx {
			return a.sb.PlaceholderByIdx(sh.Placeholder.Idx)
		}
		return a.sb.PlaceholderByType(sh.Placeholder.EffectiveType())
	}
	return nil, false
}

func newTarget(state State, sh *pptx.ShapeRef, fallback model.Box) Target {
	box, ok := sh.Box()
	if !ok || box.IsEmpty() {
		box = fallback
	}
	return Target{State: state, Shape: sh, Box: box}
}

// consume removes a placeholder target after its replacement was inserted.
// Removal failures are tolerated.
func (s *slideRenderer) consume(t Target) {
	if !t.Consumable() {
		return
	}
	if err := s.sb.Remove(t.Shape); err != nil {
		s.log.Debug("placeholder removal failed",
			zap.String("shape", t.Shape.Name()),
			zap.Error(err))
	}
}

// contentTypes are the placeholder types a table, chart or picture stands in
// for.
var contentTypes = map[string]bool{"obj": true, "tbl": true, "chart": true, "pic": true}

// vacant attaches the first empty content placeholder to a target that ended
// at StateFallbackBox, so consume removes the placeholder the element
// replaces. The fallback box is kept.
func (s *slideRenderer) vacant(t Target) Target {
	if t.State != StateFallbackBox || t.Shape != nil {
		return t
	}
	for _, sh := range s.sb.Shapes() {
		if sh.IsPlaceholder() && contentTypes[sh.Placeholder().EffectiveType()] && sh.Text() == "" {
			t.Shape = sh
			break
		}
	}
	return t
}
