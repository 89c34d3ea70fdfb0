package render

import (
	"errors"
	"fmt"
)

// Sentinel errors wrapped by Error.
var (
	ErrNoTemplate      = errors.New("no template given")
	ErrNoLayouts       = errors.New("template has no layouts")
	ErrAnchorNotFound  = errors.New("anchor not found")
	ErrDuplicateAnchor = errors.New("duplicate bullet anchor")
	ErrImageNotFound   = errors.New("image not found")
	ErrImageFetch      = errors.New("image download failed")
	ErrImageFormat     = errors.New("unsupported image format")
)

// Error is a fatal rendering failure. SlideID and Anchor are empty when the
// failure is not tied to a slide or anchor.
type Error struct {
	SlideID string
	Anchor  string
	Err     error
}

func (e *Error) Error() string {
	switch {
	case e.SlideID != "" && e.Anchor != "":
		return fmt.Sprintf("render slide %s anchor %q: %v", e.SlideID, e.Anchor, e.Err)
	case e.SlideID != "":
		return fmt.Sprintf("render slide %s: %v", e.SlideID, e.Err)
	default:
		return fmt.Sprintf("render: %v", e.Err)
	}
}

func (e *Error) Unwrap() error { return e.Err }
