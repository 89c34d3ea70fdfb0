package model

import "math"

// EMUPerInch is the number of English Metric Units in one inch.
const EMUPerInch = 914400

// EMUPerPoint is the number of English Metric Units in one typographic point.
const EMUPerPoint = 12700

// EMU is a length in English Metric Units, the unit used by OOXML geometry.
type EMU int64

// Inches converts a length in inches to EMU, rounding to the nearest unit.
func Inches(in float64) EMU {
	return EMU(math.Round(in * EMUPerInch))
}

// Points converts a length in points to EMU.
func Points(pt float64) EMU {
	return EMU(math.Round(pt * EMUPerPoint))
}

// Inches returns the length in inches.
func (e EMU) Inches() float64 {
	return float64(e) / EMUPerInch
}

// Box is an axis-aligned rectangle in slide coordinates (origin top-left).
type Box struct {
	Left   EMU `json:"left"`
	Top    EMU `json:"top"`
	Width  EMU `json:"width"`
	Height EMU `json:"height"`
}

// BoxFromInches creates a box from inch measurements.
func BoxFromInches(left, top, width, height float64) Box {
	return Box{Left: Inches(left), Top: Inches(top), Width: Inches(width), Height: Inches(height)}
}

// Right returns the right edge
func (b Box) Right() EMU {
	return b.Left + b.Width
}

// Bottom returns the bottom edge
func (b Box) Bottom() EMU {
	return b.Top + b.Height
}

// Center returns the center point
func (b Box) Center() (EMU, EMU) {
	return b.Left + b.Width/2, b.Top + b.Height/2
}

// IsEmpty returns true if the box has no area
func (b Box) IsEmpty() bool {
	return b.Width <= 0 || b.Height <= 0
}

// Intersects checks if two boxes overlap
func (b Box) Intersects(other Box) bool {
	return !(b.Right() <= other.Left ||
		b.Left >= other.Right() ||
		b.Bottom() <= other.Top ||
		b.Top >= other.Bottom())
}

// Equal reports whether every edge of the two boxes differs by at most tol.
func (b Box) Equal(other Box, tol EMU) bool {
	return absEMU(b.Left-other.Left) <= tol &&
		absEMU(b.Top-other.Top) <= tol &&
		absEMU(b.Width-other.Width) <= tol &&
		absEMU(b.Height-other.Height) <= tol
}

// InchesRect returns left, top, width and height in inches.
func (b Box) InchesRect() (float64, float64, float64, float64) {
	return b.Left.Inches(), b.Top.Inches(), b.Width.Inches(), b.Height.Inches()
}

// Fit returns the largest box with the source aspect ratio that fits inside b,
// centered in b.
func (b Box) Fit(srcW, srcH int) Box {
	if srcW <= 0 || srcH <= 0 || b.IsEmpty() {
		return b
	}
	scale := math.Min(float64(b.Width)/float64(srcW), float64(b.Height)/float64(srcH))
	w := EMU(math.Round(float64(srcW) * scale))
	h := EMU(math.Round(float64(srcH) * scale))
	return Box{
		Left:   b.Left + (b.Width-w)/2,
		Top:    b.Top + (b.Height-h)/2,
		Width:  w,
		Height: h,
	}
}

// Crop holds the fraction of an image trimmed from each edge.
type Crop struct {
	Left, Top, Right, Bottom float64
}

// IsZero reports whether nothing is trimmed.
func (c Crop) IsZero() bool {
	return c.Left == 0 && c.Top == 0 && c.Right == 0 && c.Bottom == 0
}

// Cover returns the crop that makes a srcW x srcH image cover b entirely
// while keeping its aspect ratio and staying centered.
func (b Box) Cover(srcW, srcH int) Crop {
	if srcW <= 0 || srcH <= 0 || b.IsEmpty() {
		return Crop{}
	}
	scale := math.Max(float64(b.Width)/float64(srcW), float64(b.Height)/float64(srcH))
	scaledW := float64(srcW) * scale
	scaledH := float64(srcH) * scale

	var c Crop
	if excess := scaledW - float64(b.Width); excess > 0 {
		c.Left = excess / 2 / scaledW
		c.Right = c.Left
	}
	if excess := scaledH - float64(b.Height); excess > 0 {
		c.Top = excess / 2 / scaledH
		c.Bottom = c.Top
	}
	return c
}

func absEMU(e EMU) EMU {
	if e < 0 {
		return -e
	}
	return e
}
