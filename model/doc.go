// Package model provides the shared data types that flow between the
// pipeline stages: geometry in EMU, text styling, and slide elements.
//
// # Elements
//
// Slide content is a tagged variant. Every concrete type implements the
// [Element] interface and reports its [ElementKind]:
//
//   - [Text] - a single string (title, subtitle, note)
//   - [Bullets] - ordered bullet lines with levels
//   - [Table] - header plus rows of strings
//   - [Chart] - category chart with one or more series
//   - [Image] - picture from a path or URL
//   - [Textbox] - free text with optional font and paragraph style
//
// [Elements] keeps elements keyed by name in insertion order so that
// rendering and serialization are deterministic.
//
// # Geometry
//
// [Box] stores rectangles in [EMU] (914400 per inch) and provides the
// fit/cover calculations used when placing pictures.
package model
