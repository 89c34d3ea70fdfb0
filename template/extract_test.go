package template_test

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/tsawler/pptxgen/model"
	"github.com/tsawler/pptxgen/pptx/pptxtest"
	"github.com/tsawler/pptxgen/template"
)

func TestExtractLayoutsAndShapes(t *testing.T) {
	path := pptxtest.Template{Layouts: []pptxtest.Layout{
		pptxtest.TitleLayout("Title Slide"),
		{
			Name: "Two Content",
			Placeholders: []pptxtest.Placeholder{
				{Name: "Title 1", Type: "title", Box: pptxtest.TitleBox, Text: "Click to edit"},
				{Name: "Left Content Placeholder", Idx: 1, Box: model.BoxFromInches(0.5, 1.6, 6, 5)},
				{Name: "Vertical Text", Type: "body", Orient: "vert", Idx: 2, Box: model.BoxFromInches(7, 1.6, 5, 5)},
			},
			Shapes: []pptxtest.Shape{
				{Name: "Logo Box", TextBox: true, Box: model.BoxFromInches(11, 0.2, 1, 0.5)},
			},
		},
	}}.Write(t)

	spec, err := template.Extract(path)
	require.NoError(t, err)
	require.Len(t, spec.Layouts, 2)
	assert.Empty(t, spec.Errors)

	title := spec.Layouts[0]
	assert.Equal(t, "Title Slide", title.Name)
	assert.Empty(t, title.Identifier, "identifiers are opt-in")
	require.Len(t, title.Shapes, 1)
	assert.Equal(t, template.KindTitle, title.Shapes[0].PlaceholderKind)
	assert.Equal(t, template.ClassLayoutPlaceholder, title.Shapes[0].ShapeType)

	two := spec.Layouts[1]
	require.Len(t, two.Shapes, 4)
	assert.Equal(t, "Click to edit", two.Shapes[0].Text)

	left := two.Shapes[1]
	assert.Equal(t, template.KindObject, left.PlaceholderKind)
	require.NotNil(t, left.PlaceholderIdx)
	assert.Equal(t, 1, *left.PlaceholderIdx)
	assert.InDelta(t, 0.5, left.LeftIn, 1e-9)
	assert.InDelta(t, 6.0, left.WidthIn, 1e-9)
	assert.Equal(t, model.Inches(6), left.Box.Width)

	assert.Equal(t, template.KindVerticalBody, two.Shapes[2].PlaceholderKind)

	logo := two.Shapes[3]
	assert.False(t, logo.IsPlaceholder)
	assert.Equal(t, template.ClassTextBox, logo.ShapeType)
	assert.Nil(t, logo.PlaceholderIdx)
}

func TestExtractFlagsConflictsAndMissingFields(t *testing.T) {
	path := pptxtest.Template{Layouts: []pptxtest.Layout{{
		Name: "Flags",
		Shapes: []pptxtest.Shape{
			{Name: "  BODY ", Box: model.BoxFromInches(1, 1, 2, 2)},
			{Name: "", Box: model.BoxFromInches(1, 1, 0, 2)},
			{Name: "Broken", BadX: "NaN", Box: model.BoxFromInches(1, 1, 2, 2)},
		},
	}}}.Write(t)

	spec, err := template.Extract(path)
	require.NoError(t, err)
	shapes := spec.Layouts[0].Shapes
	require.Len(t, shapes, 3)

	assert.Contains(t, shapes[0].Conflict, "BODY")
	assert.Empty(t, shapes[0].MissingFields)

	assert.Equal(t, "unnamed_shape_3", shapes[1].Name)
	assert.Equal(t, []string{"name", "width"}, shapes[1].MissingFields)

	assert.Contains(t, shapes[2].Error, "invalid geometry")
	assert.Len(t, spec.Warnings, 1)
	assert.False(t, spec.Layouts[0].Malformed(), "shape errors do not fail the layout")
}

func TestExtractContinuesPastMalformedLayout(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	path := pptxtest.Template{Layouts: []pptxtest.Layout{
		pptxtest.TitleLayout("First"),
		{Raw: "<p:sldLayout"},
		pptxtest.TitleAndContentLayout("Third"),
	}}.Write(t)

	spec, err := template.Extract(path, template.WithLogger(zap.New(core)))
	require.NoError(t, err)
	require.Len(t, spec.Layouts, 3)
	assert.True(t, spec.Layouts[1].Malformed())
	assert.False(t, spec.Layouts[2].Malformed())
	assert.Len(t, spec.Errors, 1)
	assert.Equal(t, 1, logs.FilterMessage("layout could not be parsed").Len())
}

func TestExtractOptions(t *testing.T) {
	path := pptxtest.Template{Layouts: []pptxtest.Layout{
		pptxtest.TitleLayout("Title Slide"),
		pptxtest.TitleAndContentLayout("Title and Content"),
		pptxtest.TitleAndContentLayout("Appendix"),
	}}.Write(t)

	spec, err := template.Extract(path,
		template.WithLayoutPrefix("Title"),
		template.WithAnchorPrefix("Content"),
		template.WithLayoutIdentifiers(true))
	require.NoError(t, err)
	require.Len(t, spec.Layouts, 2)
	assert.Empty(t, spec.Layouts[0].Shapes)
	require.Len(t, spec.Layouts[1].Shapes, 1)
	assert.Equal(t, "Content Placeholder 2", spec.Layouts[1].Shapes[0].Name)
	assert.Equal(t, "2147483650", spec.Layouts[1].Identifier)
}

func TestExtractMissingTemplate(t *testing.T) {
	_, err := template.Extract(filepath.Join(t.TempDir(), "nope.pptx"))
	require.Error(t, err)

	var extractErr *template.ExtractError
	require.True(t, errors.As(err, &extractErr))
	assert.True(t, errors.Is(err, fs.ErrNotExist))
}

func TestExtractRejectsNonPresentation(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notes.txt")
	require.NoError(t, os.WriteFile(path, []byte("plain text"), 0o644))

	_, err := template.Extract(path)
	assert.ErrorIs(t, err, template.ErrNotPresentation)
}
