package render

import (
	"github.com/tsawler/pptxgen/config"
	"github.com/tsawler/pptxgen/model"
	"github.com/tsawler/pptxgen/pptx"
)

// buildTable lays t out as an (H+R) x C grid in box, where H is 1 when t
// has headers. Columns share the width equally. ok is false for a table
// without cells.
func buildTable(t *model.Table, box model.Box, b *config.Branding, override *model.Font) (pptx.TableSpec, bool) {
	cols := t.ColumnCount()
	header := len(t.Columns) > 0
	rows := len(t.Rows)
	if header {
		rows++
	}
	if cols == 0 || rows == 0 {
		return pptx.TableSpec{}, false
	}

	comp := b.Components.Table
	headerFill := comp.HeaderFill
	zebra := ""
	if t.Style != nil {
		if t.Style.HeaderFill != "" {
			headerFill = t.Style.HeaderFill
		}
		if t.Style.Zebra {
			zebra = comp.ZebraFill
		}
	}
	headerFill = hexOrEmpty(headerFill)
	zebra = hexOrEmpty(zebra)

	bodyFont := model.MergeFont(override, comp.BodyFont.Merge(b.Theme.BodyFont))
	headerFont := comp.HeaderFont.Merge(bodyFont)

	spec := pptx.TableSpec{
		ColumnWidths: columnWidths(box.Width, cols),
		RowHeight:    box.Height / model.EMU(rows),
		HeaderRow:    header,
	}
	if header {
		spec.Rows = append(spec.Rows, cells(t.Columns, cols, headerFont, headerFill))
	}
	for i, row := range t.Rows {
		fill := ""
		if i%2 == 1 {
			fill = zebra
		}
		spec.Rows = append(spec.Rows, cells(row, cols, bodyFont, fill))
	}
	return spec, true
}

// columnWidths splits width into n equal shares. The last column absorbs
// the rounding remainder so the shares add up to width.
func columnWidths(width model.EMU, n int) []model.EMU {
	out := make([]model.EMU, n)
	share := width / model.EMU(n)
	for i := range out {
		out[i] = share
	}
	out[n-1] += width - share*model.EMU(n)
	return out
}

// cells pads values to n cells.
func cells(values []string, n int, font model.Font, fill string) []pptx.TableCellSpec {
	out := make([]pptx.TableCellSpec, n)
	for i := range out {
		if i < len(values) {
			out[i].Text = values[i]
		}
		out[i].Font = font
		out[i].Fill = fill
	}
	return out
}

// hexOrEmpty normalizes a color, dropping values that do not parse.
func hexOrEmpty(s string) string {
	h, err := model.NormalizeHex(s)
	if err != nil {
		return ""
	}
	return h
}
