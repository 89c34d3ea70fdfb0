package render

import (
	"strconv"

	"github.com/tsawler/pptxgen/config"
	"github.com/tsawler/pptxgen/model"
	"github.com/tsawler/pptxgen/pptx"
)

var chartTypes = map[string]string{
	model.ChartColumn: pptx.ChartColumn,
	model.ChartBar:    pptx.ChartBar,
	model.ChartLine:   pptx.ChartLine,
	model.ChartPie:    pptx.ChartPie,
}

// buildChart converts c to a chart part description. Categories default to
// positional labels, series colors cycle through the branding palette, and
// data labels and the value format fall back to the branding.
func buildChart(c *model.Chart, b *config.Branding) pptx.ChartSpec {
	typ, ok := chartTypes[c.Type]
	if !ok {
		typ = pptx.ChartColumn
	}
	palette := b.ChartPalette()
	labels := b.Components.Chart.DataLabels

	spec := pptx.ChartSpec{
		Type:         typ,
		Categories:   categories(c),
		DataLabels:   labels.Enabled,
		NumberFormat: labels.NumberFormat,
		AxisFont:     b.Components.Chart.AxisFont.Merge(b.Theme.BodyFont),
		Legend:       len(c.Series) > 1 || typ == pptx.ChartPie,
	}
	if c.Options != nil {
		if c.Options.DataLabels != nil {
			spec.DataLabels = *c.Options.DataLabels
		}
		if c.Options.YAxisFormat != "" {
			spec.NumberFormat = c.Options.YAxisFormat
		}
	}

	for i, s := range c.Series {
		color := hexOrEmpty(s.ColorHex)
		if color == "" {
			color = cycle(palette, i)
		}
		series := pptx.ChartSeries{Name: s.Name, Values: s.Values, Color: color}
		if typ == pptx.ChartPie {
			for j := range spec.Categories {
				series.PointColors = append(series.PointColors, cycle(palette, j))
			}
		}
		spec.Series = append(spec.Series, series)
	}
	return spec
}

// categories returns the chart categories, or "1".."n" for the longest
// series when none are given.
func categories(c *model.Chart) []string {
	if len(c.Categories) > 0 {
		return c.Categories
	}
	n := 0
	for _, s := range c.Series {
		if len(s.Values) > n {
			n = len(s.Values)
		}
	}
	out := make([]string, n)
	for i := range out {
		out[i] = strconv.Itoa(i + 1)
	}
	return out
}

func cycle(palette []string, i int) string {
	if len(palette) == 0 {
		return ""
	}
	return hexOrEmpty(palette[i%len(palette)])
}
