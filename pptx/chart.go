package pptx

import (
	"encoding/xml"
	"strconv"
	"strings"

	"github.com/tsawler/pptxgen/model"
)

// Chart types understood by ChartSpec.
const (
	ChartColumn = "column"
	ChartBar    = "bar"
	ChartLine   = "line"
	ChartPie    = "pie"
)

// ChartSpec describes a chart. Data is stored as literal caches in the
// chart part; no embedded workbook is written.
type ChartSpec struct {
	Type         string
	Categories   []string
	Series       []ChartSeries
	DataLabels   bool
	NumberFormat string // value axis and data label format code
	AxisFont     model.Font
	Legend       bool
}

// ChartSeries is one data series.
type ChartSeries struct {
	Name        string
	Values      []float64
	Color       string   // series color, RRGGBB
	PointColors []string // per-point colors, used by pie charts
}

const (
	catAxisID = "500000001"
	valAxisID = "500000002"
)

// chartXML renders the chart part for c.
func chartXML(c *ChartSpec, lang string) string {
	var b strings.Builder
	b.WriteString(xml.Header)
	b.WriteString(`<c:chartSpace xmlns:c="` + nsChart + `" xmlns:a="` + nsDrawingML + `" xmlns:r="` + nsRelationships + `">`)
	b.WriteString(`<c:date1904 val="0"/><c:lang val="` + escapeAttr(lang) + `"/><c:roundedCorners val="0"/>`)
	b.WriteString(`<c:chart><c:autoTitleDeleted val="1"/><c:plotArea><c:layout/>`)

	switch c.Type {
	case ChartPie:
		writePieChart(&b, c)
	case ChartLine:
		writeLineChart(&b, c)
	default:
		writeBarChart(&b, c)
	}
	if c.Type != ChartPie {
		writeAxes(&b, c, lang)
	}
	b.WriteString(`</c:plotArea>`)

	if c.Legend {
		b.WriteString(`<c:legend><c:legendPos val="b"/><c:overlay val="0"/>`)
		writeChartTxPr(&b, c.AxisFont, lang)
		b.WriteString(`</c:legend>`)
	}
	b.WriteString(`<c:plotVisOnly val="1"/><c:dispBlanksAs val="gap"/></c:chart></c:chartSpace>`)
	return b.String()
}

func writeBarChart(b *strings.Builder, c *ChartSpec) {
	dir := "col"
	if c.Type == ChartBar {
		dir = "bar"
	}
	b.WriteString(`<c:barChart><c:barDir val="` + dir + `"/><c:grouping val="clustered"/><c:varyColors val="0"/>`)
	for i, s := range c.Series {
		writeSeriesHead(b, i, s.Name)
		if color, _ := model.NormalizeHex(s.Color); color != "" {
			b.WriteString(`<c:spPr>`)
			writeSolidFill(b, color)
			b.WriteString(`</c:spPr>`)
		}
		b.WriteString(`<c:invertIfNegative val="0"/>`)
		writeSeriesData(b, c.Categories, s.Values)
		b.WriteString(`</c:ser>`)
	}
	writeDataLabels(b, c)
	b.WriteString(`<c:gapWidth val="150"/><c:axId val="` + catAxisID + `"/><c:axId val="` + valAxisID + `"/></c:barChart>`)
}

func writeLineChart(b *strings.Builder, c *ChartSpec) {
	b.WriteString(`<c:lineChart><c:grouping val="standard"/><c:varyColors val="0"/>`)
	for i, s := range c.Series {
		writeSeriesHead(b, i, s.Name)
		if color, _ := model.NormalizeHex(s.Color); color != "" {
			b.WriteString(`<c:spPr><a:ln w="28575" cap="rnd">`)
			writeSolidFill(b, color)
			b.WriteString(`</a:ln></c:spPr>`)
		}
		b.WriteString(`<c:marker><c:symbol val="circle"/><c:size val="5"/></c:marker>`)
		writeSeriesData(b, c.Categories, s.Values)
		b.WriteString(`<c:smooth val="0"/></c:ser>`)
	}
	writeDataLabels(b, c)
	b.WriteString(`<c:marker val="1"/><c:axId val="` + catAxisID + `"/><c:axId val="` + valAxisID + `"/></c:lineChart>`)
}

func writePieChart(b *strings.Builder, c *ChartSpec) {
	b.WriteString(`<c:pieChart><c:varyColors val="1"/>`)
	for i, s := range c.Series {
		writeSeriesHead(b, i, s.Name)
		for j, pc := range s.PointColors {
			color, _ := model.NormalizeHex(pc)
			if color == "" {
				continue
			}
			b.WriteString(`<c:dPt><c:idx val="` + strconv.Itoa(j) + `"/><c:bubble3D val="0"/><c:spPr>`)
			writeSolidFill(b, color)
			b.WriteString(`</c:spPr></c:dPt>`)
		}
		writeSeriesData(b, c.Categories, s.Values)
		b.WriteString(`</c:ser>`)
	}
	writeDataLabels(b, c)
	b.WriteString(`<c:firstSliceAng val="0"/></c:pieChart>`)
}

func writeSeriesHead(b *strings.Builder, i int, name string) {
	idx := strconv.Itoa(i)
	b.WriteString(`<c:ser><c:idx val="` + idx + `"/><c:order val="` + idx + `"/><c:tx><c:v>` + escapeText(name) + `</c:v></c:tx>`)
}

func writeSeriesData(b *strings.Builder, categories []string, values []float64) {
	b.WriteString(`<c:cat><c:strLit><c:ptCount val="` + strconv.Itoa(len(categories)) + `"/>`)
	for i, cat := range categories {
		b.WriteString(`<c:pt idx="` + strconv.Itoa(i) + `"><c:v>` + escapeText(cat) + `</c:v></c:pt>`)
	}
	b.WriteString(`</c:strLit></c:cat>`)

	b.WriteString(`<c:val><c:numLit><c:formatCode>General</c:formatCode><c:ptCount val="` + strconv.Itoa(len(values)) + `"/>`)
	for i, v := range values {
		b.WriteString(`<c:pt idx="` + strconv.Itoa(i) + `"><c:v>` + strconv.FormatFloat(v, 'f', -1, 64) + `</c:v></c:pt>`)
	}
	b.WriteString(`</c:numLit></c:val>`)
}

func writeDataLabels(b *strings.Builder, c *ChartSpec) {
	if !c.DataLabels {
		return
	}
	b.WriteString(`<c:dLbls>`)
	if c.NumberFormat != "" {
		b.WriteString(`<c:numFmt formatCode="` + escapeAttr(c.NumberFormat) + `" sourceLinked="0"/>`)
	}
	b.WriteString(`<c:showLegendKey val="0"/><c:showVal val="1"/><c:showCatName val="0"/>` +
		`<c:showSerName val="0"/><c:showPercent val="0"/><c:showBubbleSize val="0"/></c:dLbls>`)
}

func writeAxes(b *strings.Builder, c *ChartSpec, lang string) {
	catPos, valPos := "b", "l"
	if c.Type == ChartBar {
		catPos, valPos = "l", "b"
	}
	valFormat := c.NumberFormat
	if valFormat == "" {
		valFormat = "General"
	}

	b.WriteString(`<c:catAx><c:axId val="` + catAxisID + `"/><c:scaling><c:orientation val="minMax"/></c:scaling>`)
	b.WriteString(`<c:delete val="0"/><c:axPos val="` + catPos + `"/><c:numFmt formatCode="General" sourceLinked="0"/>`)
	b.WriteString(`<c:majorTickMark val="out"/><c:minorTickMark val="none"/><c:tickLblPos val="nextTo"/>`)
	writeChartTxPr(b, c.AxisFont, lang)
	b.WriteString(`<c:crossAx val="` + valAxisID + `"/><c:crosses val="autoZero"/><c:auto val="1"/>`)
	b.WriteString(`<c:lblAlgn val="ctr"/><c:lblOffset val="100"/><c:noMultiLvlLbl val="0"/></c:catAx>`)

	b.WriteString(`<c:valAx><c:axId val="` + valAxisID + `"/><c:scaling><c:orientation val="minMax"/></c:scaling>`)
	b.WriteString(`<c:delete val="0"/><c:axPos val="` + valPos + `"/><c:majorGridlines/>`)
	b.WriteString(`<c:numFmt formatCode="` + escapeAttr(valFormat) + `" sourceLinked="0"/>`)
	b.WriteString(`<c:majorTickMark val="out"/><c:minorTickMark val="none"/><c:tickLblPos val="nextTo"/>`)
	writeChartTxPr(b, c.AxisFont, lang)
	b.WriteString(`<c:crossAx val="` + catAxisID + `"/><c:crosses val="autoZero"/><c:crossBetween val="between"/></c:valAx>`)
}

func writeChartTxPr(b *strings.Builder, f model.Font, lang string) {
	b.WriteString(`<c:txPr><a:bodyPr/><a:lstStyle/><a:p><a:pPr>`)
	writeRPr(b, "a:defRPr", f, "")
	b.WriteString(`</a:pPr><a:endParaRPr lang="` + escapeAttr(lang) + `"/></a:p></c:txPr>`)
}
