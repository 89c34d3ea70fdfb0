package pptx

import (
	"encoding/xml"
	"math"
	"strconv"
	"strings"

	"github.com/tsawler/pptxgen/model"
)

// TextFrame is the content written into a text body.
type TextFrame struct {
	Paragraphs []TextParagraph
}

// TextParagraph is one paragraph of a TextFrame.
type TextParagraph struct {
	Runs  []TextRun
	Level int
	Style model.ParagraphStyle
}

// TextRun is a run of uniformly formatted text.
type TextRun struct {
	Text string
	Font model.Font
}

// TextLines builds a frame with one paragraph per line of text.
func TextLines(text string, font model.Font, style model.ParagraphStyle) TextFrame {
	var tf TextFrame
	for _, line := range strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n") {
		tf.Paragraphs = append(tf.Paragraphs, TextParagraph{
			Runs:  []TextRun{{Text: line, Font: font}},
			Style: style,
		})
	}
	return tf
}

// Text returns the paragraphs joined by newlines.
func (tf TextFrame) Text() string {
	lines := make([]string, len(tf.Paragraphs))
	for i, p := range tf.Paragraphs {
		var b strings.Builder
		for _, r := range p.Runs {
			b.WriteString(r.Text)
		}
		lines[i] = b.String()
	}
	return strings.Join(lines, "\n")
}

// IsEmpty reports whether the frame holds no visible text.
func (tf TextFrame) IsEmpty() bool {
	return strings.TrimSpace(tf.Text()) == ""
}

func writeParagraphs(b *strings.Builder, tf *TextFrame, lang string) {
	if tf == nil || len(tf.Paragraphs) == 0 {
		b.WriteString(`<a:p><a:endParaRPr lang="` + escapeAttr(lang) + `" dirty="0"/></a:p>`)
		return
	}
	for i := range tf.Paragraphs {
		writeParagraph(b, &tf.Paragraphs[i], lang)
	}
}

func writeParagraph(b *strings.Builder, p *TextParagraph, lang string) {
	b.WriteString(`<a:p>`)
	writePPr(b, p.Level, p.Style)
	var last model.Font
	for _, r := range p.Runs {
		last = r.Font
		for i, seg := range strings.Split(r.Text, "\n") {
			if i > 0 {
				b.WriteString(`<a:br>`)
				writeRPr(b, "a:rPr", r.Font, lang)
				b.WriteString(`</a:br>`)
			}
			if seg == "" {
				continue
			}
			b.WriteString(`<a:r>`)
			writeRPr(b, "a:rPr", r.Font, lang)
			b.WriteString(`<a:t>`)
			b.WriteString(escapeText(seg))
			b.WriteString(`</a:t></a:r>`)
		}
	}
	writeRPr(b, "a:endParaRPr", last, lang)
	b.WriteString(`</a:p>`)
}

var alignCodes = map[string]string{
	model.AlignLeft:    "l",
	model.AlignCenter:  "ctr",
	model.AlignRight:   "r",
	model.AlignJustify: "just",
}

// writePPr writes paragraph properties. Nothing is written when the
// paragraph has no level or style.
func writePPr(b *strings.Builder, level int, st model.ParagraphStyle) {
	var attrs strings.Builder
	if level > 0 {
		attrs.WriteString(` lvl="` + strconv.Itoa(level) + `"`)
	}
	if st.LeftIndentIn != nil {
		attrs.WriteString(` marL="` + emuAttr(model.Inches(*st.LeftIndentIn)) + `"`)
	}
	if st.RightIndentIn != nil {
		attrs.WriteString(` marR="` + emuAttr(model.Inches(*st.RightIndentIn)) + `"`)
	}
	if st.FirstLineIndentIn != nil {
		attrs.WriteString(` indent="` + emuAttr(model.Inches(*st.FirstLineIndentIn)) + `"`)
	}
	if code, ok := alignCodes[st.Align]; ok {
		attrs.WriteString(` algn="` + code + `"`)
	}

	var children strings.Builder
	if st.LineSpacing != nil {
		children.WriteString(`<a:lnSpc><a:spcPct val="` + strconv.Itoa(int(math.Round(*st.LineSpacing*100000))) + `"/></a:lnSpc>`)
	}
	if st.SpaceBeforePt != nil {
		children.WriteString(`<a:spcBef><a:spcPts val="` + strconv.Itoa(int(math.Round(*st.SpaceBeforePt*100))) + `"/></a:spcBef>`)
	}
	if st.SpaceAfterPt != nil {
		children.WriteString(`<a:spcAft><a:spcPts val="` + strconv.Itoa(int(math.Round(*st.SpaceAfterPt*100))) + `"/></a:spcAft>`)
	}

	if attrs.Len() == 0 && children.Len() == 0 {
		return
	}
	if children.Len() == 0 {
		b.WriteString(`<a:pPr` + attrs.String() + `/>`)
		return
	}
	b.WriteString(`<a:pPr` + attrs.String() + `>` + children.String() + `</a:pPr>`)
}

// writeRPr writes run properties under the given element name (a:rPr,
// a:endParaRPr or a:defRPr).
func writeRPr(b *strings.Builder, tag string, f model.Font, lang string) {
	b.WriteString(`<` + tag)
	if lang != "" {
		b.WriteString(` lang="` + escapeAttr(lang) + `"`)
	}
	if f.SizePt > 0 {
		b.WriteString(` sz="` + strconv.Itoa(int(math.Round(f.SizePt*100))) + `"`)
	}
	if f.Bold != nil {
		b.WriteString(` b="` + boolAttr(*f.Bold) + `"`)
	}
	if f.Italic != nil {
		b.WriteString(` i="` + boolAttr(*f.Italic) + `"`)
	}
	if tag != "a:defRPr" {
		b.WriteString(` dirty="0"`)
	}

	color, _ := model.NormalizeHex(f.Color)
	if color == "" && f.Name == "" {
		b.WriteString(`/>`)
		return
	}
	b.WriteString(`>`)
	if color != "" {
		writeSolidFill(b, color)
	}
	if f.Name != "" {
		face := escapeAttr(f.Name)
		b.WriteString(`<a:latin typeface="` + face + `"/><a:ea typeface="` + face + `"/><a:cs typeface="` + face + `"/>`)
	}
	b.WriteString(`</` + tag + `>`)
}

func writeSolidFill(b *strings.Builder, hex string) {
	b.WriteString(`<a:solidFill><a:srgbClr val="` + hex + `"/></a:solidFill>`)
}

func writeXfrm(b *strings.Builder, tag string, box model.Box) {
	b.WriteString(`<` + tag + `><a:off x="` + emuAttr(box.Left) + `" y="` + emuAttr(box.Top) +
		`"/><a:ext cx="` + emuAttr(box.Width) + `" cy="` + emuAttr(box.Height) + `"/></` + tag + `>`)
}

func emuAttr(e model.EMU) string { return strconv.FormatInt(int64(e), 10) }

func boolAttr(v bool) string {
	if v {
		return "1"
	}
	return "0"
}

// escapeText escapes s for use as XML character data. Characters that are
// not allowed in XML are replaced.
func escapeText(s string) string {
	var b strings.Builder
	_ = xml.EscapeText(&b, []byte(s))
	return b.String()
}

func escapeAttr(s string) string { return escapeText(s) }
