package jobspec

import (
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

var bodyContext = &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}

// StripMarkup returns the text content of an HTML fragment. <br> and block
// elements become line breaks. Strings without element markup are returned
// unchanged.
func StripMarkup(s string) string {
	if !strings.Contains(s, "<") {
		return s
	}
	nodes, err := html.ParseFragment(strings.NewReader(s), bodyContext)
	if err != nil {
		return s
	}
	hasElement := false
	var b strings.Builder
	for _, n := range nodes {
		collectText(n, &b, &hasElement)
	}
	if !hasElement {
		return s
	}
	return strings.TrimSpace(b.String())
}

func collectText(n *html.Node, b *strings.Builder, hasElement *bool) {
	switch n.Type {
	case html.TextNode:
		b.WriteString(n.Data)
		return
	case html.ElementNode:
		*hasElement = true
		switch n.Data {
		case "script", "style":
			return
		case "br":
			b.WriteByte('\n')
			return
		}
	}
	block := n.Type == html.ElementNode && isBlock(n.Data)
	if block {
		breakLine(b)
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		collectText(c, b, hasElement)
	}
	if block {
		breakLine(b)
	}
}

func breakLine(b *strings.Builder) {
	s := b.String()
	if s != "" && !strings.HasSuffix(s, "\n") {
		b.WriteByte('\n')
	}
}

func isBlock(tag string) bool {
	switch tag {
	case "p", "div", "li", "ul", "ol", "h1", "h2", "h3", "h4", "h5", "h6", "tr", "blockquote":
		return true
	}
	return false
}

// sanitize strips markup from every free-text field of the spec.
func sanitize(spec *Spec) {
	spec.Meta.Title = StripMarkup(spec.Meta.Title)
	for i := range spec.Slides {
		s := &spec.Slides[i]
		s.Title = StripMarkup(s.Title)
		s.Subtitle = StripMarkup(s.Subtitle)
		s.Notes = StripMarkup(s.Notes)
		for g := range s.Bullets {
			for j := range s.Bullets[g].Items {
				item := &s.Bullets[g].Items[j]
				item.Text = StripMarkup(item.Text)
			}
		}
		for t := range s.Tables {
			tbl := &s.Tables[t]
			for c := range tbl.Columns {
				tbl.Columns[c] = StripMarkup(tbl.Columns[c])
			}
			for r := range tbl.Rows {
				for c := range tbl.Rows[r] {
					tbl.Rows[r][c] = StripMarkup(tbl.Rows[r][c])
				}
			}
		}
		for t := range s.Textboxes {
			s.Textboxes[t].Text = StripMarkup(s.Textboxes[t].Text)
		}
	}
}
