package layouts

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// nameRule maps layout-name keywords to a tag. Keywords are lower case and
// match anywhere in the NFKC-normalized, lower-cased name, so "AgendaSlide"
// and "TOC2" are tagged like "Agenda" and "TOC".
type nameRule struct {
	tag      string
	keywords []string
}

var nameRules = []nameRule{
	{tag: TagAgenda, keywords: []string{"agenda", "toc", "アジェンダ", "目次"}},
	{tag: TagOverview, keywords: []string{"summary", "overview", "まとめ", "概要"}},
	{tag: TagIntroduction, keywords: []string{"intro", "はじめに", "導入"}},
	{tag: TagProblem, keywords: []string{"problem", "issue", "課題"}},
	{tag: TagSolution, keywords: []string{"solution", "解決策", "ソリューション"}},
	{tag: TagImpact, keywords: []string{"impact", "効果"}},
	{tag: TagNext, keywords: []string{"next", "今後", "ネクストステップ"}},
}

// nameTokens returns the lower-cased ASCII word tokens of a layout name,
// joined by single spaces and padded for phrase matching.
func nameTokens(name string) (tokens map[string]bool, joined string) {
	s := strings.ToLower(norm.NFKC.String(name))
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return !(r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)))
	})
	tokens = make(map[string]bool, len(fields))
	for _, f := range fields {
		tokens[f] = true
	}
	return tokens, " " + strings.Join(fields, " ") + " "
}

// IsTitleLayoutName reports whether a layout name denotes a title layout:
// 表紙, タイトル without コンテンツ, cover, front page or title slide.
func IsTitleLayoutName(name string) bool {
	n := norm.NFKC.String(name)
	if strings.Contains(n, "表紙") {
		return true
	}
	if strings.Contains(n, "タイトル") && !strings.Contains(n, "コンテンツ") {
		return true
	}
	tokens, joined := nameTokens(name)
	if tokens["cover"] {
		return true
	}
	return strings.Contains(joined, " front page ") || strings.Contains(joined, " title slide ")
}

// nameTags returns the tags implied by a layout name.
func nameTags(name string) []string {
	n := strings.ToLower(norm.NFKC.String(name))
	var tags []string
	for _, rule := range nameRules {
		if matchRule(rule, n) {
			tags = append(tags, rule.tag)
		}
	}
	if IsTitleLayoutName(name) {
		tags = append(tags, TagTitle)
	}
	return tags
}

func matchRule(rule nameRule, name string) bool {
	for _, k := range rule.keywords {
		if strings.Contains(name, k) {
			return true
		}
	}
	return false
}

// objectNameTags infers tags for object placeholders from their names.
func objectNameTags(name string) []string {
	n := strings.ToLower(norm.NFKC.String(name))
	var tags []string
	if strings.Contains(n, "chart") || strings.Contains(n, "graph") || strings.Contains(n, "グラフ") {
		tags = append(tags, TagChart)
	}
	if strings.Contains(n, "table") || strings.Contains(n, "表") {
		tags = append(tags, TagTable)
	}
	if strings.Contains(n, "picture") || strings.Contains(n, "image") || strings.Contains(n, "photo") ||
		strings.Contains(n, "図") || strings.Contains(n, "画像") {
		tags = append(tags, TagVisual)
	}
	return tags
}

// typeTags maps a normalized placeholder type to the tag it implies.
var typeTags = map[string]string{
	TypeTitle:   TagTitle,
	TypeBody:    TagContent,
	TypeChart:   TagChart,
	TypeTable:   TagTable,
	TypePicture: TagVisual,
}

// tagInput is what tag derivation looks at for one placeholder.
type tagInput struct {
	name string
	kind string // extractor kind, e.g. OBJECT
	typ  string // normalized type
}

// tagResult is the outcome of deriving tags for one layout.
type tagResult struct {
	tags       []string
	suppressed bool
	unknown    []string
}

// deriveTags applies the placeholder rules, the name rules and the title
// suppression rule, then normalizes through the vocabulary.
func deriveTags(vocab *Vocabulary, layoutName string, phs []tagInput, extra []string) tagResult {
	var raw []string
	hasBody := false
	for _, ph := range phs {
		if t, ok := typeTags[ph.typ]; ok {
			raw = append(raw, t)
		}
		if ph.typ == TypeBody {
			hasBody = true
		}
		if strings.HasSuffix(ph.kind, "OBJECT") {
			raw = append(raw, objectNameTags(ph.name)...)
		}
	}
	raw = append(raw, nameTags(layoutName)...)
	raw = append(raw, extra...)

	var res tagResult
	var tags []string
	for _, t := range raw {
		canon, ok := vocab.Normalize(t)
		if !ok {
			res.unknown = append(res.unknown, t)
			continue
		}
		tags = append(tags, canon)
	}

	if hasBody && !IsTitleLayoutName(layoutName) {
		kept := tags[:0]
		for _, t := range tags {
			if t == TagTitle {
				res.suppressed = true
				continue
			}
			kept = append(kept, t)
		}
		tags = kept
	}

	tags = vocab.Sort(tags)
	if len(tags) == 0 {
		tags = []string{TagGeneric}
	}
	res.tags = tags
	return res
}
