package layouts

import "strings"

// Canonical usage tags, in the order they are written to records.
const (
	TagTitle        = "title"
	TagContent      = "content"
	TagVisual       = "visual"
	TagChart        = "chart"
	TagTable        = "table"
	TagAgenda       = "agenda"
	TagOverview     = "overview"
	TagIntroduction = "introduction"
	TagProblem      = "problem"
	TagSolution     = "solution"
	TagImpact       = "impact"
	TagNext         = "next"
	TagGeneric      = "generic"
)

// CanonicalTags is the closed usage tag vocabulary.
var CanonicalTags = []string{
	TagTitle, TagContent, TagVisual, TagChart, TagTable, TagAgenda, TagOverview,
	TagIntroduction, TagProblem, TagSolution, TagImpact, TagNext, TagGeneric,
}

// tagSynonyms maps accepted spellings onto canonical tags.
var tagSynonyms = map[string]string{
	"body":    TagContent,
	"text":    TagContent,
	"kpi":     TagContent,
	"metric":  TagContent,
	"metrics": TagContent,
	"picture": TagVisual,
	"image":   TagVisual,
	"photo":   TagVisual,
	"cover":   TagTitle,
	"front":   TagTitle,
	"summary": TagOverview,
	"toc":     TagAgenda,
	"intro":   TagIntroduction,
	"graph":   TagChart,
}

// Vocabulary is the canonical vocabulary extended with configured tags.
type Vocabulary struct {
	order map[string]int
}

// NewVocabulary returns the canonical vocabulary plus extra tags. Extra tags
// sort after the canonical ones in the order given.
func NewVocabulary(extra ...string) *Vocabulary {
	v := &Vocabulary{order: make(map[string]int, len(CanonicalTags)+len(extra))}
	for i, t := range CanonicalTags {
		v.order[t] = i
	}
	for _, t := range extra {
		t = strings.ToLower(strings.TrimSpace(t))
		if _, ok := v.order[t]; !ok && t != "" {
			v.order[t] = len(v.order)
		}
	}
	return v
}

// Normalize maps a tag onto the vocabulary. ok is false for unknown tags.
func (v *Vocabulary) Normalize(tag string) (string, bool) {
	t := strings.ToLower(strings.TrimSpace(tag))
	if canon, ok := tagSynonyms[t]; ok {
		t = canon
	}
	if _, ok := v.order[t]; ok {
		return t, true
	}
	return "", false
}

// Contains reports whether tag is in the vocabulary after normalization.
func (v *Vocabulary) Contains(tag string) bool {
	_, ok := v.Normalize(tag)
	return ok
}

// Sort orders tags by vocabulary position and removes duplicates. Tags not
// in the vocabulary are dropped.
func (v *Vocabulary) Sort(tags []string) []string {
	seen := make(map[string]bool, len(tags))
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		if _, ok := v.order[t]; ok && !seen[t] {
			seen[t] = true
			out = append(out, t)
		}
	}
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && v.order[out[j]] < v.order[out[j-1]]; j-- {
			out[j], out[j-1] = out[j-1], out[j]
		}
	}
	return out
}

// Normalized placeholder types written to records.
const (
	TypeTitle       = "title"
	TypeSubtitle    = "subtitle"
	TypeBody        = "body"
	TypeTable       = "table"
	TypeChart       = "chart"
	TypePicture     = "picture"
	TypeMedia       = "media"
	TypeDiagram     = "diagram"
	TypeFooter      = "footer"
	TypeDate        = "date"
	TypeSlideNumber = "slide_number"
	TypeHeader      = "header"
	TypeNotes       = "notes"
	TypeSlideImage  = "slide_image"
	TypeUnknown     = "unknown"
)

// placeholderAliases normalizes extractor placeholder kinds.
var placeholderAliases = map[string]string{
	"TITLE":           TypeTitle,
	"CENTER_TITLE":    TypeTitle,
	"VERTICAL_TITLE":  TypeTitle,
	"SUBTITLE":        TypeSubtitle,
	"BODY":            TypeBody,
	"VERTICAL_BODY":   TypeBody,
	"CONTENT":         TypeBody,
	"OBJECT":          TypeBody,
	"VERTICAL_OBJECT": TypeBody,
	"TABLE":           TypeTable,
	"CHART":           TypeChart,
	"PICTURE":         TypePicture,
	"IMAGE":           TypePicture,
	"BITMAP":          TypePicture,
	"CLIP_ART":        TypePicture,
	"MEDIA":           TypeMedia,
	"MEDIA_CLIP":      TypeMedia,
	"ORG_CHART":       TypeDiagram,
	"FOOTER":          TypeFooter,
	"DATE":            TypeDate,
	"SLIDE_NUMBER":    TypeSlideNumber,
	"HEADER":          TypeHeader,
	"NOTES":           TypeNotes,
	"SLIDE_IMAGE":     TypeSlideImage,
}

// NormalizePlaceholderType maps an extractor kind to a record type. ok is
// false for kinds outside the alias table, which map to "unknown".
func NormalizePlaceholderType(kind string) (string, bool) {
	if t, ok := placeholderAliases[strings.ToUpper(strings.TrimSpace(kind))]; ok {
		return t, true
	}
	return TypeUnknown, false
}

// placeholderTypes is the set of types a record may carry.
var placeholderTypes = map[string]bool{
	TypeTitle: true, TypeSubtitle: true, TypeBody: true, TypeTable: true, TypeChart: true,
	TypePicture: true, TypeMedia: true, TypeDiagram: true, TypeFooter: true, TypeDate: true,
	TypeSlideNumber: true, TypeHeader: true, TypeNotes: true, TypeSlideImage: true, TypeUnknown: true,
}

// isTextType reports whether a placeholder of this type holds slide text.
func isTextType(t string) bool {
	return t == TypeTitle || t == TypeSubtitle || t == TypeBody
}

// IsAnchorType reports whether placeholders of this type are content anchors.
// Footer, date and slide number placeholders are not.
func IsAnchorType(t string) bool {
	return t != TypeFooter && t != TypeDate && t != TypeSlideNumber
}
