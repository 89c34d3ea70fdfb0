package layouts

import (
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
	"golang.org/x/text/width"
)

// Slugify turns a layout name into an id fragment: NFKC normalized, runs of
// whitespace replaced by "_", characters outside [0-9A-Za-z_-] and the
// common CJK ranges dropped, lower-cased.
func Slugify(name string) string {
	s := norm.NFKC.String(width.Fold.String(name))
	s = strings.Join(strings.Fields(s), "_")

	var b strings.Builder
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9', r >= 'a' && r <= 'z', r == '_', r == '-':
			b.WriteRune(r)
		case r >= 'A' && r <= 'Z':
			b.WriteRune(unicode.ToLower(r))
		case isCJK(r):
			b.WriteRune(r)
		}
	}
	return b.String()
}

func isCJK(r rune) bool {
	switch {
	case r >= 0x3040 && r <= 0x30FF: // Hiragana, Katakana
	case r >= 0x3400 && r <= 0x4DBF: // CJK Extension A
	case r >= 0x4E00 && r <= 0x9FFF: // CJK Unified Ideographs
	case r >= 0xF900 && r <= 0xFAFF: // CJK Compatibility Ideographs
	case r >= 0xAC00 && r <= 0xD7AF: // Hangul syllables
	case r == 0x3005: // 々
	default:
		return false
	}
	return true
}

// idAllocator hands out unique layout ids.
type idAllocator struct {
	used map[string]bool
}

func newIDAllocator() *idAllocator {
	return &idAllocator{used: make(map[string]bool)}
}

// next returns the id for a layout: id_<identifier> when an identifier is
// known, else the slug of the name. Collisions get __02, __03, ...
func (a *idAllocator) next(name, identifier string, position int) string {
	base := ""
	if identifier != "" {
		base = "id_" + Slugify(identifier)
	} else {
		base = Slugify(name)
	}
	if base == "" || base == "id_" {
		base = fmt.Sprintf("layout_%d", position)
	}

	id := base
	for n := 2; a.used[id]; n++ {
		id = fmt.Sprintf("%s__%02d", base, n)
	}
	a.used[id] = true
	return id
}
