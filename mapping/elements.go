package mapping

import (
	"fmt"

	"github.com/tsawler/pptxgen/jobspec"
	"github.com/tsawler/pptxgen/layouts"
	"github.com/tsawler/pptxgen/model"
)

// Element keys of the fixed slide parts.
const (
	titleKey    = "title"
	subtitleKey = "subtitle"
	noteKey     = "note"
	bodyKey     = "body"
)

// BuildElements collects the elements of a slide before any fallback:
// title, subtitle, note, the body, anchored bullet groups, then tables,
// images, charts and text boxes keyed by anchor or by kind and position.
func BuildElements(s *jobspec.Slide) *model.Elements {
	els := model.NewElements()
	set := func(key string, el model.Element) {
		if _, taken := els.Get(key); taken {
			for n := 2; ; n++ {
				alt := fmt.Sprintf("%s_%d", key, n)
				if _, taken := els.Get(alt); !taken {
					key = alt
					break
				}
			}
		}
		els.Set(key, el)
	}

	if s.Title != "" {
		set(titleKey, &model.Text{Value: s.Title})
	}
	if s.Subtitle != "" {
		set(subtitleKey, &model.Text{Value: s.Subtitle})
	}
	if s.Notes != "" {
		set(noteKey, &model.Text{Value: s.Notes})
	}
	if items := s.BodyItems(); len(items) > 0 {
		set(bodyKey, &model.Bullets{Items: items})
	}
	for _, g := range s.AnchoredGroups() {
		set(g.Anchor, &model.Bullets{Items: append([]model.BulletItem(nil), g.Items...)})
	}
	for i := range s.Tables {
		t := s.Tables[i]
		set(keyOr(t.Anchor, "table", i), &t)
	}
	for i := range s.Images {
		img := s.Images[i]
		set(keyOr(img.Anchor, "image", i), &img)
	}
	for i := range s.Charts {
		c := s.Charts[i]
		set(keyOr(c.Anchor, "chart", i), &c)
	}
	for i := range s.Textboxes {
		tb := s.Textboxes[i]
		set(keyOr(tb.Anchor, "textbox", i), &tb)
	}
	return els
}

func keyOr(anchor, kind string, i int) string {
	if anchor != "" {
		return anchor
	}
	return fmt.Sprintf("%s_%d", kind, i+1)
}

// catalog indexes layout records.
type catalog struct {
	records  []layouts.Record
	profiles []layouts.Profile
}

func newCatalog(records []layouts.Record) *catalog {
	return &catalog{records: records, profiles: layouts.Profiles(records)}
}

func (c *catalog) empty() bool { return len(c.records) == 0 }

// resolve finds a record by layout id, layout name or slugified name.
func (c *catalog) resolve(name string) *layouts.Record {
	for i := range c.records {
		if c.records[i].LayoutID == name {
			return &c.records[i]
		}
	}
	for i := range c.records {
		if c.records[i].LayoutName == name {
			return &c.records[i]
		}
	}
	slug := layouts.Slugify(name)
	for i := range c.records {
		if c.records[i].LayoutID == slug {
			return &c.records[i]
		}
	}
	return nil
}

func (c *catalog) names() map[string]string {
	m := make(map[string]string, len(c.records))
	for _, r := range c.records {
		m[r.LayoutID] = r.LayoutName
	}
	return m
}
