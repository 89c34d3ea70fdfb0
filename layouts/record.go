// Package layouts turns an extracted template into the layout catalog used
// by the recommender and the mapping engine: one normalized record per
// layout with usage tags and capacity hints, plus diagnostics and an
// optional diff against a baseline catalog.
package layouts

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"os"

	"github.com/tsawler/pptxgen/model"
)

// SchemaVersion is written to every record.
const SchemaVersion = "1.0.0"

// Record is one line of layouts.jsonl.
type Record struct {
	TemplateID   string        `json:"template_id" validate:"required"`
	LayoutID     string        `json:"layout_id" validate:"required"`
	LayoutName   string        `json:"layout_name"`
	Placeholders []Placeholder `json:"placeholders" validate:"dive"`
	UsageTags    []string      `json:"usage_tags" validate:"required,min=1,unique,dive,required"`
	TextHint     TextHint      `json:"text_hint"`
	MediaHint    MediaHint     `json:"media_hint"`
	Version      string        `json:"version" validate:"eq=1.0.0"`
}

// Placeholder is a placeholder entry of a record.
type Placeholder struct {
	Name string `json:"name" validate:"required"`
	Type string `json:"type" validate:"required"`
	Idx  *int   `json:"idx,omitempty" validate:"omitempty,gte=0"`
	BBox BBox   `json:"bbox"`
}

// BBox is a bounding box in EMU.
type BBox struct {
	Left   int64 `json:"left"`
	Top    int64 `json:"top"`
	Width  int64 `json:"width" validate:"gte=0"`
	Height int64 `json:"height" validate:"gte=0"`
}

// Box converts the bbox to model geometry.
func (b BBox) Box() model.Box {
	return model.Box{Left: model.EMU(b.Left), Top: model.EMU(b.Top), Width: model.EMU(b.Width), Height: model.EMU(b.Height)}
}

func bboxOf(b model.Box) BBox {
	return BBox{Left: int64(b.Left), Top: int64(b.Top), Width: int64(b.Width), Height: int64(b.Height)}
}

// TextHint is the text capacity of a layout.
type TextHint struct {
	MaxChars int `json:"max_chars" validate:"gte=0"`
	MaxLines int `json:"max_lines" validate:"gte=0"`
}

// MediaHint lists the media kinds a layout has placeholders for.
type MediaHint struct {
	AllowTable bool `json:"allow_table"`
	AllowChart bool `json:"allow_chart"`
	AllowImage bool `json:"allow_image"`
}

// Line height and character width used for capacity hints.
const (
	lineHeightIn = 0.28
	charsPerInch = 20
	minLineChars = 10
)

// capacity derives the text and media hints from a record's placeholders.
func capacity(phs []Placeholder) (TextHint, MediaHint) {
	var th TextHint
	var mh MediaHint
	for _, ph := range phs {
		switch ph.Type {
		case TypeTable:
			mh.AllowTable = true
		case TypeChart:
			mh.AllowChart = true
		case TypePicture:
			mh.AllowImage = true
		}
		if !isTextType(ph.Type) {
			continue
		}
		box := ph.BBox.Box()
		lines := max(int(math.Floor(box.Height.Inches()/lineHeightIn)), 1)
		width := max(int(math.Floor(box.Width.Inches()*charsPerInch)), minLineChars)
		th.MaxLines += lines
		th.MaxChars += lines * width
	}
	return th, mh
}

// Anchors returns the names of the record's content placeholders, in
// record order, without footer, date and slide number placeholders.
func (r *Record) Anchors() []string {
	var out []string
	for _, ph := range r.Placeholders {
		if IsAnchorType(ph.Type) {
			out = append(out, ph.Name)
		}
	}
	return out
}

// HasTag reports whether the record carries tag.
func (r *Record) HasTag(tag string) bool {
	for _, t := range r.UsageTags {
		if t == tag {
			return true
		}
	}
	return false
}

// Profile is the view of a record used for scoring.
type Profile struct {
	LayoutID           string         `json:"layout_id"`
	LayoutName         string         `json:"layout_name"`
	UsageTags          []string       `json:"usage_tags"`
	TextHint           TextHint       `json:"text_hint"`
	MediaHint          MediaHint      `json:"media_hint"`
	PlaceholderSummary map[string]int `json:"placeholder_summary"`
}

// Profile builds the scoring view of the record.
func (r *Record) Profile() Profile {
	summary := make(map[string]int)
	for _, ph := range r.Placeholders {
		summary[ph.Type]++
	}
	return Profile{
		LayoutID:           r.LayoutID,
		LayoutName:         r.LayoutName,
		UsageTags:          append([]string(nil), r.UsageTags...),
		TextHint:           r.TextHint,
		MediaHint:          r.MediaHint,
		PlaceholderSummary: summary,
	}
}

// Profiles builds profiles for every record, keeping catalog order.
func Profiles(records []Record) []Profile {
	out := make([]Profile, len(records))
	for i := range records {
		out[i] = records[i].Profile()
	}
	return out
}

// LoadRecords reads a layouts.jsonl file. Blank lines are skipped.
func LoadRecords(path string) ([]Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseRecords(data)
}

// ParseRecords decodes JSON lines into records.
func ParseRecords(data []byte) ([]Record, error) {
	var records []Record
	sc := bufio.NewScanner(bytes.NewReader(data))
	sc.Buffer(make([]byte, 64*1024), 16*1024*1024)
	line := 0
	for sc.Scan() {
		line++
		text := bytes.TrimSpace(sc.Bytes())
		if len(text) == 0 {
			continue
		}
		var r Record
		if err := json.Unmarshal(text, &r); err != nil {
			return nil, fmt.Errorf("layouts line %d: %w", line, err)
		}
		records = append(records, r)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return records, nil
}

// encodeRecords writes one compact JSON object per line.
func encodeRecords(records []Record) ([]byte, error) {
	var buf bytes.Buffer
	for i := range records {
		line, err := json.Marshal(&records[i])
		if err != nil {
			return nil, fmt.Errorf("record %s: %w", records[i].LayoutID, err)
		}
		buf.Write(line)
		buf.WriteByte('\n')
	}
	return buf.Bytes(), nil
}
