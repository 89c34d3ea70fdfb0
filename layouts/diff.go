package layouts

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
)

// Diff report codes.
const (
	CodeAnalyzerAnchorMissing    = "analyzer_anchor_missing"
	CodeAnalyzerAnchorUnexpected = "analyzer_anchor_unexpected"
)

// Fields named in PlaceholderChange.
const (
	FieldType = "type"
	FieldBBox = "bbox"
)

// bboxTolerance is the largest per-edge difference treated as unchanged.
const bboxTolerance = 1

// DiffReport is the content of diff_report.json.
type DiffReport struct {
	BaselineTemplateID  string              `json:"baseline_template_id"`
	TargetTemplateID    string              `json:"target_template_id" validate:"required"`
	LayoutsAdded        []string            `json:"layouts_added"`
	LayoutsRemoved      []string            `json:"layouts_removed"`
	PlaceholdersChanged []PlaceholderChange `json:"placeholders_changed" validate:"dive"`
	LayoutDiffs         []LayoutDiff        `json:"layout_diffs" validate:"dive"`
	Issues              []DiffIssue         `json:"issues" validate:"dive"`
}

// PlaceholderChange names one changed field of a placeholder.
type PlaceholderChange struct {
	LayoutID string `json:"layout_id" validate:"required"`
	Name     string `json:"name" validate:"required"`
	Field    string `json:"field" validate:"oneof=type bbox"`
}

// LayoutDiff describes the changes of a layout present in both catalogs.
type LayoutDiff struct {
	LayoutID            string       `json:"layout_id" validate:"required"`
	PlaceholdersAdded   []string     `json:"placeholders_added"`
	PlaceholdersRemoved []string     `json:"placeholders_removed"`
	AnchorsAdded        []string     `json:"anchors_added"`
	AnchorsRemoved      []string     `json:"anchors_removed"`
	TypeChanges         []TypeChange `json:"type_changes"`
	BBoxChanges         []BBoxChange `json:"bbox_changes"`
}

func (d *LayoutDiff) empty() bool {
	return len(d.PlaceholdersAdded) == 0 && len(d.PlaceholdersRemoved) == 0 &&
		len(d.TypeChanges) == 0 && len(d.BBoxChanges) == 0
}

// TypeChange records a placeholder whose normalized type changed.
type TypeChange struct {
	Name string `json:"name"`
	From string `json:"from"`
	To   string `json:"to"`
}

// BBoxChange records a placeholder that moved or was resized.
type BBoxChange struct {
	Name string `json:"name"`
	From BBox   `json:"from"`
	To   BBox   `json:"to"`
}

// DiffIssue is an analyzer finding against the current catalog.
type DiffIssue struct {
	Code     string `json:"code" validate:"required"`
	LayoutID string `json:"layout_id" validate:"required"`
	Detail   string `json:"detail,omitempty"`
	Anchor   string `json:"anchor,omitempty"`
}

// AnalyzerSnapshot lists the placeholders observed on produced decks.
type AnalyzerSnapshot struct {
	Slides []SnapshotSlide `json:"slides"`
}

// SnapshotSlide is one observed slide.
type SnapshotSlide struct {
	LayoutID string   `json:"layout_id"`
	Anchors  []string `json:"anchors"`
}

// LoadAnalyzerSnapshot reads an analyzer snapshot file.
func LoadAnalyzerSnapshot(path string) (*AnalyzerSnapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var s AnalyzerSnapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("analyzer snapshot %s: %w", path, err)
	}
	return &s, nil
}

// Diff compares the current catalog with a baseline. The snapshot may be nil.
func Diff(baseline, current []Record, snapshot *AnalyzerSnapshot) *DiffReport {
	rep := &DiffReport{
		LayoutsAdded:        []string{},
		LayoutsRemoved:      []string{},
		PlaceholdersChanged: []PlaceholderChange{},
		LayoutDiffs:         []LayoutDiff{},
		Issues:              []DiffIssue{},
	}
	if len(baseline) > 0 {
		rep.BaselineTemplateID = baseline[0].TemplateID
	}
	if len(current) > 0 {
		rep.TargetTemplateID = current[0].TemplateID
	}

	base := make(map[string]*Record, len(baseline))
	for i := range baseline {
		base[baseline[i].LayoutID] = &baseline[i]
	}
	seen := make(map[string]bool, len(current))
	for i := range current {
		cur := &current[i]
		seen[cur.LayoutID] = true
		old, ok := base[cur.LayoutID]
		if !ok {
			rep.LayoutsAdded = append(rep.LayoutsAdded, cur.LayoutID)
			continue
		}
		ld := diffLayout(old, cur)
		for _, tc := range ld.TypeChanges {
			rep.PlaceholdersChanged = append(rep.PlaceholdersChanged, PlaceholderChange{LayoutID: cur.LayoutID, Name: tc.Name, Field: FieldType})
		}
		for _, bc := range ld.BBoxChanges {
			rep.PlaceholdersChanged = append(rep.PlaceholdersChanged, PlaceholderChange{LayoutID: cur.LayoutID, Name: bc.Name, Field: FieldBBox})
		}
		if !ld.empty() {
			rep.LayoutDiffs = append(rep.LayoutDiffs, ld)
		}
	}
	for i := range baseline {
		if !seen[baseline[i].LayoutID] {
			rep.LayoutsRemoved = append(rep.LayoutsRemoved, baseline[i].LayoutID)
		}
	}

	if snapshot != nil {
		rep.Issues = append(rep.Issues, analyzerIssues(current, snapshot)...)
	}
	return rep
}

func diffLayout(old, cur *Record) LayoutDiff {
	ld := LayoutDiff{
		LayoutID:            cur.LayoutID,
		PlaceholdersAdded:   []string{},
		PlaceholdersRemoved: []string{},
		AnchorsAdded:        []string{},
		AnchorsRemoved:      []string{},
		TypeChanges:         []TypeChange{},
		BBoxChanges:         []BBoxChange{},
	}
	oldByName := placeholdersByName(old)
	curByName := placeholdersByName(cur)

	for _, ph := range cur.Placeholders {
		prev, ok := oldByName[ph.Name]
		if !ok {
			ld.PlaceholdersAdded = appendUnique(ld.PlaceholdersAdded, ph.Name)
			if IsAnchorType(ph.Type) {
				ld.AnchorsAdded = appendUnique(ld.AnchorsAdded, ph.Name)
			}
			continue
		}
		if prev.Type != ph.Type {
			ld.TypeChanges = append(ld.TypeChanges, TypeChange{Name: ph.Name, From: prev.Type, To: ph.Type})
		}
		if !prev.BBox.Box().Equal(ph.BBox.Box(), bboxTolerance) {
			ld.BBoxChanges = append(ld.BBoxChanges, BBoxChange{Name: ph.Name, From: prev.BBox, To: ph.BBox})
		}
	}
	for _, ph := range old.Placeholders {
		if _, ok := curByName[ph.Name]; ok {
			continue
		}
		ld.PlaceholdersRemoved = appendUnique(ld.PlaceholdersRemoved, ph.Name)
		if IsAnchorType(ph.Type) {
			ld.AnchorsRemoved = appendUnique(ld.AnchorsRemoved, ph.Name)
		}
	}
	return ld
}

// placeholdersByName indexes placeholders by name; the first of duplicate
// names wins.
func placeholdersByName(r *Record) map[string]Placeholder {
	out := make(map[string]Placeholder, len(r.Placeholders))
	for _, ph := range r.Placeholders {
		if _, ok := out[ph.Name]; !ok {
			out[ph.Name] = ph
		}
	}
	return out
}

func analyzerIssues(current []Record, snapshot *AnalyzerSnapshot) []DiffIssue {
	observed := make(map[string]map[string]bool)
	for _, s := range snapshot.Slides {
		set, ok := observed[s.LayoutID]
		if !ok {
			set = make(map[string]bool)
			observed[s.LayoutID] = set
		}
		for _, a := range s.Anchors {
			set[a] = true
		}
	}

	var issues []DiffIssue
	for i := range current {
		r := &current[i]
		seen, ok := observed[r.LayoutID]
		if !ok {
			continue
		}
		anchors := make(map[string]bool)
		for _, a := range r.Anchors() {
			if anchors[a] {
				continue
			}
			anchors[a] = true
			if !seen[a] {
				issues = append(issues, DiffIssue{
					Code: CodeAnalyzerAnchorMissing, LayoutID: r.LayoutID, Anchor: a,
					Detail: "anchor not observed on produced slides",
				})
			}
		}
		var unexpected []string
		for a := range seen {
			if !anchors[a] {
				unexpected = append(unexpected, a)
			}
		}
		sort.Strings(unexpected)
		for _, a := range unexpected {
			issues = append(issues, DiffIssue{
				Code: CodeAnalyzerAnchorUnexpected, LayoutID: r.LayoutID, Anchor: a,
				Detail: "observed anchor is not in the template",
			})
		}
	}
	return issues
}

func appendUnique(list []string, s string) []string {
	for _, v := range list {
		if v == s {
			return list
		}
	}
	return append(list, s)
}
