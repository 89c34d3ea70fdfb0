package layouts

// Diagnostic codes.
const (
	CodePlaceholderUnknownType = "placeholder_unknown_type"
	CodeDuplicatePlaceholder   = "duplicate_placeholder"
	CodeTitleSuppressed        = "usage_tag_title_suppressed"
	CodeUnknownTag             = "usage_tag_unknown"
	CodeAnchorConflict         = "anchor_conflict"
	CodeMissingFields          = "missing_fields"
	CodeShapeError             = "shape_error"
	CodeLayoutMalformed        = "layout_malformed"
)

// Issue is one warning or error in diagnostics.json.
type Issue struct {
	Code     string `json:"code" validate:"required"`
	LayoutID string `json:"layout_id"`
	Name     string `json:"name"`
	Detail   string `json:"detail,omitempty"`
}

// Stats summarizes one validation run.
type Stats struct {
	LayoutsTotal      int   `json:"layouts_total" validate:"gte=0"`
	PlaceholdersTotal int   `json:"placeholders_total" validate:"gte=0"`
	ExtractionTimeMS  int64 `json:"extraction_time_ms" validate:"gte=0"`
}

// Diagnostics is the content of diagnostics.json.
type Diagnostics struct {
	TemplateID string  `json:"template_id" validate:"required"`
	Warnings   []Issue `json:"warnings" validate:"dive"`
	Errors     []Issue `json:"errors" validate:"dive"`
	Stats      Stats   `json:"stats"`
}

func (d *Diagnostics) warn(code, layoutID, name, detail string) {
	d.Warnings = append(d.Warnings, Issue{Code: code, LayoutID: layoutID, Name: name, Detail: detail})
}

func (d *Diagnostics) fail(code, layoutID, name, detail string) {
	d.Errors = append(d.Errors, Issue{Code: code, LayoutID: layoutID, Name: name, Detail: detail})
}

// WarningCount returns the number of warnings carrying code.
func (d *Diagnostics) WarningCount(code string) int {
	n := 0
	for _, w := range d.Warnings {
		if w.Code == code {
			n++
		}
	}
	return n
}
