package jobspec

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Load reads and parses the specification at path. Read failures are
// returned as-is; everything else that is wrong with the document is a
// *SchemaError.
func Load(path string) (*Spec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading job spec: %w", err)
	}
	return Parse(data)
}

// Parse decodes, sanitizes and schema-checks a specification.
func Parse(data []byte) (*Spec, error) {
	if serr := checkLegacyBullets(data); serr != nil {
		return nil, serr
	}

	var spec Spec
	if err := json.Unmarshal(data, &spec); err != nil {
		return nil, decodeError(err)
	}
	sanitize(&spec)

	serr := &SchemaError{}
	if err := newValidator().Struct(&spec); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return nil, err
		}
		for _, fe := range verrs {
			serr.add(fieldLoc(fe.Namespace()), fieldMsg(fe))
		}
	}
	checkStructure(&spec, serr)
	if len(serr.Errors) > 0 {
		return nil, serr
	}
	return &spec, nil
}

// checkLegacyBullets rejects the old flat bullet list, where slides[].bullets
// held the items directly instead of groups with an items array.
func checkLegacyBullets(data []byte) *SchemaError {
	var probe struct {
		Slides []struct {
			Bullets []json.RawMessage `json:"bullets"`
		} `json:"slides"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil
	}
	serr := &SchemaError{}
	for i, s := range probe.Slides {
		for j, raw := range s.Bullets {
			raw = bytes.TrimSpace(raw)
			legacy := len(raw) > 0 && raw[0] == '"'
			if len(raw) > 0 && raw[0] == '{' {
				var keys map[string]json.RawMessage
				if json.Unmarshal(raw, &keys) == nil {
					_, hasItems := keys["items"]
					_, hasText := keys["text"]
					legacy = !hasItems && hasText
				}
			}
			if legacy {
				serr.add(fmt.Sprintf("slides.%d.bullets.%d", i, j),
					"legacy bullet schema is not supported; use groups of the form {anchor?, items: [...]}")
			}
		}
	}
	if len(serr.Errors) == 0 {
		return nil
	}
	return serr
}

func decodeError(err error) *SchemaError {
	serr := &SchemaError{}
	var typeErr *json.UnmarshalTypeError
	var syntaxErr *json.SyntaxError
	switch {
	case errors.As(err, &typeErr):
		serr.add(typeErr.Field, fmt.Sprintf("expected %s, got %s", typeErr.Type, typeErr.Value))
	case errors.As(err, &syntaxErr):
		serr.add("", fmt.Sprintf("invalid JSON at offset %d: %v", syntaxErr.Offset, syntaxErr))
	default:
		serr.add("", err.Error())
	}
	return serr
}

// checkStructure applies the checks struct tags cannot express.
func checkStructure(spec *Spec, serr *SchemaError) {
	ids := make(map[string]int)
	for i := range spec.Slides {
		s := &spec.Slides[i]
		loc := fmt.Sprintf("slides.%d", i)
		if s.ID != "" {
			if prev, dup := ids[s.ID]; dup {
				serr.add(loc+".id", fmt.Sprintf("duplicate slide id %q (also slides.%d)", s.ID, prev))
			}
			ids[s.ID] = i
		}

		anchors := make(map[string]bool)
		for g, group := range s.Bullets {
			if group.Anchor == "" {
				continue
			}
			if anchors[group.Anchor] {
				serr.add(fmt.Sprintf("%s.bullets.%d.anchor", loc, g), fmt.Sprintf("duplicate bullet anchor %q", group.Anchor))
			}
			anchors[group.Anchor] = true
		}

		for c, ch := range s.Charts {
			if len(ch.Categories) == 0 {
				continue
			}
			for k, series := range ch.Series {
				if len(series.Values) != len(ch.Categories) {
					serr.add(fmt.Sprintf("%s.charts.%d.series.%d.values", loc, c, k),
						fmt.Sprintf("has %d values for %d categories", len(series.Values), len(ch.Categories)))
				}
			}
		}

		for k, img := range s.Images {
			set := 0
			for _, v := range []*float64{img.LeftIn, img.TopIn, img.WidthIn, img.HeightIn} {
				if v != nil {
					set++
				}
			}
			if set != 0 && set != 4 {
				serr.add(fmt.Sprintf("%s.images.%d", loc, k), "left_in, top_in, width_in and height_in must be given together")
			}
		}
	}
}

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return fld.Name
		}
		return name
	})
	return v
}

// fieldLoc turns "Spec.slides[0].bullets[1].text" into "slides.0.bullets.1.text".
func fieldLoc(ns string) string {
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		ns = ns[i+1:]
	}
	ns = strings.ReplaceAll(ns, "[", ".")
	return strings.ReplaceAll(ns, "]", "")
}

func fieldMsg(fe validator.FieldError) string {
	isString := fe.Kind() == reflect.String
	switch fe.Tag() {
	case "required":
		return "field required"
	case "max":
		if isString {
			return fmt.Sprintf("ensure this value has at most %s characters", fe.Param())
		}
		if fe.Kind() == reflect.Slice {
			return fmt.Sprintf("ensure this list has at most %s items", fe.Param())
		}
		return fmt.Sprintf("ensure this value is less than or equal to %s", fe.Param())
	case "min":
		if isString {
			return fmt.Sprintf("ensure this value has at least %s characters", fe.Param())
		}
		if fe.Kind() == reflect.Slice {
			return fmt.Sprintf("ensure this list has at least %s items", fe.Param())
		}
		return fmt.Sprintf("ensure this value is greater than or equal to %s", fe.Param())
	case "gt":
		return fmt.Sprintf("ensure this value is greater than %s", fe.Param())
	case "gte":
		return fmt.Sprintf("ensure this value is greater than or equal to %s", fe.Param())
	case "lte":
		return fmt.Sprintf("ensure this value is less than or equal to %s", fe.Param())
	case "oneof":
		return fmt.Sprintf("value is not one of: %s", strings.ReplaceAll(fe.Param(), " ", ", "))
	case "hexcolor|hexadecimal":
		return "invalid hex color"
	}
	return fmt.Sprintf("failed %s validation", fe.Tag())
}

// Clone returns a deep copy of the spec.
func (s *Spec) Clone() *Spec {
	data, err := json.Marshal(s)
	if err != nil {
		panic(fmt.Sprintf("jobspec: cloning spec: %v", err))
	}
	var out Spec
	if err := json.Unmarshal(data, &out); err != nil {
		panic(fmt.Sprintf("jobspec: cloning spec: %v", err))
	}
	return &out
}

// Marshal encodes the spec as indented JSON.
func (s *Spec) Marshal() ([]byte, error) {
	return json.MarshalIndent(s, "", "  ")
}
