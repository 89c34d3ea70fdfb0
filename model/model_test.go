package model

import (
	"encoding/json"
	"math"
	"testing"
)

func TestInchesRoundTrip(t *testing.T) {
	if got := Inches(1); got != EMUPerInch {
		t.Errorf("Inches(1) = %d, want %d", got, EMUPerInch)
	}
	if got := EMU(457200).Inches(); got != 0.5 {
		t.Errorf("Inches() = %f, want 0.5", got)
	}
	if got := Points(1); got != EMUPerPoint {
		t.Errorf("Points(1) = %d, want %d", got, EMUPerPoint)
	}
}

func TestBoxEqualTolerance(t *testing.T) {
	a := Box{Left: 100, Top: 100, Width: 1000, Height: 500}
	b := Box{Left: 101, Top: 99, Width: 1000, Height: 501}
	if !a.Equal(b, 1) {
		t.Error("expected boxes within 1 EMU to be equal")
	}
	c := Box{Left: 102, Top: 100, Width: 1000, Height: 500}
	if a.Equal(c, 1) {
		t.Error("expected boxes 2 EMU apart to differ")
	}
}

func TestBoxFit(t *testing.T) {
	box := BoxFromInches(0, 0, 4, 2)
	fit := box.Fit(100, 100)
	if fit.Width != Inches(2) || fit.Height != Inches(2) {
		t.Fatalf("fit = %+v, want 2x2 inches", fit)
	}
	if fit.Left != Inches(1) || fit.Top != 0 {
		t.Errorf("fit not centered: %+v", fit)
	}
}

func TestBoxCover(t *testing.T) {
	box := BoxFromInches(0, 0, 4, 2)
	crop := box.Cover(100, 100)
	// Scaled to 4x4, so a quarter is trimmed from top and bottom.
	if math.Abs(crop.Top-0.25) > 1e-9 || math.Abs(crop.Bottom-0.25) > 1e-9 {
		t.Errorf("crop = %+v, want 0.25 top/bottom", crop)
	}
	if crop.Left != 0 || crop.Right != 0 {
		t.Errorf("unexpected horizontal crop: %+v", crop)
	}
}

func TestParseColor(t *testing.T) {
	c, err := ParseColor("#1a2B3c")
	if err != nil {
		t.Fatalf("ParseColor: %v", err)
	}
	if c.Hex() != "1A2B3C" {
		t.Errorf("Hex() = %s", c.Hex())
	}
	if _, err := ParseColor("12345"); err == nil {
		t.Error("expected error for short color")
	}
}

func TestFontMerge(t *testing.T) {
	bold := true
	base := Font{Name: "Meiryo", SizePt: 18, Color: "000000"}
	got := MergeFont(&Font{SizePt: 24, Bold: &bold}, base)
	if got.Name != "Meiryo" || got.SizePt != 24 || got.Bold == nil || !*got.Bold || got.Color != "000000" {
		t.Errorf("unexpected merge result: %+v", got)
	}
	if MergeFont(nil, base) != base {
		t.Error("nil override should return base")
	}
}

func TestElementsKeepInsertionOrder(t *testing.T) {
	e := NewElements()
	e.Set("title", &Text{Value: "Quarterly"})
	e.Set("body", &Bullets{Items: []BulletItem{{Text: "a"}, {Text: "b", Level: 1}}})
	e.Set("table_1", &Table{ID: "t1", Columns: []string{"A"}, Rows: [][]string{{"1"}}})
	e.Set("title", &Text{Value: "Quarterly Review"})

	data, err := json.Marshal(e)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	want := `{"title":"Quarterly Review","body":[{"text":"a","level":0},{"text":"b","level":1}],"table_1":{"kind":"table","id":"t1","columns":["A"],"rows":[["1"]]}}`
	if string(data) != want {
		t.Errorf("marshal =\n%s\nwant\n%s", data, want)
	}

	var back Elements
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	keys := back.Keys()
	if len(keys) != 3 || keys[0] != "title" || keys[1] != "body" || keys[2] != "table_1" {
		t.Errorf("keys = %v", keys)
	}
	if !back.Equal(e) {
		t.Error("expected decoded elements to equal original")
	}
}

func TestDecodeElementVariants(t *testing.T) {
	tests := []struct {
		raw  string
		kind ElementKind
	}{
		{`"hello"`, KindText},
		{`["a","b"]`, KindBullets},
		{`{"kind":"chart","id":"c","type":"pie","categories":[],"series":[{"name":"s","values":[1]}]}`, KindChart},
		{`{"kind":"image","id":"i","source":"a.png"}`, KindImage},
		{`{"kind":"textbox","id":"x","text":"t"}`, KindTextbox},
	}
	for _, tt := range tests {
		el, err := DecodeElement([]byte(tt.raw))
		if err != nil {
			t.Errorf("DecodeElement(%s): %v", tt.raw, err)
			continue
		}
		if el.Kind() != tt.kind {
			t.Errorf("DecodeElement(%s) kind = %s, want %s", tt.raw, el.Kind(), tt.kind)
		}
	}
	if _, err := DecodeElement([]byte(`{"kind":"video"}`)); err == nil {
		t.Error("expected error for unknown kind")
	}
}

func TestElementsDeleteAndClone(t *testing.T) {
	e := NewElements()
	e.Set("a", &Text{Value: "1"})
	e.Set("b", &Text{Value: "2"})
	clone := e.Clone()
	if !e.Delete("a") {
		t.Fatal("expected delete to succeed")
	}
	if e.Len() != 1 || clone.Len() != 2 {
		t.Errorf("clone shares state: e=%d clone=%d", e.Len(), clone.Len())
	}
	if e.Delete("missing") {
		t.Error("deleting a missing key should report false")
	}
}

func TestBulletsTruncate(t *testing.T) {
	b := &Bullets{Items: []BulletItem{{Text: "1"}, {Text: "2"}, {Text: "3"}}}
	short := b.Truncate(2)
	if len(short.Items) != 2 || len(b.Items) != 3 {
		t.Errorf("truncate changed source or wrong length: %d/%d", len(short.Items), len(b.Items))
	}
	if len(b.Truncate(10).Items) != 3 {
		t.Error("truncate beyond length should keep all items")
	}
}
