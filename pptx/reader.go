package pptx

import (
	"encoding/xml"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/tsawler/pptxgen/model"
)

// Reader provides access to the masters, layouts and slides of a PPTX
// package.
type Reader struct {
	pkg          *Package
	mainPart     string
	presentation *presentationXML
	presRels     *relationshipsXML
	masters      []*Master
	layouts      []*Layout
	slides       []*Slide
}

// Open opens a PPTX or POTX file for reading.
func Open(filename string) (*Reader, error) {
	pkg, err := OpenPackage(filename)
	if err != nil {
		return nil, err
	}
	return NewReader(pkg)
}

// NewReader parses an already loaded package.
func NewReader(pkg *Package) (*Reader, error) {
	r := &Reader{pkg: pkg}

	// Validate required files exist
	if err := r.validate(); err != nil {
		return nil, err
	}

	if err := r.parsePresentation(); err != nil {
		return nil, fmt.Errorf("parsing presentation: %w", err)
	}

	if err := r.parseMasters(); err != nil {
		return nil, fmt.Errorf("parsing slide masters: %w", err)
	}

	if err := r.parseSlides(); err != nil {
		return nil, fmt.Errorf("parsing slides: %w", err)
	}

	return r, nil
}

// Close releases the package held by the Reader.
func (r *Reader) Close() error {
	r.pkg = nil
	return nil
}

// Package returns the underlying package.
func (r *Reader) Package() *Package { return r.pkg }

// Masters returns the slide masters in sldMasterIdLst order.
func (r *Reader) Masters() []*Master { return r.masters }

// Layouts returns all slide layouts in slide-master order.
func (r *Reader) Layouts() []*Layout { return r.layouts }

// LayoutByPart returns the layout stored in the given part.
func (r *Reader) LayoutByPart(part string) (*Layout, bool) {
	for _, l := range r.layouts {
		if l.PartName == part {
			return l, true
		}
	}
	return nil, false
}

// LayoutByName returns the first layout with the given name.
func (r *Reader) LayoutByName(name string) (*Layout, bool) {
	for _, l := range r.layouts {
		if l.Err == nil && l.Name == name {
			return l, true
		}
	}
	return nil, false
}

// Slides returns the slides in presentation order.
func (r *Reader) Slides() []*Slide { return r.slides }

// SlideCount returns the number of slides in the presentation.
func (r *Reader) SlideCount() int { return len(r.slides) }

// Slide returns a specific slide by index (0-based).
func (r *Reader) Slide(index int) (*Slide, error) {
	if index < 0 || index >= len(r.slides) {
		return nil, fmt.Errorf("slide index %d out of range (0-%d)", index, len(r.slides)-1)
	}
	return r.slides[index], nil
}

// SlideSize returns the slide dimensions in EMUs.
func (r *Reader) SlideSize() (width, height model.EMU) {
	if r.presentation != nil && r.presentation.SldSz != nil {
		return model.EMU(r.presentation.SldSz.Cx), model.EMU(r.presentation.SldSz.Cy)
	}
	// Default 4:3 size
	return 9144000, 6858000
}

// validate checks that required PPTX files exist and locates the main part.
func (r *Reader) validate() error {
	if !r.pkg.Has(contentTypesPart) {
		return fmt.Errorf("missing required file: %s", contentTypesPart)
	}

	r.mainPart = "ppt/presentation.xml"
	if rootRels, err := r.pkg.Rels(""); err == nil {
		if rel, ok := findRel(rootRels, relOfficeDocument); ok {
			r.mainPart = ResolveTarget("", rel.Target)
		}
	}
	if !r.pkg.Has(r.mainPart) {
		return fmt.Errorf("missing required file: %s", r.mainPart)
	}
	return nil
}

// parsePresentation parses the main presentation part and its relationships.
func (r *Reader) parsePresentation() error {
	data, _ := r.pkg.Part(r.mainPart)
	r.presentation = &presentationXML{}
	if err := xml.Unmarshal(data, r.presentation); err != nil {
		return err
	}

	rels, err := r.pkg.Rels(r.mainPart)
	if err != nil {
		return err
	}
	r.presRels = rels
	return nil
}

type layoutRef struct {
	part string
	id   string
}

// parseMasters parses every slide master and the layouts each one lists.
func (r *Reader) parseMasters() error {
	var masterParts []string
	if lst := r.presentation.SldMasterIdLst; lst != nil {
		for _, e := range lst.Entries {
			if rel, ok := relByID(r.presRels, e.RID); ok {
				masterParts = append(masterParts, ResolveTarget(r.mainPart, rel.Target))
			}
		}
	}

	for _, part := range masterParts {
		master, refs, err := r.parseMaster(part)
		if err != nil {
			return err
		}
		r.masters = append(r.masters, master)
		for _, ref := range refs {
			r.layouts = append(r.layouts, r.parseLayout(ref, master))
		}
	}

	// Packages without a master list still expose their layout parts.
	if len(r.masters) == 0 {
		for _, part := range numberedParts(r.pkg, "ppt/slideLayouts/slideLayout") {
			r.layouts = append(r.layouts, r.parseLayout(layoutRef{part: part}, nil))
		}
	}

	for i, l := range r.layouts {
		l.Index = i
	}
	return nil
}

// parseMaster parses one master and returns its layouts in sldLayoutIdLst
// order.
func (r *Reader) parseMaster(part string) (*Master, []layoutRef, error) {
	data, ok := r.pkg.Part(part)
	if !ok {
		return nil, nil, fmt.Errorf("missing slide master %s", part)
	}
	var mx slideMasterXML
	if err := xml.Unmarshal(data, &mx); err != nil {
		return nil, nil, fmt.Errorf("parsing %s: %w", part, err)
	}
	rels, err := r.pkg.Rels(part)
	if err != nil {
		return nil, nil, err
	}

	master := &Master{PartName: part, Shapes: convertShapes(mx.CSld.SpTree.Shapes)}

	var refs []layoutRef
	if mx.SldLayoutIdLst != nil {
		for _, e := range mx.SldLayoutIdLst.Entries {
			if rel, ok := relByID(rels, e.RID); ok {
				refs = append(refs, layoutRef{part: ResolveTarget(part, rel.Target), id: e.ID})
			}
		}
	} else {
		for _, rel := range rels.Relationship {
			if rel.Type == relSlideLayout {
				refs = append(refs, layoutRef{part: ResolveTarget(part, rel.Target)})
			}
		}
	}
	return master, refs, nil
}

// parseLayout parses a layout part. Failures are recorded on the layout.
func (r *Reader) parseLayout(ref layoutRef, master *Master) *Layout {
	l := &Layout{PartName: ref.part, Identifier: ref.id}
	if master != nil {
		l.MasterPart = master.PartName
	}

	data, ok := r.pkg.Part(ref.part)
	if !ok {
		l.Err = fmt.Errorf("missing layout part %s", ref.part)
		return l
	}
	var lx slideLayoutXML
	if err := xml.Unmarshal(data, &lx); err != nil {
		l.Err = fmt.Errorf("parsing %s: %w", ref.part, err)
		return l
	}

	l.Name = lx.CSld.Name
	l.Type = lx.Type
	l.Shapes = convertShapes(lx.CSld.SpTree.Shapes)
	if master != nil {
		inheritGeometry(l.Shapes, master.Shapes, false)
	}
	return l
}

// parseSlides parses the slides listed in sldIdLst, in that order.
func (r *Reader) parseSlides() error {
	if r.presentation.SldIdLst == nil {
		return nil
	}
	for _, e := range r.presentation.SldIdLst.Entries {
		rel, ok := relByID(r.presRels, e.RID)
		if !ok {
			continue
		}
		slide, err := r.parseSlide(ResolveTarget(r.mainPart, rel.Target), len(r.slides))
		if err != nil {
			continue // Skip slides that fail to parse
		}
		r.slides = append(r.slides, slide)
	}
	return nil
}

// parseSlide parses a single slide part with its layout link and notes.
func (r *Reader) parseSlide(part string, index int) (*Slide, error) {
	data, ok := r.pkg.Part(part)
	if !ok {
		return nil, fmt.Errorf("missing slide part %s", part)
	}
	var sx slideXML
	if err := xml.Unmarshal(data, &sx); err != nil {
		return nil, err
	}

	slide := &Slide{
		Index:    index,
		PartName: part,
		Shapes:   convertShapes(sx.CSld.SpTree.Shapes),
	}

	rels, err := r.pkg.Rels(part)
	if err != nil {
		return nil, err
	}
	if rel, ok := findRel(rels, relSlideLayout); ok {
		slide.LayoutPart = ResolveTarget(part, rel.Target)
		if layout, ok := r.LayoutByPart(slide.LayoutPart); ok {
			slide.LayoutName = layout.Name
			inheritGeometry(slide.Shapes, layout.Shapes, true)
		}
	}
	if rel, ok := findRel(rels, relNotesSlide); ok {
		r.parseSlideNotes(ResolveTarget(part, rel.Target), slide)
	}

	for _, sh := range slide.Shapes {
		if sh.Placeholder == nil {
			continue
		}
		if t := sh.Placeholder.EffectiveType(); t == "title" || t == "ctrTitle" {
			slide.Title = sh.Text
			break
		}
	}
	return slide, nil
}

// parseSlideNotes reads the notes body placeholder of a notes slide.
func (r *Reader) parseSlideNotes(part string, slide *Slide) {
	data, ok := r.pkg.Part(part)
	if !ok {
		return
	}
	var nx notesSlideXML
	if err := xml.Unmarshal(data, &nx); err != nil {
		return
	}
	slide.HasNotes = true

	var loose []string
	for _, sh := range convertShapes(nx.CSld.SpTree.Shapes) {
		if sh.Placeholder == nil {
			if sh.Text != "" {
				loose = append(loose, sh.Text)
			}
			continue
		}
		if sh.Placeholder.EffectiveType() == "body" {
			slide.Notes = sh.Text
			return
		}
	}
	slide.Notes = strings.Join(loose, "\n")
}

var shapeKinds = map[string]ShapeKind{
	"sp":           KindShape,
	"pic":          KindPicture,
	"graphicFrame": KindGraphicFrame,
	"grpSp":        KindGroup,
	"cxnSp":        KindConnector,
}

// convertShapes converts shape tree members in document order.
func convertShapes(members []shapeXML) []Shape {
	var out []Shape
	for i := range members {
		kind, ok := shapeKinds[members[i].XMLName.Local]
		if !ok {
			continue
		}
		out = append(out, convertShape(&members[i], kind))
	}
	return out
}

func convertShape(sx *shapeXML, kind ShapeKind) Shape {
	sh := Shape{Kind: kind}

	if nv := sx.nvProps(); nv != nil {
		sh.ID = nv.CNvPr.ID
		sh.Name = nv.CNvPr.Name
		sh.Descr = nv.CNvPr.Descr
		if nv.CNvSpPr != nil && (nv.CNvSpPr.TxBox == "1" || nv.CNvSpPr.TxBox == "true") {
			sh.TextBox = true
		}
		if ph := nv.NvPr.Ph; ph != nil {
			sh.Placeholder = convertPlaceholder(ph)
		}
	}

	if x := sx.xfrm(); x != nil {
		box, ok, err := parseXfrm(x)
		switch {
		case err != nil:
			sh.BoxErr = err
		case ok:
			sh.Box = box
			sh.HasBox = true
		}
	}

	if sx.TxBody != nil {
		sh.HasTextFrame = true
		sh.Paragraphs, sh.Text = extractParagraphs(sx.TxBody)
	}

	if sx.Graphic != nil {
		sh.GraphicURI = sx.Graphic.GraphicData.URI
		if tbl := sx.Graphic.GraphicData.Tbl; tbl != nil {
			t := extractTable(tbl)
			sh.Table = &t
		}
	}

	if kind == KindGroup {
		sh.Children = convertShapes(sx.Members)
	}
	return sh
}

func convertPlaceholder(ph *phXML) *Placeholder {
	p := &Placeholder{Type: ph.Type, Orient: ph.Orient, Size: ph.Sz}
	if ph.Idx != "" {
		if n, err := strconv.Atoi(ph.Idx); err == nil {
			p.Idx = n
			p.HasIdx = true
		}
	}
	return p
}

// parseXfrm converts a transform to a box. ok is false when the transform
// carries neither offset nor extent.
func parseXfrm(x *xfrmXML) (model.Box, bool, error) {
	if x.Off == nil && x.Ext == nil {
		return model.Box{}, false, nil
	}
	if x.Off == nil || x.Ext == nil {
		return model.Box{}, false, fmt.Errorf("xfrm is missing off or ext")
	}
	var box model.Box
	fields := []struct {
		name string
		val  string
		dst  *model.EMU
	}{
		{"x", x.Off.X, &box.Left},
		{"y", x.Off.Y, &box.Top},
		{"cx", x.Ext.Cx, &box.Width},
		{"cy", x.Ext.Cy, &box.Height},
	}
	for _, f := range fields {
		n, err := strconv.ParseInt(strings.TrimSpace(f.val), 10, 64)
		if err != nil {
			return model.Box{}, false, fmt.Errorf("invalid %s %q", f.name, f.val)
		}
		*f.dst = model.EMU(n)
	}
	return box, true, nil
}

// extractParagraphs extracts paragraphs and the joined text of a text body.
func extractParagraphs(body *txBodyXML) ([]Paragraph, string) {
	paras := make([]Paragraph, 0, len(body.P))
	var lines []string
	for i := range body.P {
		para := extractParagraph(&body.P[i])
		paras = append(paras, para)
		if para.Text != "" {
			lines = append(lines, para.Text)
		}
	}
	return paras, strings.Join(lines, "\n")
}

// extractParagraph extracts text and formatting from a paragraph.
func extractParagraph(p *pXML) Paragraph {
	para := Paragraph{
		Runs: make([]Run, 0, len(p.R)),
	}

	if p.PPr != nil {
		para.Level = p.PPr.Lvl
		para.Alignment = p.PPr.Algn
	}

	var text strings.Builder
	for _, run := range p.R {
		text.WriteString(run.T)

		runObj := Run{
			Text: run.T,
		}
		if run.RPr != nil {
			if run.RPr.B != nil && *run.RPr.B == 1 {
				runObj.Bold = true
			}
			if run.RPr.I != nil && *run.RPr.I == 1 {
				runObj.Italic = true
			}
			runObj.FontSize = run.RPr.Sz
		}
		para.Runs = append(para.Runs, runObj)
	}

	// Include field values (like slide numbers)
	for _, fld := range p.Fld {
		text.WriteString(fld.T)
	}

	para.Text = strings.TrimSpace(text.String())
	return para
}

// extractTable extracts the cell text of a table.
func extractTable(tbl *tblXML) Table {
	table := Table{
		Columns: len(tbl.TblGrid.GridCol),
		Rows:    make([][]TableCell, 0, len(tbl.Tr)),
	}
	for _, tr := range tbl.Tr {
		row := make([]TableCell, 0, len(tr.Tc))
		for _, tc := range tr.Tc {
			var cell TableCell
			if tc.TxBody != nil {
				_, cell.Text = extractParagraphs(tc.TxBody)
			}
			row = append(row, cell)
		}
		table.Rows = append(table.Rows, row)
	}
	return table
}

// inheritGeometry copies the box of the matching parent placeholder onto
// placeholders that carry no transform of their own. Slides match their
// layout by idx first; layouts match their master by type.
func inheritGeometry(shapes, parents []Shape, byIdx bool) {
	for i := range shapes {
		sh := &shapes[i]
		if sh.HasBox || sh.BoxErr != nil || sh.Placeholder == nil {
			continue
		}
		parent, ok := matchPlaceholder(sh.Placeholder, parents, byIdx)
		if ok && parent.HasBox {
			sh.Box = parent.Box
			sh.HasBox = true
			sh.Inherited = true
		}
	}
}

// matchPlaceholder finds the parent placeholder a placeholder inherits from.
func matchPlaceholder(ph *Placeholder, parents []Shape, byIdx bool) (Shape, bool) {
	if byIdx {
		for _, p := range parents {
			if p.Placeholder != nil && p.Placeholder.Idx == ph.Idx {
				return p, true
			}
		}
	}
	class := placeholderClass(ph.EffectiveType())
	for _, p := range parents {
		if p.Placeholder != nil && placeholderClass(p.Placeholder.EffectiveType()) == class {
			return p, true
		}
	}
	return Shape{}, false
}

// placeholderClass groups placeholder types that share master geometry.
func placeholderClass(t string) string {
	switch t {
	case "title", "ctrTitle":
		return "title"
	case "body", "subTitle", "obj", "chart", "tbl", "pic", "clipArt", "dgm", "media":
		return "body"
	}
	return t
}

// numberedParts lists parts named prefix<N>.xml sorted by N.
func numberedParts(pkg *Package, prefix string) []string {
	var names []string
	for _, name := range pkg.PartNames() {
		if strings.HasPrefix(name, prefix) && strings.HasSuffix(name, ".xml") {
			if _, err := strconv.Atoi(strings.TrimSuffix(strings.TrimPrefix(name, prefix), ".xml")); err == nil {
				names = append(names, name)
			}
		}
	}
	sort.Slice(names, func(i, j int) bool {
		return partNumber(names[i], prefix) < partNumber(names[j], prefix)
	})
	return names
}

// partNumber extracts N from a name like "ppt/slides/slide<N>.xml".
func partNumber(name, prefix string) int {
	n, _ := strconv.Atoi(strings.TrimSuffix(strings.TrimPrefix(name, prefix), ".xml"))
	return n
}
