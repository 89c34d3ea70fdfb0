package pptx

import (
	"crypto/sha256"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"

	"github.com/tsawler/pptxgen/model"
)

// Deck builds a presentation from a template. Slides already present in the
// template are dropped; masters, layouts and themes are kept.
type Deck struct {
	pkg    *Package
	reader *Reader
	slides []*SlideBuilder
	lang   string
}

// NewDeck opens a template (PPTX or POTX) as the base of a new deck.
func NewDeck(templatePath string) (*Deck, error) {
	pkg, err := OpenPackage(templatePath)
	if err != nil {
		return nil, err
	}
	return NewDeckFromPackage(pkg)
}

// NewDeckFromPackage uses an already loaded package as the template.
func NewDeckFromPackage(pkg *Package) (*Deck, error) {
	r, err := NewReader(pkg)
	if err != nil {
		return nil, err
	}
	d := &Deck{pkg: pkg, reader: r, lang: "en-US"}
	if err := d.dropSlides(); err != nil {
		return nil, fmt.Errorf("dropping template slides: %w", err)
	}
	return d, nil
}

// SetLanguage sets the language tag written on text runs, e.g. "ja-JP".
func (d *Deck) SetLanguage(lang string) {
	if lang != "" {
		d.lang = lang
	}
}

// Layouts returns the template layouts in slide-master order.
func (d *Deck) Layouts() []*Layout { return d.reader.Layouts() }

// SlideSize returns the slide dimensions in EMUs.
func (d *Deck) SlideSize() (width, height model.EMU) { return d.reader.SlideSize() }

// Slides returns the slides added so far.
func (d *Deck) Slides() []*SlideBuilder { return d.slides }

// AddSlide appends a slide based on layout. The layout's placeholders are
// cloned onto the slide, except date, footer and slide number.
func (d *Deck) AddSlide(layout *Layout) (*SlideBuilder, error) {
	if layout == nil {
		return nil, errors.New("no layout given")
	}
	if layout.Err != nil {
		return nil, fmt.Errorf("layout %q is malformed: %w", layout.Name, layout.Err)
	}

	s := &SlideBuilder{layout: layout, nextID: 2}
	for _, sh := range layout.Shapes {
		if sh.Placeholder == nil || !cloneable(sh.Placeholder) {
			continue
		}
		ph := *sh.Placeholder
		id := s.newID()
		s.shapes = append(s.shapes, &ShapeRef{
			id:          id,
			name:        placeholderName(&ph, id),
			placeholder: &ph,
			box:         sh.Box,
			hasBox:      sh.HasBox,
		})
	}
	d.slides = append(d.slides, s)
	return s, nil
}

// Save writes the deck to filename.
func (d *Deck) Save(filename string) error {
	pkg, err := d.assemble()
	if err != nil {
		return err
	}
	return pkg.Save(filename)
}

// Write writes the deck as a zip archive to w.
func (d *Deck) Write(w io.Writer) error {
	pkg, err := d.assemble()
	if err != nil {
		return err
	}
	return pkg.Write(w)
}

// dropSlides removes the template's own slides and their notes.
func (d *Deck) dropSlides() error {
	ct, err := d.pkg.contentTypes()
	if err != nil {
		return err
	}
	mainPart := d.reader.mainPart
	rels, err := d.pkg.Rels(mainPart)
	if err != nil {
		return err
	}

	removed := make(map[string]bool)
	var kept []relationshipXML
	for _, rel := range rels.Relationship {
		if rel.Type != relSlide {
			kept = append(kept, rel)
			continue
		}
		part := ResolveTarget(mainPart, rel.Target)
		if slideRels, err := d.pkg.Rels(part); err == nil {
			for _, sr := range slideRels.Relationship {
				if sr.Type == relNotesSlide {
					notes := ResolveTarget(part, sr.Target)
					d.pkg.DeletePart(notes)
					d.pkg.DeletePart(RelsPath(notes))
					removed[notes] = true
				}
			}
		}
		d.pkg.DeletePart(part)
		d.pkg.DeletePart(RelsPath(part))
		removed[part] = true
	}
	if len(removed) == 0 {
		return nil
	}

	d.pkg.SetRels(mainPart, &relationshipsXML{Relationship: kept})
	removeOverrides(ct, removed)
	d.pkg.setContentTypes(ct)
	return nil
}

// assembly is the state of one Save.
type assembly struct {
	pkg      *Package
	ct       *contentTypesXML
	mainPart string
	presRels *relationshipsXML
	lang     string
	media    map[[32]byte]string
}

// assemble writes the slides into a copy of the template package, so a deck
// can be saved more than once.
func (d *Deck) assemble() (*Package, error) {
	a := &assembly{
		pkg:      d.pkg.clone(),
		mainPart: d.reader.mainPart,
		lang:     d.lang,
		media:    make(map[[32]byte]string),
	}
	var err error
	if a.ct, err = a.pkg.contentTypes(); err != nil {
		return nil, err
	}
	if a.presRels, err = a.pkg.Rels(a.mainPart); err != nil {
		return nil, err
	}
	a.fixMainContentType()

	var notesMaster, notesMasterRID string
	for _, s := range d.slides {
		if s.notes != nil {
			notesMaster, notesMasterRID = a.ensureNotesMaster()
			break
		}
	}

	ids := make([]idRefXML, 0, len(d.slides))
	for i, s := range d.slides {
		part := a.pkg.FreePartName("ppt/slides/slide", ".xml")
		rels := &relationshipsXML{Relationship: []relationshipXML{
			{ID: "rId1", Type: relSlideLayout, Target: relativeTarget(part, s.layout.PartName)},
		}}

		for _, sh := range s.shapes {
			switch {
			case sh.picture != nil:
				media := a.addMedia(sh.picture)
				sh.relID = addRel(rels, relImage, relativeTarget(part, media))
			case sh.chart != nil:
				chartPart := a.pkg.FreePartName("ppt/charts/chart", ".xml")
				a.pkg.SetPart(chartPart, []byte(chartXML(sh.chart, a.lang)))
				addOverride(a.ct, chartPart, ctChart)
				sh.relID = addRel(rels, relChart, relativeTarget(part, chartPart))
			}
		}
		a.pkg.SetPart(part, s.xml(a.lang))

		if s.notes != nil {
			notes := a.addNotesSlide(part, notesMaster, s.notes)
			addRel(rels, relNotesSlide, relativeTarget(part, notes))
		}
		a.pkg.SetRels(part, rels)
		addOverride(a.ct, part, ctSlide)

		rid := addRel(a.presRels, relSlide, relativeTarget(a.mainPart, part))
		ids = append(ids, idRefXML{ID: strconv.Itoa(256 + i), RID: rid})
	}

	a.pkg.SetRels(a.mainPart, a.presRels)
	data, _ := a.pkg.Part(a.mainPart)
	data, err = rewritePresentation(data, ids, notesMasterRID)
	if err != nil {
		return nil, err
	}
	a.pkg.SetPart(a.mainPart, data)
	a.pkg.setContentTypes(a.ct)
	return a.pkg, nil
}

// fixMainContentType turns a template (.potx) main part into a presentation.
func (a *assembly) fixMainContentType() {
	name := "/" + a.mainPart
	for i, o := range a.ct.Override {
		if o.PartName == name && strings.Contains(o.ContentType, "template.main") {
			a.ct.Override[i].ContentType = ctPresentation
		}
	}
}

// addMedia stores picture data once per distinct content.
func (a *assembly) addMedia(p *PictureSpec) string {
	sum := sha256.Sum256(p.Data)
	if part, ok := a.media[sum]; ok {
		return part
	}
	part := a.pkg.FreePartName("ppt/media/image", p.Format.Extension())
	a.pkg.SetPart(part, p.Data)
	addDefault(a.ct, p.Format.Extension(), p.Format.ContentType())
	a.media[sum] = part
	return part
}

func addRel(rels *relationshipsXML, relType, target string) string {
	id := nextRelID(rels)
	rels.Relationship = append(rels.Relationship, relationshipXML{ID: id, Type: relType, Target: target})
	return id
}

// xml renders the slide part.
func (s *SlideBuilder) xml(lang string) []byte {
	var b strings.Builder
	b.WriteString(xml.Header)
	b.WriteString(`<p:sld ` + drawingNamespaces + `><p:cSld><p:spTree>` + emptyGroupProps)
	for _, sh := range s.shapes {
		sh.writeXML(&b, lang)
	}
	b.WriteString(`</p:spTree></p:cSld><p:clrMapOvr><a:masterClrMapping/></p:clrMapOvr></p:sld>`)
	return []byte(b.String())
}

var (
	presentationRootRe = regexp.MustCompile(`<(\w+:)?presentation[\s>]`)
	relPrefixRe        = regexp.MustCompile(`xmlns:(\w+)="` + regexp.QuoteMeta(nsRelationships) + `"`)
)

// rewritePresentation replaces the slide id list of presentation.xml and
// adds a notes master id list when notesMasterRID is set. The rest of the
// document is kept byte for byte.
func rewritePresentation(data []byte, slides []idRefXML, notesMasterRID string) ([]byte, error) {
	s := string(data)
	m := presentationRootRe.FindStringSubmatchIndex(s)
	if m == nil {
		return nil, errors.New("presentation root element not found")
	}
	p := ""
	if m[2] >= 0 {
		p = s[m[2]:m[3]]
	}
	q := regexp.QuoteMeta(p)

	r := "r"
	if rm := relPrefixRe.FindStringSubmatch(s); rm != nil {
		r = rm[1]
	} else {
		// Declare the relationships namespace on the root element.
		at := m[1] - 1
		s = s[:at] + ` xmlns:r="` + nsRelationships + `"` + s[at:]
	}

	s = regexp.MustCompile(`(?s)<`+q+`sldIdLst\s*/>|<`+q+`sldIdLst\b.*?</`+q+`sldIdLst>`).ReplaceAllString(s, "")

	if notesMasterRID != "" && !strings.Contains(s, "<"+p+"notesMasterIdLst") {
		lst := `<` + p + `notesMasterIdLst><` + p + `notesMasterId ` + r + `:id="` + notesMasterRID + `"/></` + p + `notesMasterIdLst>`
		var ok bool
		if s, ok = insertAfter(s, []string{"</" + p + "sldMasterIdLst>"}, lst); !ok {
			return nil, errors.New("presentation has no slide master list")
		}
	}

	if len(slides) > 0 {
		var lst strings.Builder
		lst.WriteString(`<` + p + `sldIdLst>`)
		for _, e := range slides {
			lst.WriteString(`<` + p + `sldId id="` + e.ID + `" ` + r + `:id="` + e.RID + `"/>`)
		}
		lst.WriteString(`</` + p + `sldIdLst>`)

		var ok bool
		s, ok = insertAfter(s, []string{
			"</" + p + "handoutMasterIdLst>",
			"</" + p + "notesMasterIdLst>",
			"</" + p + "sldMasterIdLst>",
		}, lst.String())
		if !ok {
			idx := strings.Index(s, "<"+p+"sldSz")
			if idx < 0 {
				return nil, errors.New("cannot place slide list in presentation")
			}
			s = s[:idx] + lst.String() + s[idx:]
		}
	}
	return []byte(s), nil
}

// insertAfter inserts text after the first of the markers found, trying
// markers in order.
func insertAfter(s string, markers []string, text string) (string, bool) {
	for _, marker := range markers {
		if i := strings.Index(s, marker); i >= 0 {
			at := i + len(marker)
			return s[:at] + text + s[at:], true
		}
	}
	return s, false
}

func (p *Package) clone() *Package {
	c := &Package{
		names: append([]string(nil), p.names...),
		parts: make(map[string][]byte, len(p.parts)),
	}
	for name, data := range p.parts {
		c.parts[name] = data
	}
	return c
}
