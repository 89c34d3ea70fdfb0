package pptx

import (
	"encoding/xml"
	"strings"
)

const drawingNamespaces = `xmlns:a="` + nsDrawingML + `" xmlns:r="` + nsRelationships + `" xmlns:p="` + nsPresentationML + `"`

const emptyGroupProps = `<p:nvGrpSpPr><p:cNvPr id="1" name=""/><p:cNvGrpSpPr/><p:nvPr/></p:nvGrpSpPr>` +
	`<p:grpSpPr><a:xfrm><a:off x="0" y="0"/><a:ext cx="0" cy="0"/><a:chOff x="0" y="0"/><a:chExt cx="0" cy="0"/></a:xfrm></p:grpSpPr>`

// notesMasterXML is a minimal notes master with a slide image and a notes
// body placeholder.
const notesMasterXML = xml.Header + `<p:notesMaster ` + drawingNamespaces + `><p:cSld>` +
	`<p:bg><p:bgRef idx="1001"><a:schemeClr val="bg1"/></p:bgRef></p:bg><p:spTree>` + emptyGroupProps +
	`<p:sp><p:nvSpPr><p:cNvPr id="2" name="Slide Image Placeholder 1"/><p:cNvSpPr><a:spLocks noGrp="1" noRot="1" noChangeAspect="1"/></p:cNvSpPr>` +
	`<p:nvPr><p:ph type="sldImg" idx="2"/></p:nvPr></p:nvSpPr><p:spPr><a:xfrm><a:off x="1143000" y="685800"/><a:ext cx="4572000" cy="3429000"/></a:xfrm>` +
	`<a:prstGeom prst="rect"><a:avLst/></a:prstGeom><a:noFill/></p:spPr></p:sp>` +
	`<p:sp><p:nvSpPr><p:cNvPr id="3" name="Notes Placeholder 2"/><p:cNvSpPr><a:spLocks noGrp="1"/></p:cNvSpPr>` +
	`<p:nvPr><p:ph type="body" sz="quarter" idx="3"/></p:nvPr></p:nvSpPr><p:spPr><a:xfrm><a:off x="685800" y="4400550"/><a:ext cx="5486400" cy="3600450"/></a:xfrm>` +
	`<a:prstGeom prst="rect"><a:avLst/></a:prstGeom></p:spPr><p:txBody><a:bodyPr/><a:lstStyle/><a:p><a:endParaRPr lang="en-US"/></a:p></p:txBody></p:sp>` +
	`</p:spTree></p:cSld><p:clrMap bg1="lt1" tx1="dk1" bg2="lt2" tx2="dk2" accent1="accent1" accent2="accent2" accent3="accent3" ` +
	`accent4="accent4" accent5="accent5" accent6="accent6" hlink="hlink" folHlink="folHlink"/></p:notesMaster>`

// notesSlidePartXML renders a notes slide whose body placeholder holds tf.
func notesSlidePartXML(tf *TextFrame, lang string) string {
	var b strings.Builder
	b.WriteString(xml.Header)
	b.WriteString(`<p:notes ` + drawingNamespaces + `><p:cSld><p:spTree>` + emptyGroupProps)
	b.WriteString(`<p:sp><p:nvSpPr><p:cNvPr id="2" name="Slide Image Placeholder 1"/>` +
		`<p:cNvSpPr><a:spLocks noGrp="1" noRot="1" noChangeAspect="1"/></p:cNvSpPr>` +
		`<p:nvPr><p:ph type="sldImg"/></p:nvPr></p:nvSpPr><p:spPr/></p:sp>`)
	b.WriteString(`<p:sp><p:nvSpPr><p:cNvPr id="3" name="Notes Placeholder 2"/>` +
		`<p:cNvSpPr><a:spLocks noGrp="1"/></p:cNvSpPr><p:nvPr><p:ph type="body" idx="1"/></p:nvPr></p:nvSpPr>` +
		`<p:spPr/><p:txBody><a:bodyPr/><a:lstStyle/>`)
	writeParagraphs(&b, tf, lang)
	b.WriteString(`</p:txBody></p:sp></p:spTree></p:cSld><p:clrMapOvr><a:masterClrMapping/></p:clrMapOvr></p:notes>`)
	return b.String()
}

// ensureNotesMaster returns the notes master part, creating one (with a copy
// of the first slide master's theme) when the template has none. rid is the
// new presentation relationship, empty when the master already existed.
func (a *assembly) ensureNotesMaster() (part, rid string) {
	if rel, ok := findRel(a.presRels, relNotesMaster); ok {
		return ResolveTarget(a.mainPart, rel.Target), ""
	}

	part = a.pkg.FreePartName("ppt/notesMasters/notesMaster", ".xml")
	rels := &relationshipsXML{}

	if theme, ok := a.masterTheme(); ok {
		themePart := a.pkg.FreePartName("ppt/theme/theme", ".xml")
		a.pkg.SetPart(themePart, theme)
		addOverride(a.ct, themePart, ctTheme)
		rels.Relationship = append(rels.Relationship, relationshipXML{
			ID: "rId1", Type: relTheme, Target: relativeTarget(part, themePart),
		})
	}

	a.pkg.SetPart(part, []byte(notesMasterXML))
	a.pkg.SetRels(part, rels)
	addOverride(a.ct, part, ctNotesMaster)

	rid = nextRelID(a.presRels)
	a.presRels.Relationship = append(a.presRels.Relationship, relationshipXML{
		ID: rid, Type: relNotesMaster, Target: relativeTarget(a.mainPart, part),
	})
	return part, rid
}

// masterTheme returns the theme part of the first slide master.
func (a *assembly) masterTheme() ([]byte, bool) {
	for _, rel := range a.presRels.Relationship {
		if rel.Type != relSlideMaster {
			continue
		}
		masterPart := ResolveTarget(a.mainPart, rel.Target)
		rels, err := a.pkg.Rels(masterPart)
		if err != nil {
			return nil, false
		}
		if themeRel, ok := findRel(rels, relTheme); ok {
			return a.pkg.Part(ResolveTarget(masterPart, themeRel.Target))
		}
	}
	return nil, false
}

// addNotesSlide writes the notes slide for a slide part.
func (a *assembly) addNotesSlide(slidePart, notesMasterPart string, tf *TextFrame) string {
	part := a.pkg.FreePartName("ppt/notesSlides/notesSlide", ".xml")
	a.pkg.SetPart(part, []byte(notesSlidePartXML(tf, a.lang)))
	a.pkg.SetRels(part, &relationshipsXML{Relationship: []relationshipXML{
		{ID: "rId1", Type: relNotesMaster, Target: relativeTarget(part, notesMasterPart)},
		{ID: "rId2", Type: relSlide, Target: relativeTarget(part, slidePart)},
	}})
	addOverride(a.ct, part, ctNotesSlide)
	return part
}

func addOverride(ct *contentTypesXML, part, contentType string) {
	name := "/" + strings.TrimPrefix(part, "/")
	for i, o := range ct.Override {
		if o.PartName == name {
			ct.Override[i].ContentType = contentType
			return
		}
	}
	ct.Override = append(ct.Override, ctOverrideXML{PartName: name, ContentType: contentType})
}

func addDefault(ct *contentTypesXML, ext, contentType string) {
	ext = strings.TrimPrefix(ext, ".")
	for _, d := range ct.Default {
		if strings.EqualFold(d.Extension, ext) {
			return
		}
	}
	ct.Default = append(ct.Default, ctDefaultXML{Extension: ext, ContentType: contentType})
}

func removeOverrides(ct *contentTypesXML, parts map[string]bool) {
	kept := ct.Override[:0]
	for _, o := range ct.Override {
		if !parts[strings.TrimPrefix(o.PartName, "/")] {
			kept = append(kept, o)
		}
	}
	ct.Override = kept
}
