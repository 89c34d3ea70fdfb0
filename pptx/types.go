// Package pptx provides PPTX (Office Open XML Presentation) reading and the
// minimal writing needed to build decks from a template.
package pptx

import "encoding/xml"

// XML namespaces used in PPTX files.
const (
	nsPresentationML = "http://schemas.openxmlformats.org/presentationml/2006/main"
	nsDrawingML      = "http://schemas.openxmlformats.org/drawingml/2006/main"
	nsRelationships  = "http://schemas.openxmlformats.org/officeDocument/2006/relationships"
	nsPackageRels    = "http://schemas.openxmlformats.org/package/2006/relationships"
	nsContentTypes   = "http://schemas.openxmlformats.org/package/2006/content-types"
	nsChart          = "http://schemas.openxmlformats.org/drawingml/2006/chart"
)

// Relationship types.
const (
	relOfficeDocument = nsRelationships + "/officeDocument"
	relSlide          = nsRelationships + "/slide"
	relSlideLayout    = nsRelationships + "/slideLayout"
	relSlideMaster    = nsRelationships + "/slideMaster"
	relNotesSlide     = nsRelationships + "/notesSlide"
	relNotesMaster    = nsRelationships + "/notesMaster"
	relTheme          = nsRelationships + "/theme"
	relImage          = nsRelationships + "/image"
	relChart          = nsRelationships + "/chart"
)

// Content types.
const (
	ctPresentation = "application/vnd.openxmlformats-officedocument.presentationml.presentation.main+xml"
	ctSlide        = "application/vnd.openxmlformats-officedocument.presentationml.slide+xml"
	ctNotesSlide   = "application/vnd.openxmlformats-officedocument.presentationml.notesSlide+xml"
	ctNotesMaster  = "application/vnd.openxmlformats-officedocument.presentationml.notesMaster+xml"
	ctTheme        = "application/vnd.openxmlformats-officedocument.theme+xml"
	ctChart        = "application/vnd.openxmlformats-officedocument.drawingml.chart+xml"
)

// Graphic data URIs.
const (
	uriTable   = "http://schemas.openxmlformats.org/drawingml/2006/table"
	uriChart   = "http://schemas.openxmlformats.org/drawingml/2006/chart"
	uriDiagram = "http://schemas.openxmlformats.org/drawingml/2006/diagram"
)

// presentationXML represents the ppt/presentation.xml file structure.
type presentationXML struct {
	XMLName          xml.Name    `xml:"presentation"`
	SldMasterIdLst   *idListXML  `xml:"sldMasterIdLst"`
	NotesMasterIdLst *idListXML  `xml:"notesMasterIdLst"`
	SldIdLst         *idListXML  `xml:"sldIdLst"`
	SldSz            *slideSzXML `xml:"sldSz"`
}

// idListXML covers sldMasterIdLst, notesMasterIdLst, sldIdLst and sldLayoutIdLst.
type idListXML struct {
	Entries []idRefXML `xml:",any"`
}

// idRefXML is an entry carrying a plain id and an r:id attribute. Both share
// the local name "id", so the attributes are told apart by namespace.
type idRefXML struct {
	ID  string
	RID string
}

func (e *idRefXML) UnmarshalXML(d *xml.Decoder, start xml.StartElement) error {
	for _, a := range start.Attr {
		if a.Name.Local != "id" {
			continue
		}
		if a.Name.Space == nsRelationships || a.Name.Space == "r" {
			e.RID = a.Value
		} else if a.Name.Space == "" {
			e.ID = a.Value
		}
	}
	return d.Skip()
}

type slideSzXML struct {
	Cx int64 `xml:"cx,attr"` // Width in EMUs
	Cy int64 `xml:"cy,attr"` // Height in EMUs
}

// slideMasterXML represents a ppt/slideMasters/slideMaster*.xml file.
type slideMasterXML struct {
	XMLName        xml.Name   `xml:"sldMaster"`
	CSld           cSldXML    `xml:"cSld"`
	SldLayoutIdLst *idListXML `xml:"sldLayoutIdLst"`
}

// slideLayoutXML represents a ppt/slideLayouts/slideLayout*.xml file.
type slideLayoutXML struct {
	XMLName xml.Name `xml:"sldLayout"`
	Type    string   `xml:"type,attr"`
	CSld    cSldXML  `xml:"cSld"`
}

// slideXML represents a ppt/slides/slide*.xml file structure.
type slideXML struct {
	XMLName xml.Name `xml:"sld"`
	CSld    cSldXML  `xml:"cSld"`
}

// notesSlideXML represents a ppt/notesSlides/notesSlide*.xml file.
type notesSlideXML struct {
	XMLName xml.Name `xml:"notes"`
	CSld    cSldXML  `xml:"cSld"`
}

type cSldXML struct {
	Name   string    `xml:"name,attr"`
	SpTree spTreeXML `xml:"spTree"`
}

// spTreeXML represents the shape tree. Shapes keep document order.
type spTreeXML struct {
	Shapes []shapeXML `xml:",any"`
}

// shapeXML is any member of a shape tree: sp, pic, graphicFrame, grpSp or
// cxnSp. Only the properties of the element's own kind are populated.
type shapeXML struct {
	XMLName          xml.Name
	NvSpPr           *nvPropsXML `xml:"nvSpPr"`
	NvPicPr          *nvPropsXML `xml:"nvPicPr"`
	NvGraphicFramePr *nvPropsXML `xml:"nvGraphicFramePr"`
	NvGrpSpPr        *nvPropsXML `xml:"nvGrpSpPr"`
	NvCxnSpPr        *nvPropsXML `xml:"nvCxnSpPr"`
	SpPr             *spPrXML    `xml:"spPr"`
	GrpSpPr          *spPrXML    `xml:"grpSpPr"`
	Xfrm             *xfrmXML    `xml:"xfrm"` // graphicFrame carries p:xfrm directly
	TxBody           *txBodyXML  `xml:"txBody"`
	Graphic          *graphicXML `xml:"graphic"`
	Members          []shapeXML  `xml:",any"` // group members and unrecognized children
}

// nvProps returns whichever non-visual property block is present.
func (s *shapeXML) nvProps() *nvPropsXML {
	switch {
	case s.NvSpPr != nil:
		return s.NvSpPr
	case s.NvPicPr != nil:
		return s.NvPicPr
	case s.NvGraphicFramePr != nil:
		return s.NvGraphicFramePr
	case s.NvGrpSpPr != nil:
		return s.NvGrpSpPr
	case s.NvCxnSpPr != nil:
		return s.NvCxnSpPr
	}
	return nil
}

// xfrm returns the transform from whichever property block holds it.
func (s *shapeXML) xfrm() *xfrmXML {
	switch {
	case s.SpPr != nil && s.SpPr.Xfrm != nil:
		return s.SpPr.Xfrm
	case s.GrpSpPr != nil && s.GrpSpPr.Xfrm != nil:
		return s.GrpSpPr.Xfrm
	}
	return s.Xfrm
}

type nvPropsXML struct {
	CNvPr   cNvPrXML    `xml:"cNvPr"`
	CNvSpPr *cNvSpPrXML `xml:"cNvSpPr"`
	NvPr    nvPrXML     `xml:"nvPr"`
}

type cNvPrXML struct {
	ID    string `xml:"id,attr"`
	Name  string `xml:"name,attr"`
	Descr string `xml:"descr,attr"`
}

type cNvSpPrXML struct {
	TxBox string `xml:"txBox,attr"`
}

type nvPrXML struct {
	Ph *phXML `xml:"ph"` // Placeholder info
}

type phXML struct {
	Type   string `xml:"type,attr"` // title, body, subTitle, ctrTitle, etc.
	Idx    string `xml:"idx,attr"`
	Orient string `xml:"orient,attr"`
	Sz     string `xml:"sz,attr"`
}

type spPrXML struct {
	Xfrm *xfrmXML `xml:"xfrm"`
}

// xfrmXML keeps coordinates as strings so one bad value fails one shape,
// not the whole part.
type xfrmXML struct {
	Off *offXML `xml:"off"`
	Ext *extXML `xml:"ext"`
}

type offXML struct {
	X string `xml:"x,attr"` // X position in EMUs
	Y string `xml:"y,attr"` // Y position in EMUs
}

type extXML struct {
	Cx string `xml:"cx,attr"` // Width in EMUs
	Cy string `xml:"cy,attr"` // Height in EMUs
}

// txBodyXML represents text body content.
type txBodyXML struct {
	P []pXML `xml:"p"` // Paragraphs
}

// pXML represents a paragraph.
type pXML struct {
	PPr *pPrXML  `xml:"pPr"` // Paragraph properties
	R   []rXML   `xml:"r"`   // Text runs
	Fld []fldXML `xml:"fld"` // Fields (like slide number)
}

type pPrXML struct {
	Lvl  int    `xml:"lvl,attr"`  // Bullet level (0-8)
	Algn string `xml:"algn,attr"` // Alignment: l, ctr, r, just
}

// rXML represents a text run.
type rXML struct {
	RPr *rPrXML `xml:"rPr"` // Run properties
	T   string  `xml:"t"`   // Text content
}

type rPrXML struct {
	Sz int  `xml:"sz,attr"` // Font size in hundredths of a point
	B  *int `xml:"b,attr"`  // Bold (1 = true)
	I  *int `xml:"i,attr"`  // Italic (1 = true)
}

type fldXML struct {
	Type string `xml:"type,attr"` // slidenum, datetime, etc.
	T    string `xml:"t"`         // Field value
}

type graphicXML struct {
	GraphicData graphicDataXML `xml:"graphicData"`
}

type graphicDataXML struct {
	URI string  `xml:"uri,attr"`
	Tbl *tblXML `xml:"tbl"` // Table
}

// tblXML represents a table.
type tblXML struct {
	TblGrid tblGridXML `xml:"tblGrid"`
	Tr      []trXML    `xml:"tr"` // Table rows
}

type tblGridXML struct {
	GridCol []gridColXML `xml:"gridCol"`
}

type gridColXML struct {
	W int64 `xml:"w,attr"` // Width in EMUs
}

type trXML struct {
	Tc []tcXML `xml:"tc"` // Table cells
}

type tcXML struct {
	TxBody *txBodyXML `xml:"txBody"`
}

// relationshipsXML represents .rels files.
type relationshipsXML struct {
	XMLName      xml.Name          `xml:"Relationships"`
	Relationship []relationshipXML `xml:"Relationship"`
}

type relationshipXML struct {
	ID         string `xml:"Id,attr"`
	Type       string `xml:"Type,attr"`
	Target     string `xml:"Target,attr"`
	TargetMode string `xml:"TargetMode,attr,omitempty"`
}

// contentTypesXML represents [Content_Types].xml.
type contentTypesXML struct {
	XMLName  xml.Name        `xml:"Types"`
	Default  []ctDefaultXML  `xml:"Default"`
	Override []ctOverrideXML `xml:"Override"`
}

type ctDefaultXML struct {
	Extension   string `xml:"Extension,attr"`
	ContentType string `xml:"ContentType,attr"`
}

type ctOverrideXML struct {
	PartName    string `xml:"PartName,attr"`
	ContentType string `xml:"ContentType,attr"`
}
