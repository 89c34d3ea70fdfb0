package pptx

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"path"
	"sort"
	"strings"
)

// Package is an OPC package (the zip container of a PPTX file) held in
// memory. Part names carry no leading slash.
type Package struct {
	names []string
	parts map[string][]byte
}

// OpenPackage reads every part of the zip archive at filename.
func OpenPackage(filename string) (*Package, error) {
	zr, err := zip.OpenReader(filename)
	if err != nil {
		return nil, fmt.Errorf("opening ZIP archive: %w", err)
	}
	defer zr.Close()
	return readZip(&zr.Reader)
}

// ReadPackage reads a package from an in-memory or on-disk archive.
func ReadPackage(r io.ReaderAt, size int64) (*Package, error) {
	zr, err := zip.NewReader(r, size)
	if err != nil {
		return nil, fmt.Errorf("opening ZIP archive: %w", err)
	}
	return readZip(zr)
}

func readZip(zr *zip.Reader) (*Package, error) {
	p := &Package{parts: make(map[string][]byte, len(zr.File))}
	for _, f := range zr.File {
		if f.FileInfo().IsDir() {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("opening %s: %w", f.Name, err)
		}
		data, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", f.Name, err)
		}
		p.SetPart(f.Name, data)
	}
	return p, nil
}

// Part returns the content of the named part.
func (p *Package) Part(name string) ([]byte, bool) {
	data, ok := p.parts[strings.TrimPrefix(name, "/")]
	return data, ok
}

// Has reports whether the named part exists.
func (p *Package) Has(name string) bool {
	_, ok := p.Part(name)
	return ok
}

// SetPart creates or replaces a part.
func (p *Package) SetPart(name string, data []byte) {
	name = strings.TrimPrefix(name, "/")
	if _, ok := p.parts[name]; !ok {
		p.names = append(p.names, name)
	}
	p.parts[name] = data
}

// DeletePart removes a part if present.
func (p *Package) DeletePart(name string) {
	name = strings.TrimPrefix(name, "/")
	if _, ok := p.parts[name]; !ok {
		return
	}
	delete(p.parts, name)
	for i, n := range p.names {
		if n == name {
			p.names = append(p.names[:i], p.names[i+1:]...)
			break
		}
	}
}

// PartNames returns part names in archive order.
func (p *Package) PartNames() []string {
	return append([]string(nil), p.names...)
}

// FreePartName returns the first unused name of the form prefix<N>ext,
// counting from 1.
func (p *Package) FreePartName(prefix, ext string) string {
	for n := 1; ; n++ {
		name := fmt.Sprintf("%s%d%s", prefix, n, ext)
		if !p.Has(name) {
			return name
		}
	}
}

// Rels parses the relationships of a part. A part without a rels file has
// no relationships.
func (p *Package) Rels(partName string) (*relationshipsXML, error) {
	rels := &relationshipsXML{}
	data, ok := p.Part(RelsPath(partName))
	if !ok {
		return rels, nil
	}
	if err := xml.Unmarshal(data, rels); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", RelsPath(partName), err)
	}
	return rels, nil
}

// SetRels serializes rels as the relationships part of partName.
func (p *Package) SetRels(partName string, rels *relationshipsXML) {
	var b strings.Builder
	b.WriteString(xml.Header)
	b.WriteString(`<Relationships xmlns="` + nsPackageRels + `">`)
	for _, r := range rels.Relationship {
		b.WriteString(`<Relationship Id="` + escapeAttr(r.ID) + `" Type="` + escapeAttr(r.Type) +
			`" Target="` + escapeAttr(r.Target) + `"`)
		if r.TargetMode != "" {
			b.WriteString(` TargetMode="` + escapeAttr(r.TargetMode) + `"`)
		}
		b.WriteString(`/>`)
	}
	b.WriteString(`</Relationships>`)
	p.SetPart(RelsPath(partName), []byte(b.String()))
}

// Save writes the package as a zip archive. [Content_Types].xml is written
// first, the remaining parts in their original order.
func (p *Package) Save(filename string) error {
	var buf bytes.Buffer
	if err := p.Write(&buf); err != nil {
		return err
	}
	if err := os.WriteFile(filename, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", filename, err)
	}
	return nil
}

// Write writes the zip archive to w.
func (p *Package) Write(w io.Writer) error {
	zw := zip.NewWriter(w)
	names := p.PartNames()
	sort.SliceStable(names, func(i, j int) bool {
		return names[i] == contentTypesPart && names[j] != contentTypesPart
	})
	for _, name := range names {
		fw, err := zw.Create(name)
		if err != nil {
			return fmt.Errorf("creating %s: %w", name, err)
		}
		if _, err := fw.Write(p.parts[name]); err != nil {
			return fmt.Errorf("writing %s: %w", name, err)
		}
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("closing ZIP archive: %w", err)
	}
	return nil
}

const contentTypesPart = "[Content_Types].xml"

// contentTypes parses [Content_Types].xml.
func (p *Package) contentTypes() (*contentTypesXML, error) {
	data, ok := p.Part(contentTypesPart)
	if !ok {
		return nil, fmt.Errorf("missing required file: %s", contentTypesPart)
	}
	ct := &contentTypesXML{}
	if err := xml.Unmarshal(data, ct); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", contentTypesPart, err)
	}
	return ct, nil
}

func (p *Package) setContentTypes(ct *contentTypesXML) {
	var b strings.Builder
	b.WriteString(xml.Header)
	b.WriteString(`<Types xmlns="` + nsContentTypes + `">`)
	for _, d := range ct.Default {
		b.WriteString(`<Default Extension="` + escapeAttr(d.Extension) + `" ContentType="` + escapeAttr(d.ContentType) + `"/>`)
	}
	for _, o := range ct.Override {
		b.WriteString(`<Override PartName="` + escapeAttr(o.PartName) + `" ContentType="` + escapeAttr(o.ContentType) + `"/>`)
	}
	b.WriteString(`</Types>`)
	p.SetPart(contentTypesPart, []byte(b.String()))
}

// RelsPath returns the relationships part for partName, e.g.
// "ppt/slides/slide1.xml" -> "ppt/slides/_rels/slide1.xml.rels".
func RelsPath(partName string) string {
	partName = strings.TrimPrefix(partName, "/")
	dir, file := path.Split(partName)
	return dir + "_rels/" + file + ".rels"
}

// ResolveTarget resolves a relationship target against its source part.
func ResolveTarget(sourcePart, target string) string {
	if strings.HasPrefix(target, "/") {
		return strings.TrimPrefix(target, "/")
	}
	return path.Join(path.Dir(strings.TrimPrefix(sourcePart, "/")), target)
}

// relativeTarget returns the target of a relationship from sourcePart to
// targetPart, both given as part names.
func relativeTarget(sourcePart, targetPart string) string {
	from := strings.Split(path.Dir(sourcePart), "/")
	to := strings.Split(targetPart, "/")
	i := 0
	for i < len(from) && i < len(to)-1 && from[i] == to[i] {
		i++
	}
	var parts []string
	for j := i; j < len(from); j++ {
		if from[j] != "." && from[j] != "" {
			parts = append(parts, "..")
		}
	}
	parts = append(parts, to[i:]...)
	return strings.Join(parts, "/")
}

// findRel returns the first relationship of the given type.
func findRel(rels *relationshipsXML, relType string) (relationshipXML, bool) {
	for _, r := range rels.Relationship {
		if r.Type == relType {
			return r, true
		}
	}
	return relationshipXML{}, false
}

// relByID returns the relationship with the given id.
func relByID(rels *relationshipsXML, id string) (relationshipXML, bool) {
	for _, r := range rels.Relationship {
		if r.ID == id {
			return r, true
		}
	}
	return relationshipXML{}, false
}

// nextRelID returns an unused rIdN for rels.
func nextRelID(rels *relationshipsXML) string {
	used := make(map[string]bool, len(rels.Relationship))
	for _, r := range rels.Relationship {
		used[r.ID] = true
	}
	for n := 1; ; n++ {
		id := fmt.Sprintf("rId%d", n)
		if !used[id] {
			return id
		}
	}
}
