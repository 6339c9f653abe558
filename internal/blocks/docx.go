package blocks

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
)

// DOCXSource walks the OOXML body, emitting one block per paragraph. Inline
// images are pulled from the zip via the relationship table and attached to
// the paragraph at the text offset where their drawing element sat.
type DOCXSource struct{}

func (s *DOCXSource) SupportedFormats() []string { return []string{"docx"} }

func (s *DOCXSource) Read(_ context.Context, r io.Reader) ([]Block, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading docx: %w", err)
	}
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("opening docx: %w", err)
	}

	fileIndex := make(map[string]*zip.File, len(zr.File))
	for _, f := range zr.File {
		fileIndex[f.Name] = f
	}
	docFile := fileIndex["word/document.xml"]
	if docFile == nil {
		return nil, fmt.Errorf("word/document.xml not found in docx")
	}
	docXML, err := readZipFile(docFile)
	if err != nil {
		return nil, err
	}
	rels := parseRels(fileIndex)

	return walkParagraphs(docXML, rels, fileIndex), nil
}

func readZipFile(f *zip.File) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", f.Name, err)
	}
	defer rc.Close()
	return io.ReadAll(rc)
}

type docxRelationships struct {
	XMLName xml.Name           `xml:"Relationships"`
	Rels    []docxRelationship `xml:"Relationship"`
}

type docxRelationship struct {
	ID     string `xml:"Id,attr"`
	Target string `xml:"Target,attr"`
}

// parseRels reads word/_rels/document.xml.rels into an rId→target map.
func parseRels(fileIndex map[string]*zip.File) map[string]string {
	relsFile := fileIndex["word/_rels/document.xml.rels"]
	if relsFile == nil {
		return nil
	}
	data, err := readZipFile(relsFile)
	if err != nil {
		return nil
	}
	var rels docxRelationships
	if err := xml.Unmarshal(data, &rels); err != nil {
		return nil
	}
	out := make(map[string]string, len(rels.Rels))
	for _, rel := range rels.Rels {
		out[rel.ID] = rel.Target
	}
	return out
}

// walkParagraphs streams the document XML. Each <w:p> becomes one block;
// <w:t> runs accumulate text and <a:blip> elements resolve to media files.
func walkParagraphs(docXML []byte, rels map[string]string, fileIndex map[string]*zip.File) []Block {
	dec := xml.NewDecoder(bytes.NewReader(docXML))

	var out []Block
	var text strings.Builder
	var images []Image
	inPara := false
	inText := false

	flush := func() {
		t := strings.TrimRight(text.String(), " \t")
		if strings.TrimSpace(t) != "" || len(images) > 0 {
			out = append(out, Block{Text: t, Images: images})
		}
		text.Reset()
		images = nil
	}

	for {
		tok, err := dec.Token()
		if err != nil {
			break
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "p":
				inPara = true
			case "t":
				inText = inPara
			case "blip":
				if !inPara {
					continue
				}
				if img, ok := loadBlip(t, rels, fileIndex); ok {
					img.Offset = text.Len()
					images = append(images, img)
				}
			case "br", "cr":
				if inPara {
					text.WriteString(" ")
				}
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "p":
				if inPara {
					flush()
					inPara = false
				}
			case "t":
				inText = false
			}
		case xml.CharData:
			if inText {
				text.Write(t)
			}
		}
	}
	return out
}

func loadBlip(se xml.StartElement, rels map[string]string, fileIndex map[string]*zip.File) (Image, bool) {
	var embedID string
	for _, attr := range se.Attr {
		if attr.Name.Local == "embed" {
			embedID = attr.Value
			break
		}
	}
	if embedID == "" || rels == nil {
		return Image{}, false
	}
	target, ok := rels[embedID]
	if !ok {
		return Image{}, false
	}
	mediaPath := strings.ReplaceAll(filepath.Clean("word/"+target), "\\", "/")
	zf := fileIndex[mediaPath]
	if zf == nil {
		slog.Debug("docx: image file not found in zip", "path", mediaPath, "rId", embedID)
		return Image{}, false
	}
	data, err := readZipFile(zf)
	if err != nil {
		slog.Debug("docx: failed to read image file", "path", mediaPath, "error", err)
		return Image{}, false
	}
	mimeType := mimeFromExt(filepath.Ext(zf.Name))
	if mimeType == "" {
		return Image{}, false
	}
	w, h := imageSize(data)
	return Image{Bytes: data, Width: w, Height: h, MIMEType: mimeType}, true
}

// mimeFromExt returns the MIME type for common image extensions.
func mimeFromExt(ext string) string {
	switch strings.ToLower(ext) {
	case ".png":
		return "image/png"
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".gif":
		return "image/gif"
	case ".bmp":
		return "image/bmp"
	default:
		return ""
	}
}

// imageSize returns the width and height of an image from its encoded bytes.
func imageSize(data []byte) (int, int) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return 0, 0
	}
	return cfg.Width, cfg.Height
}
