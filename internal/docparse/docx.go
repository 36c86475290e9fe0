package docparse

import (
	"archive/zip"
	"bytes"
	"encoding/base64"
	"encoding/xml"
	"fmt"
	"io"
	"path"
	"strings"
)

// docxBlocks decodes a .docx container: word/document.xml is walked with
// a streaming decoder, one block per paragraph, runs carrying their
// inline formatting and any anchored images resolved through the
// relationship part.
func docxBlocks(data []byte) ([]Block, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("open docx archive: %w", err)
	}

	rels, media, err := docxMedia(zr)
	if err != nil {
		return nil, err
	}

	var docFile *zip.File
	for _, f := range zr.File {
		if f.Name == "word/document.xml" {
			docFile = f
			break
		}
	}
	if docFile == nil {
		return nil, fmt.Errorf("word/document.xml not found: %w", ErrDecode)
	}
	rc, err := docFile.Open()
	if err != nil {
		return nil, fmt.Errorf("open word/document.xml: %w", err)
	}
	defer rc.Close()

	var (
		blocks  []Block
		text    strings.Builder
		html    strings.Builder
		images  []string
		inText  bool
		inRPr   bool
		runBold bool
		runItal bool
		runUndl bool
		runVert string
	)

	dec := xml.NewDecoder(rc)
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("decode word/document.xml: %w", err)
		}
		switch el := tok.(type) {
		case xml.StartElement:
			switch el.Name.Local {
			case "r":
				runBold, runItal, runUndl, runVert = false, false, false, ""
			case "rPr":
				inRPr = true
			case "b":
				if inRPr {
					runBold = attrIsOn(el)
				}
			case "i":
				if inRPr {
					runItal = attrIsOn(el)
				}
			case "u":
				if inRPr {
					runUndl = true
				}
			case "vertAlign":
				if inRPr {
					runVert = xmlAttr(el, "val")
				}
			case "t":
				inText = true
			case "blip":
				if id := xmlAttr(el, "embed"); id != "" {
					if uri, ok := resolveImage(id, rels, media); ok {
						images = append(images, uri)
					}
				}
			}
		case xml.CharData:
			if inText {
				s := string(el)
				text.WriteString(s)
				html.WriteString(wrapRun(s, runBold, runItal, runUndl, runVert))
			}
		case xml.EndElement:
			switch el.Name.Local {
			case "t":
				inText = false
			case "rPr":
				inRPr = false
			case "p":
				if strings.TrimSpace(text.String()) != "" || len(images) > 0 {
					blocks = append(blocks, Block{
						Text:   text.String(),
						HTML:   html.String(),
						Images: images,
						Pos:    len(blocks),
					})
				}
				text.Reset()
				html.Reset()
				images = nil
			}
		}
	}
	return blocks, nil
}

// docxMedia loads the relationship map and every media part up front so
// blip references resolve without re-reading the archive.
func docxMedia(zr *zip.Reader) (map[string]string, map[string]string, error) {
	rels := map[string]string{}
	media := map[string]string{}
	for _, f := range zr.File {
		switch {
		case f.Name == "word/_rels/document.xml.rels":
			rc, err := f.Open()
			if err != nil {
				return nil, nil, fmt.Errorf("open relationships: %w", err)
			}
			var doc struct {
				Relationships []struct {
					ID     string `xml:"Id,attr"`
					Target string `xml:"Target,attr"`
				} `xml:"Relationship"`
			}
			err = xml.NewDecoder(rc).Decode(&doc)
			rc.Close()
			if err != nil {
				return nil, nil, fmt.Errorf("decode relationships: %w", err)
			}
			for _, r := range doc.Relationships {
				rels[r.ID] = r.Target
			}
		case strings.HasPrefix(f.Name, "word/media/"):
			rc, err := f.Open()
			if err != nil {
				continue
			}
			raw, err := io.ReadAll(rc)
			rc.Close()
			if err != nil {
				continue
			}
			media[path.Base(f.Name)] = base64.StdEncoding.EncodeToString(raw)
		}
	}
	return rels, media, nil
}

func resolveImage(relID string, rels, media map[string]string) (string, bool) {
	target, ok := rels[relID]
	if !ok {
		return "", false
	}
	b64, ok := media[path.Base(target)]
	if !ok {
		return "", false
	}
	return "data:" + imageMIME(target) + ";base64," + b64, true
}

func imageMIME(name string) string {
	switch strings.ToLower(path.Ext(name)) {
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".gif":
		return "image/gif"
	case ".bmp":
		return "image/bmp"
	case ".emf", ".wmf":
		return "image/x-emf"
	default:
		return "image/png"
	}
}

func wrapRun(s string, bold, italic, underline bool, vert string) string {
	if bold {
		s = "<strong>" + s + "</strong>"
	}
	if italic {
		s = "<em>" + s + "</em>"
	}
	if underline {
		s = "<u>" + s + "</u>"
	}
	switch vert {
	case "superscript":
		s = "<sup>" + s + "</sup>"
	case "subscript":
		s = "<sub>" + s + "</sub>"
	}
	return s
}

func xmlAttr(el xml.StartElement, local string) string {
	for _, a := range el.Attr {
		if a.Name.Local == local {
			return a.Value
		}
	}
	return ""
}

// attrIsOn treats <w:b/> with no val, or any val other than false/0/none,
// as on.
func attrIsOn(el xml.StartElement) bool {
	v := xmlAttr(el, "val")
	return v == "" || (v != "false" && v != "0" && v != "none")
}
