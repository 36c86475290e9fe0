package docparse

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// htmlBlocks walks block-level elements in document order, one block per
// element. Inline images riding on an element stay attached to its block.
func htmlBlocks(data []byte) ([]Block, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	var blocks []Block
	doc.Find("p, div, li, h1, h2, h3, h4, h5, h6, td, pre").Each(func(_ int, s *goquery.Selection) {
		// Nested block elements are emitted on their own; skip containers
		// that hold another block element to avoid doubling their text.
		if s.Find("p, div, li, td").Length() > 0 {
			return
		}
		text := strings.TrimSpace(s.Text())
		var images []string
		s.Find("img").Each(func(_ int, img *goquery.Selection) {
			if src, ok := img.Attr("src"); ok && src != "" {
				images = append(images, src)
			}
		})
		if text == "" && len(images) == 0 {
			return
		}
		html, _ := s.Html()
		blocks = append(blocks, Block{
			Text:   text,
			HTML:   strings.TrimSpace(html),
			Images: images,
			Pos:    len(blocks),
		})
	})

	if len(blocks) == 0 {
		// Plain text served as HTML has no block elements at all.
		for _, line := range strings.Split(doc.Text(), "\n") {
			line = strings.TrimSpace(line)
			if line == "" {
				continue
			}
			blocks = append(blocks, Block{Text: line, Pos: len(blocks)})
		}
	}
	return blocks, nil
}
