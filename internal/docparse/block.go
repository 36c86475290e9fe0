package docparse

import (
	"path/filepath"
	"strings"
)

// Adapter decodes one document container into a block stream.
type Adapter interface {
	Blocks(data []byte) ([]Block, error)
}

// AdapterFunc adapts a plain function to the Adapter interface.
type AdapterFunc func(data []byte) ([]Block, error)

func (f AdapterFunc) Blocks(data []byte) ([]Block, error) { return f(data) }

var adapters = map[string]Adapter{
	".docx": AdapterFunc(docxBlocks),
	".doc":  AdapterFunc(docBlocks),
	".pdf":  AdapterFunc(pdfBlocks),
	".html": AdapterFunc(htmlBlocks),
	".htm":  AdapterFunc(htmlBlocks),
	".xlsx": AdapterFunc(xlsxBlocks),
	".xls":  AdapterFunc(xlsBlocks),
}

// AdapterFor selects the adapter for a filename by extension.
func AdapterFor(filename string) (Adapter, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	a, ok := adapters[ext]
	if !ok {
		return nil, ErrUnsupportedFormat
	}
	return a, nil
}

// SupportedExtensions lists recognized file extensions in stable order.
func SupportedExtensions() []string {
	return []string{".docx", ".doc", ".pdf", ".html", ".htm", ".xlsx", ".xls"}
}

// IsSupported reports whether the filename's extension has an adapter.
func IsSupported(filename string) bool {
	_, ok := adapters[strings.ToLower(filepath.Ext(filename))]
	return ok
}
