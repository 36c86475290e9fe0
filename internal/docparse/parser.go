package docparse

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Strategy selects the segmentation approach for one parse run. The
// choice is made once per upload and passed down; nothing toggles it
// globally.
type Strategy string

const (
	// StrategyDefault picks per format: snapshot with line fallback for
	// .docx, line classification everywhere else.
	StrategyDefault Strategy = ""
	// StrategySnapshot prefers marker capture and degrades to line
	// classification when the snapshot pass fails.
	StrategySnapshot Strategy = "snapshot"
	// StrategyLine forces line classification.
	StrategyLine Strategy = "line"
)

// Parse decodes the document selected by filename and runs the chosen
// segmentation strategy over its block stream.
func Parse(filename string, data []byte, questionType string, strategy Strategy) (*Result, error) {
	adapter, err := AdapterFor(filename)
	if err != nil {
		return nil, err
	}
	blocks, err := adapter.Blocks(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrDecode, strings.TrimPrefix(filepath.Ext(filename), "."), err)
	}
	if len(blocks) == 0 {
		return nil, ErrEmptyDocument
	}
	return ParseBlocks(blocks, filename, questionType, strategy)
}

// ParseBlocks runs the strategy over an already-decoded stream.
func ParseBlocks(blocks []Block, filename, questionType string, strategy Strategy) (*Result, error) {
	if strategy == StrategyDefault {
		if strings.EqualFold(filepath.Ext(filename), ".docx") {
			strategy = StrategySnapshot
		} else {
			strategy = StrategyLine
		}
	}
	if strategy == StrategySnapshot {
		res, err := NewSnapshotParser(questionType).Parse(blocks)
		if err == nil {
			return res, nil
		}
		// Marker capture gave up on this document; line classification
		// still gets a chance at it.
	}
	return NewLineParser(questionType).Parse(blocks)
}
