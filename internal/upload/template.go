package upload

import (
	"bytes"
	"fmt"

	"github.com/xuri/excelize/v2"

	"qbank/internal/docparse"
)

// BuildTemplate produces a fillable .xlsx upload template for one
// question type. The sheet name routes it back through the spreadsheet
// adapter on upload.
func BuildTemplate(kind string) (*bytes.Buffer, error) {
	var headers []string
	var example []any
	var sheet string

	switch kind {
	case docparse.TypeMCQ:
		sheet = "MCQ Questions"
		headers = []string{"Question", "Option A", "Option B", "Option C", "Option D", "Correct", "Marks"}
		example = []any{"What is the capital of France?", "London", "Paris", "Berlin", "Rome", "b", 2}
	case docparse.TypeTheory:
		sheet = "Theory Questions"
		headers = []string{"Question", "Sub Questions", "Marks"}
		example = []any{"Answer all parts", "a) Define osmosis (4 marks)\nb) Explain diffusion (8 marks)", 12}
	default:
		return nil, fmt.Errorf("%w: template kind %q", ErrInvalidInput, kind)
	}

	f := excelize.NewFile()
	defer f.Close()
	_ = f.SetSheetName(f.GetSheetName(0), sheet)

	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}
	for i, v := range example {
		cell, _ := excelize.CoordinatesToCellName(i+1, 2)
		_ = f.SetCellValue(sheet, cell, v)
	}
	last, _ := excelize.CoordinatesToCellName(len(headers), 1)
	_ = f.SetColWidth(sheet, "A", string(last[0]), 28)

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("write excel template: %w", err)
	}
	return &buf, nil
}
