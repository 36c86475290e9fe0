package docparse

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
)

// xlsxBlocks decodes a .xlsx workbook. Sheets named for a question type
// are read as column grids and rewritten into marker lines the parsers
// already understand; anything else is flattened cell by cell.
func xlsxBlocks(data []byte) ([]Block, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("open xlsx: %w", err)
	}
	defer f.Close()

	var blocks []Block
	for _, name := range f.GetSheetList() {
		rows, err := f.GetRows(name)
		if err != nil {
			continue
		}
		blocks = gridBlocks(name, rows, blocks)
	}
	return blocks, nil
}

func sheetKind(name string) string {
	n := strings.ToLower(name)
	switch {
	case strings.Contains(n, "mcq") || strings.Contains(n, "multiple"):
		return TypeMCQ
	case strings.Contains(n, "theory") || strings.Contains(n, "essay"):
		return TypeTheory
	default:
		return ""
	}
}

// gridBlocks converts one sheet's rows to blocks. Typed sheets become
// synthetic question and option lines so the downstream parser sees the
// same stream a text document would produce; untyped sheets are flattened
// row-major.
func gridBlocks(sheet string, rows [][]string, blocks []Block) []Block {
	kind := sheetKind(sheet)
	if kind == "" {
		for _, row := range rows {
			for _, cell := range row {
				cell = strings.TrimSpace(cell)
				if cell == "" {
					continue
				}
				blocks = append(blocks, Block{Text: cell, Pos: len(blocks)})
			}
		}
		return blocks
	}

	cols, start := gridHeader(rows)
	num := 0
	for _, row := range rows[start:] {
		question := gridCell(row, cols, "question")
		if question == "" {
			continue
		}
		num++
		line := fmt.Sprintf("%d. %s", num, question)
		if marks := gridInt(gridCell(row, cols, "marks")); marks > 0 {
			line += fmt.Sprintf(" [%d marks]", marks)
		}
		blocks = append(blocks, Block{Text: line, Pos: len(blocks)})

		if kind == TypeMCQ {
			correct := strings.ToLower(gridCell(row, cols, "correct"))
			for i, key := range []string{"option a", "option b", "option c", "option d"} {
				opt := gridCell(row, cols, key)
				if opt == "" {
					continue
				}
				letter := string(rune('a' + i))
				if correct == letter || correct == strconv.Itoa(i+1) || strings.EqualFold(correct, opt) {
					opt += " *"
				}
				blocks = append(blocks, Block{Text: letter + ") " + opt, Pos: len(blocks)})
			}
			continue
		}
		// Theory sheets hold sub-questions one per line inside the cell.
		subs := gridCell(row, cols, "sub_questions")
		for _, sub := range strings.FieldsFunc(subs, func(r rune) bool { return r == '\n' || r == ';' }) {
			sub = strings.TrimSpace(sub)
			if sub == "" {
				continue
			}
			if !IsSubQuestionStart(sub) {
				sub = "a) " + sub
			}
			blocks = append(blocks, Block{Text: sub, Pos: len(blocks)})
		}
	}
	return blocks
}

// gridHeader locates the header row and maps normalized column names to
// indexes. Without a recognizable header the first row is data and a
// positional fallback applies.
func gridHeader(rows [][]string) (map[string]int, int) {
	cols := map[string]int{}
	for r, row := range rows {
		for c, cell := range row {
			key := normalizeHeader(cell)
			if key == "" {
				continue
			}
			if _, ok := cols[key]; !ok {
				cols[key] = c
			}
		}
		if _, ok := cols["question"]; ok {
			return cols, r + 1
		}
		cols = map[string]int{}
	}
	return map[string]int{
		"question": 0, "option a": 1, "option b": 2, "option c": 3,
		"option d": 4, "correct": 5, "marks": 6, "sub_questions": 1,
	}, 0
}

func normalizeHeader(cell string) string {
	h := strings.ToLower(strings.TrimSpace(cell))
	h = strings.ReplaceAll(h, "_", " ")
	switch {
	case h == "question" || h == "question text" || h == "questions":
		return "question"
	case strings.HasPrefix(h, "option"):
		letter := strings.TrimSpace(strings.TrimPrefix(h, "option"))
		switch letter {
		case "a", "1":
			return "option a"
		case "b", "2":
			return "option b"
		case "c", "3":
			return "option c"
		case "d", "4":
			return "option d"
		}
	case h == "correct" || h == "correct option" || h == "answer" || h == "correct answer":
		return "correct"
	case h == "marks" || h == "mark" || h == "points":
		return "marks"
	case strings.HasPrefix(h, "sub"):
		return "sub_questions"
	}
	return ""
}

func gridCell(row []string, cols map[string]int, key string) string {
	idx, ok := cols[key]
	if !ok || idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

func gridInt(s string) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0
	}
	return n
}
