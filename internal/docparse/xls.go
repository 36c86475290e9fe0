package docparse

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/shakinm/xlsReader/xls"
)

// xlsBlocks decodes a legacy BIFF .xls workbook with the same sheet
// routing as the .xlsx adapter.
func xlsBlocks(data []byte) (blocks []Block, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("parse xls: %v", r)
		}
	}()

	wb, err := xls.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("open xls: %w", err)
	}

	for i := 0; i < wb.GetNumberSheets(); i++ {
		sheet, err := wb.GetSheet(i)
		if err != nil {
			continue
		}
		var rows [][]string
		for r := 0; r < sheet.GetNumberRows(); r++ {
			row, err := sheet.GetRow(r)
			if err != nil || row == nil {
				continue
			}
			var cells []string
			for _, cell := range row.GetCols() {
				cells = append(cells, strings.TrimSpace(cell.GetString()))
			}
			rows = append(rows, cells)
		}
		blocks = gridBlocks(sheet.GetName(), rows, blocks)
	}
	return blocks, nil
}
