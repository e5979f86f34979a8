package dataflow

import (
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"
)

// readExcel reads the first sheet of an .xlsx workbook into a table of
// text cells. The first row is the header.
func readExcel(name, path string) (*Table, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, &DecodeError{Name: name, Err: err}
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, &DecodeError{Name: name, Err: fmt.Errorf("workbook has no sheets")}
	}
	records, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, &DecodeError{Name: name, Err: err}
	}
	if len(records) == 0 {
		return nil, &DecodeError{Name: name, Err: fmt.Errorf("no header row")}
	}

	header := records[0]
	rows := records[1:]

	t := NewTable()
	seen := make(map[string]bool)
	for i, col := range header {
		col = strings.TrimSpace(col)
		if dropHeader(col) {
			continue
		}
		col = uniqueName(col, seen)
		cells := make([]Value, len(rows))
		for j, row := range rows {
			// excelize returns short rows for trailing empty cells.
			if i < len(row) {
				cells[j] = cellValue(row[i])
			} else {
				cells[j] = NullValue(Text)
			}
		}
		t.AddColumn(col, cells)
	}
	return t, nil
}
