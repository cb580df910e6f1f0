package extract

import (
	"bytes"
	"fmt"

	"github.com/extrame/xls"
)

// maxSheetRows caps how many rows are read from a sheet.
const maxSheetRows = 10000

// xlsCharset is used for legacy BIFF string records.
const xlsCharset = "utf-8"

// ParseXLS reads the cells of a legacy Excel workbook into a Table.
func ParseXLS(data []byte) (Table, error) {
	workbook, err := xls.OpenReader(bytes.NewReader(data), xlsCharset)
	if err != nil {
		return Table{}, fmt.Errorf("ParseXLS: open workbook: %w", err)
	}
	if workbook.NumSheets() == 0 {
		return Table{}, fmt.Errorf("ParseXLS: workbook has no sheets")
	}

	records := workbook.ReadAllCells(maxSheetRows)
	if len(records) == 0 {
		return Table{}, fmt.Errorf("ParseXLS: no data found in sheet")
	}

	t, err := NewTable(records)
	if err != nil {
		return Table{}, fmt.Errorf("ParseXLS: %w", err)
	}
	return t, nil
}
