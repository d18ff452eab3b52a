package extractor

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"
)

// extractSpreadsheet flattens every sheet into tab-separated rows, one
// line per row, with a sheet heading between sheets.
func extractSpreadsheet(data []byte) (string, error) {
	workbook, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("open spreadsheet: %w", err)
	}
	defer workbook.Close()

	var builder strings.Builder
	for _, sheet := range workbook.GetSheetList() {
		rows, err := workbook.GetRows(sheet)
		if err != nil {
			return "", fmt.Errorf("read sheet %s: %w", sheet, err)
		}
		if builder.Len() > 0 {
			builder.WriteString("\n\n")
		}
		builder.WriteString(sheet)
		for _, row := range rows {
			builder.WriteByte('\n')
			builder.WriteString(strings.Join(row, "\t"))
		}
	}
	return strings.TrimSpace(builder.String()), nil
}
