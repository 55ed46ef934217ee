package extractor

import (
	"context"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"
)

const xlsxMimeType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// XLSX flattens every sheet of a workbook into tab-separated lines so the
// classification providers can see cell contents.
type XLSX struct{}

func NewXLSX() *XLSX { return &XLSX{} }

func (x *XLSX) ID() string      { return "xlsx" }
func (x *XLSX) Available() bool { return true }
func (x *XLSX) Priority() int   { return 30 }

func (x *XLSX) Extract(ctx context.Context, file, mimeType string) (string, error) {
	if mimeType != xlsxMimeType {
		return "", fmt.Errorf("xlsx: unsupported mime type %s", mimeType)
	}

	wb, err := excelize.OpenFile(file)
	if err != nil {
		return "", fmt.Errorf("xlsx: open: %w", err)
	}
	defer wb.Close()

	var sb strings.Builder
	for _, sheet := range wb.GetSheetList() {
		rows, err := wb.GetRows(sheet)
		if err != nil {
			return "", fmt.Errorf("xlsx: read sheet %s: %w", sheet, err)
		}
		for _, row := range rows {
			line := strings.TrimSpace(strings.Join(row, "\t"))
			if line == "" {
				continue
			}
			sb.WriteString(line)
			sb.WriteByte('\n')
		}
	}
	return strings.TrimSpace(sb.String()), nil
}
