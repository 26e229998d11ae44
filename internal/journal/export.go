package journal

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/xuri/excelize/v2"
)

const exportSheet = "Deliveries"

var exportHeader = []string{"ID", "Created", "Kind", "Name", "Email", "Detail", "Status", "Error", "Duration (ms)"}

// ExportXLSX writes entries in [from, to) as a spreadsheet.
func (j *Journal) ExportXLSX(ctx context.Context, w io.Writer, from, to time.Time) (int, error) {
	entries, err := j.List(ctx, from, to)
	if err != nil {
		return 0, err
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", exportSheet); err != nil {
		return 0, fmt.Errorf("rename sheet: %w", err)
	}
	if err := writeRow(f, 1, toAny(exportHeader)); err != nil {
		return 0, err
	}

	style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err == nil {
		endCell, _ := excelize.CoordinatesToCellName(len(exportHeader), 1)
		_ = f.SetCellStyle(exportSheet, "A1", endCell, style)
	}

	for i, e := range entries {
		row := []any{
			e.ID,
			e.CreatedAt.UTC().Format(time.RFC3339),
			e.Kind,
			e.Name,
			e.Email,
			e.Detail,
			e.Status,
			e.Error,
			e.Duration.Milliseconds(),
		}
		if err := writeRow(f, i+2, row); err != nil {
			return 0, err
		}
	}

	if err := f.Write(w); err != nil {
		return 0, fmt.Errorf("write xlsx: %w", err)
	}
	return len(entries), nil
}

func writeRow(f *excelize.File, row int, values []any) error {
	for i, v := range values {
		cell, err := excelize.CoordinatesToCellName(i+1, row)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(exportSheet, cell, v); err != nil {
			return err
		}
	}
	return nil
}

func toAny(ss []string) []any {
	out := make([]any, len(ss))
	for i, s := range ss {
		out[i] = s
	}
	return out
}
