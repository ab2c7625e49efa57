package export

import (
	"bytes"
	"fmt"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/garyjia/lotflow/internal/application/port"
)

const sheetName = "Status"

var columns = []string{"ID", "Code", "Detail", "Status", "Label", "Stage", "Completed", "Terminal", "Updated"}

// colorFills maps status color tokens to cell fill colors
var colorFills = map[string]string{
	"slate":   "E2E8F0",
	"gray":    "E5E7EB",
	"blue":    "DBEAFE",
	"indigo":  "E0E7FF",
	"purple":  "F3E8FF",
	"teal":    "CCFBF1",
	"cyan":    "CFFAFE",
	"yellow":  "FEF9C3",
	"amber":   "FEF3C7",
	"orange":  "FFEDD5",
	"green":   "DCFCE7",
	"emerald": "D1FAE5",
	"red":     "FEE2E2",
}

// StatusWorkbook renders lot status reports with excelize
type StatusWorkbook struct {
	logger *zap.Logger
}

// NewStatusWorkbook creates a new workbook renderer
func NewStatusWorkbook(logger *zap.Logger) port.WorkbookRenderer {
	return &StatusWorkbook{logger: logger}
}

// Render writes the report into a single-sheet xlsx file
func (w *StatusWorkbook) Render(report port.StatusReport) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return nil, fmt.Errorf("failed to rename sheet: %w", err)
	}

	if err := w.writeHeader(f); err != nil {
		return nil, err
	}

	styles := make(map[string]int)
	for i, row := range report.Rows {
		if err := w.writeRow(f, i+2, row, styles); err != nil {
			return nil, err
		}
	}

	last, _ := excelize.CoordinatesToCellName(len(columns), len(report.Rows)+1)
	if err := f.AutoFilter(sheetName, "A1:"+last, nil); err != nil {
		return nil, fmt.Errorf("failed to set auto filter: %w", err)
	}

	for i, width := range []float64{8, 16, 24, 18, 20, 10, 11, 10, 20} {
		col, _ := excelize.ColumnNumberToName(i + 1)
		if err := f.SetColWidth(sheetName, col, col, width); err != nil {
			return nil, fmt.Errorf("failed to set column width: %w", err)
		}
	}

	if report.Title != "" {
		if err := f.SetDocProps(&excelize.DocProperties{
			Title:   report.Title,
			Created: report.GeneratedAt.UTC().Format("2006-01-02T15:04:05Z"),
		}); err != nil {
			return nil, fmt.Errorf("failed to set document properties: %w", err)
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}

	w.logger.Debug("Status workbook rendered",
		zap.String("title", report.Title),
		zap.Int("rows", len(report.Rows)),
		zap.Int("bytes", buf.Len()))

	return buf.Bytes(), nil
}

func (w *StatusWorkbook) writeHeader(f *excelize.File) error {
	style, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}

	for i, col := range columns {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(sheetName, cell, col); err != nil {
			return fmt.Errorf("failed to write header: %w", err)
		}
	}

	last, _ := excelize.CoordinatesToCellName(len(columns), 1)
	if err := f.SetCellStyle(sheetName, "A1", last, style); err != nil {
		return fmt.Errorf("failed to style header: %w", err)
	}

	return f.SetPanes(sheetName, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	})
}

func (w *StatusWorkbook) writeRow(f *excelize.File, rowNum int, row port.StatusRow, styles map[string]int) error {
	stage := "-"
	if row.Stage >= 0 {
		stage = fmt.Sprintf("%d/%d", row.Stage+1, row.StageCount)
	}

	values := []interface{}{
		row.ID,
		row.Code,
		row.Detail,
		row.Status,
		row.Label,
		stage,
		yesNo(row.Completed),
		yesNo(row.Terminal),
		row.UpdatedAt.UTC().Format("2006-01-02 15:04"),
	}

	start, _ := excelize.CoordinatesToCellName(1, rowNum)
	if err := f.SetSheetRow(sheetName, start, &values); err != nil {
		return fmt.Errorf("failed to write row %d: %w", rowNum, err)
	}

	fill, ok := colorFills[row.Color]
	if !ok {
		return nil
	}

	styleID, ok := styles[fill]
	if !ok {
		var err error
		styleID, err = f.NewStyle(&excelize.Style{
			Fill: excelize.Fill{Type: "pattern", Color: []string{fill}, Pattern: 1},
		})
		if err != nil {
			return fmt.Errorf("failed to create status style: %w", err)
		}
		styles[fill] = styleID
	}

	statusCell, _ := excelize.CoordinatesToCellName(4, rowNum)
	labelCell, _ := excelize.CoordinatesToCellName(5, rowNum)
	return f.SetCellStyle(sheetName, statusCell, labelCell, styleID)
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
