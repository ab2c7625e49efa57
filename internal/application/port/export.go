package port

import "time"

// StatusRow is one lot line of a status report
type StatusRow struct {
	ID         int64
	Code       string
	Detail     string
	Status     string
	Label      string
	Color      string
	Stage      int
	StageCount int
	Completed  bool
	Terminal   bool
	UpdatedAt  time.Time
}

// StatusReport is the input of a rendered status workbook
type StatusReport struct {
	Title       string
	GeneratedAt time.Time
	Rows        []StatusRow
}

// WorkbookRenderer renders a status report into a spreadsheet file
type WorkbookRenderer interface {
	Render(report StatusReport) ([]byte, error)
}
