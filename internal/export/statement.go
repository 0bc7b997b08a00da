package export

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"nannylink/internal/domain"
	"nannylink/internal/ledger"
	"nannylink/internal/models"

	"github.com/rs/zerolog"
	"github.com/xuri/excelize/v2"
)

// Exporter renders a user's schedule, payment and balance history into an
// xlsx statement.
type Exporter struct {
	store       domain.Store
	summarizer  domain.Summarizer
	exportsPath string
	logger      *zerolog.Logger
}

func NewExporter(store domain.Store, summarizer domain.Summarizer, exportsPath string, logger *zerolog.Logger) *Exporter {
	return &Exporter{
		store:       store,
		summarizer:  summarizer,
		exportsPath: exportsPath,
		logger:      logger,
	}
}

// SaveStatement writes the statement to the exports directory and returns
// the file path.
func (e *Exporter) SaveStatement(ctx context.Context, userID string) (string, error) {
	if err := os.MkdirAll(e.exportsPath, 0o755); err != nil {
		return "", fmt.Errorf("error creating export directory: %v", err)
	}

	f, err := e.buildStatement(ctx, userID)
	if err != nil {
		return "", err
	}
	defer f.Close()

	fileName := fmt.Sprintf("statement_%s_%s.xlsx", userID, time.Now().Format(models.DateLayout))
	filePath := filepath.Join(e.exportsPath, fileName)
	if err := f.SaveAs(filePath); err != nil {
		return "", fmt.Errorf("error saving file: %v", err)
	}

	e.logger.Info().Str("file_path", filePath).Msg("statement file created")
	return filePath, nil
}

// WriteStatement streams the statement to w, for HTTP downloads.
func (e *Exporter) WriteStatement(ctx context.Context, userID string, w io.Writer) error {
	f, err := e.buildStatement(ctx, userID)
	if err != nil {
		return err
	}
	defer f.Close()
	return f.Write(w)
}

func (e *Exporter) buildStatement(ctx context.Context, userID string) (*excelize.File, error) {
	requests, err := e.store.GetScheduleRequestsForUser(ctx, userID, "")
	if err != nil {
		return nil, fmt.Errorf("error getting schedule requests: %v", err)
	}
	payments, err := e.store.GetPaymentsForUser(ctx, userID, "")
	if err != nil {
		return nil, fmt.Errorf("error getting payments: %v", err)
	}
	summary, err := e.summarizer.Summarize(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("error computing summary: %v", err)
	}

	f := excelize.NewFile()

	if err := e.writeScheduleSheet(f, requests); err != nil {
		f.Close()
		return nil, err
	}
	e.writePaymentsSheet(f, payments)
	e.writeSummarySheet(f, summary)

	_ = f.DeleteSheet("Sheet1")
	return f, nil
}

func (e *Exporter) writeScheduleSheet(f *excelize.File, requests []*models.ScheduleRequest) error {
	const sheet = "Schedule"
	index, err := f.NewSheet(sheet)
	if err != nil {
		return fmt.Errorf("error creating sheet: %v", err)
	}
	f.SetActiveSheet(index)

	writeHeaderRow(f, sheet, []string{"Date", "Start", "End", "Status", "Rate", "Hours", "Amount"})

	row := 2
	for _, req := range requests {
		setRow(f, sheet, row,
			req.Date.Format(models.DateLayout), req.StartTime, req.EndTime, req.Status, req.HourlyRate.String())
		if hours, err := ledger.Hours(req.StartTime, req.EndTime); err == nil {
			cell, _ := excelize.CoordinatesToCellName(6, row)
			_ = f.SetCellValue(sheet, cell, hours.String())
			cell, _ = excelize.CoordinatesToCellName(7, row)
			_ = f.SetCellValue(sheet, cell, hours.Mul(req.HourlyRate).String())
		}
		row++
	}

	_ = f.SetColWidth(sheet, "A", "G", 14)
	return nil
}

func (e *Exporter) writePaymentsSheet(f *excelize.File, payments []*models.Payment) {
	const sheet = "Payments"
	if _, err := f.NewSheet(sheet); err != nil {
		return
	}

	writeHeaderRow(f, sheet, []string{"Date", "Amount", "Status", "Method", "From", "To", "Note"})

	row := 2
	for _, p := range payments {
		setRow(f, sheet, row,
			p.Date.Format(models.DateLayout), p.Amount.String(), p.Status, p.Method,
			p.EmployerName, p.NannyName, p.Note)
		row++
	}

	_ = f.SetColWidth(sheet, "A", "G", 16)
}

func (e *Exporter) writeSummarySheet(f *excelize.File, summary *models.Summary) {
	const sheet = "Summary"
	if _, err := f.NewSheet(sheet); err != nil {
		return
	}

	rows := [][]string{
		{"Total owed", summary.TotalOwed.String()},
		{"Total paid", summary.TotalPaid.String()},
		{"Pending payments", summary.PendingPaid.String()},
		{"Remaining balance", summary.RemainingBalance.String()},
		{"Computed at", summary.ComputedAt.Format(time.RFC3339)},
	}
	for i, pair := range rows {
		setRow(f, sheet, i+1, pair[0], pair[1])
	}

	_ = f.SetColWidth(sheet, "A", "B", 20)
}

func writeHeaderRow(f *excelize.File, sheet string, headers []string) {
	style, _ := f.NewStyle(&excelize.Style{
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#DDEBF7"}, Pattern: 1},
		Font:      &excelize.Font{Bold: true},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
		_ = f.SetCellStyle(sheet, cell, cell, style)
	}
}

func setRow(f *excelize.File, sheet string, row int, values ...string) {
	for i, v := range values {
		cell, _ := excelize.CoordinatesToCellName(i+1, row)
		_ = f.SetCellValue(sheet, cell, v)
	}
}
