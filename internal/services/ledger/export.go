package ledger

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/Windi-Fikriyansyah/jobshare_be/internal/apperr"
	"github.com/Windi-Fikriyansyah/jobshare_be/internal/models"
)

const exportSheet = "Applications"

var exportHeaders = []string{
	"Applied At",
	"Job Title",
	"Company",
	"Applicant",
	"Email",
	"Status",
	"Reviewed At",
	"Notes",
	"CV File",
}

// ExportXLSX renders every application matching f as a workbook. Paging
// fields of f are ignored.
func (s *LedgerService) ExportXLSX(ctx context.Context, f ListFilter) ([]byte, error) {
	start := time.Now()
	if f.Status != "" && !f.Status.Valid() {
		return nil, ErrInvalidStatus
	}

	q := s.DB.WithContext(ctx).Model(&models.Application{})
	if f.JobID != uuid.Nil {
		q = q.Where("job_id = ?", f.JobID)
	}
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	var apps []models.Application
	if err := q.Order("applied_at DESC").Find(&apps).Error; err != nil {
		return nil, apperr.Internal("list applications", err)
	}
	if err := s.populate(ctx, apps, true); err != nil {
		return nil, err
	}

	wb := excelize.NewFile()
	defer wb.Close()
	if err := wb.SetSheetName("Sheet1", exportSheet); err != nil {
		return nil, apperr.Internal("xlsx sheet", err)
	}

	for i, h := range exportHeaders {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = wb.SetCellValue(exportSheet, cell, h)
	}

	for i, a := range apps {
		row := i + 2
		write := func(col int, v any) {
			cell, _ := excelize.CoordinatesToCellName(col, row)
			_ = wb.SetCellValue(exportSheet, cell, v)
		}

		write(1, a.AppliedAt.UTC().Format(time.RFC3339))
		if a.Job != nil {
			write(2, a.Job.Title)
			write(3, a.Job.Company)
		}
		if a.User != nil {
			write(4, a.User.Name)
			write(5, a.User.Email)
		}
		write(6, string(a.Status))
		if a.ReviewedAt != nil {
			write(7, a.ReviewedAt.UTC().Format(time.RFC3339))
		}
		if a.Notes != nil {
			write(8, *a.Notes)
		}
		if a.ResumeURL != nil {
			write(9, *a.ResumeURL)
		}
	}

	_ = wb.SetColWidth(exportSheet, "A", "A", 22)
	_ = wb.SetColWidth(exportSheet, "B", "C", 28)
	_ = wb.SetColWidth(exportSheet, "D", "E", 26)
	_ = wb.SetColWidth(exportSheet, "F", "G", 14)
	_ = wb.SetColWidth(exportSheet, "H", "H", 48)
	_ = wb.SetColWidth(exportSheet, "I", "I", 40)

	buf, err := wb.WriteToBuffer()
	if err != nil {
		return nil, apperr.Internal("xlsx write", err)
	}

	s.Logger.Info("applications exported",
		zap.Int("rows", len(apps)),
		zap.Int64("elapsed_ms", time.Since(start).Milliseconds()),
	)
	return buf.Bytes(), nil
}
