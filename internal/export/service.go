// Package export renders extraction job reports as XLSX or CSV.
package export

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/easytextract/easytextract/internal/entity"
	"github.com/easytextract/easytextract/internal/store"
)

// Service is a tiny façade over the repositories that produces report bytes.
type Service struct {
	files  store.SourceFileRepository
	jobs   store.ExtractJobRepository
	logger *slog.Logger
}

func NewService(files store.SourceFileRepository, jobs store.ExtractJobRepository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{files: files, jobs: jobs, logger: logger}
}

var reportHeaders = []string{
	"File",
	"Format",
	"Method",
	"Status",
	"Pages",
	"Language",
	"Confidence",
	"Duration (ms)",
	"Error",
}

// JobsXLSX returns an XLSX workbook (as bytes) listing the most recent jobs.
func (s *Service) JobsXLSX(ctx context.Context, limit int) ([]byte, error) {
	start := time.Now()
	jobs, err := s.jobs.List(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("query jobs: %w", err)
	}

	f := excelize.NewFile()
	const sheet = "Extractions"
	if index, _ := f.GetSheetIndex(sheet); index == -1 {
		if _, err := f.NewSheet(sheet); err != nil {
			return nil, err
		}
	}
	activeIndex, _ := f.GetSheetIndex(sheet)
	f.SetActiveSheet(activeIndex)
	if index, _ := f.GetSheetIndex("Sheet1"); index != -1 {
		_ = f.DeleteSheet("Sheet1")
	}

	for i, h := range reportHeaders {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}

	row := 2
	for i := range jobs {
		record := s.jobRecord(ctx, &jobs[i])
		for col, v := range record {
			cell, _ := excelize.CoordinatesToCellName(col+1, row)
			_ = f.SetCellValue(sheet, cell, v)
		}
		row++
	}

	_ = f.SetColWidth(sheet, "A", "A", 60) // path
	_ = f.SetColWidth(sheet, "B", "D", 14)
	_ = f.SetColWidth(sheet, "E", "G", 12)
	_ = f.SetColWidth(sheet, "I", "I", 48) // error

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}

	s.logger.Info("export.xlsx.ok",
		"rows", len(jobs),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return buf.Bytes(), nil
}

// JobsCSV returns the same report as CSV.
func (s *Service) JobsCSV(ctx context.Context, limit int) ([]byte, error) {
	jobs, err := s.jobs.List(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("query jobs: %w", err)
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(reportHeaders); err != nil {
		return nil, err
	}
	for i := range jobs {
		if err := w.Write(s.jobRecord(ctx, &jobs[i])); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	s.logger.Info("export.csv.ok", "rows", len(jobs))
	return buf.Bytes(), nil
}

func (s *Service) jobRecord(ctx context.Context, j *entity.ExtractJob) []string {
	path := ""
	if f, err := s.files.GetByID(ctx, j.FileID); err == nil && f != nil {
		path = f.SourcePath
	}
	return []string{
		path,
		j.Format,
		j.Method,
		j.Status,
		strconv.Itoa(j.Pages),
		j.Language,
		fmt.Sprintf("%.2f", j.Confidence),
		strconv.FormatInt(j.DurationMS, 10),
		truncate(j.ErrorMessage, 140),
	}
}

func truncate(s string, n int) string {
	if n <= 0 || len(s) <= n {
		return s
	}
	if n <= 1 {
		return s[:n]
	}
	return s[:n-1] + "…"
}
