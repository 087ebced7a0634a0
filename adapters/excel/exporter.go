package excel

import (
	"bytes"
	"fmt"

	"github.com/xuri/excelize/v2"

	"dockwatch/domain/analysis"
)

// comparisonHeaders is the fixed column layout of the comparison sheet.
var comparisonHeaders = []string{
	"Job ID", "Job Name", "Measurements", "Mean (kcal/mol)",
	"Median (kcal/mol)", "Min (kcal/mol)", "Max (kcal/mol)", "Best Score (kcal/mol)",
}

// WriteComparison renders a cross-job comparison as an xlsx workbook and
// returns the serialized bytes.
func WriteComparison(result analysis.ComparisonResult) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	sheet := "Comparison"
	idx, err := f.NewSheet(sheet)
	if err != nil {
		return nil, err
	}
	f.SetActiveSheet(idx)
	f.DeleteSheet("Sheet1")

	for i, h := range comparisonHeaders {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return nil, err
		}
	}

	for r, job := range result.Jobs {
		row := r + 2
		values := []interface{}{
			string(job.JobID), job.Name, job.Count, job.Mean,
			job.Median, job.Min, job.Max, job.BestScore,
		}
		for c, v := range values {
			cell, _ := excelize.CoordinatesToCellName(c+1, row)
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				return nil, err
			}
		}
	}

	// Summary block two rows below the table.
	summaryRow := len(result.Jobs) + 4
	summary := [][2]interface{}{
		{"Best Job", string(result.BestJob)},
		{"Mean Variance", result.MeanVariance},
		{"Best Score Spread", result.BestScoreSpread},
	}
	for i, pair := range summary {
		labelCell, _ := excelize.CoordinatesToCellName(1, summaryRow+i)
		valueCell, _ := excelize.CoordinatesToCellName(2, summaryRow+i)
		if err := f.SetCellValue(sheet, labelCell, pair[0]); err != nil {
			return nil, err
		}
		if err := f.SetCellValue(sheet, valueCell, pair[1]); err != nil {
			return nil, err
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("serialize workbook: %w", err)
	}
	return buf.Bytes(), nil
}
