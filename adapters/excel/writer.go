package excel

import (
	"fmt"
	"io"
	"log"
	"strings"

	"priorfit/app"
	"priorfit/domain/prior"

	"github.com/xuri/excelize/v2"
)

var resultHeaders = []interface{}{
	"row", "family", "lower", "upper", "target_mass", "status",
	"achieved_mass", "params", "jacobian", "iterations", "warning", "error",
}

// WriteResultsFile saves a batch result as an .xlsx workbook
func WriteResultsFile(path string, result *app.BatchResult) error {
	f, err := buildResultWorkbook(result)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save results workbook: %w", err)
	}
	log.Printf("[ResultWriter] Wrote %d rows to %s", len(result.Items), path)
	return nil
}

// WriteResults streams a batch result workbook to w
func WriteResults(w io.Writer, result *app.BatchResult) error {
	f, err := buildResultWorkbook(result)
	if err != nil {
		return err
	}
	defer f.Close()

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write results workbook: %w", err)
	}
	return nil
}

func buildResultWorkbook(result *app.BatchResult) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", ResultSheet); err != nil {
		return nil, err
	}
	if err := f.SetSheetRow(ResultSheet, "A1", &resultHeaders); err != nil {
		return nil, err
	}

	for i, item := range result.Items {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		row := resultRow(item)
		if err := f.SetSheetRow(ResultSheet, cell, &row); err != nil {
			return nil, fmt.Errorf("row %d: %w", item.Row, err)
		}
	}
	if err := f.SetColWidth(ResultSheet, "H", "H", 32); err != nil {
		return nil, err
	}
	if err := f.SetColWidth(ResultSheet, "K", "L", 48); err != nil {
		return nil, err
	}

	if _, err := f.NewSheet(SummarySheet); err != nil {
		return nil, err
	}
	summary := [][]interface{}{
		{"batch_id", result.ID.String()},
		{"rows", len(result.Items)},
		{"succeeded", result.Succeeded},
		{"warned", result.Warned},
		{"failed", result.Failed},
		{"duration_ms", result.Duration.Milliseconds()},
	}
	for i, row := range summary {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		if err := f.SetSheetRow(SummarySheet, cell, &row); err != nil {
			return nil, err
		}
	}
	return f, nil
}

func resultRow(item app.BatchItem) []interface{} {
	row := []interface{}{item.Row, item.Request.Family, item.Request.Lower, item.Request.Upper}
	rec := item.Record
	if rec == nil {
		mass := interface{}("")
		if item.Request.Mass != nil {
			mass = *item.Request.Mass
		}
		return append(row, mass, "failed", "", "", "", "", "", errorText(item.Err))
	}

	achieved := interface{}("")
	if rec.AchievedMass != nil {
		achieved = *rec.AchievedMass
	}
	var warnings []string
	for _, d := range rec.Diagnostics {
		if d.Severity == prior.SeverityWarning {
			warnings = append(warnings, d.Message)
		}
	}
	return append(row, rec.TargetMass, string(rec.Status), achieved, FormatParams(prior.Assignment(rec.Params)),
		rec.Jacobian, rec.Iterations, strings.Join(warnings, " "), errorText(item.Err))
}

// FormatParams renders an assignment in the same "name=value" form ParseParams reads
func FormatParams(params prior.Assignment) string {
	parts := make([]string, len(params))
	for i, p := range params {
		parts[i] = fmt.Sprintf("%s=%.6g", p.Name, p.Value)
	}
	return strings.Join(parts, ", ")
}

func errorText(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
