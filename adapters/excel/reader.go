package excel

import (
	"encoding/csv"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"priorfit/app"

	"github.com/xuri/excelize/v2"
)

// DataReader reads calibration requests from Excel or CSV files
type DataReader struct {
	filePath string
	fileType string // "xlsx" or "csv"
}

// NewDataReader creates a new data reader that handles both Excel and CSV files
func NewDataReader(filePath string) *DataReader {
	ext := strings.ToLower(filepath.Ext(filePath))
	fileType := "xlsx"
	if ext == ".csv" {
		fileType = "csv"
	}
	return &DataReader{filePath: filePath, fileType: fileType}
}

// ReadRequests reads and parses every request row of a workbook or CSV file
func ReadRequests(filePath string) ([]app.CalibrationRequest, error) {
	data, err := NewDataReader(filePath).ReadData()
	if err != nil {
		return nil, err
	}
	return ParseRequests(data)
}

// ReadData reads the raw request sheet
func (r *DataReader) ReadData() (*ExcelData, error) {
	if _, err := os.Stat(r.filePath); os.IsNotExist(err) {
		return nil, fmt.Errorf("%s file not found: %s", strings.ToUpper(r.fileType), r.filePath)
	}

	switch r.fileType {
	case "csv":
		return r.readCSVData()
	case "xlsx":
		return r.readExcelData()
	default:
		return nil, fmt.Errorf("unsupported file type: %s", r.fileType)
	}
}

func (r *DataReader) readExcelData() (*ExcelData, error) {
	startTime := time.Now()
	f, err := excelize.OpenFile(r.filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open Excel file: %w", err)
	}
	defer f.Close()

	sheet := RequestSheet
	if idx, err := f.GetSheetIndex(sheet); err != nil || idx < 0 {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, fmt.Errorf("workbook %s has no sheets", r.filePath)
		}
		sheet = sheets[0]
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %s: %w", sheet, err)
	}
	log.Printf("[DataReader] Read %d rows from %s!%s in %.2fms", len(rows), filepath.Base(r.filePath), sheet,
		float64(time.Since(startTime).Nanoseconds())/1e6)

	return tabulate(rows)
}

func (r *DataReader) readCSVData() (*ExcelData, error) {
	file, err := os.Open(r.filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open CSV file: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	var rows [][]string
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read CSV: %w", err)
		}
		rows = append(rows, record)
	}
	return tabulate(rows)
}

// tabulate keys every data row by its normalized header; blank rows are skipped
func tabulate(rows [][]string) (*ExcelData, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("request sheet is empty")
	}

	headers := make([]string, len(rows[0]))
	for i, h := range rows[0] {
		headers[i] = strings.ToLower(strings.TrimSpace(h))
	}
	for _, required := range []string{ColFamily, ColLower, ColUpper, ColInitGuess} {
		if !contains(headers, required) {
			return nil, fmt.Errorf("request sheet is missing the %q column", required)
		}
	}

	data := &ExcelData{Headers: headers}
	for i, row := range rows[1:] {
		raw := make(RawRowData, len(headers))
		blank := true
		for j, h := range headers {
			if j < len(row) {
				raw[h] = strings.TrimSpace(row[j])
				if raw[h] != "" {
					blank = false
				}
			}
		}
		if blank {
			continue
		}
		data.Rows = append(data.Rows, raw)
		data.RowNums = append(data.RowNums, i+2)
	}
	return data, nil
}

// ParseRequests converts raw rows into calibration requests. A blank mass
// cell selects the service default.
func ParseRequests(data *ExcelData) ([]app.CalibrationRequest, error) {
	requests := make([]app.CalibrationRequest, 0, len(data.Rows))
	for i, row := range data.Rows {
		req, err := parseRequest(row)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", data.RowNums[i], err)
		}
		requests = append(requests, req)
	}
	return requests, nil
}

func parseRequest(row RawRowData) (app.CalibrationRequest, error) {
	req := app.CalibrationRequest{Family: row[ColFamily]}
	if req.Family == "" {
		return req, fmt.Errorf("family is empty")
	}

	var err error
	if req.Lower, err = parseFloat(row[ColLower]); err != nil {
		return req, fmt.Errorf("lower: %w", err)
	}
	if req.Upper, err = parseFloat(row[ColUpper]); err != nil {
		return req, fmt.Errorf("upper: %w", err)
	}
	if cell := row[ColMass]; cell != "" {
		mass, err := parseFloat(strings.TrimSuffix(cell, "%"))
		if err != nil {
			return req, fmt.Errorf("mass: %w", err)
		}
		if strings.HasSuffix(cell, "%") {
			mass /= 100
		}
		req.Mass = &mass
	}
	if req.InitGuess, err = ParseParams(row[ColInitGuess]); err != nil {
		return req, fmt.Errorf("init_guess: %w", err)
	}
	if req.FixedParams, err = ParseParams(row[ColFixedParams]); err != nil {
		return req, fmt.Errorf("fixed_params: %w", err)
	}
	return req, nil
}

// ParseParams parses "mu=5, sigma=3" (',' or ';' separated) into a map
func ParseParams(cell string) (map[string]float64, error) {
	out := map[string]float64{}
	for _, part := range strings.FieldsFunc(cell, func(r rune) bool { return r == ',' || r == ';' }) {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		name, value, ok := strings.Cut(part, "=")
		if !ok {
			return nil, fmt.Errorf("expected name=value, got %q", part)
		}
		name = strings.TrimSpace(name)
		if name == "" {
			return nil, fmt.Errorf("empty parameter name in %q", part)
		}
		v, err := parseFloat(value)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		if _, dup := out[name]; dup {
			return nil, fmt.Errorf("parameter %s given twice", name)
		}
		out[name] = v
	}
	return out, nil
}

func parseFloat(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("value is empty")
	}
	return strconv.ParseFloat(s, 64)
}

func contains(values []string, target string) bool {
	for _, v := range values {
		if v == target {
			return true
		}
	}
	return false
}
