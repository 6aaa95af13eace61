package excel

// RawRowData represents a row of raw sheet data keyed by normalized header
type RawRowData map[string]string

// ExcelData represents a complete request sheet
type ExcelData struct {
	Headers []string     // Column headers, normalized
	Rows    []RawRowData // Data rows
	RowNums []int        // 1-based sheet row of each entry in Rows
}

// Request sheet columns
const (
	ColFamily      = "family"
	ColLower       = "lower"
	ColUpper       = "upper"
	ColMass        = "mass"
	ColInitGuess   = "init_guess"
	ColFixedParams = "fixed_params"
)

// RequestSheet is the preferred sheet name in request workbooks; the first
// sheet is used when it is absent
const RequestSheet = "Calibrations"

// Result workbook sheets
const (
	ResultSheet  = "Results"
	SummarySheet = "Summary"
)
