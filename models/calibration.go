package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"priorfit/domain/prior"
)

// CalibrationStatus is the terminal state of a calibration run
type CalibrationStatus string

const (
	CalibrationSucceeded CalibrationStatus = "succeeded" // solved, possibly with warnings
	CalibrationFailed    CalibrationStatus = "failed"
)

// JSONBAssignment stores an ordered parameter assignment in a JSONB column
type JSONBAssignment prior.Assignment

// Value implements driver.Valuer interface
func (j JSONBAssignment) Value() (driver.Value, error) {
	if j == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(prior.Assignment(j))
}

// Scan implements sql.Scanner interface
func (j *JSONBAssignment) Scan(value interface{}) error {
	var out prior.Assignment
	if err := scanJSONB(value, &out); err != nil {
		return err
	}
	*j = JSONBAssignment(out)
	return nil
}

// Get returns the value of the named parameter
func (j JSONBAssignment) Get(name string) (float64, bool) {
	return prior.Assignment(j).Get(name)
}

// JSONBDiagnostics stores advisory diagnostics in a JSONB column
type JSONBDiagnostics []prior.Diagnostic

// Value implements driver.Valuer interface
func (j JSONBDiagnostics) Value() (driver.Value, error) {
	if j == nil {
		return []byte("[]"), nil
	}
	return json.Marshal([]prior.Diagnostic(j))
}

// Scan implements sql.Scanner interface
func (j *JSONBDiagnostics) Scan(value interface{}) error {
	var out []prior.Diagnostic
	if err := scanJSONB(value, &out); err != nil {
		return err
	}
	*j = JSONBDiagnostics(out)
	return nil
}

func scanJSONB(value interface{}, dst interface{}) error {
	var bytes []byte
	switch v := value.(type) {
	case nil:
		return nil
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return fmt.Errorf("unsupported JSONB source type %T", value)
	}
	if len(bytes) == 0 {
		return nil
	}
	return json.Unmarshal(bytes, dst)
}

// CalibrationRecord is one persisted calibration request and its outcome
type CalibrationRecord struct {
	ID           string            `json:"id" db:"id"`
	BatchID      *string           `json:"batch_id,omitempty" db:"batch_id"`
	RequestHash  string            `json:"request_hash" db:"request_hash"`
	Family       string            `json:"family" db:"family"`
	Lower        float64           `json:"lower" db:"lower_bound"`
	Upper        float64           `json:"upper" db:"upper_bound"`
	TargetMass   float64           `json:"target_mass" db:"target_mass"`
	InitGuess    JSONBAssignment   `json:"init_guess" db:"init_guess"`
	FixedParams  JSONBAssignment   `json:"fixed_params" db:"fixed_params"`
	Status       CalibrationStatus `json:"status" db:"status"`
	Params       JSONBAssignment   `json:"params,omitempty" db:"params"`
	AchievedMass *float64          `json:"achieved_mass,omitempty" db:"achieved_mass"`
	Jacobian     string            `json:"jacobian,omitempty" db:"jacobian"`
	Iterations   int               `json:"iterations" db:"iterations"`
	Evaluations  int               `json:"evaluations" db:"evaluations"`
	Diagnostics  JSONBDiagnostics  `json:"diagnostics,omitempty" db:"diagnostics"`
	Error        string            `json:"error,omitempty" db:"error"`
	DurationMS   float64           `json:"duration_ms" db:"duration_ms"`
	CreatedAt    time.Time         `json:"created_at" db:"created_at"`

	// Cached marks a record returned from history instead of a fresh solve
	Cached bool `json:"cached,omitempty" db:"-"`
}

// Succeeded reports whether the record holds a solved parameter set
func (r *CalibrationRecord) Succeeded() bool {
	return r.Status == CalibrationSucceeded
}

// Result reconstructs the calibration result of a successful record
func (r *CalibrationRecord) Result() (*prior.Result, error) {
	if !r.Succeeded() {
		return nil, fmt.Errorf("calibration %s did not succeed: %s", r.ID, r.Error)
	}
	achieved := 0.0
	if r.AchievedMass != nil {
		achieved = *r.AchievedMass
	}
	return &prior.Result{
		Family:       r.Family,
		Interval:     prior.Interval{Lower: r.Lower, Upper: r.Upper},
		TargetMass:   r.TargetMass,
		AchievedMass: achieved,
		Params:       prior.Assignment(r.Params),
		Free:         prior.Assignment(r.InitGuess).Names(),
		Jacobian:     prior.JacobianKind(r.Jacobian),
		Solver: prior.SolverReport{
			Iterations:  r.Iterations,
			Evaluations: r.Evaluations,
		},
		Diagnostics: []prior.Diagnostic(r.Diagnostics),
	}, nil
}
