package models

import (
	"testing"

	"priorfit/domain/prior"
)

func TestJSONBAssignment_RoundTrip(t *testing.T) {
	in := JSONBAssignment{prior.P("sigma", 2.5), prior.P("mu", 5)}

	value, err := in.Value()
	if err != nil {
		t.Fatalf("Value: %v", err)
	}

	var out JSONBAssignment
	if err := out.Scan(value); err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if len(out) != 2 || out[0].Name != "sigma" || out[1].Name != "mu" {
		t.Errorf("parameter order not preserved: %+v", out)
	}
}

func TestJSONBAssignment_Get(t *testing.T) {
	params := JSONBAssignment{prior.P("mu", 5), prior.P("sigma", 2.5)}

	if v, ok := params.Get("sigma"); !ok || v != 2.5 {
		t.Errorf("Get(sigma) = %v, %v", v, ok)
	}
	if _, ok := params.Get("nu"); ok {
		t.Error("Get(nu) should report a missing parameter")
	}
}

func TestJSONBAssignment_Scan(t *testing.T) {
	tests := []struct {
		name      string
		value     interface{}
		expectLen int
		expectErr bool
	}{
		{name: "nil", value: nil, expectLen: 0},
		{name: "empty bytes", value: []byte{}, expectLen: 0},
		{name: "string source", value: `[{"name":"mu","value":1}]`, expectLen: 1},
		{name: "unsupported type", value: 42, expectErr: true},
		{name: "malformed json", value: []byte(`{`), expectErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got JSONBAssignment
			err := got.Scan(tt.value)

			if tt.expectErr && err == nil {
				t.Errorf("Expected error for %s, got nil", tt.name)
			}
			if !tt.expectErr && err != nil {
				t.Errorf("Unexpected error for %s: %v", tt.name, err)
			}
			if !tt.expectErr && len(got) != tt.expectLen {
				t.Errorf("len = %d, want %d", len(got), tt.expectLen)
			}
		})
	}
}

func TestJSONBDiagnostics_NilValue(t *testing.T) {
	var d JSONBDiagnostics
	value, err := d.Value()
	if err != nil {
		t.Fatalf("Value: %v", err)
	}
	if string(value.([]byte)) != "[]" {
		t.Errorf("nil diagnostics stored as %s", value)
	}
}

func TestCalibrationRecord_Result(t *testing.T) {
	achieved := 0.95
	rec := &CalibrationRecord{
		ID:           "0190a3b2-7c4d-7e5f-8a9b-0c1d2e3f4a5b",
		Family:       "Normal",
		Lower:        0,
		Upper:        10,
		TargetMass:   0.95,
		InitGuess:    JSONBAssignment{prior.P("mu", 5), prior.P("sigma", 3)},
		Status:       CalibrationSucceeded,
		Params:       JSONBAssignment{prior.P("mu", 5), prior.P("sigma", 2.55)},
		AchievedMass: &achieved,
		Jacobian:     string(prior.JacobianAnalytic),
		Iterations:   4,
	}

	res, err := rec.Result()
	if err != nil {
		t.Fatalf("Result: %v", err)
	}
	if res.AchievedMass != achieved || res.Jacobian != prior.JacobianAnalytic {
		t.Errorf("unexpected result: %+v", res)
	}
	if len(res.Free) != 2 || res.Free[0] != "mu" {
		t.Errorf("free parameters = %v", res.Free)
	}
	if res.Interval.Upper != 10 || res.Solver.Iterations != 4 {
		t.Errorf("interval or solver report lost: %+v", res)
	}

	rec.Status = CalibrationFailed
	rec.Error = "optimization failed"
	if _, err := rec.Result(); err == nil {
		t.Error("expected an error for a failed record")
	}
}
