package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"

	"priorfit/domain/core"
)

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"mass", core.NewMassError(1, 0.01, 0.99), http.StatusBadRequest},
		{"unknown family", fmt.Errorf("%w: %q", core.ErrUnknownFamily, "Zipf"), http.StatusBadRequest},
		{"invalid input", InvalidInput("bad json"), http.StatusBadRequest},
		{"capability", core.NewCapabilityError("Histogram", "log-CDF"), http.StatusUnprocessableEntity},
		{"optimization", core.NewOptimizationError("max_evaluations", nil), http.StatusUnprocessableEntity},
		{"not found", core.NewNotFoundError("calibration", "abc"), http.StatusNotFound},
		{"wrapped not found", Wrap(core.NewNotFoundError("calibration", "abc"), "lookup"), http.StatusNotFound},
		{"plain", stderrors.New("disk on fire"), http.StatusInternalServerError},
		{"database", DatabaseError("insert failed", stderrors.New("conn reset")), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := HTTPStatus(tt.err); got != tt.want {
				t.Errorf("HTTPStatus(%v) = %d, want %d", tt.err, got, tt.want)
			}
		})
	}
}

func TestWrapKeepsCodeAndCause(t *testing.T) {
	base := core.NewOptimizationError("jacobian_failure", stderrors.New("boom"))
	err := Wrapf(base, "calibrating %s", "Normal")

	if GetCode(err) != CodeOptimizationFailed {
		t.Errorf("expected %s, got %s", CodeOptimizationFailed, GetCode(err))
	}
	if !stderrors.Is(err, core.ErrOptimizationFailed) {
		t.Error("wrapped error must still match the domain sentinel")
	}
	if Wrap(nil, "nothing") != nil {
		t.Error("wrapping nil must return nil")
	}

	recoded := WithCode(CodeInvalidInput, err)
	if GetCode(recoded) != CodeInvalidInput {
		t.Errorf("expected %s, got %s", CodeInvalidInput, GetCode(recoded))
	}
	if GetCode(stderrors.New("x")) != "UNKNOWN" {
		t.Error("unclassified errors report UNKNOWN")
	}
}
