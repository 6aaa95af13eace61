package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"priorfit/adapters/distributions"
	"priorfit/adapters/memory"
	"priorfit/app"
	"priorfit/internal"
	"priorfit/internal/errors"
	"priorfit/models"
)

func newTestRouter(settings app.CalibrationSettings) *gin.Engine {
	gin.SetMode(gin.TestMode)
	logger := internal.NewDiscardLogger()
	calibrations := app.NewCalibrationService(distributions.Default(), memory.NewCalibrationRepository(), settings, logger)
	batches := app.NewBatchService(calibrations, 2, logger)
	return NewRouter(NewCalibrationHandler(calibrations, batches, logger), logger)
}

func do(t *testing.T, router *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewReader([]byte(body)))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

const normalBody = `{"family": "Normal", "lower": 0, "upper": 10, "mass": 0.95, "init_guess": {"mu": 5, "sigma": 3}}`

func TestCalibrateAndFetch(t *testing.T) {
	router := newTestRouter(app.DefaultCalibrationSettings())

	w := do(t, router, http.MethodPost, "/api/v1/calibrations", normalBody)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var rec models.CalibrationRecord
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &rec))
	assert.Equal(t, models.CalibrationSucceeded, rec.Status)
	sigma, ok := rec.Params.Get("sigma")
	require.True(t, ok)
	assert.InDelta(t, 2.551, sigma, 1e-3)

	w = do(t, router, http.MethodGet, "/api/v1/calibrations/"+rec.ID, "")
	require.Equal(t, http.StatusOK, w.Code)

	w = do(t, router, http.MethodGet, "/api/v1/calibrations?limit=5", "")
	require.Equal(t, http.StatusOK, w.Code)
	var list struct {
		Count int `json:"count"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	assert.Equal(t, 1, list.Count)
}

func TestCalibrateErrorStatuses(t *testing.T) {
	strict := app.DefaultCalibrationSettings()
	strict.Solver.MaxEvaluations = 1

	tests := []struct {
		name     string
		settings app.CalibrationSettings
		body     string
		status   int
		code     string
	}{
		{"malformed json", app.DefaultCalibrationSettings(), `{"family":`, http.StatusBadRequest, errors.CodeInvalidInput},
		{"mass out of range", app.DefaultCalibrationSettings(),
			`{"family": "Normal", "lower": 0, "upper": 10, "mass": 1.0, "init_guess": {"mu": 5, "sigma": 3}}`,
			http.StatusBadRequest, errors.CodePrecondition},
		{"unknown family", app.DefaultCalibrationSettings(),
			`{"family": "Zipf", "lower": 0, "upper": 10, "init_guess": {"s": 1}}`,
			http.StatusBadRequest, errors.CodeUnknownFamily},
		{"optimization failure", strict, normalBody, http.StatusUnprocessableEntity, errors.CodeOptimizationFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(t, newTestRouter(tt.settings), http.MethodPost, "/api/v1/calibrations", tt.body)
			assert.Equal(t, tt.status, w.Code, w.Body.String())

			var body map[string]interface{}
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, tt.code, body["code"])
		})
	}
}

func TestGetCalibrationErrors(t *testing.T) {
	router := newTestRouter(app.DefaultCalibrationSettings())

	w := do(t, router, http.MethodGet, "/api/v1/calibrations/not-a-uuid", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, router, http.MethodGet, "/api/v1/calibrations/0190a3b2-7c4d-7e5f-8a9b-0c1d2e3f4a5b", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestFamiliesAndHealth(t *testing.T) {
	router := newTestRouter(app.DefaultCalibrationSettings())

	w := do(t, router, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, w.Code)

	w = do(t, router, http.MethodGet, "/api/v1/families", "")
	require.Equal(t, http.StatusOK, w.Code)
	var body struct {
		Families []app.FamilyDescription `json:"families"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Len(t, body.Families, 10)
}

const batchBody = `{"requests": [
	{"family": "Normal", "lower": 0, "upper": 10, "init_guess": {"mu": 5, "sigma": 3}},
	{"family": "Zipf", "lower": 0, "upper": 1, "init_guess": {"s": 1}}
]}`

func TestRunBatch(t *testing.T) {
	router := newTestRouter(app.DefaultCalibrationSettings())

	w := do(t, router, http.MethodPost, "/api/v1/batches", batchBody)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var body struct {
		BatchID string `json:"batch_id"`
		Summary struct {
			Succeeded int `json:"succeeded"`
			Failed    int `json:"failed"`
		} `json:"summary"`
		Items []struct {
			Row   int    `json:"row"`
			Error string `json:"error"`
			Code  string `json:"code"`
		} `json:"items"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.NotEmpty(t, body.BatchID)
	assert.Equal(t, 1, body.Summary.Succeeded)
	assert.Equal(t, 1, body.Summary.Failed)
	require.Len(t, body.Items, 2)
	assert.Empty(t, body.Items[0].Error)
	assert.Equal(t, errors.CodeUnknownFamily, body.Items[1].Code)
}

func TestRunBatchFormats(t *testing.T) {
	router := newTestRouter(app.DefaultCalibrationSettings())

	w := do(t, router, http.MethodPost, "/api/v1/batches?format=markdown", batchBody)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.HasPrefix(w.Body.String(), "# Prior calibration batch"))

	w = do(t, router, http.MethodPost, "/api/v1/batches?format=html", batchBody)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "<table>")

	w = do(t, router, http.MethodPost, "/api/v1/batches?format=xlsx", batchBody)
	require.Equal(t, http.StatusOK, w.Code)
	f, err := excelize.OpenReader(w.Body)
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows("Results")
	require.NoError(t, err)
	assert.Len(t, rows, 3)

	w = do(t, router, http.MethodPost, "/api/v1/batches?format=pdf", batchBody)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, router, http.MethodPost, "/api/v1/batches", `{"requests": []}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
