package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"priorfit/adapters/excel"
	"priorfit/adapters/report"
	"priorfit/app"
	"priorfit/domain/core"
	"priorfit/internal"
	"priorfit/internal/errors"
	"priorfit/models"
)

// CalibrationHandler handles calibration and batch requests
type CalibrationHandler struct {
	calibrations *app.CalibrationService
	batches      *app.BatchService
	logger       *internal.Logger
}

// NewCalibrationHandler creates a new calibration handler
func NewCalibrationHandler(calibrations *app.CalibrationService, batches *app.BatchService, logger *internal.Logger) *CalibrationHandler {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &CalibrationHandler{
		calibrations: calibrations,
		batches:      batches,
		logger:       logger,
	}
}

// BatchRequest is the body of POST /api/v1/batches
type BatchRequest struct {
	Requests []app.CalibrationRequest `json:"requests" binding:"required,min=1,dive"`
}

var batchFormats = map[string]bool{"json": true, "markdown": true, "html": true, "xlsx": true}

type batchItemResponse struct {
	Row         int                       `json:"row"`
	Family      string                    `json:"family"`
	Calibration *models.CalibrationRecord `json:"calibration,omitempty"`
	Error       string                    `json:"error,omitempty"`
	Code        string                    `json:"code,omitempty"`
}

// Calibrate runs one calibration
func (h *CalibrationHandler) Calibrate(c *gin.Context) {
	var req app.CalibrationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error(), "code": errors.CodeInvalidInput})
		return
	}

	record, err := h.calibrations.Calibrate(c.Request.Context(), req)
	if err != nil {
		h.respondError(c, err, record)
		return
	}

	c.JSON(http.StatusCreated, record)
}

// GetCalibration returns a stored calibration
func (h *CalibrationHandler) GetCalibration(c *gin.Context) {
	id, err := core.ParseCalibrationID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "code": errors.CodeInvalidInput})
		return
	}

	record, err := h.calibrations.Get(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err, nil)
		return
	}

	c.JSON(http.StatusOK, record)
}

// ListCalibrations returns recent calibrations, newest first
func (h *CalibrationHandler) ListCalibrations(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "50"))
	if err != nil || limit < 1 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer", "code": errors.CodeInvalidInput})
		return
	}

	records, err := h.calibrations.List(c.Request.Context(), limit)
	if err != nil {
		h.respondError(c, err, nil)
		return
	}

	c.JSON(http.StatusOK, gin.H{"calibrations": records, "count": len(records)})
}

// ListFamilies describes the supported distribution families
func (h *CalibrationHandler) ListFamilies(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"families": h.calibrations.Families()})
}

// RunBatch calibrates every request of the body. Row failures are reported
// per row; the response format follows ?format=json|markdown|html|xlsx.
func (h *CalibrationHandler) RunBatch(c *gin.Context) {
	var req BatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error(), "code": errors.CodeInvalidInput})
		return
	}

	format := c.DefaultQuery("format", "json")
	if !batchFormats[format] {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown format " + strconv.Quote(format), "code": errors.CodeInvalidInput})
		return
	}

	result := h.batches.Run(c.Request.Context(), req.Requests)

	switch format {
	case "json":
		summary, err := report.Summarize(result)
		if err != nil {
			h.respondError(c, err, nil)
			return
		}
		items := make([]batchItemResponse, len(result.Items))
		for i, item := range result.Items {
			items[i] = batchItemResponse{Row: item.Row, Family: item.Request.Family, Calibration: item.Record}
			if item.Err != nil {
				items[i].Error = item.Err.Error()
				items[i].Code = errors.GetCode(item.Err)
			}
		}
		c.JSON(http.StatusOK, gin.H{"batch_id": result.ID.String(), "summary": summary, "items": items})

	case "markdown":
		md, err := report.Markdown(result)
		if err != nil {
			h.respondError(c, err, nil)
			return
		}
		c.Data(http.StatusOK, "text/markdown; charset=utf-8", md)

	case "html":
		page, err := report.HTML(result)
		if err != nil {
			h.respondError(c, err, nil)
			return
		}
		c.Data(http.StatusOK, "text/html; charset=utf-8", page)

	case "xlsx":
		c.Header("Content-Disposition", `attachment; filename="batch-`+result.ID.String()+`.xlsx"`)
		c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		c.Status(http.StatusOK)
		if err := excel.WriteResults(c.Writer, result); err != nil {
			h.logger.Error("writing batch %s workbook: %v", result.ID, err)
		}
	}
}

// respondError answers with the status the error classifies to; a failed but
// recorded calibration is included in the body
func (h *CalibrationHandler) respondError(c *gin.Context, err error, record *models.CalibrationRecord) {
	status := errors.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error("%s %s: %v", c.Request.Method, c.Request.URL.Path, err)
	}

	body := gin.H{"error": err.Error(), "code": errors.GetCode(err)}
	if record != nil {
		body["calibration"] = record
	}
	c.JSON(status, body)
}
