package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"priorfit/internal"
)

// NewRouter wires the calibration endpoints onto a gin engine
func NewRouter(handler *CalibrationHandler, logger *internal.Logger) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), requestLogger(logger))

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	v1 := router.Group("/api/v1")
	{
		v1.GET("/families", handler.ListFamilies)
		v1.POST("/calibrations", handler.Calibrate)
		v1.GET("/calibrations", handler.ListCalibrations)
		v1.GET("/calibrations/:id", handler.GetCalibration)
		v1.POST("/batches", handler.RunBatch)
	}

	return router
}

// requestLogger logs every request at debug level and server errors at error level
func requestLogger(logger *internal.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		if status >= http.StatusInternalServerError {
			logger.Error("[API] %s %s -> %d (%s)", c.Request.Method, c.Request.URL.Path, status, time.Since(start))
			return
		}
		logger.Debug("[API] %s %s -> %d (%s)", c.Request.Method, c.Request.URL.Path, status, time.Since(start))
	}
}
