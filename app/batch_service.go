package app

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"priorfit/domain/core"
	"priorfit/domain/prior"
	"priorfit/internal"
	"priorfit/models"
)

// BatchItem is the outcome of one row of a batch. Record is nil when the
// request failed before a calibration was attempted.
type BatchItem struct {
	Row     int
	Request CalibrationRequest
	Record  *models.CalibrationRecord
	Err     error
}

// Failed reports whether the row produced no usable parameters
func (it BatchItem) Failed() bool {
	return it.Err != nil
}

// Warned reports whether the row solved but carries a warning diagnostic
func (it BatchItem) Warned() bool {
	if it.Err != nil || it.Record == nil {
		return false
	}
	for _, d := range it.Record.Diagnostics {
		if d.Severity == prior.SeverityWarning {
			return true
		}
	}
	return false
}

// BatchResult collects every row of a batch in input order
type BatchResult struct {
	ID        core.BatchID
	Items     []BatchItem
	Succeeded int
	Failed    int
	Warned    int
	Duration  time.Duration
}

// BatchService runs many calibrations with bounded concurrency. A failing row
// never aborts the batch.
type BatchService struct {
	calibrations *CalibrationService
	workers      int64
	timeout      time.Duration
	logger       *internal.Logger
}

// NewBatchService creates a batch service running at most workers calibrations at once
func NewBatchService(calibrations *CalibrationService, workers int, logger *internal.Logger) *BatchService {
	if workers < 1 {
		workers = 1
	}
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &BatchService{
		calibrations: calibrations,
		workers:      int64(workers),
		logger:       logger,
	}
}

// WithTimeout bounds the wall-clock time of each Run; zero means no bound
func (b *BatchService) WithTimeout(timeout time.Duration) *BatchService {
	b.timeout = timeout
	return b
}

// Run calibrates every request. Rows not yet started when ctx is cancelled
// or the timeout expires fail with the context error.
func (b *BatchService) Run(ctx context.Context, requests []CalibrationRequest) *BatchResult {
	if b.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, b.timeout)
		defer cancel()
	}

	start := time.Now()
	batchID := core.NewBatchID()
	result := &BatchResult{
		ID:    batchID,
		Items: make([]BatchItem, len(requests)),
	}

	sem := semaphore.NewWeighted(b.workers)
	var wg sync.WaitGroup

	for i, req := range requests {
		result.Items[i] = BatchItem{Row: i + 1, Request: req}

		if err := sem.Acquire(ctx, 1); err != nil {
			result.Items[i].Err = err
			continue
		}
		wg.Add(1)
		go func(item *BatchItem) {
			defer wg.Done()
			defer sem.Release(1)
			item.Record, item.Err = b.calibrations.calibrate(ctx, item.Request, &batchID)
		}(&result.Items[i])
	}
	wg.Wait()

	for _, item := range result.Items {
		switch {
		case item.Failed():
			result.Failed++
			b.logger.Debug("batch %s row %d failed: %v", batchID, item.Row, item.Err)
		default:
			result.Succeeded++
			if item.Warned() {
				result.Warned++
			}
		}
	}
	result.Duration = time.Since(start)

	b.logger.Info("batch %s: %d rows, %d succeeded (%d with warnings), %d failed in %s",
		batchID, len(requests), result.Succeeded, result.Warned, result.Failed, result.Duration.Round(time.Millisecond))
	return result
}
