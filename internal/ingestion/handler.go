package ingestion

import (
	"bytes"
	"errors"
	"io"
	"log/slog"
	"net/http"

	httperr "github.com/aevon-lab/salescope/internal/core/errors"
	"github.com/aevon-lab/salescope/internal/core/sales"
	"github.com/gin-gonic/gin"
)

const (
	msgReadBodyFailed = "Failed to read request body"
	msgPersistFailed  = "Failed to persist sales records"
	msgEmptyUpload    = "Upload contains no sales records"
)

// ingestionError carries the structured HTTP error shape from a helper back to the orchestrator.
// Helpers return this instead of writing to gin.Context directly, keeping them decoupled from HTTP.
type ingestionError struct {
	statusCode int
	errorType  string
	message    string
	details    interface{}
}

func (e *ingestionError) Error() string {
	return e.message
}

// ImportHandler handles HTTP POST uploads of delimited sales data.
// The whole upload is stored as one batch or rejected.
func (s *Service) ImportHandler(c *gin.Context) {
	body, ierr := s.readBody(c)
	if ierr != nil {
		writeError(c, ierr)
		return
	}

	records, ierr := s.decodeRecords(c, body)
	if ierr != nil {
		writeError(c, ierr)
		return
	}

	batchID, ierr := s.persistRecords(c, records)
	if ierr != nil {
		writeError(c, ierr)
		return
	}

	slog.Info("[Ingestion] Imported sales batch",
		"batch_id", batchID,
		"records", len(records),
		"payload_size", len(body))

	if s.onImport != nil {
		s.onImport()
	}

	c.JSON(http.StatusAccepted, gin.H{
		"status":   "accepted",
		"batch_id": batchID,
		"records":  len(records),
	})
}

// readBody reads the request body up to the configured limit.
func (s *Service) readBody(c *gin.Context) ([]byte, *ingestionError) {
	maxBytes := int64(s.maxBodySizeBytes)
	limitedBody := io.LimitReader(c.Request.Body, maxBytes+1) // +1 to detect oversized requests

	body, err := io.ReadAll(limitedBody)
	if err != nil {
		slog.Error("[Ingestion] Failed to read request body", "error", err)
		return nil, &ingestionError{
			statusCode: http.StatusInternalServerError,
			errorType:  httperr.HttpInternalError,
			message:    msgReadBodyFailed,
		}
	}

	if int64(len(body)) > maxBytes {
		slog.Warn("[Ingestion] Request body exceeds maximum size", "size", len(body), "max", maxBytes)
		return nil, &ingestionError{
			statusCode: http.StatusRequestEntityTooLarge,
			errorType:  httperr.HttpPayloadTooLargeError,
			message:    "Request body exceeds maximum allowed size",
			details: map[string]interface{}{
				"max_size_mb": maxBytes / (1024 * 1024),
			},
		}
	}
	return body, nil
}

// decodeRecords parses the upload, mapping decode failures to 400 responses.
func (s *Service) decodeRecords(c *gin.Context, body []byte) ([]sales.Record, *ingestionError) {
	records, err := s.loader.Decode(c.Request.Context(), bytes.NewReader(body))
	if err != nil {
		slog.Warn("[Ingestion] Rejected upload", "error", err, "payload_size", len(body))

		ierr := &ingestionError{
			statusCode: http.StatusBadRequest,
			errorType:  httperr.HttpInvalidCSVError,
			message:    err.Error(),
		}
		var rowErr *RowError
		if errors.As(err, &rowErr) {
			ierr.details = map[string]interface{}{
				"line":   rowErr.Line,
				"column": rowErr.Column,
			}
		}
		return nil, ierr
	}

	if len(records) == 0 {
		return nil, &ingestionError{
			statusCode: http.StatusBadRequest,
			errorType:  httperr.HttpEmptyUploadError,
			message:    msgEmptyUpload,
		}
	}
	return records, nil
}

// persistRecords saves the batch to the backing store.
func (s *Service) persistRecords(c *gin.Context, records []sales.Record) (string, *ingestionError) {
	batchID, err := s.store.SaveRecords(c.Request.Context(), records)
	if err != nil {
		slog.Error("[Ingestion] Failed to persist sales records", "error", err, "records", len(records))
		return "", &ingestionError{
			statusCode: http.StatusInternalServerError,
			errorType:  httperr.HttpInternalError,
			message:    msgPersistFailed,
		}
	}
	return batchID, nil
}

// writeError serializes an ingestionError as the JSON HTTP response.
func writeError(c *gin.Context, err *ingestionError) {
	c.JSON(err.statusCode, httperr.ErrorResponse{
		ErrorType: err.errorType,
		Message:   err.message,
		Details:   err.details,
	})
}
