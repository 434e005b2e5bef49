package errors

const (
	HttpInternalError           = "internal_error"
	HttpInvalidParameterError   = "invalid_parameter"
	HttpDatasetUnavailableError = "dataset_unavailable"
	HttpNotFoundError           = "not_found"
	HttpInvalidCSVError         = "invalid_csv"
	HttpPayloadTooLargeError    = "payload_too_large"
	HttpEmptyUploadError        = "empty_upload"
)

// ErrorResponse is the error response body shared by every HTTP handler.
type ErrorResponse struct {
	ErrorType string      `json:"error_type"`
	Message   string      `json:"message"`
	Details   interface{} `json:"details,omitempty"`
}
