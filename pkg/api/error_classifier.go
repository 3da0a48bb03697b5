package api

import (
	"context"
	"errors"
	"net/http"
)

// ErrorSeverity represents how the retry loop should treat an error
type ErrorSeverity int

const (
	ErrorSeverityRetryable ErrorSeverity = iota // transient, safe to repeat the read-only query
	ErrorSeverityFatal                          // retrying cannot help
)

// ErrorClassifier defines interface for error classification
type ErrorClassifier interface {
	ClassifyError(err error) ErrorSeverity
}

// StatusErrorClassifier classifies RemoteFetchErrors by HTTP status
type StatusErrorClassifier struct{}

// NewStatusErrorClassifier creates new error classifier
func NewStatusErrorClassifier() ErrorClassifier {
	return StatusErrorClassifier{}
}

// ClassifyError treats transport failures, 429 and 5xx as retryable.
// Other client errors, context errors and malformed responses are fatal.
func (StatusErrorClassifier) ClassifyError(err error) ErrorSeverity {
	if err == nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return ErrorSeverityFatal
	}

	var fetchErr *RemoteFetchError
	if !errors.As(err, &fetchErr) {
		return ErrorSeverityFatal
	}
	switch {
	case fetchErr.StatusCode == 0:
		if errors.Is(fetchErr.Err, errMalformedResponse) {
			return ErrorSeverityFatal
		}
		return ErrorSeverityRetryable
	case fetchErr.StatusCode == http.StatusTooManyRequests:
		return ErrorSeverityRetryable
	case fetchErr.StatusCode >= 500:
		return ErrorSeverityRetryable
	}
	return ErrorSeverityFatal
}
