package domain

import (
	"context"
	"errors"
	"fmt"
	"net"
)

// Domain errors represent pipeline failures callers can branch on.
// These are distinct from raw infrastructure errors, which adapters wrap.
var (
	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrMissingSession indicates a private operation was attempted without a session.
	ErrMissingSession = errors.New("session id is required")

	// ErrUnsupportedType indicates an unknown backend or provider name.
	ErrUnsupportedType = errors.New("unsupported type")

	// ErrExtractionEmpty indicates the extractor produced no usable text.
	// Ingestion treats this as a no-op, never as a failure.
	ErrExtractionEmpty = errors.New("extracted text is empty")

	// ErrBackendUnavailable indicates the vector index or embedder is not
	// configured or not reachable. It is never conflated with "no matches".
	ErrBackendUnavailable = errors.New("backend not connected")

	// ErrGeneratorUnavailable indicates no answer generator is configured.
	ErrGeneratorUnavailable = errors.New("answer generator unavailable")

	// ErrTimeout indicates an outbound call exceeded its time budget.
	ErrTimeout = errors.New("service timed out")

	// ErrRateLimited indicates the remote service rejected the call with a rate limit.
	ErrRateLimited = errors.New("rate limited")

	// ErrAuthInvalid indicates the remote service rejected the credentials.
	ErrAuthInvalid = errors.New("authentication invalid")

	// ErrDimensionMismatch indicates a vector does not match the index dimension.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")

	// ErrCorruptStore indicates persisted files disagree with each other.
	ErrCorruptStore = errors.New("corrupt vector store")
)

// EmbeddingError reports that a single input could not be embedded.
// Callers skip the item and continue with the rest of the batch.
type EmbeddingError struct {
	// Index is the position of the failed text in the batch.
	Index int
	Err   error
}

func (e *EmbeddingError) Error() string {
	return fmt.Sprintf("embed item %d: %v", e.Index, e.Err)
}

func (e *EmbeddingError) Unwrap() error {
	return e.Err
}

// UpsertBatchError reports that one upsert batch failed.
// Records committed by earlier batches are unaffected.
type UpsertBatchError struct {
	// Batch is the zero-based batch number.
	Batch int

	// Stored is how many records of this batch were committed before the failure.
	Stored int

	Err error
}

func (e *UpsertBatchError) Error() string {
	return fmt.Sprintf("upsert batch %d (stored %d): %v", e.Batch, e.Stored, e.Err)
}

func (e *UpsertBatchError) Unwrap() error {
	return e.Err
}

// TimeoutError wraps err with ErrTimeout when it represents an exceeded
// deadline or a network timeout. Other errors are returned unchanged.
func TimeoutError(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrTimeout) {
		return err
	}
	if IsTimeout(err) {
		return fmt.Errorf("%s: %w: %w", op, ErrTimeout, err)
	}
	return err
}

// IsTimeout reports whether err is a deadline or network timeout.
func IsTimeout(err error) bool {
	if errors.Is(err, ErrTimeout) || errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// UserMessage returns a short, specific message suitable for end users.
func UserMessage(err error) string {
	var embedErr *EmbeddingError
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrTimeout):
		return "Service busy, the request timed out. Please try again."
	case errors.Is(err, ErrRateLimited):
		return "Server busy, please wait a few seconds and try again."
	case errors.Is(err, ErrAuthInvalid):
		return "Invalid API key. Please check your configuration."
	case errors.Is(err, ErrBackendUnavailable):
		return BackendUnavailableMessage
	case errors.Is(err, ErrGeneratorUnavailable):
		return "Answer generation is not configured."
	case errors.Is(err, ErrMissingSession):
		return "A session id is required for private notes."
	case errors.Is(err, ErrDimensionMismatch):
		return "The embedding model does not match the stored index."
	case errors.Is(err, ErrCorruptStore):
		return "The local notes store is corrupt. Reset it and re-upload your notes."
	case errors.As(err, &embedErr):
		return "Some notes could not be processed."
	default:
		return "Something went wrong. Please try again."
	}
}
