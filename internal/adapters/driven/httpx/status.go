// Package httpx holds helpers shared by the HTTP-based adapters.
package httpx

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/custodia-labs/notesrag/internal/core/domain"
)

// maxBodyInError caps how much of a response body is quoted in errors.
const maxBodyInError = 512

// StatusError converts a non-2xx response into an error. Rate limits and
// rejected credentials map to the matching domain sentinels.
func StatusError(provider string, status int, body []byte) error {
	msg := strings.TrimSpace(string(body))
	if len(msg) > maxBodyInError {
		msg = msg[:maxBodyInError] + "..."
	}

	switch status {
	case http.StatusTooManyRequests:
		return fmt.Errorf("%s: %w (status %d): %s", provider, domain.ErrRateLimited, status, msg)
	case http.StatusUnauthorized, http.StatusForbidden:
		return fmt.Errorf("%s: %w (status %d): %s", provider, domain.ErrAuthInvalid, status, msg)
	case http.StatusGatewayTimeout, http.StatusRequestTimeout:
		return fmt.Errorf("%s: %w (status %d): %s", provider, domain.ErrTimeout, status, msg)
	default:
		return fmt.Errorf("%s error (status %d): %s", provider, status, msg)
	}
}

// SendError classifies a transport failure, marking timeouts.
func SendError(provider string, err error) error {
	return domain.TimeoutError(provider+": send request", fmt.Errorf("%s: send request: %w", provider, err))
}
