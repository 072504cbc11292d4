package httpx

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/custodia-labs/notesrag/internal/core/domain"
)

func TestStatusError(t *testing.T) {
	tests := []struct {
		status int
		errIs  error
	}{
		{http.StatusTooManyRequests, domain.ErrRateLimited},
		{http.StatusUnauthorized, domain.ErrAuthInvalid},
		{http.StatusForbidden, domain.ErrAuthInvalid},
		{http.StatusGatewayTimeout, domain.ErrTimeout},
	}

	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			err := StatusError("openai", tt.status, []byte("nope"))
			assert.ErrorIs(t, err, tt.errIs)
			assert.Contains(t, err.Error(), "nope")
		})
	}
}

func TestStatusError_Generic(t *testing.T) {
	err := StatusError("ollama", http.StatusInternalServerError, []byte(strings.Repeat("x", 2000)))

	assert.Contains(t, err.Error(), "status 500")
	assert.Less(t, len(err.Error()), 600)
	for _, sentinel := range []error{domain.ErrRateLimited, domain.ErrAuthInvalid, domain.ErrTimeout} {
		assert.False(t, errors.Is(err, sentinel))
	}
}

func TestSendError(t *testing.T) {
	assert.ErrorIs(t, SendError("qdrant", context.DeadlineExceeded), domain.ErrTimeout)
	assert.NotErrorIs(t, SendError("qdrant", errors.New("refused")), domain.ErrTimeout)
}
