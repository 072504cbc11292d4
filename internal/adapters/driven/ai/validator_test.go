package ai

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/notesrag/internal/core/domain"
)

// fakeOllama serves /api/tags and an /api/embed returning dims-long vectors.
func fakeOllama(t *testing.T, dims int) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/tags":
			_, _ = w.Write([]byte(`{"models":[]}`))
		case "/api/embed":
			vec := "["
			for i := 0; i < dims; i++ {
				if i > 0 {
					vec += ","
				}
				vec += "0.1"
			}
			_, _ = w.Write([]byte(`{"embeddings":[` + vec + `]}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestNewConfigValidator(t *testing.T) {
	assert.Equal(t, pingTimeout, NewConfigValidator().timeout)
	assert.Equal(t, time.Second, NewConfigValidator(WithValidationTimeout(time.Second)).timeout)
	assert.Equal(t, pingTimeout, NewConfigValidator(WithValidationTimeout(0)).timeout)
}

func TestConfigValidator_ValidateEmbedding_Unconfigured(t *testing.T) {
	v := NewConfigValidator()

	assert.NoError(t, v.ValidateEmbedding(nil))
	assert.NoError(t, v.ValidateEmbedding(&domain.EmbeddingSettings{Model: "nomic-embed-text"}))
}

func TestConfigValidator_ValidateEmbedding_Reachable(t *testing.T) {
	srv := fakeOllama(t, 4)

	err := NewConfigValidator().ValidateEmbedding(&domain.EmbeddingSettings{
		Provider: domain.AIProviderOllama,
		BaseURL:  srv.URL,
	})

	assert.NoError(t, err)
}

func TestConfigValidator_ValidateEmbedding_DimensionsMatch(t *testing.T) {
	srv := fakeOllama(t, 8)

	err := NewConfigValidator().ValidateEmbedding(&domain.EmbeddingSettings{
		Provider:   domain.AIProviderOllama,
		BaseURL:    srv.URL,
		Dimensions: 8,
	})

	assert.NoError(t, err)
}

func TestConfigValidator_ValidateEmbedding_DimensionMismatch(t *testing.T) {
	srv := fakeOllama(t, 4)

	err := NewConfigValidator().ValidateEmbedding(&domain.EmbeddingSettings{
		Provider:   domain.AIProviderOllama,
		BaseURL:    srv.URL,
		Dimensions: 768,
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrDimensionMismatch)
	assert.Contains(t, err.Error(), "returns 4 dimensions")
}

func TestConfigValidator_ValidateEmbedding_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	err := NewConfigValidator().ValidateEmbedding(&domain.EmbeddingSettings{
		Provider: domain.AIProviderOllama,
		BaseURL:  srv.URL,
	})

	assert.Error(t, err)
}

func TestConfigValidator_ValidateEmbedding_OpenAIRequiresKey(t *testing.T) {
	err := NewConfigValidator().ValidateEmbedding(&domain.EmbeddingSettings{
		Provider: domain.AIProviderOpenAI,
	})

	assert.Error(t, err)
}

func TestConfigValidator_ValidateLLM_Unconfigured(t *testing.T) {
	assert.NoError(t, NewConfigValidator().ValidateLLM(nil))
}

func TestConfigValidator_ValidateLLM_Reachable(t *testing.T) {
	srv := fakeOllama(t, 1)

	err := NewConfigValidator().ValidateLLM(&domain.GenerationSettings{
		Provider: domain.AIProviderOllama,
		BaseURL:  srv.URL,
	})

	assert.NoError(t, err)
}

func TestConfigValidator_ValidateLLM_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	err := NewConfigValidator().ValidateLLM(&domain.GenerationSettings{
		Provider: domain.AIProviderOllama,
		BaseURL:  srv.URL,
	})

	assert.Error(t, err)
}
