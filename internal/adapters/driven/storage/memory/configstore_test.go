package memory

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/notesrag/internal/core/domain"
)

func TestConfigStore_LoadDefaults(t *testing.T) {
	store := NewConfigStore()

	settings, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, domain.IndexBackendKeyword, settings.Index.Backend)
	assert.Empty(t, store.Path())
}

func TestConfigStore_SaveAndLoad(t *testing.T) {
	store := NewConfigStore()

	s := domain.DefaultSettings()
	s.Chunking.Size = 800
	require.NoError(t, store.Save(s))

	// Mutating the caller's copy does not leak into the store.
	s.Chunking.Size = 1

	loaded, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, 800, loaded.Chunking.Size)
}

func TestConfigStore_LoadInvalid(t *testing.T) {
	store := NewConfigStoreWith(&domain.Settings{Index: domain.IndexSettings{Backend: "pinecone"}})

	_, err := store.Load()
	assert.ErrorIs(t, err, domain.ErrUnsupportedType)
}
