package mcp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewServer(t *testing.T) {
	t.Run("nil ports returns error", func(t *testing.T) {
		server, err := NewServer(nil)
		assert.Nil(t, server)
		assert.ErrorIs(t, err, ErrMissingQueryService)
	})

	t.Run("nil query service returns error", func(t *testing.T) {
		ports := &Ports{}
		server, err := NewServer(ports)
		require.Error(t, err)
		assert.Nil(t, server)
		assert.ErrorIs(t, err, ErrMissingQueryService)
	})

	t.Run("valid ports creates server", func(t *testing.T) {
		ports := &Ports{
			Query: &mockQueryService{},
		}
		server, err := NewServer(ports)
		require.NoError(t, err)
		assert.NotNil(t, server)
	})
}

func TestPorts_Validate(t *testing.T) {
	t.Run("nil query service returns error", func(t *testing.T) {
		ports := &Ports{}
		err := ports.Validate()
		assert.ErrorIs(t, err, ErrMissingQueryService)
	})

	t.Run("query only is valid", func(t *testing.T) {
		ports := &Ports{
			Query: &mockQueryService{},
		}
		assert.NoError(t, ports.Validate())
	})

	t.Run("all ports is valid", func(t *testing.T) {
		ports := &Ports{
			Query:  &mockQueryService{},
			Ingest: &mockIngestService{},
			Answer: &mockAnswerService{},
		}
		assert.NoError(t, ports.Validate())
	})
}

func TestInstructions(t *testing.T) {
	t.Run("query only", func(t *testing.T) {
		got := instructions(&Ports{Query: &mockQueryService{}})
		assert.Contains(t, got, "query_notes")
		assert.Contains(t, got, statusURI)
		assert.NotContains(t, got, "ask_notes")
		assert.NotContains(t, got, "ingest_notes")
	})

	t.Run("all tools", func(t *testing.T) {
		got := instructions(&Ports{
			Query:  &mockQueryService{},
			Ingest: &mockIngestService{},
			Answer: &mockAnswerService{},
		})
		assert.Contains(t, got, "ask_notes")
		assert.Contains(t, got, "ingest_notes")
	})
}
