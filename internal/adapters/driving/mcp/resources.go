package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const (
	// uriScheme is the custom URI scheme for notesrag resources.
	uriScheme = "notesrag://"

	statusURI = uriScheme + "status"
)

// StatusInfo is the body of the status resource.
type StatusInfo struct {
	Backend          string `json:"backend"`
	Connected        bool   `json:"connected"`
	Reason           string `json:"reason,omitempty"`
	EmbeddingModel   string `json:"embedding_model,omitempty"`
	GenerationModel  string `json:"generation_model,omitempty"`
	ChunkSize        int    `json:"chunk_size"`
	ResultLimit      int    `json:"result_limit"`
	AnswersAvailable bool   `json:"answers_available"`
}

// registerResources registers all resource handlers with the MCP server.
func (s *Server) registerResources() {
	s.server.AddResource(&mcp.Resource{
		URI:         statusURI,
		Name:        "status",
		Description: "Retrieval backend and model configuration",
		MIMEType:    "application/json",
	}, s.handleStatusResource)
}

// status summarises the configured backends.
func (s *Server) status() StatusInfo {
	info := StatusInfo{
		Connected:        s.ports.IndexReason == "",
		Reason:           s.ports.IndexReason,
		AnswersAvailable: s.ports.Answer != nil,
	}
	if cfg := s.ports.Settings; cfg != nil {
		info.Backend = string(cfg.Index.Backend)
		info.EmbeddingModel = cfg.Embedding.Model
		info.GenerationModel = cfg.Generation.Model
		info.ChunkSize = cfg.Chunking.Size
		info.ResultLimit = cfg.Retrieval.ResultLimit
	}
	return info
}

// handleStatusResource returns the backend status as JSON.
func (s *Server) handleStatusResource(
	_ context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	data, err := json.MarshalIndent(s.status(), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshalling status: %w", err)
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      req.Params.URI,
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}, nil
}
