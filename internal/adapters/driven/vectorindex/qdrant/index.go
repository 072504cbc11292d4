// Package qdrant provides a vector index adapter for a Qdrant collection,
// spoken over its REST API.
package qdrant

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/notesrag/internal/adapters/driven/httpx"
	"github.com/custodia-labs/notesrag/internal/core/domain"
	"github.com/custodia-labs/notesrag/internal/core/ports/driven"
)

// Ensure Index implements the interfaces.
var (
	_ driven.VectorIndex   = (*Index)(nil)
	_ driven.Resettable    = (*Index)(nil)
	_ driven.SourceRemover = (*Index)(nil)
)

// Default configuration values.
const (
	DefaultTimeout = 15 * time.Second

	// PointsPerRequest bounds one upsert call.
	PointsPerRequest = 64
)

// Payload keys.
const (
	payloadRecordID = "record_id"
	payloadText     = "text"
	payloadSource   = "source"
	payloadCategory = "category"
)

// pointNamespace derives stable point UUIDs from record ids.
var pointNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("notesrag/qdrant"))

// Config holds configuration for the Qdrant index.
type Config struct {
	// URL is the Qdrant base URL (required).
	URL string

	// APIKey is sent as the api-key header when set.
	APIKey string

	// Collection is the collection name (required).
	Collection string

	// Dimensions is the vector size of the collection (required).
	Dimensions int

	// Timeout is the request timeout (default: 15s).
	Timeout time.Duration
}

// Index stores records as points of one Qdrant collection.
type Index struct {
	client     *http.Client
	baseURL    string
	apiKey     string
	collection string
	dims       int
}

type point struct {
	ID      string         `json:"id"`
	Vector  []float32      `json:"vector"`
	Payload map[string]any `json:"payload"`
}

type upsertRequest struct {
	Points []point `json:"points"`
}

type matchAny struct {
	Any []string `json:"any"`
}

type fieldCondition struct {
	Key   string   `json:"key"`
	Match matchAny `json:"match"`
}

type filter struct {
	Must []fieldCondition `json:"must"`
}

type deleteRequest struct {
	Filter filter `json:"filter"`
}

type searchRequest struct {
	Vector      []float32 `json:"vector"`
	Limit       int       `json:"limit"`
	WithPayload bool      `json:"with_payload"`
	Filter      *filter   `json:"filter,omitempty"`
}

type searchResponse struct {
	Result []struct {
		Score   float64        `json:"score"`
		Payload map[string]any `json:"payload"`
	} `json:"result"`
}

type countResponse struct {
	Result struct {
		Count int `json:"count"`
	} `json:"result"`
}

type collectionResponse struct {
	Result struct {
		Config struct {
			Params struct {
				Vectors struct {
					Size int `json:"size"`
				} `json:"vectors"`
			} `json:"params"`
		} `json:"config"`
	} `json:"result"`
}

// New connects to Qdrant and creates the collection when it is missing.
// An existing collection with another vector size is rejected.
func New(ctx context.Context, cfg Config) (*Index, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("%w: qdrant url is required", domain.ErrInvalidInput)
	}
	if cfg.Collection == "" {
		return nil, fmt.Errorf("%w: qdrant collection is required", domain.ErrInvalidInput)
	}
	if cfg.Dimensions <= 0 {
		return nil, fmt.Errorf("%w: dimensions must be positive", domain.ErrInvalidInput)
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}

	idx := &Index{
		client: &http.Client{
			Timeout: cfg.Timeout,
		},
		baseURL:    strings.TrimRight(cfg.URL, "/"),
		apiKey:     cfg.APIKey,
		collection: cfg.Collection,
		dims:       cfg.Dimensions,
	}

	if err := idx.ensureCollection(ctx); err != nil {
		return nil, err
	}
	return idx, nil
}

// PointID returns the Qdrant point id used for a record id.
func PointID(recordID string) string {
	return uuid.NewSHA1(pointNamespace, []byte(recordID)).String()
}

func (i *Index) ensureCollection(ctx context.Context) error {
	status, body, err := i.do(ctx, http.MethodGet, i.collectionPath(""), nil)
	if err != nil {
		return err
	}

	switch status {
	case http.StatusOK:
		var info collectionResponse
		if err := json.Unmarshal(body, &info); err != nil {
			return fmt.Errorf("qdrant: decode collection: %w", err)
		}
		if size := info.Result.Config.Params.Vectors.Size; size != 0 && size != i.dims {
			return fmt.Errorf("%w: collection %s has %d dimensions, embedder has %d",
				domain.ErrDimensionMismatch, i.collection, size, i.dims)
		}
		return nil
	case http.StatusNotFound:
		return i.createCollection(ctx)
	default:
		return httpx.StatusError("qdrant", status, body)
	}
}

func (i *Index) createCollection(ctx context.Context) error {
	reqBody := map[string]any{
		"vectors": map[string]any{
			"size":     i.dims,
			"distance": "Cosine",
		},
	}
	status, body, err := i.do(ctx, http.MethodPut, i.collectionPath(""), reqBody)
	if err != nil {
		return err
	}
	if status != http.StatusOK {
		return httpx.StatusError("qdrant", status, body)
	}
	return nil
}

// Upsert writes points in requests of PointsPerRequest. On failure the
// points of earlier requests stay written and their count is returned with
// the error.
func (i *Index) Upsert(ctx context.Context, records []domain.VectorRecord) (int, error) {
	for _, r := range records {
		if r.ID == "" {
			return 0, fmt.Errorf("%w: record id is empty", domain.ErrInvalidInput)
		}
		if len(r.Embedding) != i.dims {
			return 0, fmt.Errorf("%w: record %s has %d dimensions, index has %d",
				domain.ErrDimensionMismatch, r.ID, len(r.Embedding), i.dims)
		}
	}

	stored := 0
	for start := 0; start < len(records); start += PointsPerRequest {
		end := min(start+PointsPerRequest, len(records))

		batch := records[start:end]
		req := upsertRequest{Points: make([]point, len(batch))}
		for k, r := range batch {
			req.Points[k] = point{
				ID:     PointID(r.ID),
				Vector: r.Embedding,
				Payload: map[string]any{
					payloadRecordID: r.ID,
					payloadText:     r.Metadata.Text,
					payloadSource:   r.Metadata.Source,
					payloadCategory: r.Metadata.Category,
				},
			}
		}

		status, body, err := i.do(ctx, http.MethodPut, i.collectionPath("/points?wait=true"), req)
		if err != nil {
			return stored, err
		}
		if status != http.StatusOK {
			return stored, httpx.StatusError("qdrant", status, body)
		}
		stored += len(batch)
	}
	return stored, nil
}

// Query runs a filtered similarity search.
func (i *Index) Query(ctx context.Context, vector []float32, topK int, f domain.CategoryFilter) ([]domain.QueryMatch, error) {
	if topK <= 0 || f.IsEmpty() {
		return nil, nil
	}
	if len(vector) != i.dims {
		return nil, fmt.Errorf("%w: query has %d dimensions, index has %d",
			domain.ErrDimensionMismatch, len(vector), i.dims)
	}

	req := searchRequest{
		Vector:      vector,
		Limit:       topK,
		WithPayload: true,
		Filter: &filter{Must: []fieldCondition{{
			Key:   payloadCategory,
			Match: matchAny{Any: f.Categories},
		}}},
	}

	status, body, err := i.do(ctx, http.MethodPost, i.collectionPath("/points/search"), req)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, httpx.StatusError("qdrant", status, body)
	}

	var resp searchResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("qdrant: decode search: %w", err)
	}

	matches := make([]domain.QueryMatch, 0, len(resp.Result))
	for _, r := range resp.Result {
		matches = append(matches, domain.QueryMatch{
			Score:    r.Score,
			Text:     payloadString(r.Payload, payloadText),
			Source:   payloadString(r.Payload, payloadSource),
			Category: payloadString(r.Payload, payloadCategory),
		})
	}
	return matches, nil
}

// Count returns the exact number of points in the collection.
func (i *Index) Count(ctx context.Context) (int, error) {
	status, body, err := i.do(ctx, http.MethodPost, i.collectionPath("/points/count"), map[string]any{"exact": true})
	if err != nil {
		return 0, err
	}
	if status != http.StatusOK {
		return 0, httpx.StatusError("qdrant", status, body)
	}

	var resp countResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return 0, fmt.Errorf("qdrant: decode count: %w", err)
	}
	return resp.Result.Count, nil
}

// Reset drops and recreates the collection.
func (i *Index) Reset(ctx context.Context) error {
	status, body, err := i.do(ctx, http.MethodDelete, i.collectionPath(""), nil)
	if err != nil {
		return err
	}
	if status != http.StatusOK && status != http.StatusNotFound {
		return httpx.StatusError("qdrant", status, body)
	}
	return i.createCollection(ctx)
}

// RemoveSource deletes the points of source in category.
func (i *Index) RemoveSource(ctx context.Context, category, source string) error {
	req := deleteRequest{Filter: filter{Must: []fieldCondition{
		{Key: payloadCategory, Match: matchAny{Any: []string{category}}},
		{Key: payloadSource, Match: matchAny{Any: []string{source}}},
	}}}
	status, body, err := i.do(ctx, http.MethodPost, i.collectionPath("/points/delete?wait=true"), req)
	if err != nil {
		return err
	}
	if status != http.StatusOK {
		return httpx.StatusError("qdrant", status, body)
	}
	return nil
}

// Dimensions returns the collection vector size.
func (i *Index) Dimensions() int {
	return i.dims
}

// Close releases resources.
func (i *Index) Close() error {
	// HTTP client doesn't need explicit cleanup
	return nil
}

func (i *Index) collectionPath(suffix string) string {
	return "/collections/" + url.PathEscape(i.collection) + suffix
}

// do sends a JSON request and returns the status and body.
func (i *Index) do(ctx context.Context, method, path string, reqBody any) (int, []byte, error) {
	var reader io.Reader = http.NoBody
	if reqBody != nil {
		jsonBody, err := json.Marshal(reqBody)
		if err != nil {
			return 0, nil, fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, i.baseURL+path, reader)
	if err != nil {
		return 0, nil, fmt.Errorf("create request: %w", err)
	}
	if reqBody != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if i.apiKey != "" {
		req.Header.Set("api-key", i.apiKey)
	}

	resp, err := i.client.Do(req)
	if err != nil {
		return 0, nil, httpx.SendError("qdrant", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, fmt.Errorf("read response: %w", err)
	}
	return resp.StatusCode, body, nil
}

func payloadString(payload map[string]any, key string) string {
	s, _ := payload[key].(string)
	return s
}
