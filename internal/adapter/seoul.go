package adapter

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/amishk599/jobflow/internal/model"
)

const (
	SeoulBaseURL  = "http://openapi.seoul.go.kr:8088"
	seoulService  = "GetJobInfo"
	seoulRowsPath = "GetJobInfo.row"
)

var _ model.ChunkFetcher = (*SeoulFetcher)(nil)

// SeoulFetcher reads the Seoul open data GetJobInfo service. The range is
// addressed by inclusive 1-based start and end indexes in the path.
type SeoulFetcher struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// NewSeoulFetcher creates a fetcher; an empty baseURL uses SeoulBaseURL.
func NewSeoulFetcher(baseURL, apiKey string, client *http.Client) *SeoulFetcher {
	if baseURL == "" {
		baseURL = SeoulBaseURL
	}
	return &SeoulFetcher{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		client:  client,
	}
}

// FetchChunk requests rows start..start+size-1.
func (a *SeoulFetcher) FetchChunk(ctx context.Context, start, size int) (model.Chunk, error) {
	if start < 1 || size < 1 {
		return model.Chunk{}, fmt.Errorf("seoul fetch: invalid range start=%d size=%d", start, size)
	}
	end := start + size - 1
	u := fmt.Sprintf("%s/%s/json/%s/%d/%d/", a.baseURL, url.PathEscape(a.apiKey), seoulService, start, end)

	body, err := getJSON(ctx, a.client, u)
	if err != nil {
		return model.Chunk{}, fmt.Errorf("seoul fetch %d-%d: %w", start, end, err)
	}

	records := ensureList(extractByPath(body, seoulRowsPath))
	return model.Chunk{
		Start:   start,
		Next:    start + len(records),
		Records: records,
	}, nil
}
