package adapter

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/amishk599/jobflow/internal/model"
)

const (
	GyeonggiBaseURL  = "https://openapi.gg.go.kr/GGJOBABARECRUSTM"
	gyeonggiRowsPath = "GGJOBABARECRUSTM.1.row"
)

var _ model.ChunkFetcher = (*GyeonggiFetcher)(nil)

// GyeonggiFetcher reads the Gyeonggi GGJOBABARECRUSTM service, which pages by
// pIndex/pSize. Record offsets are mapped onto pages so the cursor stays a
// record index like every other source.
type GyeonggiFetcher struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// NewGyeonggiFetcher creates a fetcher; an empty baseURL uses GyeonggiBaseURL.
func NewGyeonggiFetcher(baseURL, apiKey string, client *http.Client) *GyeonggiFetcher {
	if baseURL == "" {
		baseURL = GyeonggiBaseURL
	}
	return &GyeonggiFetcher{
		baseURL: baseURL,
		apiKey:  apiKey,
		client:  client,
	}
}

// pageFor maps a 1-based record offset to a page index and the number of
// leading rows on that page that were already consumed.
func pageFor(start, size int) (page, skip int) {
	return (start-1)/size + 1, (start - 1) % size
}

// FetchChunk fetches the page containing start and returns the rows from
// start to the end of that page.
func (a *GyeonggiFetcher) FetchChunk(ctx context.Context, start, size int) (model.Chunk, error) {
	if start < 1 || size < 1 {
		return model.Chunk{}, fmt.Errorf("gyeonggi fetch: invalid range start=%d size=%d", start, size)
	}
	page, skip := pageFor(start, size)

	q := url.Values{}
	q.Set("KEY", a.apiKey)
	q.Set("Type", "json")
	q.Set("pIndex", strconv.Itoa(page))
	q.Set("pSize", strconv.Itoa(size))

	body, err := getJSON(ctx, a.client, a.baseURL+"?"+q.Encode())
	if err != nil {
		return model.Chunk{}, fmt.Errorf("gyeonggi fetch page %d: %w", page, err)
	}

	records := ensureList(extractByPath(body, gyeonggiRowsPath))
	if skip >= len(records) {
		records = nil
	} else {
		records = records[skip:]
	}
	return model.Chunk{
		Start:   start,
		Next:    start + len(records),
		Records: records,
	}, nil
}
