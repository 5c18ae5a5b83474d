package adapter

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func gyeonggiPayload(n int) string {
	rows := make([]string, n)
	for i := range rows {
		rows[i] = fmt.Sprintf(`{"ENTRPRS_NM": "회사%d", "SALARY_COND": "월급 200만원"}`, i+1)
	}
	return `{"GGJOBABARECRUSTM": [
		{"head": [{"list_total_count": 1000}, {"RESULT": {"CODE": "INFO-000"}}]},
		{"row": [` + strings.Join(rows, ",") + `]}
	]}`
}

func TestGyeonggiFetchChunk_QueryAndPage(t *testing.T) {
	var query map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		query = map[string]string{}
		for k := range r.URL.Query() {
			query[k] = r.URL.Query().Get(k)
		}
		w.Write([]byte(gyeonggiPayload(3)))
	}))
	defer srv.Close()

	f := NewGyeonggiFetcher(srv.URL, "gg-key", srv.Client())
	chunk, err := f.FetchChunk(context.Background(), 201, 100)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := map[string]string{"KEY": "gg-key", "Type": "json", "pIndex": "3", "pSize": "100"}
	for k, v := range want {
		if query[k] != v {
			t.Errorf("query %s = %q, want %q", k, query[k], v)
		}
	}
	if len(chunk.Records) != 3 || chunk.Next != 204 {
		t.Errorf("got %d records, Next=%d; want 3, 204", len(chunk.Records), chunk.Next)
	}
}

func TestGyeonggiFetchChunk_SkipsConsumedRowsOfPartialPage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("pIndex"); got != "1" {
			t.Errorf("pIndex = %q, want 1", got)
		}
		w.Write([]byte(gyeonggiPayload(5)))
	}))
	defer srv.Close()

	f := NewGyeonggiFetcher(srv.URL, "k", srv.Client())
	chunk, err := f.FetchChunk(context.Background(), 4, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(chunk.Records) != 2 {
		t.Fatalf("expected 2 remaining records, got %d", len(chunk.Records))
	}
	if got := chunk.Records[0].String("ENTRPRS_NM"); got != "회사4" {
		t.Errorf("first record = %q, want 회사4", got)
	}
	if chunk.Next != 6 {
		t.Errorf("Next = %d, want 6", chunk.Next)
	}
}

func TestGyeonggiFetchChunk_FullyConsumedPageIsEmpty(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(gyeonggiPayload(5)))
	}))
	defer srv.Close()

	f := NewGyeonggiFetcher(srv.URL, "k", srv.Client())
	chunk, err := f.FetchChunk(context.Background(), 6, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(chunk.Records) != 0 || chunk.Next != 6 {
		t.Errorf("got %d records, Next=%d; want 0, 6", len(chunk.Records), chunk.Next)
	}
}

func TestPageFor(t *testing.T) {
	tests := []struct {
		start, size, page, skip int
	}{
		{1, 100, 1, 0},
		{100, 100, 1, 99},
		{101, 100, 2, 0},
		{138, 100, 2, 37},
	}
	for _, tt := range tests {
		page, skip := pageFor(tt.start, tt.size)
		if page != tt.page || skip != tt.skip {
			t.Errorf("pageFor(%d, %d) = (%d, %d), want (%d, %d)", tt.start, tt.size, page, skip, tt.page, tt.skip)
		}
	}
}
