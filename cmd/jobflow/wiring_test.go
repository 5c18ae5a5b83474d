package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/amishk599/jobflow/internal/blob"
	"github.com/amishk599/jobflow/internal/config"
	"github.com/amishk599/jobflow/internal/model"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

const seoulPayload = `{
	"GetJobInfo": {
		"list_total_count": 2,
		"row": [
			{"CMPNY_NM": "가나다상사", "JO_SJ": "사무보조", "HOPE_WAGE": "(시급) 10,030원", "GUI_LN": "정규직/서울 강남구/경력무관"},
			{"CMPNY_NM": "라마바물산", "JO_SJ": "경리", "HOPE_WAGE": "월급 250만원"}
		]
	}
}`

func seoulServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(seoulPayload))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func testConfig(t *testing.T, baseURL string) *config.Config {
	t.Helper()
	dir := t.TempDir()
	yaml := fmt.Sprintf(`interval: 1m
retry:
  max_retries: 0
rate_limit:
  min_delay: 1ms
storage:
  backend: local
  local_dir: %s
state:
  cursor_backend: sqlite
  sqlite_path: %s
sources:
  - name: seoul
    kind: seoul
    api_key: k
    base_url: %s
    chunk_size: 2
  - name: gg
    kind: gyeonggi
    api_key: k
    enabled: false
`, filepath.Join(dir, "data"), filepath.Join(dir, "jobflow.db"), baseURL)

	cfg, err := config.Parse([]byte(yaml))
	if err != nil {
		t.Fatalf("parse config: %v", err)
	}
	return cfg
}

func TestBuildPollers_SelectsSources(t *testing.T) {
	cfg := testConfig(t, "http://127.0.0.1:1")
	p := newPipeline(cfg, discardLogger())
	defer p.Close()
	ctx := context.Background()

	pollers, err := p.buildPollers(ctx, "", pollerOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if len(pollers) != 1 || pollers[0].Name != "seoul" {
		t.Fatalf("expected only the enabled seoul source, got %d pollers", len(pollers))
	}

	// Naming a disabled source explicitly still builds it.
	pollers, err = p.buildPollers(ctx, "gg", pollerOptions{dryRun: true})
	if err != nil {
		t.Fatal(err)
	}
	if len(pollers) != 1 || pollers[0].Kind != config.KindGyeonggi {
		t.Fatalf("expected the gyeonggi source, got %+v", pollers)
	}

	if _, err := p.buildPollers(ctx, "busan", pollerOptions{}); err == nil {
		t.Fatal("expected error for unknown source")
	}
}

func TestPipeline_PollStoresBatchAndAdvancesCursor(t *testing.T) {
	srv := seoulServer(t)
	cfg := testConfig(t, srv.URL)
	p := newPipeline(cfg, discardLogger())
	defer p.Close()
	ctx := context.Background()

	pollers, err := p.buildPollers(ctx, "seoul", pollerOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if err := pollers[0].Poll(ctx); err != nil {
		t.Fatalf("poll: %v", err)
	}

	store, err := blob.NewLocalStore(cfg.Storage.LocalDir, "seoul-job-ct")
	if err != nil {
		t.Fatal(err)
	}
	keys, err := store.List(ctx, "data/all_jobs/")
	if err != nil {
		t.Fatal(err)
	}
	if len(keys) != 1 || !strings.HasPrefix(keys[0], "data/all_jobs/seoul_jobs_1_") || !strings.HasSuffix(keys[0], ".csv") {
		t.Fatalf("objects = %v", keys)
	}

	cur, err := p.cursorFor(ctx, cfg.Sources[0])
	if err != nil {
		t.Fatal(err)
	}
	c, err := cur.Load(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if c.NextStart != 3 {
		t.Errorf("next start = %d, want 3", c.NextStart)
	}

	ledger, err := p.sqliteStore()
	if err != nil {
		t.Fatal(err)
	}
	runs, err := ledger.RecentRuns(ctx, 5)
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 1 || runs[0].Status != model.TickSucceeded || runs[0].ObjectKey != keys[0] {
		t.Errorf("runs = %+v", runs)
	}
}

func TestPipeline_DryRunLeavesNoTrace(t *testing.T) {
	srv := seoulServer(t)
	cfg := testConfig(t, srv.URL)
	p := newPipeline(cfg, discardLogger())
	defer p.Close()
	ctx := context.Background()

	pollers, err := p.buildPollers(ctx, "seoul", pollerOptions{dryRun: true})
	if err != nil {
		t.Fatal(err)
	}
	if err := pollers[0].Poll(ctx); err != nil {
		t.Fatalf("poll: %v", err)
	}

	store, err := blob.NewLocalStore(cfg.Storage.LocalDir, "seoul-job-ct")
	if err != nil {
		t.Fatal(err)
	}
	keys, err := store.List(ctx, "")
	if err != nil {
		t.Fatal(err)
	}
	if len(keys) != 0 {
		t.Errorf("dry run wrote objects: %v", keys)
	}

	cur, err := p.cursorFor(ctx, cfg.Sources[0])
	if err != nil {
		t.Fatal(err)
	}
	c, err := cur.Load(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if c.NextStart != 1 {
		t.Errorf("next start = %d, want 1", c.NextStart)
	}
}

func TestStreamPublisher_NoneIsAnError(t *testing.T) {
	cfg := testConfig(t, "http://127.0.0.1:1")
	p := newPipeline(cfg, discardLogger())
	defer p.Close()

	if _, err := p.streamPublisher(context.Background()); err == nil {
		t.Fatal("expected error when no stream is configured")
	}
}

func TestHostKey(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"http://openapi.seoul.go.kr:8088", "openapi.seoul.go.kr:8088"},
		{"https://openapi.gg.go.kr/GGJOBABARECRUSTM", "openapi.gg.go.kr"},
		{"not a url", "not a url"},
	}
	for _, tt := range tests {
		if got := hostKey(tt.in); got != tt.want {
			t.Errorf("hostKey(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestRunsTable(t *testing.T) {
	started := time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC)
	out := runsTable([]model.TickReport{
		{RunID: "r2", Source: "gyeonggi", Start: 1, Next: 1, Status: model.TickFailed, Err: errors.New("HTTP 503"), StartedAt: started},
		{RunID: "r1", Source: "seoul", Start: 1, Next: 101, Fetched: 100, Delivered: 98, ObjectKey: "a.csv", Status: model.TickSucceeded, StartedAt: started},
	})

	for _, want := range []string{"SOURCE", "gyeonggi", "HTTP 503", "seoul", "1-101", "98", "a.csv"} {
		if !strings.Contains(out, want) {
			t.Errorf("table missing %q:\n%s", want, out)
		}
	}
}
