package blob

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/amishk599/jobflow/internal/model"
)

func newTestStore(t *testing.T) *LocalStore {
	t.Helper()
	s, err := NewLocalStore(t.TempDir(), "seoul-job-ct")
	if err != nil {
		t.Fatalf("NewLocalStore: %v", err)
	}
	return s
}

func TestLocalStore_PutThenGet(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.Put(ctx, "state/current_start_index.json", []byte(`{"next_start_index": 101}`), "application/json"); err != nil {
		t.Fatalf("Put: %v", err)
	}
	got, err := s.Get(ctx, "state/current_start_index.json")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if string(got) != `{"next_start_index": 101}` {
		t.Errorf("Get = %q", got)
	}

	if err := s.Put(ctx, "state/current_start_index.json", []byte("201"), ""); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	got, _ = s.Get(ctx, "state/current_start_index.json")
	if string(got) != "201" {
		t.Errorf("after overwrite Get = %q", got)
	}
}

func TestLocalStore_GetMissingIsNotFound(t *testing.T) {
	s := newTestStore(t)
	_, err := s.Get(context.Background(), "nope.csv")
	if !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestLocalStore_RejectsEscapingKeys(t *testing.T) {
	s := newTestStore(t)
	for _, key := range []string{"", "../outside.csv", "a/../../x"} {
		if err := s.Put(context.Background(), key, []byte("x"), ""); err == nil {
			t.Errorf("Put(%q) expected error", key)
		}
	}
}

func TestLocalStore_ListByPrefix(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	for _, k := range []string{"data/all_jobs/b.csv", "data/all_jobs/a.csv", "state/x.json"} {
		if err := s.Put(ctx, k, []byte("x"), ""); err != nil {
			t.Fatal(err)
		}
	}

	got, err := s.List(ctx, "data/")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	want := []string{"data/all_jobs/a.csv", "data/all_jobs/b.csv"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("List = %v, want %v", got, want)
	}
}

func TestLocalStore_WatchCreatedReportsOnlyNewMatchingKeys(t *testing.T) {
	s := newTestStore(t)
	s.PollInterval = 10 * time.Millisecond
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := s.Put(ctx, "data/old.csv", []byte("x"), ""); err != nil {
		t.Fatal(err)
	}

	keys, err := s.WatchCreated(ctx, "data/", ".csv")
	if err != nil {
		t.Fatalf("WatchCreated: %v", err)
	}

	if err := s.Put(ctx, "data/new.json", []byte("x"), ""); err != nil {
		t.Fatal(err)
	}
	if err := s.Put(ctx, "data/new.csv", []byte("x"), ""); err != nil {
		t.Fatal(err)
	}

	select {
	case k := <-keys:
		if k != "data/new.csv" {
			t.Errorf("got key %q, want data/new.csv", k)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for created key")
	}

	cancel()
	for range keys {
	}
}
