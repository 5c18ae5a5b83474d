package scheduler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/amishk599/jobflow/internal/model"
	"github.com/amishk599/jobflow/internal/poller"
	"github.com/amishk599/jobflow/internal/store"
	"github.com/amishk599/jobflow/internal/transform"
)

// --- Mock implementations ---

type CountingFetcher struct {
	calls    atomic.Int32
	inFlight atomic.Int32
	maxSeen  atomic.Int32
	delay    time.Duration
}

func (f *CountingFetcher) FetchChunk(_ context.Context, start, _ int) (model.Chunk, error) {
	f.calls.Add(1)
	n := f.inFlight.Add(1)
	defer f.inFlight.Add(-1)
	if n > f.maxSeen.Load() {
		f.maxSeen.Store(n)
	}
	time.Sleep(f.delay)
	return model.Chunk{Start: start, Next: start}, nil
}

type ErrorFetcher struct {
	calls atomic.Int32
}

func (f *ErrorFetcher) FetchChunk(context.Context, int, int) (model.Chunk, error) {
	f.calls.Add(1)
	return model.Chunk{}, errors.New("fetch failed")
}

// OrderRecordingFetcher appends its id to recorder.order on each call.
type OrderRecordingFetcher struct {
	id       string
	recorder *orderRecorder
}

type orderRecorder struct {
	mu    sync.Mutex
	order []string
}

func (f *OrderRecordingFetcher) FetchChunk(_ context.Context, start, _ int) (model.Chunk, error) {
	f.recorder.mu.Lock()
	f.recorder.order = append(f.recorder.order, f.id)
	f.recorder.mu.Unlock()
	return model.Chunk{Start: start, Next: start}, nil
}

type StaticCursor struct{}

func (StaticCursor) Load(context.Context) (model.Cursor, error) { return model.Cursor{NextStart: 1}, nil }
func (StaticCursor) Save(context.Context, model.Cursor) error   { return nil }
func (StaticCursor) Reset(context.Context) error                { return nil }

type NoOpSink struct{}

func (NoOpSink) Deliver(context.Context, model.Batch) (string, error) { return "", nil }

type NoOpNotifier struct{}

func (NoOpNotifier) Notify(context.Context, model.TickReport) error { return nil }

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func makePoller(name string, fetcher model.ChunkFetcher) *poller.SourcePoller {
	norm, _ := transform.NewNormalizer(transform.KindSeoul, "")
	return poller.NewSourcePoller(
		name,
		transform.KindSeoul,
		10,
		fetcher,
		transform.New(norm, nil, discardLogger()),
		StaticCursor{},
		NoOpSink{},
		store.NewNopRecorder(),
		NoOpNotifier{},
		discardLogger(),
	)
}

// --- Tests ---

func TestParseSchedule(t *testing.T) {
	s, err := ParseSchedule("0 */5 * * * *", 0)
	if err != nil {
		t.Fatalf("cron: %v", err)
	}
	from := time.Date(2024, 1, 1, 10, 2, 30, 0, time.UTC)
	if got, want := s.Next(from), time.Date(2024, 1, 1, 10, 5, 0, 0, time.UTC); !got.Equal(want) {
		t.Errorf("cron Next = %v, want %v", got, want)
	}

	s, err = ParseSchedule("", time.Minute)
	if err != nil {
		t.Fatalf("interval: %v", err)
	}
	if got := s.Next(from); !got.Equal(from.Add(time.Minute)) {
		t.Errorf("interval Next = %v", got)
	}

	if _, err := ParseSchedule("not a cron", 0); err == nil {
		t.Error("expected error for invalid cron expression")
	}
	if _, err := ParseSchedule("", 0); err == nil {
		t.Error("expected error when neither schedule nor interval is set")
	}
}

func TestRun_CancelReturnsPromptly(t *testing.T) {
	p := makePoller("seoul", &CountingFetcher{})
	s := NewScheduler([]*poller.SourcePoller{p}, Every(time.Hour), true, time.Minute, discardLogger())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- s.Run(ctx)
	}()

	time.Sleep(100 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("expected nil error on cancel, got: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("scheduler did not return within 2s after cancel")
	}
}

func TestRun_PollsRepeatedly(t *testing.T) {
	fetcher := &CountingFetcher{}
	s := NewScheduler([]*poller.SourcePoller{makePoller("seoul", fetcher)}, Every(50*time.Millisecond), true, 0, discardLogger())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- s.Run(ctx)
	}()

	// Allow time for at least two full passes (poll → wait → poll).
	time.Sleep(250 * time.Millisecond)
	cancel()
	<-done

	if got := fetcher.calls.Load(); got < 2 {
		t.Errorf("fetcher calls = %d, want >= 2", got)
	}
}

func TestRun_WithoutRunOnStartWaitsForSchedule(t *testing.T) {
	fetcher := &CountingFetcher{}
	s := NewScheduler([]*poller.SourcePoller{makePoller("seoul", fetcher)}, Every(time.Hour), false, 0, discardLogger())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- s.Run(ctx)
	}()

	time.Sleep(100 * time.Millisecond)
	cancel()
	<-done

	if got := fetcher.calls.Load(); got != 0 {
		t.Errorf("fetcher calls = %d, want 0", got)
	}
}

func TestRun_PassesNeverOverlap(t *testing.T) {
	fetcher := &CountingFetcher{delay: 60 * time.Millisecond}
	pollers := []*poller.SourcePoller{
		makePoller("seoul", fetcher),
		makePoller("gyeonggi", fetcher),
	}
	// Interval far shorter than a pass.
	s := NewScheduler(pollers, Every(time.Millisecond), true, 0, discardLogger())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- s.Run(ctx)
	}()

	time.Sleep(400 * time.Millisecond)
	cancel()
	<-done

	if got := fetcher.maxSeen.Load(); got != 1 {
		t.Errorf("max concurrent fetches = %d, want 1", got)
	}
	if got := fetcher.calls.Load(); got < 3 {
		t.Errorf("fetcher calls = %d, want >= 3", got)
	}
}

func TestRunOnce_OneErrorOthersStillRun(t *testing.T) {
	errFetcher := &ErrorFetcher{}
	okFetcher := &CountingFetcher{}

	pollers := []*poller.SourcePoller{
		makePoller("failing", errFetcher),
		makePoller("healthy", okFetcher),
	}
	s := NewScheduler(pollers, Every(time.Hour), false, 0, discardLogger())

	err := s.RunOnce(context.Background())
	if err == nil {
		t.Fatal("expected joined error from failing source")
	}
	if got := errFetcher.calls.Load(); got != 1 {
		t.Errorf("error fetcher calls = %d, want 1", got)
	}
	if got := okFetcher.calls.Load(); got != 1 {
		t.Errorf("ok fetcher calls = %d, want 1", got)
	}
}

func TestRunOnce_GapBetweenSources(t *testing.T) {
	fetcher := &CountingFetcher{}
	pollers := []*poller.SourcePoller{
		makePoller("a", fetcher),
		makePoller("b", fetcher),
	}
	s := NewScheduler(pollers, Every(time.Hour), false, 50*time.Millisecond, discardLogger())

	start := time.Now()
	if err := s.RunOnce(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if elapsed := time.Since(start); elapsed < 50*time.Millisecond {
		t.Errorf("pass took %v, want >= 50ms gap", elapsed)
	}
}

func TestRunOnce_OrderPreserved(t *testing.T) {
	rec := &orderRecorder{}
	pollers := []*poller.SourcePoller{
		makePoller("first", &OrderRecordingFetcher{id: "first", recorder: rec}),
		makePoller("second", &OrderRecordingFetcher{id: "second", recorder: rec}),
		makePoller("third", &OrderRecordingFetcher{id: "third", recorder: rec}),
	}
	s := NewScheduler(pollers, Every(time.Hour), false, 0, discardLogger())

	if err := s.RunOnce(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []string{"first", "second", "third"}
	if len(rec.order) != len(want) {
		t.Fatalf("order = %v, want %v", rec.order, want)
	}
	for i := range want {
		if rec.order[i] != want[i] {
			t.Errorf("order[%d] = %q, want %q", i, rec.order[i], want[i])
		}
	}
}

func TestRunOnce_CancelledContext(t *testing.T) {
	fetcher := &CountingFetcher{}
	s := NewScheduler([]*poller.SourcePoller{makePoller("seoul", fetcher)}, Every(time.Hour), false, 0, discardLogger())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := s.RunOnce(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
	if fetcher.calls.Load() != 0 {
		t.Error("no source should be polled after cancellation")
	}
}
