package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/minio/minio-go/v7"

	"github.com/amishk599/jobflow/internal/adapter"
	"github.com/amishk599/jobflow/internal/blob"
	"github.com/amishk599/jobflow/internal/config"
	"github.com/amishk599/jobflow/internal/cursor"
	"github.com/amishk599/jobflow/internal/filter"
	"github.com/amishk599/jobflow/internal/model"
	"github.com/amishk599/jobflow/internal/notifier"
	"github.com/amishk599/jobflow/internal/poller"
	"github.com/amishk599/jobflow/internal/ratelimit"
	"github.com/amishk599/jobflow/internal/retry"
	"github.com/amishk599/jobflow/internal/sink"
	"github.com/amishk599/jobflow/internal/store"
	"github.com/amishk599/jobflow/internal/stream"
	"github.com/amishk599/jobflow/internal/transform"
)

// watchableStore is a blob store the relay can also watch for new objects.
type watchableStore interface {
	model.BlobStore
	WatchCreated(ctx context.Context, prefix, suffix string) (<-chan string, error)
}

// pipeline owns the shared resources behind the pollers and closes them on
// exit. Everything is opened lazily so commands only connect to what they use.
type pipeline struct {
	cfg        *config.Config
	logger     *slog.Logger
	httpClient *http.Client
	limiter    *ratelimit.HostLimiter

	minio     *minio.Client
	blobs     map[string]watchableStore // by container
	sqlite    *store.SQLiteStore
	publisher model.Publisher
	warehouse *sink.WarehouseSink
	closers   []func() error
}

func newPipeline(cfg *config.Config, logger *slog.Logger) *pipeline {
	return &pipeline{
		cfg:        cfg,
		logger:     logger,
		httpClient: newHTTPClient(cfg),
		limiter:    ratelimit.NewHostLimiter(cfg.RateLimit.MinDelay),
		blobs:      make(map[string]watchableStore),
	}
}

// Close releases every resource in reverse order of opening.
func (p *pipeline) Close() {
	for i := len(p.closers) - 1; i >= 0; i-- {
		if err := p.closers[i](); err != nil {
			p.logger.Warn("closing resource", "error", err)
		}
	}
	p.closers = nil
}

func (p *pipeline) blobStore(ctx context.Context, container string) (watchableStore, error) {
	if s, ok := p.blobs[container]; ok {
		return s, nil
	}

	var s watchableStore
	switch p.cfg.Storage.Backend {
	case "minio":
		if p.minio == nil {
			client, err := blob.NewMinioClient(blob.MinioConfig{
				Endpoint:  p.cfg.Storage.Endpoint,
				AccessKey: p.cfg.Storage.AccessKey,
				SecretKey: p.cfg.Storage.SecretKey,
				UseSSL:    p.cfg.Storage.UseSSL,
				Region:    p.cfg.Storage.Region,
			})
			if err != nil {
				return nil, err
			}
			p.minio = client
		}
		ms := blob.NewMinioStore(p.minio, container, p.cfg.Storage.Region, p.logger)
		if err := ms.EnsureBucket(ctx); err != nil {
			return nil, err
		}
		s = ms
	default:
		ls, err := blob.NewLocalStore(p.cfg.Storage.LocalDir, container)
		if err != nil {
			return nil, err
		}
		s = ls
	}
	p.blobs[container] = s
	return s, nil
}

func (p *pipeline) sqliteStore() (*store.SQLiteStore, error) {
	if p.sqlite != nil {
		return p.sqlite, nil
	}
	s, err := store.NewSQLiteStore(p.cfg.State.SQLitePath)
	if err != nil {
		return nil, err
	}
	p.sqlite = s
	p.closers = append(p.closers, s.Close)
	return s, nil
}

// cursorFor returns the configured cursor backend for src.
func (p *pipeline) cursorFor(ctx context.Context, src config.SourceConfig) (model.CursorStore, error) {
	switch p.cfg.State.CursorBackend {
	case "sqlite":
		s, err := p.sqliteStore()
		if err != nil {
			return nil, err
		}
		return s.CursorFor(src.Name, src.DefaultStart), nil
	default:
		blobs, err := p.blobStore(ctx, src.ContainerName)
		if err != nil {
			return nil, err
		}
		return cursor.NewBlobStore(blobs, src.StatePath, src.DefaultStart, p.logger), nil
	}
}

// streamPublisher connects to the configured event stream.
func (p *pipeline) streamPublisher(ctx context.Context) (model.Publisher, error) {
	if p.publisher != nil {
		return p.publisher, nil
	}
	sc := p.cfg.Stream
	switch sc.Type {
	case "redis":
		rp, err := stream.NewRedisPublisher(ctx, sc.Redis.Addr, sc.Redis.Password, sc.Redis.DB)
		if err != nil {
			return nil, err
		}
		p.closers = append(p.closers, rp.Close)
		p.publisher = rp
	case "lmstfy":
		p.publisher = stream.NewLmstfyPublisher(sc.Lmstfy.Host, sc.Lmstfy.Port, sc.Lmstfy.Namespace, sc.Lmstfy.Token, sc.Lmstfy.TTL, sc.Lmstfy.Tries, p.logger)
	default:
		return nil, errors.New("stream.type is \"none\"; configure redis or lmstfy")
	}
	p.logger.Info("event stream connected", "type", sc.Type, "topic", sc.Topic)
	return p.publisher, nil
}

func (p *pipeline) warehouseSink(ctx context.Context) (*sink.WarehouseSink, error) {
	if p.warehouse != nil {
		return p.warehouse, nil
	}
	pool, err := sink.ConnectWarehouse(ctx, p.cfg.Warehouse.DSN)
	if err != nil {
		return nil, err
	}
	p.closers = append(p.closers, func() error { pool.Close(); return nil })

	ws, err := sink.NewWarehouseSink(pool, p.cfg.Warehouse.Table, p.logger)
	if err != nil {
		return nil, err
	}
	if err := ws.EnsureTable(ctx); err != nil {
		return nil, err
	}
	p.warehouse = ws
	return ws, nil
}

// sinkFor assembles the delivery chain for src: the blob object first, then
// the optional direct stream publish and warehouse insert.
func (p *pipeline) sinkFor(ctx context.Context, src config.SourceConfig) (model.Sink, error) {
	format, err := sink.ParseFormat(src.Format)
	if err != nil {
		return nil, err
	}
	blobs, err := p.blobStore(ctx, src.ContainerName)
	if err != nil {
		return nil, err
	}
	sinks := []model.Sink{sink.NewBlobSink(blobs, src.BlobPathTemplate, format, src.Location, p.logger)}

	if p.cfg.Stream.PublishOnIngest {
		pub, err := p.streamPublisher(ctx)
		if err != nil {
			return nil, err
		}
		sinks = append(sinks, sink.NewStreamSink(pub, p.cfg.Stream.Topic, format, p.cfg.Stream.MaxMessageBytes, p.logger))
	}
	if p.cfg.Warehouse.Enabled {
		ws, err := p.warehouseSink(ctx)
		if err != nil {
			return nil, err
		}
		sinks = append(sinks, ws)
	}

	if len(sinks) == 1 {
		return sinks[0], nil
	}
	return sink.NewMultiSink(sinks...), nil
}

// setupNotifier builds the configured notifier behind the notify_on policy.
func (p *pipeline) setupNotifier() (model.Notifier, error) {
	var n model.Notifier
	switch p.cfg.Notification.Type {
	case "slack":
		p.logger.Info("using slack notifier")
		n = notifier.NewSlackNotifier(p.cfg.Notification.WebhookURL, p.httpClient, p.logger)
	default:
		n = notifier.NewLogNotifier(p.logger)
	}
	return notifier.WithPolicy(n, p.cfg.Notification.NotifyOn)
}

// createFetcher builds the source adapter wrapped in per-host rate limiting
// and retry.
func (p *pipeline) createFetcher(src config.SourceConfig) (model.ChunkFetcher, error) {
	var (
		fetcher model.ChunkFetcher
		baseURL = src.BaseURL
	)
	switch src.Kind {
	case config.KindSeoul:
		if baseURL == "" {
			baseURL = adapter.SeoulBaseURL
		}
		fetcher = adapter.NewSeoulFetcher(baseURL, src.APIKey, p.httpClient)
	case config.KindGyeonggi:
		if baseURL == "" {
			baseURL = adapter.GyeonggiBaseURL
		}
		fetcher = adapter.NewGyeonggiFetcher(baseURL, src.APIKey, p.httpClient)
	default:
		return nil, fmt.Errorf("source %q: unsupported kind %q", src.Name, src.Kind)
	}

	fetcher = ratelimit.NewRateLimitedFetcher(fetcher, p.limiter, hostKey(baseURL))
	return retry.NewRetryFetcher(fetcher, p.cfg.Retry.MaxRetries, p.cfg.Retry.BaseDelay, p.logger), nil
}

func hostKey(baseURL string) string {
	if u, err := url.Parse(baseURL); err == nil && u.Host != "" {
		return u.Host
	}
	return baseURL
}

// pollerOptions switches a poller between the normal and the dry-run wiring.
type pollerOptions struct {
	dryRun bool
}

func (p *pipeline) buildPoller(ctx context.Context, src config.SourceConfig, n model.Notifier, opts pollerOptions) (*poller.SourcePoller, error) {
	fetcher, err := p.createFetcher(src)
	if err != nil {
		return nil, err
	}
	normalizer, err := transform.NewNormalizer(src.Kind, src.DefaultRegion)
	if err != nil {
		return nil, err
	}
	transformer := transform.New(normalizer, p.recordFilter(), p.logger)

	cur, err := p.cursorFor(ctx, src)
	if err != nil {
		return nil, err
	}

	var (
		out      model.Sink
		recorder model.RunRecorder
	)
	if opts.dryRun {
		cur = store.ReadOnlyCursor{Inner: cur}
		out = sink.NewLogSink(p.logger)
		recorder = store.NewNopRecorder()
	} else {
		if out, err = p.sinkFor(ctx, src); err != nil {
			return nil, err
		}
		ledger, err := p.sqliteStore()
		if err != nil {
			return nil, err
		}
		recorder = ledger
	}

	return poller.NewSourcePoller(src.Name, src.Kind, src.ChunkSize, fetcher, transformer, cur, out, recorder, n, p.logger), nil
}

func (p *pipeline) recordFilter() *filter.RecordFilter {
	return filter.NewRecordFilter(p.cfg.Filters.DropBlank, p.cfg.Filters.TitleExcludeKeywords, p.cfg.Filters.Regions)
}

// buildPollers wires one poller per enabled source. A non-empty only limits
// the result to that source, enabled or not.
func (p *pipeline) buildPollers(ctx context.Context, only string, opts pollerOptions) ([]*poller.SourcePoller, error) {
	n, err := p.setupNotifier()
	if err != nil {
		return nil, err
	}
	if opts.dryRun {
		n = notifier.NewLogNotifier(p.logger)
	}

	var pollers []*poller.SourcePoller
	for _, src := range p.cfg.Sources {
		if only != "" && src.Name != only {
			continue
		}
		if only == "" && !src.Enabled {
			continue
		}
		sp, err := p.buildPoller(ctx, src, n, opts)
		if err != nil {
			return nil, fmt.Errorf("source %s: %w", src.Name, err)
		}
		pollers = append(pollers, sp)
		p.logger.Info("registered source", "name", src.Name, "kind", src.Kind, "chunk_size", src.ChunkSize)
	}
	if len(pollers) == 0 {
		if only != "" {
			return nil, fmt.Errorf("unknown source %q", only)
		}
		return nil, errors.New("no sources to poll")
	}
	return pollers, nil
}
