package blob

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/amishk599/jobflow/internal/model"
)

var _ model.BlobStore = (*MinioStore)(nil)

// MinioConfig holds connection settings for an S3-compatible endpoint.
type MinioConfig struct {
	Endpoint  string // host:port or URL; an https URL implies UseSSL
	AccessKey string
	SecretKey string
	UseSSL    bool
	Region    string
}

// MinioStore is a BlobStore over one bucket of a MinIO/S3 endpoint.
type MinioStore struct {
	client *minio.Client
	bucket string
	region string
	logger *slog.Logger
}

// NewMinioClient builds a minio client from config.
func NewMinioClient(cfg MinioConfig) (*minio.Client, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("minio endpoint is required")
	}
	if cfg.AccessKey == "" || cfg.SecretKey == "" {
		return nil, fmt.Errorf("minio credentials are required")
	}

	endpoint := cfg.Endpoint
	useSSL := cfg.UseSSL
	if u, err := url.Parse(cfg.Endpoint); err == nil && u.Host != "" {
		endpoint = u.Host
		if u.Scheme == "https" {
			useSSL = true
		}
	}

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: useSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("creating minio client: %w", err)
	}
	return client, nil
}

// NewMinioStore returns a store bound to bucket.
func NewMinioStore(client *minio.Client, bucket, region string, logger *slog.Logger) *MinioStore {
	return &MinioStore{
		client: client,
		bucket: bucket,
		region: region,
		logger: logger,
	}
}

// EnsureBucket creates the bucket if it does not exist.
func (s *MinioStore) EnsureBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("checking bucket %s: %w", s.bucket, err)
	}
	if exists {
		return nil
	}
	if err := s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{Region: s.region}); err != nil {
		return fmt.Errorf("creating bucket %s: %w", s.bucket, err)
	}
	s.logger.Info("created bucket", "bucket", s.bucket)
	return nil
}

// Get reads an object. A missing object yields model.ErrNotFound.
func (s *MinioStore) Get(ctx context.Context, key string) ([]byte, error) {
	obj, err := s.client.GetObject(ctx, s.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, classifyMinioError(key, err)
	}
	defer obj.Close()

	data, err := io.ReadAll(obj)
	if err != nil {
		return nil, classifyMinioError(key, err)
	}
	return data, nil
}

// Put writes an object, replacing any existing one.
func (s *MinioStore) Put(ctx context.Context, key string, data []byte, contentType string) error {
	if key == "" {
		return fmt.Errorf("object key is required")
	}
	_, err := s.client.PutObject(ctx, s.bucket, key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return classifyMinioError(key, err)
	}
	return nil
}

// List returns every key under prefix.
func (s *MinioStore) List(ctx context.Context, prefix string) ([]string, error) {
	var keys []string
	for obj := range s.client.ListObjects(ctx, s.bucket, minio.ListObjectsOptions{Prefix: prefix, Recursive: true}) {
		if obj.Err != nil {
			return nil, classifyMinioError(prefix, obj.Err)
		}
		keys = append(keys, obj.Key)
	}
	return keys, nil
}

// WatchCreated streams the keys of objects created under prefix with suffix.
// The channel closes when ctx is done or the notification stream fails.
func (s *MinioStore) WatchCreated(ctx context.Context, prefix, suffix string) (<-chan string, error) {
	events := s.client.ListenBucketNotification(ctx, s.bucket, prefix, suffix, []string{"s3:ObjectCreated:*"})
	out := make(chan string)
	go func() {
		defer close(out)
		for info := range events {
			if info.Err != nil {
				s.logger.Error("bucket notification failed", "bucket", s.bucket, "error", info.Err)
				return
			}
			for _, rec := range info.Records {
				key, err := url.QueryUnescape(rec.S3.Object.Key)
				if err != nil {
					key = rec.S3.Object.Key
				}
				select {
				case out <- key:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}

func classifyMinioError(key string, err error) error {
	if err == nil {
		return nil
	}
	var resp minio.ErrorResponse
	if errors.As(err, &resp) {
		switch resp.Code {
		case "NoSuchKey", "NoSuchBucket":
			return fmt.Errorf("object %s: %w", key, model.ErrNotFound)
		}
	}
	if strings.Contains(strings.ToLower(err.Error()), "key does not exist") {
		return fmt.Errorf("object %s: %w", key, model.ErrNotFound)
	}
	return fmt.Errorf("object %s: %w", key, err)
}
