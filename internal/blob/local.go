package blob

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/amishk599/jobflow/internal/model"
)

var _ model.BlobStore = (*LocalStore)(nil)

// LocalStore keeps objects as files under root/container. Keys use forward
// slashes and map onto subdirectories.
type LocalStore struct {
	dir          string
	PollInterval time.Duration // WatchCreated scan period
}

// NewLocalStore creates the container directory if needed.
func NewLocalStore(root, container string) (*LocalStore, error) {
	dir := filepath.Join(root, container)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating local container %s: %w", dir, err)
	}
	return &LocalStore{dir: dir, PollInterval: 2 * time.Second}, nil
}

func (s *LocalStore) path(key string) (string, error) {
	clean := filepath.Clean(filepath.FromSlash(key))
	if key == "" || clean == "." || strings.HasPrefix(clean, "..") || filepath.IsAbs(clean) {
		return "", fmt.Errorf("invalid object key %q", key)
	}
	return filepath.Join(s.dir, clean), nil
}

// Get reads an object. A missing file yields model.ErrNotFound.
func (s *LocalStore) Get(_ context.Context, key string) ([]byte, error) {
	p, err := s.path(key)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(p)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("object %s: %w", key, model.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("object %s: %w", key, err)
	}
	return data, nil
}

// Put writes the object through a temp file and rename so readers never see
// a partial object.
func (s *LocalStore) Put(_ context.Context, key string, data []byte, _ string) error {
	p, err := s.path(key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return fmt.Errorf("object %s: %w", key, err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(p), ".tmp-*")
	if err != nil {
		return fmt.Errorf("object %s: %w", key, err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("object %s: %w", key, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("object %s: %w", key, err)
	}
	if err := os.Rename(tmp.Name(), p); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("object %s: %w", key, err)
	}
	return nil
}

// List returns the sorted keys under prefix.
func (s *LocalStore) List(_ context.Context, prefix string) ([]string, error) {
	var keys []string
	err := filepath.WalkDir(s.dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || strings.HasPrefix(d.Name(), ".tmp-") {
			return nil
		}
		rel, err := filepath.Rel(s.dir, p)
		if err != nil {
			return err
		}
		key := filepath.ToSlash(rel)
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("listing %s: %w", prefix, err)
	}
	sort.Strings(keys)
	return keys, nil
}

// WatchCreated polls the container and streams keys that appear after the
// call. Objects present at start are not reported.
func (s *LocalStore) WatchCreated(ctx context.Context, prefix, suffix string) (<-chan string, error) {
	initial, err := s.List(ctx, prefix)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]bool, len(initial))
	for _, k := range initial {
		seen[k] = true
	}

	out := make(chan string)
	go func() {
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				return
			case <-time.After(s.PollInterval):
			}
			keys, err := s.List(ctx, prefix)
			if err != nil {
				continue
			}
			for _, k := range keys {
				if seen[k] || !strings.HasSuffix(k, suffix) {
					continue
				}
				seen[k] = true
				select {
				case out <- k:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}
