// Package fs implements a blob store on the local filesystem. Each blob is
// a file under the root plus a ".meta" JSON sidecar.
package fs

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	iofs "io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"inventorycore/internal/blob/core"
)

const metaSuffix = ".meta"

// Store implements core.Store under a root directory.
type Store struct {
	root string
	now  func() time.Time
}

// New returns a store rooted at root, creating the directory when needed.
func New(root string) (*Store, error) {
	if root == "" {
		root = "./reports"
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, err
	}
	return &Store{root: root, now: func() time.Time { return time.Now().UTC() }}, nil
}

// Root returns the directory blobs are written under.
func (s *Store) Root() string { return s.root }

// Driver returns the blob driver identifier.
func (s *Store) Driver() core.Driver { return core.DriverFilesystem }

// cleanKey rejects keys that are empty, absolute, or escape the root.
func cleanKey(key string) (string, error) {
	if strings.TrimSpace(key) == "" {
		return "", fmt.Errorf("empty key")
	}
	if strings.HasPrefix(key, "/") || filepath.IsAbs(key) {
		return "", fmt.Errorf("invalid absolute key %q", key)
	}
	for _, part := range strings.Split(filepath.ToSlash(key), "/") {
		if part == ".." {
			return "", fmt.Errorf("invalid key %q", key)
		}
	}
	clean := filepath.ToSlash(filepath.Clean(key))
	if strings.HasSuffix(clean, metaSuffix) {
		return "", fmt.Errorf("reserved key suffix %q", metaSuffix)
	}
	return clean, nil
}

func (s *Store) paths(key string) (data, meta string, err error) {
	k, err := cleanKey(key)
	if err != nil {
		return "", "", err
	}
	data = filepath.Join(s.root, filepath.FromSlash(k))
	return data, data + metaSuffix, nil
}

type sidecar struct {
	ContentType string            `json:"content_type,omitempty"`
	Metadata    map[string]string `json:"metadata,omitempty"`
	ETag        string            `json:"etag"`
	Size        int64             `json:"size"`
	CreatedAt   time.Time         `json:"created_at"`
}

func (m sidecar) info(key string) core.Info {
	return core.Info{Key: key, Size: m.Size, ContentType: m.ContentType, ETag: m.ETag, Metadata: core.CloneMetadata(m.Metadata), LastModified: m.CreatedAt}
}

// Put writes the blob through a temp file and renames it into place.
func (s *Store) Put(ctx context.Context, key string, r io.Reader, opts core.PutOptions) (core.Info, error) {
	if err := ctx.Err(); err != nil {
		return core.Info{}, err
	}
	dataPath, metaPath, err := s.paths(key)
	if err != nil {
		return core.Info{}, err
	}
	if _, err := os.Stat(dataPath); err == nil {
		return core.Info{}, fmt.Errorf("blob %s: %w", key, core.ErrExists)
	}
	if err := os.MkdirAll(filepath.Dir(dataPath), 0o755); err != nil {
		return core.Info{}, err
	}
	tmp, err := os.CreateTemp(filepath.Dir(dataPath), ".tmp-*")
	if err != nil {
		return core.Info{}, err
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	h := sha256.New()
	size, err := io.Copy(io.MultiWriter(tmp, h), r)
	if err == nil {
		err = tmp.Sync()
	}
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return core.Info{}, err
	}

	meta := sidecar{
		ContentType: opts.ContentType,
		Metadata:    core.CloneMetadata(opts.Metadata),
		ETag:        hex.EncodeToString(h.Sum(nil)),
		Size:        size,
		CreatedAt:   s.now(),
	}
	b, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return core.Info{}, err
	}
	if err := os.WriteFile(metaPath, b, 0o644); err != nil {
		return core.Info{}, err
	}
	if err := os.Rename(tmp.Name(), dataPath); err != nil {
		_ = os.Remove(metaPath)
		return core.Info{}, err
	}
	return meta.info(key), nil
}

// Get opens the blob for reading.
func (s *Store) Get(_ context.Context, key string) (core.Info, io.ReadCloser, error) {
	dataPath, metaPath, err := s.paths(key)
	if err != nil {
		return core.Info{}, nil, err
	}
	meta, err := readSidecar(metaPath)
	if err != nil {
		return core.Info{}, nil, notFound(key, err)
	}
	file, err := os.Open(dataPath)
	if err != nil {
		return core.Info{}, nil, notFound(key, err)
	}
	return meta.info(key), file, nil
}

// Head returns blob metadata only.
func (s *Store) Head(_ context.Context, key string) (core.Info, error) {
	dataPath, metaPath, err := s.paths(key)
	if err != nil {
		return core.Info{}, err
	}
	if _, err := os.Stat(dataPath); err != nil {
		return core.Info{}, notFound(key, err)
	}
	meta, err := readSidecar(metaPath)
	if err != nil {
		return core.Info{}, notFound(key, err)
	}
	return meta.info(key), nil
}

// Delete removes the blob and its sidecar.
func (s *Store) Delete(_ context.Context, key string) (bool, error) {
	dataPath, metaPath, err := s.paths(key)
	if err != nil {
		return false, err
	}
	if err := os.Remove(dataPath); err != nil {
		if errors.Is(err, iofs.ErrNotExist) {
			return false, nil
		}
		return false, err
	}
	_ = os.Remove(metaPath)
	return true, nil
}

// List walks the root for sidecars whose key starts with prefix.
func (s *Store) List(_ context.Context, prefix string) ([]core.Info, error) {
	var infos []core.Info
	err := filepath.WalkDir(s.root, func(path string, d iofs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(path, metaSuffix) {
			return nil
		}
		rel, err := filepath.Rel(s.root, strings.TrimSuffix(path, metaSuffix))
		if err != nil {
			return err
		}
		key := filepath.ToSlash(rel)
		if !strings.HasPrefix(key, prefix) {
			return nil
		}
		meta, err := readSidecar(path)
		if err != nil {
			return fmt.Errorf("read %s: %w", path, err)
		}
		infos = append(infos, meta.info(key))
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Key < infos[j].Key })
	return infos, nil
}

func readSidecar(path string) (sidecar, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return sidecar{}, err
	}
	var meta sidecar
	if err := json.Unmarshal(b, &meta); err != nil {
		return sidecar{}, err
	}
	return meta, nil
}

func notFound(key string, err error) error {
	if errors.Is(err, iofs.ErrNotExist) {
		return fmt.Errorf("blob %s: %w", key, core.ErrNotFound)
	}
	return err
}
