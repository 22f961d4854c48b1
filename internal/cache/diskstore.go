package cache

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/andybalholm/brotli"

	"github.com/openkaspa/market-gateway/internal/logger"
)

const (
	payloadExt = ".json.br"
	metaExt    = ".meta.json"
)

// diskMetadata is stored alongside each payload file.
type diskMetadata struct {
	CachedAt   int64  `json:"cached_at"`
	TTLSeconds int64  `json:"ttl_seconds"`
	Source     string `json:"source"`
}

// DiskStore persists cache payloads beyond the fast tier's horizon,
// surviving process restarts. Entries are brotli-compressed JSON files
// grouped in per-category directories, each with a metadata sidecar.
//
// Writes are ordered payload-first (via temp file + rename) and metadata
// last, so IsValid never reports true for a half-written entry.
type DiskStore struct {
	baseDir string
	source  string
	now     func() time.Time
}

// NewDiskStore creates a store rooted at baseDir, creating it if needed.
func NewDiskStore(baseDir string) (*DiskStore, error) {
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("create cache directory %s: %w", baseDir, err)
	}
	return &DiskStore{
		baseDir: baseDir,
		source:  "market-gateway",
		now:     time.Now,
	}, nil
}

// sanitizeKey makes a cache key safe to use as a file name.
func sanitizeKey(key string) string {
	key = strings.ReplaceAll(key, "..", "_")
	replacer := strings.NewReplacer("/", "_", "\\", "_", string(os.PathSeparator), "_", "\x00", "_")
	return replacer.Replace(key)
}

func (s *DiskStore) payloadPath(category, key string) string {
	return filepath.Join(s.baseDir, category, sanitizeKey(key)+payloadExt)
}

func (s *DiskStore) metaPath(category, key string) string {
	return filepath.Join(s.baseDir, category, sanitizeKey(key)+metaExt)
}

// IsValid reports whether an entry exists and is younger than maxAge. A
// missing payload, missing metadata, or unreadable metadata all yield false;
// an unverifiable entry is never trusted.
func (s *DiskStore) IsValid(category, key string, maxAge time.Duration) bool {
	if _, err := os.Stat(s.payloadPath(category, key)); err != nil {
		return false
	}

	meta, err := s.readMetadata(category, key)
	if err != nil {
		return false
	}

	age := s.now().Sub(time.Unix(meta.CachedAt, 0))
	return age >= 0 && age < maxAge
}

func (s *DiskStore) readMetadata(category, key string) (*diskMetadata, error) {
	raw, err := os.ReadFile(s.metaPath(category, key))
	if err != nil {
		return nil, err
	}
	var meta diskMetadata
	if err := json.Unmarshal(raw, &meta); err != nil {
		return nil, err
	}
	return &meta, nil
}

// Write persists payload under (category, key) with the given TTL recorded
// in the metadata sidecar. The payload lands first; a reader that observes
// the metadata is guaranteed a complete payload.
func (s *DiskStore) Write(category, key string, payload []byte, ttl time.Duration) error {
	dir := filepath.Join(s.baseDir, category)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create category directory %s: %w", category, err)
	}

	if err := s.writeCompressed(s.payloadPath(category, key), payload); err != nil {
		return fmt.Errorf("write payload %s/%s: %w", category, key, err)
	}

	meta := diskMetadata{
		CachedAt:   s.now().Unix(),
		TTLSeconds: int64(ttl / time.Second),
		Source:     s.source,
	}
	raw, err := json.Marshal(meta)
	if err != nil {
		return err
	}
	if err := atomicWriteFile(s.metaPath(category, key), raw); err != nil {
		return fmt.Errorf("write metadata %s/%s: %w", category, key, err)
	}

	logger.Debug("wrote cache entry", "category", category, "key", key, "bytes", len(payload))
	return nil
}

func (s *DiskStore) writeCompressed(path string, payload []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".tmp-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	bw := brotli.NewWriter(tmp)
	if _, err := bw.Write(payload); err != nil {
		tmp.Close()
		return err
	}
	if err := bw.Close(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

func atomicWriteFile(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".tmp-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

// Read returns the payload stored under (category, key), or (nil, nil) when
// no entry exists. Staleness is the caller's concern via IsValid; a stale
// but present entry still reads successfully.
func (s *DiskStore) Read(category, key string) ([]byte, error) {
	f, err := os.Open(s.payloadPath(category, key))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("open payload %s/%s: %w", category, key, err)
	}
	defer f.Close()

	payload, err := io.ReadAll(brotli.NewReader(f))
	if err != nil {
		return nil, fmt.Errorf("read payload %s/%s: %w", category, key, err)
	}
	return payload, nil
}

// Delete removes both the payload and metadata for (category, key).
// Deleting a non-existent entry is not an error.
func (s *DiskStore) Delete(category, key string) error {
	for _, path := range []string{s.payloadPath(category, key), s.metaPath(category, key)} {
		if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("delete %s: %w", path, err)
		}
	}
	logger.Debug("deleted cache entry", "category", category, "key", key)
	return nil
}

// ListKeys returns the keys of all entries stored in a category.
func (s *DiskStore) ListKeys(category string) ([]string, error) {
	entries, err := os.ReadDir(filepath.Join(s.baseDir, category))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}

	var keys []string
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasSuffix(name, payloadExt) {
			keys = append(keys, strings.TrimSuffix(name, payloadExt))
		}
	}
	return keys, nil
}

// CleanupExpired deletes entries in a category older than maxAge and reports
// how many were removed. Purely a space-reclaim pass; correctness never
// depends on it running.
func (s *DiskStore) CleanupExpired(category string, maxAge time.Duration) (int, error) {
	keys, err := s.ListKeys(category)
	if err != nil {
		return 0, err
	}

	deleted := 0
	for _, key := range keys {
		if !s.IsValid(category, key, maxAge) {
			if err := s.Delete(category, key); err != nil {
				return deleted, err
			}
			deleted++
		}
	}

	if deleted > 0 {
		logger.Info("cleaned up expired cache entries", "category", category, "deleted", deleted)
	}
	return deleted, nil
}

// CategoryFootprint is the on-disk footprint of one category.
type CategoryFootprint struct {
	Keys  int   `json:"keys"`
	Bytes int64 `json:"size_bytes"`
}

// Footprint returns the per-category on-disk footprint of the store.
func (s *DiskStore) Footprint() (map[string]CategoryFootprint, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		return nil, err
	}

	result := make(map[string]CategoryFootprint)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		category := entry.Name()
		keys, err := s.ListKeys(category)
		if err != nil {
			continue
		}
		var bytes int64
		for _, key := range keys {
			if info, err := os.Stat(s.payloadPath(category, key)); err == nil {
				bytes += info.Size()
			}
		}
		result[category] = CategoryFootprint{Keys: len(keys), Bytes: bytes}
	}
	return result, nil
}

// BasePath returns the root directory of the store.
func (s *DiskStore) BasePath() string {
	return s.baseDir
}
