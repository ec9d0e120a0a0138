package cache

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// DiskCache persists vectors, one file per key:
// magic "FCV1" | expiry unix nanos int64 | dim uint32 | dim x float32,
// all little-endian.
type DiskCache struct {
	dir string
	ttl time.Duration
}

var diskMagic = [4]byte{'F', 'C', 'V', '1'}

const diskHeaderSize = 4 + 8 + 4

// NewDiskCache creates a disk cache under dir
func NewDiskCache(dir string, ttl time.Duration) *DiskCache {
	if ttl <= 0 {
		ttl = 7 * 24 * time.Hour
	}
	return &DiskCache{
		dir: dir,
		ttl: ttl,
	}
}

// Get reads a vector. Expired or unreadable files are removed and miss.
func (c *DiskCache) Get(key string) ([]float32, bool) {
	path := c.path(key)

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, false
	}
	vec, expires, err := decodeEntry(data)
	if err != nil || time.Now().After(expires) {
		_ = os.Remove(path)
		return nil, false
	}
	return vec, true
}

// Set writes a vector; ttl 0 uses the cache default
func (c *DiskCache) Set(key string, vec []float32, ttl time.Duration) error {
	if len(vec) == 0 {
		return ErrEmptyVector
	}
	if ttl == 0 {
		ttl = c.ttl
	}
	data := encodeEntry(vec, time.Now().Add(ttl))

	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		return fmt.Errorf("create cache dir: %w", err)
	}

	// Write then rename so concurrent readers never see a partial file
	tmp, err := os.CreateTemp(c.dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("write cache file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("write cache file: %w", err)
	}
	if err := os.Rename(tmp.Name(), c.path(key)); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("write cache file: %w", err)
	}
	return nil
}

// Delete removes a vector; a missing entry is not an error
func (c *DiskCache) Delete(key string) error {
	err := os.Remove(c.path(key))
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

// Clear removes the cache directory
func (c *DiskCache) Clear() error {
	return os.RemoveAll(c.dir)
}

// path maps a key to a file name; ':' is not portable in file names
func (c *DiskCache) path(key string) string {
	name := strings.ReplaceAll(key, ":", "_")
	return filepath.Join(c.dir, name+".vec")
}

func encodeEntry(vec []float32, expires time.Time) []byte {
	buf := make([]byte, diskHeaderSize+4*len(vec))
	copy(buf, diskMagic[:])
	binary.LittleEndian.PutUint64(buf[4:], uint64(expires.UnixNano()))
	binary.LittleEndian.PutUint32(buf[12:], uint32(len(vec)))
	for i, f := range vec {
		binary.LittleEndian.PutUint32(buf[diskHeaderSize+4*i:], math.Float32bits(f))
	}
	return buf
}

func decodeEntry(data []byte) ([]float32, time.Time, error) {
	if len(data) < diskHeaderSize || !bytes.Equal(data[:4], diskMagic[:]) {
		return nil, time.Time{}, errors.New("not a vector cache entry")
	}
	expires := time.Unix(0, int64(binary.LittleEndian.Uint64(data[4:])))
	dim := int(binary.LittleEndian.Uint32(data[12:]))
	if dim == 0 || len(data) != diskHeaderSize+4*dim {
		return nil, time.Time{}, fmt.Errorf("truncated vector entry: %d bytes for dimension %d", len(data), dim)
	}
	vec := make([]float32, dim)
	for i := range vec {
		vec[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[diskHeaderSize+4*i:]))
	}
	return vec, expires, nil
}
