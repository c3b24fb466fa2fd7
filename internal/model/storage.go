// Ratewise - Hotel Dynamic Room-Rate Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ratewise

package model

import (
	"bytes"
	"compress/gzip"
	"crypto/sha256"
	"encoding/gob"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"
)

// ErrNoArtifact is returned by Load when no version of a model is stored.
var ErrNoArtifact = errors.New("no stored model")

const artifactExt = ".gob.gz"

// Metadata describes a stored artifact.
type Metadata struct {
	Name      string    `json:"name"`
	Version   int       `json:"version"`
	TrainedAt time.Time `json:"trained_at"`
	SavedAt   time.Time `json:"saved_at"`

	Samples int     `json:"samples"`
	Metrics Metrics `json:"metrics"`

	// Checksum is the SHA-256 of the uncompressed artifact encoding.
	Checksum  string `json:"checksum"`
	SizeBytes int64  `json:"size_bytes"`

	TrainingDurationMS int64 `json:"training_duration_ms"`
}

// storedFile is the on-disk layout: gob-encoded metadata plus the
// gzip-compressed gob encoding of the artifact.
type storedFile struct {
	Metadata       Metadata
	CompressedData []byte
}

// Store persists versioned artifacts as {name}_v{version}.gob.gz in a
// directory. It is safe for concurrent use.
type Store struct {
	dir string
	mu  sync.RWMutex

	versions map[string]int
}

// NewStore opens (creating if needed) an artifact directory.
func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("create model directory: %w", err)
	}
	s := &Store{dir: dir, versions: make(map[string]int)}

	all, err := s.scan()
	if err != nil {
		return nil, fmt.Errorf("scan model directory: %w", err)
	}
	for name, versions := range all {
		s.versions[name] = versions[0]
	}
	return s, nil
}

// scan returns every stored version per model name, newest first.
func (s *Store) scan() (map[string][]int, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, err
	}
	out := make(map[string][]int)
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), artifactExt) {
			continue
		}
		name, version, ok := parseArtifactName(strings.TrimSuffix(entry.Name(), artifactExt))
		if !ok {
			continue
		}
		out[name] = append(out[name], version)
	}
	for name := range out {
		sort.Sort(sort.Reverse(sort.IntSlice(out[name])))
	}
	return out, nil
}

// parseArtifactName splits "daily_rate_v3" into ("daily_rate", 3).
func parseArtifactName(base string) (string, int, bool) {
	i := strings.LastIndex(base, "_v")
	if i <= 0 {
		return "", 0, false
	}
	version, err := strconv.Atoi(base[i+2:])
	if err != nil || version <= 0 {
		return "", 0, false
	}
	return base[:i], version, true
}

func (s *Store) path(name string, version int) string {
	return filepath.Join(s.dir, fmt.Sprintf("%s_v%d%s", name, version, artifactExt))
}

// Save writes art as the given version. The file is written to a temporary
// name and renamed so readers never see a partial artifact.
//
//nolint:gocritic // meta is filled in and written, a copy is intended
func (s *Store) Save(name string, version int, art *Artifact, meta Metadata) (Metadata, error) {
	var raw bytes.Buffer
	if err := gob.NewEncoder(&raw).Encode(art); err != nil {
		return Metadata{}, fmt.Errorf("encode model: %w", err)
	}
	sum := sha256.Sum256(raw.Bytes())

	var compressed bytes.Buffer
	gzw := gzip.NewWriter(&compressed)
	if _, err := gzw.Write(raw.Bytes()); err != nil {
		return Metadata{}, fmt.Errorf("compress model: %w", err)
	}
	if err := gzw.Close(); err != nil {
		return Metadata{}, fmt.Errorf("finalize compression: %w", err)
	}

	meta.Name = name
	meta.Version = version
	meta.Checksum = hex.EncodeToString(sum[:])
	meta.SizeBytes = int64(compressed.Len())
	meta.SavedAt = time.Now().UTC()

	s.mu.Lock()
	defer s.mu.Unlock()

	final := s.path(name, version)
	tmp, err := os.CreateTemp(s.dir, filepath.Base(final)+".tmp-*")
	if err != nil {
		return Metadata{}, fmt.Errorf("create model file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }() //nolint:errcheck // no-op after a successful rename

	if err := gob.NewEncoder(tmp).Encode(storedFile{Metadata: meta, CompressedData: compressed.Bytes()}); err != nil {
		_ = tmp.Close()
		return Metadata{}, fmt.Errorf("write model file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return Metadata{}, fmt.Errorf("close model file: %w", err)
	}
	if err := os.Rename(tmpName, final); err != nil {
		return Metadata{}, fmt.Errorf("publish model file: %w", err)
	}

	if version > s.versions[name] {
		s.versions[name] = version
	}
	return meta, nil
}

// Load reads a stored artifact. Version 0 means the latest.
func (s *Store) Load(name string, version int) (*Artifact, Metadata, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if version == 0 {
		latest, ok := s.versions[name]
		if !ok {
			return nil, Metadata{}, fmt.Errorf("%w: %s", ErrNoArtifact, name)
		}
		version = latest
	}

	f, err := os.Open(s.path(name, version))
	if err != nil {
		return nil, Metadata{}, fmt.Errorf("open model file: %w", err)
	}
	defer func() { _ = f.Close() }() //nolint:errcheck // read-only file

	var sf storedFile
	if err := gob.NewDecoder(f).Decode(&sf); err != nil {
		return nil, Metadata{}, fmt.Errorf("read model file: %w", err)
	}

	gzr, err := gzip.NewReader(bytes.NewReader(sf.CompressedData))
	if err != nil {
		return nil, Metadata{}, fmt.Errorf("decompress model: %w", err)
	}
	defer func() { _ = gzr.Close() }() //nolint:errcheck // in-memory reader

	raw, err := io.ReadAll(gzr)
	if err != nil {
		return nil, Metadata{}, fmt.Errorf("read decompressed model: %w", err)
	}

	sum := sha256.Sum256(raw)
	if got := hex.EncodeToString(sum[:]); got != sf.Metadata.Checksum {
		return nil, Metadata{}, fmt.Errorf("checksum mismatch: expected %s, got %s", sf.Metadata.Checksum, got)
	}

	var art Artifact
	if err := gob.NewDecoder(bytes.NewReader(raw)).Decode(&art); err != nil {
		return nil, Metadata{}, fmt.Errorf("decode model: %w", err)
	}
	return &art, sf.Metadata, nil
}

// LatestVersion returns the newest stored version of name.
func (s *Store) LatestVersion(name string) (int, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.versions[name]
	return v, ok
}

// Prune deletes all but the newest keep versions of name.
func (s *Store) Prune(name string, keep int) (int, error) {
	if keep < 1 {
		keep = 1
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	all, err := s.scan()
	if err != nil {
		return 0, fmt.Errorf("scan model directory: %w", err)
	}
	versions := all[name]
	removed := 0
	for i := keep; i < len(versions); i++ {
		if err := os.Remove(s.path(name, versions[i])); err != nil && !os.IsNotExist(err) {
			return removed, fmt.Errorf("remove model v%d: %w", versions[i], err)
		}
		removed++
	}
	return removed, nil
}
