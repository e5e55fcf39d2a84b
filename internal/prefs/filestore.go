package prefs

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/renameio/v2"
	"gopkg.in/yaml.v3"

	"github.com/muurk/musikremote/internal/logging"
	"go.uber.org/zap"
)

const fileVersion = 1

// fileDocument is the on-disk layout of prefs.yaml
type fileDocument struct {
	Version int            `yaml:"version"`
	Prefs   map[string]any `yaml:"prefs"`
}

// FileStore is a Store persisted as a YAML document.
//
// Reads are served from an in-memory snapshot. A commit builds the next
// snapshot, writes it to a pending file, fsyncs and renames it over the
// original, and only then swaps the snapshot in.
type FileStore struct {
	path string

	mu   sync.RWMutex
	data map[Key]Value
}

// OpenFileStore loads path, or starts empty if it does not exist yet.
func OpenFileStore(path string) (*FileStore, error) {
	s := &FileStore{path: filepath.Clean(path)}
	data, err := readFileDocument(s.path)
	if err != nil {
		return nil, err
	}
	s.data = data
	return s, nil
}

// Path returns the backing file path
func (s *FileStore) Path() string { return s.path }

// Get implements Store
func (s *FileStore) Get(key Key, kind Kind) (Value, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	v, ok := s.data[key]
	if !ok || v.Kind() != kind {
		return Value{}, false
	}
	return v, true
}

// CommitBatch implements Store
func (s *FileStore) CommitBatch(entries []Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := applyEntries(s.data, entries)
	if err := writeFileDocument(s.path, next); err != nil {
		return err
	}
	s.data = next

	logging.Debug("Preferences written",
		zap.String("path", s.path),
		zap.Int("entries", len(entries)),
	)
	return nil
}

// Refresh re-reads the backing file, picking up writes from other processes.
// On error the current snapshot is kept.
func (s *FileStore) Refresh() error {
	data, err := readFileDocument(s.path)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.data = data
	s.mu.Unlock()
	return nil
}

func readFileDocument(path string) (map[Key]Value, error) {
	// #nosec G304 -- path comes from the app config directory or an explicit flag.
	raw, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return map[Key]Value{}, nil
		}
		return nil, newIOError("read", path, err)
	}

	var doc fileDocument
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, newDecodeError("parse", path, err)
	}
	if doc.Version != 0 && doc.Version != fileVersion {
		return nil, newDecodeError("parse", path,
			fmt.Errorf("unsupported prefs version: %d (expected %d)", doc.Version, fileVersion))
	}

	data := make(map[Key]Value, len(doc.Prefs))
	for k, raw := range doc.Prefs {
		v, ok := fromNative(raw)
		if !ok {
			logging.Warn("Ignoring preference with unsupported type",
				zap.String("path", path),
				zap.String("key", k),
				zap.String("type", fmt.Sprintf("%T", raw)),
			)
			continue
		}
		data[Key(k)] = v
	}
	return data, nil
}

func writeFileDocument(path string, data map[Key]Value) error {
	doc := fileDocument{
		Version: fileVersion,
		Prefs:   make(map[string]any, len(data)),
	}
	for k, v := range data {
		doc.Prefs[string(k)] = v.native()
	}

	var buf bytes.Buffer
	buf.WriteString("# musikremote preferences - edit with 'musikremote set'\n")
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return newEncodeError("encode", path, err)
	}
	if err := enc.Close(); err != nil {
		return newEncodeError("encode", path, err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return newIOError("create directory for", path, err)
	}

	pending, err := renameio.NewPendingFile(path, renameio.WithPermissions(0o600))
	if err != nil {
		return newIOError("create pending file for", path, err)
	}
	defer func() {
		// no-op once CloseAtomicallyReplace has succeeded
		_ = pending.Cleanup()
	}()

	if _, err := pending.Write(buf.Bytes()); err != nil {
		return newIOError("write", path, err)
	}
	if err := pending.CloseAtomicallyReplace(); err != nil {
		return newIOError("replace", path, err)
	}
	return nil
}
