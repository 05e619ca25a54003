package migration

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
)

// FileFlag implements FlagStore as a marker file on disk, deliberately kept
// outside the indexed store's database file.
type FileFlag struct {
	path string
}

// NewFileFlag creates a FlagStore backed by the marker file at path.
func NewFileFlag(path string) *FileFlag {
	return &FileFlag{path: path}
}

// Done reports whether the marker file exists.
func (f *FileFlag) Done() (bool, error) {
	_, err := os.Stat(f.path)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	return false, fmt.Errorf("checking migration flag: %w", err)
}

// MarkDone writes the marker file.
func (f *FileFlag) MarkDone() error {
	if err := os.WriteFile(f.path, []byte("done\n"), 0644); err != nil {
		return fmt.Errorf("writing migration flag: %w", err)
	}
	return nil
}

// FileLegacyStore implements LegacyStore over a single JSON file holding a
// map of string keys to raw serialized values.
type FileLegacyStore struct {
	path string
}

// NewFileLegacyStore creates a LegacyStore backed by the JSON file at path.
func NewFileLegacyStore(path string) *FileLegacyStore {
	return &FileLegacyStore{path: path}
}

func (l *FileLegacyStore) load() (map[string]json.RawMessage, error) {
	data, err := os.ReadFile(l.path)
	if errors.Is(err, fs.ErrNotExist) {
		return map[string]json.RawMessage{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading legacy storage: %w", err)
	}

	values := make(map[string]json.RawMessage)
	if err := json.Unmarshal(data, &values); err != nil {
		return nil, fmt.Errorf("unmarshaling legacy storage: %w", err)
	}
	return values, nil
}

// Get returns the raw value for key and whether it exists.
func (l *FileLegacyStore) Get(key string) ([]byte, bool, error) {
	values, err := l.load()
	if err != nil {
		return nil, false, err
	}
	raw, ok := values[key]
	if !ok {
		return nil, false, nil
	}
	return raw, true, nil
}

// Delete removes key, rewriting the file with the remaining entries. The
// file itself is removed once the last key is gone.
func (l *FileLegacyStore) Delete(key string) error {
	values, err := l.load()
	if err != nil {
		return err
	}
	if _, ok := values[key]; !ok {
		return nil
	}
	delete(values, key)

	if len(values) == 0 {
		if err := os.Remove(l.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("removing legacy storage: %w", err)
		}
		return nil
	}

	data, err := json.Marshal(values)
	if err != nil {
		return fmt.Errorf("marshaling legacy storage: %w", err)
	}
	if err := os.WriteFile(l.path, data, 0644); err != nil {
		return fmt.Errorf("writing legacy storage: %w", err)
	}
	return nil
}
