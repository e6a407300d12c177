package stations

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
)

// Persister stores the station list and the deleted-defaults set as JSON
// blobs. Load methods return nil with no error when nothing has been saved
// yet.
type Persister interface {
	SaveStations(list []Station) error
	LoadStations() ([]Station, error)
	SaveDeletedDefaults(urls []string) error
	LoadDeletedDefaults() ([]string, error)
}

const (
	stationsFile        = "stations.json"
	deletedDefaultsFile = "deleted_defaults.json"
)

// FileStore is a Persister writing JSON files under a directory.
type FileStore struct {
	dir string
}

func NewFileStore(dir string) *FileStore {
	return &FileStore{dir: dir}
}

func (f *FileStore) SaveStations(list []Station) error {
	return f.writeJSON(stationsFile, list)
}

func (f *FileStore) LoadStations() ([]Station, error) {
	var list []Station
	if err := f.readJSON(stationsFile, &list); err != nil {
		return nil, err
	}
	return list, nil
}

func (f *FileStore) SaveDeletedDefaults(urls []string) error {
	if urls == nil {
		urls = []string{}
	}
	return f.writeJSON(deletedDefaultsFile, urls)
}

func (f *FileStore) LoadDeletedDefaults() ([]string, error) {
	var urls []string
	if err := f.readJSON(deletedDefaultsFile, &urls); err != nil {
		return nil, err
	}
	return urls, nil
}

// writeJSON writes through a temp file and renames so a crash mid-write
// never leaves a truncated blob behind.
func (f *FileStore) writeJSON(name string, v interface{}) error {
	if err := os.MkdirAll(f.dir, 0o755); err != nil {
		return errors.Wrap(err, "failed to create store directory")
	}

	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return errors.Wrap(err, "failed to marshal "+name)
	}

	tmp, err := os.CreateTemp(f.dir, name+".tmp")
	if err != nil {
		return errors.Wrap(err, "failed to create temp file")
	}

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		_ = os.Remove(tmp.Name())
		return errors.Wrap(err, "failed to write "+name)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return errors.Wrap(err, "failed to close temp file")
	}

	if err := os.Rename(tmp.Name(), filepath.Join(f.dir, name)); err != nil {
		_ = os.Remove(tmp.Name())
		return errors.Wrap(err, "failed to commit "+name)
	}
	return nil
}

func (f *FileStore) readJSON(name string, v interface{}) error {
	data, err := os.ReadFile(filepath.Join(f.dir, name))
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return errors.Wrap(err, "failed to read "+name)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return errors.Wrap(err, "failed to parse "+name)
	}
	return nil
}
