package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/Agrid-Dev/coldload/internal/coldroom"
)

// FileStore keeps one file per record under Dir/<project>/<key><ext>.
// The extension picks the codec: ".json", ".yaml" or ".yml".
type FileStore struct {
	dir string
	ext string
	mu  sync.Mutex
}

func NewFileStore(dir, ext string) (*FileStore, error) {
	if ext == "" {
		ext = ".json"
	}
	ext = strings.ToLower(ext)
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	if _, err := codecFor(ext); err != nil {
		return nil, err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create store dir: %w", err)
	}
	return &FileStore{dir: dir, ext: ext}, nil
}

func (f *FileStore) path(projectID string, name RecordName) string {
	return filepath.Join(f.dir, projectID, name.Key()+f.ext)
}

func (f *FileStore) Load(_ context.Context, projectID string, name RecordName) (coldroom.Record, error) {
	if err := checkArgs(projectID, name); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	data, err := os.ReadFile(f.path(projectID, name))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("read record: %w", err)
	}
	return decodeRecord(f.ext, data)
}

func (f *FileStore) Save(_ context.Context, projectID string, name RecordName, rec coldroom.Record) error {
	if err := checkArgs(projectID, name); err != nil {
		return err
	}
	data, err := encodeRecord(f.ext, rec)
	if err != nil {
		return err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	p := f.path(projectID, name)
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return fmt.Errorf("create project dir: %w", err)
	}
	tmp := p + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write record: %w", err)
	}
	if err := os.Rename(tmp, p); err != nil {
		return fmt.Errorf("write record: %w", err)
	}
	return nil
}

func (f *FileStore) Delete(_ context.Context, projectID string, name RecordName) error {
	if err := checkArgs(projectID, name); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := os.Remove(f.path(projectID, name)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("delete record: %w", err)
	}
	return nil
}

func (f *FileStore) Close() error { return nil }

type codec struct {
	marshal   func(any) ([]byte, error)
	unmarshal func([]byte, any) error
}

func codecFor(ext string) (codec, error) {
	switch strings.ToLower(ext) {
	case ".json":
		return codec{
			marshal:   func(v any) ([]byte, error) { return json.MarshalIndent(v, "", "  ") },
			unmarshal: json.Unmarshal,
		}, nil
	case ".yaml", ".yml":
		return codec{marshal: yaml.Marshal, unmarshal: yaml.Unmarshal}, nil
	default:
		return codec{}, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
}

func encodeRecord(ext string, rec coldroom.Record) ([]byte, error) {
	c, err := codecFor(ext)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		rec = coldroom.Record{}
	}
	data, err := c.marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("encode record: %w", err)
	}
	return data, nil
}

func decodeRecord(ext string, data []byte) (coldroom.Record, error) {
	c, err := codecFor(ext)
	if err != nil {
		return nil, err
	}
	rec := coldroom.Record{}
	if err := c.unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("decode record: %w", err)
	}
	return rec, nil
}

// inputsDocument is the on-disk layout of a calculation input file.
type inputsDocument struct {
	Room         coldroom.Record `json:"room" yaml:"room"`
	Conditions   coldroom.Record `json:"conditions" yaml:"conditions"`
	Construction coldroom.Record `json:"construction" yaml:"construction"`
	Product      coldroom.Record `json:"product" yaml:"product"`
}

// ReadInputsFile reads a yaml or json document with room, conditions,
// construction and product sections. Construction is merged over room.
func ReadInputsFile(path string) (coldroom.Inputs, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return coldroom.Inputs{}, fmt.Errorf("read inputs: %w", err)
	}
	c, err := codecFor(filepath.Ext(path))
	if err != nil {
		return coldroom.Inputs{}, err
	}
	var doc inputsDocument
	if err := c.unmarshal(data, &doc); err != nil {
		return coldroom.Inputs{}, fmt.Errorf("parse inputs: %w", err)
	}
	return coldroom.Inputs{
		Room:       coldroom.MergeRecords(doc.Room, doc.Construction),
		Conditions: doc.Conditions,
		Product:    doc.Product,
	}, nil
}
