package state

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// FileStore keeps one YAML file per profile at Dir/<module>/<profile>.yaml.
type FileStore struct {
	Dir string
}

type profileFile struct {
	Meta   Meta     `yaml:"meta"`
	Values Snapshot `yaml:"values"`
}

func (s FileStore) path(ref Ref) (string, error) {
	if s.Dir == "" {
		return "", fmt.Errorf("state: file store directory is required")
	}
	key, err := ref.Identifier()
	if err != nil {
		return "", err
	}
	return filepath.Join(s.Dir, filepath.FromSlash(key)+".yaml"), nil
}

func (s FileStore) Load(ctx context.Context, ref Ref) (Snapshot, Meta, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, Meta{}, false, err
	}
	path, err := s.path(ref)
	if err != nil {
		return nil, Meta{}, false, err
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, Meta{}, false, nil
	}
	if err != nil {
		return nil, Meta{}, false, err
	}
	var file profileFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, Meta{}, false, fmt.Errorf("parse %s: %w", path, err)
	}
	if file.Values == nil {
		file.Values = Snapshot{}
	}
	return file.Values, file.Meta, true, nil
}

// Save writes the profile through a temporary file and rename.
func (s FileStore) Save(ctx context.Context, ref Ref, snapshot Snapshot, meta Meta) (Meta, error) {
	if err := ctx.Err(); err != nil {
		return Meta{}, err
	}
	path, err := s.path(ref)
	if err != nil {
		return Meta{}, err
	}
	data, err := yaml.Marshal(profileFile{Meta: meta, Values: snapshot})
	if err != nil {
		return Meta{}, err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return Meta{}, err
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".profile-*")
	if err != nil {
		return Meta{}, err
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return Meta{}, err
	}
	if err := tmp.Close(); err != nil {
		return Meta{}, err
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return Meta{}, err
	}
	return meta, nil
}
