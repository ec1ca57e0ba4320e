// Package config implements ports.ConfigStore, reading and writing the
// daemon's three JSON configuration documents (spec §6.3: factory, startup,
// failure). Grounded on the teacher's internal/infrastructure/config
// package for its shape (a loader type wrapping a validator singleton,
// converting validation-library errors into confderr.DomainError), adapted
// from YAML pipeline definitions to a thin JSON envelope around a
// schema-free configuration tree.
package config

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/kernelkit/confd/internal/domain/confderr"
	"github.com/kernelkit/confd/internal/domain/configtree"
	"github.com/kernelkit/confd/internal/ports"
)

var (
	validatorInstance *validator.Validate
	validatorOnce     sync.Once
)

func getValidator() *validator.Validate {
	validatorOnce.Do(func() {
		validatorInstance = validator.New()
	})
	return validatorInstance
}

// envelope is the small, versioned wrapper around the schema-free
// configuration tree. Only this wrapper is validated with go-playground's
// validator; the Tree field's contents are opaque JSON per spec §6.
type envelope struct {
	FormatVersion int             `json:"format_version" validate:"required,gte=1"`
	Source        string          `json:"source" validate:"required"`
	Tree          json.RawMessage `json:"tree" validate:"required"`
}

// Store is the filesystem-backed ports.ConfigStore.
type Store struct{}

var _ ports.ConfigStore = (*Store)(nil)

// New returns a Store.
func New() *Store {
	return &Store{}
}

func (s *Store) load(ctx context.Context, path string) (*configtree.Tree, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, confderr.Wrap(confderr.ErrCodeNotFound, "configuration document not found", err,
				map[string]interface{}{"path": path})
		}
		return nil, confderr.Wrap(confderr.ErrCodeInternal, "read configuration document", err,
			map[string]interface{}{"path": path})
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, confderr.Wrap(confderr.ErrCodeValidation, "parse configuration envelope", err,
			map[string]interface{}{"path": path})
	}
	if err := getValidator().Struct(env); err != nil {
		return nil, confderr.Wrap(confderr.ErrCodeValidation, "validate configuration envelope", err,
			map[string]interface{}{"path": path})
	}

	var decoded map[string]interface{}
	if err := json.Unmarshal(env.Tree, &decoded); err != nil {
		return nil, confderr.Wrap(confderr.ErrCodeValidation, "parse configuration tree", err,
			map[string]interface{}{"path": path})
	}

	return configtree.FromJSON(decoded), nil
}

// LoadFactory implements ports.ConfigStore.
func (s *Store) LoadFactory(ctx context.Context, path string) (*configtree.Tree, error) {
	return s.load(ctx, path)
}

// LoadStartup implements ports.ConfigStore.
func (s *Store) LoadStartup(ctx context.Context, path string) (*configtree.Tree, error) {
	return s.load(ctx, path)
}

// LoadFailure implements ports.ConfigStore.
func (s *Store) LoadFailure(ctx context.Context, path string) (*configtree.Tree, error) {
	return s.load(ctx, path)
}

// SaveStartup implements ports.ConfigStore using a temp-file-plus-rename so
// a crash mid-write cannot corrupt the file the next boot depends on.
func (s *Store) SaveStartup(ctx context.Context, path string, tree *configtree.Tree) error {
	treeJSON, err := json.Marshal(tree.ToJSON())
	if err != nil {
		return confderr.Wrap(confderr.ErrCodeInternal, "marshal configuration tree", err, nil)
	}

	env := envelope{FormatVersion: 1, Source: path, Tree: treeJSON}
	out, err := json.MarshalIndent(env, "", "  ")
	if err != nil {
		return confderr.Wrap(confderr.ErrCodeInternal, "marshal configuration envelope", err, nil)
	}

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".startup-*.json.next")
	if err != nil {
		return confderr.Wrap(confderr.ErrCodeInternal, "create temporary startup document", err, nil)
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(out); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return confderr.Wrap(confderr.ErrCodeInternal, "write temporary startup document", err, nil)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return confderr.Wrap(confderr.ErrCodeInternal, "close temporary startup document", err, nil)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return confderr.Wrap(confderr.ErrCodeInternal, "rename startup document into place", err, nil)
	}
	return nil
}
