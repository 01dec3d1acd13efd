package gazetteer

import (
	"embed"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/structflo/structflo-ner/pkg/ner"
)

//go:embed gazetteers/*.yml
var defaultGazetteers embed.FS

// Option configures loading.
type Option func(*loadConfig)

type loadConfig struct {
	logger *zap.Logger
}

// WithLogger injects a logger for non-fatal diagnostics (unknown categories,
// per-file load counts). Defaults to a nop logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *loadConfig) {
		if l != nil {
			c.logger = l
		}
	}
}

func newLoadConfig(opts []Option) *loadConfig {
	c := &loadConfig{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Defaults loads the built-in drug discovery gazetteers shipped with the
// package.
func Defaults(opts ...Option) (*Set, error) {
	sub, err := fs.Sub(defaultGazetteers, "gazetteers")
	if err != nil {
		return nil, err
	}
	return LoadFS(sub, opts...)
}

// LoadDir loads every *.yml gazetteer file from a directory on disk.
// A missing directory is a fatal error.
func LoadDir(dir string, opts ...Option) (*Set, error) {
	if info, err := os.Stat(dir); err != nil {
		return nil, fmt.Errorf("gazetteer directory %s: %w", dir, err)
	} else if !info.IsDir() {
		return nil, fmt.Errorf("gazetteer directory %s: not a directory", dir)
	}
	return LoadFS(os.DirFS(dir), opts...)
}

// LoadFS loads every *.yml gazetteer file from the root of an fs.FS.
// Files are processed in sorted name order; the filename stem becomes the
// category. An unknown category loads successfully but logs a warning; its
// entities surface as unclassified downstream.
func LoadFS(fsys fs.FS, opts ...Option) (*Set, error) {
	cfg := newLoadConfig(opts)

	names, err := fs.Glob(fsys, "*.yml")
	if err != nil {
		return nil, fmt.Errorf("gazetteer glob: %w", err)
	}
	sort.Strings(names)

	set := NewSet()
	for _, name := range names {
		data, err := fs.ReadFile(fsys, name)
		if err != nil {
			return nil, fmt.Errorf("gazetteer %s: %w", name, err)
		}
		category := strings.TrimSuffix(name, filepath.Ext(name))
		terms, err := parseTerms(name, data)
		if err != nil {
			return nil, err
		}

		if !ner.IsKnownCategory(category) {
			cfg.logger.Warn("gazetteer maps to unknown category, entities will be unclassified",
				zap.String("file", name),
				zap.String("category", category))
		}

		set.Add(category, terms...)
		cfg.logger.Debug("loaded gazetteer",
			zap.String("file", name),
			zap.String("category", category),
			zap.Int("terms", len(terms)))
	}
	return set, nil
}

// LoadFile loads a single gazetteer file from disk. The filename stem (minus
// extension) is the category.
func LoadFile(path string) (category string, terms []string, err error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", nil, fmt.Errorf("gazetteer %s: %w", filepath.Base(path), err)
	}
	base := filepath.Base(path)
	category = strings.TrimSuffix(base, filepath.Ext(base))
	terms, err = parseTerms(base, data)
	return category, terms, err
}

// parseTerms decodes a YAML document that must be a list of scalars.
// Empty and whitespace-only entries are dropped; everything else is coerced
// to a trimmed string.
func parseTerms(name string, data []byte) ([]string, error) {
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("gazetteer %s: %w", name, err)
	}
	if doc == nil {
		return nil, nil
	}
	items, ok := doc.([]any)
	if !ok {
		return nil, fmt.Errorf("gazetteer %s must be a YAML list, got %T", name, doc)
	}

	terms := make([]string, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		t := strings.TrimSpace(fmt.Sprint(item))
		if t == "" {
			continue
		}
		terms = append(terms, t)
	}
	return terms, nil
}
