package fast

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/structflo/structflo-ner/pkg/gazetteer"
	"github.com/structflo/structflo-ner/pkg/ner"
)

// Extractor extracts drug discovery entities using dictionary matching, with
// no model call. It loads gazetteers once at construction, derives accession
// patterns from the accession_number seeds, and builds a single immutable
// Matcher. Safe for concurrent use.
//
// Example:
//
//	ex, err := fast.NewExtractor()
//	result := ex.Extract("Bedaquiline inhibits AtpE (Rv1305) in M. tuberculosis.")
//	fmt.Println(result.Compounds, result.Targets, result.Accessions)
type Extractor struct {
	matcher *Matcher
}

// ExtractorOption configures extractor construction.
type ExtractorOption func(*extractorConfig)

type extractorConfig struct {
	gazetteerDir   string
	extraTerms     map[string][]string
	fuzzyThreshold int
	logger         *zap.Logger
}

// WithGazetteerDir loads gazetteers from a directory instead of the built-in
// defaults.
func WithGazetteerDir(dir string) ExtractorOption {
	return func(c *extractorConfig) { c.gazetteerDir = dir }
}

// WithExtraTerms additively merges programmatic terms per category on top of
// the loaded gazetteers.
func WithExtraTerms(extra map[string][]string) ExtractorOption {
	return func(c *extractorConfig) { c.extraTerms = extra }
}

// WithFuzzyThreshold sets the minimum fuzzy match score (0–100); zero
// disables fuzzy matching.
func WithFuzzyThreshold(threshold int) ExtractorOption {
	return func(c *extractorConfig) { c.fuzzyThreshold = threshold }
}

// WithLogger injects a logger for construction-time diagnostics.
func WithLogger(l *zap.Logger) ExtractorOption {
	return func(c *extractorConfig) {
		if l != nil {
			c.logger = l
		}
	}
}

// NewExtractor builds a dictionary extractor from the default or configured
// gazetteers.
func NewExtractor(opts ...ExtractorOption) (*Extractor, error) {
	cfg := &extractorConfig{
		fuzzyThreshold: DefaultFuzzyThreshold,
		logger:         zap.NewNop(),
	}
	for _, opt := range opts {
		opt(cfg)
	}

	var (
		gz  *gazetteer.Set
		err error
	)
	if cfg.gazetteerDir != "" {
		gz, err = gazetteer.LoadDir(cfg.gazetteerDir, gazetteer.WithLogger(cfg.logger))
	} else {
		gz, err = gazetteer.Defaults(gazetteer.WithLogger(cfg.logger))
	}
	if err != nil {
		return nil, fmt.Errorf("fast: %w", err)
	}

	if len(cfg.extraTerms) > 0 {
		gz.MergeMap(cfg.extraTerms)
	}

	var patterns []gazetteer.AccessionPattern
	if seeds := gz.Terms(ner.CategoryAccession); len(seeds) > 0 {
		patterns = gazetteer.DeriveAccessionPatterns(seeds)
	}

	matcher, err := NewMatcher(gz, patterns, cfg.fuzzyThreshold)
	if err != nil {
		return nil, fmt.Errorf("fast: %w", err)
	}

	cfg.logger.Info("fast extractor ready",
		zap.Int("gazetteers", gz.Len()),
		zap.Int("terms", gz.TotalTerms()),
		zap.Int("accession_patterns", len(patterns)))

	return &Extractor{matcher: matcher}, nil
}

// Extract runs the match engine over a single text and assembles the bucketed
// result.
func (e *Extractor) Extract(text string) *ner.Result {
	result := ner.NewResult(text)
	for _, m := range e.matcher.Match(text) {
		result.Add(matchToEntity(m))
	}
	return result
}

// ExtractAll extracts from each text independently.
func (e *Extractor) ExtractAll(texts []string) []*ner.Result {
	results := make([]*ner.Result, len(texts))
	for i, t := range texts {
		results[i] = e.Extract(t)
	}
	return results
}

// Matcher exposes the underlying match engine for callers that want raw
// matches instead of bucketed results.
func (e *Extractor) Matcher() *Matcher {
	return e.matcher
}

func matchToEntity(m Match) ner.Entity {
	attrs := map[string]string{
		ner.AttrMatchMethod: string(m.Method),
	}
	if m.Canonical != m.Text {
		attrs[ner.AttrCanonical] = m.Canonical
	}
	return ner.Entity{
		Text:       m.Text,
		Category:   m.Category,
		Start:      m.Start,
		End:        m.End,
		Attributes: attrs,
	}
}
