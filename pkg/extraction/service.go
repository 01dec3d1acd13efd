package extraction

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/structflo/structflo-ner/pkg/ner"
)

// Alignment statuses recorded on extracted entities.
const (
	AlignmentExact = "match_exact"
	AlignmentFuzzy = "match_fuzzy"
)

// Extractor extracts drug discovery entities with a single LLM call per text,
// then aligns each extraction back onto the source to recover byte spans.
type Extractor struct {
	client  Client
	profile Profile
	logger  *zap.Logger
}

// ExtractorOption configures extractor construction.
type ExtractorOption func(*Extractor)

// WithProfile sets the default entity profile. Defaults to Full.
func WithProfile(p Profile) ExtractorOption {
	return func(e *Extractor) { e.profile = p }
}

// WithLogger injects a logger for per-call diagnostics.
func WithLogger(l *zap.Logger) ExtractorOption {
	return func(e *Extractor) {
		if l != nil {
			e.logger = l
		}
	}
}

// NewExtractor creates an LLM-backed extractor over the given client.
func NewExtractor(client Client, opts ...ExtractorOption) (*Extractor, error) {
	if client == nil {
		return nil, fmt.Errorf("extraction: client required")
	}
	e := &Extractor{
		client:  client,
		profile: Full,
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Extract runs one LLM call over the text and assembles the bucketed result.
// Extractions whose class falls outside the profile surface as unclassified;
// extractions that cannot be located in the source carry a negative span.
func (e *Extractor) Extract(ctx context.Context, text string) (*ner.Result, error) {
	return e.ExtractWithProfile(ctx, text, e.profile)
}

// ExtractWithProfile overrides the default profile for a single call.
func (e *Extractor) ExtractWithProfile(ctx context.Context, text string, profile Profile) (*ner.Result, error) {
	result := ner.NewResult(text)
	if strings.TrimSpace(text) == "" {
		return result, nil
	}

	raw, err := e.client.Chat(ctx, SystemPrompt, BuildUserPrompt(text, profile))
	if err != nil {
		return nil, fmt.Errorf("extraction: LLM call failed: %w", err)
	}

	extractions, err := ParseResponse(raw)
	if err != nil {
		return nil, err
	}

	aligner := newAligner(text)
	unaligned := 0
	for _, ex := range extractions {
		entity := aligner.align(ex)
		if entity.Start < 0 {
			unaligned++
		}
		result.Add(entity)
	}

	e.logger.Debug("llm extraction complete",
		zap.String("profile", profile.Name),
		zap.Int("entities", result.Len()),
		zap.Int("unaligned", unaligned))
	return result, nil
}

// ExtractAll extracts from each text independently, stopping on the first
// error.
func (e *Extractor) ExtractAll(ctx context.Context, texts []string) ([]*ner.Result, error) {
	results := make([]*ner.Result, 0, len(texts))
	for _, t := range texts {
		r, err := e.Extract(ctx, t)
		if err != nil {
			return nil, err
		}
		results = append(results, r)
	}
	return results, nil
}

// aligner locates extraction texts in the source. The cursor moves forward
// past each aligned span so repeated mentions map to successive occurrences;
// a failed forward search falls back to the whole text before giving up.
type aligner struct {
	text   string
	lower  string
	cursor int
}

func newAligner(text string) *aligner {
	return &aligner{text: text, lower: strings.ToLower(text)}
}

func (a *aligner) align(ex Extraction) ner.Entity {
	entity := ner.Entity{
		Text:       ex.Text,
		Category:   ex.Class,
		Start:      -1,
		End:        -1,
		Attributes: ex.Attributes,
	}

	if start := a.find(a.text, ex.Text); start >= 0 {
		entity.Start = start
		entity.End = start + len(ex.Text)
		entity.Alignment = AlignmentExact
		a.cursor = entity.End
		return entity
	}

	// Case-insensitive fallback; the surface text is taken from the source.
	needle := strings.ToLower(ex.Text)
	if start := a.find(a.lower, needle); start >= 0 {
		entity.Start = start
		entity.End = start + len(needle)
		entity.Text = a.text[entity.Start:entity.End]
		entity.Alignment = AlignmentFuzzy
		a.cursor = entity.End
		return entity
	}

	return entity
}

func (a *aligner) find(haystack, needle string) int {
	if needle == "" {
		return -1
	}
	if idx := strings.Index(haystack[a.cursor:], needle); idx >= 0 {
		return a.cursor + idx
	}
	return strings.Index(haystack, needle)
}
