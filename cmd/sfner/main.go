// Command sfner extracts drug discovery entities from text files or stdin
// and prints the results as JSON.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/structflo/structflo-ner/internal/store"
	"github.com/structflo/structflo-ner/pkg/extraction"
	"github.com/structflo/structflo-ner/pkg/fast"
	"github.com/structflo/structflo-ner/pkg/gazetteer"
	"github.com/structflo/structflo-ner/pkg/ner"
)

type rootOptions struct {
	gazetteerDir string
	fuzzy        int
	verbose      bool

	engine    string
	dbPath    string
	llmURL    string
	llmModel  string
	llmAPIKey string
	profile   string
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:           "sfner",
		Short:         "Dictionary and LLM based NER for drug discovery text",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := cmd.PersistentFlags()
	pf.StringVarP(&opts.gazetteerDir, "gazetteers", "g", "", "gazetteer directory (default: built-in)")
	pf.IntVar(&opts.fuzzy, "fuzzy", fast.DefaultFuzzyThreshold, "fuzzy match threshold 0-100, 0 disables")
	pf.BoolVarP(&opts.verbose, "verbose", "v", false, "enable debug logging")

	cmd.AddCommand(newExtractCmd(opts), newPatternsCmd(opts))
	return cmd
}

func newExtractCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "extract [files...]",
		Short: "Extract entities from files or stdin",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExtract(cmd, args, opts)
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.engine, "engine", "fast", "extraction engine: fast|llm")
	f.StringVar(&opts.dbPath, "db", "", "SQLite path to persist results")
	f.StringVar(&opts.llmURL, "llm-url", "", "OpenAI-compatible completion endpoint (engine=llm)")
	f.StringVar(&opts.llmModel, "llm-model", "", "model identifier (engine=llm)")
	f.StringVar(&opts.llmAPIKey, "llm-api-key", "", "API key, falls back to SFNER_API_KEY (engine=llm)")
	f.StringVar(&opts.profile, "profile", "full", "entity profile: chemistry|biology|bioactivity|disease|full")
	return cmd
}

func newPatternsCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "patterns",
		Short: "Show accession patterns derived from the loaded gazetteers",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPatterns(cmd, opts)
		},
	}
}

func newLogger(verbose bool) (*zap.Logger, error) {
	if !verbose {
		return zap.NewNop(), nil
	}
	cfg := zap.NewDevelopmentConfig()
	cfg.OutputPaths = []string{"stderr"}
	return cfg.Build()
}

func runExtract(cmd *cobra.Command, args []string, opts *rootOptions) error {
	logger, err := newLogger(opts.verbose)
	if err != nil {
		return err
	}
	defer logger.Sync()

	inputs, err := readInputs(cmd.InOrStdin(), args)
	if err != nil {
		return err
	}

	var results []*ner.Result
	switch opts.engine {
	case "fast":
		results, err = extractFast(inputs, opts, logger)
	case "llm":
		results, err = extractLLM(cmd.Context(), inputs, opts, logger)
	default:
		return fmt.Errorf("unknown engine %q (must be fast or llm)", opts.engine)
	}
	if err != nil {
		return err
	}

	if opts.dbPath != "" {
		if err := persistResults(opts, inputs, results); err != nil {
			return err
		}
		logger.Info("results persisted", zap.String("db", opts.dbPath), zap.Int("documents", len(results)))
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	if len(results) == 1 {
		return enc.Encode(results[0])
	}
	return enc.Encode(results)
}

func extractFast(inputs []namedInput, opts *rootOptions, logger *zap.Logger) ([]*ner.Result, error) {
	exOpts := []fast.ExtractorOption{
		fast.WithFuzzyThreshold(opts.fuzzy),
		fast.WithLogger(logger),
	}
	if opts.gazetteerDir != "" {
		exOpts = append(exOpts, fast.WithGazetteerDir(opts.gazetteerDir))
	}
	ex, err := fast.NewExtractor(exOpts...)
	if err != nil {
		return nil, err
	}

	results := make([]*ner.Result, len(inputs))
	for i, in := range inputs {
		results[i] = ex.Extract(in.text)
	}
	return results, nil
}

func extractLLM(ctx context.Context, inputs []namedInput, opts *rootOptions, logger *zap.Logger) ([]*ner.Result, error) {
	if opts.llmURL == "" || opts.llmModel == "" {
		return nil, fmt.Errorf("engine=llm requires --llm-url and --llm-model")
	}
	apiKey := opts.llmAPIKey
	if apiKey == "" {
		apiKey = os.Getenv("SFNER_API_KEY")
	}

	profile, err := profileByName(opts.profile)
	if err != nil {
		return nil, err
	}

	client := &extraction.HTTPClient{BaseURL: opts.llmURL, APIKey: apiKey, Model: opts.llmModel}
	ex, err := extraction.NewExtractor(client,
		extraction.WithProfile(profile),
		extraction.WithLogger(logger),
	)
	if err != nil {
		return nil, err
	}

	texts := make([]string, len(inputs))
	for i, in := range inputs {
		texts[i] = in.text
	}
	return ex.ExtractAll(ctx, texts)
}

func profileByName(name string) (extraction.Profile, error) {
	switch name {
	case "chemistry":
		return extraction.Chemistry, nil
	case "biology":
		return extraction.Biology, nil
	case "bioactivity":
		return extraction.Bioactivity, nil
	case "disease":
		return extraction.Disease, nil
	case "full", "":
		return extraction.Full, nil
	}
	return extraction.Profile{}, fmt.Errorf("unknown profile %q", name)
}

func persistResults(opts *rootOptions, inputs []namedInput, results []*ner.Result) error {
	db, err := store.NewWithDSN(opts.dbPath)
	if err != nil {
		return err
	}
	defer db.Close()

	now := time.Now().Unix()
	for i, result := range results {
		doc := &store.Document{
			ID:        fmt.Sprintf("%s-%d", inputs[i].name, now),
			Text:      result.SourceText,
			Source:    inputs[i].name,
			Engine:    opts.engine,
			CreatedAt: now,
		}
		if err := db.SaveResult(doc, result); err != nil {
			return err
		}
	}
	return nil
}

func runPatterns(cmd *cobra.Command, opts *rootOptions) error {
	logger, err := newLogger(opts.verbose)
	if err != nil {
		return err
	}
	defer logger.Sync()

	var gz *gazetteer.Set
	if opts.gazetteerDir != "" {
		gz, err = gazetteer.LoadDir(opts.gazetteerDir, gazetteer.WithLogger(logger))
	} else {
		gz, err = gazetteer.Defaults(gazetteer.WithLogger(logger))
	}
	if err != nil {
		return err
	}

	patterns := gazetteer.DeriveAccessionPatterns(gz.Terms(ner.CategoryAccession))
	if len(patterns) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "no accession patterns derived")
		return nil
	}
	for _, p := range patterns {
		fmt.Fprintf(cmd.OutOrStdout(), "%-20s %s\n", p.Description, p.Pattern.String())
	}
	return nil
}

// namedInput is one unit of text to process, labeled with its origin.
type namedInput struct {
	name string
	text string
}

func readInputs(stdin io.Reader, args []string) ([]namedInput, error) {
	if len(args) == 0 {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return nil, fmt.Errorf("read stdin: %w", err)
		}
		return []namedInput{{name: "stdin", text: string(data)}}, nil
	}

	inputs := make([]namedInput, 0, len(args))
	for _, path := range args {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		inputs = append(inputs, namedInput{name: path, text: string(data)})
	}
	return inputs, nil
}
