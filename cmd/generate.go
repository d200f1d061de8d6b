package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/xkilldash9x/fingerprintless-cli/internal/config"
	"github.com/xkilldash9x/fingerprintless-cli/internal/dom"
	"github.com/xkilldash9x/fingerprintless-cli/internal/input"
	"github.com/xkilldash9x/fingerprintless-cli/internal/mutate"
	"github.com/xkilldash9x/fingerprintless-cli/internal/observability"
	"github.com/xkilldash9x/fingerprintless-cli/internal/output"
	"github.com/xkilldash9x/fingerprintless-cli/internal/variant"
)

var generateCmd = &cobra.Command{
	Use:   "generate [flags] <input.html> [more inputs...]",
	Short: "Generate variants from one or more HTML documents.",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runGenerate,
}

func init() {
	f := generateCmd.Flags()
	f.IntP("count", "n", 1, "number of variants to generate per input")
	f.String("encoding", "utf-8", "declared input encoding (falls back to latin-1, windows-1252)")
	f.String("synonym-map", "", "path to a pipe-separated synonym map file")
	f.StringP("output", "o", "", "output directory (default: variants_<timestamp>)")
	f.Int("max-nesting", 4, "maximum depth of the inert wrapper chain")
	f.Int("max-nesting-jitter", 0, "per-variant +/- jitter applied to the nesting depth")
	f.Int("concurrency", 4, "variant worker pool size")
	f.Bool("no-ie-conditional-comments", false, "disable conditional comment noise")
	f.Bool("no-structure-randomize", false, "disable structure randomization")
	f.Bool("per-input-dirs", false, "write each input's variants to its own directory")

	_ = viper.BindPFlag("mutate.count", f.Lookup("count"))
	_ = viper.BindPFlag("mutate.encoding", f.Lookup("encoding"))
	_ = viper.BindPFlag("mutate.synonym_map", f.Lookup("synonym-map"))
	_ = viper.BindPFlag("mutate.max_nesting", f.Lookup("max-nesting"))
	_ = viper.BindPFlag("mutate.max_nesting_jitter", f.Lookup("max-nesting-jitter"))
	_ = viper.BindPFlag("engine.worker_concurrency", f.Lookup("concurrency"))
	_ = viper.BindPFlag("output.dir", f.Lookup("output"))
}

func runGenerate(cmd *cobra.Command, args []string) error {
	logger := observability.GetLogger()
	cfg := *config.Get()

	// The disable flags are negated so the features default to on; viper
	// cannot bind an inverted bool, so they are applied by hand.
	if off, _ := cmd.Flags().GetBool("no-ie-conditional-comments"); off {
		cfg.Mutate.IEConditionalComments = false
	}
	if off, _ := cmd.Flags().GetBool("no-structure-randomize"); off {
		cfg.Mutate.StructureRandomize = false
	}
	perInputDirs, _ := cmd.Flags().GetBool("per-input-dirs")

	synonyms, err := loadSynonyms(cfg.Mutate.SynonymMapPath, logger)
	if err != nil {
		return err
	}

	runDir := output.RunDir(cfg.Output.Dir, time.Now())
	baseOpts := mutate.FromConfig(cfg.Mutate)
	eng := variant.NewEngine(cfg.Engine.WorkerConcurrency, logger)

	prefixes := make(map[string]string, len(args))
	if len(args) > 1 && !perInputDirs {
		prefixes = output.FilenamePrefixes(args)
	} else {
		for _, p := range args {
			prefixes[p] = ""
		}
	}

	var failed int
	for _, path := range args {
		dir := runDir
		if perInputDirs {
			dir = output.PerInputDir(runDir, path)
		}
		err := generateForInput(cmd.Context(), path, dir, prefixes[path], cfg, baseOpts, synonyms, eng, logger)
		if err != nil {
			if cmd.Context().Err() != nil {
				return err
			}
			logger.Error("Input failed, continuing with remaining inputs",
				zap.String("path", path), zap.Error(err))
			failed++
		}
	}

	if failed == len(args) {
		return fmt.Errorf("all %d input(s) failed", failed)
	}
	if failed > 0 {
		logger.Warn("Batch finished with failures",
			zap.Int("failed", failed), zap.Int("total", len(args)))
	}
	fmt.Fprintln(cmd.OutOrStdout(), runDir)
	return nil
}

// loadSynonyms reads and compiles the optional synonym map. An empty path
// yields a nil map, which disables the synonym stage.
func loadSynonyms(path string, logger *zap.Logger) (*mutate.SynonymMap, error) {
	if path == "" {
		return nil, nil
	}
	lines, err := input.ReadLines(path)
	if err != nil {
		return nil, fmt.Errorf("loading synonym map: %w", err)
	}
	synonyms, err := mutate.ParseSynonymLines(lines)
	if err != nil {
		return nil, fmt.Errorf("parsing synonym map %s: %w", path, err)
	}
	logger.Info("Synonym map loaded",
		zap.String("path", path), zap.Int("groups", len(synonyms.Groups())))
	return synonyms, nil
}

// generateForInput runs the full pipeline for a single input document: read
// and decode, parse, normalize, then fan variant generation out to the pool
// and write every result.
func generateForInput(
	ctx context.Context,
	path, dir, prefix string,
	cfg config.Config,
	baseOpts mutate.Opts,
	synonyms *mutate.SynonymMap,
	eng *variant.Engine,
	logger *zap.Logger,
) error {
	text, err := input.ReadFile(path, cfg.Mutate.Encoding, logger)
	if err != nil {
		return err
	}

	doc, err := dom.ParseString(text)
	if err != nil {
		return fmt.Errorf("parsing %s: %w", path, err)
	}
	dom.Normalize(doc)
	lang := doc.Lang()
	fragment := dom.ExtractBodyFragment(doc)

	writer, err := output.NewWriter(dir)
	if err != nil {
		return err
	}

	builder := variant.NewBuilder(fragment, lang, baseOpts, synonyms, logger)
	results, err := eng.Generate(ctx, builder, cfg.Mutate.Count)
	if err != nil {
		return err
	}

	for _, r := range results {
		written, err := writer.WriteVariant(prefix, r.Index+1, r.HTML)
		if err != nil {
			return err
		}
		logger.Info("Variant written", zap.String("file", written))
	}
	logger.Info("Input complete",
		zap.String("path", path), zap.Int("variants", len(results)), zap.String("dir", dir))
	return nil
}
