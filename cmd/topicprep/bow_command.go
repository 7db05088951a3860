package main

import (
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofrs/flock"
	"github.com/spf13/cobra"

	"github.com/Adithya-Monish-Kumar-K/Topic-Preprocessing-Toolkit/internal/pipeline"
	"github.com/Adithya-Monish-Kumar-K/Topic-Preprocessing-Toolkit/pkg/config"
	apperrors "github.com/Adithya-Monish-Kumar-K/Topic-Preprocessing-Toolkit/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/Topic-Preprocessing-Toolkit/pkg/tracing"
)

const lockName = ".topicprep.lock"

// corpusFlags are the input and tokenizer overrides shared by every command
// that reads a corpus.
type corpusFlags struct {
	format      string
	glob        string
	pattern     string
	simple      bool
	noLower     bool
	segmentSize int
	tolerance   float64
	workers     int
}

func (f *corpusFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.format, "format", "f", "", "Input format (txt, tei, csv)")
	cmd.Flags().StringVar(&f.glob, "glob", "", "Doublestar pattern selecting documents below input.dir")
	cmd.Flags().StringVar(&f.pattern, "pattern", "", "Token regular expression")
	cmd.Flags().BoolVar(&f.simple, "simple", false, "Use the word-character token pattern")
	cmd.Flags().BoolVar(&f.noLower, "no-lower", false, "Keep the original case")
	cmd.Flags().IntVar(&f.segmentSize, "segment-size", 0, "Cut documents into segments of about this many tokens")
	cmd.Flags().Float64Var(&f.tolerance, "tolerance", 0, "Segment size tolerance (fraction in (0,1) or absolute)")
	cmd.Flags().IntVar(&f.workers, "workers", 0, "Counting workers")
}

func (f *corpusFlags) apply(cmd *cobra.Command, cfg *config.Config) error {
	flags := cmd.Flags()
	if flags.Changed("format") {
		cfg.Input.Format = f.format
	}
	if flags.Changed("glob") {
		cfg.Input.Glob = f.glob
	}
	if flags.Changed("pattern") {
		cfg.Tokenizer.Pattern = f.pattern
	}
	if flags.Changed("simple") {
		cfg.Tokenizer.Simple = f.simple
	}
	if flags.Changed("no-lower") {
		cfg.Tokenizer.Lower = !f.noLower
	}
	if flags.Changed("segment-size") {
		cfg.Segment.Enabled = f.segmentSize > 0
		cfg.Segment.Size = f.segmentSize
	}
	if flags.Changed("tolerance") {
		cfg.Segment.Tolerance = f.tolerance
	}
	if flags.Changed("workers") {
		cfg.Counter.Workers = f.workers
	}
	if err := cfg.Validate(); err != nil {
		return apperrors.New(apperrors.ErrInvalidInput, apperrors.ExitUsage, err.Error())
	}
	return nil
}

func newBowCommand(ctx *commandContext) *cobra.Command {
	var input corpusFlags
	var outDir string
	var matrixName string
	var malletDir string
	var mostFrequent int
	var noHapax bool
	var stoplist string
	var corpusName string
	var timings bool

	cmd := &cobra.Command{
		Use:   "bow [documents...]",
		Short: "Build, filter and export the bag-of-words matrix of a corpus",
		Long: "Reads the documents (or every document in input.dir), counts tokens per document, " +
			"removes the most frequent words and hapax legomena (or a stoplist) and writes a " +
			"Matrix Market file plus MALLET import files.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			flags := cmd.Flags()
			if flags.Changed("out") {
				cfg.Export.OutputDir = outDir
			}
			if flags.Changed("name") {
				cfg.Export.MatrixName = matrixName
			}
			if flags.Changed("mallet-dir") {
				cfg.Export.MalletDir = malletDir
			}
			if flags.Changed("most-frequent") {
				cfg.Filter.MostFrequent = mostFrequent
			}
			if flags.Changed("no-hapax") {
				cfg.Filter.RemoveHapax = !noHapax
			}
			if flags.Changed("stoplist") {
				cfg.Filter.Stoplist = stoplist
			}
			if flags.Changed("corpus") {
				cfg.Store.CorpusName = corpusName
			}
			if err := input.apply(cmd, cfg); err != nil {
				return err
			}

			paths, err := pipeline.ResolveInputs(ctx.fs, cfg.Input, args)
			if err != nil {
				return err
			}

			unlock, err := lockOutput(cfg.Export.OutputDir)
			if err != nil {
				return err
			}
			defer unlock()

			sinks, err := ctx.openSinks(cmd.Context(), cfg, true)
			if err != nil {
				return err
			}
			defer sinks.Close()

			p, err := pipeline.New(cfg, ctx.fs, sinks.options...)
			if err != nil {
				return apperrors.New(apperrors.ErrInvalidInput, apperrors.ExitUsage, err.Error())
			}
			res, err := p.Run(cmd.Context(), paths)
			if err != nil {
				return err
			}
			writeTable(cmd.OutOrStdout(), []string{"Field", "Value"}, summaryRows(res), []columnAlignment{alignLeft, alignRight})
			if timings {
				writeTable(cmd.OutOrStdout(), []string{"Stage", "Duration"}, timingRows(res.Trace), []columnAlignment{alignLeft, alignRight})
			}
			return nil
		},
	}

	input.register(cmd)
	cmd.Flags().StringVarP(&outDir, "out", "o", "", "Output directory")
	cmd.Flags().StringVar(&matrixName, "name", "", "Matrix Market file name (without .mm)")
	cmd.Flags().StringVar(&malletDir, "mallet-dir", "", "MALLET import subdirectory; empty disables")
	cmd.Flags().IntVarP(&mostFrequent, "most-frequent", "n", 0, "Number of most frequent words to remove")
	cmd.Flags().BoolVar(&noHapax, "no-hapax", false, "Keep words that occur only once")
	cmd.Flags().StringVar(&stoplist, "stoplist", "", "Remove the words of this file instead of computed stopwords")
	cmd.Flags().StringVar(&corpusName, "corpus", "", "Name the corpus is stored and announced under")
	cmd.Flags().BoolVar(&timings, "timings", false, "Print how long each stage took")
	return cmd
}

// lockOutput takes an exclusive lock on the output directory so two runs
// cannot interleave their exports.
func lockOutput(dir string) (func(), error) {
	if dir == "" {
		return func() {}, nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating output directory %s: %w", dir, err)
	}
	lock := flock.New(filepath.Join(dir, lockName))
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("locking output directory %s: %w", dir, err)
	}
	if !ok {
		return nil, apperrors.Newf(apperrors.ErrInvalidInput, apperrors.ExitFailure, "output directory %s is in use by another run", dir)
	}
	return func() { _ = lock.Unlock() }, nil
}

func summaryRows(res *pipeline.Result) [][]string {
	rows := [][]string{
		{"Run", res.RunID},
		{"Documents", formatCount(res.Documents.Len())},
		{"Types", formatCount(res.Types.Len())},
		{"Tokens", formatCount(res.Raw.Total())},
		{"Stopwords", formatCount(len(res.Stopwords))},
		{"Hapax legomena", formatCount(len(res.Hapax))},
		{"Removed features", formatCount(len(res.Removed))},
		{"Remaining tokens", formatCount(res.Table.Total())},
		{"Rows", formatCount(res.Table.Len())},
	}
	if res.MatrixPath != "" {
		rows = append(rows, []string{"Matrix", res.MatrixPath})
	}
	if res.MalletDir != "" {
		rows = append(rows, []string{"MALLET", res.MalletDir})
	}
	return rows
}

func timingRows(trace *tracing.Span) [][]string {
	if trace == nil {
		return nil
	}
	var rows [][]string
	for _, st := range trace.Stages() {
		name := strings.Repeat("  ", st.Depth) + path.Base(st.Path)
		rows = append(rows, []string{name, st.Duration.Round(time.Microsecond).String()})
	}
	return rows
}
