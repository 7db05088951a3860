package main

import (
	"github.com/spf13/cobra"

	"github.com/Adithya-Monish-Kumar-K/Topic-Preprocessing-Toolkit/internal/pipeline"
	"github.com/Adithya-Monish-Kumar-K/Topic-Preprocessing-Toolkit/internal/preprocess/filter"
)

func newStopwordsCommand(ctx *commandContext) *cobra.Command {
	var input corpusFlags
	var mostFrequent int

	cmd := &cobra.Command{
		Use:   "stopwords [documents...]",
		Short: "List the most frequent words of a corpus",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("most-frequent") {
				cfg.Filter.MostFrequent = mostFrequent
			}
			res, err := ctx.prepare(cmd, &input, args)
			if err != nil {
				return err
			}
			words := filter.New(nil).FindStopwords(res.Raw, res.Types, cfg.Filter.MostFrequent)
			writeFeatures(cmd, res, words)
			return nil
		},
	}

	input.register(cmd)
	cmd.Flags().IntVarP(&mostFrequent, "most-frequent", "n", 0, "Number of words to list")
	return cmd
}

func newHapaxCommand(ctx *commandContext) *cobra.Command {
	var input corpusFlags

	cmd := &cobra.Command{
		Use:   "hapax [documents...]",
		Short: "List the words that occur exactly once in a corpus",
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := ctx.prepare(cmd, &input, args)
			if err != nil {
				return err
			}
			writeFeatures(cmd, res, filter.New(nil).FindHapax(res.Raw, res.Types))
			return nil
		},
	}

	input.register(cmd)
	return cmd
}

// prepare counts the corpus named by args (or the configured input
// directory) without filtering or exporting it.
func (c *commandContext) prepare(cmd *cobra.Command, input *corpusFlags, args []string) (*pipeline.Result, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	if err := input.apply(cmd, cfg); err != nil {
		return nil, err
	}
	paths, err := pipeline.ResolveInputs(c.fs, cfg.Input, args)
	if err != nil {
		return nil, err
	}
	sinks, err := c.openSinks(cmd.Context(), cfg, false)
	if err != nil {
		return nil, err
	}
	defer sinks.Close()

	p, err := pipeline.New(cfg, c.fs, sinks.options...)
	if err != nil {
		return nil, err
	}
	return p.Prepare(cmd.Context(), paths)
}

func writeFeatures(cmd *cobra.Command, res *pipeline.Result, words []string) {
	totals := res.Raw.TokenTotals()
	rows := make([][]string, len(words))
	for i, w := range words {
		id, _ := res.Types.ID(w)
		rows[i] = []string{formatCount(i + 1), w, formatCount(totals[id])}
	}
	writeTable(cmd.OutOrStdout(), []string{"Rank", "Token", "Count"}, rows, []columnAlignment{alignRight, alignLeft, alignRight})
}
