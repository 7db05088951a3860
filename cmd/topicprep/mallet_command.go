package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/Adithya-Monish-Kumar-K/Topic-Preprocessing-Toolkit/internal/pipeline"
	"github.com/Adithya-Monish-Kumar-K/Topic-Preprocessing-Toolkit/internal/preprocess/export"
	"github.com/Adithya-Monish-Kumar-K/Topic-Preprocessing-Toolkit/internal/preprocess/filter"
)

func newMalletCommand(ctx *commandContext) *cobra.Command {
	var input corpusFlags
	var outDir string
	var stoplist string

	cmd := &cobra.Command{
		Use:   "mallet [documents...]",
		Short: "Write one MALLET import file per document",
		Long: "Tokenizes the corpus and writes <out>/<label>.txt for every document, optionally " +
			"after removing the words of a stoplist. No frequency filtering is applied.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("out") {
				outDir = filepath.Join(cfg.Export.OutputDir, cfg.Export.MalletDir)
			}
			res, err := ctx.prepare(cmd, &input, args)
			if err != nil {
				return err
			}

			docs := res.Tokens
			if stoplist != "" {
				p, err := pipeline.New(cfg, ctx.fs)
				if err != nil {
					return err
				}
				features, err := p.ReadStoplist(stoplist)
				if err != nil {
					return err
				}
				docs = make([][]string, len(res.Tokens))
				for i, toks := range res.Tokens {
					docs[i] = filter.RemoveFromTokens(toks, features)
				}
			}

			if err := export.WriteMalletImport(ctx.fs, outDir, res.Labels, docs); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s MALLET import files to %s\n", formatCount(len(res.Labels)), outDir)
			return nil
		},
	}

	input.register(cmd)
	cmd.Flags().StringVarP(&outDir, "out", "o", "", "Output directory (default export.outputDir/export.malletDir)")
	cmd.Flags().StringVar(&stoplist, "stoplist", "", "Remove the words of this file")
	return cmd
}
