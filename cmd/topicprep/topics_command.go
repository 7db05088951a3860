package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Adithya-Monish-Kumar-K/Topic-Preprocessing-Toolkit/internal/pipeline"
	"github.com/Adithya-Monish-Kumar-K/Topic-Preprocessing-Toolkit/internal/preprocess/bow"
	"github.com/Adithya-Monish-Kumar-K/Topic-Preprocessing-Toolkit/internal/preprocess/dictionary"
	"github.com/Adithya-Monish-Kumar-K/Topic-Preprocessing-Toolkit/internal/topics"
)

func newTopicsCommand(ctx *commandContext) *cobra.Command {
	var input corpusFlags
	var corpusName string
	var numTopics int
	var iterations int
	var keywords int
	var docTopics bool

	cmd := &cobra.Command{
		Use:   "topics [documents...]",
		Short: "Fit an LDA topic model and print its keywords",
		Long: "Fits latent Dirichlet allocation to a stored corpus (--corpus) or to a corpus " +
			"preprocessed on the fly, then prints the top keywords of every topic.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			flags := cmd.Flags()
			if flags.Changed("topics") {
				cfg.Topics.NumTopics = numTopics
			}
			if flags.Changed("iterations") {
				cfg.Topics.Iterations = iterations
			}
			if flags.Changed("keywords") {
				cfg.Topics.Keywords = keywords
			}

			var table *bow.Table
			var types, documents *dictionary.Dictionary
			if corpusName != "" {
				st, err := ctx.openStore(cmd.Context())
				if err != nil {
					return err
				}
				defer st.Close()
				c, err := st.LoadCorpus(cmd.Context(), corpusName)
				if err != nil {
					return err
				}
				table, types, documents = c.Table, c.Types, c.Documents
			} else {
				if err := input.apply(cmd, cfg); err != nil {
					return err
				}
				paths, err := pipeline.ResolveInputs(ctx.fs, cfg.Input, args)
				if err != nil {
					return err
				}
				sinks, err := ctx.openSinks(cmd.Context(), cfg, true)
				if err != nil {
					return err
				}
				defer sinks.Close()
				p, err := pipeline.New(cfg, ctx.fs, sinks.options...)
				if err != nil {
					return err
				}
				res, err := p.Run(cmd.Context(), paths)
				if err != nil {
					return err
				}
				table, types, documents = res.Table, res.Types, res.Documents
			}

			model, err := topics.NewLDA(cfg.Topics).Fit(cmd.Context(), table, types.Inverse())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			rows := make([][]string, len(model.Topics))
			for i, kw := range model.Topics {
				rows[i] = []string{strconv.Itoa(i), strings.Join(kw, " ")}
			}
			writeTable(out, []string{"Topic", "Keywords"}, rows, []columnAlignment{alignRight, alignLeft})

			if docTopics {
				fmt.Fprintln(out)
				writeTable(out, docTopicHeaders(len(model.Topics)), docTopicRows(model, documents), nil)
			}
			return nil
		},
	}

	input.register(cmd)
	cmd.Flags().StringVar(&corpusName, "corpus", "", "Fit a corpus from the store instead of reading documents")
	cmd.Flags().IntVarP(&numTopics, "topics", "k", 0, "Number of topics")
	cmd.Flags().IntVar(&iterations, "iterations", 0, "Training iterations")
	cmd.Flags().IntVar(&keywords, "keywords", 0, "Keywords shown per topic")
	cmd.Flags().BoolVar(&docTopics, "doc-topics", false, "Also print the document-topic proportions")
	return cmd
}

func docTopicHeaders(k int) []string {
	headers := make([]string, 0, k+1)
	headers = append(headers, "Document")
	for i := range k {
		headers = append(headers, "T"+strconv.Itoa(i))
	}
	return headers
}

func docTopicRows(model *topics.Model, documents *dictionary.Dictionary) [][]string {
	n, k := model.DocTopics.Dims()
	rows := make([][]string, n)
	for d := range n {
		label, ok := documents.Token(d + 1)
		if !ok {
			label = strconv.Itoa(d + 1)
		}
		row := make([]string, 0, k+1)
		row = append(row, label)
		for t := range k {
			row = append(row, strconv.FormatFloat(model.DocTopics.At(d, t), 'f', 3, 64))
		}
		rows[d] = row
	}
	return rows
}
