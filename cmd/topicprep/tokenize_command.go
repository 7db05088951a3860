package main

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Adithya-Monish-Kumar-K/Topic-Preprocessing-Toolkit/internal/corpus"
	"github.com/Adithya-Monish-Kumar-K/Topic-Preprocessing-Toolkit/internal/pipeline"
	apperrors "github.com/Adithya-Monish-Kumar-K/Topic-Preprocessing-Toolkit/pkg/errors"
)

func newTokenizeCommand(ctx *commandContext) *cobra.Command {
	var input corpusFlags
	var countOnly bool

	cmd := &cobra.Command{
		Use:   "tokenize [document]",
		Short: "Print the tokens of a document, one per line",
		Long:  "Tokenizes a document, or standard input when no document (or -) is given.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if err := input.apply(cmd, cfg); err != nil {
				return err
			}
			tok, err := pipeline.NewTokenizer(cfg.Tokenizer)
			if err != nil {
				return apperrors.New(apperrors.ErrInvalidInput, apperrors.ExitUsage, err.Error())
			}

			var tokens []string
			if len(args) == 0 || args[0] == "-" {
				data, err := io.ReadAll(cmd.InOrStdin())
				if err != nil {
					return fmt.Errorf("reading standard input: %w", err)
				}
				tokens = tok.Collect(string(data))
			} else {
				docs, err := corpus.Load(ctx.fs, args, corpus.LoadOptions{
					Format:  cfg.Input.Format,
					Columns: cfg.Input.Columns,
					POSTags: cfg.Input.POSTags,
				})
				if err != nil {
					return err
				}
				tokens = docs[0].Lemmas
				if !docs[0].Pretokenized() {
					tokens = tok.Collect(docs[0].Text)
				}
			}

			out := cmd.OutOrStdout()
			if countOnly {
				fmt.Fprintln(out, len(tokens))
				return nil
			}
			w := bufio.NewWriter(out)
			for _, t := range tokens {
				w.WriteString(t)
				w.WriteByte('\n')
			}
			return w.Flush()
		},
	}

	input.register(cmd)
	cmd.Flags().BoolVar(&countOnly, "count", false, "Print only the number of tokens")
	return cmd
}

func preview(tokens []string, n int) string {
	if len(tokens) <= n {
		return strings.Join(tokens, " ")
	}
	return strings.Join(tokens[:n], " ") + " …"
}
