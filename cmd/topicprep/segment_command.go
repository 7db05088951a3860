package main

import (
	"fmt"
	"path/filepath"
	"regexp"
	"slices"
	"strings"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/Adithya-Monish-Kumar-K/Topic-Preprocessing-Toolkit/internal/corpus"
	"github.com/Adithya-Monish-Kumar-K/Topic-Preprocessing-Toolkit/internal/pipeline"
	"github.com/Adithya-Monish-Kumar-K/Topic-Preprocessing-Toolkit/internal/preprocess/segment"
	apperrors "github.com/Adithya-Monish-Kumar-K/Topic-Preprocessing-Toolkit/pkg/errors"
)

func newSegmentCommand(ctx *commandContext) *cobra.Command {
	var input corpusFlags
	var separator string
	var outDir string

	cmd := &cobra.Command{
		Use:   "segment <document>",
		Short: "Cut a document into segments of about equal size",
		Long: "Splits a text document into paragraphs, tokenizes them and groups the paragraphs " +
			"into segments of --segment-size tokens, keeping paragraphs intact within --tolerance.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			cfg.Segment.Enabled = true
			if err := input.apply(cmd, cfg); err != nil {
				return err
			}
			if cmd.Flags().Changed("separator") {
				cfg.Segment.ParagraphSeparator = separator
			}
			if cfg.Input.Format == corpus.FormatCSV {
				return apperrors.New(apperrors.ErrInvalidInput, apperrors.ExitUsage, "segment reads txt or tei documents")
			}
			sep, err := regexp.Compile(cfg.Segment.ParagraphSeparator)
			if err != nil {
				return apperrors.New(apperrors.ErrInvalidInput, apperrors.ExitUsage, fmt.Sprintf("paragraph separator: %v", err))
			}
			tok, err := pipeline.NewTokenizer(cfg.Tokenizer)
			if err != nil {
				return apperrors.New(apperrors.ErrInvalidInput, apperrors.ExitUsage, err.Error())
			}

			docs, err := corpus.Load(ctx.fs, args, corpus.LoadOptions{Format: cfg.Input.Format})
			if err != nil {
				return err
			}
			seq, err := segment.Segment(docs[0].Text, segment.Options{
				Size:      cfg.Segment.Size,
				Tolerance: cfg.Segment.Tolerance,
				Chunker:   func(text string) []string { return segment.SplitParagraphs(text, sep) },
				Tokenizer: tok.Collect,
			})
			if err != nil {
				return err
			}
			segments := slices.Collect(segment.Flatten(seq))

			if outDir != "" {
				if err := ctx.fs.MkdirAll(outDir, 0o755); err != nil {
					return fmt.Errorf("creating segment directory %s: %w", outDir, err)
				}
				for i, seg := range segments {
					name := filepath.Join(outDir, fmt.Sprintf("%s_%04d.txt", docs[0].Label, i))
					if err := afero.WriteFile(ctx.fs, name, []byte(strings.Join(seg, " ")), 0o644); err != nil {
						return fmt.Errorf("writing segment %s: %w", name, err)
					}
				}
			}

			rows := make([][]string, len(segments))
			for i, seg := range segments {
				rows[i] = []string{fmt.Sprintf("%s_%04d", docs[0].Label, i), formatCount(len(seg)), preview(seg, 8)}
			}
			writeTable(cmd.OutOrStdout(), []string{"Segment", "Tokens", "Start"}, rows, []columnAlignment{alignLeft, alignRight, alignLeft})
			return nil
		},
	}

	input.register(cmd)
	cmd.Flags().StringVar(&separator, "separator", "", "Paragraph separator regular expression")
	cmd.Flags().StringVarP(&outDir, "out", "o", "", "Write every segment to <out>/<label>_NNNN.txt")
	return cmd
}
