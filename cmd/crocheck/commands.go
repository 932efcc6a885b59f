package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/noah-isme/cro-score-api/internal/bootstrap"
	"github.com/noah-isme/cro-score-api/internal/config"
	"github.com/noah-isme/cro-score-api/internal/scoring"
)

type globalOptions struct {
	url      string
	criteria string
	mock     bool
	verbose  bool
}

func newRootCommand() *cobra.Command {
	opts := &globalOptions{}

	root := &cobra.Command{
		Use:           "crocheck",
		Short:         "Score landing page HTML for clarity, credibility and call-to-action strength",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&opts.url, "url", "", "page URL used as context only")
	root.PersistentFlags().StringVar(&opts.criteria, "criteria", "", "comma separated criteria (default: all)")
	root.PersistentFlags().BoolVar(&opts.mock, "mock", false, "force the heuristic evaluator")
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "log engine activity to stderr")

	root.AddCommand(newScoreCommand(opts), newCompareCommand(opts), newCriteriaCommand())
	return root
}

func newScoreCommand(opts *globalOptions) *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "score",
		Short: "Score a single HTML file",
		RunE: func(cmd *cobra.Command, _ []string) error {
			html, err := readHTML(file)
			if err != nil {
				return err
			}

			engine, pref, err := buildEngine(opts, cmd.ErrOrStderr())
			if err != nil {
				return err
			}

			result, err := engine.Score(cmd.Context(), scoring.Request{
				HTML:     html,
				URL:      opts.url,
				Criteria: splitCriteria(opts.criteria),
			}, pref)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), result)
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "HTML file to score (- for stdin)")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func newCompareCommand(opts *globalOptions) *cobra.Command {
	var beforeFile, afterFile string

	cmd := &cobra.Command{
		Use:   "compare",
		Short: "Compare a before and after version of the same page",
		RunE: func(cmd *cobra.Command, _ []string) error {
			before, err := readHTML(beforeFile)
			if err != nil {
				return err
			}
			after, err := readHTML(afterFile)
			if err != nil {
				return err
			}

			engine, pref, err := buildEngine(opts, cmd.ErrOrStderr())
			if err != nil {
				return err
			}

			result, err := engine.Compare(cmd.Context(), scoring.CompareRequest{
				BeforeHTML: before,
				AfterHTML:  after,
				URL:        opts.url,
				Criteria:   splitCriteria(opts.criteria),
			}, pref)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), result)
		},
	}
	cmd.Flags().StringVar(&beforeFile, "before", "", "HTML file of the current page")
	cmd.Flags().StringVar(&afterFile, "after", "", "HTML file of the proposed page")
	_ = cmd.MarkFlagRequired("before")
	_ = cmd.MarkFlagRequired("after")
	return cmd
}

func newCriteriaCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "criteria",
		Short: "List the supported criteria",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return writeJSON(cmd.OutOrStdout(), scoring.DefaultRegistry().All())
		},
	}
}

func buildEngine(opts *globalOptions, stderr io.Writer) (*scoring.Engine, scoring.ModePreference, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, 0, fmt.Errorf("load configuration: %w", err)
	}
	if opts.mock {
		cfg.UseMock = true
	}

	logger := zerolog.Nop()
	if opts.verbose {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: stderr}).With().Timestamp().Logger()
	}

	engine, err := bootstrap.NewEngine(cfg, logger)
	if err != nil {
		return nil, 0, err
	}
	return engine, bootstrap.ModePreference(cfg), nil
}

func readHTML(path string) (string, error) {
	if path == "-" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return "", fmt.Errorf("read stdin: %w", err)
		}
		return string(data), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", path, err)
	}
	return string(data), nil
}

func splitCriteria(input string) []string {
	if strings.TrimSpace(input) == "" {
		return nil
	}
	var keys []string
	for _, part := range strings.Split(input, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			keys = append(keys, trimmed)
		}
	}
	return keys
}

func writeJSON(w io.Writer, v any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}
