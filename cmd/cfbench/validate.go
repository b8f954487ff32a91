package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/gabrielg2-creator/cfbench-guide-sub000/internal/history"
	"github.com/gabrielg2-creator/cfbench-guide-sub000/internal/runner"
	"github.com/gabrielg2-creator/cfbench-guide-sub000/internal/semantic"
)

type validateFlags struct {
	json        bool
	pretty      bool
	noStore     bool
	adjudicate  bool
	concurrency int
	detail      string
}

func newValidateCmd(a *app) *cobra.Command {
	var f validateFlags
	cmd := &cobra.Command{
		Use:   "validate <file>...",
		Short: "Validate one or more documents",
		Long: `Runs the structure, content, metadata and model-pass phases on each document
and prints a report. Exits non-zero unless every document passes.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()
			return a.validate(ctx, args, f)
		},
	}
	cmd.Flags().BoolVar(&f.json, "json", false, "Print results as JSON")
	cmd.Flags().BoolVar(&f.pretty, "pretty", false, "Render the markdown report for the terminal")
	cmd.Flags().BoolVar(&f.noStore, "no-store", false, "Do not record runs in history")
	cmd.Flags().BoolVar(&f.adjudicate, "adjudicate", false, "Ask Gemini to judge semantic instructions (advisory)")
	cmd.Flags().IntVar(&f.concurrency, "concurrency", 0, "Documents validated at once (default from config)")
	cmd.Flags().StringVar(&f.detail, "detail", runner.DetailStandard, "Report detail: summary, standard or full")
	return cmd
}

func (a *app) validate(ctx context.Context, paths []string, f validateFlags) error {
	concurrency := a.cfg.Concurrency
	if f.concurrency > 0 {
		concurrency = f.concurrency
	}
	opts := []runner.Option{runner.WithConcurrency(concurrency)}

	if !f.noStore && a.cfg.History.Enabled {
		store, err := history.New(a.cfg.HistoryStoreConfig())
		if err != nil {
			a.log.Warn("run history disabled", zap.Error(err))
		} else {
			defer func() { _ = store.Close() }()
			opts = append(opts, runner.WithRecorder(store))
		}
	}

	if f.adjudicate {
		if !a.cfg.HasGemini() {
			return errors.New("--adjudicate needs a Gemini API key (GEMINI_API_KEY)")
		}
		v, err := semantic.NewGeminiVerifier(ctx, a.cfg.Gemini.APIKey, a.cfg.Gemini.Model)
		if err != nil {
			return err
		}
		opts = append(opts, runner.WithVerifier(v, a.cfg.AdjudicationOptions()))
	}

	r := runner.New(a.cfg.ValidationOptions(), a.log.Named("runner"), opts...)
	results, err := r.ValidateFiles(ctx, paths)
	if err != nil {
		return err
	}

	if f.json {
		enc := json.NewEncoder(a.out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(results); err != nil {
			return fmt.Errorf("encoding results: %w", err)
		}
	} else {
		var sb strings.Builder
		if len(results) > 1 {
			sb.WriteString(runner.FormatBatch(results))
			sb.WriteString("\n")
		}
		for i, res := range results {
			if i > 0 {
				sb.WriteString("\n---\n\n")
			}
			sb.WriteString(runner.FormatReport(res, f.detail))
		}
		if err := render(a.out, sb.String(), f.pretty); err != nil {
			return err
		}
	}

	if !runner.AllPass(results) {
		return errNotPassing
	}
	return nil
}

// render writes markdown, styled for the terminal when pretty is set.
func render(w io.Writer, md string, pretty bool) error {
	if pretty {
		r, err := glamour.NewTermRenderer(
			glamour.WithAutoStyle(),
			glamour.WithWordWrap(100),
		)
		if err != nil {
			return fmt.Errorf("creating renderer: %w", err)
		}
		if md, err = r.Render(md); err != nil {
			return fmt.Errorf("rendering report: %w", err)
		}
	}
	_, err := io.WriteString(w, md)
	return err
}
