// Package runner drives validation for the CLI and the MCP server: it reads
// documents, validates them concurrently, optionally asks a semantic
// verifier for advice, records runs in history and renders reports.
package runner

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/gabrielg2-creator/cfbench-guide-sub000/internal/history"
	"github.com/gabrielg2-creator/cfbench-guide-sub000/internal/notebook"
	"github.com/gabrielg2-creator/cfbench-guide-sub000/internal/semantic"
	"github.com/gabrielg2-creator/cfbench-guide-sub000/internal/validation"
)

// DefaultConcurrency bounds ValidateFiles when no limit is configured.
const DefaultConcurrency = 4

// Recorder stores finished runs. *history.Store satisfies it.
type Recorder interface {
	SaveRun(p history.SaveRunParams) (id string, updated bool, err error)
}

// Result is one validated document.
type Result struct {
	Name         string                 `json:"name"`
	Conversation *notebook.Conversation `json:"-"`
	Report       *validation.Report     `json:"report,omitempty"`
	Semantic     []semantic.Result      `json:"semantic,omitempty"`
	RunID        string                 `json:"run_id,omitempty"`
	Updated      bool                   `json:"updated,omitempty"`
	Error        string                 `json:"error,omitempty"`
}

// Failed reports whether the document could not be validated at all.
func (r *Result) Failed() bool { return r.Report == nil }

// Runner validates documents. It is safe for concurrent use.
type Runner struct {
	opts        validation.Options
	log         *zap.Logger
	store       Recorder
	verifier    semantic.Verifier
	adjudicate  semantic.Options
	concurrency int
	readFile    func(string) ([]byte, error)
}

// Option configures a Runner.
type Option func(*Runner)

// WithRecorder records every run.
func WithRecorder(rec Recorder) Option {
	return func(r *Runner) { r.store = rec }
}

// WithVerifier adjudicates semantic instructions with v.
func WithVerifier(v semantic.Verifier, opts semantic.Options) Option {
	return func(r *Runner) {
		r.verifier = v
		r.adjudicate = opts
	}
}

// WithConcurrency bounds the documents validated at once.
func WithConcurrency(n int) Option {
	return func(r *Runner) {
		if n > 0 {
			r.concurrency = n
		}
	}
}

// New creates a Runner. A nil logger is replaced with a no-op logger.
func New(opts validation.Options, log *zap.Logger, options ...Option) *Runner {
	if log == nil {
		log = zap.NewNop()
	}
	r := &Runner{opts: opts, log: log, concurrency: DefaultConcurrency, readFile: os.ReadFile}
	for _, o := range options {
		o(r)
	}
	return r
}

// Options returns the thresholds the runner validates with.
func (r *Runner) Options() validation.Options { return r.opts }

// ValidateDocument validates one document. Adjudication and recording
// failures are logged and do not fail the call; only a canceled context
// does.
func (r *Runner) ValidateDocument(ctx context.Context, name, content string) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	start := time.Now()
	conv, report := validation.ValidateDocument(content, r.opts)
	res := &Result{Name: name, Conversation: conv, Report: report}
	log := r.log.With(zap.String("document", name))
	log.Debug("validated",
		zap.String("status", report.Summary.Status),
		zap.Int("failed", report.Summary.Failed),
		zap.Int("cells", len(conv.Cells)),
		zap.Duration("elapsed", time.Since(start)))

	if r.verifier != nil {
		results, err := semantic.Adjudicate(ctx, r.verifier, conv, r.adjudicate)
		switch {
		case err != nil && ctx.Err() != nil:
			return nil, ctx.Err()
		case err != nil:
			log.Warn("semantic adjudication failed", zap.Error(err))
		default:
			res.Semantic = results
		}
	}

	if r.store != nil {
		id, updated, err := r.store.SaveRun(history.SaveRunParams{Name: name, Document: content, Report: report})
		if err != nil {
			log.Warn("could not record run", zap.Error(err))
		} else {
			res.RunID, res.Updated = id, updated
			log.Debug("recorded run", zap.String("run_id", id), zap.Bool("updated", updated))
		}
	}
	return res, nil
}

// ValidateFile reads and validates one file.
func (r *Runner) ValidateFile(ctx context.Context, path string) (*Result, error) {
	data, err := r.readFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return r.ValidateDocument(ctx, filepath.Base(path), string(data))
}

// ValidateFiles validates paths concurrently and returns results in input
// order. Unreadable files become results with Error set.
func (r *Runner) ValidateFiles(ctx context.Context, paths []string) ([]*Result, error) {
	results := make([]*Result, len(paths))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.concurrency)
	for i, path := range paths {
		g.Go(func() error {
			res, err := r.ValidateFile(gctx, path)
			switch {
			case err == nil:
				results[i] = res
			case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
				return err
			default:
				r.log.Warn("skipping document", zap.String("path", path), zap.Error(err))
				results[i] = &Result{Name: filepath.Base(path), Error: err.Error()}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
