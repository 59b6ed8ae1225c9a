package dataset

import (
	"context"
	"errors"
	"fmt"
	"os"
	"runtime"
	"slices"
	"strings"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/montplusa/rcss2d-imitation/pkg/normalize"
)

// Op processes one input table and returns the path it wrote.
type Op func(ctx context.Context, path string) (string, error)

// Failure is a table that could not be processed.
type Failure struct {
	Path string
	Err  error
}

// Summary reports the outcome of a pipeline run.
type Summary struct {
	Written  []string
	Skipped  []string
	Failures []Failure
}

func (s Summary) String() string {
	return fmt.Sprintf("written=%d skipped=%d failed=%d", len(s.Written), len(s.Skipped), len(s.Failures))
}

// Err joins every failure, or returns nil.
func (s Summary) Err() error {
	errs := make([]error, len(s.Failures))
	for i, f := range s.Failures {
		errs[i] = fmt.Errorf("%s: %w", f.Path, f.Err)
	}
	return errors.Join(errs...)
}

// Pipeline runs a per table operation over many files concurrently. Tables
// share nothing but the read only parameter sets, so each worker owns its
// file from read to write.
type Pipeline struct {
	Workers  int // defaults to runtime.NumCPU()
	Compress bool
	OutDir   string
	Resolver normalize.Resolver // zero value means normalize.Default
	Logger   *zap.Logger
}

func (p *Pipeline) logger() *zap.Logger {
	if p.Logger == nil {
		return zap.NewNop()
	}
	return p.Logger
}

// Run applies op to every path. A failing table does not stop the others;
// failures are collected in the summary. Run only returns an error when ctx
// is cancelled.
func (p *Pipeline) Run(ctx context.Context, paths []string, op Op) (Summary, error) {
	workers := p.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	logger := p.logger()
	prof := NewProfiler(logger)

	var (
		mu      sync.Mutex
		summary Summary
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for _, path := range paths {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			done := prof.Start("table", zap.String("file", path))
			out, err := op(gctx, path)
			done()

			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				summary.Written = append(summary.Written, out)
			case errors.Is(err, ErrSkip):
				logger.Debug("skip file", zap.String("file", path), zap.Error(err))
				summary.Skipped = append(summary.Skipped, path)
			case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
				return err
			default:
				logger.Error("failed to process file", zap.String("file", path), zap.Error(err))
				summary.Failures = append(summary.Failures, Failure{Path: path, Err: err})
			}
			return nil
		})
	}
	err := g.Wait()
	if err == nil {
		err = ctx.Err()
	}

	slices.Sort(summary.Written)
	slices.Sort(summary.Skipped)
	slices.SortFunc(summary.Failures, func(a, b Failure) int { return strings.Compare(a.Path, b.Path) })
	logger.Info("pipeline done", zap.Int("files", len(paths)), zap.Stringer("summary", summary))
	return summary, err
}

func (p *Pipeline) prepare() error {
	if p.OutDir == "" {
		return errors.New("output directory is required")
	}
	return os.MkdirAll(p.OutDir, 0o755)
}

// Extract runs ExtractFile over paths.
func (p *Pipeline) Extract(ctx context.Context, paths []string) (Summary, error) {
	if err := p.prepare(); err != nil {
		return Summary{}, err
	}
	return p.Run(ctx, paths, func(_ context.Context, path string) (string, error) {
		return ExtractFile(path, p.OutDir, p.Compress)
	})
}

// Normalize runs NormalizeFile over paths.
func (p *Pipeline) Normalize(ctx context.Context, paths []string) (Summary, error) {
	if err := p.prepare(); err != nil {
		return Summary{}, err
	}
	r := p.Resolver
	if r == (normalize.Resolver{}) {
		r = normalize.Default
	}
	return p.Run(ctx, paths, func(_ context.Context, path string) (string, error) {
		return NormalizeFile(path, p.OutDir, p.Compress, r)
	})
}
