package source

import (
	"context"
	"io"
	"os"
	"runtime"
	"slices"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Neumenon/plist/plist"
)

// Options configures ParseAll.
type Options struct {
	Parse plist.ParseOptions

	// Workers bounds concurrent parses; <= 0 means GOMAXPROCS.
	Workers int

	// Stdin is read for the Stdin path; nil means os.Stdin. It is read
	// once, however many times Stdin is named.
	Stdin io.Reader

	// Logger receives per-file debug lines and failure warnings. Nil
	// disables logging.
	Logger *zap.Logger
}

// Result is the outcome for one path. Err is set when the file could not be
// read or parsed; Document is kept when only parsing failed so callers can
// render diagnostics against the text.
type Result struct {
	Path     string
	Document *Document
	Value    *plist.Value
	Err      error
}

// ParseAll loads and parses every path in parallel. Results are returned in
// path order. Per-file failures are reported in Result.Err; the returned
// error is non-nil only when ctx is done before all files are processed.
func ParseAll(ctx context.Context, paths []string, opts Options) ([]Result, error) {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	load := Load
	if slices.Contains(paths, Stdin) {
		load = stdinLoader(opts.Stdin)
	}

	results := make([]Result, len(paths))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i, path := range paths {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = parseOne(path, opts.Parse, logger, load)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return results, err
	}
	return results, ctx.Err()
}

// stdinLoader reads r up front and serves a copy of the document for each
// Stdin path; other paths go to Load.
func stdinLoader(r io.Reader) func(string) (*Document, error) {
	if r == nil {
		r = os.Stdin
	}
	stdinDoc, stdinErr := Read(r, Stdin)
	return func(path string) (*Document, error) {
		if path != Stdin {
			return Load(path)
		}
		if stdinErr != nil {
			return nil, stdinErr
		}
		doc := *stdinDoc
		return &doc, nil
	}
}

func parseOne(path string, opts plist.ParseOptions, logger *zap.Logger, load func(string) (*Document, error)) Result {
	start := time.Now()
	res := Result{Path: path}

	doc, err := load(path)
	if err != nil {
		logger.Warn("failed to load document", zap.String("path", path), zap.Error(err))
		res.Err = err
		return res
	}
	res.Document = doc

	v, err := doc.Parse(opts)
	if err != nil {
		logger.Warn("failed to parse document", zap.String("path", path), zap.Error(err))
		res.Err = err
		return res
	}
	res.Value = v

	logger.Debug("parsed document",
		zap.String("path", path),
		zap.Stringer("compression", doc.Compression),
		zap.Int("bytes", len(doc.Text)),
		zap.Duration("elapsed", time.Since(start)))
	return res
}
