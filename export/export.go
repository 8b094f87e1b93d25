// Package export serializes rewritten document text into downloadable
// artifacts: txt, md, json, csv, xlsx, and docx.
//
// The structured formats interpret the text as JSON when possible. A list
// of objects becomes a multi-row table with the union of keys as columns, a
// single object becomes a one-row table, and anything else falls back to a
// single ai_output cell, so an export request succeeds no matter what the
// model produced.
//
// Separate subpackage so the spreadsheet dependency is only pulled in by
// users who need file export.
//
// Usage:
//
//	exp := export.NewSet()
//	files, err := exp.Export("out", "report", output, []string{"json", "csv"})
package export

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	quire "github.com/nevindra/quire"
)

// Compile-time interface check.
var _ quire.Exporter = (*Set)(nil)

// Set writes rewritten text to disk in one or more formats concurrently.
type Set struct {
	logger *slog.Logger
}

// Option configures a Set.
type Option func(*Set)

// WithLogger sets a logger for per-file export events.
func WithLogger(l *slog.Logger) Option {
	return func(s *Set) { s.logger = l }
}

// NewSet creates an exporter covering all supported formats.
func NewSet(opts ...Option) *Set {
	s := &Set{}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Formats lists the supported export formats in sorted order.
func Formats() []string {
	out := make([]string, 0, len(writers))
	for f := range writers {
		out = append(out, f)
	}
	sort.Strings(out)
	return out
}

// Export writes output under dir in each requested format, using base as
// the filename stem. Formats are case-insensitive and deduplicated, and
// they are validated up front: one unknown format fails the call before
// anything is written. Files are written concurrently and the result comes
// back sorted by format name.
func (s *Set) Export(dir, base, output string, formats []string) ([]quire.ExportFile, error) {
	if len(formats) == 0 {
		return nil, nil
	}

	type job struct {
		format string
		write  writerFunc
	}
	jobs := make([]job, 0, len(formats))
	seen := make(map[string]bool, len(formats))
	for _, f := range formats {
		name := strings.ToLower(strings.TrimSpace(f))
		if seen[name] {
			continue
		}
		w, ok := writers[name]
		if !ok {
			return nil, fmt.Errorf("%s: %w", f, quire.ErrUnsupportedFormat)
		}
		seen[name] = true
		jobs = append(jobs, job{format: name, write: w})
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create export dir: %w", err)
	}

	var (
		g     errgroup.Group
		mu    sync.Mutex
		files []quire.ExportFile
	)
	for _, j := range jobs {
		g.Go(func() error {
			path := filepath.Join(dir, base+"."+j.format)
			f, err := os.Create(path)
			if err != nil {
				return fmt.Errorf("export %s: %w", j.format, err)
			}
			if err := j.write(f, output); err != nil {
				f.Close()
				return fmt.Errorf("export %s: %w", j.format, err)
			}
			if err := f.Close(); err != nil {
				return fmt.Errorf("export %s: %w", j.format, err)
			}
			info, err := os.Stat(path)
			if err != nil {
				return fmt.Errorf("export %s: %w", j.format, err)
			}
			if s.logger != nil {
				s.logger.Debug("export written",
					"format", j.format, "path", path, "size", info.Size())
			}
			mu.Lock()
			files = append(files, quire.ExportFile{Format: j.format, Path: path, Size: info.Size()})
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	sort.Slice(files, func(i, k int) bool { return files[i].Format < files[k].Format })
	return files, nil
}
