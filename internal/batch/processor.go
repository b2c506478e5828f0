package batch

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/easytextract/easytextract/constants"
	"github.com/easytextract/easytextract/internal/entity"
	"github.com/easytextract/easytextract/internal/extract"
	"github.com/easytextract/easytextract/internal/textproc"
)

// Recorder persists file and job rows. Nil means no database.
type Recorder interface {
	UpsertFile(ctx context.Context, f *entity.SourceFile) (id uuid.UUID, existed bool, err error)
	RecordJob(ctx context.Context, j *entity.ExtractJob) error
}

// Options controls one batch run.
type Options struct {
	OutputDir  string          // empty -> text is kept in memory only
	Extensions map[string]bool // lowercased sans '.'; nil -> defaults
	SkipHidden bool
	// Strict stops at the first failed file instead of collecting errors.
	Strict  bool
	Workers int // <=0 -> 4
	Clean   textproc.Options
}

// FileResult is the per-file outcome of a batch run.
type FileResult struct {
	Path         string
	OutputPath   string
	Method       string
	Language     string
	Pages        int
	TextBytes    int
	HashHex      string
	Deduplicated bool
	Err          string
}

// Stats aggregates a batch run. Scanned counts every directory entry visited;
// Matched the files picked up by the extension filter.
type Stats struct {
	Scanned      uint32
	Matched      uint32
	Skipped      uint32
	Succeeded    uint32
	Failed       uint32
	Deduplicated uint32
}

// Processor fans matched files out to a worker pool and runs the extractor on
// each one.
type Processor struct {
	extractor extract.TextExtractor
	recorder  Recorder
	logger    *slog.Logger
}

func NewProcessor(extractor extract.TextExtractor, recorder Recorder, logger *slog.Logger) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Processor{extractor: extractor, recorder: recorder, logger: logger}
}

// Run walks every input (file or directory), extracts text from the matched
// files and, when OutputDir is set, writes one "<basename>.txt" per input.
func (p *Processor) Run(ctx context.Context, inputs []string, opts Options) ([]FileResult, Stats, error) {
	if len(inputs) == 0 {
		return nil, Stats{}, errors.New("at least one input path is required")
	}
	exts := opts.Extensions
	if exts == nil {
		exts = constants.DefaultExtensions
	}
	if opts.OutputDir != "" {
		if err := os.MkdirAll(opts.OutputDir, 0o755); err != nil {
			return nil, Stats{}, fmt.Errorf("create output dir: %w", err)
		}
	}

	var stats Stats
	var matched []string
	for _, input := range inputs {
		info, err := os.Stat(input)
		if err != nil {
			return nil, stats, fmt.Errorf("stat input: %w", err)
		}
		if !info.IsDir() {
			atomic.AddUint32(&stats.Scanned, 1)
			ext := constants.NormalizeExt(filepath.Ext(input))
			if !exts[ext] {
				atomic.AddUint32(&stats.Skipped, 1)
				p.logger.Debug("skipping unmatched file type", "path", input, "ext", ext)
				continue
			}
			atomic.AddUint32(&stats.Matched, 1)
			matched = append(matched, input)
			continue
		}
		werr := filepath.WalkDir(input, func(path string, d fs.DirEntry, walkErr error) error {
			if walkErr != nil {
				// Unreadable entries never reach the workers, so they are
				// skips, not extraction failures.
				atomic.AddUint32(&stats.Skipped, 1)
				p.logger.Warn("walk error, skipping", "path", path, "error", walkErr)
				return nil
			}
			if opts.SkipHidden && isHidden(path) && path != input {
				if d.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}
			if d.IsDir() {
				return nil
			}
			atomic.AddUint32(&stats.Scanned, 1)
			ext := constants.NormalizeExt(filepath.Ext(path))
			if !exts[ext] {
				atomic.AddUint32(&stats.Skipped, 1)
				return nil
			}
			atomic.AddUint32(&stats.Matched, 1)
			matched = append(matched, path)
			return nil
		})
		if werr != nil {
			return nil, stats, fmt.Errorf("walk %s: %w", input, werr)
		}
	}

	workers := opts.Workers
	if workers <= 0 {
		workers = 4
	}
	if workers > len(matched) && len(matched) > 0 {
		workers = len(matched)
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		mu       sync.Mutex
		results  []FileResult
		firstErr error
		names    = newNameAllocator()
		paths    = make(chan string)
		wg       sync.WaitGroup
	)

	wg.Add(workers)
	for w := 0; w < workers; w++ {
		go func() {
			defer wg.Done()
			for path := range paths {
				res := p.processOne(runCtx, path, opts, names)
				mu.Lock()
				results = append(results, res)
				if res.Err != "" {
					atomic.AddUint32(&stats.Failed, 1)
					if opts.Strict && firstErr == nil {
						firstErr = fmt.Errorf("%s: %s", res.Path, res.Err)
						cancel()
					}
				} else if res.Deduplicated {
					atomic.AddUint32(&stats.Deduplicated, 1)
				} else {
					atomic.AddUint32(&stats.Succeeded, 1)
				}
				mu.Unlock()
			}
		}()
	}

feed:
	for _, path := range matched {
		select {
		case paths <- path:
		case <-runCtx.Done():
			break feed
		}
	}
	close(paths)
	wg.Wait()

	if firstErr != nil {
		return results, stats, firstErr
	}
	if err := ctx.Err(); err != nil {
		return results, stats, err
	}
	return results, stats, nil
}

func (p *Processor) processOne(ctx context.Context, path string, opts Options, names *nameAllocator) FileResult {
	res := FileResult{Path: path}

	sum, size, err := hashFile(path)
	if err != nil {
		res.Err = err.Error()
		return res
	}
	res.HashHex = hex.EncodeToString(sum)

	var fileID uuid.UUID
	if p.recorder != nil {
		src := &entity.SourceFile{
			SourcePath:  path,
			Filename:    filepath.Base(path),
			FileExt:     constants.NormalizeExt(filepath.Ext(path)),
			FileSize:    size,
			ContentHash: res.HashHex,
			CreatedAt:   time.Now().UTC(),
		}
		id, existed, err := p.recorder.UpsertFile(ctx, src)
		if err != nil {
			res.Err = err.Error()
			return res
		}
		fileID = id
		if existed {
			p.logger.Info("skipping already-processed file", "path", path, "hash", res.HashHex[:12])
			res.Deduplicated = true
			return res
		}
	}

	started := time.Now().UTC()
	er, err := p.extractor.Extract(ctx, path)
	if p.recorder != nil {
		job := &entity.ExtractJob{
			FileID:     fileID,
			Format:     er.Format,
			Method:     er.Method,
			Language:   er.Language,
			Pages:      er.Pages,
			Confidence: float64(er.Confidence),
			TextBytes:  len(er.Text),
			StartedAt:  started,
			FinishedAt: time.Now().UTC(),
			DurationMS: er.Duration.Milliseconds(),
		}
		if err != nil {
			job.Status = string(constants.JobStatusFailed)
			job.ErrorMessage = err.Error()
		} else {
			job.Status = string(constants.JobStatusSucceeded)
		}
		if rerr := p.recorder.RecordJob(ctx, job); rerr != nil {
			p.logger.Warn("failed to record job", "path", path, "error", rerr)
		}
	}
	if err != nil {
		res.Err = err.Error()
		return res
	}

	text := textproc.Clean(er.Text, opts.Clean)
	res.Method = er.Method
	res.Language = er.Language
	res.Pages = er.Pages
	res.TextBytes = len(text)

	if opts.OutputDir != "" {
		out := names.allocate(opts.OutputDir, filepath.Base(path))
		if err := os.WriteFile(out, []byte(text), 0o644); err != nil {
			res.Err = fmt.Sprintf("write output: %v", err)
			return res
		}
		res.OutputPath = out
	}
	return res
}

func hashFile(path string) (sum []byte, size int64, err error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, err
	}
	defer f.Close()

	h := sha256.New()
	n, err := io.Copy(h, f)
	if err != nil {
		return nil, 0, err
	}
	return h.Sum(nil), n, nil
}

func isHidden(path string) bool {
	return strings.HasPrefix(filepath.Base(path), ".")
}
