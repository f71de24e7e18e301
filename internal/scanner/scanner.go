// Package scanner discovers posts in the content directory.
//
// The scanner walks the directory for markdown files, parses their YAML
// frontmatter and registers the resulting posts with the post registry,
// which broadcasts change events to watchers. Files are parsed by a small
// worker pool; registration happens afterwards in path order so repeated
// scans are deterministic.
package scanner

import (
	"context"
	"fmt"
	"hash/crc32"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync"

	"github.com/conneroisu/ogcard/internal/errors"
	"github.com/conneroisu/ogcard/internal/logging"
	"github.com/conneroisu/ogcard/internal/registry"
	"github.com/conneroisu/ogcard/internal/types"
)

// DefaultExtensions are scanned when none are configured.
var DefaultExtensions = []string{".md", ".markdown"}

// PostScanner parses markdown files into posts.
type PostScanner struct {
	registry   *registry.PostRegistry
	extensions []string
	logger     logging.Logger
	workers    int
}

// scanResult is the outcome of parsing one file.
type scanResult struct {
	path string
	post *types.Post
	err  error
}

// NewPostScanner creates a scanner that registers posts with reg.
func NewPostScanner(reg *registry.PostRegistry, extensions []string, logger logging.Logger) *PostScanner {
	if len(extensions) == 0 {
		extensions = DefaultExtensions
	}
	if logger == nil {
		logger = logging.Discard()
	}

	workers := runtime.NumCPU()
	if workers > 8 {
		workers = 8
	}

	return &PostScanner{
		registry:   reg,
		extensions: extensions,
		logger:     logger.WithComponent("scanner"),
		workers:    workers,
	}
}

// GetRegistry returns the post registry
func (s *PostScanner) GetRegistry() *registry.PostRegistry {
	return s.registry
}

// ScanDirectory parses every content file under dir. Posts whose files
// disappeared since the last scan are removed. Files that fail to parse are
// skipped and reported together in the returned error.
func (s *PostScanner) ScanDirectory(dir string) error {
	info, err := os.Stat(dir)
	if err != nil {
		return errors.NewIOError(errors.ErrCodeFileNotFound, "content directory not found", err).WithFile(dir)
	}
	if !info.IsDir() {
		return errors.NewIOError(errors.ErrCodeFileNotFound, "content path is not a directory", nil).WithFile(dir)
	}

	var files []string
	err = filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if path != dir && strings.HasPrefix(d.Name(), ".") {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() || !s.IsContentFile(path) {
			return nil
		}
		files = append(files, path)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to walk content directory: %w", err)
	}

	results := s.parseAll(files)

	var scanErrors []error
	seen := make(map[string]string, len(results))
	for _, r := range results {
		if r.err == nil {
			if other, dup := seen[r.post.ID]; dup {
				r.err = errors.NewValidationError(errors.ErrCodeValidationFailed,
					fmt.Sprintf("duplicate post id %q, also used by %s", r.post.ID, other)).WithFile(r.path)
			}
		}
		if r.err != nil {
			s.logger.Warn(context.Background(), r.err, "Skipping content file", "file", r.path)
			scanErrors = append(scanErrors, fmt.Errorf("scanning %s: %w", r.path, r.err))
			continue
		}
		seen[r.post.ID] = r.path
		s.registerPost(r.post)
	}

	s.removeStale(dir, seen)

	if len(scanErrors) > 0 {
		return fmt.Errorf("scan completed with %d errors: %w", len(scanErrors), scanErrors[0])
	}
	return nil
}

// ScanFile rescans a single file. A file that no longer exists has its
// post removed.
func (s *PostScanner) ScanFile(path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		s.registry.RemoveByPath(path)
		return nil
	}

	r := s.parseFile(path)
	if r.err != nil {
		return r.err
	}

	if existing, ok := s.registry.Get(r.post.ID); ok && existing.FilePath != path {
		return errors.NewValidationError(errors.ErrCodeValidationFailed,
			fmt.Sprintf("duplicate post id %q, also used by %s", r.post.ID, existing.FilePath)).WithFile(path)
	}
	s.registerPost(r.post)
	return nil
}

// IsContentFile reports whether path has one of the scanned extensions.
func (s *PostScanner) IsContentFile(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range s.extensions {
		if ext == e {
			return true
		}
	}
	return false
}

// registerPost drops the previous post of the same file when its id
// changed, then registers the new one.
func (s *PostScanner) registerPost(post *types.Post) {
	if old, ok := s.registry.FindByPath(post.FilePath); ok && old.ID != post.ID {
		s.registry.Remove(old.ID)
	}
	s.registry.Register(post)
}

func (s *PostScanner) removeStale(dir string, seen map[string]string) {
	prefix := filepath.Clean(dir) + string(filepath.Separator)
	for _, post := range s.registry.All() {
		if !strings.HasPrefix(post.FilePath, prefix) {
			continue
		}
		if path, ok := seen[post.ID]; ok && path == post.FilePath {
			continue
		}
		if _, err := os.Stat(post.FilePath); os.IsNotExist(err) {
			s.registry.Remove(post.ID)
		}
	}
}

// parseAll parses files concurrently and returns results in path order.
func (s *PostScanner) parseAll(files []string) []scanResult {
	sort.Strings(files)
	results := make([]scanResult, len(files))

	// For very small batches, process synchronously to avoid overhead
	if len(files) <= 5 {
		for i, f := range files {
			results[i] = s.parseFile(f)
		}
		return results
	}

	jobs := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < s.workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				results[i] = s.parseFile(files[i])
			}
		}()
	}
	for i := range files {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	return results
}

func (s *PostScanner) parseFile(path string) scanResult {
	file, err := os.Open(path)
	if err != nil {
		return scanResult{path: path, err: errors.NewIOError(errors.ErrCodeFileNotFound, "failed to open content file", err).WithFile(path)}
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return scanResult{path: path, err: fmt.Errorf("getting file info for %s: %w", path, err)}
	}

	content := make([]byte, info.Size())
	if _, err := io.ReadFull(file, content); err != nil {
		return scanResult{path: path, err: fmt.Errorf("reading file %s: %w", path, err)}
	}

	post, err := ParsePost(path, content)
	if err != nil {
		return scanResult{path: path, err: err}
	}
	post.LastMod = info.ModTime()
	post.Hash = fmt.Sprintf("%x", crc32.ChecksumIEEE(content))
	return scanResult{path: path, post: post}
}
