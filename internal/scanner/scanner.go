package scanner

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/bmatcuk/doublestar/v4"
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/IgorArodrigues/Gladys-IA/internal/config"
	"github.com/IgorArodrigues/Gladys-IA/internal/gitignore"
)

// gitignoreCacheSize bounds the per-directory ruleset cache so a
// long-lived daemon does not grow without limit.
const gitignoreCacheSize = 1000

// Scanner walks a vault and streams the documents worth indexing.
type Scanner struct {
	gitignoreCache *lru.Cache[string, *gitignore.Ruleset]
	cacheMu        sync.RWMutex
}

// New creates a Scanner.
func New() (*Scanner, error) {
	cache, err := lru.New[string, *gitignore.Ruleset](gitignoreCacheSize)
	if err != nil {
		return nil, fmt.Errorf("create gitignore cache: %w", err)
	}
	return &Scanner{gitignoreCache: cache}, nil
}

// Scan walks the vault in a background goroutine and returns a channel
// of results. The channel closes when the walk finishes or ctx is
// cancelled. Unreadable entries are logged and skipped, never fatal.
func (s *Scanner) Scan(ctx context.Context, opts *ScanOptions) (<-chan ScanResult, error) {
	if opts == nil {
		opts = &ScanOptions{}
	}

	root := opts.Root
	if root == "" {
		root = "."
	}
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve vault root: %w", err)
	}
	info, err := os.Stat(absRoot)
	if err != nil {
		return nil, fmt.Errorf("stat vault root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("vault root is not a directory: %s", absRoot)
	}

	extensions := opts.Extensions
	if len(extensions) == 0 {
		extensions = config.SupportedExtensions
	}
	extSet := make(map[string]struct{}, len(extensions))
	for _, ext := range extensions {
		extSet[strings.ToLower(ext)] = struct{}{}
	}

	segments := make(map[string]struct{}, len(opts.ExcludedSegments))
	for _, seg := range opts.ExcludedSegments {
		segments[seg] = struct{}{}
	}

	maxSize := opts.MaxFileSize
	if maxSize <= 0 {
		maxSize = DefaultMaxFileSize
	}

	results := make(chan ScanResult, 64)
	go func() {
		defer close(results)
		s.walk(ctx, absRoot, opts, extSet, segments, maxSize, results)
	}()
	return results, nil
}

func (s *Scanner) walk(ctx context.Context, absRoot string, opts *ScanOptions, extSet, segments map[string]struct{}, maxSize int64, results chan<- ScanResult) {
	err := filepath.WalkDir(absRoot, func(path string, d fs.DirEntry, err error) error {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if err != nil {
			slog.Warn("skipping unreadable entry", slog.String("path", path), slog.String("error", err.Error()))
			return nil
		}

		relPath, err := filepath.Rel(absRoot, path)
		if err != nil || relPath == "." {
			return nil
		}
		slashRel := filepath.ToSlash(relPath)

		if d.IsDir() {
			// Never descend into Gladys' own state directory.
			if d.Name() == config.GladysDirName {
				return filepath.SkipDir
			}
			if hasExcludedSegment(slashRel, segments) || matchesDirPattern(slashRel, opts.ExcludePatterns) {
				return filepath.SkipDir
			}
			return nil
		}

		if d.Type()&fs.ModeSymlink != 0 && !opts.FollowSymlinks {
			return nil
		}

		ext := strings.ToLower(filepath.Ext(d.Name()))
		if _, ok := extSet[ext]; !ok {
			return nil
		}

		if hasExcludedSegment(slashRel, segments) || matchesGlob(slashRel, opts.ExcludePatterns) {
			return nil
		}
		if opts.RespectGitignore && s.isGitignored(slashRel, absRoot) {
			return nil
		}
		if len(opts.IncludePatterns) > 0 && !matchesGlob(slashRel, opts.IncludePatterns) {
			return nil
		}

		fi, err := d.Info()
		if err != nil {
			slog.Warn("skipping unreadable entry", slog.String("path", path), slog.String("error", err.Error()))
			return nil
		}
		if fi.Size() > maxSize {
			slog.Debug("skipping oversized file",
				slog.String("path", relPath),
				slog.Int64("size", fi.Size()),
				slog.Int64("limit", maxSize))
			return nil
		}

		select {
		case results <- ScanResult{File: &FileInfo{
			Path:    relPath,
			AbsPath: path,
			Size:    fi.Size(),
			ModTime: fi.ModTime(),
		}}:
		case <-ctx.Done():
			return ctx.Err()
		}
		return nil
	})

	if err != nil && err != context.Canceled {
		select {
		case results <- ScanResult{Err: err}:
		case <-ctx.Done():
		}
	}
}

// hasExcludedSegment reports whether any component of the
// slash-separated path is in the excluded segment set.
func hasExcludedSegment(slashRel string, segments map[string]struct{}) bool {
	if len(segments) == 0 {
		return false
	}
	for _, part := range strings.Split(slashRel, "/") {
		if _, ok := segments[part]; ok {
			return true
		}
	}
	return false
}

// matchesGlob checks a file path against doublestar globs.
func matchesGlob(slashRel string, patterns []string) bool {
	for _, pattern := range patterns {
		if ok, err := doublestar.Match(pattern, slashRel); err == nil && ok {
			return true
		}
	}
	return false
}

// matchesDirPattern decides directory pruning. Pruning is only an
// optimization: a directory the patterns name but this helper misses
// still has every file under it rejected by matchesGlob.
func matchesDirPattern(slashRel string, patterns []string) bool {
	for _, pattern := range patterns {
		// **/name/** hides a directory name anywhere in the tree.
		if strings.HasPrefix(pattern, "**/") && strings.HasSuffix(pattern, "/**") {
			name := strings.TrimSuffix(strings.TrimPrefix(pattern, "**/"), "/**")
			if !strings.Contains(name, "*") && !strings.Contains(name, "/") {
				for _, part := range strings.Split(slashRel, "/") {
					if part == name {
						return true
					}
				}
			}
			continue
		}
		// prefix/** hides a subtree rooted at the vault.
		if strings.HasSuffix(pattern, "/**") {
			prefix := strings.TrimSuffix(pattern, "/**")
			if slashRel == prefix || strings.HasPrefix(slashRel, prefix+"/") {
				return true
			}
			continue
		}
		if slashRel == pattern || strings.HasPrefix(slashRel, pattern+"/") {
			return true
		}
	}
	return false
}

// isGitignored consults the root .gitignore plus every .gitignore on
// the path from the root down to the file's directory.
func (s *Scanner) isGitignored(slashRel, absRoot string) bool {
	if rs := s.rulesetFor(absRoot, ""); rs != nil && rs.Ignored(slashRel, false) {
		return true
	}

	dir := ""
	for _, part := range strings.Split(slashRel, "/") {
		// The final component is the file itself.
		if dir == "" {
			dir = part
		} else {
			dir = dir + "/" + part
		}
		if dir == slashRel {
			break
		}
		abs := filepath.Join(absRoot, filepath.FromSlash(dir))
		if rs := s.rulesetFor(abs, dir); rs != nil && rs.Ignored(slashRel, false) {
			return true
		}
	}
	return false
}

// rulesetFor loads and caches the .gitignore rules for one directory.
// A directory without a .gitignore caches nothing and returns nil.
func (s *Scanner) rulesetFor(dir, base string) *gitignore.Ruleset {
	s.cacheMu.RLock()
	rs, ok := s.gitignoreCache.Get(dir)
	s.cacheMu.RUnlock()
	if ok {
		return rs
	}

	path := filepath.Join(dir, ".gitignore")
	if _, err := os.Stat(path); err != nil {
		return nil
	}
	rs, err := gitignore.Load(path, base)
	if err != nil {
		slog.Warn("failed to parse gitignore", slog.String("path", path), slog.String("error", err.Error()))
		return nil
	}

	s.cacheMu.Lock()
	s.gitignoreCache.Add(dir, rs)
	s.cacheMu.Unlock()
	return rs
}

// InvalidateGitignoreCache drops all cached rulesets. Call after a
// .gitignore file changes so the next scan sees fresh rules.
func (s *Scanner) InvalidateGitignoreCache() {
	s.cacheMu.Lock()
	defer s.cacheMu.Unlock()
	s.gitignoreCache.Purge()
}
