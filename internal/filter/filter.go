// Package filter implements the size/extension/directory predicates that
// decide which files a scan keeps, and the priority-directory predicate used
// later by the ranker.
package filter

import (
	"path/filepath"
	"strings"

	"github.com/soyunomas/dupedetector/internal/model"
)

// Config mirrors model.FilterParams but pre-processes the extension list
// into an O(1) lookup set and cleans the directory lists.
type Config struct {
	MinSize int64 // default 1 if zero
	MaxSize int64 // 0 means unbounded

	extensions   map[string]struct{} // empty set means "all"
	excludedDirs []string            // absolute, cleaned
	priorityDirs []string            // absolute, cleaned
}

// New builds a Config from raw filter parameters. Extension entries are
// lowercased and stripped of a leading dot; directory entries are passed
// through filepath.Clean (they are not made absolute here).
func New(p model.FilterParams) Config {
	c := Config{
		MinSize: p.MinSize,
		MaxSize: p.MaxSize,
	}
	if c.MinSize <= 0 {
		c.MinSize = 1
	}

	if len(p.Extensions) > 0 {
		c.extensions = make(map[string]struct{}, len(p.Extensions))
		for _, e := range p.Extensions {
			e = strings.ToLower(strings.TrimPrefix(e, "."))
			c.extensions[e] = struct{}{}
		}
	}

	for _, d := range p.ExcludedDirs {
		c.excludedDirs = append(c.excludedDirs, filepath.Clean(d))
	}
	for _, d := range p.PriorityDirs {
		c.priorityDirs = append(c.priorityDirs, filepath.Clean(d))
	}
	return c
}

// Extension returns the lowercased final dotted component of name, or "" if
// name has none.
func Extension(name string) string {
	ext := filepath.Ext(name)
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}

// Keep reports whether a file of the given path and size satisfies the
// size and extension predicates. It does not check exclusion — the scanner
// checks ExcludesDir against directories as it walks, before ever stat-ing
// files beneath an excluded one.
func (c Config) Keep(path string, size int64) bool {
	if size < c.MinSize {
		return false
	}
	if c.MaxSize > 0 && size > c.MaxSize {
		return false
	}
	if c.extensions == nil {
		return true
	}
	_, ok := c.extensions[Extension(path)]
	return ok
}

// ExcludesDir reports whether dir (an absolute, cleaned directory path) is
// itself one of the configured excluded directories. The scanner uses this
// at each directory boundary to decide whether to descend.
func (c Config) ExcludesDir(dir string) bool {
	dir = filepath.Clean(dir)
	for _, ex := range c.excludedDirs {
		if dir == ex {
			return true
		}
	}
	return false
}

// IsPriority reports whether path has any configured priority directory as
// an ancestor.
func (c Config) IsPriority(path string) bool {
	for _, pd := range c.priorityDirs {
		if hasAncestor(path, pd) {
			return true
		}
	}
	return false
}

// hasAncestor reports whether ancestor is path itself or a parent directory
// of path, using filepath.Rel to avoid naive string-prefix false positives
// (e.g. "/foo" must not match "/foobar/x").
func hasAncestor(path, ancestor string) bool {
	rel, err := filepath.Rel(ancestor, path)
	if err != nil {
		return false
	}
	if rel == "." {
		return true
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}
