// Package rank implements the within-group total ordering used to pick the
// keep-one survivor (§4.6). It generalizes the teacher's
// internal/engine/sorter.go, which only ever compared by path length; here
// priority directories, path-depth, and basename length are layered
// comparators with the same "stable tie-breaker to the end" structure.
package rank

import (
	"path/filepath"
	"sort"
	"strings"

	"github.com/soyunomas/dupedetector/internal/filter"
	"github.com/soyunomas/dupedetector/internal/model"
)

// SortKey selects the within-class comparator (§4.6 item 2).
type SortKey string

const (
	ShortestPath     SortKey = "shortest-path"
	ShortestFilename SortKey = "shortest-filename"
)

// Group sorts a DuplicateGroup's Members in place so that Members[0] is the
// keep-one survivor: priority files first, then ordered by key, with
// lexicographic path as the final deterministic tie-breaker.
func Group(g *model.DuplicateGroup, filters filter.Config, key SortKey) {
	sort.SliceStable(g.Members, func(i, j int) bool {
		return less(g.Members[i], g.Members[j], filters, key)
	})
}

func less(a, b *model.FileRecord, filters filter.Config, key SortKey) bool {
	ap, bp := filters.IsPriority(a.Path), filters.IsPriority(b.Path)
	if ap != bp {
		return ap // priority sorts before non-priority
	}

	switch key {
	case ShortestFilename:
		if la, lb := len(filepath.Base(a.Path)), len(filepath.Base(b.Path)); la != lb {
			return la < lb
		}
		if da, db := depth(a.Path), depth(b.Path); da != db {
			return da < db
		}
	default: // ShortestPath
		if da, db := depth(a.Path), depth(b.Path); da != db {
			return da < db
		}
		if la, lb := len(filepath.Base(a.Path)), len(filepath.Base(b.Path)); la != lb {
			return la < lb
		}
	}
	return a.Path < b.Path
}

// depth counts path components, used as the "fewer path components wins"
// tie-break rule.
func depth(path string) int {
	clean := filepath.Clean(path)
	return strings.Count(clean, string(filepath.Separator))
}
