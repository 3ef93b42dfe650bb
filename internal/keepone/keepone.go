// Package keepone implements the keep-one executor (§4.7): rank a group,
// retain the first member, and invoke an injected move_to_trash function for
// every other member, aggregating per-file outcomes.
package keepone

import (
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/soyunomas/dupedetector/internal/filter"
	"github.com/soyunomas/dupedetector/internal/model"
	"github.com/soyunomas/dupedetector/internal/progress"
	"github.com/soyunomas/dupedetector/internal/rank"
)

// MoveToTrash is the injected platform collaborator (§4.7, §6): the core
// never hard-codes how a file actually reaches the OS trash.
type MoveToTrash func(path string) error

// Failure records why a single victim could not be moved.
type Failure struct {
	Path    string
	Message string
}

// Summary aggregates the outcome of running keep-one over a DedupResult.
type Summary struct {
	Moved      int
	Failed     int
	Failures   []Failure
	HardLinked int      // members sharing an inode with the keeper or an earlier member; never trashed
	HardLinks  []string // their paths, for reporting
}

// Options configures a keep-one run.
type Options struct {
	SortKey SortKey
	Trash   MoveToTrash // required
	Sink    progress.Sink
	Stop    progress.StopToken
}

// SortKey re-exports rank.SortKey so callers need only import this package.
type SortKey = rank.SortKey

const (
	ShortestPath     = rank.ShortestPath
	ShortestFilename = rank.ShortestFilename
)

// Run ranks every group in result, retains the first-ranked member, and
// trashes the rest via opts.Trash. It returns a new DedupResult containing
// only groups that still have >=2 members (fully-resolved groups are
// dropped), plus the aggregate Summary. Cancellation is checked between
// files, never between the two syscalls a single move is made of.
func Run(result *model.DedupResult, filters filter.Config, opts Options) (*model.DedupResult, Summary) {
	sink := opts.Sink
	if sink == nil {
		sink = progress.Noop
	}
	stop := opts.Stop
	if stop == nil {
		stop = noStop{}
	}

	var summary Summary
	var survivors []*model.DuplicateGroup

	for _, g := range result.Groups {
		rank.Group(g, filters, opts.SortKey)

		kept := g.Members[0]
		var remaining []*model.FileRecord
		remaining = append(remaining, kept)

		seen := []*model.FileRecord{kept}

		for _, victim := range g.Members[1:] {
			if stop.Stopped() {
				remaining = append(remaining, victim)
				continue
			}

			if sharesIdentity(victim, seen) {
				// Already represented on disk via a hard link to a file
				// we're keeping or have already processed: trashing it
				// would not recover any space, so it is left alone and
				// reported separately rather than as a moved/failed victim.
				summary.HardLinked++
				summary.HardLinks = append(summary.HardLinks, victim.Path)
				remaining = append(remaining, victim)
				continue
			}
			seen = append(seen, victim)

			if err := opts.Trash(victim.Path); err != nil {
				summary.Failed++
				summary.Failures = append(summary.Failures, Failure{Path: victim.Path, Message: err.Error()})
				sink(progress.Warning{Path: victim.Path, Message: "trash failed: " + err.Error()})
				remaining = append(remaining, victim)
				continue
			}
			summary.Moved++
		}

		if len(remaining) >= 2 {
			g.Members = remaining
			survivors = append(survivors, g)
		}
	}

	return &model.DedupResult{
		Groups: survivors,
		Mode:   result.Mode,
		Boost:  result.Boost,
		Run:    result.Run,
	}, summary
}

// sharesIdentity reports whether f is a hard link (same device and inode)
// of any record already in seen. Records with an unresolved inode (0, e.g.
// loaded from an older JSON save) never match.
func sharesIdentity(f *model.FileRecord, seen []*model.FileRecord) bool {
	if f.Inode == 0 {
		return false
	}
	for _, s := range seen {
		if f.SameIdentity(s) {
			return true
		}
	}
	return false
}

type noStop struct{}

func (noStop) Stopped() bool { return false }

// LocalTrash returns a default MoveToTrash implementation that moves files
// into dir (creating it if necessary), renaming every file by appending a
// nanosecond timestamp to its base name — the timestamp scheme the teacher's moveToTrash used for
// its "./TRASH_BIN" folder. This exists because the platform trash call is
// explicitly out of scope (§1): it is a stand-in collaborators can swap for
// a real desktop-trash integration.
func LocalTrash(dir string) MoveToTrash {
	return func(path string) error {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}

		name := filepath.Base(path)
		ext := filepath.Ext(name)
		base := strings.TrimSuffix(name, ext)
		dest := filepath.Join(dir, base+"_"+strconv.FormatInt(time.Now().UnixNano(), 10)+ext)

		if err := os.Rename(path, dest); err != nil {
			if isCrossDevice(err) {
				return moveCrossDevice(path, dest)
			}
			return err
		}
		return nil
	}
}

func isCrossDevice(err error) bool {
	return strings.Contains(err.Error(), "cross-device") || strings.Contains(err.Error(), "EXDEV")
}

// moveCrossDevice copies src to dst and removes src; os.Rename fails with
// EXDEV when src and dst are on different filesystems, same as the
// teacher's moveToTrash fallback.
func moveCrossDevice(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	if err := out.Close(); err != nil {
		return err
	}
	return os.Remove(src)
}
