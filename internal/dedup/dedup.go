// Package dedup implements the progressive grouping engine (§4.5): boost
// key, then front/middle/end-or-full hashes, each stage dropping singletons
// before the next begins. It is the stage sequencer the teacher's
// internal/engine.Runner generalizes into — boost keys, modes and
// parallel hashing replace the teacher's fixed 3-phase (size, 4KB
// pre-hash, full hash) pipeline.
package dedup

import (
	"context"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"sync/atomic"

	"github.com/soyunomas/dupedetector/internal/group"
	"github.com/soyunomas/dupedetector/internal/hasher"
	"github.com/soyunomas/dupedetector/internal/model"
	"github.com/soyunomas/dupedetector/internal/pool"
	"github.com/soyunomas/dupedetector/internal/progress"
)

// Options configures one deduplication run.
type Options struct {
	Mode    model.Mode
	Boost   model.Boost
	Workers int // 0 means pool.DefaultWorkers()

	Sink progress.Sink      // may be nil
	Stop progress.StopToken // may be nil
}

// Run executes the full stage sequence over files and returns the surviving
// DuplicateGroups, tagged with the mode and sorted per §4.5's rule
// (recoverable bytes desc, then group size desc, then lexicographically
// smallest member path).
func Run(ctx context.Context, files []*model.FileRecord, opts Options) []*model.DuplicateGroup {
	mode := opts.Mode
	if mode == "" {
		mode = model.ModeNormal
	}
	boost := opts.Boost
	if boost == "" {
		boost = model.BoostSize
	}
	workers := opts.Workers
	if workers <= 0 {
		workers = pool.DefaultWorkers()
	}
	sink := opts.Sink
	if sink == nil {
		sink = progress.Noop
	}
	stop := opts.Stop
	if stop == nil {
		stop = alwaysRunning{}
	}

	r := &runner{mode: mode, workers: workers, sink: sink, stop: stop}

	// Stage 0 — boost grouping, no I/O beyond what the scanner already did.
	buckets := group.By(files, boostKey(boost))
	if stop.Stopped() {
		return tagAndSort(buckets, model.Stage(mode))
	}

	// Stage 1 — front hash, all modes.
	buckets = stage(ctx, r, "front", buckets, func(f *model.FileRecord) error {
		h, err := hasher.Front(f.Path, f.Size)
		if err != nil {
			return err
		}
		f.Fingerprints.Front = &h
		return nil
	}, func(f *model.FileRecord) frontKey {
		return frontKey{f.Size, *f.Fingerprints.Front}
	})
	if mode == model.ModeFast || stop.Stopped() {
		return tagAndSort(buckets, model.StageFast)
	}

	// Stage 2 — middle hash, normal and full modes. Skipped per-file when
	// size <= Chunk (front already proves equality for those files).
	buckets = stage(ctx, r, "middle", buckets, func(f *model.FileRecord) error {
		if f.Size <= hasher.Chunk {
			v := *f.Fingerprints.Front
			f.Fingerprints.Middle = &v
			return nil
		}
		h, err := hasher.Middle(f.Path, f.Size)
		if err != nil {
			return err
		}
		f.Fingerprints.Middle = &h
		return nil
	}, func(f *model.FileRecord) middleKey {
		return middleKey{f.Size, *f.Fingerprints.Front, *f.Fingerprints.Middle}
	})
	if stop.Stopped() {
		return tagAndSort(buckets, model.StageNormal)
	}

	if mode == model.ModeFull {
		// Stage 3b — full hash. Skipped per-file when size <= Chunk (full
		// equals front for those files).
		buckets = stage(ctx, r, "full", buckets, func(f *model.FileRecord) error {
			if f.Size <= hasher.Chunk {
				v := *f.Fingerprints.Front
				f.Fingerprints.Full = &v
				return nil
			}
			h, err := hasher.Full(f.Path)
			if err != nil {
				return err
			}
			f.Fingerprints.Full = &h
			return nil
		}, func(f *model.FileRecord) fullKey {
			return fullKey{f.Size, *f.Fingerprints.Front, *f.Fingerprints.Full}
		})
		return tagAndSort(buckets, model.StageFull)
	}

	// Stage 3a — end hash, normal mode only. Skipped per-file when
	// size <= 2*Chunk: End copies Middle for those files, so bytes past
	// the middle range are not compared.
	buckets = stage(ctx, r, "end", buckets, func(f *model.FileRecord) error {
		if f.Size <= 2*hasher.Chunk {
			v := *f.Fingerprints.Middle
			f.Fingerprints.End = &v
			return nil
		}
		h, err := hasher.End(f.Path, f.Size)
		if err != nil {
			return err
		}
		f.Fingerprints.End = &h
		return nil
	}, func(f *model.FileRecord) endKey {
		return endKey{f.Size, *f.Fingerprints.Front, *f.Fingerprints.Middle, *f.Fingerprints.End}
	})
	return tagAndSort(buckets, model.StageNormal)
}

type runner struct {
	mode    model.Mode
	workers int
	sink    progress.Sink
	stop    progress.StopToken
}

type alwaysRunning struct{}

func (alwaysRunning) Stopped() bool { return false }

// stage hashes every member of every bucket in parallel via hashFn (which
// mutates the FileRecord's fingerprint slot), then regroups within each
// input bucket by keyFn and drops singletons. A per-file HashError demotes
// that file to a singleton (dropped), never aborting the stage.
//
// Go methods cannot carry their own type parameters, so this takes the
// runner explicitly rather than being a method of *runner.
func stage[K comparable](ctx context.Context, r *runner, name string, buckets [][]*model.FileRecord, hashFn func(*model.FileRecord) error, keyFn func(*model.FileRecord) K) [][]*model.FileRecord {
	var flat []*model.FileRecord
	for _, b := range buckets {
		flat = append(flat, b...)
	}
	total := int64(len(flat))
	if total == 0 {
		return nil
	}

	interval := progress.StageInterval(total)
	var done atomic.Int64
	ok := make([]bool, len(flat))

	_ = pool.Run(ctx, r.workers, len(flat), func(ctx context.Context, i int) error {
		if r.stop.Stopped() {
			return nil
		}
		f := flat[i]
		if err := hashFn(f); err != nil {
			r.sink(progress.Warning{Path: f.Path, Message: "hash failed: " + err.Error()})
			return nil
		}
		ok[i] = true

		d := done.Add(1)
		if d%interval == 0 {
			r.sink(progress.StageProgress{Stage: name, Done: d, Total: total})
		}
		return nil
	})
	r.sink(progress.StageProgress{Stage: name, Done: total, Total: total})

	survivors := flat[:0:0]
	for i, f := range flat {
		if ok[i] {
			survivors = append(survivors, f)
		}
	}

	var regrouped [][]*model.FileRecord
	for _, b := range buckets {
		var survivingMembers []*model.FileRecord
		for _, f := range b {
			for _, s := range survivors {
				if s == f {
					survivingMembers = append(survivingMembers, f)
					break
				}
			}
		}
		regrouped = append(regrouped, group.By(survivingMembers, keyFn)...)
	}
	return regrouped
}

type frontKey struct {
	size  int64
	front uint64
}

type middleKey struct {
	size   int64
	front  uint64
	middle uint64
}

type endKey struct {
	size   int64
	front  uint64
	middle uint64
	end    uint64
}

type fullKey struct {
	size  int64
	front uint64
	full  uint64
}

func tagAndSort(buckets [][]*model.FileRecord, stage model.Stage) []*model.DuplicateGroup {
	groups := make([]*model.DuplicateGroup, 0, len(buckets))
	for _, b := range buckets {
		if len(b) < 2 {
			continue
		}
		groups = append(groups, &model.DuplicateGroup{
			Size:    b[0].Size,
			Members: b,
			Stage:   stage,
		})
	}
	SortGroups(groups)
	return groups
}

// SortGroups orders groups by recoverable bytes descending, then by group
// size descending, then by the lexicographically smallest member path, for
// deterministic output across runs (§4.5).
func SortGroups(groups []*model.DuplicateGroup) {
	sort.Slice(groups, func(i, j int) bool {
		a, b := groups[i], groups[j]
		ra, rb := a.RecoverableBytes(), b.RecoverableBytes()
		if ra != rb {
			return ra > rb
		}
		if a.Size != b.Size {
			return a.Size > b.Size
		}
		return minPath(a) < minPath(b)
	})
}

func minPath(g *model.DuplicateGroup) string {
	min := g.Members[0].Path
	for _, m := range g.Members[1:] {
		if m.Path < min {
			min = m.Path
		}
	}
	return min
}

// boostTuple is the comparable key type every boost function reduces to:
// size paired with an optional string discriminator (extension, basename,
// or its fuzzy normalization). BoostSize leaves Extra empty.
type boostTuple struct {
	Size  int64
	Extra string
}

// boostKey returns the stage-0 grouping key function for the given boost
// mode.
func boostKey(b model.Boost) func(*model.FileRecord) boostTuple {
	switch b {
	case model.BoostSizeExt:
		return func(f *model.FileRecord) boostTuple {
			return boostTuple{f.Size, extOf(f.Path)}
		}
	case model.BoostSizeFilename:
		return func(f *model.FileRecord) boostTuple {
			return boostTuple{f.Size, strings.ToLower(filepath.Base(f.Path))}
		}
	case model.BoostSizeFuzzyFilename:
		return func(f *model.FileRecord) boostTuple {
			return boostTuple{f.Size, FuzzyFilename(f.Path)}
		}
	default:
		return func(f *model.FileRecord) boostTuple { return boostTuple{Size: f.Size} }
	}
}

func extOf(path string) string {
	return strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
}

var (
	trailingCounter = regexp.MustCompile(`(?i)\s*\((?:copy\s*)?\d*\)\s*$`)
	trailingCopy    = regexp.MustCompile(`(?i)\s*-?\s*copy\s*$`)
	digitRun        = regexp.MustCompile(`\d+`)
)

// FuzzyFilename implements the size_fuzzy_filename normalization frozen in
// SPEC_FULL.md's Open Questions: lowercase the basename without extension,
// strip a trailing parenthesized counter, strip a trailing "- copy"/"copy"
// tail, then collapse digit runs to a single placeholder.
func FuzzyFilename(path string) string {
	base := filepath.Base(path)
	ext := filepath.Ext(base)
	name := strings.TrimSuffix(base, ext)
	name = strings.ToLower(name)
	name = trailingCounter.ReplaceAllString(name, "")
	name = trailingCopy.ReplaceAllString(name, "")
	name = digitRun.ReplaceAllString(name, "#")
	return strings.TrimSpace(name)
}
