// Package store implements the versioned JSON load/save of scan and
// duplicate results (§4.9, §6). It generalizes the teacher's ad hoc
// Report/GroupResult JSON shape in cmd/dupedetector/main.go into the
// schema-versioned, round-trippable format the spec requires: files are
// stored once with their fingerprints, and groups reference them by index.
package store

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/soyunomas/dupedetector/internal/model"
)

// Schema is the current on-disk schema version. §4.4 pins the digest
// algorithm (xxhash) as part of this contract: bumping Schema is
// required if the algorithm or digest width ever changes.
const Schema = 1

// Document is the root JSON shape described in §6.
type Document struct {
	Schema  int         `json:"schema"`
	Filters filters     `json:"filters"`
	Files   []fileJSON  `json:"files"`
	Mode    string      `json:"mode,omitempty"`
	Boost   string      `json:"boost,omitempty"`
	Groups  []groupJSON `json:"groups"`
}

type filters struct {
	MinSize      int64    `json:"min_size"`
	MaxSize      int64    `json:"max_size,omitempty"`
	Extensions   []string `json:"extensions,omitempty"`
	ExcludedDirs []string `json:"excluded_dirs,omitempty"`
	PriorityDirs []string `json:"priority_dirs,omitempty"`
}

type fileJSON struct {
	Path   string  `json:"path"`
	Size   int64   `json:"size"`
	MTime  int64   `json:"mtime,omitempty"`
	Front  *string `json:"front"`
	Middle *string `json:"middle"`
	End    *string `json:"end"`
	Full   *string `json:"full"`
}

type groupJSON struct {
	Size    int64  `json:"size"`
	Mode    string `json:"mode"`
	Members []int  `json:"members"`
}

// Save writes scan and dedup (dedup may be nil if only a scan was run) to w
// as the versioned JSON document described in §6.
func Save(w io.Writer, scan *model.ScanResult, dedup *model.DedupResult) error {
	doc := Document{
		Schema: Schema,
		Filters: filters{
			MinSize:      scan.Filters.MinSize,
			MaxSize:      scan.Filters.MaxSize,
			Extensions:   scan.Filters.Extensions,
			ExcludedDirs: scan.Filters.ExcludedDirs,
			PriorityDirs: scan.Filters.PriorityDirs,
		},
	}

	index := make(map[*model.FileRecord]int, len(scan.Files))
	for i, f := range scan.Files {
		index[f] = i
		doc.Files = append(doc.Files, fileJSON{
			Path:   f.Path,
			Size:   f.Size,
			MTime:  epoch(f),
			Front:  hexPtr(f.Fingerprints.Front),
			Middle: hexPtr(f.Fingerprints.Middle),
			End:    hexPtr(f.Fingerprints.End),
			Full:   hexPtr(f.Fingerprints.Full),
		})
	}

	if dedup != nil {
		doc.Mode = string(dedup.Mode)
		doc.Boost = string(dedup.Boost)
		for _, g := range dedup.Groups {
			gj := groupJSON{Size: g.Size, Mode: string(g.Stage)}
			for _, m := range g.Members {
				idx, ok := index[m]
				if !ok {
					return fmt.Errorf("store: group member %q not present in file list", m.Path)
				}
				gj.Members = append(gj.Members, idx)
			}
			doc.Groups = append(doc.Groups, gj)
		}
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(doc)
}

// SaveFile is a convenience wrapper around Save that writes to path.
func SaveFile(path string, scan *model.ScanResult, dedup *model.DedupResult) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return Save(f, scan, dedup)
}

// Load reads a versioned document and rebuilds a ScanResult and DedupResult
// without re-hashing: fingerprints from disk are trusted for display only
// (§4.9) — any subsequent keep-one action must re-stat and, if modes
// differ, re-hash before trusting group membership.
func Load(r io.Reader) (*model.ScanResult, *model.DedupResult, error) {
	var doc Document
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, nil, CorruptedResultError{Reason: err.Error()}
	}
	if doc.Schema != Schema {
		return nil, nil, CorruptedResultError{Reason: fmt.Sprintf("unsupported schema version %d (want %d)", doc.Schema, Schema)}
	}

	files := make([]*model.FileRecord, len(doc.Files))
	for i, fj := range doc.Files {
		fp := model.Fingerprints{}
		var err error
		if fp.Front, err = fromHex(fj.Front); err != nil {
			return nil, nil, CorruptedResultError{Reason: err.Error()}
		}
		if fp.Middle, err = fromHex(fj.Middle); err != nil {
			return nil, nil, CorruptedResultError{Reason: err.Error()}
		}
		if fp.End, err = fromHex(fj.End); err != nil {
			return nil, nil, CorruptedResultError{Reason: err.Error()}
		}
		if fp.Full, err = fromHex(fj.Full); err != nil {
			return nil, nil, CorruptedResultError{Reason: err.Error()}
		}

		files[i] = &model.FileRecord{
			Path:         fj.Path,
			Size:         fj.Size,
			Fingerprints: fp,
		}
		if fj.MTime != 0 {
			files[i].ModTime = fromEpoch(fj.MTime)
		}
	}

	scan := &model.ScanResult{
		Files: files,
		Filters: model.FilterParams{
			MinSize:      doc.Filters.MinSize,
			MaxSize:      doc.Filters.MaxSize,
			Extensions:   doc.Filters.Extensions,
			ExcludedDirs: doc.Filters.ExcludedDirs,
			PriorityDirs: doc.Filters.PriorityDirs,
		},
	}
	for _, f := range files {
		scan.TotalSize += f.Size
	}

	if len(doc.Groups) == 0 {
		return scan, nil, nil
	}

	dedup := &model.DedupResult{
		Mode:  model.Mode(doc.Mode),
		Boost: model.Boost(doc.Boost),
	}
	for _, gj := range doc.Groups {
		g := &model.DuplicateGroup{Size: gj.Size, Stage: model.Stage(gj.Mode)}
		for _, idx := range gj.Members {
			if idx < 0 || idx >= len(files) {
				return nil, nil, CorruptedResultError{Reason: fmt.Sprintf("group member index %d out of range", idx)}
			}
			g.Members = append(g.Members, files[idx])
		}
		dedup.Groups = append(dedup.Groups, g)
	}

	return scan, dedup, nil
}

// LoadFile is a convenience wrapper around Load that reads from path.
func LoadFile(path string) (*model.ScanResult, *model.DedupResult, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()
	return Load(f)
}

// CorruptedResultError is returned by Load on JSON decode failure or schema
// mismatch (§7).
type CorruptedResultError struct {
	Reason string
}

func (e CorruptedResultError) Error() string {
	return "corrupted result: " + e.Reason
}

func epoch(f *model.FileRecord) int64 {
	if !f.HasModTime() {
		return 0
	}
	return f.ModTime.Unix()
}

func fromEpoch(sec int64) time.Time {
	return time.Unix(sec, 0).UTC()
}

func hexPtr(h *uint64) *string {
	if h == nil {
		return nil
	}
	s := fmt.Sprintf("%016x", *h)
	return &s
}

func fromHex(s *string) (*uint64, error) {
	if s == nil {
		return nil, nil
	}
	b, err := hex.DecodeString(*s)
	if err != nil || len(b) != 8 {
		return nil, fmt.Errorf("store: invalid digest %q", *s)
	}
	var v uint64
	for _, bb := range b {
		v = v<<8 | uint64(bb)
	}
	return &v, nil
}
