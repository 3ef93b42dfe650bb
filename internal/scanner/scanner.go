// Package scanner implements the recursive directory walk that produces
// FileRecords for every regular file passing the configured filters (§4.2).
package scanner

import (
	"io/fs"
	"os"
	"path/filepath"
	"syscall"

	"github.com/soyunomas/dupedetector/internal/filter"
	"github.com/soyunomas/dupedetector/internal/model"
	"github.com/soyunomas/dupedetector/internal/progress"
)

// throttleEvery bounds scan-progress emission to fewer than ~50 events/sec
// via an amortized counter-mod check (§4.2), not a timer.
const throttleEvery = 64

type inodeKey struct {
	dev, ino uint64
}

// Scanner walks a root path and emits FileRecords for every regular file
// that satisfies its Filters. It is single-threaded per the concurrency
// model in §5 — only the hashing stages downstream are parallelized.
type Scanner struct {
	Filters filter.Config
	Sink    progress.Sink // may be nil
	Stop    progress.StopToken
}

// New builds a Scanner with sane defaults for a nil Sink/Stop.
func New(filters filter.Config) *Scanner {
	return &Scanner{Filters: filters, Sink: progress.Noop, Stop: alwaysRunning{}}
}

type alwaysRunning struct{}

func (alwaysRunning) Stopped() bool { return false }

func (s *Scanner) emit(e progress.Event) {
	if s.Sink != nil {
		s.Sink(e)
	}
}

// Scan walks root and returns every FileRecord passing the scanner's
// filters. Directory permission errors are counted as warnings, not fatal;
// stat errors on individual files are likewise warnings and the file is
// omitted. Symlinks to files are followed once per inode; symlinks to
// directories are never followed, avoiding cycles.
func (s *Scanner) Scan(root string) (*model.ScanResult, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	if resolved, err := filepath.EvalSymlinks(absRoot); err == nil {
		absRoot = resolved
	}

	var files []*model.FileRecord
	var totalSize int64
	var seen int64
	visited := make(map[inodeKey]struct{})
	recorded := make(map[string]struct{})

	var walk func(dir string) error
	walk = func(dir string) error {
		if s.Stop.Stopped() {
			return errStopped
		}
		if s.Filters.ExcludesDir(dir) {
			return nil
		}

		entries, err := os.ReadDir(dir)
		if err != nil {
			s.emit(progress.Warning{Path: dir, Message: "cannot read directory: " + err.Error()})
			return nil
		}

		for _, entry := range entries {
			path := filepath.Join(dir, entry.Name())
			typ := entry.Type()

			if typ&os.ModeSymlink != 0 {
				resolved, info, err := resolveSymlink(path)
				if err != nil {
					s.emit(progress.Warning{Path: path, Message: "cannot resolve symlink: " + err.Error()})
					continue
				}
				if info.IsDir() {
					// Symlinks to directories are never followed (cycle guard).
					continue
				}
				if err := s.considerFile(resolved, info, true, visited, recorded, &files, &totalSize, &seen); err != nil {
					s.emit(progress.Warning{Path: resolved, Message: err.Error()})
				}
				continue
			}

			if typ.IsDir() {
				if err := walk(path); err != nil {
					return err
				}
				continue
			}

			if !typ.IsRegular() {
				continue
			}

			info, err := entry.Info()
			if err != nil {
				s.emit(progress.Warning{Path: path, Message: "stat failed: " + err.Error()})
				continue
			}
			if err := s.considerFile(path, info, false, visited, recorded, &files, &totalSize, &seen); err != nil {
				s.emit(progress.Warning{Path: path, Message: err.Error()})
			}
		}
		return nil
	}

	err = walk(absRoot)
	partial := err == errStopped
	if err != nil && !partial {
		return nil, err
	}

	result := &model.ScanResult{
		Files:     files,
		TotalSize: totalSize,
	}
	if partial {
		return result, errStopped
	}
	return result, nil
}

// considerFile applies the size/extension filter and appends a FileRecord if
// the file should be kept. The visited-inode cycle guard only applies when
// viaSymlink is true: a symlink to a file is followed exactly once per
// inode (§4.2), but plain hard-linked regular files reached through normal
// traversal are distinct paths and each get their own FileRecord. A path
// already recorded (e.g. a regular file that a symlink earlier in the walk
// resolved to) is never recorded a second time.
func (s *Scanner) considerFile(path string, info fs.FileInfo, viaSymlink bool, visited map[inodeKey]struct{}, recorded map[string]struct{}, files *[]*model.FileRecord, totalSize *int64, seen *int64) error {
	if _, ok := recorded[path]; ok {
		return nil
	}
	dev, ino := sysIdentity(info)
	if viaSymlink && ino != 0 {
		key := inodeKey{dev, ino}
		if _, ok := visited[key]; ok {
			return nil
		}
		visited[key] = struct{}{}
	}

	size := info.Size()
	if !s.Filters.Keep(path, size) {
		return nil
	}

	recorded[path] = struct{}{}
	*files = append(*files, &model.FileRecord{
		Path:     path,
		Size:     size,
		ModTime:  info.ModTime(),
		DeviceID: dev,
		Inode:    ino,
	})
	*totalSize += size

	*seen++
	if *seen%throttleEvery == 0 {
		s.emit(progress.ScanProgress{FilesSeen: *seen})
	}
	return nil
}

func resolveSymlink(path string) (string, fs.FileInfo, error) {
	resolved, err := filepath.EvalSymlinks(path)
	if err != nil {
		return "", nil, err
	}
	info, err := os.Stat(resolved)
	if err != nil {
		return "", nil, err
	}
	return resolved, info, nil
}

func sysIdentity(info fs.FileInfo) (uint64, uint64) {
	stat, ok := info.Sys().(*syscall.Stat_t)
	if !ok {
		return 0, 0
	}
	return uint64(stat.Dev), uint64(stat.Ino)
}

// errStopped is a sentinel used internally to unwind the recursive walk
// once the stop token fires; it is never returned to callers as a normal
// error — Scan translates it into a (partial result, errStopped) pair.
var errStopped = stopError{}

type stopError struct{}

func (stopError) Error() string { return "scan cancelled" }
