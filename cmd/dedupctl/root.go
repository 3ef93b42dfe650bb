package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/fatih/color"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/soyunomas/dupedetector/internal/dedup"
	"github.com/soyunomas/dupedetector/internal/filter"
	"github.com/soyunomas/dupedetector/internal/keepone"
	"github.com/soyunomas/dupedetector/internal/model"
	"github.com/soyunomas/dupedetector/internal/progress"
	"github.com/soyunomas/dupedetector/internal/rank"
	"github.com/soyunomas/dupedetector/internal/scanner"
	"github.com/soyunomas/dupedetector/internal/store"
)

type flags struct {
	input        string
	minSize      string
	maxSize      string
	extensions   string
	priorityDirs string
	excludedDirs string
	boost        string
	mode         string
	sortKey      string
	keepOne      bool
	force        bool
	verbose      bool

	jsonOut  string
	loadPath string
	script   string
}

func newRootCommand() *cobra.Command {
	f := &flags{}

	cmd := &cobra.Command{
		Use:   "dedupctl",
		Short: "Find byte-identical duplicate files and optionally keep only one copy",
		Long: `dedupctl finds byte-identical duplicate files inside a directory subtree
and, with --keep-one, moves all but one file per duplicate group to trash.

It avoids reading more of a file than necessary to prove non-duplication:
files are grouped by size, then narrowed by front/middle/end content
digests, escalating to a full-file hash only in --mode full.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, f)
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	p := cmd.Flags()
	p.StringVarP(&f.input, "input", "i", "", "root directory to scan (required)")
	p.StringVarP(&f.minSize, "min-size", "m", "", "minimum file size (e.g. 1KB, 10MB)")
	p.StringVarP(&f.maxSize, "max-size", "M", "", "maximum file size (e.g. 1GB)")
	p.StringVarP(&f.extensions, "extensions", "x", "", "space-separated suffixes to include")
	p.StringVarP(&f.priorityDirs, "priority-dirs", "p", "", "space-separated directories whose files rank first in a group")
	p.StringVar(&f.excludedDirs, "excluded-dirs", "", "space-separated directories to exclude from the scan")
	p.StringVar(&f.boost, "boost", "size", "boost key: size, extension, filename, fuzzy_filename")
	p.StringVar(&f.mode, "mode", "normal", "hashing depth: fast, normal, full")
	p.StringVar(&f.sortKey, "sort", "shortest-path", "keep-one ranking: shortest-path, shortest-filename")
	p.BoolVar(&f.keepOne, "keep-one", false, "after finding duplicates, move non-winners to trash")
	p.BoolVar(&f.force, "force", false, "with --keep-one, skip the confirmation prompt")
	p.BoolVarP(&f.verbose, "verbose", "v", false, "emit stage-by-stage statistics to stderr")

	p.StringVar(&f.jsonOut, "save", "", "save scan/dedup results as JSON to this path")
	p.StringVar(&f.loadPath, "load", "", "load a previously saved JSON result instead of scanning")
	p.StringVar(&f.script, "output", "", "write a review shell script instead of acting directly")

	return cmd
}

func run(cmd *cobra.Command, f *flags) error {
	log := logrus.New()
	log.SetOutput(os.Stderr)
	if f.verbose {
		log.SetLevel(logrus.DebugLevel)
	} else {
		log.SetLevel(logrus.InfoLevel)
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		select {
		case <-sigCh:
			cancel()
		case <-ctx.Done():
		}
	}()

	sink := progress.Throttle(progress.Logrus(log), 1)
	runID := uuid.NewString()
	log.WithField("run", runID).Debug("starting")

	var scanResult *model.ScanResult
	var dedupResult *model.DedupResult

	if f.loadPath != "" {
		sr, dr, err := store.LoadFile(f.loadPath)
		if err != nil {
			return err
		}
		scanResult, dedupResult = sr, dr
	} else {
		if f.input == "" {
			return usageError{"--input is required"}
		}
		minSize, err := parseSize(f.minSize)
		if err != nil {
			return usageError{err.Error()}
		}
		maxSize, err := parseSize(f.maxSize)
		if err != nil {
			return usageError{err.Error()}
		}
		mode, err := parseMode(f.mode)
		if err != nil {
			return usageError{err.Error()}
		}
		boost, err := parseBoost(f.boost)
		if err != nil {
			return usageError{err.Error()}
		}

		params := model.FilterParams{
			MinSize:      minSize,
			MaxSize:      maxSize,
			Extensions:   strings.Fields(f.extensions),
			ExcludedDirs: absAll(strings.Fields(f.excludedDirs)),
			PriorityDirs: absAll(strings.Fields(f.priorityDirs)),
		}
		filters := filter.New(params)

		sc := scanner.New(filters)
		sc.Sink = sink
		sc.Stop = progress.FromContext(ctx)

		scanResult, err = sc.Scan(f.input)
		if scanResult == nil {
			return err
		}
		scanResult.Filters = params
		if err != nil {
			cancel()
			return cancelledError{}
		}
		log.WithField("files", len(scanResult.Files)).Info("scan complete")

		groups := dedup.Run(ctx, scanResult.Files, dedup.Options{
			Mode:  mode,
			Boost: boost,
			Sink:  sink,
			Stop:  progress.FromContext(ctx),
		})
		dedupResult = &model.DedupResult{Groups: groups, Mode: mode, Boost: boost, Run: runID}

		if ctx.Err() != nil {
			printGroups(cmd, dedupResult, filters)
			return cancelledError{}
		}
	}

	filters := filter.New(scanResult.Filters)

	if f.jsonOut != "" {
		if err := store.SaveFile(f.jsonOut, scanResult, dedupResult); err != nil {
			return err
		}
	}

	if len(dedupResult.Groups) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "no duplicates found")
		return nil
	}

	if f.script != "" {
		return writeScript(f.script, dedupResult, filters, sortKeyOf(f.sortKey))
	}

	printGroups(cmd, dedupResult, filters)

	if !f.keepOne {
		return nil
	}

	if !f.force {
		if !confirm(cmd) {
			fmt.Fprintln(cmd.OutOrStdout(), "aborted")
			return nil
		}
	}

	trashDir := filepath.Join(f.input, ".dedupctl-trash")
	result, summary := keepone.Run(dedupResult, filters, keepone.Options{
		SortKey: sortKeyOf(f.sortKey),
		Trash:   keepone.LocalTrash(trashDir),
		Sink:    sink,
		Stop:    progress.FromContext(ctx),
	})

	fmt.Fprintf(cmd.OutOrStdout(), "\nmoved %d files, %d failures, %d hard links left in place\n", summary.Moved, summary.Failed, summary.HardLinked)
	for _, failure := range summary.Failures {
		fmt.Fprintf(cmd.ErrOrStderr(), "  failed: %s: %s\n", failure.Path, failure.Message)
	}
	for _, hl := range summary.HardLinks {
		fmt.Fprintf(cmd.ErrOrStderr(), "  hardlink: %s\n", hl)
	}
	_ = result

	if ctx.Err() != nil {
		return cancelledError{}
	}
	if summary.Failed > 0 {
		return deleteError{failed: summary.Failed}
	}
	return nil
}

func sortKeyOf(s string) keepone.SortKey {
	if strings.EqualFold(s, "shortest-filename") {
		return keepone.ShortestFilename
	}
	return keepone.ShortestPath
}

func parseMode(s string) (model.Mode, error) {
	switch strings.ToLower(s) {
	case "", "normal":
		return model.ModeNormal, nil
	case "fast":
		return model.ModeFast, nil
	case "full":
		return model.ModeFull, nil
	default:
		return "", fmt.Errorf("unknown mode %q", s)
	}
}

func parseBoost(s string) (model.Boost, error) {
	switch strings.ToLower(s) {
	case "", "size":
		return model.BoostSize, nil
	case "extension":
		return model.BoostSizeExt, nil
	case "filename":
		return model.BoostSizeFilename, nil
	case "fuzzy_filename":
		return model.BoostSizeFuzzyFilename, nil
	default:
		return "", fmt.Errorf("unknown boost %q", s)
	}
}

func absAll(paths []string) []string {
	out := make([]string, 0, len(paths))
	for _, p := range paths {
		if abs, err := filepath.Abs(p); err == nil {
			out = append(out, abs)
		} else {
			out = append(out, p)
		}
	}
	return out
}

// printGroups renders the non-verbose text format described in §6: a blank
// line, then "Group N (size=SIZE, members=K):", then one path per line,
// priority files prefixed with "*".
func printGroups(cmd *cobra.Command, result *model.DedupResult, filters filter.Config) {
	out := cmd.OutOrStdout()
	bold := color.New(color.Bold)
	for i, g := range result.Groups {
		fmt.Fprintln(out)
		bold.Fprintf(out, "Group %d (size=%d, members=%d):\n", i+1, g.Size, len(g.Members))
		for _, m := range g.Members {
			prefix := " "
			if filters.IsPriority(m.Path) {
				prefix = "*"
			}
			fmt.Fprintf(out, "%s%s\n", prefix, m.Path)
		}
	}
}

func confirm(cmd *cobra.Command) bool {
	fmt.Fprint(cmd.OutOrStdout(), "Move non-winners to trash? [y/N] ")
	reader := bufio.NewReader(cmd.InOrStdin())
	line, _ := reader.ReadString('\n')
	line = strings.TrimSpace(strings.ToLower(line))
	return line == "y" || line == "yes"
}

// writeScript renders the review shell script supplemented from the
// teacher's -output mode (generateShellScript in cmd/dupedetector/main.go):
// one rm -v line per victim, under a comment header per duplicate group
// that names the group and its keeper.
func writeScript(path string, result *model.DedupResult, filters filter.Config, key keepone.SortKey) error {
	fh, err := os.Create(path)
	if err != nil {
		return err
	}
	defer fh.Close()

	w := bufio.NewWriter(fh)
	fmt.Fprintln(w, "#!/bin/sh")
	fmt.Fprintln(w, "# generated by dedupctl --output")
	fmt.Fprintln(w)

	for i, g := range result.Groups {
		gCopy := *g
		members := append([]*model.FileRecord(nil), g.Members...)
		gCopy.Members = members
		rank.Group(&gCopy, filters, key)

		fmt.Fprintf(w, "# Group %d (size=%d)\n", i+1, g.Size)
		fmt.Fprintf(w, "# Keeper: %s\n", gCopy.Members[0].Path)
		for _, victim := range gCopy.Members[1:] {
			fmt.Fprintf(w, "rm -v %q\n", victim.Path)
		}
		fmt.Fprintln(w)
	}
	return w.Flush()
}
