package store

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/soyunomas/dupedetector/internal/dedup"
	"github.com/soyunomas/dupedetector/internal/filter"
	"github.com/soyunomas/dupedetector/internal/model"
	"github.com/soyunomas/dupedetector/internal/scanner"
)

func mustWrite(t *testing.T, path string, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

// Scenario 6 from §8: save scenario-1 results, reload, assert identical.
func TestSaveLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	mustWrite(t, filepath.Join(dir, "a.txt"), "hello")
	mustWrite(t, filepath.Join(dir, "b.txt"), "hello")
	mustWrite(t, filepath.Join(dir, "c.txt"), "world")

	params := model.FilterParams{MinSize: 1}
	sc := scanner.New(filter.New(params))
	scan, err := sc.Scan(dir)
	require.NoError(t, err)
	scan.Filters = params

	groups := dedup.Run(context.Background(), scan.Files, dedup.Options{Mode: model.ModeNormal, Boost: model.BoostSize})
	dr := &model.DedupResult{Groups: groups, Mode: model.ModeNormal, Boost: model.BoostSize, Run: "run-1"}

	var buf bytes.Buffer
	require.NoError(t, Save(&buf, scan, dr))

	reloadedScan, reloadedDedup, err := Load(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)

	require.Equal(t, len(scan.Files), len(reloadedScan.Files))
	require.Len(t, reloadedDedup.Groups, 1)
	require.Len(t, reloadedDedup.Groups[0].Members, 2)
	require.Equal(t, int64(5), reloadedDedup.Groups[0].Size)

	var buf2 bytes.Buffer
	require.NoError(t, Save(&buf2, reloadedScan, reloadedDedup))
	require.Equal(t, buf.String(), buf2.String())
}

func TestLoadRejectsWrongSchema(t *testing.T) {
	_, _, err := Load(bytes.NewReader([]byte(`{"schema": 999}`)))
	require.Error(t, err)
	var ce CorruptedResultError
	require.ErrorAs(t, err, &ce)
}

func TestLoadRejectsMalformedJSON(t *testing.T) {
	_, _, err := Load(bytes.NewReader([]byte(`not json`)))
	require.Error(t, err)
}

func TestLoadRejectsOutOfRangeMemberIndex(t *testing.T) {
	doc := `{"schema":1,"filters":{"min_size":1},"files":[{"path":"/a","size":1,"front":null,"middle":null,"end":null,"full":null}],"groups":[{"size":1,"mode":"normal","members":[5]}]}`
	_, _, err := Load(bytes.NewReader([]byte(doc)))
	require.Error(t, err)
}

func TestSaveFileAndLoadFile(t *testing.T) {
	dir := t.TempDir()
	mustWrite(t, filepath.Join(dir, "a.txt"), "x")

	params := model.FilterParams{MinSize: 1}
	sc := scanner.New(filter.New(params))
	scan, err := sc.Scan(dir)
	require.NoError(t, err)
	scan.Filters = params

	path := filepath.Join(t.TempDir(), "out.json")
	require.NoError(t, SaveFile(path, scan, nil))

	reloadedScan, reloadedDedup, err := LoadFile(path)
	require.NoError(t, err)
	require.Len(t, reloadedScan.Files, 1)
	require.Nil(t, reloadedDedup)
}
