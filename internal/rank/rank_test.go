package rank

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/soyunomas/dupedetector/internal/filter"
	"github.com/soyunomas/dupedetector/internal/model"
)

func newGroup(paths ...string) *model.DuplicateGroup {
	members := make([]*model.FileRecord, len(paths))
	for i, p := range paths {
		members[i] = &model.FileRecord{Path: p}
	}
	return &model.DuplicateGroup{Members: members}
}

// Scenario 3 from §8: priority directory wins regardless of sort key.
func TestGroupPriorityBeatsShortestPath(t *testing.T) {
	g := newGroup("/T/sub2/pic.jpg", "/T/sub1/pic.jpg", "/T/sub2/pic_copy.jpg")
	filters := filter.New(model.FilterParams{PriorityDirs: []string{"/T/sub1"}})

	Group(g, filters, ShortestPath)
	require.Equal(t, "/T/sub1/pic.jpg", g.Members[0].Path)
}

func TestShortestPathPrefersFewerComponents(t *testing.T) {
	g := newGroup("/a/b/c/file.txt", "/a/file.txt")
	filters := filter.New(model.FilterParams{})

	Group(g, filters, ShortestPath)
	require.Equal(t, "/a/file.txt", g.Members[0].Path)
}

func TestShortestFilenamePrefersShorterBasename(t *testing.T) {
	g := newGroup("/a/longname.txt", "/a/b/short.txt")
	filters := filter.New(model.FilterParams{})

	Group(g, filters, ShortestFilename)
	require.Equal(t, "/a/b/short.txt", g.Members[0].Path)
}

func TestGroupIsInvariantUnderPermutation(t *testing.T) {
	filters := filter.New(model.FilterParams{PriorityDirs: []string{"/T/sub1"}})
	paths := []string{"/T/sub2/pic.jpg", "/T/sub1/pic.jpg", "/T/sub2/pic_copy.jpg", "/T/z.jpg", "/T/a/deep/nested.jpg"}

	var firstWinner string
	for attempt := 0; attempt < 20; attempt++ {
		shuffled := append([]string(nil), paths...)
		rand.Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })

		g := newGroup(shuffled...)
		Group(g, filters, ShortestPath)
		if attempt == 0 {
			firstWinner = g.Members[0].Path
		} else {
			require.Equal(t, firstWinner, g.Members[0].Path)
		}
	}
}

func TestLexicographicTieBreaker(t *testing.T) {
	g := newGroup("/a/z.txt", "/a/a.txt")
	filters := filter.New(model.FilterParams{})

	Group(g, filters, ShortestPath)
	require.Equal(t, "/a/a.txt", g.Members[0].Path)
}
