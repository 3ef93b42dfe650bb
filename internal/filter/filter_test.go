package filter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soyunomas/dupedetector/internal/model"
)

func TestNewDefaultsMinSizeToOne(t *testing.T) {
	c := New(model.FilterParams{})
	assert.Equal(t, int64(1), c.MinSize)
}

func TestKeepSizeBounds(t *testing.T) {
	c := New(model.FilterParams{MinSize: 10, MaxSize: 100})
	assert.False(t, c.Keep("/a", 9))
	assert.True(t, c.Keep("/a", 10))
	assert.True(t, c.Keep("/a", 100))
	assert.False(t, c.Keep("/a", 101))
}

func TestKeepExtensionsEmptyMeansAll(t *testing.T) {
	c := New(model.FilterParams{})
	assert.True(t, c.Keep("/a/b.jpg", 5))
	assert.True(t, c.Keep("/a/b", 5))
}

func TestKeepExtensionsFiltersCaseInsensitively(t *testing.T) {
	c := New(model.FilterParams{Extensions: []string{"JPG", ".png"}})
	assert.True(t, c.Keep("/a/photo.jpg", 5))
	assert.True(t, c.Keep("/a/photo.PNG", 5))
	assert.False(t, c.Keep("/a/photo.gif", 5))
	assert.False(t, c.Keep("/a/noext", 5))
}

func TestExcludesDirExactMatchOnly(t *testing.T) {
	c := New(model.FilterParams{ExcludedDirs: []string{"/root/cache"}})
	assert.True(t, c.ExcludesDir("/root/cache"))
	assert.False(t, c.ExcludesDir("/root/cached"))
	assert.False(t, c.ExcludesDir("/root"))
}

func TestIsPriorityAncestorCheck(t *testing.T) {
	c := New(model.FilterParams{PriorityDirs: []string{"/root/sub1"}})
	assert.True(t, c.IsPriority("/root/sub1/pic.jpg"))
	assert.True(t, c.IsPriority("/root/sub1/nested/pic.jpg"))
	assert.False(t, c.IsPriority("/root/sub1x/pic.jpg"))
	assert.False(t, c.IsPriority("/root/sub2/pic.jpg"))
}

func TestExtension(t *testing.T) {
	require.Equal(t, "jpg", Extension("/a/b.JPG"))
	require.Equal(t, "", Extension("/a/b"))
}
