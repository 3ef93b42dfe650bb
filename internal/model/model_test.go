package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestRecoverableBytes(t *testing.T) {
	g := &DuplicateGroup{Size: 100, Members: []*FileRecord{{}, {}, {}}}
	require.Equal(t, int64(200), g.RecoverableBytes())

	single := &DuplicateGroup{Size: 100, Members: []*FileRecord{{}}}
	require.Equal(t, int64(0), single.RecoverableBytes())
}

func TestHasModTime(t *testing.T) {
	var f FileRecord
	require.False(t, f.HasModTime())
	f.ModTime = time.Now()
	require.True(t, f.HasModTime())
}

func TestSameIdentity(t *testing.T) {
	a := &FileRecord{DeviceID: 1, Inode: 5}
	b := &FileRecord{DeviceID: 1, Inode: 5}
	c := &FileRecord{DeviceID: 1, Inode: 6}
	require.True(t, a.SameIdentity(b))
	require.False(t, a.SameIdentity(c))
}
