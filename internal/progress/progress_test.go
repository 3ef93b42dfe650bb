package progress

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestThrottlePassesEveryNth(t *testing.T) {
	var received []int64
	sink := Throttle(func(e Event) {
		received = append(received, e.(ScanProgress).FilesSeen)
	}, 3)

	for i := int64(1); i <= 9; i++ {
		sink(ScanProgress{FilesSeen: i})
	}
	require.Equal(t, []int64{3, 6, 9}, received)
}

func TestThrottleAlwaysPassesWarningsAndDone(t *testing.T) {
	var count int
	sink := Throttle(func(e Event) { count++ }, 100)

	sink(Warning{Path: "/a"})
	sink(Done{Summary: "done"})
	require.Equal(t, 2, count)
}

func TestFromContextReflectsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	token := FromContext(ctx)
	require.False(t, token.Stopped())
	cancel()
	require.True(t, token.Stopped())
}

func TestStageIntervalFloorIsOne(t *testing.T) {
	require.Equal(t, int64(1), StageInterval(0))
	require.Equal(t, int64(1), StageInterval(199))
	require.Equal(t, int64(2), StageInterval(400))
}

func TestNoopDiscardsEverything(t *testing.T) {
	require.NotPanics(t, func() { Noop(Done{Summary: "x"}) })
}
