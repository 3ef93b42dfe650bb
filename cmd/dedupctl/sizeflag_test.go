package main

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseSizeSuffixes(t *testing.T) {
	cases := map[string]int64{
		"":     0,
		"0":    0,
		"1":    1,
		"1B":   1,
		"1KB":  1024,
		"10MB": 10 * 1024 * 1024,
		"2GB":  2 * 1024 * 1024 * 1024,
		"1kb":  1024,
	}
	for input, want := range cases {
		got, err := parseSize(input)
		require.NoError(t, err, input)
		require.Equal(t, want, got, input)
	}
}

func TestParseSizeRejectsInvalid(t *testing.T) {
	for _, input := range []string{"abc", "-5", "5XB"} {
		_, err := parseSize(input)
		require.Error(t, err, input)
	}
}
