package main

import (
	"fmt"
	"strconv"
	"strings"
)

// parseSize parses a size with an optional B|KB|MB|GB suffix (powers of
// 1024), per §6. An empty string means "unset" (0).
func parseSize(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}

	upper := strings.ToUpper(s)
	multiplier := int64(1)
	numPart := upper

	switch {
	case strings.HasSuffix(upper, "GB"):
		multiplier = 1024 * 1024 * 1024
		numPart = strings.TrimSuffix(upper, "GB")
	case strings.HasSuffix(upper, "MB"):
		multiplier = 1024 * 1024
		numPart = strings.TrimSuffix(upper, "MB")
	case strings.HasSuffix(upper, "KB"):
		multiplier = 1024
		numPart = strings.TrimSuffix(upper, "KB")
	case strings.HasSuffix(upper, "B"):
		multiplier = 1
		numPart = strings.TrimSuffix(upper, "B")
	}

	numPart = strings.TrimSpace(numPart)
	n, err := strconv.ParseInt(numPart, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid size %q: %w", s, err)
	}
	if n < 0 {
		return 0, fmt.Errorf("invalid size %q: must not be negative", s)
	}
	return n * multiplier, nil
}
