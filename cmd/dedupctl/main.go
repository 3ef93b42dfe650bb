// Command dedupctl is the CLI surface of the deduplication engine (§6).
// Flags, prompts, and rendering live here; every destructive or I/O-bound
// decision is made by the internal packages this command wires together.
package main

import (
	"errors"
	"fmt"
	"os"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(exitCodeFor(err))
	}
}

// exitCoder lets internal errors carry the exit code named in §6 without
// cmd/dedupctl hard-coding a type switch over every error package.
type exitCoder interface {
	error
	ExitCode() int
}

func exitCodeFor(err error) int {
	var ec exitCoder
	if errors.As(err, &ec) {
		return ec.ExitCode()
	}
	fmt.Fprintln(os.Stderr, err)
	return 1
}
