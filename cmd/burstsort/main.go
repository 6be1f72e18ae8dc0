// Package main implements the CLI driver for the burstsort engine: the
// thin, fallible shell (flag parsing, file I/O, timing, diagnostics)
// around the pure in-memory core.
package main

import "github.com/nkasiti/burstsort/cmd/burstsort/internal/cmd"

func main() {
	cmd.Execute()
}
