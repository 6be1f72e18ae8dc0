// Package procstat reads the calling process's virtual memory size from
// /proc/self/stat for inclusion in diagnostic output. Only Linux exposes
// this file; callers on other platforms should treat a non-nil error as
// "diagnostic unavailable" rather than fatal.
package procstat

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// VSizeField is the 1-indexed position of vsize within /proc/[pid]/stat:
// (pid, comm, state, ppid, pgrp, session, tty_nr, tpgid, flags, minflt,
// cminflt, majflt, cmajflt, utime, stime, cutime, cstime, priority, nice,
// num_threads, itrealvalue, starttime, vsize).
const VSizeField = 23

// VSize returns the calling process's current virtual memory size in
// bytes, as reported by the kernel in /proc/self/stat.
func VSize() (uint64, error) {
	return vsizeFromPath("/proc/self/stat")
}

func vsizeFromPath(path string) (uint64, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("procstat: %w", err)
	}
	defer f.Close()

	r := bufio.NewReaderSize(f, 4096)
	line, err := r.ReadString('\n')
	if err != nil && line == "" {
		return 0, fmt.Errorf("procstat: read %s: %w", path, err)
	}

	// comm (field 2) is parenthesized and may itself contain spaces, so
	// split on the last ')' before tokenizing the remaining
	// whitespace-separated fields, the same way /proc/[pid]/stat parsers
	// conventionally guard against it.
	close := strings.LastIndexByte(line, ')')
	if close < 0 {
		return 0, fmt.Errorf("procstat: malformed %s: no comm field", path)
	}
	rest := strings.Fields(line[close+1:])

	// rest[0] is field 3 (state); field N is rest[N-3] for N >= 3.
	idx := VSizeField - 3
	if idx < 0 || idx >= len(rest) {
		return 0, fmt.Errorf("procstat: malformed %s: only %d fields after comm", path, len(rest))
	}

	vsize, err := strconv.ParseUint(rest[idx], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("procstat: parse vsize: %w", err)
	}
	return vsize, nil
}
