package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/nkasiti/burstsort"
	"github.com/nkasiti/burstsort/internal/procstat"
)

// toMB converts the byte figures in the diagnostic line to decimal
// megabytes, not mebibytes.
const toMB = 1000000.0

// notice is the attribution line appended to the end of every diagnostic.
const notice = "A version of the burst-sort algorithm implemented by Dr. Nikolas Askitis, Copyright @ 2016, askitisn@gmail.com"

func runSort(cmd *cobra.Command, args []string) error {
	threshold, err := strconv.Atoi(args[0])
	if err != nil || threshold < burstsort.MinThreshold || threshold > burstsort.MaxThreshold {
		fmt.Printf("Keep burst threshold between %d and %d strings, inclusive\n", burstsort.MinThreshold, burstsort.MaxThreshold)
		os.Exit(1)
	}

	fileCount, err := strconv.Atoi(args[1])
	if err != nil || fileCount < 0 {
		return errors.Errorf("invalid file_count %q", args[1])
	}
	files := args[2:]
	if len(files) != fileCount {
		return errors.Errorf("file_count is %d but %d file arguments were given", fileCount, len(files))
	}

	growth, err := parseGrowth(growthFlag)
	if err != nil {
		return err
	}

	var opts []burstsort.Option
	opts = append(opts, burstsort.WithBurstThreshold(threshold), burstsort.WithGrowthPolicy(growth))
	if verboseFlag {
		opts = append(opts, burstsort.WithLogger(logger))
	}

	s, err := burstsort.New(opts...)
	if err != nil {
		return errors.Wrap(err, "construct sorter")
	}

	start := time.Now()
	for _, path := range files {
		if err := insertFile(s, path); err != nil {
			return errors.Wrapf(err, "insert %s", path)
		}
	}
	insertTime := time.Since(start)

	out := bufio.NewWriter(os.Stdout)
	stats, err := s.Emit(out)
	if err != nil {
		return errors.Wrap(err, "emit")
	}
	if err := out.Flush(); err != nil {
		return errors.Wrap(err, "flush stdout")
	}

	vsize, err := procstat.VSize()
	if err != nil {
		logger.Warn("could not read process virtual size", zap.Error(err))
	}

	estMemMB := float64(stats.EstimatedBytes()) / toMB
	vsizeMB := float64(vsize) / toMB

	if verboseFlag {
		fmt.Fprintf(os.Stderr, "Copybased burst sort %s vsize, %s estimated, %s insert, %s keys, threshold %d --- %s\n",
			humanize.Bytes(vsize), humanize.Bytes(stats.EstimatedBytes()), insertTime, humanize.Comma(int64(stats.Inserted)), threshold, notice)
	} else {
		fmt.Fprintf(os.Stderr, "Copybased burst sort %.2f %.2f %.2f %d %d --- %s\n",
			vsizeMB, estMemMB, insertTime.Seconds(), stats.Inserted, threshold, notice)
	}
	fmt.Fprintf(os.Stderr, "%s \n", growth.String())

	return nil
}

func parseGrowth(s string) (burstsort.GrowthPolicy, error) {
	switch s {
	case "paging", "":
		return burstsort.Paging, nil
	case "exact-fit":
		return burstsort.ExactFit, nil
	default:
		return 0, errors.Errorf(`unknown --growth value %q, want "paging" or "exact-fit"`, s)
	}
}

// insertFile inserts one record per line. A trailing, unterminated final
// line is still treated as a record, matching bufio.Scanner's default
// behavior.
func insertFile(s *burstsort.Sorter, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		if err := s.Insert(scanner.Bytes()); err != nil {
			return err
		}
	}
	return scanner.Err()
}
