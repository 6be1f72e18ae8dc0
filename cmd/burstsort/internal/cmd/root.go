package cmd

import (
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	growthFlag  string
	verboseFlag bool

	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "burstsort <burst_threshold> <file_count> <file1> [<file2> ...]",
	Short: "Sort the records of one or more files with an in-memory burst trie",
	Args:  cobra.MinimumNArgs(2),
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var cfg zap.Config
		if verboseFlag {
			cfg = zap.NewDevelopmentConfig()
		} else {
			cfg = zap.NewProductionConfig()
		}
		l, err := cfg.Build()
		if err != nil {
			return err
		}
		logger = l
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			logger.Sync()
		}
	},
	RunE: runSort,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.Flags().StringVar(&growthFlag, "growth", "paging", `container growth policy: "paging" or "exact-fit"`)
	rootCmd.Flags().BoolVarP(&verboseFlag, "verbose", "v", false, "log page allocation and burst events, and format the diagnostic line for humans")
}
