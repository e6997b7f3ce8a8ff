package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/noah-isme/entity-review-api/pkg/config"
	"github.com/noah-isme/entity-review-api/pkg/logger"
)

const version = "1.0.0"

// Exit codes returned by Run.
const (
	ExitSuccess      = 0
	ExitUsageError   = 2
	ExitAuthError    = 3
	ExitRuntimeError = 4
)

var rootCmd = &cobra.Command{
	Use:           "reviewctl",
	Short:         "Operate the entity review service",
	Long:          "reviewctl migrates the submission log database and inspects the review backend and submission history.",
	SilenceUsage:  true,
	SilenceErrors: false,
}

// exitCode is set by command handlers to control the process exit code.
var exitCode = ExitSuccess

var flagJSON bool

// Run executes the root command and returns an exit code.
func Run() int {
	rootCmd.PersistentFlags().BoolVar(&flagJSON, "json", false, "Print JSON instead of a table")
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(pendingCmd)
	rootCmd.AddCommand(submissionsCmd)
	rootCmd.AddCommand(versionCmd)

	if err := rootCmd.Execute(); err != nil {
		return ExitUsageError
	}
	return exitCode
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print reviewctl version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "reviewctl version %s\n", version)
	},
}

func loadConfig() (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("loading config: %w", err)
	}
	logr, err := logger.New(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("building logger: %w", err)
	}
	return cfg, logr, nil
}
