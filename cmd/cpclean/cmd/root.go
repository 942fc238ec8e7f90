package cmd

import (
	"github.com/spf13/cobra"

	"github.com/tensorplex-labs/budgetclean/internal/config"
	"github.com/tensorplex-labs/budgetclean/internal/cpclean"
	"github.com/tensorplex-labs/budgetclean/internal/problem"
	"github.com/tensorplex-labs/budgetclean/internal/utils/logger"
)

var (
	cfg      *config.AppConfig
	logLevel string
)

var rootCmd = &cobra.Command{
	Use:           "cpclean",
	Short:         "cpclean: certain-prediction data cleaning for KNN",
	Long:          "Pick the dirty training rows whose cleaning makes the most validation predictions certain.",
	SilenceUsage:  true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.LoadConfig(cmd.Context())
		if err != nil {
			return err
		}
		logger.Init(cfg.Environment, logLevel)
		return nil
	},
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// newSolver builds a solver from the loaded environment.
func newSolver(method string) (*problem.Solver, error) {
	buildOpts, err := cfg.BuildOptions()
	if err != nil {
		return nil, err
	}
	if method == "" {
		method = cfg.Method
	}
	m, err := cpclean.ParseMethod(method)
	if err != nil {
		return nil, err
	}
	return &problem.Solver{
		Options:      cfg.Options(),
		BuildOptions: buildOpts,
		Method:       m,
	}, nil
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "override the log level (trace, debug, info, warn, error)")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(rankCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(submitCmd)
}
