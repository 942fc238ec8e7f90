package cmd

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/tensorplex-labs/budgetclean/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the cleaning engine over HTTP",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	solver, err := newSolver("")
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return server.New(&cfg.ServerEnvConfig, solver).Start(ctx)
}
