package cmd

import (
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/tensorplex-labs/budgetclean/internal/client"
	"github.com/tensorplex-labs/budgetclean/internal/problem"
)

var (
	submitProblem string
	submitOut     string
	submitServer  string
)

var submitCmd = &cobra.Command{
	Use:   "submit",
	Short: "Send a problem file to a running server",
	RunE:  runSubmit,
}

func runSubmit(cmd *cobra.Command, args []string) error {
	p, err := problem.Load(submitProblem)
	if err != nil {
		return err
	}

	clientCfg := cfg.ClientEnvConfig
	if submitServer != "" {
		clientCfg.ServerURL = submitServer
	}
	c, err := client.New(&clientCfg)
	if err != nil {
		return err
	}
	defer c.Close()

	if err := c.Health(cmd.Context()); err != nil {
		return err
	}
	report, err := c.Clean(cmd.Context(), p)
	if err != nil {
		return err
	}

	if submitOut == "" {
		return problem.Encode(os.Stdout, report, false)
	}
	if err := problem.Save(submitOut, report); err != nil {
		return err
	}
	log.Info().Str("run_id", report.RunID.String()).Str("out", submitOut).Msg("report written")
	return nil
}

func init() {
	submitCmd.Flags().StringVarP(&submitProblem, "problem", "p", "", "problem file (.json or .json.zst)")
	submitCmd.Flags().StringVarP(&submitOut, "out", "o", "", "report file; stdout when empty")
	submitCmd.Flags().StringVar(&submitServer, "server", "", "server URL; overrides SERVER_URL")
	_ = submitCmd.MarkFlagRequired("problem")
}
