package cmd

import (
	"fmt"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/tensorplex-labs/budgetclean/internal/cpclean"
	"github.com/tensorplex-labs/budgetclean/internal/problem"
)

var (
	runProblem string
	runOut     string
	runMethod  string
	runBudget  int
	runPlot    bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Solve a problem file locally",
	Long:  "Load a problem (.json or .json.zst), run the selected cleaning method and write the report.",
	RunE:  runRun,
}

func runRun(cmd *cobra.Command, args []string) error {
	p, err := problem.Load(runProblem)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("budget") {
		p.Budget = runBudget
	}

	solver, err := newSolver(runMethod)
	if err != nil {
		return err
	}
	report, err := solver.Solve(cmd.Context(), p)
	if err != nil {
		return err
	}

	if runPlot {
		cpclean.PlotEntropyCurve(os.Stdout, report.Iterations, fmt.Sprintf("%s [%s]", report.ProblemID, report.Method))
	}

	if runOut == "" {
		return problem.Encode(os.Stdout, report, false)
	}
	if err := problem.Save(runOut, report); err != nil {
		return err
	}
	log.Info().
		Str("run_id", report.RunID.String()).
		Str("out", runOut).
		Ints("budgeted", report.Budgeted).
		Msg("report written")
	return nil
}

func init() {
	runCmd.Flags().StringVarP(&runProblem, "problem", "p", "", "problem file (.json or .json.zst)")
	runCmd.Flags().StringVarP(&runOut, "out", "o", "", "report file; stdout when empty")
	runCmd.Flags().StringVarP(&runMethod, "method", "m", "", "cleaning method (cpclean, sample_cpclean, sgd_cpclean, random)")
	runCmd.Flags().IntVarP(&runBudget, "budget", "b", 0, "keep only the first n selected rows")
	runCmd.Flags().BoolVar(&runPlot, "plot", false, "print the entropy curve")
	_ = runCmd.MarkFlagRequired("problem")
}
