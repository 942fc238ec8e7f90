package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tensorplex-labs/budgetclean/internal/cpclean"
	"github.com/tensorplex-labs/budgetclean/internal/problem"
)

var (
	rankProblem string
	rankBudget  int
)

var rankCmd = &cobra.Command{
	Use:   "rank",
	Short: "Rank dirty rows by expected gain in a single pass",
	RunE:  runRank,
}

func runRank(cmd *cobra.Command, args []string) error {
	p, err := problem.Load(rankProblem)
	if err != nil {
		return err
	}
	buildOpts, err := cfg.BuildOptions()
	if err != nil {
		return err
	}
	sp, err := p.Space(buildOpts...)
	if err != nil {
		return err
	}

	opts := cfg.Options()
	if p.K > 0 {
		opts = append(opts, cpclean.WithK(p.K))
	}
	ranked, err := cpclean.NewCleaner(opts...).RankOneShot(cmd.Context(), sp, rankBudget)
	if err != nil {
		return err
	}
	for i, row := range ranked {
		fmt.Printf("%4d  row %d\n", i+1, row)
	}
	return nil
}

func init() {
	rankCmd.Flags().StringVarP(&rankProblem, "problem", "p", "", "problem file (.json or .json.zst)")
	rankCmd.Flags().IntVarP(&rankBudget, "budget", "b", -1, "number of rows to print; all when negative")
	_ = rankCmd.MarkFlagRequired("problem")
}
