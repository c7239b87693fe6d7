package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/havenml/modelout"
)

var ranksCmd = &cobra.Command{
	Use:   "ranks <directory>",
	Short: "List worker rank manifests in an extracted output directory",
	Long: `Ranks reads the rank-N manifests that distributed workers write to the
output bundle and prints them in order. Each manifest must report the rank
matching its filename.

Examples:
  modelout ranks ./out`,
	Args: cobra.ExactArgs(1),
	RunE: runRanks,
}

func init() {
	rootCmd.AddCommand(ranksCmd)
}

func runRanks(_ *cobra.Command, args []string) error {
	ranks, err := modelout.ReadRanks(args[0])
	if err != nil {
		return err
	}
	if len(ranks) == 0 {
		fmt.Println("No rank manifests found")
		return nil
	}

	for _, r := range ranks {
		fmt.Printf("rank-%d\n", r.Rank)
	}
	return nil
}
