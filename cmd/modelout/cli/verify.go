package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var verifyCmd = &cobra.Command{
	Use:   "verify <prefix> <file>...",
	Short: "Check that expected artifacts exist under an output prefix",
	Long: `Verify lists the objects under an output prefix (s3:// or file://) and
checks that every named file appears somewhere beneath it.

Examples:
  modelout verify s3://my-bucket/jobs/tf-123/model graph.pbtxt model.ckpt-0.index
  modelout verify file:///tmp/output graph.pbtxt`,
	Args: cobra.MinimumNArgs(2),
	RunE: runVerify,
}

func init() {
	rootCmd.AddCommand(verifyCmd)
}

func runVerify(_ *cobra.Command, args []string) error {
	prefix := args[0]
	names := args[1:]

	client, err := newClient()
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	if err := client.VerifyArtifacts(ctx, prefix, names); err != nil {
		return err
	}

	fmt.Printf("All %d artifacts present under %s\n", len(names), prefix)
	return nil
}
