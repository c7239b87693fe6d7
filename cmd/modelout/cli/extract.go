package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/havenml/modelout"
)

var (
	extractLimits   limitFlags
	extractChecksum string
)

var extractCmd = &cobra.Command{
	Use:   "extract <archive> <directory>",
	Short: "Unpack a local output bundle",
	Long: `Extract unpacks an output archive that is already on local disk.

Every entry is validated before anything is written: archives with entry
names or symlink targets that would escape the destination are rejected
whole.

Examples:
  modelout extract ./model.tar.gz ./out
  modelout extract ./model.tar.gz ./out --max-files 10000`,
	Args: cobra.ExactArgs(2),
	RunE: runExtract,
}

func init() {
	extractLimits.register(extractCmd)
	extractCmd.Flags().StringVar(&extractChecksum, "verify", "", "Require the archive's sha256 digest to match (sha256:...)")
	rootCmd.AddCommand(extractCmd)
}

func runExtract(_ *cobra.Command, args []string) error {
	archivePath := args[0]
	destDir := args[1]

	limits, err := extractLimits.limits()
	if err != nil {
		return err
	}

	client, err := newClient()
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	opts := []modelout.FetchOption{
		modelout.WithExtractLimits(limits),
	}
	if extractChecksum != "" {
		opts = append(opts, modelout.WithChecksum(extractChecksum))
	}

	if err := client.Extract(ctx, archivePath, destDir, opts...); err != nil {
		return err
	}

	fmt.Printf("Unpacked %s to %s\n", archivePath, destDir)
	return nil
}
