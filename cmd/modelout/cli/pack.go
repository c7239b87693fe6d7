package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/havenml/modelout/core"
	"github.com/havenml/modelout/internal/archive"
)

var packCompression string

var packCmd = &cobra.Command{
	Use:   "pack <directory> <archive>",
	Short: "Build an output bundle from a directory",
	Long: `Pack bundles a directory into an output archive, the same format a
training job uploads as model.tar.gz. Useful for seeding test fixtures and
local-mode output directories.

Examples:
  modelout pack ./model ./model.tar.gz
  modelout pack ./model ./model.tar.zst --compression zstd`,
	Args: cobra.ExactArgs(2),
	RunE: runPack,
}

func init() {
	packCmd.Flags().StringVar(&packCompression, "compression", "gzip", "Compression format: gzip, zstd, or none")
	rootCmd.AddCommand(packCmd)
}

func runPack(_ *cobra.Command, args []string) error {
	srcDir := args[0]
	archivePath := args[1]

	var compression core.Compression
	switch packCompression {
	case "gzip":
		compression = core.GzipCompression
	case "zstd":
		compression = core.ZstdCompression
	case "none":
		compression = core.NoCompression
	default:
		return fmt.Errorf("unknown compression %q (want gzip, zstd, or none)", packCompression)
	}

	ctx, cancel := signalContext()
	defer cancel()

	//nolint:gosec // G304: archivePath is a user-provided CLI argument
	f, err := os.Create(archivePath)
	if err != nil {
		return err
	}

	buildErr := archive.Build(ctx, os.DirFS(srcDir), f, compression)
	closeErr := f.Close()
	if buildErr != nil {
		os.Remove(archivePath)
		return buildErr
	}
	if closeErr != nil {
		return closeErr
	}

	fmt.Printf("Packed %s into %s\n", srcDir, archivePath)
	return nil
}
