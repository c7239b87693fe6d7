package cli

import (
	"fmt"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/havenml/modelout"
)

var (
	fetchLimits   limitFlags
	fetchChecksum string
	fetchProgress bool
)

var fetchCmd = &cobra.Command{
	Use:   "fetch <location> <directory>",
	Short: "Download and unpack an output bundle",
	Long: `Fetch downloads a training job's output archive and unpacks it into a
local directory. The location may be an s3:// URL, a file:// URL, or a bare
local path (for local-mode output).

Examples:
  modelout fetch s3://my-bucket/jobs/tf-123/output/model.tar.gz ./out
  modelout fetch file:///tmp/output/model.tar.gz ./out
  modelout fetch s3://my-bucket/jobs/tf-123/output/model.tar.gz ./out \
      --verify sha256:4355a4... --max-total-size 10GB`,
	Args:              cobra.ExactArgs(2),
	RunE:              runFetch,
	ValidArgsFunction: completeFetchArgs,
}

func init() {
	fetchLimits.register(fetchCmd)
	fetchCmd.Flags().StringVar(&fetchChecksum, "verify", "", "Require the bundle's sha256 digest to match (sha256:...)")
	fetchCmd.Flags().BoolVar(&fetchProgress, "progress", false, "Print download progress")
	rootCmd.AddCommand(fetchCmd)
}

func runFetch(_ *cobra.Command, args []string) error {
	location := args[0]
	destDir := args[1]

	limits, err := fetchLimits.limits()
	if err != nil {
		return err
	}

	var clientOpts []modelout.ClientOption
	if fetchProgress {
		clientOpts = append(clientOpts, modelout.WithProgress(renderProgress))
	}
	client, err := newClient(clientOpts...)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	fetchOpts := []modelout.FetchOption{
		modelout.WithExtractLimits(limits),
	}
	if fetchChecksum != "" {
		fetchOpts = append(fetchOpts, modelout.WithChecksum(fetchChecksum))
	}

	if err := client.Fetch(ctx, location, destDir, fetchOpts...); err != nil {
		return err
	}
	if fetchProgress {
		fmt.Fprintln(os.Stderr)
	}

	fmt.Printf("Unpacked %s to %s\n", location, destDir)
	return nil
}

// renderProgress writes an in-place download progress line to stderr.
func renderProgress(transferred, total int64) {
	if total > 0 {
		fmt.Fprintf(os.Stderr, "\rdownloading %s / %s (%d%%)",
			humanize.Bytes(uint64(transferred)), humanize.Bytes(uint64(total)),
			transferred*100/total)
		return
	}
	fmt.Fprintf(os.Stderr, "\rdownloading %s", humanize.Bytes(uint64(transferred)))
}

// completeFetchArgs provides completion for the fetch command arguments:
// - First arg: bundle location (no completion - user must type it)
// - Second arg: local directory (filesystem directory completion)
func completeFetchArgs(_ *cobra.Command, args []string, _ string) ([]string, cobra.ShellCompDirective) {
	switch len(args) {
	case 0:
		return nil, cobra.ShellCompDirectiveNoFileComp
	case 1:
		return nil, cobra.ShellCompDirectiveFilterDirs
	default:
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
}
