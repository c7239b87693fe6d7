// Package cli implements the modelout command-line interface.
package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/havenml/modelout"
	"github.com/havenml/modelout/cmd/modelout/cli/config"
)

// Build information set via ldflags.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// Global flags.
var (
	verbose  bool
	region   string
	endpoint string
)

var rootCmd = &cobra.Command{
	Use:   "modelout",
	Short: "Fetch and unpack training job output bundles",
	Long: `Modelout retrieves the output archives (model.tar.gz) that managed
training jobs write to object storage, or to a local directory when running
against the local-mode simulator, and unpacks them safely.

Every archive entry is validated before extraction: entry names and symlink
targets that would escape the destination directory abort the whole
operation before anything is written.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose debug logging")
	rootCmd.PersistentFlags().StringVar(&region, "region", "", "AWS region for object storage")
	rootCmd.PersistentFlags().StringVar(&endpoint, "endpoint", "", "S3-compatible endpoint override")
	rootCmd.Version = version
}

// initConfig loads the optional config file and environment overrides.
func initConfig() {
	if configDir, err := config.Dir(); err == nil {
		viper.SetConfigFile(filepath.Join(configDir, "config.yaml"))
	}
	viper.SetEnvPrefix("MODELOUT")
	viper.AutomaticEnv()

	// A missing config file is fine; flags and env cover everything.
	_ = viper.ReadInConfig()
}

// Execute runs the root command.
func Execute() error {
	err := rootCmd.Execute()
	if err != nil {
		fmt.Fprintln(os.Stderr, formatError(err))
	}
	return err
}

// newClient creates a modelout client with configured options.
func newClient(extra ...modelout.ClientOption) (*modelout.Client, error) {
	opts := []modelout.ClientOption{}

	if r := stringSetting(region, "region"); r != "" {
		opts = append(opts, modelout.WithRegion(r))
	}
	if e := stringSetting(endpoint, "endpoint"); e != "" {
		opts = append(opts, modelout.WithEndpoint(e))
	}
	if verbose {
		opts = append(opts, modelout.WithLogger(
			slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug})),
		))
	}
	opts = append(opts, extra...)

	return modelout.NewClient(opts...)
}

// stringSetting prefers the flag value, falling back to config/env.
func stringSetting(flagValue, key string) string {
	if flagValue != "" {
		return flagValue
	}
	return viper.GetString(key)
}

// signalContext returns a context that is canceled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		select {
		case <-sigCh:
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(sigCh)
	}()

	return ctx, cancel
}

// formatError converts modelout errors to user-friendly messages.
func formatError(err error) string {
	if err == nil {
		return ""
	}

	switch {
	case errors.Is(err, modelout.ErrPathTraversal):
		return "Error: path traversal detected in archive (security violation)"
	case errors.Is(err, modelout.ErrExtractLimits):
		return "Error: extraction safety limits exceeded"
	case errors.Is(err, modelout.ErrInvalidArchive):
		return "Error: invalid or corrupt archive"
	case errors.Is(err, modelout.ErrChecksumMismatch):
		return fmt.Sprintf("Error: checksum verification failed: %v", err)
	case errors.Is(err, modelout.ErrNotFound):
		return fmt.Sprintf("Error: not found: %v", err)
	case errors.Is(err, modelout.ErrInvalidLocation):
		return fmt.Sprintf("Error: invalid location: %v", err)
	case errors.Is(err, modelout.ErrArtifactMissing):
		return fmt.Sprintf("Error: %v", err)
	case errors.Is(err, context.Canceled):
		return "Error: operation canceled"
	default:
		return fmt.Sprintf("Error: %v", err)
	}
}
