package cli

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/havenml/modelout"
)

// limitFlags binds extraction safety limit flags to a command. Size flags
// accept humanized values like "10GB" or "512MiB".
type limitFlags struct {
	maxFiles     int
	maxTotalSize string
	maxFileSize  string
}

func (f *limitFlags) register(cmd *cobra.Command) {
	cmd.Flags().IntVar(&f.maxFiles, "max-files", 0, "Maximum number of files to extract (0 = unlimited)")
	cmd.Flags().StringVar(&f.maxTotalSize, "max-total-size", "", "Maximum total extracted size, e.g. 10GB (empty = unlimited)")
	cmd.Flags().StringVar(&f.maxFileSize, "max-file-size", "", "Maximum single file size, e.g. 1GB (empty = unlimited)")
}

func (f *limitFlags) limits() (modelout.ExtractLimits, error) {
	limits := modelout.ExtractLimits{
		MaxFiles: f.maxFiles,
	}
	if limits.MaxFiles == 0 {
		limits.MaxFiles = viper.GetInt("limits.max_files")
	}

	var err error
	if limits.MaxTotalSize, err = parseSize(f.maxTotalSize, "limits.max_total_size"); err != nil {
		return modelout.ExtractLimits{}, fmt.Errorf("invalid --max-total-size: %w", err)
	}
	if limits.MaxFileSize, err = parseSize(f.maxFileSize, "limits.max_file_size"); err != nil {
		return modelout.ExtractLimits{}, fmt.Errorf("invalid --max-file-size: %w", err)
	}
	return limits, nil
}

func parseSize(flagValue, key string) (int64, error) {
	s := flagValue
	if s == "" {
		s = viper.GetString(key)
	}
	if s == "" {
		return 0, nil
	}
	n, err := humanize.ParseBytes(s)
	if err != nil {
		return 0, err
	}
	//nolint:gosec // G115: sizes beyond int64 are not meaningful limits
	return int64(n), nil
}
