package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/viant/afs"
	"github.com/viant/kproc"
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "kproc",
	Short: "process management and scheduling core",
	Long:  ``,
}

var configURL string
var policyMode string

// Execute runs the command line
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configURL, "config", "c", "",
		"YAML config URL (any afs supported scheme)")
	rootCmd.PersistentFlags().StringVarP(&policyMode, "policy", "p", "",
		"scheduling policy: priority, roundrobin or multilevel")
}

// loadConfig resolves the config flag and the policy override
func loadConfig(ctx context.Context) (*kproc.Config, error) {
	config := kproc.DefaultConfig()
	if configURL != "" {
		var err error
		if config, err = kproc.LoadConfig(ctx, afs.New(), configURL); err != nil {
			return nil, err
		}
	}
	if policyMode != "" {
		config.Policy.Mode = policyMode
		if err := config.Validate(); err != nil {
			return nil, err
		}
	}
	return config, nil
}
