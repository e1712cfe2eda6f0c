package cmd

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"
	"github.com/viant/kproc"
	"github.com/viant/kproc/tracing"
)

// bootCmd represents the boot command
var bootCmd = &cobra.Command{
	Use:   "boot",
	Short: "boot init and run programs until they are reaped",
	Long:  ``,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		config, err := loadConfig(ctx)
		if err != nil {
			return err
		}
		srv, err := kproc.New(kproc.WithConfig(config), kproc.WithConsole(cmd.OutOrStdout()))
		if err != nil {
			return err
		}
		if listPrograms {
			for _, name := range srv.Programs().Names() {
				fmt.Fprintln(cmd.OutOrStdout(), name)
			}
			return nil
		}
		err = boot(ctx, srv.Runtime(), cmd.ErrOrStderr(), programs)
		if traceErr := tracing.Shutdown(ctx); err == nil {
			err = traceErr
		}
		return err
	},
}

// boot runs programs until reaped and reports lifecycle counters to out
func boot(ctx context.Context, rt *kproc.Runtime, out io.Writer, names []string) error {
	if err := rt.Start(ctx); err != nil {
		return err
	}
	pids, err := rt.Boot(names...)
	if err == nil {
		err = rt.Wait(ctx, timeout, pids...)
	}
	if shutdownErr := rt.Shutdown(ctx); err == nil {
		err = shutdownErr
	}
	stats := rt.Stats()
	fmt.Fprintln(out, stats.String())
	return err
}

var programs []string
var timeout time.Duration
var listPrograms bool

func init() {
	rootCmd.AddCommand(bootCmd)

	bootCmd.Flags().StringArrayVarP(&programs, "run", "r",
		[]string{"hello"}, "program to run after init")
	bootCmd.Flags().DurationVarP(&timeout, "timeout", "t", time.Minute,
		"time to wait for programs to be reaped")
	bootCmd.Flags().BoolVarP(&listPrograms, "list", "l", false,
		"list available programs")
}
