package cmd

import (
	"fmt"

	"github.com/mattn/go-tty"
	"github.com/spf13/cobra"
	"github.com/viant/kproc"
)

const ctrlP = 0x10

// consoleCmd represents the console command
var consoleCmd = &cobra.Command{
	Use:   "console",
	Short: "boot programs and inspect them from the keyboard",
	Long: `Keys: p or ctrl-p lists processes, s prints lifecycle counters,
t prints system time, q quits.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		config, err := loadConfig(ctx)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		srv, err := kproc.New(kproc.WithConfig(config), kproc.WithConsole(out))
		if err != nil {
			return err
		}
		rt := srv.Runtime()
		if err = rt.Start(ctx); err != nil {
			return err
		}
		defer rt.Shutdown(ctx)
		if _, err = rt.Boot(consolePrograms...); err != nil {
			return err
		}
		keyboard, err := tty.Open()
		if err != nil {
			return err
		}
		defer keyboard.Close()
		for {
			r, err := keyboard.ReadRune()
			if err != nil {
				return err
			}
			switch r {
			case 'p', ctrlP:
				rt.Dump(out)
			case 's':
				stats := rt.Stats()
				fmt.Fprintln(out, stats.String())
			case 't':
				sysTime := rt.SystemTime()
				fmt.Fprintf(out, "ticks=%d uptime=%ds\n", sysTime.Ticks, sysTime.Uptime)
			case 'q':
				return nil
			}
		}
	},
}

var consolePrograms []string

func init() {
	rootCmd.AddCommand(consoleCmd)

	consoleCmd.Flags().StringArrayVarP(&consolePrograms, "run", "r",
		[]string{"priority_demo"}, "program to run after init")
}
