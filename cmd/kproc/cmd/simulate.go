package cmd

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"github.com/viant/kproc/model/proc"
	"github.com/viant/kproc/policy"
	"github.com/viant/kproc/runtime/kernel"
)

// simulateCmd represents the simulate command
var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "print the dispatch trace of a time slicing policy",
	Long: `Jobs are given as name:burst[:arrival[:priority]], for example
  kproc simulate -p multilevel -j init:2:1:0 -j worker:20`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return simulate(cmd.OutOrStdout(), policyMode, jobSpecs)
	},
}

var jobSpecs []string
var quantum int
var demote int

func simulate(out io.Writer, mode string, specs []string) error {
	jobs, err := parseJobs(specs)
	if err != nil {
		return err
	}
	var trace policy.Trace
	switch strings.ToLower(mode) {
	case policy.ModeRoundRobin, "":
		trace = policy.SimulateRoundRobin(jobs, quantum)
	case policy.ModeMultiLevel:
		trace = policy.SimulateMultiLevel(jobs, policy.DefaultQuantums, demote)
	default:
		return fmt.Errorf("policy %v does not slice time", mode)
	}
	trace.Print(out)
	fmt.Fprintf(out, "all jobs done at %d\n", trace.End())
	return nil
}

// parseJobs builds simulation jobs with pids assigned in order from 1
func parseJobs(specs []string) ([]policy.Job, error) {
	var result []policy.Job
	for i, spec := range specs {
		parts := strings.Split(spec, ":")
		if len(parts) < 2 || len(parts) > 4 || parts[0] == "" {
			return nil, fmt.Errorf("invalid job %q, expected name:burst[:arrival[:priority]]", spec)
		}
		values := []int{0, 0, proc.DefaultPriority}
		for j, part := range parts[1:] {
			value, err := strconv.Atoi(part)
			if err != nil || value < 0 {
				return nil, fmt.Errorf("invalid job %q: %v is not a non negative number", spec, part)
			}
			values[j] = value
		}
		if values[0] == 0 {
			return nil, fmt.Errorf("invalid job %q: burst must be > 0", spec)
		}
		result = append(result, policy.Job{
			Proc:    kernel.NewProc(i+1, parts[0], values[2]),
			Burst:   values[0],
			Arrival: values[1],
		})
	}
	return result, nil
}

func init() {
	rootCmd.AddCommand(simulateCmd)

	simulateCmd.Flags().StringArrayVarP(&jobSpecs, "job", "j",
		[]string{"init:2:1:0", "worker:20"}, "job as name:burst[:arrival[:priority]]")
	simulateCmd.Flags().IntVarP(&quantum, "quantum", "q", 4, "round robin time slice in ticks")
	simulateCmd.Flags().IntVarP(&demote, "demote", "d", 2,
		"expiries before a multilevel job moves down, 0 disables demotion")
}
