package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tupiana/lexipipe/internal/domain/job"
	"github.com/tupiana/lexipipe/pkg/errors"
)

// NewJobCmd creates the `job` command group for seeding-job control.
func NewJobCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "job",
		Short: "Manage batch seeding jobs",
	}

	cmd.AddCommand(
		newJobStartCmd(),
		newJobStatusCmd(),
		newJobListCmd(),
		newJobCancelCmd(),
		newJobEnqueueCmd(),
	)

	return cmd
}

func newJobStartCmd() *cobra.Command {
	var (
		priorities []string
		chunkSize  int
	)

	cmd := &cobra.Command{
		Use:   "start",
		Short: "Start a new seeding job over the candidate queue",
		Example: `  lexipipe job start
  lexipipe job start --priorities dialectal,gutenberg_noun --chunk-size 200`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx, err := GetCLIContext(cmd)
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), cliCtx.Timeout)
			defer cancel()

			started, err := cliCtx.Client.StartJob(ctx, priorities, chunkSize)
			if err != nil {
				return err
			}

			return PrintResult(cmd, started)
		},
	}

	cmd.Flags().StringSliceVar(&priorities, "priorities", nil,
		"candidate source order, highest first (default: dialectal,gutenberg_noun,gutenberg_verb,gutenberg_adj,general)")
	cmd.Flags().IntVar(&chunkSize, "chunk-size", 0, "words per processing chunk (default: server setting)")

	return cmd
}

func newJobStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status <job-id>",
		Short: "Show the current state of a seeding job",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx, err := GetCLIContext(cmd)
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), cliCtx.Timeout)
			defer cancel()

			j, err := cliCtx.Client.GetJob(ctx, args[0])
			if err != nil {
				return err
			}

			return PrintResult(cmd, j)
		},
	}
}

func newJobListCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recent seeding jobs",
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx, err := GetCLIContext(cmd)
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), cliCtx.Timeout)
			defer cancel()

			jobs, err := cliCtx.Client.ListJobs(ctx, limit)
			if err != nil {
				return err
			}
			if len(jobs) == 0 {
				return PrintResult(cmd, "no jobs found")
			}

			return PrintResult(cmd, jobs)
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "maximum number of jobs to return")

	return cmd
}

func newJobCancelCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "cancel <job-id>",
		Short: "Request cooperative cancellation of a running job",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx, err := GetCLIContext(cmd)
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), cliCtx.Timeout)
			defer cancel()

			if err := cliCtx.Client.CancelJob(ctx, args[0]); err != nil {
				return err
			}

			return PrintResult(cmd, fmt.Sprintf("cancellation requested for job %s", args[0]))
		},
	}
}

func newJobEnqueueCmd() *cobra.Command {
	var source string

	cmd := &cobra.Command{
		Use:   "enqueue <word>...",
		Short: "Add candidate words to the seeding queue",
		Args:  cobra.MinimumNArgs(1),
		Example: `  lexipipe job enqueue bagual tchê guri --source dialectal`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx, err := GetCLIContext(cmd)
			if err != nil {
				return err
			}

			src := job.CandidateSource(strings.ToLower(source))
			if !src.Valid() {
				return errors.Newf(errors.ErrCodeValidation, "unknown candidate source %q", source)
			}

			candidates := make([]*job.Candidate, 0, len(args))
			for _, word := range args {
				candidates = append(candidates, &job.Candidate{Word: word, Source: src})
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), cliCtx.Timeout)
			defer cancel()

			if err := cliCtx.Client.EnqueueCandidates(ctx, candidates); err != nil {
				return err
			}

			return PrintResult(cmd, fmt.Sprintf("enqueued %d candidates", len(candidates)))
		},
	}

	cmd.Flags().StringVar(&source, "source", string(job.CandidateGeneral), "candidate source tier")

	return cmd
}
