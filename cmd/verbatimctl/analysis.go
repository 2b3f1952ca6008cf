package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/JaimeStill/verbatim/internal/jobs"
)

var startCmd = &cobra.Command{
	Use:   "start <unit-id>",
	Short: "Start an analysis run for a scope",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		scope, err := scopeFromArgs(cmd, args)
		if err != nil {
			return err
		}

		job, err := newClient().Start(cmd.Context(), scope)
		if err != nil {
			return err
		}
		return output(cmd, job)
	},
}

var stopCmd = &cobra.Command{
	Use:   "stop <unit-id>",
	Short: "Request the scope's active run to stop after its current batch",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		scope, err := scopeFromArgs(cmd, args)
		if err != nil {
			return err
		}

		job, err := newClient().Stop(cmd.Context(), scope)
		if err != nil {
			return err
		}
		return output(cmd, job)
	},
}

var resetCmd = &cobra.Command{
	Use:   "reset <unit-id>",
	Short: "Delete every result in a scope and clear its progress",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		scope, err := scopeFromArgs(cmd, args)
		if err != nil {
			return err
		}

		if confirmed, _ := cmd.Flags().GetBool("yes"); !confirmed {
			return fmt.Errorf("reset deletes all analyses for %s; rerun with --yes to confirm", scope)
		}

		result, err := newClient().Reset(cmd.Context(), scope)
		if err != nil {
			return err
		}
		return output(cmd, result)
	},
}

var progressCmd = &cobra.Command{
	Use:   "progress <unit-id>",
	Short: "Show a scope's run progress",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		scope, err := scopeFromArgs(cmd, args)
		if err != nil {
			return err
		}

		c := newClient()

		watch, _ := cmd.Flags().GetBool("watch")
		if !watch {
			p, err := c.Progress(cmd.Context(), scope)
			if err != nil {
				return err
			}
			return output(cmd, p)
		}

		interval, _ := cmd.Flags().GetDuration("interval")
		final, err := c.Watch(cmd.Context(), scope, interval, func(p *jobs.Progress) {
			fmt.Fprintf(cmd.ErrOrStderr(), "%s %3d%% %d/%d processed, %d failed, %d batches\n",
				p.Status, p.Percentage, p.Processed, p.Total, p.Failed, p.Batches)
		})
		if err != nil {
			return err
		}
		return output(cmd, final)
	},
}

var summaryCmd = &cobra.Command{
	Use:   "summary <unit-id>",
	Short: "Show sentiment and category counts for a scope",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		scope, err := scopeFromArgs(cmd, args)
		if err != nil {
			return err
		}

		summary, err := newClient().Summary(cmd.Context(), scope)
		if err != nil {
			return err
		}
		return output(cmd, summary)
	},
}

func init() {
	for _, cmd := range []*cobra.Command{startCmd, stopCmd, resetCmd, progressCmd, summaryCmd} {
		scopeFlags(cmd)
	}

	resetCmd.Flags().Bool("yes", false, "confirm deletion")

	progressCmd.Flags().BoolP("watch", "w", false, "poll until the run finishes")
	progressCmd.Flags().Duration("interval", 2*time.Second, "poll interval for --watch")
}
