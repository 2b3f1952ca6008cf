package main

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var jobsCmd = &cobra.Command{
	Use:   "jobs",
	Short: "Inspect analysis jobs",
}

var listJobsCmd = &cobra.Command{
	Use:   "list",
	Short: "List jobs",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		var unitID *uuid.UUID
		if raw, _ := cmd.Flags().GetString("unit"); raw != "" {
			id, err := uuid.Parse(raw)
			if err != nil {
				return fmt.Errorf("invalid unit id %q: %w", raw, err)
			}
			unitID = &id
		}

		status, _ := cmd.Flags().GetString("status")
		page, _ := cmd.Flags().GetInt("page")

		result, err := newClient().Jobs(cmd.Context(), unitID, status, page)
		if err != nil {
			return err
		}
		return output(cmd, result)
	},
}

var getJobCmd = &cobra.Command{
	Use:   "get <job-id>",
	Short: "Show a job",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := uuid.Parse(args[0])
		if err != nil {
			return fmt.Errorf("invalid job id %q: %w", args[0], err)
		}

		job, err := newClient().Job(cmd.Context(), id)
		if err != nil {
			return err
		}
		return output(cmd, job)
	},
}

func init() {
	listJobsCmd.Flags().String("unit", "", "filter by unit id")
	listJobsCmd.Flags().String("status", "", "filter by status")
	listJobsCmd.Flags().Int("page", 0, "page number")

	jobsCmd.AddCommand(listJobsCmd, getJobCmd)
}
