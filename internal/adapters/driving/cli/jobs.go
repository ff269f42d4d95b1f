package cli

import (
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/custodia-labs/triagem/internal/core/domain"
)

var (
	jobsState     string
	jobsLimit     int
	jobsOlderThan time.Duration
)

var jobsCmd = &cobra.Command{
	Use:   "jobs",
	Short: "Inspect the job ledger",
	Long: `Inspect the notification job ledger. The ledger records job identity,
channel and state only; analyses are never stored.`,
}

var jobsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent jobs",
	Args:  cobra.NoArgs,
	RunE:  runJobsList,
}

var jobsPruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Delete finished jobs",
	Args:  cobra.NoArgs,
	RunE:  runJobsPrune,
}

func init() {
	jobsListCmd.Flags().StringVar(&jobsState, "state", "", "filter by state (e.g. delivered, delivery_failed)")
	jobsListCmd.Flags().IntVarP(&jobsLimit, "limit", "n", 20, "maximum number of jobs")
	jobsPruneCmd.Flags().DurationVar(&jobsOlderThan, "older-than", 30*24*time.Hour, "delete finished jobs not updated for this long")
	jobsCmd.AddCommand(jobsListCmd)
	jobsCmd.AddCommand(jobsPruneCmd)
	rootCmd.AddCommand(jobsCmd)
}

func runJobsList(cmd *cobra.Command, _ []string) error {
	if err := ensureLedger(cmd); err != nil {
		return err
	}

	state := domain.JobState(jobsState)
	if state != "" && !state.IsValid() {
		return fmt.Errorf("%w: unknown state %q", domain.ErrInvalidInput, jobsState)
	}

	jobs, err := jobLedger.List(cmd.Context(), state, jobsLimit)
	if err != nil {
		return fmt.Errorf("failed to list jobs: %w", err)
	}
	if len(jobs) == 0 {
		cmd.Println("No jobs found.")
		return nil
	}

	for _, j := range jobs {
		cmd.Printf("%s  %-7s %s  %s\n",
			j.ID, j.Channel, stateStyle(j.State).Render(fmt.Sprintf("%-22s", j.State)),
			mutedStyle.Render(j.UpdatedAt.Local().Format(time.DateTime)))
	}
	return nil
}

func runJobsPrune(cmd *cobra.Command, _ []string) error {
	if err := ensureLedger(cmd); err != nil {
		return err
	}

	n, err := jobLedger.Prune(cmd.Context(), time.Now().Add(-jobsOlderThan))
	if err != nil {
		return fmt.Errorf("failed to prune jobs: %w", err)
	}
	cmd.Printf("Deleted %d jobs\n", n)
	return nil
}

func ensureLedger(cmd *cobra.Command) error {
	if jobLedger == nil {
		if err := ensureServices(cmd.Context()); err != nil {
			return err
		}
	}
	if jobLedger == nil {
		return errors.New("job ledger not available for this store backend")
	}
	return nil
}

func stateStyle(s domain.JobState) lipgloss.Style {
	switch s {
	case domain.JobDelivered:
		return successStyle
	case domain.JobDeliveryFailed, domain.JobClassificationFailed:
		return errorStyle
	default:
		return mutedStyle
	}
}
