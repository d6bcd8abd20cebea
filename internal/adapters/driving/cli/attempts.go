package cli

import (
	"fmt"
	"strconv"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/custodia-labs/filmsync/internal/core/domain"
)

var (
	attemptsType    string
	attemptsStatus  string
	attemptsTrigger string
	attemptsLimit   int
	attemptsOffset  int
)

var attemptsCmd = &cobra.Command{
	Use:   "attempts",
	Short: "List recorded sync attempts",
	Long: `Lists sync attempts, most recent first. Filters combine; an unset filter
matches everything.`,
	Args: cobra.NoArgs,
	RunE: runAttemptsList,
}

var attemptsSweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Delete unfinished system attempts",
	Long: `Deletes pending and in-progress attempts started by the scheduler. Run it
after a crash so stale attempts stop showing up as overlapping peers.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		if syncTracker == nil {
			return errNotConfigured("sync tracker")
		}
		n, err := syncTracker.ClearUnfinished(cmd.Context(), domain.SyncTriggerSystem)
		if err != nil {
			return fmt.Errorf("sweep attempts: %w", err)
		}
		cmd.Printf("Removed %d unfinished attempt(s).\n", n)
		return nil
	},
}

func init() {
	flags := attemptsCmd.Flags()
	flags.StringVar(&attemptsType, "type", "", "only this sync type, e.g. User:Ratings")
	flags.StringVar(&attemptsStatus, "status", "", "only this status, e.g. Failed")
	flags.StringVar(&attemptsTrigger, "trigger", "", "only this trigger: system or user")
	flags.IntVar(&attemptsLimit, "limit", 20, "maximum attempts to show")
	flags.IntVar(&attemptsOffset, "offset", 0, "attempts to skip")

	attemptsCmd.AddCommand(attemptsSweepCmd)
	rootCmd.AddCommand(attemptsCmd)
}

func runAttemptsList(cmd *cobra.Command, _ []string) error {
	if syncTracker == nil {
		return errNotConfigured("sync tracker")
	}
	trigger := domain.SyncTrigger(attemptsTrigger)
	if trigger != "" && !trigger.IsValid() {
		return fmt.Errorf("--trigger must be system or user, got %q: %w", attemptsTrigger, domain.ErrInvalidInput)
	}

	attempts, err := syncTracker.List(cmd.Context(), domain.SyncAttemptFilter{
		Trigger: trigger,
		Type:    domain.SyncType(attemptsType),
		Status:  domain.SyncStatus(attemptsStatus),
		Limit:   attemptsLimit,
		Offset:  attemptsOffset,
	})
	if err != nil {
		return fmt.Errorf("list attempts: %w", err)
	}

	styles := NewStyles(cmd.OutOrStdout(), DefaultPalette())
	if len(attempts) == 0 {
		cmd.Println(styles.Muted.Render("No attempts recorded."))
		return nil
	}

	const statusCol = 3
	rows := make([][]string, 0, len(attempts))
	for i := range attempts {
		a := &attempts[i]
		rows = append(rows, []string{
			formatTime(a.Started),
			string(a.Type),
			owner(a.Username),
			string(a.Status),
			strconv.Itoa(a.NumSynced),
			formatDuration(a.Duration()),
			detail(a),
		})
	}
	out := styles.Table(
		[]string{"STARTED", "TYPE", "USER", "STATUS", "SYNCED", "TOOK", "DETAIL"},
		rows,
		func(row, col int) lipgloss.Style {
			if col == statusCol && row >= 0 && row < len(attempts) {
				return styles.Status(attempts[row].Status)
			}
			return styles.Cell
		},
	)
	cmd.Println(out)
	return nil
}

func owner(username string) string {
	if username == "" {
		return "-"
	}
	return username
}

// detail is the error for failed attempts and the correlation id otherwise.
func detail(a *domain.SyncAttempt) string {
	if a.ErrorMessage != "" {
		return a.ErrorMessage
	}
	if a.SecondaryID != "" {
		return a.SecondaryID
	}
	return "-"
}

func formatDuration(d time.Duration) string {
	if d <= 0 {
		return "-"
	}
	return d.Round(time.Millisecond).String()
}
