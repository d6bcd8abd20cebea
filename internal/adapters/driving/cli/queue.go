package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/filmsync/internal/core/domain"
)

var queueCmd = &cobra.Command{
	Use:   "queue",
	Short: "Manage requested entry syncs",
	Long: `Entry syncs can be requested and processed later in batches. Processing
claims every requested item at once, so two processors never run the same
request.`,
}

var requestKind string

var queueRequestCmd = &cobra.Command{
	Use:   "request <user-id>",
	Short: "Request an entry sync for a user",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if entryQueue == nil {
			return errNotConfigured("entry queue")
		}
		userID, err := parseID(args[0])
		if err != nil {
			return err
		}
		kind := domain.EntrySyncKind(requestKind)
		if !kind.IsValid() {
			return fmt.Errorf("--kind must be recent or all, got %q: %w", requestKind, domain.ErrInvalidInput)
		}

		req, err := entryQueue.Request(cmd.Context(), userID, kind)
		if err != nil {
			return fmt.Errorf("request entry sync: %w", err)
		}
		cmd.Printf("Requested %s entry sync %d for user %d.\n", req.Kind, req.ID, req.UserID)
		return nil
	},
}

var queueProcessCmd = &cobra.Command{
	Use:   "process",
	Short: "Claim and run every requested entry sync",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		if entryQueue == nil {
			return errNotConfigured("entry queue")
		}
		res, err := entryQueue.Drain(cmd.Context())
		if err != nil {
			return fmt.Errorf("process entry syncs: %w", err)
		}
		if res.SecondaryID == "" {
			cmd.Println("Nothing requested.")
			return nil
		}
		cmd.Printf("Batch %s: %d request(s) completed.\n", res.SecondaryID, res.SyncedCount)
		return nil
	},
}

func init() {
	queueRequestCmd.Flags().StringVar(&requestKind, "kind", string(domain.EntrySyncRecent), "recent or all")
	queueCmd.AddCommand(queueRequestCmd, queueProcessCmd)
	rootCmd.AddCommand(queueCmd)
}
