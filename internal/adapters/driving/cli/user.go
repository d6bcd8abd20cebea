package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/filmsync/internal/core/domain"
)

var userCmd = &cobra.Command{
	Use:   "user",
	Short: "Manage local users",
}

var userAddCmd = &cobra.Command{
	Use:   "add <user-id> <username>",
	Short: "Add or rename a local user",
	Long: `Registers the Letterboxd profile a local user id syncs from. Adding an
existing id updates its username and keeps its sync history.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if userStore == nil {
			return errNotConfigured("user store")
		}
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		user, err := userStore.Get(cmd.Context(), id)
		switch {
		case errors.Is(err, domain.ErrNotFound):
			user = &domain.User{ID: id}
		case err != nil:
			return fmt.Errorf("load user %d: %w", id, err)
		}
		user.Username = args[1]
		if err := userStore.Save(cmd.Context(), user); err != nil {
			return fmt.Errorf("save user %d: %w", id, err)
		}
		cmd.Printf("User %d syncs from %s.\n", user.ID, user.Username)
		return nil
	},
}

var userShowCmd = &cobra.Command{
	Use:   "show <user-id>",
	Short: "Show a local user",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if userStore == nil {
			return errNotConfigured("user store")
		}
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		user, err := userStore.Get(cmd.Context(), id)
		if err != nil {
			return fmt.Errorf("load user %d: %w", id, err)
		}
		cmd.Printf("ID:            %d\n", user.ID)
		cmd.Printf("Username:      %s\n", user.Username)
		cmd.Printf("Last synced:   %s\n", formatTime(user.LastEntriesUpdated))
		return nil
	},
}

func init() {
	userCmd.AddCommand(userAddCmd, userShowCmd)
	rootCmd.AddCommand(userCmd)
}
