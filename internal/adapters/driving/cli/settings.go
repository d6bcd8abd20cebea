package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Manage application settings",
	Long: `View and change fetch limits, sync caps and the metadata directory.

Values are stored in config.toml under the config directory. Durations use
Go syntax such as 500ms, 10m or 1h30m.`,
	RunE: runSettingsShow,
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current settings",
	Args:  cobra.NoArgs,
	RunE:  runSettingsShow,
}

var settingsSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Change a setting",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if settingsService == nil {
			return errNotConfigured("settings service")
		}
		if err := settingsService.Set(args[0], args[1]); err != nil {
			return err
		}
		cmd.Printf("Set %s to %s.\n", args[0], args[1])
		return nil
	},
}

var settingsResetCmd = &cobra.Command{
	Use:   "reset <key>",
	Short: "Restore a setting to its default",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if settingsService == nil {
			return errNotConfigured("settings service")
		}
		if err := settingsService.Reset(args[0]); err != nil {
			return err
		}
		cmd.Printf("Reset %s to its default.\n", args[0])
		return nil
	},
}

var settingsKeysCmd = &cobra.Command{
	Use:   "keys",
	Short: "List the keys accepted by set and reset",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		if settingsService == nil {
			return errNotConfigured("settings service")
		}
		cmd.Println(strings.Join(settingsService.Keys(), "\n"))
		return nil
	},
}

func init() {
	settingsCmd.AddCommand(settingsShowCmd, settingsSetCmd, settingsResetCmd, settingsKeysCmd)
	rootCmd.AddCommand(settingsCmd)
}

func runSettingsShow(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errNotConfigured("settings service")
	}

	settings, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}
	styles := NewStyles(cmd.OutOrStdout(), DefaultPalette())

	cmd.Println(styles.Heading.Render("[Fetch]"))
	cmd.Printf("  Origin:              %s\n", settings.Fetch.Origin)
	if settings.Fetch.RequestsPerSecond > 0 {
		cmd.Printf("  Requests per second: %g (burst %d)\n", settings.Fetch.RequestsPerSecond, settings.Fetch.Burst)
	} else {
		cmd.Println("  Requests per second: unlimited")
	}
	cmd.Printf("  Max tries:           %d\n", settings.Fetch.MaxTries)
	cmd.Printf("  Backoff unit:        %s\n", settings.Fetch.BackoffUnit)
	cmd.Printf("  Timeout:             %s\n", settings.Fetch.Timeout)
	cmd.Println()

	cmd.Println(styles.Heading.Render("[Sync]"))
	cmd.Printf("  Overlap window:      %s\n", settings.Sync.OverlapWindow)
	cmd.Printf("  Recent max:          %d\n", settings.Sync.RecentMax)
	cmd.Printf("  Discovery max pages: %d\n", settings.Sync.DiscoveryMaxPages)
	cmd.Printf("  Popular per year:    %d\n", settings.Sync.PopularPerYear)
	cmd.Printf("  Popular per genre:   %d\n", settings.Sync.PopularPerGenre)
	cmd.Printf("  Year batch size:     %d\n", settings.Sync.YearBatchSize)
	cmd.Printf("  First year:          %d\n", settings.Sync.FirstYear)
	cmd.Printf("  Metadata limit:      %d\n", settings.Sync.MetadataLimit)
	cmd.Println()

	cmd.Println(styles.Heading.Render("[Metadata]"))
	if settings.MetadataDir != "" {
		cmd.Printf("  Directory:           %s\n", settings.MetadataDir)
	} else {
		cmd.Printf("  Directory:           %s\n", styles.Muted.Render("(not set, metadata syncs will fail)"))
	}
	return nil
}
