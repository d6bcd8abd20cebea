package cli

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/filmsync/internal/core/domain"
	"github.com/custodia-labs/filmsync/internal/core/ports/driving"
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Run a tracked sync",
	Long: `Runs one sync job immediately. Each run is recorded as a sync attempt,
see "filmsync attempts" for the history.`,
}

var (
	watchesAll   bool
	watchesDiary bool
)

var syncWatchesCmd = &cobra.Command{
	Use:   "watches <user-id>",
	Short: "Sync a user's rated films",
	Long: `Syncs a user's rated films. By default only new activity is read, stopping
at the first entry already stored. Use --all to walk every page, or --diary
to walk the diary instead.`,
	Args: cobra.ExactArgs(1),
	RunE: runSyncWatches,
}

var syncListsCmd = &cobra.Command{
	Use:   "lists <username>",
	Short: "Sync a user's public lists",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if listSync == nil {
			return errNotConfigured("list sync")
		}
		res, err := listSync.SyncUserLists(cmd.Context(), domain.SyncTriggerUser, args[0])
		return report(cmd, "lists", res, err)
	},
}

var (
	popularStart int
	popularEnd   int
)

var syncPopularYearCmd = &cobra.Command{
	Use:   "popular-year",
	Short: "Walk popular movies by release year",
	Long: `Walks the popular listing of each release year in [--start, --end).
Without --end the walk resumes after the last complete run and covers one
year batch.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		if popularSync == nil {
			return errNotConfigured("popular sync")
		}
		res, err := popularSync.ByYear(cmd.Context(), driving.PopularYearOptions{
			StartYear: popularStart,
			EndYear:   popularEnd,
		})
		return report(cmd, "popular movies by year", res, err)
	},
}

var syncPopularGenreCmd = &cobra.Command{
	Use:   "popular-genre",
	Short: "Walk popular movies for every genre",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		if popularSync == nil {
			return errNotConfigured("popular sync")
		}
		res, err := popularSync.ByGenre(cmd.Context())
		return report(cmd, "popular movies by genre", res, err)
	},
}

var syncCollectionsCmd = &cobra.Command{
	Use:   "collections",
	Short: "Fill movie collections from the metadata source",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		if metadataSync == nil {
			return errNotConfigured("metadata sync")
		}
		res, err := metadataSync.Collections(cmd.Context())
		return report(cmd, "collections", res, err)
	},
}

var syncCreditsCmd = &cobra.Command{
	Use:   "credits",
	Short: "Fill movie cast and crew from the metadata source",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		if metadataSync == nil {
			return errNotConfigured("metadata sync")
		}
		res, err := metadataSync.Credits(cmd.Context())
		return report(cmd, "credits", res, err)
	},
}

var missingSource string

var syncMissingMoviesCmd = &cobra.Command{
	Use:   "missing-movies",
	Short: "Create catalog movies referenced by entries or popular listings",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		if metadataSync == nil {
			return errNotConfigured("metadata sync")
		}
		switch missingSource {
		case "entries":
			res, err := metadataSync.EntriesMissingMovies(cmd.Context())
			return report(cmd, "movies missing from entries", res, err)
		case "popular":
			res, err := metadataSync.PopularMissingMovies(cmd.Context())
			return report(cmd, "movies missing from popular listings", res, err)
		default:
			return fmt.Errorf("--source must be entries or popular, got %q", missingSource)
		}
	},
}

func init() {
	syncWatchesCmd.Flags().BoolVar(&watchesAll, "all", false, "walk every rated page")
	syncWatchesCmd.Flags().BoolVar(&watchesDiary, "diary", false, "walk the diary instead of rated films")
	syncWatchesCmd.MarkFlagsMutuallyExclusive("all", "diary")

	syncPopularYearCmd.Flags().IntVar(&popularStart, "start", 0, "first release year")
	syncPopularYearCmd.Flags().IntVar(&popularEnd, "end", 0, "year after the last release year")

	syncMissingMoviesCmd.Flags().StringVar(&missingSource, "source", "entries", "where to find movie ids: entries or popular")

	syncCmd.AddCommand(syncWatchesCmd, syncListsCmd, syncPopularYearCmd, syncPopularGenreCmd,
		syncCollectionsCmd, syncCreditsCmd, syncMissingMoviesCmd)
	rootCmd.AddCommand(syncCmd)
}

func runSyncWatches(cmd *cobra.Command, args []string) error {
	if watchSync == nil {
		return errNotConfigured("watch sync")
	}
	userID, err := parseID(args[0])
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	var res domain.ActionResult
	switch {
	case watchesAll:
		res, err = watchSync.SyncAll(ctx, domain.SyncTriggerUser, userID)
	case watchesDiary:
		res, err = watchSync.SyncDiary(ctx, domain.SyncTriggerUser, userID)
	default:
		res, err = watchSync.SyncRecent(ctx, domain.SyncTriggerUser, userID)
	}
	return report(cmd, "watches", res, err)
}

// report prints the outcome of a sync.
func report(cmd *cobra.Command, what string, res domain.ActionResult, err error) error {
	if err != nil {
		return fmt.Errorf("sync %s: %w", what, err)
	}
	if res.Skipped {
		cmd.Printf("Skipped %s: another run is in progress.\n", what)
		return nil
	}
	cmd.Printf("Synced %d %s", res.SyncedCount, what)
	if res.SecondaryID != "" {
		cmd.Printf(" (%s)", res.SecondaryID)
	}
	cmd.Println(".")
	return nil
}

func parseID(raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q: %w", raw, domain.ErrInvalidInput)
	}
	return id, nil
}

// formatTime renders a timestamp for tables, or "-" when unset.
func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format(time.DateTime)
}
