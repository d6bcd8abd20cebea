package cli

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/custodia-labs/filmsync/internal/core/ports/driven"
	"github.com/custodia-labs/filmsync/internal/core/ports/driving"
	"github.com/custodia-labs/filmsync/internal/logger"
)

// version is set at build time via -ldflags.
var version = "dev"

// Options are the global flags passed to the initializer.
type Options struct {
	DataDir   string
	ConfigDir string
}

// Services are the core services the commands drive.
// A nil service makes the commands that need it fail with a clear error.
type Services struct {
	Tracker  driving.SyncTracker
	Watches  driving.WatchSync
	Lists    driving.ListSync
	Popular  driving.PopularSync
	Metadata driving.MetadataSync
	Queue    driving.EntryQueue
	Schedule driving.Scheduler
	Settings driving.SettingsService
	Users    driven.UserStore

	// WatchConfig, when set, blocks reloading configuration on change until
	// ctx is cancelled. The schedule command runs it alongside the scheduler.
	WatchConfig func(ctx context.Context) error
}

// Initializer builds the services once flags are parsed. The returned
// cleanup runs after the command finishes.
type Initializer func(opts Options) (Services, func(), error)

var (
	initializer Initializer
	cleanup     func()

	syncTracker     driving.SyncTracker
	watchSync       driving.WatchSync
	listSync        driving.ListSync
	popularSync     driving.PopularSync
	metadataSync    driving.MetadataSync
	entryQueue      driving.EntryQueue
	scheduler       driving.Scheduler
	settingsService driving.SettingsService
	userStore       driven.UserStore
	configWatch     func(ctx context.Context) error

	verboseFlag   bool
	logFormatFlag string
	dataDirFlag   string
	configDirFlag string
)

var rootCmd = &cobra.Command{
	Use:   "filmsync",
	Short: "Mirror Letterboxd activity and movie metadata into a local store",
	Long: `filmsync scrapes public Letterboxd pages and a movie metadata source into
a local SQLite database. Every sync is tracked as an attempt so overlapping
runs are visible and failures are recorded.`,
	SilenceUsage:      true,
	PersistentPreRunE: initialise,
	PersistentPostRun: func(*cobra.Command, []string) {
		if cleanup != nil {
			cleanup()
			cleanup = nil
		}
	},
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.BoolVarP(&verboseFlag, "verbose", "v", false, "print debug and progress logs")
	flags.StringVar(&logFormatFlag, "log-format", "auto", "log format: auto, console or json")
	flags.StringVar(&dataDirFlag, "data-dir", "", "database directory (default ~/.filmsync/data)")
	flags.StringVar(&configDirFlag, "config-dir", "", "config directory (default ~/.filmsync)")
}

// SetInitializer registers the function that builds services before a command runs.
func SetInitializer(fn Initializer) {
	initializer = fn
}

// SetServices installs services directly, bypassing the initializer.
func SetServices(s Services) {
	syncTracker = s.Tracker
	watchSync = s.Watches
	listSync = s.Lists
	popularSync = s.Popular
	metadataSync = s.Metadata
	entryQueue = s.Queue
	scheduler = s.Schedule
	settingsService = s.Settings
	userStore = s.Users
	configWatch = s.WatchConfig
}

// Execute runs the root command until it finishes or the process is interrupted.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return rootCmd.ExecuteContext(ctx)
}

func initialise(cmd *cobra.Command, _ []string) error {
	logger.SetVerbose(verboseFlag)
	if err := logger.SetFormat(resolveLogFormat(logFormatFlag, os.Stderr)); err != nil {
		return err
	}

	// version and help need no services.
	if initializer == nil || cmd == versionCmd {
		return nil
	}

	services, done, err := initializer(Options{DataDir: dataDirFlag, ConfigDir: configDirFlag})
	if err != nil {
		return err
	}
	SetServices(services)
	cleanup = done
	return nil
}

// resolveLogFormat maps "auto" to console output on a terminal and JSON otherwise.
func resolveLogFormat(flag string, out *os.File) string {
	if flag != "auto" {
		return flag
	}
	if out != nil && term.IsTerminal(int(out.Fd())) {
		return logger.FormatConsole
	}
	return logger.FormatJSON
}

// errNotConfigured reports a service the initializer did not provide.
func errNotConfigured(name string) error {
	return errors.New(name + " not configured")
}
