package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/custodia-labs/filmsync/internal/logger"
)

var metricsAddr string

var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Run or inspect background syncs",
}

var scheduleRunCmd = &cobra.Command{
	Use:   "run",
	Short: "Run scheduled syncs until interrupted",
	Long: `Runs the entry queue, popular movie walks and metadata gap filling on
their configured intervals. Edits to the config file are picked up without
a restart. With --metrics-addr, Prometheus metrics are served at /metrics.`,
	Args: cobra.NoArgs,
	RunE: runSchedule,
}

var scheduleStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show scheduled tasks",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		if scheduler == nil {
			return errNotConfigured("scheduler")
		}
		tasks, err := scheduler.Tasks(cmd.Context())
		if err != nil {
			return fmt.Errorf("list tasks: %w", err)
		}

		styles := NewStyles(cmd.OutOrStdout(), DefaultPalette())
		if len(tasks) == 0 {
			cmd.Println(styles.Muted.Render("No scheduled tasks. Run \"filmsync schedule run\" to create them."))
			return nil
		}

		const errorCol = 5
		rows := make([][]string, 0, len(tasks))
		for _, task := range tasks {
			state := "enabled"
			if !task.Enabled {
				state = "disabled"
			}
			lastError := task.LastError
			if lastError == "" {
				lastError = "-"
			}
			rows = append(rows, []string{
				task.ID,
				state,
				task.Interval.String(),
				formatTime(task.LastRun),
				formatTime(task.NextRun),
				lastError,
			})
		}
		cmd.Println(styles.Table(
			[]string{"TASK", "STATE", "EVERY", "LAST RUN", "NEXT RUN", "LAST ERROR"},
			rows,
			func(row, col int) lipgloss.Style {
				if col == errorCol && row >= 0 && row < len(tasks) && tasks[row].LastError != "" {
					return styles.Cell.Foreground(styles.palette.Error)
				}
				return styles.Cell
			},
		))
		return nil
	},
}

func init() {
	scheduleRunCmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address, e.g. :9090")
	scheduleCmd.AddCommand(scheduleRunCmd, scheduleStatusCmd)
	rootCmd.AddCommand(scheduleCmd)
}

func runSchedule(cmd *cobra.Command, _ []string) error {
	if scheduler == nil {
		return errNotConfigured("scheduler")
	}
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	if metricsAddr != "" {
		srv := &http.Server{
			Addr:              metricsAddr,
			Handler:           metricsMux(),
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			logger.Info("serving metrics on %s", metricsAddr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error(err, "metrics server stopped")
			}
		}()
		defer func() {
			shutdownCtx, done := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
			defer done()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	if configWatch != nil {
		go func() {
			if err := configWatch(ctx); err != nil {
				logger.Warn("config watch stopped: %v", err)
			}
		}()
	}

	cmd.Println("Scheduler running. Press Ctrl+C to stop.")
	err := scheduler.Start(ctx)
	if stopErr := scheduler.Stop(); stopErr != nil {
		logger.Warn("scheduler stop: %v", stopErr)
	}
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func metricsMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	return mux
}
