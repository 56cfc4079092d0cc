// Package cmd defines the alarmd command line interface.
package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/alarmd/alarmd/internal/config"
	"github.com/alarmd/alarmd/internal/service/daemon"
	"github.com/alarmd/alarmd/internal/service/manage"
	"github.com/alarmd/alarmd/internal/version"
)

var (
	// configPath to the configuration YAML file.
	configPath string
	// alarmsFile path where alarm records are persisted.
	alarmsFile string

	// rootCmd represents the base command for the alarm clock.
	rootCmd = &cobra.Command{
		Use:   "alarmd",
		Short: "A local alarm clock: schedule alarms and run the daemon that rings them.",
		Long: `alarmd manages a collection of alarms with optional weekly repeat
patterns and snooze policies, stored as JSON on disk.

The run subcommand starts the daemon: it arms every enabled alarm, fires
each at its computed trigger instant and resolves unacknowledged rings by
snoozing or dismissing. The remaining subcommands edit the collection; the
daemon picks changes up on its next start.`,
	}
)

// Execute runs the alarmd CLI and exits with non-zero status on error.
func Execute() {
	version.AttachCobraVersionCommand(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// signalContext returns a context cancelled on SIGTERM/SIGINT.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
}

// manageOptions builds the shared options for the CRUD verbs.
func manageOptions() *manage.Options {
	return &manage.Options{
		ConfigPath: configPath,
		AlarmsFile: alarmsFile,
	}
}

//nolint:gochecknoinits,funlen // Required by Cobra CLI framework architecture.
func init() {
	rootCmd.PersistentFlags().
		StringVarP(&configPath, "config", "c", config.DefaultConfigFilename, "path to configuration file")
	rootCmd.PersistentFlags().
		StringVarP(&alarmsFile, "alarms-file", "a", "", "path to alarm records file (overrides config)")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Run the alarm daemon.",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			ctx, stop := signalContext()
			defer stop()

			return daemon.Run(ctx, &daemon.Options{
				ConfigPath: configPath,
				AlarmsFile: alarmsFile,
			})
		},
	}

	var addInput manage.AddInput

	addCmd := &cobra.Command{
		Use:   "add HH:MM",
		Short: "Add an alarm.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			addInput.Time = args[0]

			return manage.RunAdd(cmd.Context(), manageOptions(), addInput)
		},
	}
	addCmd.Flags().StringVarP(&addInput.Repeat, "repeat", "r", "", "weekdays to repeat on, e.g. mon,wed,fri")
	addCmd.Flags().BoolVar(&addInput.Disabled, "disabled", false, "create the alarm without enabling it")
	addCmd.Flags().BoolVar(&addInput.Snooze, "snooze", false, "allow snoozing this alarm")
	addCmd.Flags().IntVar(&addInput.SnoozeDuration, "snooze-duration", 0, "snooze length in minutes [1,60]")

	var (
		setTime   string
		setRepeat string
		setSnooze int
	)

	setCmd := &cobra.Command{
		Use:   "set ID",
		Short: "Edit an alarm's time, repeat days or snooze duration.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			input := manage.SetInput{
				ID:             args[0],
				Time:           setTime,
				SnoozeDuration: setSnooze,
			}

			if cmd.Flags().Changed("repeat") {
				input.Repeat = &setRepeat
			}

			return manage.RunSet(cmd.Context(), manageOptions(), input)
		},
	}
	setCmd.Flags().StringVarP(&setTime, "time", "t", "", "new time of day, HH:MM")
	setCmd.Flags().StringVarP(&setRepeat, "repeat", "r", "", "new repeat days; pass an empty value for one-time")
	setCmd.Flags().IntVar(&setSnooze, "snooze-duration", 0, "new snooze length in minutes [1,60]")

	enableCmd := &cobra.Command{
		Use:   "enable ID",
		Short: "Enable an alarm.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return manage.RunSetEnabled(cmd.Context(), manageOptions(), args[0], true)
		},
	}

	disableCmd := &cobra.Command{
		Use:   "disable ID",
		Short: "Disable an alarm.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return manage.RunSetEnabled(cmd.Context(), manageOptions(), args[0], false)
		},
	}

	removeCmd := &cobra.Command{
		Use:     "remove ID",
		Aliases: []string{"rm"},
		Short:   "Remove an alarm.",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return manage.RunRemove(cmd.Context(), manageOptions(), args[0])
		},
	}

	var listUpcoming int

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List alarms and their next occurrences.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return manage.RunList(cmd.Context(), manageOptions(), manage.ListInput{
				Upcoming: listUpcoming,
			})
		},
	}
	listCmd.Flags().IntVarP(&listUpcoming, "upcoming", "u", 0, "show this many upcoming occurrences per alarm")

	rootCmd.AddCommand(runCmd, addCmd, setCmd, enableCmd, disableCmd, removeCmd, listCmd)
}
