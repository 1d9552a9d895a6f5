package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/snackbar/internal/audio"
	"github.com/jmylchreest/snackbar/internal/model"
	"github.com/jmylchreest/snackbar/internal/provider"
	"github.com/jmylchreest/snackbar/internal/tui"
)

var demoOpts struct {
	anchor    string
	maxSnacks int
	sound     bool
	logFile   string
}

var demoCmd = &cobra.Command{
	Use:   "demo",
	Short: "Launch the interactive snack demo",
	Long: `Launch a terminal demo of the snack queue.

Snacks are drawn in the terminal at the configured anchor. Every second
snack persists and carries a Dismiss action, so the queue fills up and
forced eviction can be observed.

Key bindings:
  1-4 / i s w e   Enqueue info, success, warning or error
  l               Enqueue a multi-line snack
  x               Dismiss the oldest snack
  X               Dismiss all snacks
  a               Run the action of the oldest snack that has one
  h               Toggle hover on the oldest snack (pauses its timer)
  tab             Move the anchor
  ?               Show help
  q               Quit`,
	RunE: runDemo,
}

func init() {
	rootCmd.AddCommand(demoCmd)

	demoCmd.Flags().StringVar(&demoOpts.anchor, "anchor", "",
		"Initial anchor, e.g. top-right (default from config)")
	demoCmd.Flags().IntVar(&demoOpts.maxSnacks, "max-snacks", 0,
		"Maximum visible snacks (default from config)")
	demoCmd.Flags().BoolVar(&demoOpts.sound, "sound", false,
		"Play the configured variant sounds")
	demoCmd.Flags().StringVar(&demoOpts.logFile, "log-file", "",
		"Write logs to this file (the terminal is taken by the demo)")
}

func runDemo(cmd *cobra.Command, args []string) error {
	opts, err := demoOptions()
	if err != nil {
		return err
	}

	demoLogger, closeLog, err := openDemoLog()
	if err != nil {
		return err
	}
	defer closeLog()

	var hooks []provider.Hooks
	if demoOpts.sound {
		sounds := audio.NewManager(cfg, nil, demoLogger)
		defer sounds.Stop()
		hooks = append(hooks, provider.Hooks{OnEnter: sounds.OnEnter})
	}

	return tui.Run(tui.RunOptions{
		Options: opts,
		Hooks:   hooks,
		Logger:  demoLogger,
	})
}

// demoOptions derives provider options from the config and flags. Spacing
// is one terminal row.
func demoOptions() (provider.Options, error) {
	opts, err := cfg.Options()
	if err != nil {
		return provider.Options{}, err
	}
	opts.Spacing = 1

	if demoOpts.anchor != "" {
		anchor, err := model.ParseAnchor(demoOpts.anchor)
		if err != nil {
			return provider.Options{}, err
		}
		opts.Anchor = anchor
	}
	if demoOpts.maxSnacks > 0 {
		opts.MaxSnacks = demoOpts.maxSnacks
	}
	return opts, nil
}

// openDemoLog returns a logger that does not write to the terminal.
func openDemoLog() (*slog.Logger, func(), error) {
	if demoOpts.logFile == "" {
		return slog.New(slog.NewTextHandler(io.Discard, nil)), func() {}, nil
	}

	f, err := os.OpenFile(demoOpts.logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open log file: %w", err)
	}

	level := slog.LevelInfo
	if globalOpts.verbose {
		level = slog.LevelDebug
	}
	l := slog.New(slog.NewTextHandler(f, &slog.HandlerOptions{Level: level}))
	return l, func() { _ = f.Close() }, nil
}
