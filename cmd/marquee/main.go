// Command marquee runs a seamless scroll engine in the terminal. Content
// items glide through a tcell viewport; keys steer direction, speed, and
// pause state while the engine's diagnostics land in a log file.
package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	charmlog "github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/chao921125/scroll-seamless-sub000/config"
	"github.com/chao921125/scroll-seamless-sub000/direction"
)

var (
	version = "dev"
	commit  = "none"
)

type options struct {
	configPath string
	items      []string
	dir        string
	step       float64
	rows       int
	stepWaitMs int
	delayMs    int
	hoverStop  bool
	wheel      bool
	logPath    string
	verbose    bool
}

func main() {
	opts := &options{}

	root := &cobra.Command{
		Use:          "marquee",
		Short:        "Seamless scrolling marquee for the terminal",
		Version:      version,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := buildConfig(opts)
			if err != nil {
				return err
			}
			logger, closeLog, err := buildLogger(opts)
			if err != nil {
				return err
			}
			defer closeLog()
			stats, err := runTUI(cfg, logger)
			if err != nil {
				return err
			}
			printSummary(stats)
			return nil
		},
	}
	root.SetVersionTemplate(fmt.Sprintf("marquee %s (%s)\n", version, commit))

	flags := root.Flags()
	flags.StringVarP(&opts.configPath, "config", "c", "", "TOML config file")
	flags.StringSliceVarP(&opts.items, "items", "i", nil, "items to scroll (comma separated)")
	flags.StringVarP(&opts.dir, "direction", "d", "", "scroll direction: left, right, up, down")
	flags.Float64VarP(&opts.step, "step", "s", 0, "cells advanced per frame")
	flags.IntVarP(&opts.rows, "rows", "r", 0, "parallel lanes")
	flags.IntVar(&opts.stepWaitMs, "step-wait", 0, "single-step hold per item, in ms")
	flags.IntVar(&opts.delayMs, "delay", 0, "start delay in ms")
	flags.BoolVar(&opts.hoverStop, "hover-stop", true, "pause while (simulated) hover is active")
	flags.BoolVar(&opts.wheel, "wheel", true, "let the mouse wheel nudge the position")
	flags.StringVar(&opts.logPath, "log", "", "log file (default: discard)")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "debug logging")

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// buildConfig layers the config file, then flags, on top of defaults.
func buildConfig(opts *options) (config.Config, error) {
	cfg := config.Default()
	if opts.configPath != "" {
		loaded, err := config.LoadFile(opts.configPath)
		if err != nil {
			return cfg, err
		}
		cfg = loaded
	}

	if len(opts.items) > 0 {
		cfg.Data = opts.items
	}
	if len(cfg.Data) == 0 {
		cfg.Data = []string{"alpha", "bravo", "charlie", "delta", "echo", "foxtrot"}
	}
	if opts.dir != "" {
		cfg.Direction = direction.Direction(strings.ToLower(opts.dir))
	}
	if opts.step > 0 {
		cfg.Step = opts.step
	}
	if opts.rows > 0 {
		cfg.Rows = opts.rows
		cfg.Cols = opts.rows
	}
	if opts.stepWaitMs > 0 {
		cfg.StepWait = time.Duration(opts.stepWaitMs) * time.Millisecond
	}
	if opts.delayMs > 0 {
		cfg.Delay = time.Duration(opts.delayMs) * time.Millisecond
	}
	cfg.HoverStop = opts.hoverStop
	cfg.WheelEnable = opts.wheel

	return cfg, cfg.Validate()
}

// buildLogger writes to the given file; the terminal itself belongs to
// tcell, so there is no stderr fallback.
func buildLogger(opts *options) (*charmlog.Logger, func(), error) {
	out := io.Writer(io.Discard)
	closeLog := func() {}
	if opts.logPath != "" {
		f, err := os.OpenFile(opts.logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("open log file: %w", err)
		}
		out = f
		closeLog = func() { f.Close() }
	}
	logger := charmlog.NewWithOptions(out, charmlog.Options{
		ReportTimestamp: true,
		Level:           charmlog.InfoLevel,
	})
	if opts.verbose {
		logger.SetLevel(charmlog.DebugLevel)
	}
	return logger, closeLog, nil
}
