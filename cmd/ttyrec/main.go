// Command ttyrec records a shell session to a ttyrec transcript.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/term"

	"github.com/tty-session/ttyrec/internal/recorder"
	"github.com/tty-session/ttyrec/pkg/config"
	"github.com/tty-session/ttyrec/pkg/logging"
	"github.com/tty-session/ttyrec/pkg/ttyrec"
)

var version = "dev"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "ttyrec: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		file        = flag.String("f", "", "path to write the transcript to (default: ttyrec)")
		command     = flag.String("c", "", "command to run under the recorder (default: $SHELL)")
		configFile  = flag.String("config", config.DefaultConfigPath(), "path to an optional YAML config file")
		showVersion = flag.Bool("version", false, "print version and exit")
	)
	flag.Parse()

	if *showVersion {
		fmt.Println("ttyrec", version)
		return nil
	}

	cfg, err := config.LoadRecorderConfig(*configFile)
	if err != nil {
		return err
	}

	outPath := *file
	if outPath == "" {
		outPath = cfg.File
	}
	if outPath == "" {
		outPath = "ttyrec"
	}

	cmdLine := *command
	if cmdLine == "" {
		cmdLine = cfg.Command
	}

	logCfg := logging.FromEnv()
	if cfg.Logging != nil {
		logCfg.Level = cfg.Logging.Level
		logCfg.Format = cfg.Logging.Format
		logCfg.Output = cfg.Logging.Output
		if cfg.Logging.File != nil {
			logCfg.File = &logging.LogFile{
				Directory: cfg.Logging.File.Directory,
				Filename:  cfg.Logging.File.Filename,
				MaxSizeMB: cfg.Logging.File.MaxSizeMB,
				MaxFiles:  cfg.Logging.File.MaxFiles,
				MaxAgeDay: cfg.Logging.File.MaxAgeDay,
				Compress:  cfg.Logging.File.Compress,
			}
		}
	}
	logger := logging.NewLogger("ttyrec", logCfg)

	out, err := os.Create(outPath)
	if err != nil {
		return fmt.Errorf("create transcript %s: %w", outPath, err)
	}
	defer out.Close()

	// Raw mode for the recording's full duration: without it, the
	// controlling terminal locally cooks/echoes keystrokes on top of
	// whatever the child PTY echoes, and Ctrl-C reaches our own signal
	// handler instead of passing through to the child.
	state, err := term.MakeRaw(int(os.Stdin.Fd()))
	if err == nil {
		defer term.Restore(int(os.Stdin.Fd()), state)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	rec := recorder.New(cmdLine, os.Stdin, os.Stdout, ttyrec.NewWriter(out))
	rec.Logger = logger

	logger.Info("recording started", "file", outPath, "command", cmdLine)
	if err := rec.Run(ctx); err != nil {
		return err
	}
	logger.Info("recording finished", "file", outPath)
	return nil
}
