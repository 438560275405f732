/*
This is an example of application that will use the
engine package to test things out
*/
package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spaghettifunk/vulcan/engine"
	"github.com/spaghettifunk/vulcan/engine/config"
	"github.com/spaghettifunk/vulcan/engine/core"
	"github.com/spaghettifunk/vulcan/testbed"
)

func main() {
	os.Exit(run())
}

func run() int {
	configPath := flag.String("config", config.DefaultPath, "path to the TOML configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		return 1
	}

	opts := core.LoggerOptions{Level: cfg.Log.Level, ReportCaller: cfg.Log.ReportCaller}
	logger := core.NewLogger(os.Stderr, opts)
	if cfg.Log.File != "" {
		var closer io.Closer
		logger, closer, err = core.NewFileLogger(cfg.Log.File, opts)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to open log file: %v\n", err)
			return 1
		}
		defer closer.Close()
	}

	tb := testbed.NewTestGame(logger)
	e := engine.New(cfg, tb.Game, logger)

	if err := e.Initialize(); err != nil {
		fmt.Println("Failed to initialize.")
		if serr := e.Shutdown(); serr != nil {
			logger.Error("Shutdown after failed initialization: %s", serr)
		}
		return core.ExitCode(err)
	}

	// signal channel to capture system calls
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT)
	defer signal.Stop(sigCh)

	go func() {
		if sig, ok := <-sigCh; ok {
			logger.Info("Received %s, stopping.", sig)
			e.Quit()
		}
	}()

	code := 0
	if err := e.Run(); err != nil {
		logger.Error("Render loop failed: %s", err)
		code = 1
	}
	if err := e.Shutdown(); err != nil {
		logger.Error("Shutdown failed: %s", err)
		code = 1
	}
	return code
}
