// Command rgbd drives RGB lighting through a local lighting server.
//
// rgbd launches the server on an ephemeral port, enumerates its controllers,
// applies the configured startup effect and keeps the lighting in sync with
// USB hot-plug changes until it receives SIGINT or SIGTERM.
//
// Usage:
//
//	rgbd [flags]
//
// Flags:
//
//	-config string        Configuration file path (YAML)
//	-log-level string     Log level: debug, info, warn, error (overrides config)
//	-protocol-log string  File path for protocol event logging (CBOR format)
//	-server string        Attach to a running server at host:port instead of launching one
//	-interactive          Run the interactive console
//
// Examples:
//
//	# Run with the packaged configuration
//	rgbd -config /etc/rgbd/rgbd.yaml
//
//	# Attach to a server started elsewhere and open the console
//	rgbd -server 127.0.0.1:6742 -interactive
//
//	# Capture protocol traffic for rgb-log
//	rgbd -protocol-log /tmp/rgbd.rlog -log-level debug
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/Emiliopg91/RogPerfTuner-sub000/cmd/rgbd/interactive"
	"github.com/Emiliopg91/RogPerfTuner-sub000/pkg/config"
	rgblog "github.com/Emiliopg91/RogPerfTuner-sub000/pkg/log"
)

var (
	configFile  = flag.String("config", "", "Configuration file path (YAML)")
	logLevel    = flag.String("log-level", "", "Log level: debug, info, warn, error (overrides config)")
	protocolLog = flag.String("protocol-log", "", "File path for protocol event logging (CBOR format)")
	serverAddr  = flag.String("server", "", "Attach to a running server at host:port instead of launching one")
	interact    = flag.Bool("interactive", false, "Run the interactive console")
)

func main() {
	flag.Parse()
	os.Exit(run())
}

// run executes the daemon and returns the exit code. Deferred cleanup
// runs before main exits.
func run() int {
	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	level, err := config.ParseLevel(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var console *interactive.Console
	var out io.Writer = os.Stderr
	if *interact {
		console, err = interactive.New()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return 1
		}
		out = console.Stderr()
	}
	logger := slog.New(slog.NewTextHandler(out, &slog.HandlerOptions{Level: level}))

	// Only set the protocol logger when non-nil to avoid a typed-nil
	// interface.
	var sinks []rgblog.Logger
	if cfg.ProtocolLog != "" {
		fileLogger, err := rgblog.NewFileLogger(cfg.ProtocolLog)
		if err != nil {
			logger.Error("failed to create protocol logger", "path", cfg.ProtocolLog, "error", err)
			return 1
		}
		defer fileLogger.Close()
		sinks = append(sinks, fileLogger)
		logger.Info("protocol logging enabled", "path", cfg.ProtocolLog)
	}
	if level <= slog.LevelDebug {
		sinks = append(sinks, rgblog.NewSlogAdapter(logger))
	}
	var protocolLogger rgblog.Logger
	if len(sinks) > 0 {
		protocolLogger = rgblog.NewMultiLogger(sinks...)
	}

	d, err := newDaemon(cfg, logger, protocolLogger)
	if err != nil {
		logger.Error("failed to set up daemon", "error", err)
		return 1
	}
	defer d.Close()

	if err := d.Start(ctx); err != nil {
		logger.Error("failed to start lighting", "error", err)
		return 1
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	if console != nil {
		console.Attach(d.sup)
		go console.Run(ctx, cancel)
	}

	select {
	case sig := <-sigCh:
		logger.Info("received signal, shutting down", "signal", sig.String())
	case <-ctx.Done():
		logger.Info("shutting down")
	}
	return 0
}

// loadConfig reads the configuration file, if any, and applies flag
// overrides.
func loadConfig() (config.Config, error) {
	cfg := config.Default()
	if *configFile != "" {
		var err error
		if cfg, err = config.Load(*configFile); err != nil {
			return cfg, err
		}
	}
	if *logLevel != "" {
		cfg.LogLevel = *logLevel
	}
	if *protocolLog != "" {
		cfg.ProtocolLog = *protocolLog
	}
	if *serverAddr != "" {
		cfg.Server.Address = *serverAddr
	}
	return cfg, cfg.Validate()
}
