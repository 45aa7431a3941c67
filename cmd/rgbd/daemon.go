package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/Emiliopg91/RogPerfTuner-sub000/pkg/color"
	"github.com/Emiliopg91/RogPerfTuner-sub000/pkg/config"
	"github.com/Emiliopg91/RogPerfTuner-sub000/pkg/connection"
	"github.com/Emiliopg91/RogPerfTuner-sub000/pkg/effect"
	rgblog "github.com/Emiliopg91/RogPerfTuner-sub000/pkg/log"
	"github.com/Emiliopg91/RogPerfTuner-sub000/pkg/supervisor"
	"github.com/Emiliopg91/RogPerfTuner-sub000/pkg/transport"
	"github.com/Emiliopg91/RogPerfTuner-sub000/pkg/usb"
)

// daemon wires the configuration into a supervisor and a hot-plug watcher.
type daemon struct {
	cfg    config.Config
	logger *slog.Logger
	sup    *supervisor.Supervisor

	watcher *usb.Watcher
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

func newDaemon(cfg config.Config, logger *slog.Logger, protocolLogger rgblog.Logger) (*daemon, error) {
	rules, err := usb.LoadRules(cfg.UdevRules)
	if err != nil {
		// Hot-plug classification needs the rules; lighting does not.
		logger.Warn("udev rules unavailable, hot-plug disabled", "path", cfg.UdevRules, "error", err)
		cfg.Hotplug.Enabled = false
	}

	client := transport.DefaultConfig()
	client.ClientName = cfg.Client.Name
	client.MaxProtocolVersion = cfg.Client.MaxProtocolVersion
	client.RequestTimeout = cfg.Client.RequestTimeout
	client.HandshakeTimeout = cfg.Client.HandshakeTimeout
	client.DialTimeout = cfg.Client.DialTimeout

	supCfg := supervisor.Config{
		Host:             cfg.Server.Host,
		Address:          cfg.Server.Address,
		Client:           client,
		StartTimeout:     cfg.Server.StartTimeout,
		StopGrace:        cfg.Server.StopGrace,
		TerminateTimeout: cfg.Server.TerminateTimeout,
		Rules:            rules,
		Recovery: supervisor.RecoveryConfig{
			Enabled: cfg.Recovery.Enabled,
			Backoff: connection.BackoffConfig{
				Initial: cfg.Recovery.InitialBackoff,
				Max:     cfg.Recovery.MaxBackoff,
			},
			MaxAttempts: cfg.Recovery.MaxAttempts,
		},
		Logger:         logger,
		ProtocolLogger: protocolLogger,
	}
	if cfg.Server.Address == "" {
		supCfg.Launcher = &supervisor.ExecLauncher{
			Path:   cfg.Server.Path,
			Args:   cfg.ServerArgs,
			Logger: logger,
		}
	}
	if cfg.Hotplug.Enabled {
		supCfg.Enumerator = &usb.SysfsEnumerator{Root: cfg.Hotplug.SysfsDir}
	}

	sup, err := supervisor.New(supCfg)
	if err != nil {
		return nil, err
	}
	if err := registerPresets(sup, cfg.Presets); err != nil {
		_ = sup.Close()
		return nil, err
	}
	return &daemon{cfg: cfg, logger: logger, sup: sup}, nil
}

// registerPresets adds each preset as a fixed-color copy of a built-in.
func registerPresets(sup *supervisor.Supervisor, presets []config.Preset) error {
	for _, p := range presets {
		base, ok := effect.Builtin(p.Base)
		if !ok {
			return fmt.Errorf("preset %s: %w: %s", p.Name, effect.ErrUnknownEffect, p.Base)
		}
		c, err := color.ParseHex(p.Color)
		if err != nil {
			return fmt.Errorf("preset %s: %w", p.Name, err)
		}
		if err := sup.AppendCustomEffect(effect.Preset(p.Name, base, c)); err != nil {
			return fmt.Errorf("preset %s: %w", p.Name, err)
		}
	}
	return nil
}

// startupEffect resolves the configured startup effect. An empty color
// keeps the effect's default.
func startupEffect(e config.Effect) (string, color.Brightness, *color.Color, error) {
	b, err := color.ParseBrightness(e.Brightness)
	if err != nil {
		return "", color.Off, nil, err
	}
	if e.Color == "" {
		return e.Name, b, nil, nil
	}
	c, err := color.ParseHex(e.Color)
	if err != nil {
		return "", color.Off, nil, err
	}
	return e.Name, b, &c, nil
}

// Start brings the lighting up, applies the startup effect and begins
// watching for USB changes.
func (d *daemon) Start(ctx context.Context) error {
	if err := d.sup.Start(ctx); err != nil {
		return err
	}

	if err := d.applyStartupEffect(ctx); err != nil {
		// The server is already up; leave nothing running behind.
		return errors.Join(err, d.sup.Stop(ctx))
	}

	if !d.cfg.Hotplug.Enabled {
		return nil
	}
	w, err := usb.NewWatcher(usb.WatcherConfig{
		Dir:      d.cfg.Hotplug.WatchDir,
		Debounce: d.cfg.Hotplug.Debounce,
		Logger:   d.logger,
	})
	if err != nil {
		d.logger.Warn("usb watcher unavailable, hot-plug disabled", "error", err)
		return nil
	}
	d.watcher = w

	watchCtx, cancel := context.WithCancel(context.Background())
	d.cancel = cancel
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		d.sup.WatchUSB(watchCtx, w.Events())
	}()
	return nil
}

func (d *daemon) applyStartupEffect(ctx context.Context) error {
	if d.cfg.Effect.Name == "" {
		return nil
	}
	name, b, c, err := startupEffect(d.cfg.Effect)
	if err != nil {
		return err
	}
	if _, err := d.sup.ApplyEffect(ctx, name, b, c); err != nil {
		return fmt.Errorf("apply startup effect: %w", err)
	}
	return nil
}

// Close stops hot-plug handling, then the lighting.
func (d *daemon) Close() error {
	var errs []error
	if d.cancel != nil {
		d.cancel()
	}
	if d.watcher != nil {
		errs = append(errs, d.watcher.Close())
	}
	d.wg.Wait()
	errs = append(errs, d.sup.Close())
	return errors.Join(errs...)
}
