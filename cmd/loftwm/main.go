package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"

	"github.com/loftwm/loftwm/internal/config"
	"github.com/loftwm/loftwm/internal/control"
	"github.com/loftwm/loftwm/internal/core"
	"github.com/loftwm/loftwm/internal/deco"
	"github.com/loftwm/loftwm/internal/display"
	"github.com/loftwm/loftwm/internal/engine"
	"github.com/loftwm/loftwm/internal/geometry"
	"github.com/loftwm/loftwm/internal/hooks"
	"github.com/loftwm/loftwm/internal/metrics"
	"github.com/loftwm/loftwm/internal/screens"
	"github.com/loftwm/loftwm/internal/tags"
)

func main() {
	home, _ := os.UserHomeDir()
	defaultConfig := filepath.Join(home, ".config", "loftwm", "config.yaml")

	cfgPath := flag.String("config", defaultConfig, "path to YAML config")
	logLevel := flag.String("log-level", "", "override configured log level (debug|info|warn|error)")
	flag.Parse()

	cfg, raw, err := loadConfig(*cfgPath, defaultConfig)
	if err != nil {
		exitErr(err)
	}

	level := cfg.LogLevel
	if *logLevel != "" {
		level = *logLevel
	}
	parsedLevel, err := log.ParseLevel(level)
	if err != nil {
		exitErr(fmt.Errorf("parse log level: %w", err))
	}
	logger := log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		Level:           parsedLevel,
		Prefix:          "loftwm",
	})

	if cfg.Sockets.Command != "" {
		os.Setenv("LOFT_COMMAND_SOCKET", cfg.Sockets.Command)
	}
	if cfg.Sockets.Event != "" {
		os.Setenv("LOFT_EVENT_SOCKET", cfg.Sockets.Event)
	}

	conn, err := display.Dial(logger)
	if err != nil {
		exitErr(fmt.Errorf("connect display server: %w", err))
	}
	defer conn.Close()

	infos, err := conn.QueryScreens()
	if err != nil {
		exitErr(fmt.Errorf("query screens: %w", err))
	}
	list, screenIDs := buildScreens(infos)
	logger.Info("display connected", "screens", len(screenIDs))

	set := tags.NewSet(cfg.Tags, screenIDs)
	bus := hooks.NewBus()
	collector := metrics.NewCollector(cfg.Metrics)
	bus.Subscribe(hooks.Subscriber{
		PropertyChanged: func(clientID uint32, field string) {
			collector.RecordNotification()
			logger.Debug("property changed", "win", clientID, "field", field)
		},
	})

	co := core.New(logger, conn, bus, list, set, frameFor(cfg), core.Options{
		BorderWidth: cfg.BorderWidth,
		HonorHints:  cfg.HonorHints,
	})
	eng := engine.New(logger, co, set, cfg, collector, nil)

	cfgFullPath, err := filepath.Abs(*cfgPath)
	if err != nil {
		exitErr(fmt.Errorf("resolve config path: %w", err))
	}
	cfgFullPath = filepath.Clean(cfgFullPath)
	reloader := newConfigReloader(cfgFullPath, logger, eng, collector, raw)

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		exitErr(fmt.Errorf("watch config: %w", err))
	}
	defer watcher.Close()
	if err := watcher.Add(filepath.Dir(cfgFullPath)); err != nil {
		exitErr(fmt.Errorf("watch config dir: %w", err))
	}
	if err := watcher.Add(cfgFullPath); err != nil {
		logger.Debug("unable to watch config file directly", "err", err)
	}
	reloadRequests := make(chan string, 1)
	go watchConfig(logger, watcher, cfgFullPath, reloadRequests)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	reload := func(reason string) error {
		return reloader.Reload(ctx, reason)
	}
	ctrlSrv, err := control.NewServer(eng, logger, reload, cfg.Sockets.Control)
	if err != nil {
		exitErr(fmt.Errorf("start control server: %w", err))
	}

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, os.Interrupt, syscall.SIGTERM, syscall.SIGHUP)

	errs := make(chan error, 2)
	go func() {
		errs <- eng.Run(ctx)
	}()
	go func() {
		errs <- ctrlSrv.Serve(ctx)
	}()

	for {
		select {
		case err := <-errs:
			if err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("daemon exited", "err", err)
				os.Exit(1)
			}
			logger.Info("daemon stopped")
			return
		case reason := <-reloadRequests:
			if err := reload(reason); err != nil {
				logger.Error("reload failed", "err", err)
			}
		case sig := <-sigs:
			switch sig {
			case syscall.SIGHUP:
				if err := reload("received SIGHUP"); err != nil {
					logger.Error("reload failed", "err", err)
				}
			case os.Interrupt, syscall.SIGTERM:
				logger.Info("shutting down", "signal", sig)
				cancel()
			}
		}
	}
}

// loadConfig falls back to builtin defaults when the default config file is
// absent. An explicitly named file must exist.
func loadConfig(path, defaultPath string) (*config.Config, []byte, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) && path == defaultPath {
			return config.Default(), nil, nil
		}
		return nil, nil, fmt.Errorf("read config: %w", err)
	}
	cfg, err := config.Parse(raw)
	if err != nil {
		return nil, nil, err
	}
	return cfg, raw, nil
}

func buildScreens(infos []display.ScreenInfo) (*screens.List, []int) {
	built := make([]*screens.Screen, 0, len(infos))
	ids := make([]int, 0, len(infos))
	for _, info := range infos {
		built = append(built, &screens.Screen{
			ID:       info.ID,
			Name:     info.Name,
			Geometry: geometry.Rect{X: info.X, Y: info.Y, Width: info.Width, Height: info.Height},
			Root:     info.Root,
		})
		ids = append(ids, info.ID)
	}
	return screens.NewList(built...), ids
}

func frameFor(cfg *config.Config) deco.Frame {
	if cfg.TitleBar.Enabled {
		return deco.TitleFrame{Height: cfg.TitleBar.Height}
	}
	return deco.BorderFrame{}
}

func watchConfig(logger *log.Logger, watcher *fsnotify.Watcher, target string, reloadRequests chan<- string) {
	const debounceWindow = 250 * time.Millisecond
	var (
		timer   *time.Timer
		timerCh <-chan time.Time
	)
	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(debounceWindow)
				timerCh = timer.C
			} else {
				if !timer.Stop() {
					<-timerCh
				}
				timer.Reset(debounceWindow)
			}
		case <-timerCh:
			timer = nil
			timerCh = nil
			select {
			case reloadRequests <- "config file updated":
			default:
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			logger.Warn("config watcher error", "err", err)
		}
	}
}

func exitErr(err error) {
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	os.Exit(1)
}
