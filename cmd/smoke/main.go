// Command smoke replays a recorded display event stream through the engine
// without a server, then dumps the resulting state. It exists to exercise the
// full event path offline: payload parsing, rules, the client core and the
// restack flush.
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/loftwm/loftwm/internal/config"
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

// recordingConn counts server commands instead of sending them.
type recordingConn struct {
	commands map[string]int
}

func newRecordingConn() *recordingConn {
	return &recordingConn{commands: map[string]int{}}
}

func (r *recordingConn) count(op string) { r.commands[op]++ }

func (r *recordingConn) Map(display.Window)                            { r.count("map") }
func (r *recordingConn) Unmap(display.Window)                          { r.count("unmap") }
func (r *recordingConn) Configure(display.Window, geometry.Rect)       { r.count("configure") }
func (r *recordingConn) SetBorderWidth(display.Window, int)            { r.count("border") }
func (r *recordingConn) StackAbove(win, sibling display.Window)        { r.count("stack") }
func (r *recordingConn) SetInputFocus(display.Window)                  { r.count("focus") }
func (r *recordingConn) SetWMState(display.Window, display.WMState)    { r.count("state") }
func (r *recordingConn) SetActiveWindow(int, display.Window)           { r.count("active") }
func (r *recordingConn) SetUrgency(display.Window, bool)               { r.count("urgency") }
func (r *recordingConn) SendCloseRequest(display.Window)               { r.count("close") }
func (r *recordingConn) SendTakeFocus(display.Window)                  { r.count("take_focus") }
func (r *recordingConn) Kill(display.Window)                           { r.count("kill") }
func (r *recordingConn) GrabButtons(display.Window, []display.Binding) { r.count("grab_buttons") }
func (r *recordingConn) GrabKeys(display.Window, []display.Binding)    { r.count("grab_keys") }

func (r *recordingConn) QueryHints(display.Window) (geometry.SizeHints, error) {
	return geometry.SizeHints{}, errors.New("no server")
}

func (r *recordingConn) QueryTransientFor(display.Window) (display.Window, error) {
	return display.None, errors.New("no server")
}

func (r *recordingConn) QueryProtocols(display.Window) ([]string, error) {
	return nil, errors.New("no server")
}

func (r *recordingConn) QueryTextProperty(display.Window, string) (string, error) {
	return "", errors.New("no server")
}

type smokeReport struct {
	Events   int               `json:"events"`
	Clients  []core.ClientInfo `json:"clients"`
	Stacking []display.Window  `json:"stacking"`
	Commands map[string]int    `json:"commands"`
	Metrics  metrics.Snapshot  `json:"metrics"`
}

func main() {
	eventsPath := flag.String("events", "", "file of event lines (kind>>payload), required")
	cfgPath := flag.String("config", "", "optional YAML config")
	screenWidth := flag.Int("width", 1920, "synthetic screen width")
	screenHeight := flag.Int("height", 1080, "synthetic screen height")
	flag.Parse()

	if *eventsPath == "" {
		fmt.Fprintln(os.Stderr, "error: -events is required")
		os.Exit(2)
	}

	cfg := config.Default()
	if *cfgPath != "" {
		loaded, err := config.Load(*cfgPath)
		if err != nil {
			exitErr(err)
		}
		cfg = loaded
	}

	events, err := readEvents(*eventsPath)
	if err != nil {
		exitErr(err)
	}

	logger := log.NewWithOptions(os.Stderr, log.Options{Level: log.WarnLevel})
	conn := newRecordingConn()
	list := screens.NewList(&screens.Screen{
		ID:       0,
		Name:     "smoke",
		Geometry: geometry.Rect{Width: *screenWidth, Height: *screenHeight},
		Root:     1,
	})
	set := tags.NewSet(cfg.Tags, []int{0})
	collector := metrics.NewCollector(true)
	co := core.New(logger, conn, hooks.NewBus(), list, set, deco.BorderFrame{}, core.Options{
		BorderWidth: cfg.BorderWidth,
		HonorHints:  cfg.HonorHints,
	})

	stream := make(chan display.Event)
	source := func(context.Context, *log.Logger) (<-chan display.Event, error) {
		return stream, nil
	}
	eng := engine.New(logger, co, set, cfg, collector, source)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	runDone := make(chan struct{})
	go func() {
		_ = eng.Run(ctx)
		close(runDone)
	}()

	for _, ev := range events {
		stream <- ev
	}

	report := smokeReport{Events: len(events), Commands: conn.commands}
	err = eng.Do(ctx, func(co *core.Core) error {
		report.Clients = co.Snapshot()
		report.Stacking = co.StackingOrder()
		return nil
	})
	if err != nil {
		exitErr(err)
	}
	report.Metrics = collector.Snapshot()

	cancel()
	select {
	case <-runDone:
	case <-time.After(2 * time.Second):
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(report); err != nil {
		exitErr(err)
	}
}

// readEvents parses one event per line in the wire form "kind>>payload".
// Blank lines and #-comments are skipped.
func readEvents(path string) ([]display.Event, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open events: %w", err)
	}
	defer f.Close()

	var events []display.Event
	scanner := bufio.NewScanner(f)
	for lineNo := 1; scanner.Scan(); lineNo++ {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		kind, payload, ok := strings.Cut(line, ">>")
		if !ok {
			return nil, fmt.Errorf("line %d: missing >> separator", lineNo)
		}
		events = append(events, display.Event{Kind: kind, Payload: payload})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read events: %w", err)
	}
	return events, nil
}

func exitErr(err error) {
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	os.Exit(1)
}
