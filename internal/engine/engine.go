// Package engine runs the daemon's single event loop. It owns the client
// core: display events and control invocations are both serviced on one
// goroutine, so the core never needs a lock. After every piece of work the
// loop reconciles client visibility and flushes the stacking order once.
package engine

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/loftwm/loftwm/internal/config"
	"github.com/loftwm/loftwm/internal/core"
	"github.com/loftwm/loftwm/internal/display"
	"github.com/loftwm/loftwm/internal/geometry"
	"github.com/loftwm/loftwm/internal/metrics"
	"github.com/loftwm/loftwm/internal/tags"
)

const defaultAuditInterval = 30 * time.Second

type task struct {
	fn   func(*core.Core) error
	done chan error
}

// Engine drives the client core from the display event stream.
type Engine struct {
	logger    *log.Logger
	core      *core.Core
	cfg       *config.Config
	tags      *tags.Set
	collector *metrics.Collector

	invoke chan task
	source EventSource

	// test seam
	auditInterval time.Duration
}

// EventSource yields the display event stream the engine drains. A nil
// source subscribes to the display server socket.
type EventSource func(ctx context.Context, logger *log.Logger) (<-chan display.Event, error)

// New wires an engine around an already constructed core.
func New(logger *log.Logger, co *core.Core, set *tags.Set, cfg *config.Config, collector *metrics.Collector, source EventSource) *Engine {
	if source == nil {
		source = display.Subscribe
	}
	return &Engine{
		logger:        logger,
		core:          co,
		cfg:           cfg,
		tags:          set,
		collector:     collector,
		invoke:        make(chan task),
		source:        source,
		auditInterval: defaultAuditInterval,
	}
}

// Do runs fn on the event-loop goroutine and waits for it. This is the only
// way code outside the loop may touch the core.
func (e *Engine) Do(ctx context.Context, fn func(*core.Core) error) error {
	t := task{fn: fn, done: make(chan error, 1)}
	select {
	case e.invoke <- t:
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case err := <-t.done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Run services events until the context is cancelled or the event stream
// closes.
func (e *Engine) Run(ctx context.Context) error {
	events, err := e.source(ctx, e.logger)
	if err != nil {
		return err
	}
	audit := time.NewTicker(e.auditInterval)
	defer audit.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case t := <-e.invoke:
			t.done <- t.fn(e.core)
			e.settle()
		case <-audit.C:
			e.logger.Debug("periodic visibility audit")
			e.settle()
		case ev, ok := <-events:
			if !ok {
				return fmt.Errorf("event stream closed")
			}
			e.collector.RecordEvent(ev.Kind)
			if err := e.applyEvent(ev); err != nil {
				e.logger.Error("event apply failed", "kind", ev.Kind, "payload", ev.Payload, "err", err)
			}
			e.settle()
		}
	}
}

// settle reconciles visibility with tag state and pushes at most one
// restack, no matter how many stacking changes the last unit of work made.
func (e *Engine) settle() {
	e.core.SyncVisibility()
	if e.core.StackDirty() {
		e.core.FlushRestack()
		e.collector.RecordRestack()
	}
}

// ApplyConfig swaps the running configuration. Rules and defaults affect
// clients managed from now on; existing clients keep their state. Must run
// on the loop goroutine, so callers outside it go through Do.
func (e *Engine) ApplyConfig(cfg *config.Config) {
	e.cfg = cfg
	e.logger.Info("configuration applied", "rules", len(cfg.Rules), "tags", len(cfg.Tags))
}

// Config returns the active configuration.
func (e *Engine) Config() *config.Config {
	return e.cfg
}

// Tags returns the engine's tag set.
func (e *Engine) Tags() *tags.Set {
	return e.tags
}

// Metrics returns the engine's collector.
func (e *Engine) Metrics() *metrics.Collector {
	return e.collector
}

func (e *Engine) applyEvent(ev display.Event) error {
	switch ev.Kind {
	case display.EventCreate:
		return e.handleCreate(ev.Payload)
	case display.EventDestroy:
		c := e.lookup(ev.Payload)
		if c == nil {
			return nil
		}
		if err := e.core.Unmanage(c); err != nil {
			return err
		}
		e.collector.RecordUnmanaged()
		return nil
	case display.EventUnmapNotify:
		c := e.lookup(ev.Payload)
		if c == nil || c.Banned() {
			// Our own unmaps echo back as events; only the client
			// withdrawing itself ends management.
			return nil
		}
		if err := e.core.Unmanage(c); err != nil {
			return err
		}
		e.collector.RecordUnmanaged()
		return nil
	case display.EventConfigureReq:
		win, rect, err := parseConfigurePayload(ev.Payload)
		if err != nil {
			return err
		}
		c := e.core.LookupWindow(win)
		if c == nil {
			return nil
		}
		_, err = e.core.ResizeInner(c, rect, c.HonorsHints())
		return err
	case display.EventHintsChanged:
		if c := e.lookup(ev.Payload); c != nil {
			return e.core.RefreshHints(c)
		}
		return nil
	case display.EventTransient:
		win, parentWin, err := parsePairPayload(ev.Payload)
		if err != nil {
			return err
		}
		c := e.core.LookupWindow(win)
		if c == nil {
			return nil
		}
		return e.core.SetTransientFor(c, e.core.LookupWindow(parentWin))
	case display.EventUrgent:
		win, flag, err := parseFlagPayload(ev.Payload)
		if err != nil {
			return err
		}
		if c := e.core.LookupWindow(win); c != nil {
			return e.core.SetUrgent(c, flag)
		}
		return nil
	case display.EventFocusRequest:
		c := e.lookup(ev.Payload)
		if c == nil {
			return nil
		}
		if err := e.core.Focus(c); err != nil {
			return err
		}
		e.collector.RecordFocusChange()
		return nil
	case display.EventCloseRequest:
		if c := e.lookup(ev.Payload); c != nil {
			return e.core.Kill(c)
		}
		return nil
	case display.EventScreenChanged:
		return e.handleScreenChanged(ev.Payload)
	default:
		e.logger.Debug("ignoring event", "kind", ev.Kind)
		return nil
	}
}

func (e *Engine) handleCreate(payload string) error {
	args, err := parseCreatePayload(payload)
	if err != nil {
		return err
	}
	if !e.cfg.ShouldManage(args.Class) {
		e.logger.Debug("skipping never-managed client", "class", args.Class)
		return nil
	}
	rule := e.cfg.RuleFor(args.Class)
	if rule != nil && rule.Kind != "" {
		args.Kind = core.WindowKind(rule.Kind)
	}
	c, err := e.core.Manage(args)
	if err != nil {
		return err
	}
	e.collector.RecordManaged()

	screenID := c.Screen().ID
	names := e.tags.Selected(screenID)
	if rule != nil && len(rule.Tags) > 0 {
		names = rule.Tags
	}
	for _, name := range names {
		if err := e.tags.Assign(c.Window(), name, screenID); err != nil {
			e.logger.Warn("tag assign failed", "win", c.Window(), "tag", name, "err", err)
		}
	}
	if rule != nil {
		if rule.BorderWidth != nil {
			e.core.SetBorder(c, *rule.BorderWidth)
		}
		if rule.HonorHints != nil {
			e.core.SetHonorHints(c, *rule.HonorHints)
		}
		if rule.Sticky {
			e.core.SetSticky(c, true)
		}
		if rule.OnTop {
			e.core.SetOnTop(c, true)
		}
	}
	return nil
}

func (e *Engine) handleScreenChanged(payload string) error {
	fields := strings.Split(payload, ",")
	if len(fields) != 5 {
		return fmt.Errorf("screen_changed payload %q", payload)
	}
	nums, err := atoiAll(fields)
	if err != nil {
		return err
	}
	screenID := nums[0]
	rect := geometry.Rect{X: nums[1], Y: nums[2], Width: nums[3], Height: nums[4]}
	if !e.core.Screens().Update(screenID, rect) {
		return nil
	}
	screen := e.core.Screens().ByID(screenID)
	for _, c := range e.core.Clients() {
		if c.Screen() == screen && c.Fullscreen() {
			if _, err := e.core.Resize(c, rect, false); err != nil {
				e.logger.Warn("fullscreen reflow failed", "win", c.Window(), "err", err)
			}
		}
	}
	e.core.RequestRestack()
	return nil
}

func (e *Engine) lookup(payload string) *core.Client {
	win, err := display.ParseWindow(strings.TrimSpace(payload))
	if err != nil {
		e.logger.Warn("bad window payload", "payload", payload, "err", err)
		return nil
	}
	return e.core.LookupWindow(win)
}

func parseCreatePayload(payload string) (core.ManageArgs, error) {
	fields := strings.Split(payload, ",")
	if len(fields) < 8 {
		return core.ManageArgs{}, fmt.Errorf("create payload %q", payload)
	}
	nums, err := atoiAll(fields[:6])
	if err != nil {
		return core.ManageArgs{}, fmt.Errorf("create payload %q: %w", payload, err)
	}
	return core.ManageArgs{
		Win:      display.Window(nums[0]),
		Geometry: geometry.Rect{X: nums[1], Y: nums[2], Width: nums[3], Height: nums[4]},
		Border:   nums[5],
		Class:    fields[6],
		Kind:     core.WindowKind(fields[7]),
	}, nil
}

func parseConfigurePayload(payload string) (display.Window, geometry.Rect, error) {
	fields := strings.Split(payload, ",")
	if len(fields) != 5 {
		return 0, geometry.Rect{}, fmt.Errorf("configure payload %q", payload)
	}
	nums, err := atoiAll(fields)
	if err != nil {
		return 0, geometry.Rect{}, err
	}
	return display.Window(nums[0]), geometry.Rect{X: nums[1], Y: nums[2], Width: nums[3], Height: nums[4]}, nil
}

func parsePairPayload(payload string) (display.Window, display.Window, error) {
	fields := strings.Split(payload, ",")
	if len(fields) != 2 {
		return 0, 0, fmt.Errorf("pair payload %q", payload)
	}
	a, err := display.ParseWindow(fields[0])
	if err != nil {
		return 0, 0, err
	}
	b, err := display.ParseWindow(fields[1])
	if err != nil {
		return 0, 0, err
	}
	return a, b, nil
}

func parseFlagPayload(payload string) (display.Window, bool, error) {
	fields := strings.Split(payload, ",")
	if len(fields) != 2 {
		return 0, false, fmt.Errorf("flag payload %q", payload)
	}
	win, err := display.ParseWindow(fields[0])
	if err != nil {
		return 0, false, err
	}
	return win, fields[1] == "1", nil
}

func atoiAll(fields []string) ([]int, error) {
	out := make([]int, len(fields))
	for i, f := range fields {
		n, err := strconv.Atoi(strings.TrimSpace(f))
		if err != nil {
			return nil, err
		}
		out[i] = n
	}
	return out, nil
}
