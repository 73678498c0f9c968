package control

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/loftwm/loftwm/internal/core"
	"github.com/loftwm/loftwm/internal/display"
	"github.com/loftwm/loftwm/internal/engine"
	"github.com/loftwm/loftwm/internal/geometry"
)

// Server hosts the loftwm control socket. Handlers never touch the client
// core directly; every mutation is marshalled onto the engine's event loop.
type Server struct {
	engine     *engine.Engine
	logger     *log.Logger
	reload     func(reason string) error
	socketPath string

	mu       sync.Mutex
	listener net.Listener
}

// NewServer creates a new control server. An empty socketPath picks the
// runtime-directory default.
func NewServer(eng *engine.Engine, logger *log.Logger, reload func(reason string) error, socketPath string) (*Server, error) {
	if socketPath == "" {
		var err error
		socketPath, err = DefaultSocketPath()
		if err != nil {
			return nil, err
		}
	}
	return &Server{
		engine:     eng,
		logger:     logger,
		reload:     reload,
		socketPath: socketPath,
	}, nil
}

// SocketPath returns the path the server listens on.
func (s *Server) SocketPath() string {
	return s.socketPath
}

// Serve listens on the control socket until the context is cancelled.
func (s *Server) Serve(ctx context.Context) error {
	if err := s.prepareSocket(); err != nil {
		return err
	}
	s.logger.Info("control server listening", "socket", s.socketPath)
	defer s.cleanup()

	go func() {
		<-ctx.Done()
		s.mu.Lock()
		if s.listener != nil {
			s.listener.Close()
		}
		s.mu.Unlock()
	}()

	for {
		conn, err := s.accept(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, net.ErrClosed) || ctx.Err() != nil {
				return nil
			}
			s.logger.Error("control accept error", "err", err)
			continue
		}
		go s.handle(ctx, conn)
	}
}

func (s *Server) accept(ctx context.Context) (net.Conn, error) {
	s.mu.Lock()
	listener := s.listener
	s.mu.Unlock()
	if listener == nil {
		return nil, context.Canceled
	}
	conn, err := listener.Accept()
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, err
	}
	return conn, nil
}

func (s *Server) prepareSocket() error {
	dir := filepath.Dir(s.socketPath)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("create control dir: %w", err)
	}
	if err := os.Remove(s.socketPath); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove stale socket: %w", err)
	}
	listener, err := net.Listen("unix", s.socketPath)
	if err != nil {
		return fmt.Errorf("listen on control socket: %w", err)
	}
	if err := os.Chmod(s.socketPath, 0o600); err != nil {
		listener.Close()
		return fmt.Errorf("chmod control socket: %w", err)
	}
	s.mu.Lock()
	s.listener = listener
	s.mu.Unlock()
	return nil
}

func (s *Server) cleanup() {
	s.mu.Lock()
	listener := s.listener
	s.listener = nil
	s.mu.Unlock()
	if listener != nil {
		listener.Close()
	}
	if err := os.Remove(s.socketPath); err != nil && !errors.Is(err, os.ErrNotExist) {
		s.logger.Warn("remove control socket", "err", err)
	}
}

func (s *Server) handle(ctx context.Context, conn net.Conn) {
	defer conn.Close()
	dec := json.NewDecoder(conn)
	var req Request
	if err := dec.Decode(&req); err != nil {
		s.writeError(conn, fmt.Errorf("decode request: %w", err))
		return
	}
	var (
		data any
		err  error
	)
	switch req.Action {
	case ActionReload:
		err = s.handleReload()
	default:
		data, err = s.dispatch(ctx, req)
	}
	if err != nil {
		s.writeError(conn, err)
		return
	}
	s.writeOK(conn, data)
}

// dispatch runs the request on the engine loop and collects its result.
func (s *Server) dispatch(ctx context.Context, req Request) (any, error) {
	var data any
	err := s.engine.Do(ctx, func(co *core.Core) error {
		var err error
		data, err = s.apply(co, req)
		return err
	})
	return data, err
}

func (s *Server) apply(co *core.Core, req Request) (any, error) {
	switch req.Action {
	case ActionClientsList:
		return co.Snapshot(), nil

	case ActionClientGet:
		c, err := clientParam(co, req.Params)
		if err != nil {
			return nil, err
		}
		return co.Info(c), nil

	case ActionClientSet:
		c, err := clientParam(co, req.Params)
		if err != nil {
			return nil, err
		}
		field, _ := req.Params["field"].(string)
		value, _ := req.Params["value"].(bool)
		if err := setClientField(co, c, field, value); err != nil {
			return nil, err
		}
		return co.Info(c), nil

	case ActionClientResize:
		c, err := clientParam(co, req.Params)
		if err != nil {
			return nil, err
		}
		rect := geometry.Rect{
			X:      intParam(req.Params, "x"),
			Y:      intParam(req.Params, "y"),
			Width:  intParam(req.Params, "width"),
			Height: intParam(req.Params, "height"),
		}
		honor := c.HonorsHints()
		if v, ok := req.Params["honorHints"].(bool); ok {
			honor = v
		}
		if _, err := co.Resize(c, rect, honor); err != nil {
			return nil, err
		}
		return co.Info(c), nil

	case ActionClientBorder:
		c, err := clientParam(co, req.Params)
		if err != nil {
			return nil, err
		}
		if err := co.SetBorder(c, intParam(req.Params, "width")); err != nil {
			return nil, err
		}
		return co.Info(c), nil

	case ActionClientFocus:
		if _, ok := req.Params["win"]; !ok {
			return nil, co.Focus(nil)
		}
		c, err := clientParam(co, req.Params)
		if err != nil {
			return nil, err
		}
		return nil, co.Focus(c)

	case ActionClientClose:
		c, err := clientParam(co, req.Params)
		if err != nil {
			return nil, err
		}
		return nil, co.Kill(c)

	case ActionClientRaise:
		c, err := clientParam(co, req.Params)
		if err != nil {
			return nil, err
		}
		return nil, co.Raise(c)

	case ActionClientLower:
		c, err := clientParam(co, req.Params)
		if err != nil {
			return nil, err
		}
		return nil, co.Lower(c)

	case ActionClientSwap:
		a := co.LookupWindow(display.Window(intParam(req.Params, "a")))
		b := co.LookupWindow(display.Window(intParam(req.Params, "b")))
		if a == nil || b == nil {
			return nil, errors.New("both clients must be managed")
		}
		return nil, co.Swap(a, b)

	case ActionClientTags:
		c, err := clientParam(co, req.Params)
		if err != nil {
			return nil, err
		}
		names := stringsParam(req.Params, "tags")
		if len(names) == 0 {
			return nil, errors.New("tags cannot be empty")
		}
		set := s.engine.Tags()
		screenID := c.Screen().ID
		for _, tag := range set.TagsOf(c.Window(), screenID) {
			if err := set.Remove(c.Window(), tag, screenID); err != nil {
				return nil, err
			}
		}
		for _, tag := range names {
			if err := set.Assign(c.Window(), tag, screenID); err != nil {
				return nil, err
			}
		}
		return co.Info(c), nil

	case ActionTagsList:
		return s.tagStates(co), nil

	case ActionTagsSelect:
		screenID := intParam(req.Params, "screen")
		names := stringsParam(req.Params, "tags")
		if err := s.engine.Tags().Select(screenID, names); err != nil {
			return nil, err
		}
		return s.tagStates(co), nil

	case ActionStackGet:
		return windowIDs(co.StackingOrder()), nil

	case ActionMetricsGet:
		return s.engine.Metrics().Snapshot(), nil

	case ActionInspectorGet:
		return s.inspectorSnapshot(co), nil

	default:
		return nil, fmt.Errorf("unknown action %q", req.Action)
	}
}

func (s *Server) handleReload() error {
	if s.reload == nil {
		return errors.New("reload not supported")
	}
	return s.reload("control request")
}

func (s *Server) tagStates(co *core.Core) []TagState {
	var out []TagState
	for _, screen := range co.Screens().All() {
		for _, tag := range s.engine.Tags().OnScreen(screen.ID) {
			out = append(out, TagState{
				Name:     tag.Name,
				Screen:   screen.ID,
				Selected: tag.Selected,
				Clients:  windowIDs(tag.Clients()),
			})
		}
	}
	return out
}

func (s *Server) inspectorSnapshot(co *core.Core) InspectorSnapshot {
	snap := InspectorSnapshot{
		Clients:  co.Snapshot(),
		Stacking: windowIDs(co.StackingOrder()),
		Tags:     s.tagStates(co),
		Metrics:  s.engine.Metrics().Snapshot(),
	}
	for _, screen := range co.Screens().All() {
		snap.Screens = append(snap.Screens, ScreenState{
			ID:     screen.ID,
			Name:   screen.Name,
			X:      screen.Geometry.X,
			Y:      screen.Geometry.Y,
			Width:  screen.Geometry.Width,
			Height: screen.Geometry.Height,
		})
	}
	return snap
}

func setClientField(co *core.Core, c *core.Client, field string, value bool) error {
	switch field {
	case "fullscreen":
		return co.SetFullscreen(c, value)
	case "maximized_horizontal":
		return co.SetMaximizedHorizontal(c, value)
	case "maximized_vertical":
		return co.SetMaximizedVertical(c, value)
	case "above":
		return co.SetAbove(c, value)
	case "below":
		return co.SetBelow(c, value)
	case "ontop":
		return co.SetOnTop(c, value)
	case "urgent":
		return co.SetUrgent(c, value)
	case "sticky":
		return co.SetSticky(c, value)
	case "minimized":
		return co.SetMinimized(c, value)
	case "hidden":
		return co.SetHidden(c, value)
	case "modal":
		return co.SetModal(c, value)
	case "size_hints_honor":
		return co.SetHonorHints(c, value)
	default:
		return fmt.Errorf("unknown field %q", field)
	}
}

func clientParam(co *core.Core, params map[string]any) (*core.Client, error) {
	win := intParam(params, "win")
	if win == 0 {
		return nil, errors.New("missing window")
	}
	c := co.LookupWindow(display.Window(win))
	if c == nil {
		return nil, fmt.Errorf("window %d is not managed", win)
	}
	return c, nil
}

func intParam(params map[string]any, key string) int {
	switch v := params[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	default:
		return 0
	}
}

func stringsParam(params map[string]any, key string) []string {
	raw, ok := params[key].([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, item := range raw {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

func windowIDs(wins []display.Window) []uint32 {
	out := make([]uint32, 0, len(wins))
	for _, w := range wins {
		out = append(out, uint32(w))
	}
	return out
}

func (s *Server) writeOK(conn net.Conn, data any) {
	resp := Response{Status: StatusOK}
	if data != nil {
		resp.Data = data
	}
	_ = json.NewEncoder(conn).Encode(resp)
}

func (s *Server) writeError(conn net.Conn, err error) {
	resp := Response{Status: StatusError}
	if err != nil {
		resp.Error = err.Error()
	}
	_ = json.NewEncoder(conn).Encode(resp)
}
