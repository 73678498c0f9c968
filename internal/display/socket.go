package display

import (
	"bufio"
	"encoding/json"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"

	"github.com/charmbracelet/log"

	"github.com/loftwm/loftwm/internal/geometry"
)

// request is one line on the command socket.
type request struct {
	Op       string    `json:"op"`
	Win      Window    `json:"win,omitempty"`
	Sibling  Window    `json:"sibling,omitempty"`
	X        int       `json:"x,omitempty"`
	Y        int       `json:"y,omitempty"`
	Width    int       `json:"width,omitempty"`
	Height   int       `json:"height,omitempty"`
	Value    int       `json:"value,omitempty"`
	Screen   int       `json:"screen,omitempty"`
	Name     string    `json:"name,omitempty"`
	Flag     bool      `json:"flag,omitempty"`
	Bindings []Binding `json:"bindings,omitempty"`
}

// reply is one line back from the command socket for query ops.
type reply struct {
	Status    string              `json:"status"`
	Error     string              `json:"error,omitempty"`
	Win       Window              `json:"win,omitempty"`
	Text      string              `json:"text,omitempty"`
	Protocols []string            `json:"protocols,omitempty"`
	Hints     *geometry.SizeHints `json:"hints,omitempty"`
	Screens   []ScreenInfo        `json:"screens,omitempty"`
}

// ScreenInfo describes one output as reported by the display server.
type ScreenInfo struct {
	ID     int    `json:"id"`
	Name   string `json:"name"`
	X      int    `json:"x"`
	Y      int    `json:"y"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
	Root   Window `json:"root"`
}

// SocketConn implements Conn over the display server's command socket. It is
// used by the single event-loop goroutine only and holds no lock.
type SocketConn struct {
	conn   net.Conn
	enc    *json.Encoder
	dec    *json.Decoder
	logger *log.Logger
}

// Dial connects to the display server command socket.
func Dial(logger *log.Logger) (*SocketConn, error) {
	path, err := commandSocketPath()
	if err != nil {
		return nil, err
	}
	conn, err := net.Dial("unix", path)
	if err != nil {
		return nil, fmt.Errorf("connect command socket: %w", err)
	}
	return &SocketConn{
		conn:   conn,
		enc:    json.NewEncoder(conn),
		dec:    json.NewDecoder(bufio.NewReader(conn)),
		logger: logger,
	}, nil
}

// Close tears down the command connection.
func (c *SocketConn) Close() error {
	return c.conn.Close()
}

// send writes a fire-and-forget command. Failures are logged, never returned:
// the core must not stall on the server.
func (c *SocketConn) send(req request) {
	if err := c.enc.Encode(req); err != nil {
		c.logger.Warn("display command failed", "op", req.Op, "win", req.Win, "err", err)
	}
}

// query writes a command and waits for its single reply line.
func (c *SocketConn) query(req request) (reply, error) {
	if err := c.enc.Encode(req); err != nil {
		return reply{}, fmt.Errorf("send %s: %w", req.Op, err)
	}
	var resp reply
	if err := c.dec.Decode(&resp); err != nil {
		return reply{}, fmt.Errorf("read %s reply: %w", req.Op, err)
	}
	if resp.Status != "ok" {
		return reply{}, fmt.Errorf("%s: %s", req.Op, resp.Error)
	}
	return resp, nil
}

func (c *SocketConn) Map(win Window)   { c.send(request{Op: "map", Win: win}) }
func (c *SocketConn) Unmap(win Window) { c.send(request{Op: "unmap", Win: win}) }

func (c *SocketConn) Configure(win Window, inner geometry.Rect) {
	c.send(request{Op: "configure", Win: win, X: inner.X, Y: inner.Y, Width: inner.Width, Height: inner.Height})
}

func (c *SocketConn) SetBorderWidth(win Window, width int) {
	c.send(request{Op: "border", Win: win, Value: width})
}

func (c *SocketConn) StackAbove(win, sibling Window) {
	c.send(request{Op: "stack", Win: win, Sibling: sibling})
}

func (c *SocketConn) SetInputFocus(win Window) {
	c.send(request{Op: "focus", Win: win})
}

func (c *SocketConn) SetWMState(win Window, state WMState) {
	c.send(request{Op: "state", Win: win, Value: int(state)})
}

func (c *SocketConn) SetActiveWindow(screen int, win Window) {
	c.send(request{Op: "active", Win: win, Screen: screen})
}

func (c *SocketConn) SetUrgency(win Window, urgent bool) {
	c.send(request{Op: "urgency", Win: win, Flag: urgent})
}

func (c *SocketConn) SendCloseRequest(win Window) {
	c.send(request{Op: "close", Win: win})
}

func (c *SocketConn) SendTakeFocus(win Window) {
	c.send(request{Op: "take_focus", Win: win})
}

func (c *SocketConn) Kill(win Window) {
	c.send(request{Op: "kill", Win: win})
}

func (c *SocketConn) GrabButtons(win Window, buttons []Binding) {
	c.send(request{Op: "grab_buttons", Win: win, Bindings: buttons})
}

func (c *SocketConn) GrabKeys(win Window, keys []Binding) {
	c.send(request{Op: "grab_keys", Win: win, Bindings: keys})
}

// QueryHints fetches size hints; missing or malformed hints come back as the
// all-zero default, not as an error.
func (c *SocketConn) QueryHints(win Window) (geometry.SizeHints, error) {
	resp, err := c.query(request{Op: "query_hints", Win: win})
	if err != nil {
		return geometry.SizeHints{}, err
	}
	if resp.Hints == nil {
		return geometry.SizeHints{}, nil
	}
	return *resp.Hints, nil
}

func (c *SocketConn) QueryTransientFor(win Window) (Window, error) {
	resp, err := c.query(request{Op: "query_transient", Win: win})
	if err != nil {
		return None, err
	}
	return resp.Win, nil
}

func (c *SocketConn) QueryProtocols(win Window) ([]string, error) {
	resp, err := c.query(request{Op: "query_protocols", Win: win})
	if err != nil {
		return nil, err
	}
	return resp.Protocols, nil
}

func (c *SocketConn) QueryTextProperty(win Window, name string) (string, error) {
	resp, err := c.query(request{Op: "query_text", Win: win, Name: name})
	if err != nil {
		return "", err
	}
	return resp.Text, nil
}

// QueryScreens asks the server for its current outputs. Only the daemon's
// startup path uses this; screen changes afterwards arrive as events.
func (c *SocketConn) QueryScreens() ([]ScreenInfo, error) {
	resp, err := c.query(request{Op: "query_screens"})
	if err != nil {
		return nil, err
	}
	if len(resp.Screens) == 0 {
		return nil, fmt.Errorf("server reported no screens")
	}
	return resp.Screens, nil
}

var _ Conn = (*SocketConn)(nil)

func commandSocketPath() (string, error) {
	if env := os.Getenv("LOFT_COMMAND_SOCKET"); env != "" {
		return env, nil
	}
	return runtimeSocket(".command.sock")
}

func eventSocketPath() (string, error) {
	if env := os.Getenv("LOFT_EVENT_SOCKET"); env != "" {
		return env, nil
	}
	return runtimeSocket(".event.sock")
}

func runtimeSocket(name string) (string, error) {
	sig := os.Getenv("LOFT_INSTANCE_SIGNATURE")
	if sig == "" {
		return "", fmt.Errorf("LOFT_INSTANCE_SIGNATURE not set")
	}
	runtimeDir := os.Getenv("XDG_RUNTIME_DIR")
	if runtimeDir == "" {
		return "", fmt.Errorf("XDG_RUNTIME_DIR not set")
	}
	return filepath.Join(runtimeDir, "loft", sig, name), nil
}

// ParseWindow decodes a window handle from its event-payload form.
func ParseWindow(s string) (Window, error) {
	v, err := strconv.ParseUint(s, 10, 32)
	if err != nil {
		return None, fmt.Errorf("invalid window %q: %w", s, err)
	}
	return Window(v), nil
}
