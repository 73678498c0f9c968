// Package client talks to a running loftwm daemon over its control socket.
package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/loftwm/loftwm/internal/control"
	"github.com/loftwm/loftwm/internal/core"
	"github.com/loftwm/loftwm/internal/metrics"
)

// defaultTimeout is used when the caller does not provide a context deadline.
const defaultTimeout = 3 * time.Second

// Client talks to the running loftwm daemon over its control socket.
type Client struct {
	socketPath string
}

type (
	// ClientInfo is the serialized view of one managed client.
	ClientInfo = core.ClientInfo
	// TagState describes one tag on one screen.
	TagState = control.TagState
	// ScreenState describes one output.
	ScreenState = control.ScreenState
	// InspectorState captures the daemon's full state dump.
	InspectorState = control.InspectorSnapshot
	// MetricsSnapshot mirrors the daemon's counter payload.
	MetricsSnapshot = metrics.Snapshot
)

// New creates a client that connects to the provided socket path. When path
// is empty, the default runtime path is used.
func New(path string) (*Client, error) {
	if path == "" {
		var err error
		path, err = control.DefaultSocketPath()
		if err != nil {
			return nil, err
		}
	}
	return &Client{socketPath: path}, nil
}

// Clients lists every managed client.
func (c *Client) Clients(ctx context.Context) ([]ClientInfo, error) {
	var out []ClientInfo
	if err := c.do(ctx, control.Request{Action: control.ActionClientsList}, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Get retrieves one client by window handle.
func (c *Client) Get(ctx context.Context, win uint32) (ClientInfo, error) {
	var out ClientInfo
	req := control.Request{Action: control.ActionClientGet, Params: map[string]any{"win": win}}
	if err := c.do(ctx, req, &out); err != nil {
		return ClientInfo{}, err
	}
	return out, nil
}

// Set flips a boolean client field: fullscreen, ontop, sticky and friends.
func (c *Client) Set(ctx context.Context, win uint32, field string, value bool) (ClientInfo, error) {
	if field == "" {
		return ClientInfo{}, errors.New("field cannot be empty")
	}
	var out ClientInfo
	req := control.Request{Action: control.ActionClientSet, Params: map[string]any{
		"win": win, "field": field, "value": value,
	}}
	if err := c.do(ctx, req, &out); err != nil {
		return ClientInfo{}, err
	}
	return out, nil
}

// Resize moves and resizes a client's outer geometry.
func (c *Client) Resize(ctx context.Context, win uint32, x, y, width, height int) (ClientInfo, error) {
	var out ClientInfo
	req := control.Request{Action: control.ActionClientResize, Params: map[string]any{
		"win": win, "x": x, "y": y, "width": width, "height": height,
	}}
	if err := c.do(ctx, req, &out); err != nil {
		return ClientInfo{}, err
	}
	return out, nil
}

// Border sets a client's border width.
func (c *Client) Border(ctx context.Context, win uint32, width int) (ClientInfo, error) {
	var out ClientInfo
	req := control.Request{Action: control.ActionClientBorder, Params: map[string]any{
		"win": win, "width": width,
	}}
	if err := c.do(ctx, req, &out); err != nil {
		return ClientInfo{}, err
	}
	return out, nil
}

// Focus gives input focus to a client. Zero focuses the default client.
func (c *Client) Focus(ctx context.Context, win uint32) error {
	params := map[string]any{}
	if win != 0 {
		params["win"] = win
	}
	return c.do(ctx, control.Request{Action: control.ActionClientFocus, Params: params}, nil)
}

// Close asks a client to close.
func (c *Client) Close(ctx context.Context, win uint32) error {
	req := control.Request{Action: control.ActionClientClose, Params: map[string]any{"win": win}}
	return c.do(ctx, req, nil)
}

// Raise puts a client on top of its layer.
func (c *Client) Raise(ctx context.Context, win uint32) error {
	req := control.Request{Action: control.ActionClientRaise, Params: map[string]any{"win": win}}
	return c.do(ctx, req, nil)
}

// Lower drops a client to the bottom of its layer.
func (c *Client) Lower(ctx context.Context, win uint32) error {
	req := control.Request{Action: control.ActionClientLower, Params: map[string]any{"win": win}}
	return c.do(ctx, req, nil)
}

// Swap exchanges two clients' registry positions.
func (c *Client) Swap(ctx context.Context, a, b uint32) error {
	req := control.Request{Action: control.ActionClientSwap, Params: map[string]any{"a": a, "b": b}}
	return c.do(ctx, req, nil)
}

// Retag replaces the tags carrying a client.
func (c *Client) Retag(ctx context.Context, win uint32, tags []string) (ClientInfo, error) {
	if len(tags) == 0 {
		return ClientInfo{}, errors.New("tags cannot be empty")
	}
	var out ClientInfo
	req := control.Request{Action: control.ActionClientTags, Params: map[string]any{
		"win": win, "tags": tags,
	}}
	if err := c.do(ctx, req, &out); err != nil {
		return ClientInfo{}, err
	}
	return out, nil
}

// Tags lists every tag on every screen.
func (c *Client) Tags(ctx context.Context) ([]TagState, error) {
	var out []TagState
	if err := c.do(ctx, control.Request{Action: control.ActionTagsList}, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// SelectTags replaces a screen's tag selection.
func (c *Client) SelectTags(ctx context.Context, screen int, tags []string) ([]TagState, error) {
	if len(tags) == 0 {
		return nil, errors.New("tags cannot be empty")
	}
	var out []TagState
	req := control.Request{Action: control.ActionTagsSelect, Params: map[string]any{
		"screen": screen, "tags": tags,
	}}
	if err := c.do(ctx, req, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Stacking returns window handles bottom to top.
func (c *Client) Stacking(ctx context.Context) ([]uint32, error) {
	var out []uint32
	if err := c.do(ctx, control.Request{Action: control.ActionStackGet}, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Metrics retrieves the daemon's counter snapshot.
func (c *Client) Metrics(ctx context.Context) (MetricsSnapshot, error) {
	var out MetricsSnapshot
	if err := c.do(ctx, control.Request{Action: control.ActionMetricsGet}, &out); err != nil {
		return MetricsSnapshot{}, err
	}
	return out, nil
}

// Inspect retrieves the daemon's full state dump.
func (c *Client) Inspect(ctx context.Context) (InspectorState, error) {
	var out InspectorState
	if err := c.do(ctx, control.Request{Action: control.ActionInspectorGet}, &out); err != nil {
		return InspectorState{}, err
	}
	return out, nil
}

// Reload asks the daemon to reload its configuration.
func (c *Client) Reload(ctx context.Context) error {
	return c.do(ctx, control.Request{Action: control.ActionReload}, nil)
}

func (c *Client) do(ctx context.Context, req control.Request, out any) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, defaultTimeout)
		defer cancel()
	}
	var d net.Dialer
	conn, err := d.DialContext(ctx, "unix", c.socketPath)
	if err != nil {
		return fmt.Errorf("dial control socket: %w", err)
	}
	defer conn.Close()
	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}
	if err := json.NewEncoder(conn).Encode(req); err != nil {
		return fmt.Errorf("encode request: %w", err)
	}
	var resp control.Response
	if err := json.NewDecoder(conn).Decode(&resp); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	if resp.Status != control.StatusOK {
		if resp.Error == "" {
			resp.Error = "unknown control error"
		}
		return errors.New(resp.Error)
	}
	if out == nil || resp.Data == nil {
		return nil
	}
	data, err := json.Marshal(resp.Data)
	if err != nil {
		return fmt.Errorf("encode payload: %w", err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode payload: %w", err)
	}
	return nil
}
