package control

import (
	"errors"
	"os"
	"path/filepath"

	"github.com/loftwm/loftwm/internal/core"
	"github.com/loftwm/loftwm/internal/metrics"
)

// SocketFileName is the filename of the control socket within the runtime dir.
const SocketFileName = "control.sock"

// Action names a control protocol operation.
type Action string

const (
	ActionClientsList  Action = "clients.list"
	ActionClientGet    Action = "client.get"
	ActionClientSet    Action = "client.set"
	ActionClientResize Action = "client.resize"
	ActionClientBorder Action = "client.border"
	ActionClientFocus  Action = "client.focus"
	ActionClientClose  Action = "client.close"
	ActionClientRaise  Action = "client.raise"
	ActionClientLower  Action = "client.lower"
	ActionClientSwap   Action = "client.swap"
	ActionClientTags   Action = "client.tags"
	ActionTagsList     Action = "tags.list"
	ActionTagsSelect   Action = "tags.select"
	ActionStackGet     Action = "stack.get"
	ActionMetricsGet   Action = "metrics.get"
	ActionInspectorGet Action = "inspector.get"
	ActionReload       Action = "reload"
)

// Response statuses.
const (
	StatusOK    = "ok"
	StatusError = "error"
)

// Request represents a control API request.
type Request struct {
	Action Action         `json:"action"`
	Params map[string]any `json:"params,omitempty"`
}

// Response represents a control API response.
type Response struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
	Data   any    `json:"data,omitempty"`
}

// TagState describes one tag on one screen.
type TagState struct {
	Name     string   `json:"name"`
	Screen   int      `json:"screen"`
	Selected bool     `json:"selected"`
	Clients  []uint32 `json:"clients,omitempty"`
}

// ScreenState describes one output.
type ScreenState struct {
	ID     int    `json:"id"`
	Name   string `json:"name,omitempty"`
	X      int    `json:"x"`
	Y      int    `json:"y"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

// InspectorSnapshot is the full daemon state dump served to loftctl.
type InspectorSnapshot struct {
	Clients  []core.ClientInfo `json:"clients"`
	Stacking []uint32          `json:"stacking"`
	Tags     []TagState        `json:"tags"`
	Screens  []ScreenState     `json:"screens"`
	Metrics  metrics.Snapshot  `json:"metrics"`
}

// DefaultSocketPath returns the expected location of the loftwm control socket.
func DefaultSocketPath() (string, error) {
	if env := os.Getenv("LOFT_CONTROL_SOCKET"); env != "" {
		return env, nil
	}
	runtimeDir := os.Getenv("XDG_RUNTIME_DIR")
	base := runtimeDir
	if base == "" {
		base = os.TempDir()
		if base == "" {
			return "", errors.New("no runtime directory available")
		}
	}
	return filepath.Join(base, "loft", SocketFileName), nil
}
