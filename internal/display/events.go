package display

import (
	"bufio"
	"context"
	"fmt"
	"net"
	"strings"

	"github.com/charmbracelet/log"
)

// Event is one entry from the display server event stream. Payload fields
// are comma separated; the engine owns their interpretation.
type Event struct {
	Kind    string
	Payload string
}

// Event kinds emitted by the server.
const (
	EventCreate        = "create"         // win,x,y,w,h,border,class,kind
	EventDestroy       = "destroy"        // win
	EventUnmapNotify   = "unmap"          // win
	EventConfigureReq  = "configure"      // win,x,y,w,h
	EventHintsChanged  = "hints"          // win
	EventTransient     = "transient"      // win,parent
	EventUrgent        = "urgent"         // win,0|1
	EventFocusRequest  = "focus_request"  // win
	EventCloseRequest  = "close_request"  // win
	EventScreenChanged = "screen_changed" // screen,x,y,w,h
)

// Subscribe connects to the event socket and streams events until the
// context is cancelled or the server hangs up (channel close).
func Subscribe(ctx context.Context, logger *log.Logger) (<-chan Event, error) {
	path, err := eventSocketPath()
	if err != nil {
		return nil, err
	}
	conn, err := net.Dial("unix", path)
	if err != nil {
		return nil, fmt.Errorf("connect event socket: %w", err)
	}
	events := make(chan Event)
	go func() {
		defer close(events)
		defer conn.Close()
		scanner := bufio.NewScanner(conn)
		for scanner.Scan() {
			parts := strings.SplitN(scanner.Text(), ">>", 2)
			ev := Event{Kind: parts[0]}
			if len(parts) == 2 {
				ev.Payload = parts[1]
			}
			select {
			case events <- ev:
			case <-ctx.Done():
				return
			}
		}
		if err := scanner.Err(); err != nil {
			logger.Warn("event stream error", "err", err)
		}
	}()
	return events, nil
}
