// Command bench measures the client core under a synthetic workload: manage a
// population of windows, then churn focus, state flags and stacking the way a
// busy session would, and report latency and allocation figures.
package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"math/rand"
	"os"
	"runtime"
	"runtime/pprof"
	"sort"
	"time"

	"github.com/charmbracelet/log"

	"github.com/loftwm/loftwm/internal/core"
	"github.com/loftwm/loftwm/internal/deco"
	"github.com/loftwm/loftwm/internal/display"
	"github.com/loftwm/loftwm/internal/geometry"
	"github.com/loftwm/loftwm/internal/hooks"
	"github.com/loftwm/loftwm/internal/screens"
	"github.com/loftwm/loftwm/internal/tags"
)

type sinkConn struct {
	commands int
}

func (s *sinkConn) note() { s.commands++ }

func (s *sinkConn) Map(display.Window)                            { s.note() }
func (s *sinkConn) Unmap(display.Window)                          { s.note() }
func (s *sinkConn) Configure(display.Window, geometry.Rect)       { s.note() }
func (s *sinkConn) SetBorderWidth(display.Window, int)            { s.note() }
func (s *sinkConn) StackAbove(win, sibling display.Window)        { s.note() }
func (s *sinkConn) SetInputFocus(display.Window)                  { s.note() }
func (s *sinkConn) SetWMState(display.Window, display.WMState)    { s.note() }
func (s *sinkConn) SetActiveWindow(int, display.Window)           { s.note() }
func (s *sinkConn) SetUrgency(display.Window, bool)               { s.note() }
func (s *sinkConn) SendCloseRequest(display.Window)               { s.note() }
func (s *sinkConn) SendTakeFocus(display.Window)                  { s.note() }
func (s *sinkConn) Kill(display.Window)                           { s.note() }
func (s *sinkConn) GrabButtons(display.Window, []display.Binding) { s.note() }
func (s *sinkConn) GrabKeys(display.Window, []display.Binding)    { s.note() }

func (s *sinkConn) QueryHints(display.Window) (geometry.SizeHints, error) {
	return geometry.SizeHints{}, errors.New("no server")
}

func (s *sinkConn) QueryTransientFor(display.Window) (display.Window, error) {
	return display.None, errors.New("no server")
}

func (s *sinkConn) QueryProtocols(display.Window) ([]string, error) {
	return nil, errors.New("no server")
}

func (s *sinkConn) QueryTextProperty(display.Window, string) (string, error) {
	return "", errors.New("no server")
}

type latencyStats struct {
	Min    float64 `json:"minUs"`
	Mean   float64 `json:"meanUs"`
	Median float64 `json:"medianUs"`
	P95    float64 `json:"p95Us"`
	Max    float64 `json:"maxUs"`
}

type benchSummary struct {
	Clients        int          `json:"clients"`
	Iterations     int          `json:"iterations"`
	ManageTotalMs  float64      `json:"manageTotalMs"`
	ManagePerWinUs float64      `json:"managePerWindowUs"`
	Iteration      latencyStats `json:"iteration"`
	Commands       int          `json:"serverCommands"`
	Restacks       int          `json:"restackFlushes"`
	AllocsTotal    uint64       `json:"allocsTotal"`
	AllocsPerIter  float64      `json:"allocsPerIteration"`
	BytesTotal     uint64       `json:"bytesTotal"`
}

func main() {
	clients := flag.Int("clients", 200, "number of synthetic clients")
	iterations := flag.Int("iterations", 500, "workload iterations")
	seed := flag.Int64("seed", 1, "workload RNG seed")
	cpuProfile := flag.String("cpuprofile", "", "write a CPU profile to this file")
	flag.Parse()

	if *clients < 1 || *iterations < 1 {
		fmt.Fprintln(os.Stderr, "error: -clients and -iterations must be positive")
		os.Exit(2)
	}

	logger := log.New(io.Discard)
	conn := &sinkConn{}
	list := screens.NewList(&screens.Screen{
		ID:       0,
		Name:     "bench",
		Geometry: geometry.Rect{Width: 2560, Height: 1440},
		Root:     1,
	})
	set := tags.NewSet([]string{"1", "2", "3"}, []int{0})
	co := core.New(logger, conn, hooks.NewBus(), list, set, deco.BorderFrame{}, core.Options{
		BorderWidth: 1,
		HonorHints:  true,
	})

	if *cpuProfile != "" {
		f, err := os.Create(*cpuProfile)
		if err != nil {
			exitErr(err)
		}
		defer f.Close()
		if err := pprof.StartCPUProfile(f); err != nil {
			exitErr(err)
		}
		defer pprof.StopCPUProfile()
	}

	managed := make([]*core.Client, 0, *clients)
	manageStart := time.Now()
	for i := 0; i < *clients; i++ {
		win := display.Window(i + 10)
		c, err := co.Manage(core.ManageArgs{
			Win:      win,
			Geometry: geometry.Rect{X: (i * 40) % 1600, Y: (i * 30) % 900, Width: 400, Height: 300},
			Class:    fmt.Sprintf("bench-%d", i%8),
		})
		if err != nil {
			exitErr(err)
		}
		if err := set.Assign(win, "1", 0); err != nil {
			exitErr(err)
		}
		managed = append(managed, c)
	}
	co.SyncVisibility()
	co.FlushRestack()
	manageTotal := time.Since(manageStart)

	rng := rand.New(rand.NewSource(*seed))
	var memBefore runtime.MemStats
	runtime.ReadMemStats(&memBefore)

	restacks := 0
	latencies := make([]time.Duration, 0, *iterations)
	for i := 0; i < *iterations; i++ {
		start := time.Now()
		c := managed[rng.Intn(len(managed))]
		switch i % 5 {
		case 0:
			_ = co.SetFullscreen(c, !c.Fullscreen())
		case 1:
			_ = co.SetOnTop(c, !c.OnTop())
		case 2:
			_ = co.Raise(c)
		case 3:
			_ = co.Focus(c)
		case 4:
			_, _ = co.Resize(c, geometry.Rect{
				X: rng.Intn(1600), Y: rng.Intn(900), Width: 300 + rng.Intn(600), Height: 200 + rng.Intn(500),
			}, false)
		}
		co.SyncVisibility()
		if co.StackDirty() {
			co.FlushRestack()
			restacks++
		}
		latencies = append(latencies, time.Since(start))
	}

	var memAfter runtime.MemStats
	runtime.ReadMemStats(&memAfter)

	summary := benchSummary{
		Clients:        *clients,
		Iterations:     *iterations,
		ManageTotalMs:  float64(manageTotal.Microseconds()) / 1000,
		ManagePerWinUs: float64(manageTotal.Microseconds()) / float64(*clients),
		Iteration:      computeLatency(latencies),
		Commands:       conn.commands,
		Restacks:       restacks,
		AllocsTotal:    memAfter.Mallocs - memBefore.Mallocs,
		AllocsPerIter:  float64(memAfter.Mallocs-memBefore.Mallocs) / float64(*iterations),
		BytesTotal:     memAfter.TotalAlloc - memBefore.TotalAlloc,
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(summary); err != nil {
		exitErr(err)
	}
}

func computeLatency(samples []time.Duration) latencyStats {
	sorted := append([]time.Duration(nil), samples...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	us := func(d time.Duration) float64 { return float64(d.Nanoseconds()) / 1000 }
	var total time.Duration
	for _, d := range sorted {
		total += d
	}
	idx := func(q float64) int {
		i := int(q * float64(len(sorted)-1))
		return i
	}
	return latencyStats{
		Min:    us(sorted[0]),
		Mean:   us(total) / float64(len(sorted)),
		Median: us(sorted[idx(0.5)]),
		P95:    us(sorted[idx(0.95)]),
		Max:    us(sorted[len(sorted)-1]),
	}
}

func exitErr(err error) {
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	os.Exit(1)
}
