// Command ctxmenu-replay feeds a scripted sequence of pointer events to a
// context menu trigger and prints the show and hide requests it makes, one
// JSON object per line.
//
// Time is simulated: wait steps advance a mock clock from one timer deadline
// to the next, so hold timers and delayed payloads fire deterministically and
// are reported at the time they were due.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"honnef.co/go/ctxmenu/loop"
	"honnef.co/go/ctxmenu/trigger"

	"github.com/benbjohnson/clock"
	"github.com/go-json-experiment/json"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

func main() {
	var (
		configPath string
		tracePath  string
		verbose    bool
	)
	flag.StringVar(&configPath, "config", "", "Path to the trigger configuration (TOML)")
	flag.StringVar(&tracePath, "trace", "", "Path to the event trace (YAML)")
	flag.BoolVar(&verbose, "v", false, "Log trigger internals to stderr")
	flag.Parse()

	if configPath == "" || tracePath == "" {
		flag.Usage()
		os.Exit(2)
	}

	logger := zap.NewNop()
	if verbose {
		var err error
		logger, err = zap.NewDevelopment()
		if err != nil {
			log.Fatal(err)
		}
		defer logger.Sync()
	}

	if err := run(context.Background(), configPath, tracePath, os.Stdout, logger); err != nil {
		log.Fatal(err)
	}
}

func run(ctx context.Context, configPath, tracePath string, out io.Writer, logger *zap.Logger) error {
	cfgSrc, err := os.ReadFile(configPath)
	if err != nil {
		return err
	}
	fc, err := parseConfig(string(cfgSrc))
	if err != nil {
		return err
	}
	traceSrc, err := os.ReadFile(tracePath)
	if err != nil {
		return err
	}
	steps, err := parseTrace(traceSrc)
	if err != nil {
		return err
	}
	return replay(ctx, fc, steps, out, logger)
}

func replay(ctx context.Context, fc fileConfig, steps []step, out io.Writer, logger *zap.Logger) error {
	l := loop.New()
	sim := &simulation{
		clock: clock.NewMock(),
		loop:  l,
	}
	sim.sched = loop.NewScheduler(l, sim.clock)
	cfg, err := fc.triggerConfig(sim.sched)
	if err != nil {
		return err
	}

	menu := &jsonMenu{w: out, clock: sim.clock, start: sim.clock.Now()}
	trig, err := trigger.New(cfg, trigger.Env{Menu: menu, Loop: l, Scheduler: sim.sched, Logger: logger})
	if err != nil {
		return err
	}
	elem := fc.Element
	if elem == "" {
		elem = fc.ID
	}
	trig.SetElement(elem)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		err := l.Run(gctx)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})
	g.Go(func() error {
		defer cancel()
		for i, st := range steps {
			if st.WaitMS > 0 {
				if err := sim.advance(gctx, st.wait()); err != nil {
					return err
				}
				continue
			}
			ev, err := st.event()
			if err != nil {
				return fmt.Errorf("step %d: %w", i, err)
			}
			if err := onLoop(gctx, l, func() { trig.HandleEvent(&ev) }); err != nil {
				return err
			}
			if err := sim.settle(gctx); err != nil {
				return err
			}
			logger.Debug("replayed event", zap.Int("step", i), zap.Stringer("kind", ev.Kind))
		}
		var werr error
		if err := onLoop(gctx, l, func() {
			trig.Dispose()
			werr = menu.err
		}); err != nil {
			return err
		}
		return werr
	})
	return g.Wait()
}

// simulation owns the mock clock of a replay.
type simulation struct {
	clock *clock.Mock
	sched *loop.Scheduler
	loop  *loop.Loop
}

// advance moves the clock forward by d, stopping at every timer deadline on
// the way so that each callback observes the time it was scheduled for.
func (sim *simulation) advance(ctx context.Context, d time.Duration) error {
	target := sim.clock.Now().Add(d)
	for {
		next, ok := sim.sched.NextDeadline()
		if !ok || next.After(target) {
			break
		}
		sim.clock.Set(next)
		if err := sim.settle(ctx); err != nil {
			return err
		}
	}
	sim.clock.Set(target)
	return sim.settle(ctx)
}

// settle waits for due timers to queue their callbacks and then until the
// loop has run out of work.
func (sim *simulation) settle(ctx context.Context) error {
	for sim.sched.Overdue() > 0 {
		// The mock clock runs timer callbacks on their own goroutines.
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(100 * time.Microsecond):
		}
	}
	for {
		var queued int
		if err := onLoop(ctx, sim.loop, func() { queued = sim.loop.Queued() }); err != nil {
			return err
		}
		if queued == 0 {
			return nil
		}
	}
}

// onLoop runs f on l and waits for it to finish.
func onLoop(ctx context.Context, l *loop.Loop, f func()) error {
	done := make(chan struct{})
	l.EmitEvent(func() {
		f()
		close(done)
	})
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

type record struct {
	Op      string      `json:"op"`
	AtMS    int64       `json:"at_ms"`
	Request *showRecord `json:"request,omitempty"`
}

type showRecord struct {
	X           float32        `json:"x"`
	Y           float32        `json:"y"`
	HasPosition bool           `json:"has_position"`
	FromTouch   bool           `json:"from_touch"`
	Target      any            `json:"target"`
	ID          string         `json:"id"`
	Data        map[string]any `json:"data"`
}

// jsonMenu writes every request it receives to w. The first write error is
// kept in err and stops further output.
type jsonMenu struct {
	w     io.Writer
	clock clock.Clock
	start time.Time
	err   error
}

func (m *jsonMenu) Show(req trigger.ShowRequest) {
	m.write(record{Op: "show", Request: &showRecord{
		X:           req.Position.X,
		Y:           req.Position.Y,
		HasPosition: req.HasPosition,
		FromTouch:   req.FromTouch,
		Target:      req.Target,
		ID:          req.ID,
		Data:        req.Data,
	}})
}

func (m *jsonMenu) Hide() {
	m.write(record{Op: "hide"})
}

func (m *jsonMenu) write(r record) {
	if m.err != nil {
		return
	}
	r.AtMS = m.clock.Since(m.start).Milliseconds()
	b, err := json.Marshal(r)
	if err != nil {
		m.err = err
		return
	}
	_, m.err = m.w.Write(append(b, '\n'))
}
