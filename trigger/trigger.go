package trigger

import (
	"fmt"

	"honnef.co/go/ctxmenu/gesture"
	"honnef.co/go/ctxmenu/io/pointer"
	"honnef.co/go/ctxmenu/loop"
	"honnef.co/go/ctxmenu/widget"

	"github.com/benbjohnson/clock"
	"go.uber.org/zap"
)

var _ widget.State[Config] = (*Trigger)(nil)

// Env is what a trigger needs from its surroundings.
type Env struct {
	Menu Menu
	// Loop is the loop all of the trigger's handlers are called on.
	Loop *loop.Loop
	// Clock drives the hold timer. It defaults to the wall clock.
	Clock clock.Clock
	// Scheduler starts the hold timer, if set. It must deliver to Loop. Clock
	// is ignored when Scheduler is set.
	Scheduler *loop.Scheduler
	Logger    *zap.Logger
}

// Trigger is the state of an element that opens a context menu on secondary
// click or touch-and-hold.
//
// All methods must be called from the loop.
type Trigger struct {
	cfg    Config
	menu   Menu
	loop   *loop.Loop
	logger *zap.Logger
	hold   gesture.HoldRecognizer
	elem   any

	// generation counts activations, so that deferred payloads can tell
	// whether they have been superseded.
	generation uint64
	pending    *Future
	disposed   bool
}

// New validates cfg and returns a mounted trigger.
func New(cfg Config, env Env) (*Trigger, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("creating trigger: %w", err)
	}
	if env.Menu == nil {
		return nil, fmt.Errorf("creating trigger %q: %w", cfg.ID, ErrMissingMenu)
	}
	if env.Loop == nil {
		return nil, fmt.Errorf("creating trigger %q: %w", cfg.ID, ErrMissingLoop)
	}
	logger := env.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	sched := env.Scheduler
	if sched == nil {
		sched = loop.NewScheduler(env.Loop, env.Clock)
	}

	t := &Trigger{
		cfg:    cfg,
		menu:   env.Menu,
		loop:   env.Loop,
		logger: logger,
	}
	t.hold = gesture.HoldRecognizer{
		Scheduler: sched,
		Duration:  cfg.HoldToDisplay,
		OnHold: func(ev pointer.Event) bool {
			return t.activate(&ev)
		},
		Logger: logger,
	}
	widget.Mount[Config](t)
	return t, nil
}

func (t *Trigger) Config() Config { return t.cfg }

// SetElement records the element the trigger is attached to. It is reported
// as the target of show requests.
func (t *Trigger) SetElement(elem any) { t.elem = elem }

// Element returns the element set with SetElement.
func (t *Trigger) Element() any { return t.elem }

// Update replaces the trigger's configuration.
func (t *Trigger) Update(cfg Config) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("updating trigger %q: %w", t.cfg.ID, err)
	}
	old := t.cfg
	t.cfg = cfg
	t.Transition(widget.StateTransition[Config]{Kind: widget.StateUpdatedWidget, OldWidget: old})
	return nil
}

// Dispose tears the trigger down. A pending hold never fires afterwards.
func (t *Trigger) Dispose() {
	widget.Unmount[Config](t)
}

// Transition implements widget.State.
func (t *Trigger) Transition(tr widget.StateTransition[Config]) {
	switch tr.Kind {
	case widget.StateUpdatedWidget:
		t.hold.Duration = t.cfg.HoldToDisplay
		if t.cfg.HoldToDisplay < 0 {
			t.hold.Cancel()
		}
	case widget.StateDeactivating:
		t.hold.Cancel()
	case widget.StateDisposing:
		t.hold.Cancel()
		t.generation++
		t.disposed = true
		if t.cfg.DropStalePayloads {
			t.dropPending()
		}
	}
}

// HandleEvent dispatches ev to the handler for its kind.
func (t *Trigger) HandleEvent(ev *pointer.Event) {
	switch ev.Kind {
	case pointer.ContextMenu:
		t.HandleContextMenu(ev)
	case pointer.MouseDown:
		t.HandleMouseDown(ev)
	case pointer.Click:
		t.HandleClick(ev)
	case pointer.TouchStart:
		t.HandleTouchStart(ev)
	case pointer.TouchMove:
		t.HandleTouchMove(ev)
	case pointer.TouchEnd:
		t.HandleTouchEnd(ev)
	case pointer.TouchCancel:
		t.HandleTouchCancel(ev)
	}
}

func (t *Trigger) HandleContextMenu(ev *pointer.Event) {
	if t.disposed {
		return
	}
	if ev.Button == t.cfg.MouseButton {
		t.activate(ev)
	}
	call(t.cfg.Attributes.OnContextMenu, ev)
}

func (t *Trigger) HandleMouseDown(ev *pointer.Event) {
	if t.disposed {
		return
	}
	if t.hold.Handled() {
		// Replayed mouse input for a touch that already opened the menu.
		ev.PreventDefault()
		ev.StopImmediatePropagation()
		return
	}
	call(t.cfg.Attributes.OnMouseDown, ev)
}

func (t *Trigger) HandleClick(ev *pointer.Event) {
	if t.disposed {
		return
	}
	if ev.Button == t.cfg.MouseButton {
		t.activate(ev)
	}
	call(t.cfg.Attributes.OnClick, ev)
}

func (t *Trigger) HandleTouchStart(ev *pointer.Event) {
	if t.disposed {
		return
	}
	t.hold.HandleTouchStart(ev)
	call(t.cfg.Attributes.OnTouchStart, ev)
}

func (t *Trigger) HandleTouchMove(ev *pointer.Event) {
	if t.disposed {
		return
	}
	if t.hold.HandleTouchMove(ev) == gesture.OutcomeHide {
		t.menu.Hide()
	}
	call(t.cfg.Attributes.OnTouchMove, ev)
}

func (t *Trigger) HandleTouchCancel(ev *pointer.Event) {
	if t.disposed {
		return
	}
	if !t.cfg.IgnoreTouchCancel && t.hold.HandleTouchCancel(ev) == gesture.OutcomeHide {
		t.menu.Hide()
	}
	call(t.cfg.Attributes.OnTouchCancel, ev)
}

func (t *Trigger) HandleTouchEnd(ev *pointer.Event) {
	if t.disposed {
		return
	}
	t.hold.HandleTouchEnd(ev)
	call(t.cfg.Attributes.OnTouchEnd, ev)
}

// activate opens the menu in response to ev. It reports whether it did
// anything.
func (t *Trigger) activate(ev *pointer.Event) bool {
	cfg := t.cfg
	if cfg.Disabled {
		return false
	}
	if cfg.DisableIfShiftPressed && ev.Shift() {
		return false
	}

	ev.PreventDefault()
	ev.StopPropagation()

	pos, ok := Anchor(ev, cfg.Offset)

	// Only one menu may be open, and a menu that gets reopened has to start
	// from a clean slate.
	t.menu.Hide()

	t.generation++
	req := ShowRequest{
		Position:    pos,
		HasPosition: ok,
		FromTouch:   ev.IsTouch(),
		Target:      t.elem,
		ID:          cfg.ID,
	}
	target := ev.Target
	payload := cfg.Collect(cfg)
	if cfg.DropStalePayloads && t.pending != payload.Future() {
		t.dropPending()
	}
	if !payload.IsDeferred() {
		req.Data = merge(payload.Value(), target)
		t.menu.Show(req)
		return true
	}

	if cfg.DropStalePayloads {
		t.pending = payload.Future()
	}
	gen := t.generation
	payload.Future().Then(func(d Data) {
		t.loop.EmitEvent(func() {
			if cfg.DropStalePayloads && gen != t.generation {
				t.logger.Debug("dropping superseded payload", zap.String("menu", cfg.ID))
				return
			}
			if t.pending == payload.Future() {
				t.pending = nil
			}
			req.Data = merge(d, target)
			t.menu.Show(req)
		})
	})
	return true
}

func (t *Trigger) dropPending() {
	if t.pending != nil && t.pending.Cancel() {
		t.logger.Debug("canceled superseded payload", zap.String("menu", t.cfg.ID))
	}
	t.pending = nil
}
