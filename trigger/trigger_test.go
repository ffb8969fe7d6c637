package trigger

import (
	"errors"
	"testing"
	"time"

	"honnef.co/go/ctxmenu/f32"
	"honnef.co/go/ctxmenu/io/pointer"
	"honnef.co/go/ctxmenu/loop"

	"gioui.org/io/key"
	"github.com/benbjohnson/clock"
	"github.com/google/go-cmp/cmp"
)

const (
	wrapper = "wrapper"
	child   = "child"
)

type recordingMenu struct {
	ops   []string
	shows []ShowRequest
}

func (m *recordingMenu) Show(req ShowRequest) {
	m.ops = append(m.ops, "show")
	m.shows = append(m.shows, req)
}

func (m *recordingMenu) Hide() {
	m.ops = append(m.ops, "hide")
}

type harness struct {
	t     *testing.T
	trig  *Trigger
	menu  *recordingMenu
	loop  *loop.Loop
	clock *clock.Mock
}

func newHarness(t *testing.T, cfg Config) *harness {
	t.Helper()
	h := &harness{
		t:     t,
		menu:  &recordingMenu{},
		loop:  loop.New(),
		clock: clock.NewMock(),
	}
	trig, err := New(cfg, Env{Menu: h.menu, Loop: h.loop, Clock: h.clock})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	trig.SetElement(wrapper)
	h.trig = trig
	return h
}

// elapse advances the clock by d and runs the callbacks that become due.
// want is the number of callbacks that should be delivered.
func (h *harness) elapse(d time.Duration, want int) {
	h.t.Helper()
	h.clock.Add(d)
	for i := 0; i < want; i++ {
		if !h.loop.RunOne(time.Second) {
			h.t.Fatalf("callback %d of %d was not delivered", i+1, want)
		}
	}
	if h.loop.RunOne(20 * time.Millisecond) {
		h.t.Fatal("unexpected callback delivered")
	}
}

func (h *harness) wantOps(ops ...string) {
	h.t.Helper()
	if diff := cmp.Diff(ops, h.menu.ops); diff != "" {
		h.t.Fatalf("menu ops mismatch (-want +got):\n%s", diff)
	}
}

func touchAt(kind pointer.Kind, x, y float32) *pointer.Event {
	return &pointer.Event{
		Kind:    kind,
		Source:  pointer.SourceTouch,
		Touches: []pointer.Touch{{Position: f32.Pt(x, y)}},
		Target:  child,
	}
}

func lifted(kind pointer.Kind) *pointer.Event {
	return &pointer.Event{Kind: kind, Source: pointer.SourceTouch, Target: child}
}

func mouseAt(kind pointer.Kind, button pointer.Button, x, y float32) *pointer.Event {
	return &pointer.Event{
		Kind:        kind,
		Source:      pointer.SourceMouse,
		Button:      button,
		Position:    f32.Pt(x, y),
		HasPosition: true,
		Target:      child,
	}
}

func TestTouchHoldOpensMenu(t *testing.T) {
	cfg := DefaultConfig("files")
	cfg.Offset = f32.Pt(10, 5)
	h := newHarness(t, cfg)

	h.trig.HandleEvent(touchAt(pointer.TouchStart, 100, 100))
	h.wantOps()
	h.elapse(999*time.Millisecond, 0)
	h.wantOps()
	h.elapse(time.Millisecond, 1)
	h.wantOps("hide", "show")

	want := ShowRequest{
		Position:    f32.Pt(90, 95),
		HasPosition: true,
		FromTouch:   true,
		Target:      wrapper,
		ID:          "files",
		Data:        Data{TargetKey: child},
	}
	if diff := cmp.Diff(want, h.menu.shows[0]); diff != "" {
		t.Fatalf("show request mismatch (-want +got):\n%s", diff)
	}
}

func TestTouchJitterStillOpens(t *testing.T) {
	h := newHarness(t, DefaultConfig("files"))

	h.trig.HandleEvent(touchAt(pointer.TouchStart, 100, 100))
	h.trig.HandleEvent(touchAt(pointer.TouchMove, 116, 84))
	h.elapse(time.Second, 1)
	h.wantOps("hide", "show")
}

func TestTouchMoveCancelsHold(t *testing.T) {
	h := newHarness(t, DefaultConfig("files"))

	h.trig.HandleEvent(touchAt(pointer.TouchStart, 100, 100))
	h.trig.HandleEvent(touchAt(pointer.TouchMove, 100, 117))
	h.elapse(2*time.Second, 0)
	h.wantOps()
}

func TestTouchEndCancelsHold(t *testing.T) {
	h := newHarness(t, DefaultConfig("files"))

	h.trig.HandleEvent(touchAt(pointer.TouchStart, 100, 100))
	h.trig.HandleEvent(lifted(pointer.TouchEnd))
	h.elapse(2*time.Second, 0)
	h.wantOps()
}

func TestMoveAfterHoldHidesOnce(t *testing.T) {
	h := newHarness(t, DefaultConfig("files"))

	h.trig.HandleEvent(touchAt(pointer.TouchStart, 100, 100))
	h.elapse(time.Second, 1)
	h.trig.HandleEvent(touchAt(pointer.TouchMove, 140, 100))
	h.trig.HandleEvent(touchAt(pointer.TouchMove, 180, 100))
	h.trig.HandleEvent(lifted(pointer.TouchEnd))
	h.wantOps("hide", "show", "hide")
}

func TestTouchCancelAfterHoldHides(t *testing.T) {
	h := newHarness(t, DefaultConfig("files"))

	h.trig.HandleEvent(touchAt(pointer.TouchStart, 100, 100))
	h.elapse(time.Second, 1)
	h.trig.HandleEvent(lifted(pointer.TouchCancel))
	h.wantOps("hide", "show", "hide")
}

func TestIgnoreTouchCancel(t *testing.T) {
	cfg := DefaultConfig("files")
	cfg.IgnoreTouchCancel = true
	var seen int
	cfg.Attributes.OnTouchCancel = func(*pointer.Event) { seen++ }
	h := newHarness(t, cfg)

	h.trig.HandleEvent(touchAt(pointer.TouchStart, 100, 100))
	h.trig.HandleEvent(lifted(pointer.TouchCancel))
	h.elapse(time.Second, 1)
	h.trig.HandleEvent(lifted(pointer.TouchCancel))
	h.wantOps("hide", "show")
	if seen != 2 {
		t.Fatalf("caller saw %d touch cancels, want 2", seen)
	}
}

func TestCallerTouchHandlers(t *testing.T) {
	tests := []struct {
		name string
		run  func(h *harness)
		want []pointer.Kind
		ops  []string
	}{
		{
			name: "start arms hold",
			run: func(h *harness) {
				h.trig.HandleEvent(touchAt(pointer.TouchStart, 100, 100))
				if !h.trig.hold.Pending() {
					h.t.Fatal("hold not armed")
				}
			},
			want: []pointer.Kind{pointer.TouchStart},
		},
		{
			name: "move within slack",
			run: func(h *harness) {
				h.trig.HandleEvent(touchAt(pointer.TouchStart, 100, 100))
				h.trig.HandleEvent(touchAt(pointer.TouchMove, 110, 90))
			},
			want: []pointer.Kind{pointer.TouchStart, pointer.TouchMove},
		},
		{
			name: "move beyond slack",
			run: func(h *harness) {
				h.trig.HandleEvent(touchAt(pointer.TouchStart, 100, 100))
				h.trig.HandleEvent(touchAt(pointer.TouchMove, 130, 100))
			},
			want: []pointer.Kind{pointer.TouchStart, pointer.TouchMove},
		},
		{
			name: "end before hold",
			run: func(h *harness) {
				h.trig.HandleEvent(touchAt(pointer.TouchStart, 100, 100))
				h.trig.HandleEvent(lifted(pointer.TouchEnd))
				h.elapse(time.Second, 0)
			},
			want: []pointer.Kind{pointer.TouchStart, pointer.TouchEnd},
		},
		{
			name: "end after hold",
			run: func(h *harness) {
				h.trig.HandleEvent(touchAt(pointer.TouchStart, 100, 100))
				h.elapse(time.Second, 1)
				h.trig.HandleEvent(lifted(pointer.TouchEnd))
			},
			want: []pointer.Kind{pointer.TouchStart, pointer.TouchEnd},
			ops:  []string{"hide", "show"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig("files")
			var seen []pointer.Kind
			record := func(ev *pointer.Event) { seen = append(seen, ev.Kind) }
			cfg.Attributes.OnTouchStart = record
			cfg.Attributes.OnTouchMove = record
			cfg.Attributes.OnTouchEnd = record
			h := newHarness(t, cfg)

			tt.run(h)
			if diff := cmp.Diff(tt.want, seen); diff != "" {
				t.Fatalf("caller handlers mismatch (-want +got):\n%s", diff)
			}
			h.wantOps(tt.ops...)
		})
	}
}

func TestNegativeHoldDisablesTouch(t *testing.T) {
	cfg := DefaultConfig("files")
	cfg.HoldToDisplay = -1
	h := newHarness(t, cfg)

	ev := touchAt(pointer.TouchStart, 100, 100)
	h.trig.HandleEvent(ev)
	if ev.PropagationStopped() {
		t.Error("touch start propagation stopped with holding disabled")
	}
	h.elapse(5*time.Second, 0)
	h.wantOps()
}

func TestContextMenuOpensMenu(t *testing.T) {
	cfg := DefaultConfig("files")
	cfg.Offset = f32.Pt(0, 3)
	var seen []pointer.Kind
	cfg.Attributes.OnContextMenu = func(ev *pointer.Event) { seen = append(seen, ev.Kind) }
	h := newHarness(t, cfg)

	ev := mouseAt(pointer.ContextMenu, pointer.ButtonSecondary, 40, 50)
	h.trig.HandleEvent(ev)
	h.wantOps("hide", "show")
	if !ev.DefaultPrevented() || !ev.PropagationStopped() {
		t.Error("activating event not suppressed")
	}
	want := ShowRequest{
		Position:    f32.Pt(40, 47),
		HasPosition: true,
		Target:      wrapper,
		ID:          "files",
		Data:        Data{TargetKey: child},
	}
	if diff := cmp.Diff(want, h.menu.shows[0]); diff != "" {
		t.Fatalf("show request mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]pointer.Kind{pointer.ContextMenu}, seen); diff != "" {
		t.Fatalf("caller handler mismatch (-want +got):\n%s", diff)
	}
}

func TestOtherButtonsIgnored(t *testing.T) {
	cfg := DefaultConfig("files")
	var clicks int
	cfg.Attributes.OnClick = func(*pointer.Event) { clicks++ }
	h := newHarness(t, cfg)

	ev := mouseAt(pointer.Click, pointer.ButtonPrimary, 1, 1)
	h.trig.HandleEvent(ev)
	h.trig.HandleEvent(mouseAt(pointer.ContextMenu, pointer.ButtonAuxiliary, 1, 1))
	h.wantOps()
	if ev.DefaultPrevented() {
		t.Error("ignored click had its default prevented")
	}
	if clicks != 1 {
		t.Fatalf("caller saw %d clicks, want 1", clicks)
	}
}

func TestPrimaryButtonClick(t *testing.T) {
	cfg := DefaultConfig("files")
	cfg.MouseButton = pointer.ButtonPrimary
	h := newHarness(t, cfg)

	h.trig.HandleEvent(mouseAt(pointer.Click, pointer.ButtonPrimary, 1, 1))
	h.wantOps("hide", "show")
}

func TestDisabled(t *testing.T) {
	cfg := DefaultConfig("files")
	cfg.Disabled = true
	collected := false
	cfg.Collect = func(Config) Payload {
		collected = true
		return Immediate(nil)
	}
	h := newHarness(t, cfg)

	ev := mouseAt(pointer.ContextMenu, pointer.ButtonSecondary, 1, 1)
	h.trig.HandleEvent(ev)
	if ev.DefaultPrevented() || ev.PropagationStopped() {
		t.Error("disabled trigger suppressed the event")
	}

	h.trig.HandleEvent(touchAt(pointer.TouchStart, 100, 100))
	h.elapse(time.Second, 1)
	h.trig.HandleEvent(touchAt(pointer.TouchMove, 200, 100))
	h.wantOps()
	if collected {
		t.Error("collector called for disabled trigger")
	}
}

func TestShiftSuppression(t *testing.T) {
	cfg := DefaultConfig("files")
	cfg.DisableIfShiftPressed = true
	h := newHarness(t, cfg)

	ev := mouseAt(pointer.ContextMenu, pointer.ButtonSecondary, 1, 1)
	ev.Modifiers = key.ModShift
	h.trig.HandleEvent(ev)
	h.wantOps()
	if ev.DefaultPrevented() {
		t.Error("shift-suppressed event had its default prevented")
	}

	h.trig.HandleEvent(mouseAt(pointer.ContextMenu, pointer.ButtonSecondary, 1, 1))
	h.wantOps("hide", "show")
}

func TestMouseDownSuppressedAfterHold(t *testing.T) {
	cfg := DefaultConfig("files")
	var downs int
	cfg.Attributes.OnMouseDown = func(*pointer.Event) { downs++ }
	h := newHarness(t, cfg)

	before := mouseAt(pointer.MouseDown, pointer.ButtonPrimary, 1, 1)
	h.trig.HandleEvent(before)
	if before.DefaultPrevented() || downs != 1 {
		t.Fatal("ordinary mousedown was interfered with")
	}

	h.trig.HandleEvent(touchAt(pointer.TouchStart, 100, 100))
	h.elapse(time.Second, 1)
	h.trig.HandleEvent(lifted(pointer.TouchEnd))

	replay := mouseAt(pointer.MouseDown, pointer.ButtonPrimary, 100, 100)
	h.trig.HandleEvent(replay)
	if !replay.DefaultPrevented() || !replay.PropagationStopped() || !replay.ImmediatePropagationStopped() {
		t.Error("replayed mousedown not suppressed")
	}
	if downs != 1 {
		t.Error("replayed mousedown reached the caller")
	}
	h.wantOps("hide", "show")

	// A new touch sequence clears the suppression.
	h.trig.HandleEvent(touchAt(pointer.TouchStart, 100, 100))
	h.trig.HandleEvent(lifted(pointer.TouchEnd))
	h.trig.HandleEvent(mouseAt(pointer.MouseDown, pointer.ButtonPrimary, 100, 100))
	if downs != 2 {
		t.Error("mousedown still suppressed after a new touch")
	}
}

func TestImmediatePayload(t *testing.T) {
	cfg := DefaultConfig("files")
	var got Config
	cfg.Collect = func(c Config) Payload {
		got = c
		return Immediate(Data{"bar": 2})
	}
	h := newHarness(t, cfg)

	h.trig.HandleEvent(mouseAt(pointer.ContextMenu, pointer.ButtonSecondary, 1, 1))
	h.wantOps("hide", "show")
	if diff := cmp.Diff(Data{"bar": 2, TargetKey: child}, h.menu.shows[0].Data); diff != "" {
		t.Fatalf("payload mismatch (-want +got):\n%s", diff)
	}
	if got.ID != "files" {
		t.Errorf("collector saw config for %q", got.ID)
	}
}

func TestDeferredPayload(t *testing.T) {
	cfg := DefaultConfig("files")
	f, resolve := NewFuture()
	cfg.Collect = func(Config) Payload { return Deferred(f) }
	h := newHarness(t, cfg)

	h.trig.HandleEvent(mouseAt(pointer.ContextMenu, pointer.ButtonSecondary, 1, 1))
	h.wantOps("hide")
	if h.loop.Drain() != 0 {
		t.Fatal("callback queued before resolution")
	}

	go resolve(Data{"foo": 1})
	if !h.loop.RunOne(time.Second) {
		t.Fatal("resolution not delivered")
	}
	h.wantOps("hide", "show")
	if diff := cmp.Diff(Data{"foo": 1, TargetKey: child}, h.menu.shows[0].Data); diff != "" {
		t.Fatalf("payload mismatch (-want +got):\n%s", diff)
	}
}

func TestUnresolvedPayloadNeverShows(t *testing.T) {
	cfg := DefaultConfig("files")
	cfg.Collect = func(Config) Payload {
		f, _ := NewFuture()
		return Deferred(f)
	}
	h := newHarness(t, cfg)

	h.trig.HandleEvent(mouseAt(pointer.ContextMenu, pointer.ButtonSecondary, 1, 1))
	h.elapse(time.Hour, 0)
	h.wantOps("hide")
}

func TestSupersededPayloads(t *testing.T) {
	for _, drop := range []bool{false, true} {
		cfg := DefaultConfig("files")
		cfg.DropStalePayloads = drop
		var resolvers []func(Data)
		cfg.Collect = func(Config) Payload {
			f, resolve := NewFuture()
			resolvers = append(resolvers, resolve)
			return Deferred(f)
		}
		h := newHarness(t, cfg)

		h.trig.HandleEvent(mouseAt(pointer.ContextMenu, pointer.ButtonSecondary, 1, 1))
		h.trig.HandleEvent(mouseAt(pointer.ContextMenu, pointer.ButtonSecondary, 2, 2))
		resolvers[1](Data{"n": 2})
		resolvers[0](Data{"n": 1})
		h.loop.Drain()

		var got []any
		for _, req := range h.menu.shows {
			got = append(got, req.Data["n"])
		}
		want := []any{2, 1}
		if drop {
			want = []any{2}
		}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Fatalf("drop=%t: shown payloads mismatch (-want +got):\n%s", drop, diff)
		}
	}
}

func TestImmediateSupersedesPending(t *testing.T) {
	cfg := DefaultConfig("files")
	cfg.DropStalePayloads = true
	f, resolve := NewFuture()
	calls := 0
	cfg.Collect = func(Config) Payload {
		calls++
		if calls == 1 {
			return Deferred(f)
		}
		return Immediate(Data{"n": 2})
	}
	h := newHarness(t, cfg)

	h.trig.HandleEvent(mouseAt(pointer.ContextMenu, pointer.ButtonSecondary, 1, 1))
	h.trig.HandleEvent(mouseAt(pointer.ContextMenu, pointer.ButtonSecondary, 2, 2))
	if f.Cancel() {
		t.Fatal("superseded future was still pending")
	}
	resolve(Data{"n": 1})
	h.loop.Drain()

	h.wantOps("hide", "hide", "show")
	if got := h.menu.shows[0].Data["n"]; got != 2 {
		t.Fatalf("shown payload %v, want 2", got)
	}
}

func TestDisposeCancelsHold(t *testing.T) {
	h := newHarness(t, DefaultConfig("files"))

	h.trig.HandleEvent(touchAt(pointer.TouchStart, 100, 100))
	h.trig.Dispose()
	h.elapse(2*time.Second, 0)
	h.wantOps()

	h.trig.HandleEvent(mouseAt(pointer.ContextMenu, pointer.ButtonSecondary, 1, 1))
	h.wantOps()
}

func TestUpdate(t *testing.T) {
	h := newHarness(t, DefaultConfig("files"))

	h.trig.HandleEvent(touchAt(pointer.TouchStart, 100, 100))
	cfg := DefaultConfig("files")
	cfg.HoldToDisplay = -1
	if err := h.trig.Update(cfg); err != nil {
		t.Fatalf("Update: %v", err)
	}
	h.elapse(2*time.Second, 0)
	h.wantOps()

	if err := h.trig.Update(Config{}); !errors.Is(err, ErrMissingID) {
		t.Fatalf("Update with empty config = %v, want ErrMissingID", err)
	}
	if h.trig.Config().HoldToDisplay != -1 {
		t.Fatal("failed update replaced the config")
	}

	cfg = DefaultConfig("other")
	cfg.HoldToDisplay = 500 * time.Millisecond
	if err := h.trig.Update(cfg); err != nil {
		t.Fatalf("Update: %v", err)
	}
	h.trig.HandleEvent(touchAt(pointer.TouchStart, 100, 100))
	h.elapse(500*time.Millisecond, 1)
	h.wantOps("hide", "show")
	if h.menu.shows[0].ID != "other" {
		t.Fatalf("show for %q, want other", h.menu.shows[0].ID)
	}
}

func TestNewValidates(t *testing.T) {
	l := loop.New()
	menu := &recordingMenu{}
	tests := []struct {
		name string
		cfg  Config
		env  Env
		want error
	}{
		{"id", DefaultConfig(""), Env{Menu: menu, Loop: l}, ErrMissingID},
		{"collector", Config{ID: "x"}, Env{Menu: menu, Loop: l}, ErrMissingCollector},
		{"menu", DefaultConfig("x"), Env{Loop: l}, ErrMissingMenu},
		{"loop", DefaultConfig("x"), Env{Menu: menu}, ErrMissingLoop},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := New(tt.cfg, tt.env); !errors.Is(err, tt.want) {
				t.Fatalf("New = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestMenuFuncs(t *testing.T) {
	var hides, shows int
	m := MenuFuncs{
		OnShow: func(ShowRequest) { shows++ },
		OnHide: func() { hides++ },
	}
	m.Hide()
	m.Show(ShowRequest{})
	MenuFuncs{}.Hide()
	if hides != 1 || shows != 1 {
		t.Fatalf("hides=%d shows=%d", hides, shows)
	}
}
