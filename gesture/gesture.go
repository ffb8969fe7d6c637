package gesture

/*
   Touch-and-hold on the web and on mobile toolkits

   A long press has to coexist with two things the platform does on its own. First, native drag and drop on
   touch devices is itself recognized by holding a finger still; if our hold duration is shorter than the
   platform's, we fire first and the drag never starts. The default of one second stays clear of the native
   windows we know about. Second, after a touch sequence ends, platforms commonly replay synthetic mouse
   events (mousedown, click) at the touch position for the benefit of mouse-only content. Once a hold has
   opened a menu, those replays must not be treated as fresh input, or they would close the menu again.

   Fingers are not perfectly still. We allow a fixed amount of slack, measured as the largest per-axis
   displacement from the initial touch, before deciding that the finger is really moving. A real move before
   the timer fires abandons the hold. A real move after it has fired means the user is dragging away from the
   menu that just opened, and the menu is dismissed.

   The recognizer never runs concurrently with itself. Timer callbacks are delivered through the event loop,
   and a callback that was already queued when the timer got canceled is recognized as stale by comparing
   generations.
*/

import (
	"time"

	"honnef.co/go/ctxmenu/f32"
	"honnef.co/go/ctxmenu/io/pointer"
	"honnef.co/go/ctxmenu/loop"

	"go.uber.org/zap"
)

// Slack is the largest per-axis displacement, in pixels, that still counts as holding still.
// XXX use logical pixels instead of physical pixels for slack
const Slack = 16

const DefaultHoldDuration = 1000 * time.Millisecond

type Scheduler interface {
	AfterFunc(d time.Duration, f func()) loop.Timer
}

// Outcome is what a touch event did to the recognizer's state.
type Outcome uint8

const (
	// OutcomeNone means the event didn't change anything.
	OutcomeNone Outcome = iota
	// OutcomeCancel means a pending hold was abandoned.
	OutcomeCancel
	// OutcomeTrigger means the hold completed. It is only ever reported to
	// OnHold's caller, never returned from a touch handler.
	OutcomeTrigger
	// OutcomeHide means a menu opened by this hold should be dismissed.
	OutcomeHide
)

func (o Outcome) String() string {
	switch o {
	case OutcomeNone:
		return "none"
	case OutcomeCancel:
		return "cancel"
	case OutcomeTrigger:
		return "trigger"
	case OutcomeHide:
		return "hide"
	default:
		return "invalid"
	}
}

type HoldRecognizer struct {
	Scheduler Scheduler
	// Duration is how long a touch has to be held. A negative duration
	// disables holding.
	Duration time.Duration
	// OnHold is called on the loop when the hold completes, with a copy of the
	// touch start event. It reports whether it acted on the hold; only then
	// does the touch sequence count as handled.
	OnHold func(ev pointer.Event) bool
	Logger *zap.Logger

	handled    bool
	dismissed  bool
	started    bool
	start      f32.Point
	timer      loop.Timer
	generation int
}

// Handled reports whether a hold completed during the current touch sequence.
// It stays set until the next touch starts.
func (h *HoldRecognizer) Handled() bool {
	return h.handled
}

// Pending reports whether a hold timer is outstanding.
func (h *HoldRecognizer) Pending() bool {
	return h.timer != nil
}

func (h *HoldRecognizer) HandleTouchStart(ev *pointer.Event) Outcome {
	h.handled = false
	h.dismissed = false
	if h.Duration < 0 {
		return OutcomeNone
	}
	ev.StopPropagation()

	h.Cancel()
	h.started = len(ev.Touches) > 0
	if h.started {
		h.start = ev.Touches[0].Position
	}
	held := ev.Copy()
	gen := h.generation
	h.timer = h.Scheduler.AfterFunc(h.Duration, func() {
		if gen != h.generation || h.timer == nil {
			return
		}
		h.timer = nil
		h.logger().Debug("hold completed", zap.Duration("duration", h.Duration))
		if h.OnHold != nil && h.OnHold(held) {
			h.handled = true
		}
	})
	h.logger().Debug("hold armed", zap.Duration("duration", h.Duration))
	return OutcomeNone
}

func (h *HoldRecognizer) HandleTouchMove(ev *pointer.Event) Outcome {
	if !h.isRealMove(ev) {
		return OutcomeNone
	}
	if h.handled {
		return h.hide()
	}
	if h.Cancel() {
		return OutcomeCancel
	}
	return OutcomeNone
}

func (h *HoldRecognizer) HandleTouchCancel(ev *pointer.Event) Outcome {
	if h.handled {
		return h.hide()
	}
	if h.Cancel() {
		return OutcomeCancel
	}
	return OutcomeNone
}

func (h *HoldRecognizer) HandleTouchEnd(ev *pointer.Event) Outcome {
	if h.handled {
		// Whatever the platform replays after this is suppressed by the owner
		// as long as Handled reports true.
		return OutcomeNone
	}
	if h.Cancel() {
		return OutcomeCancel
	}
	return OutcomeNone
}

// Cancel stops a pending hold. It reports whether there was one. Calling
// Cancel without a pending hold is a no-op.
func (h *HoldRecognizer) Cancel() bool {
	h.generation++
	if h.timer == nil {
		return false
	}
	h.timer.Stop()
	h.timer = nil
	h.logger().Debug("hold canceled")
	return true
}

func (h *HoldRecognizer) isRealMove(ev *pointer.Event) bool {
	if !h.started || len(ev.Touches) == 0 {
		return true
	}
	return f32.Chebyshev(ev.Touches[0].Position.Sub(h.start)) > Slack
}

func (h *HoldRecognizer) hide() Outcome {
	if h.dismissed {
		return OutcomeNone
	}
	h.dismissed = true
	return OutcomeHide
}

func (h *HoldRecognizer) logger() *zap.Logger {
	if h.Logger == nil {
		return zap.NewNop()
	}
	return h.Logger
}
