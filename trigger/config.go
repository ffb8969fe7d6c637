package trigger

import (
	"errors"
	"time"

	"honnef.co/go/ctxmenu/f32"
	"honnef.co/go/ctxmenu/gesture"
	"honnef.co/go/ctxmenu/io/pointer"
)

var (
	ErrMissingID        = errors.New("trigger: missing menu ID")
	ErrMissingCollector = errors.New("trigger: missing collector")
	ErrMissingMenu      = errors.New("trigger: missing menu")
	ErrMissingLoop      = errors.New("trigger: missing loop")
)

// EventHandler is a handler the caller registered on the wrapped element.
type EventHandler func(ev *pointer.Event)

// Attributes are the caller's own handlers for the wrapped element. The
// trigger calls them after doing its own work.
type Attributes struct {
	OnContextMenu EventHandler
	OnMouseDown   EventHandler
	OnClick       EventHandler
	OnTouchStart  EventHandler
	OnTouchMove   EventHandler
	OnTouchEnd    EventHandler
	OnTouchCancel EventHandler
}

type Config struct {
	// ID names the menu this trigger opens.
	ID string
	// Collect gathers the payload passed along with the show request.
	Collect  Collector
	Disabled bool
	// HoldToDisplay is how long a touch has to be held to open the menu. A
	// negative duration disables touch-and-hold. Much shorter durations than
	// the default break native drag and drop on touch devices.
	HoldToDisplay time.Duration
	// Offset is subtracted from the pointer position to get the menu's
	// anchor.
	Offset      f32.Point
	MouseButton pointer.Button
	// DisableIfShiftPressed lets shift+right click reach the platform's own
	// context menu.
	DisableIfShiftPressed bool
	// IgnoreTouchCancel leaves touch cancellation to the platform. Some
	// browsers cancel the touch as soon as a native drag starts.
	IgnoreTouchCancel bool
	// DropStalePayloads discards deferred payloads that resolve after a newer
	// activation started or after the trigger was disposed.
	DropStalePayloads bool
	Attributes        Attributes
}

// DefaultConfig returns the configuration a trigger for menu id starts out
// with.
func DefaultConfig(id string) Config {
	return Config{
		ID:            id,
		Collect:       CollectNothing,
		HoldToDisplay: gesture.DefaultHoldDuration,
		MouseButton:   pointer.ButtonSecondary,
	}
}

func (cfg Config) Validate() error {
	if cfg.ID == "" {
		return ErrMissingID
	}
	if cfg.Collect == nil {
		return ErrMissingCollector
	}
	return nil
}

func call(h EventHandler, ev *pointer.Event) {
	if h != nil {
		h(ev)
	}
}
