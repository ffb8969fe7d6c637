package pointer

import (
	"fmt"
	"slices"
	"time"

	"honnef.co/go/ctxmenu/f32"

	"gioui.org/io/key"
	giopointer "gioui.org/io/pointer"
)

// Event is a single mouse or touch input event as seen by an element.
//
// Mouse events carry Position; touch events carry Touches instead. Handlers
// signal what should happen to the event after them through PreventDefault,
// StopPropagation and StopImmediatePropagation, which the host inspects once
// dispatch to the element is done.
type Event struct {
	Kind   Kind
	Source Source
	Time   time.Duration
	// Button is the button whose state changed, for mouse events.
	Button  Button
	Buttons giopointer.Buttons
	// Position is only meaningful when HasPosition is set.
	Position    f32.Point
	HasPosition bool
	// Touches lists the fingers currently on the surface, in the order they
	// went down, so Touches[0] is the first finger. It is empty for TouchEnd
	// of the last finger and for TouchCancel.
	Touches   []Touch
	Modifiers key.Modifiers
	// Target is the element the event was originally dispatched to. It may be
	// a descendant of the element handling the event.
	Target any

	defaultPrevented   bool
	propagationStopped bool
	immediateStopped   bool
}

type Touch struct {
	ID       giopointer.ID
	Position f32.Point
}

func (ev *Event) PreventDefault() { ev.defaultPrevented = true }

func (ev *Event) StopPropagation() { ev.propagationStopped = true }

func (ev *Event) DefaultPrevented() bool { return ev.defaultPrevented }

func (ev *Event) PropagationStopped() bool { return ev.propagationStopped }

// StopImmediatePropagation stops propagation and additionally keeps any other
// listener registered on the same native target, such as a document-level
// "click outside" handler, from seeing the event.
func (ev *Event) StopImmediatePropagation() {
	ev.propagationStopped = true
	ev.immediateStopped = true
}

func (ev *Event) ImmediatePropagationStopped() bool { return ev.immediateStopped }

// Shift reports whether the shift modifier was held.
func (ev *Event) Shift() bool {
	return ev.Modifiers.Contain(key.ModShift)
}

// IsTouch reports whether the event originated from a touch stream.
func (ev *Event) IsTouch() bool {
	return ev.Source == SourceTouch
}

// Copy returns a copy of ev with its own touch list and fresh dispositions,
// suitable for retaining past the end of the handler.
func (ev Event) Copy() Event {
	ev.Touches = append([]Touch(nil), ev.Touches...)
	ev.defaultPrevented = false
	ev.propagationStopped = false
	ev.immediateStopped = false
	return ev
}

type Kind uint8

const (
	MouseDown Kind = 1 << iota
	Click
	ContextMenu
	TouchStart
	TouchMove
	TouchEnd
	TouchCancel
)

func (k Kind) String() string {
	switch k {
	case MouseDown:
		return "mousedown"
	case Click:
		return "click"
	case ContextMenu:
		return "contextmenu"
	case TouchStart:
		return "touchstart"
	case TouchMove:
		return "touchmove"
	case TouchEnd:
		return "touchend"
	case TouchCancel:
		return "touchcancel"
	default:
		return fmt.Sprintf("Kind(%#x)", uint8(k))
	}
}

// ParseKind is the inverse of Kind.String.
func ParseKind(s string) (Kind, error) {
	for k := MouseDown; k <= TouchCancel; k <<= 1 {
		if k.String() == s {
			return k, nil
		}
	}
	return 0, fmt.Errorf("unknown event kind %q", s)
}

type Source uint8

const (
	SourceMouse Source = iota
	SourceTouch
)

// Button identifies a single mouse button. The numbering follows the DOM's
// MouseEvent.button.
type Button uint8

const (
	// ButtonPrimary is the primary button, usually the left button for a
	// right-handed user.
	ButtonPrimary Button = iota
	// ButtonAuxiliary is usually the middle button.
	ButtonAuxiliary
	// ButtonSecondary is the secondary button, usually the right button for a
	// right-handed user.
	ButtonSecondary
)

func (b Button) String() string {
	switch b {
	case ButtonPrimary:
		return "primary"
	case ButtonAuxiliary:
		return "auxiliary"
	case ButtonSecondary:
		return "secondary"
	default:
		return fmt.Sprintf("Button(%d)", uint8(b))
	}
}

// Translator turns raw Gio pointer events into element events. It remembers
// which buttons were held so that it can tell which one a press or release
// was about, and which fingers are down so that every touch event lists all
// of them.
type Translator struct {
	buttons giopointer.Buttons
	// touches are the fingers on the surface, in the order they went down.
	touches []Touch
}

// Translate converts ev into zero or more events targeting target. A
// secondary-button press produces a MouseDown followed by a ContextMenu event.
// Only releasing the primary button produces a Click.
func (tr *Translator) Translate(ev giopointer.Event, target any) []Event {
	base := Event{
		Source:    SourceMouse,
		Time:      ev.Time,
		Buttons:   ev.Buttons,
		Modifiers: ev.Modifiers,
		Target:    target,
	}
	if ev.Source == giopointer.Touch {
		base.Source = SourceTouch
		i := tr.touchIndex(ev.PointerID)
		switch ev.Kind {
		case giopointer.Press:
			base.Kind = TouchStart
			if i < 0 {
				tr.touches = append(tr.touches, Touch{ID: ev.PointerID})
				i = len(tr.touches) - 1
			}
			tr.touches[i].Position = ev.Position
		case giopointer.Move:
			if i < 0 {
				return nil
			}
			base.Kind = TouchMove
			tr.touches[i].Position = ev.Position
		case giopointer.Release:
			base.Kind = TouchEnd
			if i >= 0 {
				tr.touches = slices.Delete(tr.touches, i, i+1)
			}
		case giopointer.Cancel:
			// Gio cancels all pointers at once.
			base.Kind = TouchCancel
			tr.touches = tr.touches[:0]
		default:
			return nil
		}
		base.Touches = append([]Touch(nil), tr.touches...)
		return []Event{base}
	}

	base.Position = ev.Position
	base.HasPosition = true
	changed := tr.buttons ^ ev.Buttons
	if changed == 0 {
		changed = ev.Buttons
	}
	base.Button = buttonOf(changed)
	switch ev.Kind {
	case giopointer.Press:
		tr.buttons = ev.Buttons
		down := base
		down.Kind = MouseDown
		if base.Button != ButtonSecondary {
			return []Event{down}
		}
		menu := base
		menu.Kind = ContextMenu
		return []Event{down, menu}
	case giopointer.Release:
		tr.buttons = ev.Buttons
		if base.Button != ButtonPrimary {
			return nil
		}
		base.Kind = Click
		return []Event{base}
	case giopointer.Cancel:
		tr.buttons = 0
		return nil
	default:
		return nil
	}
}

func (tr *Translator) touchIndex(id giopointer.ID) int {
	return slices.IndexFunc(tr.touches, func(t Touch) bool { return t.ID == id })
}

func buttonOf(b giopointer.Buttons) Button {
	switch {
	case b.Contain(giopointer.ButtonSecondary):
		return ButtonSecondary
	case b.Contain(giopointer.ButtonTertiary):
		return ButtonAuxiliary
	default:
		return ButtonPrimary
	}
}
