package trigger

import (
	"honnef.co/go/ctxmenu/f32"
	"honnef.co/go/ctxmenu/io/pointer"
)

// Anchor returns where a menu opened by ev should be anchored. The pointer
// position is preferred over the first touch point. ok is false if the event
// carries neither.
func Anchor(ev *pointer.Event, offset f32.Point) (pos f32.Point, ok bool) {
	switch {
	case ev.HasPosition:
		pos, ok = ev.Position, true
	case len(ev.Touches) > 0:
		pos, ok = ev.Touches[0].Position, true
	default:
		return f32.Point{}, false
	}
	if offset.X != 0 {
		pos.X -= offset.X
	}
	if offset.Y != 0 {
		pos.Y -= offset.Y
	}
	return pos, ok
}
