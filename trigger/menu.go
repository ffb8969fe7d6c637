package trigger

import "honnef.co/go/ctxmenu/f32"

// ShowRequest asks the menu layer to open menu ID.
type ShowRequest struct {
	// Position is the menu's anchor, with the trigger's offset already
	// applied. It is the zero point if HasPosition is false.
	Position    f32.Point
	HasPosition bool
	FromTouch   bool
	// Target is the trigger's own element.
	Target any
	ID     string
	// Data is the collected payload. Data[TargetKey] is the element the
	// activating event was dispatched to, which may be a descendant of
	// Target.
	Data Data
}

// Menu is the layer that actually displays menus.
type Menu interface {
	Show(req ShowRequest)
	Hide()
}

// MenuFuncs adapts a pair of functions to Menu. Nil functions are skipped.
type MenuFuncs struct {
	OnShow func(req ShowRequest)
	OnHide func()
}

func (m MenuFuncs) Show(req ShowRequest) {
	if m.OnShow != nil {
		m.OnShow(req)
	}
}

func (m MenuFuncs) Hide() {
	if m.OnHide != nil {
		m.OnHide()
	}
}
