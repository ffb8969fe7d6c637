package main

import (
	"fmt"
	"time"

	"honnef.co/go/ctxmenu/f32"
	"honnef.co/go/ctxmenu/io/pointer"

	"gioui.org/io/key"
	"gopkg.in/yaml.v3"
)

// step is one entry of a trace. It is either an event or a wait.
type step struct {
	Kind    string      `yaml:"kind"`
	X       *float32    `yaml:"x"`
	Y       *float32    `yaml:"y"`
	Touches [][]float32 `yaml:"touches"`
	Button  *uint8      `yaml:"button"`
	Shift   bool        `yaml:"shift"`
	Target  string      `yaml:"target"`
	WaitMS  int64       `yaml:"wait_ms"`
}

func parseTrace(src []byte) ([]step, error) {
	var steps []step
	if err := yaml.Unmarshal(src, &steps); err != nil {
		return nil, fmt.Errorf("parsing trace: %w", err)
	}
	for i, st := range steps {
		if st.Kind == "" && st.WaitMS <= 0 {
			return nil, fmt.Errorf("parsing trace: step %d has neither kind nor wait_ms", i)
		}
		if st.Kind != "" && st.WaitMS != 0 {
			return nil, fmt.Errorf("parsing trace: step %d has both kind and wait_ms", i)
		}
	}
	return steps, nil
}

func (st step) wait() time.Duration {
	return time.Duration(st.WaitMS) * time.Millisecond
}

func (st step) event() (pointer.Event, error) {
	kind, err := pointer.ParseKind(st.Kind)
	if err != nil {
		return pointer.Event{}, err
	}
	ev := pointer.Event{Kind: kind, Target: st.Target}
	if st.Shift {
		ev.Modifiers = key.ModShift
	}

	hasXY := st.X != nil && st.Y != nil
	var xy f32.Point
	if hasXY {
		xy = f32.Pt(*st.X, *st.Y)
	}

	switch kind {
	case pointer.TouchStart, pointer.TouchMove, pointer.TouchEnd, pointer.TouchCancel:
		ev.Source = pointer.SourceTouch
		for _, t := range st.Touches {
			if len(t) != 2 {
				return pointer.Event{}, fmt.Errorf("touch point %v is not an x, y pair", t)
			}
			ev.Touches = append(ev.Touches, pointer.Touch{Position: f32.Pt(t[0], t[1])})
		}
		if len(ev.Touches) == 0 && hasXY {
			ev.Touches = []pointer.Touch{{Position: xy}}
		}
	default:
		ev.Source = pointer.SourceMouse
		ev.Position = xy
		ev.HasPosition = hasXY
		switch {
		case st.Button != nil:
			ev.Button = pointer.Button(*st.Button)
		case kind == pointer.ContextMenu:
			ev.Button = pointer.ButtonSecondary
		default:
			ev.Button = pointer.ButtonPrimary
		}
	}
	return ev, nil
}
