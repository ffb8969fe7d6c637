package main

import (
	"fmt"
	"maps"
	"time"

	"honnef.co/go/ctxmenu/f32"
	"honnef.co/go/ctxmenu/io/pointer"
	"honnef.co/go/ctxmenu/loop"
	"honnef.co/go/ctxmenu/trigger"

	"github.com/BurntSushi/toml"
)

// fileConfig is the TOML form of a trigger configuration. Offsets are floats;
// write them as 10.0, not 10.
type fileConfig struct {
	ID                    string        `toml:"id"`
	Element               string        `toml:"element"`
	Disabled              bool          `toml:"disabled"`
	HoldToDisplayMS       *int64        `toml:"hold_to_display_ms"`
	OffsetX               float64       `toml:"offset_x"`
	OffsetY               float64       `toml:"offset_y"`
	MouseButton           *int64        `toml:"mouse_button"`
	DisableIfShiftPressed bool          `toml:"disable_if_shift_pressed"`
	IgnoreTouchCancel     bool          `toml:"ignore_touch_cancel"`
	DropStalePayloads     bool          `toml:"drop_stale_payloads"`
	Collect               collectConfig `toml:"collect"`
}

type collectConfig struct {
	Data map[string]any `toml:"data"`
	// Deferred makes the collector return an already resolved future.
	Deferred bool `toml:"deferred"`
	// DelayMS makes the collector return a future that resolves on the loop
	// after the given time on the replay clock.
	DelayMS int64 `toml:"delay_ms"`
}

func parseConfig(src string) (fileConfig, error) {
	var fc fileConfig
	md, err := toml.Decode(src, &fc)
	if err != nil {
		return fileConfig{}, fmt.Errorf("parsing trigger config: %w", err)
	}
	if undec := md.Undecoded(); len(undec) > 0 {
		return fileConfig{}, fmt.Errorf("parsing trigger config: unknown key %q", undec[0].String())
	}
	return fc, nil
}

func (fc fileConfig) triggerConfig(sched *loop.Scheduler) (trigger.Config, error) {
	cfg := trigger.DefaultConfig(fc.ID)
	cfg.Disabled = fc.Disabled
	if fc.HoldToDisplayMS != nil {
		cfg.HoldToDisplay = time.Duration(*fc.HoldToDisplayMS) * time.Millisecond
	}
	cfg.Offset = f32.Pt(float32(fc.OffsetX), float32(fc.OffsetY))
	if fc.MouseButton != nil {
		b := *fc.MouseButton
		if b < 0 || b > int64(pointer.ButtonSecondary) {
			return trigger.Config{}, fmt.Errorf("mouse_button %d out of range", b)
		}
		cfg.MouseButton = pointer.Button(b)
	}
	cfg.DisableIfShiftPressed = fc.DisableIfShiftPressed
	cfg.IgnoreTouchCancel = fc.IgnoreTouchCancel
	cfg.DropStalePayloads = fc.DropStalePayloads
	cfg.Collect = fc.Collect.collector(sched)
	if err := cfg.Validate(); err != nil {
		return trigger.Config{}, err
	}
	return cfg, nil
}

func (cc collectConfig) collector(sched *loop.Scheduler) trigger.Collector {
	return func(trigger.Config) trigger.Payload {
		data := trigger.Data(maps.Clone(cc.Data))
		switch {
		case cc.DelayMS > 0:
			f, resolve := trigger.NewFuture()
			sched.AfterFunc(time.Duration(cc.DelayMS)*time.Millisecond, func() { resolve(data) })
			return trigger.Deferred(f)
		case cc.Deferred:
			return trigger.Deferred(trigger.Resolved(data))
		default:
			return trigger.Immediate(data)
		}
	}
}
