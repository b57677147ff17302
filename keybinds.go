package main

import (
	"fmt"
	"strconv"

	"github.com/BurntSushi/xgb/xproto"
)

// Grab is one configured key grab and the action it triggers.
type Grab struct {
	action    Action
	modifiers uint16
	codes     []xproto.Keycode
}

// modifierBits is every modifier the X server reports in an event's
// state field. Bits outside this set (pointer buttons) are not
// modifiers and never affect matching.
const modifierBits = xproto.ModMaskShift | xproto.ModMaskLock |
	xproto.ModMaskControl | xproto.ModMask1 | xproto.ModMask2 |
	xproto.ModMask3 | xproto.ModMask4 | xproto.ModMask5

// Keybinds matches (modifier, keycode) pairs against the configured
// action table.
type Keybinds struct {
	grabs []*Grab
}

// NewKeybinds translates the config's keybind table into keycode
// grabs. Keys are keysym names resolved through the Connection, or
// raw keycode numbers. Translation failures are errors: the config
// named a key this keyboard cannot produce.
func NewKeybinds(conn Conn, cfg *Config) (*Keybinds, error) {
	kb := &Keybinds{}
	for key, action := range cfg.Keybinds {
		var codes []xproto.Keycode
		if n, err := strconv.Atoi(key); err == nil {
			if n < 8 || n > 255 {
				return nil, fmt.Errorf("keycode %d out of range", n)
			}
			codes = []xproto.Keycode{xproto.Keycode(n)}
		} else {
			codes = conn.Keycodes(key)
			if len(codes) == 0 {
				return nil, fmt.Errorf("no keycode mapped for key %q", key)
			}
		}
		kb.grabs = append(kb.grabs, &Grab{
			action:    action,
			modifiers: cfg.Mod(),
			codes:     codes,
		})
	}
	return kb, nil
}

// Register grabs every bound keycode on the root window.
func (kb *Keybinds) Register(conn Conn) error {
	for _, g := range kb.grabs {
		for _, code := range g.codes {
			if err := conn.GrabKey(code, g.modifiers); err != nil {
				return err
			}
		}
	}
	return nil
}

// Lookup finds the action for a key press. The event's modifier state
// must equal the grab's modifiers exactly: extra held modifiers do
// not fire the binding.
func (kb *Keybinds) Lookup(state uint16, code xproto.Keycode) (Action, bool) {
	for _, g := range kb.grabs {
		if state&modifierBits != g.modifiers {
			continue
		}
		for _, c := range g.codes {
			if c == code {
				return g.action, true
			}
		}
	}
	return "", false
}
