package main

import (
	"errors"

	"github.com/BurntSushi/xgb"
	"github.com/BurntSushi/xgb/xproto"
)

// fakeConn is a scripted, in-memory Conn. Queries answer from the
// maps below; requests are recorded for assertions.
type fakeConn struct {
	events chan xgb.Event

	hints     map[xproto.Window]SizeHints
	protos    map[xproto.Window]Protocols
	geoms     map[xproto.Window]Geometry
	states    map[xproto.Window]WmState
	keycodes  map[string][]xproto.Keycode
	existing  []xproto.Window
	gone      map[xproto.Window]bool

	configures   []configureCall
	raised       []xproto.Window
	mapped       []xproto.Window
	focused      []xproto.Window
	deletes      []xproto.Window
	kills        []xproto.Window
	grabbedKeys  []grabbedKey
	pointerGrabs int
	ungrabs      int
	replays      int
	requests     int
}

type configureCall struct {
	win xproto.Window
	g   Geometry
}

type grabbedKey struct {
	code xproto.Keycode
	mods uint16
}

func newFakeConn() *fakeConn {
	return &fakeConn{
		events:   make(chan xgb.Event, 16),
		hints:    make(map[xproto.Window]SizeHints),
		protos:   make(map[xproto.Window]Protocols),
		geoms:    make(map[xproto.Window]Geometry),
		states:   make(map[xproto.Window]WmState),
		keycodes: make(map[string][]xproto.Keycode),
		gone:     make(map[xproto.Window]bool),
	}
}

func (f *fakeConn) WaitForEvent() (xgb.Event, error) {
	ev, ok := <-f.events
	if !ok {
		return nil, nil
	}
	return ev, nil
}

func (f *fakeConn) Close() {}

func (f *fakeConn) BecomeWM() error { return nil }

func (f *fakeConn) RootGeometry() Geometry {
	return Geometry{W: 1920, H: 1080}
}

func (f *fakeConn) ExistingWindows() ([]xproto.Window, error) {
	return f.existing, nil
}

func (f *fakeConn) Attributes(w xproto.Window) (bool, bool, error) {
	if f.gone[w] {
		return false, false, errors.New("no such window")
	}
	return true, false, nil
}

func (f *fakeConn) Geometry(w xproto.Window) (Geometry, error) {
	if f.gone[w] {
		return Geometry{}, errors.New("no such window")
	}
	return f.geoms[w], nil
}

func (f *fakeConn) Configure(w xproto.Window, g Geometry) error {
	f.requests++
	f.configures = append(f.configures, configureCall{w, g})
	return nil
}

func (f *fakeConn) Raise(w xproto.Window) error {
	f.requests++
	f.raised = append(f.raised, w)
	return nil
}

func (f *fakeConn) Map(w xproto.Window) error {
	f.requests++
	f.mapped = append(f.mapped, w)
	return nil
}

func (f *fakeConn) SelectClientEvents(w xproto.Window) error {
	if f.gone[w] {
		return errors.New("no such window")
	}
	f.requests++
	return nil
}

func (f *fakeConn) SetInputFocus(w xproto.Window) error {
	f.requests++
	f.focused = append(f.focused, w)
	return nil
}

func (f *fakeConn) AllowClickThrough() error {
	f.requests++
	f.replays++
	return nil
}

func (f *fakeConn) GrabKey(code xproto.Keycode, mods uint16) error {
	f.requests++
	f.grabbedKeys = append(f.grabbedKeys, grabbedKey{code, mods})
	return nil
}

func (f *fakeConn) GrabButtons(w xproto.Window, modMask uint16) error {
	f.requests++
	return nil
}

func (f *fakeConn) GrabClickToFocus(w xproto.Window) error {
	f.requests++
	return nil
}

func (f *fakeConn) GrabPointer(w xproto.Window) error {
	f.requests++
	f.pointerGrabs++
	return nil
}

func (f *fakeConn) UngrabPointer() error {
	f.requests++
	f.ungrabs++
	return nil
}

func (f *fakeConn) SizeHints(w xproto.Window) (SizeHints, error) {
	return f.hints[w], nil
}

func (f *fakeConn) Protocols(w xproto.Window) (Protocols, error) {
	return f.protos[w], nil
}

func (f *fakeConn) SetWMState(w xproto.Window, s WmState) error {
	f.requests++
	f.states[w] = s
	return nil
}

func (f *fakeConn) WMState(w xproto.Window) (WmState, error) {
	return f.states[w], nil
}

func (f *fakeConn) SendDelete(w xproto.Window) error {
	f.requests++
	f.deletes = append(f.deletes, w)
	return nil
}

func (f *fakeConn) KillClient(w xproto.Window) error {
	f.requests++
	f.kills = append(f.kills, w)
	return nil
}

var fakeAtoms = map[string]xproto.Atom{
	"WM_PROTOCOLS":     300,
	"WM_STATE":         301,
	"WM_DELETE_WINDOW": 302,
	"WM_TAKE_FOCUS":    303,
}

func (f *fakeConn) Atom(name string) xproto.Atom {
	return fakeAtoms[name]
}

func (f *fakeConn) Keycodes(name string) []xproto.Keycode {
	return f.keycodes[name]
}

// lastConfigure returns the most recent configure for a window, or
// nil.
func (f *fakeConn) lastConfigure(w xproto.Window) *configureCall {
	for i := len(f.configures) - 1; i >= 0; i-- {
		if f.configures[i].win == w {
			return &f.configures[i]
		}
	}
	return nil
}
