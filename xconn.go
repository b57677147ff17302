package main

import (
	"fmt"

	"github.com/BurntSushi/xgb"
	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil"
	"github.com/BurntSushi/xgbutil/icccm"
	"github.com/BurntSushi/xgbutil/keybind"
)

// Conn is the capability the window management core needs from the
// X11 transport. The real implementation is xConn below; tests use an
// in-memory fake. Requests are fire-and-forget from the core's point
// of view: replies, if any, arrive as later events.
type Conn interface {
	// WaitForEvent blocks for the next event. It returns (nil, nil)
	// when the connection has been closed.
	WaitForEvent() (xgb.Event, error)
	Close()

	// BecomeWM acquires the substructure-redirect privilege on the
	// root window. Fails if another window manager is running.
	BecomeWM() error
	RootGeometry() Geometry
	ExistingWindows() ([]xproto.Window, error)
	// Attributes reports whether a window is viewable and whether it
	// has override-redirect set.
	Attributes(w xproto.Window) (viewable, overrideRedirect bool, err error)

	Geometry(w xproto.Window) (Geometry, error)
	Configure(w xproto.Window, g Geometry) error
	Raise(w xproto.Window) error
	Map(w xproto.Window) error
	// SelectClientEvents registers for the notify/property events we
	// track on a managed window.
	SelectClientEvents(w xproto.Window) error
	SetInputFocus(w xproto.Window) error
	// AllowClickThrough releases a synchronously-grabbed click back
	// to the client, so that the click which assigned focus is not
	// swallowed.
	AllowClickThrough() error

	GrabKey(code xproto.Keycode, mods uint16) error
	// GrabButtons grabs mod+button1/button3 on a client window for
	// drag initiation.
	GrabButtons(w xproto.Window, modMask uint16) error
	// GrabClickToFocus installs the synchronous any-click grab used
	// by the click focus model.
	GrabClickToFocus(w xproto.Window) error
	GrabPointer(w xproto.Window) error
	UngrabPointer() error

	SizeHints(w xproto.Window) (SizeHints, error)
	Protocols(w xproto.Window) (Protocols, error)
	SetWMState(w xproto.Window, s WmState) error
	WMState(w xproto.Window) (WmState, error)
	// SendDelete asks a client to close itself via WM_DELETE_WINDOW.
	SendDelete(w xproto.Window) error
	// KillClient force-terminates the client owning the window.
	KillClient(w xproto.Window) error

	// Atom interns (or returns a cached) atom by name.
	Atom(name string) xproto.Atom
	// Keycodes resolves a keysym name ("q", "F4", ...) to the
	// keycodes currently mapped to it.
	Keycodes(name string) []xproto.Keycode
}

// xConn implements Conn on top of xgb, with xgbutil supplying the
// ICCCM property codecs and keysym tables.
type xConn struct {
	xu    *xgbutil.XUtil
	xc    *xgb.Conn
	root  xproto.Window
	// screen is the root geometry at connect time.
	screen Geometry
	atoms  map[string]xproto.Atom
}

// Connect dials the X server named by DISPLAY.
func Connect() (*xConn, error) {
	xu, err := xgbutil.NewConn()
	if err != nil {
		return nil, err
	}
	keybind.Initialize(xu)
	scr := xu.Screen()
	return &xConn{
		xu:   xu,
		xc:   xu.Conn(),
		root: xu.RootWin(),
		screen: Geometry{
			W: scr.WidthInPixels,
			H: scr.HeightInPixels,
		},
		atoms: make(map[string]xproto.Atom),
	}, nil
}

func (x *xConn) WaitForEvent() (xgb.Event, error) {
	ev, xerr := x.xc.WaitForEvent()
	if xerr != nil {
		return nil, xerr
	}
	return ev, nil
}

func (x *xConn) Close() {
	x.xc.Close()
}

func (x *xConn) BecomeWM() error {
	err := xproto.ChangeWindowAttributesChecked(
		x.xc,
		x.root,
		xproto.CwEventMask,
		[]uint32{
			xproto.EventMaskSubstructureRedirect |
				xproto.EventMaskSubstructureNotify,
		},
	).Check()
	if _, ok := err.(xproto.AccessError); ok {
		return errorAnotherWM
	}
	return err
}

func (x *xConn) RootGeometry() Geometry {
	return x.screen
}

func (x *xConn) ExistingWindows() ([]xproto.Window, error) {
	tree, err := xproto.QueryTree(x.xc, x.root).Reply()
	if err != nil {
		return nil, err
	}
	// Children come back in stacking order, bottom to top.
	return tree.Children, nil
}

func (x *xConn) Attributes(w xproto.Window) (bool, bool, error) {
	attr, err := xproto.GetWindowAttributes(x.xc, w).Reply()
	if err != nil {
		return false, false, err
	}
	return attr.MapState == xproto.MapStateViewable, attr.OverrideRedirect, nil
}

func (x *xConn) Geometry(w xproto.Window) (Geometry, error) {
	geom, err := xproto.GetGeometry(x.xc, xproto.Drawable(w)).Reply()
	if err != nil {
		return Geometry{}, err
	}
	return Geometry{X: geom.X, Y: geom.Y, W: geom.Width, H: geom.Height}, nil
}

func (x *xConn) Configure(w xproto.Window, g Geometry) error {
	return xproto.ConfigureWindowChecked(
		x.xc,
		w,
		xproto.ConfigWindowX|xproto.ConfigWindowY|
			xproto.ConfigWindowWidth|xproto.ConfigWindowHeight,
		[]uint32{
			uint32(uint16(g.X)), uint32(uint16(g.Y)),
			uint32(g.W), uint32(g.H),
		},
	).Check()
}

func (x *xConn) Raise(w xproto.Window) error {
	return xproto.ConfigureWindowChecked(
		x.xc,
		w,
		xproto.ConfigWindowStackMode,
		[]uint32{xproto.StackModeAbove},
	).Check()
}

func (x *xConn) Map(w xproto.Window) error {
	return xproto.MapWindowChecked(x.xc, w).Check()
}

func (x *xConn) SelectClientEvents(w xproto.Window) error {
	return xproto.ChangeWindowAttributesChecked(
		x.xc,
		w,
		xproto.CwEventMask,
		[]uint32{
			xproto.EventMaskStructureNotify |
				xproto.EventMaskEnterWindow |
				xproto.EventMaskPropertyChange,
		},
	).Check()
}

func (x *xConn) SetInputFocus(w xproto.Window) error {
	if w == xproto.WindowNone {
		// No client left to focus; fall back to the root.
		w = x.root
	}
	return xproto.SetInputFocusChecked(
		x.xc,
		xproto.InputFocusPointerRoot,
		w,
		xproto.TimeCurrentTime,
	).Check()
}

func (x *xConn) AllowClickThrough() error {
	return xproto.AllowEventsChecked(
		x.xc,
		xproto.AllowReplayPointer,
		xproto.TimeCurrentTime,
	).Check()
}

func (x *xConn) GrabKey(code xproto.Keycode, mods uint16) error {
	return xproto.GrabKeyChecked(
		x.xc,
		false,
		x.root,
		mods,
		code,
		xproto.GrabModeAsync,
		xproto.GrabModeAsync,
	).Check()
}

func (x *xConn) GrabButtons(w xproto.Window, modMask uint16) error {
	for _, button := range []byte{1, 3} {
		if err := xproto.GrabButtonChecked(
			x.xc,
			false,
			w,
			xproto.EventMaskButtonPress|
				xproto.EventMaskButtonRelease|
				xproto.EventMaskPointerMotion,
			xproto.GrabModeAsync,
			xproto.GrabModeAsync,
			xproto.WindowNone,
			xproto.CursorNone,
			button,
			modMask,
		).Check(); err != nil {
			return err
		}
	}
	return nil
}

func (x *xConn) GrabClickToFocus(w xproto.Window) error {
	// Synchronous grab: the pointer freezes until the dispatch loop
	// decides to replay the click to the client. Modifiers must be 0,
	// not AnyModifier: AnyModifier covers every combination and would
	// replace the async mod+button drag grabs on the same window.
	return xproto.GrabButtonChecked(
		x.xc,
		true,
		w,
		xproto.EventMaskButtonPress,
		xproto.GrabModeSync,
		xproto.GrabModeSync,
		xproto.WindowNone,
		xproto.CursorNone,
		xproto.ButtonIndexAny,
		0,
	).Check()
}

func (x *xConn) GrabPointer(w xproto.Window) error {
	reply, err := xproto.GrabPointer(
		x.xc,
		false,
		x.root,
		xproto.EventMaskButtonRelease|
			xproto.EventMaskButtonMotion|
			xproto.EventMaskPointerMotion,
		xproto.GrabModeAsync,
		xproto.GrabModeAsync,
		x.root,
		xproto.CursorNone,
		xproto.TimeCurrentTime,
	).Reply()
	if err != nil {
		return err
	}
	if reply.Status != xproto.GrabStatusSuccess {
		return fmt.Errorf("pointer grab failed with status %d", reply.Status)
	}
	return nil
}

func (x *xConn) UngrabPointer() error {
	return xproto.UngrabPointerChecked(x.xc, xproto.TimeCurrentTime).Check()
}

func (x *xConn) SizeHints(w xproto.Window) (SizeHints, error) {
	nh, err := icccm.WmNormalHintsGet(x.xu, w)
	if err != nil {
		// Absent hints mean unconstrained, not an error.
		return SizeHints{}, nil
	}
	var hints SizeHints
	if nh.Flags&icccm.SizeHintPMinSize != 0 {
		hints.MinW = int(nh.MinWidth)
		hints.MinH = int(nh.MinHeight)
	}
	if nh.Flags&icccm.SizeHintPMaxSize != 0 {
		hints.MaxW = int(nh.MaxWidth)
		hints.MaxH = int(nh.MaxHeight)
	}
	if nh.Flags&icccm.SizeHintPResizeInc != 0 {
		hints.IncW = int(nh.WidthInc)
		hints.IncH = int(nh.HeightInc)
	}
	if nh.Flags&icccm.SizeHintPBaseSize != 0 {
		hints.BaseW = int(nh.BaseWidth)
		hints.BaseH = int(nh.BaseHeight)
	}
	return hints, nil
}

func (x *xConn) Protocols(w xproto.Window) (Protocols, error) {
	names, err := icccm.WmProtocolsGet(x.xu, w)
	if err != nil {
		// No WM_PROTOCOLS property: the client supports nothing.
		return Protocols{}, nil
	}
	var p Protocols
	for _, name := range names {
		switch name {
		case "WM_DELETE_WINDOW":
			p.DeleteWindow = true
		case "WM_TAKE_FOCUS":
			p.TakeFocus = true
		}
	}
	return p, nil
}

func (x *xConn) SetWMState(w xproto.Window, s WmState) error {
	return icccm.WmStateSet(x.xu, w, &icccm.WmState{
		State: uint(s),
		Icon:  xproto.WindowNone,
	})
}

func (x *xConn) WMState(w xproto.Window) (WmState, error) {
	s, err := icccm.WmStateGet(x.xu, w)
	if err != nil {
		return StateWithdrawn, err
	}
	return WmState(s.State), nil
}

func (x *xConn) SendDelete(w xproto.Window) error {
	// ICCCM 4.2.8 ClientMessage.
	ev := xproto.ClientMessageEvent{
		Format: 32,
		Window: w,
		Type:   x.Atom("WM_PROTOCOLS"),
		Data: xproto.ClientMessageDataUnionData32New([]uint32{
			uint32(x.Atom("WM_DELETE_WINDOW")),
			uint32(xproto.TimeCurrentTime),
			0,
			0,
			0,
		}),
	}
	return xproto.SendEventChecked(
		x.xc,
		false,
		w,
		xproto.EventMaskNoEvent,
		string(ev.Bytes()),
	).Check()
}

func (x *xConn) KillClient(w xproto.Window) error {
	return xproto.KillClientChecked(x.xc, uint32(w)).Check()
}

func (x *xConn) Atom(name string) xproto.Atom {
	if a, ok := x.atoms[name]; ok {
		return a
	}
	reply, err := xproto.InternAtom(x.xc, false, uint16(len(name)), name).Reply()
	if err != nil || reply == nil {
		return xproto.AtomNone
	}
	x.atoms[name] = reply.Atom
	return reply.Atom
}

func (x *xConn) Keycodes(name string) []xproto.Keycode {
	return keybind.StrToKeycodes(x.xu, name)
}
