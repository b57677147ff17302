package main

import (
	"log"

	"github.com/BurntSushi/xgb/xproto"
)

// FocusState decides which client holds input focus. Mutated only
// from the dispatch loop.
type FocusState struct {
	conn  Conn
	reg   *Registry
	model FocusModel
	// focused is the client holding focus, or WindowNone.
	focused xproto.Window
}

func NewFocusState(conn Conn, reg *Registry, model FocusModel) *FocusState {
	return &FocusState{conn: conn, reg: reg, model: model}
}

// Focused returns the focused client, or nil.
func (f *FocusState) Focused() *Client {
	if f.focused == xproto.WindowNone {
		return nil
	}
	return f.reg.Get(f.focused)
}

// Set transfers focus to a managed client and raises it. Unmanaged
// windows are ignored.
func (f *FocusState) Set(w xproto.Window) error {
	c := f.reg.Get(w)
	if c == nil {
		return nil
	}
	f.focused = w
	if err := f.reg.Raise(w); err != nil {
		return err
	}
	return f.conn.SetInputFocus(w)
}

// Click handles a button press over a window under the click model:
// assign focus, then replay the click so the client still receives
// it.
func (f *FocusState) Click(w xproto.Window) error {
	if f.model != FocusClick {
		return f.conn.AllowClickThrough()
	}
	if err := f.Set(w); err != nil {
		log.Printf("focus %d: %v", w, err)
	}
	return f.conn.AllowClickThrough()
}

// Enter handles the pointer entering a window under the autofocus
// model. Enter events synthesized by grab activation are ignored so
// drags don't cause spurious refocus.
func (f *FocusState) Enter(w xproto.Window, mode byte) error {
	if f.model != FocusAutofocus || mode != xproto.NotifyModeNormal {
		return nil
	}
	return f.Set(w)
}

// Lost reassigns focus after the given window went away: the most
// recently raised remaining mapped client gets focus, else none.
func (f *FocusState) Lost(w xproto.Window) error {
	if f.focused != w {
		return nil
	}
	f.focused = xproto.WindowNone
	if c := f.reg.MostRecentlyRaised(); c != nil {
		return f.Set(c.Window)
	}
	// Nothing left; park focus on the root.
	return f.conn.SetInputFocus(xproto.WindowNone)
}

// KillFocused closes the focused client: gracefully when it speaks
// WM_DELETE_WINDOW, by force otherwise. No-op without a focus.
func (f *FocusState) KillFocused() error {
	c := f.Focused()
	if c == nil {
		log.Println("kill requested, but no client is focused")
		return nil
	}
	if c.Protocols.DeleteWindow {
		return f.conn.SendDelete(c.Window)
	}
	return f.conn.KillClient(c.Window)
}
