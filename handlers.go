package main

import (
	"fmt"
	"log"

	"github.com/BurntSushi/xgb"
	"github.com/BurntSushi/xgb/xproto"
)

// dispatchEvent classifies one event and routes it to the stateful
// components. Exactly one event is processed to completion at a time.
func (wm *WM) dispatchEvent(xev xgb.Event) (err error) {
	note := map[string]interface{}{
		"type":  fmt.Sprintf("%T", xev),
		"event": xev,
	}
	switch e := xev.(type) {
	case xproto.MapRequestEvent:
		err = wm.handleMapRequest(e)
		noteClient(note, wm.reg.Get(e.Window))
	case xproto.ConfigureRequestEvent:
		err = wm.handleConfigureRequest(e)
		noteClient(note, wm.reg.Get(e.Window))
	case xproto.UnmapNotifyEvent:
		err = wm.handleUnmapNotify(e)
	case xproto.DestroyNotifyEvent:
		err = wm.handleDestroyNotify(e)
	case xproto.ButtonPressEvent:
		err = wm.handleButtonPress(e)
	case xproto.ButtonReleaseEvent:
		err = wm.drag.End()
	case xproto.MotionNotifyEvent:
		err = wm.drag.Motion(e.RootX, e.RootY)
	case xproto.EnterNotifyEvent:
		err = wm.focus.Enter(e.Event, e.Mode)
	case xproto.KeyPressEvent:
		err = wm.handleKeyPress(e)
	case xproto.PropertyNotifyEvent:
		err = wm.icccm.PropertyChanged(e.Window, e.Atom)
	case xproto.MapNotifyEvent:
		wm.reg.NoteMapped(e.Window)
	case xproto.ConfigureNotifyEvent:
		wm.reg.NoteConfigured(e.Window, Geometry{
			X: e.X, Y: e.Y, W: e.Width, H: e.Height,
		})
	case xproto.ClientMessageEvent:
		// Nothing we act on; EWMH requests land here and are out
		// of scope.
	}
	wm.hub.Broadcast(note)
	return err
}

// noteClient attaches a snapshot of the client to the note. Subscriber
// goroutines marshal the note later, so they must never see the live
// Client the dispatch loop keeps mutating.
func noteClient(note map[string]interface{}, c *Client) {
	if c == nil {
		return
	}
	cc := *c
	note["client"] = &cc
}

// handleMapRequest makes the window viewable. It does not touch focus:
// under the click model focus moves only on a button press, and under
// autofocus the pointer entering the new window assigns it.
func (wm *WM) handleMapRequest(e xproto.MapRequestEvent) error {
	g, err := wm.conn.Geometry(e.Window)
	if err != nil {
		// Gone before we could look at it.
		return nil
	}
	clickToFocus := wm.config.FocusModel == FocusClick
	return wm.reg.MapRequest(e.Window, g, wm.config.Mod(), clickToFocus)
}

func (wm *WM) handleConfigureRequest(e xproto.ConfigureRequestEvent) error {
	g := Geometry{X: e.X, Y: e.Y, W: e.Width, H: e.Height}
	return wm.reg.ConfigureRequest(e.Window, g, wm.drag.Dragging(e.Window))
}

func (wm *WM) handleUnmapNotify(e xproto.UnmapNotifyEvent) error {
	if c := wm.reg.Unmap(e.Window); c != nil {
		return wm.focus.Lost(e.Window)
	}
	return nil
}

func (wm *WM) handleDestroyNotify(e xproto.DestroyNotifyEvent) error {
	wm.drag.Abort(e.Window)
	if c := wm.reg.Destroy(e.Window); c != nil {
		return wm.focus.Lost(e.Window)
	}
	return nil
}

// handleButtonPress is delivered through our button grabs: a press
// with the global modifier held starts a drag, anything else is a
// focus click to be replayed to the client.
func (wm *WM) handleButtonPress(e xproto.ButtonPressEvent) error {
	if e.State&wm.config.Mod() != 0 {
		// A drag implicitly focuses its target.
		if err := wm.focus.Set(e.Event); err != nil {
			log.Printf("focus %d: %v", e.Event, err)
		}
		return wm.drag.Begin(e.Event, byte(e.Detail), e.RootX, e.RootY)
	}
	return wm.focus.Click(e.Event)
}

func (wm *WM) handleKeyPress(e xproto.KeyPressEvent) error {
	action, ok := wm.keybinds.Lookup(e.State, e.Detail)
	if !ok {
		return nil
	}
	switch action {
	case ActionQuit:
		wm.Quit()
	case ActionKill:
		return wm.focus.KillFocused()
	}
	return nil
}
