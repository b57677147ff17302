package main

import (
	"log"

	"github.com/BurntSushi/xgb/xproto"
)

// DragMode distinguishes a moving drag from a resizing drag.
type DragMode int

const (
	DragMove DragMode = iota
	DragResize
)

// DragState is the transient state of a pointer drag, alive between a
// qualifying button press and the matching release.
type DragState struct {
	Window xproto.Window
	Mode   DragMode
	// Anchor pointer position in root coordinates.
	PointerX, PointerY int16
	// Client geometry at the moment the drag began.
	Anchor Geometry
}

// DragEngine is the press -> motion* -> release state machine,
// modeled as an explicit Idle/Dragging state checked synchronously on
// every event.
type DragEngine struct {
	conn Conn
	reg  *Registry
	// drag is nil while idle.
	drag *DragState
}

func NewDragEngine(conn Conn, reg *Registry) *DragEngine {
	return &DragEngine{conn: conn, reg: reg}
}

// Dragging reports whether a drag is in progress on the given window.
func (d *DragEngine) Dragging(w xproto.Window) bool {
	return d.drag != nil && d.drag.Window == w
}

// Active reports whether any drag is in progress.
func (d *DragEngine) Active() bool {
	return d.drag != nil
}

// Begin starts a drag on a managed, mapped client: button 1 moves,
// button 3 resizes. The pointer is grabbed for the duration.
func (d *DragEngine) Begin(w xproto.Window, button byte, rootX, rootY int16) error {
	c := d.reg.Get(w)
	if c == nil || !c.Mapped {
		return nil
	}
	var mode DragMode
	switch button {
	case 1:
		mode = DragMove
	case 3:
		mode = DragResize
	default:
		return nil
	}
	if err := d.conn.GrabPointer(w); err != nil {
		return err
	}
	d.drag = &DragState{
		Window:   w,
		Mode:     mode,
		PointerX: rootX,
		PointerY: rootY,
		Anchor:   c.Geom,
	}
	return nil
}

// Motion applies one pointer motion step. Each step issues an
// immediate configure request; responsiveness over request volume.
func (d *DragEngine) Motion(rootX, rootY int16) error {
	if d.drag == nil {
		return nil
	}
	c := d.reg.Get(d.drag.Window)
	if c == nil {
		// Target vanished; a DestroyNotify will clean us up, but
		// don't emit configures for a dead window meanwhile.
		return nil
	}
	dx := int(rootX) - int(d.drag.PointerX)
	dy := int(rootY) - int(d.drag.PointerY)
	g := d.drag.Anchor
	switch d.drag.Mode {
	case DragMove:
		// Pure translation; size hints don't apply.
		g.X = int16(int(g.X) + dx)
		g.Y = int16(int(g.Y) + dy)
	case DragResize:
		// Grow or shrink from the top-left corner, which stays put.
		w, h := ClampSize(int(g.W)+dx, int(g.H)+dy, c.Hints)
		g.W = uint16(w)
		g.H = uint16(h)
	}
	return d.reg.ApplyGeometry(c.Window, g)
}

// End finishes the drag on button release. The last geometry applied
// during motion stays authoritative; there is no commit step.
func (d *DragEngine) End() error {
	if d.drag == nil {
		return nil
	}
	d.drag = nil
	return d.conn.UngrabPointer()
}

// Abort cancels the drag because its target was destroyed. The grab
// is released and no further configures are emitted.
func (d *DragEngine) Abort(w xproto.Window) {
	if d.drag == nil || d.drag.Window != w {
		return
	}
	d.drag = nil
	if err := d.conn.UngrabPointer(); err != nil {
		log.Printf("ungrab pointer: %v", err)
	}
}
