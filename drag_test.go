package main

import (
	"testing"

	"github.com/BurntSushi/xgb/xproto"
)

func dragSetup(t *testing.T, hints SizeHints) (*fakeConn, *Registry, *DragEngine) {
	t.Helper()
	conn := newFakeConn()
	conn.hints[1] = hints
	reg := NewRegistry(conn)
	if err := reg.MapRequest(1, Geometry{X: 0, Y: 0, W: 100, H: 100}, xproto.ModMask4, true); err != nil {
		t.Fatal(err)
	}
	return conn, reg, NewDragEngine(conn, reg)
}

func TestDragMoveTranslates(t *testing.T) {
	conn, reg, drag := dragSetup(t, SizeHints{})

	if err := drag.Begin(1, 1, 500, 500); err != nil {
		t.Fatal(err)
	}
	if conn.pointerGrabs != 1 {
		t.Fatal("drag did not grab the pointer")
	}
	if err := drag.Motion(530, 480); err != nil {
		t.Fatal(err)
	}
	g := reg.Get(1).Geom
	if g.X != 30 || g.Y != -20 {
		t.Fatalf("moved to %v, want +30+-20", g)
	}
	if g.W != 100 || g.H != 100 {
		t.Fatalf("move changed size to %dx%d", g.W, g.H)
	}
	if err := drag.End(); err != nil {
		t.Fatal(err)
	}
	if conn.ungrabs != 1 {
		t.Fatal("release did not ungrab the pointer")
	}
}

func TestDragResizeSnapsToIncrements(t *testing.T) {
	_, reg, drag := dragSetup(t, SizeHints{MinW: 20, MinH: 20, IncW: 10, IncH: 10})

	if err := drag.Begin(1, 3, 500, 500); err != nil {
		t.Fatal(err)
	}
	if err := drag.Motion(553, 507); err != nil {
		t.Fatal(err)
	}
	g := reg.Get(1).Geom
	if g.W != 150 || g.H != 100 {
		t.Fatalf("resized to %dx%d, want 150x100", g.W, g.H)
	}
	if g.X != 0 || g.Y != 0 {
		t.Fatalf("resize moved the top-left corner to +%d+%d", g.X, g.Y)
	}
}

func TestDragResizeStepsFromAnchor(t *testing.T) {
	_, reg, drag := dragSetup(t, SizeHints{})

	if err := drag.Begin(1, 3, 500, 500); err != nil {
		t.Fatal(err)
	}
	// Each step computes from the anchor, not the previous step, so
	// jitter doesn't accumulate.
	if err := drag.Motion(600, 600); err != nil {
		t.Fatal(err)
	}
	if err := drag.Motion(510, 510); err != nil {
		t.Fatal(err)
	}
	g := reg.Get(1).Geom
	if g.W != 110 || g.H != 110 {
		t.Fatalf("resized to %dx%d, want 110x110", g.W, g.H)
	}
}

func TestDragIgnoresUnmanagedWindow(t *testing.T) {
	conn, _, drag := dragSetup(t, SizeHints{})

	if err := drag.Begin(99, 1, 0, 0); err != nil {
		t.Fatal(err)
	}
	if drag.Active() {
		t.Fatal("drag started on unmanaged window")
	}
	if conn.pointerGrabs != 0 {
		t.Fatal("pointer grabbed for unmanaged window")
	}
}

func TestDragAbortOnDestroy(t *testing.T) {
	conn, reg, drag := dragSetup(t, SizeHints{})

	if err := drag.Begin(1, 1, 500, 500); err != nil {
		t.Fatal(err)
	}
	if err := drag.Motion(510, 510); err != nil {
		t.Fatal(err)
	}
	configures := len(conn.configures)

	reg.Destroy(1)
	drag.Abort(1)
	if drag.Active() {
		t.Fatal("drag still active after abort")
	}
	if conn.ungrabs != 1 {
		t.Fatal("abort did not release the pointer grab")
	}
	if err := drag.Motion(600, 600); err != nil {
		t.Fatal(err)
	}
	if len(conn.configures) != configures {
		t.Fatal("configure issued after abort")
	}
}

func TestDragOnlyButtonsOneAndThree(t *testing.T) {
	conn, _, drag := dragSetup(t, SizeHints{})

	if err := drag.Begin(1, 2, 0, 0); err != nil {
		t.Fatal(err)
	}
	if drag.Active() || conn.pointerGrabs != 0 {
		t.Fatal("middle button started a drag")
	}
}
