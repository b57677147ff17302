package main

import (
	"errors"
	"log"

	"github.com/BurntSushi/xgb"
)

var errShutdown = errors.New("window manager is shutting down")

// WM aggregates the window management core: the client registry,
// focus state, drag engine and keybind table, all driven by a single
// dispatch loop.
type WM struct {
	conn     Conn
	config   *Config
	reg      *Registry
	focus    *FocusState
	drag     *DragEngine
	icccm    *ICCCM
	keybinds *Keybinds
	hub      *Hub

	// actions carries administrative work (API requests) onto the
	// dispatch loop, which is the only goroutine allowed to touch
	// the state above.
	actions chan task
	// stopped is closed when the dispatch loop exits.
	stopped chan struct{}
	// quitting is the stop flag, checked at the top of each loop
	// iteration. Only the dispatch loop reads or writes it.
	quitting bool
}

type task struct {
	f    func() error
	done chan error
}

func NewWM(conn Conn, cfg *Config) *WM {
	reg := NewRegistry(conn)
	wm := &WM{
		conn:    conn,
		config:  cfg,
		reg:     reg,
		focus:   NewFocusState(conn, reg, cfg.FocusModel),
		drag:    NewDragEngine(conn, reg),
		icccm:   NewICCCM(conn, reg),
		hub:     NewHub(),
		actions: make(chan task),
		stopped: make(chan struct{}),
	}
	return wm
}

// Init acquires window management privileges, compiles and registers
// the keybind table, and adopts windows that already exist. Must
// succeed before Run.
func (wm *WM) Init() error {
	if err := wm.conn.BecomeWM(); err != nil {
		return err
	}
	kb, err := NewKeybinds(wm.conn, wm.config)
	if err != nil {
		return err
	}
	if err := kb.Register(wm.conn); err != nil {
		return err
	}
	wm.keybinds = kb
	return wm.adoptExisting()
}

// adoptExisting scans the root's children and manages every viewable
// window that isn't override-redirect. Mapped windows persist
// server-side across manager restarts; this is how we rediscover
// them.
func (wm *WM) adoptExisting() error {
	windows, err := wm.conn.ExistingWindows()
	if err != nil {
		return err
	}
	clickToFocus := wm.config.FocusModel == FocusClick
	for _, w := range windows {
		viewable, overrideRedirect, err := wm.conn.Attributes(w)
		if err != nil || overrideRedirect || !viewable {
			continue
		}
		g, err := wm.conn.Geometry(w)
		if err != nil {
			continue
		}
		if err := wm.reg.Adopt(w, g, wm.config.Mod(), clickToFocus); err != nil {
			log.Printf("adopt %d: %v", w, err)
		}
	}
	return nil
}

// Run is the dispatch loop: block for the next event, process it to
// completion, repeat. Administrative actions are serialized onto the
// same loop. Returns when the Quit action fires or the connection
// goes away.
func (wm *WM) Run() error {
	type xevent struct {
		ev  xgb.Event
		err error
	}
	events := make(chan xevent)
	go func() {
		for {
			ev, err := wm.conn.WaitForEvent()
			if ev == nil && err == nil {
				// Connection closed.
				close(events)
				return
			}
			events <- xevent{ev, err}
		}
	}()

	defer close(wm.stopped)
	for !wm.quitting {
		select {
		case xe, ok := <-events:
			if !ok {
				return errors.New("X connection closed")
			}
			if xe.err != nil {
				// Protocol errors are logged and skipped, never
				// fatal to the loop.
				log.Print(xe.err)
				continue
			}
			if err := wm.dispatchEvent(xe.ev); err != nil {
				log.Print(err)
			}
		case t := <-wm.actions:
			t.done <- t.f()
		}
	}
	return nil
}

// Do runs f on the dispatch loop and returns its result. This is how
// the API surface reads and mutates WM state without a second writer.
func (wm *WM) Do(f func() error) error {
	t := task{f: f, done: make(chan error, 1)}
	select {
	case wm.actions <- t:
		return <-t.done
	case <-wm.stopped:
		return errShutdown
	}
}

// Quit sets the stop flag. Managed clients are left running.
func (wm *WM) Quit() {
	wm.quitting = true
}
