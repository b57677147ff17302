package main

import (
	"log"

	"github.com/BurntSushi/xgb/xproto"
)

// ICCCM keeps each client's cached WM_PROTOCOLS, WM_NORMAL_HINTS and
// WM_STATE in sync with the properties on the window. The initial
// query happens when the registry adopts the window; this layer
// handles the re-queries on property changes, since a client may
// update its hints after mapping.
type ICCCM struct {
	conn Conn
	reg  *Registry
}

func NewICCCM(conn Conn, reg *Registry) *ICCCM {
	return &ICCCM{conn: conn, reg: reg}
}

// PropertyChanged routes a PropertyNotify on a managed window.
// Unrecognized properties are ignored.
func (i *ICCCM) PropertyChanged(w xproto.Window, atom xproto.Atom) error {
	if i.reg.Get(w) == nil {
		return nil
	}
	switch atom {
	case xproto.AtomWmNormalHints:
		log.Printf("updating WM_NORMAL_HINTS for %d", w)
		return i.reg.RefreshHints(w)
	case i.conn.Atom("WM_PROTOCOLS"):
		log.Printf("updating WM_PROTOCOLS for %d", w)
		return i.reg.RefreshProtocols(w)
	case i.conn.Atom("WM_STATE"):
		// A client changed its own state (e.g. iconified itself);
		// mirror it so our records stay protocol-correct.
		s, err := i.conn.WMState(w)
		if err != nil {
			return err
		}
		i.reg.NoteStateChange(w, s)
	}
	return nil
}
