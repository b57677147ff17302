package main

import (
	"log"

	"github.com/BurntSushi/xgb/xproto"
)

// WmState is the lifecycle state of a client, mirroring the ICCCM
// WM_STATE property.
type WmState int

const (
	StateWithdrawn WmState = 0
	StateNormal    WmState = 1
	StateIconic    WmState = 3
)

func (s WmState) String() string {
	switch s {
	case StateWithdrawn:
		return "withdrawn"
	case StateNormal:
		return "normal"
	case StateIconic:
		return "iconic"
	}
	return "unknown"
}

// Protocols records which interaction protocols a client advertises
// in WM_PROTOCOLS.
type Protocols struct {
	DeleteWindow bool `json:"deleteWindow"`
	TakeFocus    bool `json:"takeFocus"`
}

// Client is an X11 client managed by us. All fields are owned by the
// Registry; other components read them and request changes through
// Registry operations.
type Client struct {
	// Window is X11's internal ID for the client's top-level window.
	Window xproto.Window `json:"id"`
	// Geom is the last geometry we granted for this window.
	Geom Geometry `json:"geometry"`
	// State mirrors the WM_STATE property.
	State WmState `json:"state"`
	// Hints is the client's WM_NORMAL_HINTS; zero until queried.
	Hints SizeHints `json:"hints"`
	// Protocols is the client's WM_PROTOCOLS; zero until queried.
	Protocols Protocols `json:"protocols"`
	// Mapped is true while the window is viewable.
	Mapped bool `json:"mapped"`
}

// Registry is the authoritative window-to-Client mapping. It is the
// only component that mutates a Client, and it is only ever driven
// from the dispatch loop, so no locking is needed.
type Registry struct {
	conn    Conn
	clients map[xproto.Window]*Client
	// raised holds window IDs in raise order, most recent last. It
	// is the tie-breaker when focus has to be reassigned.
	raised []xproto.Window
}

func NewRegistry(conn Conn) *Registry {
	return &Registry{
		conn:    conn,
		clients: make(map[xproto.Window]*Client),
	}
}

// Get returns the Client for a window, or nil if we don't manage it.
func (r *Registry) Get(w xproto.Window) *Client {
	return r.clients[w]
}

// Len returns the number of managed clients.
func (r *Registry) Len() int {
	return len(r.clients)
}

// All returns the managed clients, unordered.
func (r *Registry) All() []*Client {
	cs := make([]*Client, 0, len(r.clients))
	for _, c := range r.clients {
		cs = append(cs, c)
	}
	return cs
}

// Manage adopts a window into the registry in the Withdrawn state,
// queries its hints and protocols, and establishes the grabs and
// event mask we need on it. No-op for an already-managed window.
// Used both by the startup scan and by map requests. clickToFocus
// additionally installs the synchronous click grab the click focus
// model needs.
func (r *Registry) Manage(w xproto.Window, g Geometry, modMask uint16, clickToFocus bool) (*Client, error) {
	if c := r.clients[w]; c != nil {
		return c, nil
	}
	c := &Client{
		Window: w,
		Geom:   g,
		State:  StateWithdrawn,
	}
	// Query failures mean "no hints", not "refuse to manage": the
	// window may already be half-destroyed.
	if hints, err := r.conn.SizeHints(w); err == nil {
		c.Hints = hints
	} else {
		log.Printf("size hints for %d: %v", w, err)
	}
	if protos, err := r.conn.Protocols(w); err == nil {
		c.Protocols = protos
	} else {
		log.Printf("protocols for %d: %v", w, err)
	}
	if err := r.conn.SelectClientEvents(w); err != nil {
		// The window vanished between the request and now.
		return nil, err
	}
	if err := r.conn.GrabButtons(w, modMask); err != nil {
		log.Printf("grab buttons on %d: %v", w, err)
	}
	if clickToFocus {
		if err := r.conn.GrabClickToFocus(w); err != nil {
			log.Printf("grab click on %d: %v", w, err)
		}
	}
	r.clients[w] = c
	return c, nil
}

// MapRequest handles a window asking to become viewable: manage it if
// new, clamp its requested geometry against its hints, then configure
// and map it. An already-mapped window just gets re-raised.
func (r *Registry) MapRequest(w xproto.Window, g Geometry, modMask uint16, clickToFocus bool) error {
	if c := r.clients[w]; c != nil && c.Mapped {
		return r.Raise(w)
	}
	c, err := r.Manage(w, g, modMask, clickToFocus)
	if err != nil {
		return err
	}
	c.Geom = Clamp(g, c.Hints)
	if err := r.conn.Configure(w, c.Geom); err != nil {
		return err
	}
	if err := r.conn.Map(w); err != nil {
		return err
	}
	r.setState(c, StateNormal)
	c.Mapped = true
	r.noteRaised(w)
	return nil
}

// Adopt takes over an already-viewable window found by the startup
// scan: manage it and record it as mapped and Normal without
// reconfiguring it.
func (r *Registry) Adopt(w xproto.Window, g Geometry, modMask uint16, clickToFocus bool) error {
	c, err := r.Manage(w, g, modMask, clickToFocus)
	if err != nil {
		return err
	}
	if !c.Mapped {
		r.setState(c, StateNormal)
		c.Mapped = true
		r.noteRaised(w)
	}
	return nil
}

// NoteMapped records that a window became viewable. Covers clients
// adopted by the scan that map themselves later.
func (r *Registry) NoteMapped(w xproto.Window) {
	c := r.clients[w]
	if c == nil || c.Mapped {
		return
	}
	r.setState(c, StateNormal)
	c.Mapped = true
	r.noteRaised(w)
}

// NoteConfigured keeps the geometry mirror in step with
// ConfigureNotify events, whatever their origin.
func (r *Registry) NoteConfigured(w xproto.Window, g Geometry) {
	if c := r.clients[w]; c != nil {
		c.Geom = g
	}
}

// ConfigureRequest handles a client asking to change its own
// geometry. The request is granted after clamping, unless a drag is
// in progress on that window, in which case we answer with our
// authoritative geometry so the client still sees a ConfigureNotify.
func (r *Registry) ConfigureRequest(w xproto.Window, g Geometry, dragging bool) error {
	c := r.clients[w]
	if c == nil {
		// Not ours (e.g. override-redirect); grant verbatim.
		return r.conn.Configure(w, g)
	}
	if dragging {
		return r.conn.Configure(w, c.Geom)
	}
	c.Geom = Clamp(g, c.Hints)
	return r.conn.Configure(w, c.Geom)
}

// Unmap transitions a client to Withdrawn and removes it. Returns the
// removed client, or nil if the window was not managed.
func (r *Registry) Unmap(w xproto.Window) *Client {
	c := r.clients[w]
	if c == nil {
		return nil
	}
	c.Mapped = false
	r.setState(c, StateWithdrawn)
	r.remove(w)
	return c
}

// Destroy removes a destroyed window. Unlike Unmap it writes no
// properties; the window no longer exists.
func (r *Registry) Destroy(w xproto.Window) *Client {
	c := r.clients[w]
	if c == nil {
		return nil
	}
	c.Mapped = false
	c.State = StateWithdrawn
	r.remove(w)
	return c
}

// Raise brings a client to the top of the stack and records it as
// most recently raised.
func (r *Registry) Raise(w xproto.Window) error {
	if r.clients[w] == nil {
		return nil
	}
	r.noteRaised(w)
	return r.conn.Raise(w)
}

// MostRecentlyRaised returns the most recently raised client that is
// still mapped, or nil.
func (r *Registry) MostRecentlyRaised() *Client {
	for i := len(r.raised) - 1; i >= 0; i-- {
		if c := r.clients[r.raised[i]]; c != nil && c.Mapped {
			return c
		}
	}
	return nil
}

// ApplyGeometry records and issues a new geometry for a managed
// window without clamping; callers are expected to have clamped
// already (the drag engine clamps resize steps, moves need none).
func (r *Registry) ApplyGeometry(w xproto.Window, g Geometry) error {
	c := r.clients[w]
	if c == nil {
		return nil
	}
	c.Geom = g
	return r.conn.Configure(w, g)
}

// RefreshHints re-queries WM_NORMAL_HINTS for a managed window.
func (r *Registry) RefreshHints(w xproto.Window) error {
	c := r.clients[w]
	if c == nil {
		return nil
	}
	hints, err := r.conn.SizeHints(w)
	if err != nil {
		return err
	}
	c.Hints = hints
	return nil
}

// RefreshProtocols re-queries WM_PROTOCOLS for a managed window.
func (r *Registry) RefreshProtocols(w xproto.Window) error {
	c := r.clients[w]
	if c == nil {
		return nil
	}
	protos, err := r.conn.Protocols(w)
	if err != nil {
		return err
	}
	c.Protocols = protos
	return nil
}

// NoteStateChange records a lifecycle state the client set on itself
// (Normal <-> Iconic). We don't iconify windows ourselves, but the
// mirror has to stay correct when a client does.
func (r *Registry) NoteStateChange(w xproto.Window, s WmState) {
	if c := r.clients[w]; c != nil {
		c.State = s
	}
}

func (r *Registry) setState(c *Client, s WmState) {
	c.State = s
	if err := r.conn.SetWMState(c.Window, s); err != nil {
		// The client may have disappeared mid-transition.
		log.Printf("set WM_STATE on %d: %v", c.Window, err)
	}
}

func (r *Registry) remove(w xproto.Window) {
	delete(r.clients, w)
	for i, rw := range r.raised {
		if rw == w {
			r.raised = append(r.raised[:i], r.raised[i+1:]...)
			break
		}
	}
}

func (r *Registry) noteRaised(w xproto.Window) {
	for i, rw := range r.raised {
		if rw == w {
			r.raised = append(r.raised[:i], r.raised[i+1:]...)
			break
		}
	}
	r.raised = append(r.raised, w)
}
