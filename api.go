package main

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/BurntSushi/xgb/xproto"
	"github.com/gorilla/mux"
)

// APIServer exposes read-only introspection and a few control
// operations over HTTP. Every touch of WM state goes through wm.Do,
// so the dispatch loop stays the sole writer.
type APIServer struct {
	server *http.Server
	wm     *WM
}

func jsonResponse(w http.ResponseWriter, r *http.Request, status int, data interface{}) {
	log.Printf("%d %s", status, r.URL.Path)
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	e := json.NewEncoder(w)
	e.Encode(data)
}

func NewAPIServer(wm *WM, listenAddr string) *APIServer {
	router := mux.NewRouter()
	as := &APIServer{
		server: &http.Server{
			Addr:           listenAddr,
			Handler:        router,
			ReadTimeout:    10 * time.Second,
			WriteTimeout:   0, // the event stream is long-lived
			MaxHeaderBytes: 1 << 16,
		},
		wm: wm,
	}

	router.HandleFunc("/clients/", func(w http.ResponseWriter, r *http.Request) {
		var items []*Client
		err := wm.Do(func() error {
			for _, c := range wm.reg.All() {
				cc := *c
				items = append(items, &cc)
			}
			return nil
		})
		if err != nil {
			jsonResponse(w, r, http.StatusServiceUnavailable, nil)
			return
		}
		jsonResponse(w, r, 200, map[string]interface{}{"items": items})
	}).Methods("GET")

	router.HandleFunc("/clients/{id:[0-9]+}", as.handleClient).
		Methods("GET", "POST", "DELETE")

	router.HandleFunc("/focus/", func(w http.ResponseWriter, r *http.Request) {
		var item *Client
		err := wm.Do(func() error {
			if c := wm.focus.Focused(); c != nil {
				cc := *c
				item = &cc
			}
			return nil
		})
		if err != nil {
			jsonResponse(w, r, http.StatusServiceUnavailable, nil)
			return
		}
		jsonResponse(w, r, 200, map[string]interface{}{"item": item})
	}).Methods("GET")

	router.HandleFunc("/config/", func(w http.ResponseWriter, r *http.Request) {
		jsonResponse(w, r, 200, map[string]interface{}{"item": wm.config})
	}).Methods("GET")

	router.HandleFunc("/quit", func(w http.ResponseWriter, r *http.Request) {
		wm.Do(func() error {
			wm.Quit()
			return nil
		})
		jsonResponse(w, r, 200, nil)
	}).Methods("POST")

	router.HandleFunc("/events", makeWSHandler(wm.hub)).Methods("GET")

	router.PathPrefix("/").Handler(http.NotFoundHandler())
	return as
}

func (as *APIServer) handleClient(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseUint(mux.Vars(r)["id"], 10, 32)
	if err != nil {
		jsonResponse(w, r, http.StatusNotFound, nil)
		return
	}
	win := xproto.Window(id)

	// Read the body here; the dispatch loop must never block on a
	// client's network I/O.
	var data struct {
		X *int16  `json:"x"`
		Y *int16  `json:"y"`
		W *uint16 `json:"w"`
		H *uint16 `json:"h"`
	}
	if r.Method == "POST" {
		if err := json.NewDecoder(r.Body).Decode(&data); err != nil {
			jsonResponse(w, r, http.StatusUnprocessableEntity, nil)
			return
		}
	}

	var item *Client
	doErr := as.wm.Do(func() error {
		c := as.wm.reg.Get(win)
		if c == nil {
			return nil
		}
		switch r.Method {
		case "POST":
			g := c.Geom
			if data.X != nil {
				g.X = *data.X
			}
			if data.Y != nil {
				g.Y = *data.Y
			}
			if data.W != nil {
				g.W = *data.W
			}
			if data.H != nil {
				g.H = *data.H
			}
			log.Printf("update client %d to %s", win, g)
			// Same path as a client-issued configure request, hint
			// clamping included.
			if err := as.wm.reg.ConfigureRequest(win, g, as.wm.drag.Dragging(win)); err != nil {
				return err
			}
		case "DELETE":
			if c.Protocols.DeleteWindow {
				if err := as.wm.conn.SendDelete(win); err != nil {
					return err
				}
			} else if err := as.wm.conn.KillClient(win); err != nil {
				return err
			}
		}
		cc := *c
		item = &cc
		return nil
	})
	if doErr == errShutdown {
		jsonResponse(w, r, http.StatusServiceUnavailable, nil)
		return
	}
	if doErr != nil {
		jsonResponse(w, r, http.StatusUnprocessableEntity, nil)
		return
	}
	if item == nil {
		jsonResponse(w, r, http.StatusNotFound, nil)
		return
	}
	jsonResponse(w, r, 200, map[string]interface{}{"item": item})
}

func (as *APIServer) Start() {
	log.Printf("listening on http://%s", as.server.Addr)
	if err := as.server.ListenAndServe(); err != http.ErrServerClosed {
		log.Print(err)
	}
}

func (as *APIServer) Shutdown() {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	as.server.Shutdown(ctx)
}
