package main

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/BurntSushi/xgb/xproto"
)

func apiSetup(t *testing.T) (*fakeConn, *WM, *httptest.Server) {
	t.Helper()
	conn, wm := testWM(t, FocusClick)
	done := make(chan struct{})
	go func() {
		wm.Run()
		close(done)
	}()
	as := NewAPIServer(wm, "127.0.0.1:0")
	srv := httptest.NewServer(as.server.Handler)
	t.Cleanup(func() {
		srv.Close()
		wm.Do(func() error { wm.Quit(); return nil })
		<-done
	})
	return conn, wm, srv
}

func mapViaLoop(t *testing.T, conn *fakeConn, wm *WM, w xproto.Window, g Geometry) {
	t.Helper()
	conn.geoms[w] = g
	if err := wm.Do(func() error {
		return wm.dispatchEvent(xproto.MapRequestEvent{Window: w})
	}); err != nil {
		t.Fatal(err)
	}
}

func TestAPIClientsIndex(t *testing.T) {
	conn, wm, srv := apiSetup(t)
	mapViaLoop(t, conn, wm, 7, Geometry{W: 100, H: 100})

	resp, err := http.Get(srv.URL + "/clients/")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != 200 {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	var body struct {
		Items []json.RawMessage `json:"items"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	if len(body.Items) != 1 {
		t.Fatalf("items = %d, want 1", len(body.Items))
	}
}

func TestAPIClientUpdateClampsAgainstHints(t *testing.T) {
	conn, wm, srv := apiSetup(t)
	conn.hints[7] = SizeHints{MinW: 20, MinH: 20, IncW: 10, IncH: 10}
	mapViaLoop(t, conn, wm, 7, Geometry{W: 100, H: 100})

	resp, err := http.Post(
		srv.URL+"/clients/7",
		"application/json",
		strings.NewReader(`{"w": 153, "h": 107}`),
	)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != 200 {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	last := conn.lastConfigure(7)
	if last == nil || last.g.W != 150 || last.g.H != 100 {
		t.Fatalf("configure = %+v, want 150x100", last)
	}
}

func TestAPIClientUpdateRejectsBadBody(t *testing.T) {
	conn, wm, srv := apiSetup(t)
	mapViaLoop(t, conn, wm, 7, Geometry{W: 100, H: 100})

	resp, err := http.Post(
		srv.URL+"/clients/7",
		"application/json",
		strings.NewReader(`{"w": `),
	)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422", resp.StatusCode)
	}
}

func TestAPIStalledBodyDoesNotBlockLoop(t *testing.T) {
	conn, wm, srv := apiSetup(t)
	mapViaLoop(t, conn, wm, 7, Geometry{W: 100, H: 100})

	// A request whose body never arrives must stall only its own HTTP
	// goroutine, never the dispatch loop.
	pr, pw := io.Pipe()
	sent := make(chan struct{})
	go func() {
		defer close(sent)
		resp, err := http.Post(srv.URL+"/clients/7", "application/json", pr)
		if err == nil {
			resp.Body.Close()
		}
	}()
	time.Sleep(20 * time.Millisecond)

	errc := make(chan error, 1)
	go func() {
		errc <- wm.Do(func() error { return nil })
	}()
	select {
	case err := <-errc:
		if err != nil {
			t.Fatal(err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("dispatch loop blocked behind a stalled request body")
	}

	pw.Write([]byte(`{"x": 1}`))
	pw.Close()
	<-sent
}
