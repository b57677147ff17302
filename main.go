package main

import (
	"errors"
	"log"
	"os"

	"git.sr.ht/~sircmpwn/getopt"
)

var (
	version    string
	listenAddr = "127.0.0.1:8080"
	configPath string
)

var errorAnotherWM = errors.New("another window manager is already running")

func main() {
	// run owns the deferred cleanup; exiting from here would skip it.
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	opts, _, err := getopt.Getopts(os.Args, "c:l:")
	if err != nil {
		return err
	}
	for _, opt := range opts {
		switch opt.Option {
		case 'c':
			configPath = opt.Value
		case 'l':
			listenAddr = opt.Value
		}
	}
	if version != "" {
		log.Printf("version: %s", version)
	}

	cfg, err := LoadConfig(configPath)
	if err != nil {
		return err
	}

	conn, err := Connect()
	if err != nil {
		return err
	}
	defer conn.Close()

	wm := NewWM(conn, cfg)
	if err := wm.Init(); err != nil {
		return err
	}
	runStartupPrograms(cfg)

	api := NewAPIServer(wm, listenAddr)
	go api.Start()
	defer api.Shutdown()

	// Managed clients are left running on an orderly quit.
	return wm.Run()
}
