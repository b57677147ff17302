package main

import (
	"log"
	"os/exec"
	"strings"
)

// spawner returns a callback that launches cmd detached from the
// manager. The child is reaped in the background.
func spawner(cmd string, args ...string) func() error {
	return func() error {
		go func() {
			cmd := exec.Command(cmd, args...)
			if err := cmd.Start(); err == nil {
				cmd.Wait()
			} else {
				log.Printf("spawn %s: %v", cmd.Path, err)
			}
		}()
		return nil
	}
}

// runStartupPrograms spawns each configured startup command once, in
// order. Failures are logged and non-fatal.
func runStartupPrograms(cfg *Config) {
	for _, command := range cfg.Startup {
		fields := strings.Fields(command)
		if len(fields) == 0 {
			continue
		}
		spawner(fields[0], fields[1:]...)()
	}
}
