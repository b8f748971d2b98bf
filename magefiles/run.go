//go:build mage

package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/magefile/mage/mg"
)

type Run mg.Namespace

// Builds the binary and hot reloads $ANIMA_ASSETS_DIR (./assets by default)
// until interrupted.
func (Run) Watch() error {
	mg.Deps(Build.Binary)

	dir := os.Getenv("ANIMA_ASSETS_DIR")
	if dir == "" {
		dir = "assets"
	}
	fmt.Printf("Watching %s...\n", dir)
	if _, err := executeCmd("bin/anima-assets", withArgs("watch", "--base-path", dir, "--log-level", "debug"), withStream()); err != nil {
		return err
	}
	return nil
}

// Loads every identifier listed in $ANIMA_ASSETS (space separated) and prints a summary.
func (Run) Load() error {
	mg.Deps(Build.Binary)

	srcs := strings.Fields(os.Getenv("ANIMA_ASSETS"))
	if len(srcs) == 0 {
		return fmt.Errorf("ANIMA_ASSETS is empty, nothing to load")
	}
	dir := os.Getenv("ANIMA_ASSETS_DIR")
	if dir == "" {
		dir = "assets"
	}
	args := append([]string{"load", "--base-path", dir}, srcs...)
	_, err := executeCmd("bin/anima-assets", withArgs(args...), withDir("."), withStream())
	return err
}
