// Package main is the entry point for the omtt CLI application.
package main

import (
	"os"

	"github.com/omtt/omtt-go/cmd"
	"github.com/omtt/omtt-go/internal/system"
)

// Version information, injected at build time.
var (
	Version   = "dev"
	Commit    = "none"
	BuildDate = "unknown"
)

func main() {
	// A spawned child re-executes this binary only to exec the SUT.
	if system.IsSpawnChild() {
		system.RunSpawnChild(system.New(), os.Args[1:], os.Environ())
		return
	}

	rootCmd := cmd.NewRootCmd()
	rootCmd.Version = Version + " (commit " + Commit + ", built " + BuildDate + ")"
	os.Exit(cmd.Execute(rootCmd))
}
