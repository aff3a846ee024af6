// Package main is the entry point for the devinsight CLI.
package main

import (
	"github.com/joho/godotenv"

	"github.com/blackwell-systems/devinsight/internal/app"
)

// version is set at build time via ldflags:
//
//	go build -ldflags "-X main.version=1.0.0"
var version = "dev"

func main() {
	// DEVINSIGHT_* overrides may live in a local .env; it is optional.
	_ = godotenv.Load()

	app.SetVersion(version)
	app.Execute()
}
