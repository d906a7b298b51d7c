package main

import (
	"fmt"
	"os"

	"github.com/certops/dcvkit/internal/cli"
	"github.com/joho/godotenv"
)

// version is set by goreleaser via ldflags
var version = "dev"

func main() {
	// A local .env can hold overrides during development; missing is fine.
	_ = godotenv.Load()

	cli.SetVersion(version)
	if err := cli.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
