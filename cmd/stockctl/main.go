package main

import (
	"fmt"
	"os"

	"github.com/certops/dcvkit/internal/stockcli"
	"github.com/joho/godotenv"
)

// version is set by goreleaser via ldflags
var version = "dev"

func main() {
	_ = godotenv.Load()

	stockcli.SetVersion(version)
	if err := stockcli.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
