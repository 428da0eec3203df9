package main

import (
	"os"

	"github.com/rustyeddy/whalecopy/cmd/whalecopy/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
