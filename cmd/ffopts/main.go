package main

import (
	"os"

	"github.com/goliatone/go-ffoptions/internal/cli"
)

func main() {
	os.Exit(cli.Run(os.Args, os.Stdout, os.Stderr))
}
