package main

import (
	"fmt"
	"os"

	"github.com/packetplane/switchd/cmd/switchd/command"
)

func main() {
	app := command.App()
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
