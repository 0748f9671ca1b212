package main

import (
	"fmt"
	"os"

	"github.com/vein-tools/veind/cmd/veind/command"
)

func main() {
	app := command.App()
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "error: %s\n", err)
		os.Exit(1)
	}
}
