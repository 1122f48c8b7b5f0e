package main

import (
	"os"

	"github.com/rubros-dev/rubros/internal/commands"
)

func main() {
	if err := commands.NewRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
