package main

import (
	"os"

	"github.com/dvloznov/owner-statements/internal/commands"
)

func main() {
	if err := commands.NewRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
