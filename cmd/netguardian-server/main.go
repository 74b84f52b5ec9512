package main

import (
	"os"

	"github.com/zero-day-ai/netguardian/cmd/netguardian-server/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
