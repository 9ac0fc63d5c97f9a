package main

import (
	"os"

	"capital-trading-bot/cmd/bot/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
