package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/lorecheck/lorecheck/internal/cli"
)

func main() {
	// Best effort: a missing .env file is fine.
	_ = godotenv.Load()

	if err := cli.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
