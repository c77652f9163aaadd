package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/karowl/simportal/internal/cli"
	"github.com/karowl/simportal/internal/cli/admin"
)

func main() {
	_ = godotenv.Load()

	registry := cli.NewRegistry()
	registry.Register(&admin.Command{})

	if err := registry.Run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
