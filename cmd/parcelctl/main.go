package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/parcel-notify/internal/cli"
)

func main() {
	_ = godotenv.Load()

	if err := cli.NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
