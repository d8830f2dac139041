package main

import (
	"fmt"
	"os"

	"github.com/systems2beyond/bethel-social-sub005/cmd/bethel-ingest/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
