package main

import (
	"fmt"
	"os"

	"github.com/jonesrussell/north-cloud/tariff-classifier/cmd/tariffctl/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
