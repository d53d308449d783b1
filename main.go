package main

import (
	"fmt"
	"os"

	"github.com/temirov/shipyard/cmd/cli"
)

const (
	exitErrorTemplateConstant = "shipyard: %v\n"
)

// main executes the shipyard command-line application.
func main() {
	if executionError := cli.Execute(); executionError != nil {
		fmt.Fprintf(os.Stderr, exitErrorTemplateConstant, executionError)
		os.Exit(1)
	}
}
