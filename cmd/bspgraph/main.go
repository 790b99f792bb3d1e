// Command bspgraph is a small example harness around the BSP engine: it
// loads an edge list and a driver configuration, runs one of the built-in
// vertex programs, and prints or exports the resulting public properties.
package main

import (
	"fmt"
	"os"

	"github.com/bspgraph/engine/cmd/bspgraph/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
