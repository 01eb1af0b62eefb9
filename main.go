// The main package for the albowatch executable.
package main

import (
	"github.com/gfiorillo/albowatch/cmd"
)

// main defers all execution to the Cobra CLI.
func main() {
	cmd.Execute()
}
