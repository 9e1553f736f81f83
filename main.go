// Package main is the entry point for the pyrefac CLI.
package main

import "pyrefac.dev/pkg/pyrefac/cmd"

func main() {
	cmd.Execute()
}
