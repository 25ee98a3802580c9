// Package main is the entry point for the rig CLI.
package main

import "rig.dev/pkg/rig/cmd"

func main() {
	cmd.Execute()
}
