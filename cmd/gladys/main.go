// Package main provides the entry point for the gladys CLI.
package main

import (
	"os"

	"github.com/IgorArodrigues/Gladys-IA/cmd/gladys/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
