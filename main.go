// Package main is the entry point for the sqlagent CLI application.
// It provides guarded SQL access for people, language models and HTTP clients.
package main

import (
	"sqlagent/cli/cmd"
)

func main() {
	cmd.Execute()
}
