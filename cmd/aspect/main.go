// Package main provides the entry point for the aspect CLI.
package main

import "yqhp/aspect/cmd"

func main() {
	cmd.Execute()
}
