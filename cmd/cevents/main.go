// Package main is the entry point for the cevents CLI tool.
package main

import (
	"github.com/hargabyte/cevents/internal/cmd"
)

func main() {
	cmd.Execute()
}
