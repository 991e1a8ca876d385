// Package main is the entry point for the lolfeatures CLI tool, which
// fetches League of Legends match histories and turns them into per-player
// feature tables for the play-behavior study.
package main

import "github.com/mlacroix/lolfeatures/cmd"

func main() {
	cmd.Execute()
}
