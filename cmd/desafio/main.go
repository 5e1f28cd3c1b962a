// Package main is the single-binary entrypoint for Desafio.
package main

import "github.com/desafio-logico/desafio/internal/cli"

// version is set at build time via -ldflags.
var version = "dev"

func main() {
	cli.Execute(version)
}
