package main

import (
	"os"

	"github.com/gogpu/shaderconv/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
