package main

import (
	"os"

	"github.com/ahmader/handlebars-webpack-plugin/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
