package main

import (
	"os"

	"github.com/jandubois/jmxcheck/cmd"
)

func main() {
	os.Exit(cmd.ExitCode(cmd.Execute()))
}
