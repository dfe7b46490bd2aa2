package main

import (
	"os"

	"github.com/esgrep/esgrep/cmd"
)

func main() {
	os.Exit(cmd.Execute())
}
