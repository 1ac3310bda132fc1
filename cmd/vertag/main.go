package main

import (
	"os"
)

var (
	commit = "unknown"
	date   = "unknown"
)

func main() {
	cli := &CLI{outStream: os.Stdout, errStream: os.Stderr}
	os.Exit(cli.run(os.Args[1:]))
}
