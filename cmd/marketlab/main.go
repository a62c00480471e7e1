package main

import "github.com/rustyeddy/marketlab/internal/cli"

func main() {
	cli.Execute()
}
