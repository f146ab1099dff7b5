package main

import "github.com/roach88/relquery/internal/cli"

func main() {
	cli.Execute()
}
