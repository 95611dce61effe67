package main

import "github.com/princespaghetti/certfetch/internal/cli"

func main() {
	cli.Execute()
}
