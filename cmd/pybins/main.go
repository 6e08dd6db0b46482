package main

import "pybins/internal/cli"

func main() {
	cli.Execute()
}
