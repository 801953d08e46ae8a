package main

import "sentinela/internal/cli"

func main() {
	cli.Execute()
}
