package main

import "stock-analyzer/internal/cli"

func main() {
	cli.Execute()
}
