package main

import (
	"go-subxt/internal/cli"
)

func main() {
	cli.NewRootCommand().Execute()
}
