package main

import "github.com/hubsync/hubsync/internal/cli"

func main() {
	cli.Execute()
}
