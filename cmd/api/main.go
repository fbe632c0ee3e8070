package main

import (
	"os"

	"dgcreview/api/internal/cli"
)

func main() {
	os.Exit(cli.Run())
}
