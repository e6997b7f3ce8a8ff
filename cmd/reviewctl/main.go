package main

import (
	"os"

	"github.com/noah-isme/entity-review-api/internal/cli"
)

func main() {
	os.Exit(cli.Run())
}
