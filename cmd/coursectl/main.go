package main

import (
	"os"

	"course-assistant/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
