package main

import (
	"os"

	"github.com/ggonzalez94/eth-trading-mcp/internal/app"
)

func main() {
	runner := app.NewRunner()
	os.Exit(runner.Run(os.Args[1:]))
}
