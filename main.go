package main

import (
	"github.com/simtim-dev/eagleview/cmd"
	"github.com/simtim-dev/eagleview/internal/logging"
)

func main() {
	// Initialize logging
	logging.Init()
	cmd.Execute()
}
