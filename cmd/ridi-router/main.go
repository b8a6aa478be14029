package main

import (
	"fmt"
	"os"

	"github.com/ridi-bike/ridi-router/cmd/ridi-router/cmd"
	"github.com/ridi-bike/ridi-router/internal/logger"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		logger.Sync()
		os.Exit(cmd.ExitCodeOf(err))
	}
	logger.Sync()
}
