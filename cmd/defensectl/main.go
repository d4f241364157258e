package main

import (
	"os"

	"go.uber.org/zap"
)

func main() {
	logr, err := zap.NewDevelopment()
	if err != nil {
		logr = zap.NewNop()
	}
	defer logr.Sync() //nolint:errcheck

	if err := newRootCommand(logr).Execute(); err != nil {
		os.Exit(1)
	}
}
