package main

import (
	"os"

	appLog "tablecal/internal/log"
)

func main() {
	if err := Execute(); err != nil {
		appLog.Error("tablecal failed", err)
		os.Exit(1)
	}
}
