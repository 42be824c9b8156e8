package main

import (
	"os"

	"github.com/small-frappuccino/embedbuilder/pkg/app"
	"github.com/small-frappuccino/embedbuilder/pkg/log"
)

// main is the entry point of the embed builder bot.
func main() {
	if err := app.Run("embedbuilder"); err != nil {
		log.ErrorLoggerRaw().Error("Fatal error", "error", err)
		os.Exit(1)
	}
}
