package util

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/small-frappuccino/embedbuilder/pkg/log"
)

// WaitForInterrupt blocks until SIGINT or SIGTERM is received.
func WaitForInterrupt() {
	waitForInterruptContext(context.Background(), nil)
}

// waitForInterruptContext allows tests to inject a context that can be cancelled without real OS signals.
func waitForInterruptContext(parent context.Context, callback func()) {
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()
	log.ApplicationLogger().Info("Received interrupt; executing shutdown callback")

	if callback != nil {
		callback()
	}
}
