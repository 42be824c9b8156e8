package errutil

import (
	"errors"
	"fmt"

	"github.com/small-frappuccino/embedbuilder/pkg/log"
)

// HandleDiscordError executes fn and logs any error as a Discord-related error.
// The error is returned unmodified.
func HandleDiscordError(operation string, fn func() error) error {
	if fn == nil {
		return errors.New("nil function provided")
	}
	err := fn()
	if err != nil {
		log.DiscordLogger().Error("Discord operation failed", "operation", operation, "error", err)
	}
	return err
}

// HandleStoreError executes fn and logs any error as a storage error. The
// returned error carries the operation and wraps the original.
func HandleStoreError(operation string, fn func() error) error {
	if fn == nil {
		return errors.New("nil function provided")
	}
	err := fn()
	if err == nil {
		return nil
	}
	log.DatabaseLogger().Error("Store operation failed", "operation", operation, "error", err)
	return fmt.Errorf("store %s: %w", operation, err)
}

// HandleConfigError executes fn and logs any error as a configuration error.
func HandleConfigError(operation, path string, fn func() error) error {
	if fn == nil {
		return errors.New("nil function provided")
	}
	err := fn()
	if err == nil {
		return nil
	}
	log.ErrorLoggerRaw().Error("Config operation failed", "operation", operation, "path", path, "error", err)
	return fmt.Errorf("config %s %s: %w", operation, path, err)
}
