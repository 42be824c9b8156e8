package util

import (
	"os"
	"path/filepath"
	"strings"
)

// DefaultAppName names the per-user directories when none is configured.
const DefaultAppName = "embedbuilder"

// CacheDir returns the per-user cache directory for appName.
func CacheDir(appName string) string {
	base, err := os.UserCacheDir()
	if err != nil || base == "" {
		base = filepath.Join(homeDir(), ".cache")
	}
	return filepath.Join(base, sanitizeAppNameForPath(appName))
}

// LogDir returns the directory rotating log files are written to.
func LogDir(appName string) string {
	return filepath.Join(CacheDir(appName), "logs")
}

// SQLitePath is the default database file of the SQLite store.
func SQLitePath(appName string) string {
	return filepath.Join(CacheDir(appName), "embeds.db")
}

func homeDir() string {
	if h := strings.TrimSpace(os.Getenv("HOME")); h != "" {
		return h
	}
	if h, err := os.UserHomeDir(); err == nil && strings.TrimSpace(h) != "" {
		return h
	}
	return "."
}

// sanitizeAppNameForPath normalizes an application name so it is safe as a single
// directory segment across platforms.
func sanitizeAppNameForPath(name string) string {
	n := strings.TrimSpace(name)
	n = strings.NewReplacer("/", "-", "\\", "-", "\x00", "").Replace(n)
	n = strings.TrimSpace(n)
	if n == "" || n == "." || n == ".." {
		return DefaultAppName
	}
	return n
}
