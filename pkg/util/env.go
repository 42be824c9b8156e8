package util

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
)

// LoadEnvWithLocalBinFallback ensures the specified environment variable is present.
// It populates missing variables from $HOME/.local/bin/.env and then from a .env in
// the working directory, never overwriting variables that are already set, and
// returns the value of tokenEnvName.
//
// Returns a descriptive error when the variable remains unset after both files
// were tried.
func LoadEnvWithLocalBinFallback(tokenEnvName string) (string, error) {
	var tried []string

	if home, err := os.UserHomeDir(); err == nil && home != "" {
		envPath := filepath.Join(home, ".local", "bin", ".env")
		tried = append(tried, envPath)
		loadIfFile(envPath)
	}
	tried = append(tried, ".env")
	loadIfFile(".env")

	if v := strings.TrimSpace(os.Getenv(tokenEnvName)); v != "" {
		return v, nil
	}
	return "", fmt.Errorf("environment variable %q not set; attempted to load %s", tokenEnvName, strings.Join(tried, ", "))
}

func loadIfFile(path string) {
	if info, err := os.Stat(path); err == nil && !info.IsDir() {
		// godotenv.Load will NOT override variables that are already set.
		_ = godotenv.Load(path)
	}
}
