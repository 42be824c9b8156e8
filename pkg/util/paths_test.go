package util

import (
	"path/filepath"
	"strings"
	"testing"
)

func TestSanitizeAppNameForPath(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in, want string
	}{
		{"embedbuilder", "embedbuilder"},
		{"  my/bot  ", "my-bot"},
		{`a\b`, "a-b"},
		{"", DefaultAppName},
		{"..", DefaultAppName},
		{"\x00", DefaultAppName},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()
			if got := sanitizeAppNameForPath(tt.in); got != tt.want {
				t.Fatalf("sanitizeAppNameForPath(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestDirectoriesNestUnderAppName(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("XDG_CACHE_HOME", "")

	cache := CacheDir("bot")
	if filepath.Base(cache) != "bot" {
		t.Fatalf("cache dir should end in app name, got %s", cache)
	}
	if !strings.HasPrefix(LogDir("bot"), cache) {
		t.Fatalf("log dir should live under cache dir")
	}
	if filepath.Base(SQLitePath("bot")) != "embeds.db" {
		t.Fatalf("unexpected sqlite path %s", SQLitePath("bot"))
	}
}
