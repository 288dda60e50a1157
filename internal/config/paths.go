package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// resolveDir expands environment variables and a leading ~ in dir and makes
// it absolute, so the data directory does not depend on later chdirs. An
// empty dir stays empty.
func resolveDir(dir string) (string, error) {
	dir = strings.TrimSpace(dir)
	if dir == "" {
		return "", nil
	}
	dir = expandHome(os.ExpandEnv(dir))
	if filepath.IsAbs(dir) {
		return filepath.Clean(dir), nil
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("resolving %s: %w", dir, err)
	}
	return abs, nil
}

// expandHome replaces a leading "~" or "~/" with the home directory. It
// leaves the path alone when the home directory is unknown.
func expandHome(p string) string {
	if p != "~" && !strings.HasPrefix(p, "~/") && !strings.HasPrefix(p, `~\`) {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return p
	}
	return filepath.Join(home, p[1:])
}
