package config

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

const appName = "icepid"

func defaultLogDir() string {
	return resolveDefaultLogDir(runtime.GOOS, os.Getenv, os.UserHomeDir)
}

func resolveDefaultLogDir(goos string, getenv func(string) string, userHomeDir func() (string, error)) string {
	home, err := userHomeDir()
	if err != nil || strings.TrimSpace(home) == "" {
		return "logs"
	}
	switch goos {
	case "darwin":
		return filepath.Join(home, "Library", "Logs", appName)
	default:
		if state := strings.TrimSpace(getenv("XDG_STATE_HOME")); state != "" {
			return filepath.Join(state, appName, "logs")
		}
		return filepath.Join(home, ".local", "state", appName, "logs")
	}
}
