package config

import (
	"os"
	"path/filepath"
)

func GetRuntimePath() string {
	path := os.Getenv("AMORA_RUNTIME_PATH")
	if path == "" {
		path = ".amora"
	}

	if !filepath.IsAbs(path) {
		home, _ := os.UserHomeDir()
		path = filepath.Join(home, path)
	}
	return path
}
