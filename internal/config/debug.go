package config

import "os"

func IsDebug() bool {
	return os.Getenv("AMORA_DEBUG") == "1"
}
