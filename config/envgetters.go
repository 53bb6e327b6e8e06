package config

import (
	"os"
)

func PprofDebugEnabled() bool {
	_, ok := os.LookupEnv("DECKPREP_PPROF_DEBUG_ENABLED")
	return ok
}

func NoopAuthEnabled() bool {
	_, ok := os.LookupEnv("NOOP_AUTH")
	return ok
}
