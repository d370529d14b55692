// Package env reads process environment variables with fallbacks, for the
// few settings consulted before config loading is available.
package env

import (
	"os"
	"strings"
)

// Get returns the named variable or fallback when it is unset or blank.
func Get(key, fallback string) string {
	if val := strings.TrimSpace(os.Getenv(key)); val != "" {
		return val
	}
	return fallback
}
