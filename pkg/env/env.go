// Package env reads process environment variables with defaults, for
// the few lookups that happen before config parsing.
package env

import "os"

// Get returns the named variable's value, or fallback when unset or
// empty.
func Get(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}
