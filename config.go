package main

import (
	"os"
	"strconv"
	"time"

	log "github.com/sirupsen/logrus"
)

// envString returns the variable's value or the fallback when unset.
func envString(name, fallback string) string {
	if v := os.Getenv(name); v != "" {
		return v
	}
	return fallback
}

// envInt parses an integer variable, falling back when unset. Malformed
// values are fatal so misconfiguration fails at startup.
func envInt(name string, fallback int) int {
	v := os.Getenv(name)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Fatalf("invalid %s: %v", name, err)
	}
	return n
}

// envDur parses a duration variable, falling back when unset.
func envDur(name string, fallback time.Duration) time.Duration {
	v := os.Getenv(name)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		log.Fatalf("invalid %s: %v", name, err)
	}
	return d
}
