package instance

import (
	"os"
	"strings"
)

// GetID returns the instance identifier reported by /health.
// INSTANCE_ID wins, then the hostname.
func GetID() string {
	if id := strings.TrimSpace(os.Getenv("INSTANCE_ID")); id != "" {
		return id
	}
	host, err := os.Hostname()
	if err != nil || host == "" {
		return "api-0"
	}
	return host
}
