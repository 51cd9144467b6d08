package utils

import (
	"os"
	"os/user"
)

// GetUsername returns the current username, or "unknown".
func GetUsername() string {
	u, err := user.Current()
	if err != nil || u.Username == "" {
		return "unknown"
	}
	return u.Username
}

// GetHostname returns the system hostname, or "unknown".
func GetHostname() string {
	hostname, err := os.Hostname()
	if err != nil || hostname == "" {
		return "unknown"
	}
	return hostname
}
