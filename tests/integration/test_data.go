//go:build integration

package integration

import (
	"fmt"
	"time"
)

// TestUser generates unique test credentials using a timestamp
func TestUser(suffix string) (email, password string) {
	ts := time.Now().UnixNano()
	email = fmt.Sprintf("test-%d-%s@example.com", ts, suffix)
	password = "TestPassword123!"
	return
}

// TestContact returns a valid contact form body
func TestContact(suffix string) map[string]string {
	return map[string]string{
		"fullName": "Contact " + suffix,
		"email":    fmt.Sprintf("Lead-%s@Example.com", suffix),
		"phone":    "+33 6 12 34 56 78",
	}
}
