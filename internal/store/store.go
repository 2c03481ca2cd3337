package store

import "time"

// Storage is the key-value backend of the reference server. Values are binary safe
type Storage interface {
	// Get returns the value and true if the key is found and not expired
	Get(key string) ([]byte, bool)

	// Set writes the value. A ttl of zero or less keeps the key forever
	Set(key string, value []byte, ttl time.Duration)

	// Delete deletes the key. Returns true if the key existed
	Delete(key string) bool
}
