package utils

import (
	"crypto/sha256"
	"encoding/hex"
)

// ContentHasher fingerprints uploaded files and credentials
// Follows Single Responsibility Principle - only handles content hashing
type ContentHasher struct{}

// NewContentHasher creates a new content hasher instance
func NewContentHasher() *ContentHasher {
	return &ContentHasher{}
}

// CalculateContentHash returns the hex SHA-256 of data
// This is the single source of truth for upload identity in the application
func (h *ContentHasher) CalculateContentHash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// CalculateContentHashShort returns the first 8 hex characters of the content hash
// Useful for logging and display purposes
func (h *ContentHasher) CalculateContentHashShort(data []byte) string {
	return h.CalculateContentHash(data)[:8]
}

// Global instance for convenience
var globalHasher = NewContentHasher()

// CalculateContentHash is a convenience function that uses the global hasher
func CalculateContentHash(data []byte) string {
	return globalHasher.CalculateContentHash(data)
}

// CalculateContentHashShort is a convenience function that uses the global hasher
func CalculateContentHashShort(data []byte) string {
	return globalHasher.CalculateContentHashShort(data)
}
