// Package checksum provides the content hash used for snapshot
// deduplication and If-Match optimistic concurrency.
package checksum

import (
	"crypto/sha256"
	"encoding/hex"
)

// Sum returns the hex-encoded SHA-256 digest of data. Documents are small
// (markdown files), so hashing whole byte slices is fine.
func Sum(data []byte) string {
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}
