package bundle

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
)

// ContentHash computes a stable SHA-256 digest of a normalized document.
// Serialization goes through canonical JSON, so map key order never leaks
// into the digest and identical content always hashes identically.
func ContentHash(doc any) (string, error) {
	data, err := json.Marshal(doc)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}

// ShortDigest returns the first 12 hex characters of the content hash,
// enough to derive compact content-addressed identifier segments.
func ShortDigest(parts ...string) string {
	sum := sha256.Sum256([]byte(joinParts(parts)))
	return hex.EncodeToString(sum[:])[:12]
}

func joinParts(parts []string) string {
	out := ""
	for i, p := range parts {
		if i > 0 {
			out += "\x1f"
		}
		out += p
	}
	return out
}
