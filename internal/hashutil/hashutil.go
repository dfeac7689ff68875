package hashutil

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
)

// HashStrings returns a SHA256 hash of the provided strings with newline separators.
func HashStrings(parts ...string) string {
	h := sha256.New()
	for _, p := range parts {
		h.Write([]byte(p))
		h.Write([]byte{'\n'})
	}
	return hex.EncodeToString(h.Sum(nil))
}

// HashMap returns a SHA256 hash of a payload's canonical JSON encoding.
// encoding/json sorts map keys, so equal payloads hash equally regardless of
// insertion order. Used for change detection on stored raw payloads.
func HashMap(m map[string]any) string {
	b, err := json.Marshal(m)
	if err != nil {
		return ""
	}
	return HashStrings(string(b))
}
