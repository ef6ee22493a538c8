package snapshot

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/gowebpki/jcs"
)

// Digest returns the sha256 of the RFC 8785 canonical JSON form of s.
func Digest(s Snapshot) (string, error) {
	raw, err := json.Marshal(s)
	if err != nil {
		return "", fmt.Errorf("marshal snapshot: %w", err)
	}
	canonical, err := jcs.Transform(raw)
	if err != nil {
		return "", fmt.Errorf("canonicalize snapshot: %w", err)
	}
	sum := sha256.Sum256(canonical)
	return hex.EncodeToString(sum[:]), nil
}

// FromJSON decodes and validates a stored snapshot payload. Invalid JSON
// yields Empty.
func FromJSON(data []byte) Snapshot {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return Empty()
	}
	return Validate(raw)
}
