package plist

import (
	"encoding/hex"

	"github.com/zeebo/blake3"
)

// Fingerprint returns the BLAKE3-256 digest of the canonical text of v.
// Two trees have the same fingerprint exactly when they are Equal.
func Fingerprint(v *Value) ([32]byte, error) {
	text, err := Serialize(v)
	if err != nil {
		return [32]byte{}, err
	}
	return blake3.Sum256([]byte(text)), nil
}

// FingerprintHex returns Fingerprint as lowercase hex.
func FingerprintHex(v *Value) (string, error) {
	sum, err := Fingerprint(v)
	if err != nil {
		return "", err
	}
	return hex.EncodeToString(sum[:]), nil
}
