// Package codec encodes free-form venture text for storage and transport.
// Descriptions arrive as arbitrary UTF-8, including quotes, newlines, and
// emoji, so persisted copies travel base64-encoded and decode back to the
// exact original bytes.
package codec

import (
	"encoding/base64"
	"fmt"
)

// Encode returns the transport encoding of s. Encode(s) followed by Decode
// returns s unchanged for every input, the empty string included.
func Encode(s string) string {
	return base64.StdEncoding.EncodeToString([]byte(s))
}

// Decode reverses Encode. Payloads that were not produced by Encode fail.
func Decode(s string) (string, error) {
	data, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return "", fmt.Errorf("decode transport payload: %w", err)
	}
	return string(data), nil
}
