// Package codec holds the at-rest encoding for message bodies.
//
// The encoding is obfuscation only. It keeps message text from being
// readable at a glance in the database; it does not provide
// confidentiality and must not be described as encryption.
package codec

import (
	"encoding/base64"
	"fmt"
	"unicode/utf8"
)

type Obfuscator interface {
	Encode(plain string) string
	Decode(stored string) (string, error)
}

// Base64Obfuscator stores the UTF-8 bytes in standard padded base64.
type Base64Obfuscator struct{}

func NewBase64Obfuscator() Base64Obfuscator {
	return Base64Obfuscator{}
}

func (Base64Obfuscator) Encode(plain string) string {
	return base64.StdEncoding.EncodeToString([]byte(plain))
}

func (Base64Obfuscator) Decode(stored string) (string, error) {
	raw, err := base64.StdEncoding.DecodeString(stored)
	if err != nil {
		return "", fmt.Errorf("decode message body: %w", err)
	}
	if !utf8.Valid(raw) {
		return "", fmt.Errorf("decode message body: invalid utf-8")
	}
	return string(raw), nil
}
