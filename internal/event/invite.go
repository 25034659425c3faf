package event

import (
	"crypto/rand"
	"fmt"
	"strings"
)

const (
	inviteCodeLength   = 8
	inviteCodeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	// largest multiple of len(alphabet) below 256; bytes above it are rejected
	inviteCodeCutoff = 252
)

// NewInviteCode returns an 8-character uppercase alphanumeric code.
func NewInviteCode() (string, error) {
	code := make([]byte, 0, inviteCodeLength)
	buf := make([]byte, inviteCodeLength*2)
	for len(code) < inviteCodeLength {
		if _, err := rand.Read(buf); err != nil {
			return "", fmt.Errorf("read random bytes: %w", err)
		}
		for _, b := range buf {
			if b >= inviteCodeCutoff {
				continue
			}
			code = append(code, inviteCodeAlphabet[int(b)%len(inviteCodeAlphabet)])
			if len(code) == inviteCodeLength {
				break
			}
		}
	}
	return string(code), nil
}

// NormalizeInviteCode trims and uppercases user input.
func NormalizeInviteCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// ValidInviteCode reports whether code has the generated shape.
func ValidInviteCode(code string) bool {
	if len(code) != inviteCodeLength {
		return false
	}
	for i := 0; i < len(code); i++ {
		if strings.IndexByte(inviteCodeAlphabet, code[i]) < 0 {
			return false
		}
	}
	return true
}
