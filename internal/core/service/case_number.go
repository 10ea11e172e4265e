package service

import (
	"crypto/rand"
	"fmt"
	"time"
)

const (
	caseNumberAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"
	caseNumberSuffix   = 6
)

// newCaseNumber returns CASE-<unix millis>-<6 random alphanumerics>.
// Uniqueness is probabilistic: two numbers collide only if they share the
// millisecond and all six suffix characters (62^6 combinations). The unique
// index on case_number turns a collision into a failed insert.
func newCaseNumber(now time.Time) (string, error) {
	suffix, err := randomAlphanumeric(caseNumberSuffix)
	if err != nil {
		return "", fmt.Errorf("generate case number: %w", err)
	}
	return fmt.Sprintf("CASE-%d-%s", now.UnixMilli(), suffix), nil
}

func randomAlphanumeric(n int) (string, error) {
	// 248 is the largest multiple of 62 below 256; higher bytes are
	// rejected so every character is equally likely.
	const limit = 256 - 256%len(caseNumberAlphabet)

	out := make([]byte, 0, n)
	buf := make([]byte, n*2)
	for len(out) < n {
		if _, err := rand.Read(buf); err != nil {
			return "", err
		}
		for _, b := range buf {
			if int(b) >= limit {
				continue
			}
			out = append(out, caseNumberAlphabet[int(b)%len(caseNumberAlphabet)])
			if len(out) == n {
				break
			}
		}
	}
	return string(out), nil
}
