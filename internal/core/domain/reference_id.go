package domain

import (
	"strings"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

const (
	ReferenceIDPrefix    = "EXP_"
	referenceIDAlphabet  = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	referenceIDSuffixLen = 12
)

// NewReferenceID returns a prefixed token with a crypto-random suffix.
func NewReferenceID() string {
	return ReferenceIDPrefix + gonanoid.MustGenerate(referenceIDAlphabet, referenceIDSuffixLen)
}

func IsReferenceID(s string) bool {
	suffix, ok := strings.CutPrefix(s, ReferenceIDPrefix)
	if !ok || len(suffix) != referenceIDSuffixLen {
		return false
	}
	for _, r := range suffix {
		if !strings.ContainsRune(referenceIDAlphabet, r) {
			return false
		}
	}
	return true
}
