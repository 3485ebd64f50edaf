package common

import (
	"strconv"
	"strings"
)

// ParseBlockNumber parses a block number written in decimal or as 0x-prefixed hex.
// Surrounding whitespace is ignored.
func ParseBlockNumber(s string) (uint64, error) {
	s = strings.TrimSpace(s)

	if hex, ok := strings.CutPrefix(strings.ToLower(s), "0x"); ok {
		return strconv.ParseUint(hex, 16, 64)
	}

	return strconv.ParseUint(s, 10, 64)
}

// NormalizeName lowercases s and trims surrounding whitespace.
func NormalizeName(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
