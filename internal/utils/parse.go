// Package utils provides small parsing helpers shared by the HTTP layer.
// They are independent of domain or business logic.
package utils

import "strconv"

// AtoiDefault converts s with strconv.Atoi, returning def when s is empty
// or not an integer.
//
//	n := utils.AtoiDefault("42", 0) // 42
//	n = utils.AtoiDefault("", 10)   // 10
//	n = utils.AtoiDefault("x", 5)   // 5
func AtoiDefault(s string, def int) int {
	if s == "" {
		return def
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}
	return def
}

// ParseID parses a path identifier made only of decimal digits. Signs,
// spaces and values overflowing a uint are rejected.
func ParseID(s string) (uint, bool) {
	if s == "" {
		return 0, false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return 0, false
		}
	}
	n, err := strconv.ParseUint(s, 10, strconv.IntSize)
	if err != nil {
		return 0, false
	}
	return uint(n), true
}
