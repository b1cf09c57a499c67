package domain

import "strings"

// NormalizeName trims leading/trailing whitespace and collapses internal
// whitespace runs. It is applied to every profile name before validation.
func NormalizeName(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
