package buildsystem

import "github.com/cespare/xxhash/v2"

// hashString computes the hash contribution of a single string to a
// command signature.
func hashString(s string) uint64 {
	return xxhash.Sum64String(s)
}
