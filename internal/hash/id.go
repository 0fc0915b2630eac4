// Package hash derives stable 64-bit identifiers for composite string
// tuples, used to key conditioning groups without retaining the tuple.
package hash

import "github.com/cespare/xxhash/v2"

// unit separator, cannot appear in column values read from tabular data
const keySep = "\x1f"

// ID computes the xxHash64 of the given string.
func ID(data string) uint64 {
	return xxhash.Sum64String(data)
}

// GroupKey computes a single xxHash64 key for a tuple of conditioning
// values. The values are length-prefix-free but separator-joined, so
// ("a", "bc") and ("ab", "c") hash differently.
func GroupKey(values []string) uint64 {
	var d xxhash.Digest
	d.Reset()
	for i, v := range values {
		if i > 0 {
			_, _ = d.WriteString(keySep)
		}
		_, _ = d.WriteString(v)
	}

	return d.Sum64()
}

// Canonical returns the separator-joined form of a tuple of conditioning
// values. It is retained alongside the hashed key so that hash collisions
// surface as lookup misses instead of silently mixed groups.
func Canonical(values []string) string {
	switch len(values) {
	case 0:
		return ""
	case 1:
		return values[0]
	}

	n := len(keySep) * (len(values) - 1)
	for _, v := range values {
		n += len(v)
	}

	buf := make([]byte, 0, n)
	for i, v := range values {
		if i > 0 {
			buf = append(buf, keySep...)
		}
		buf = append(buf, v...)
	}

	return string(buf)
}
