package entity

import "strings"

// NormalizeUserID strips the device suffix from a raw channel address:
// everything from the first colon onward is dropped. All store and
// authorization lookups use the normalized form.
func NormalizeUserID(raw string) string {
	if i := strings.Index(raw, ":"); i >= 0 {
		return raw[:i]
	}
	return raw
}
