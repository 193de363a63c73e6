package helpers

import (
	"crypto/sha256"
	"encoding/hex"
	"slices"
	"strings"
)

// SHA256 returns the hex encoded sha256 digest of input.
func SHA256(input string) string {
	hash := sha256.Sum256([]byte(input))
	return hex.EncodeToString(hash[:])
}

// ScriptKey identifies a compiled script: the same source compiled against a
// different set of binding names resolves identifiers differently, so both are
// part of the key. The order of names does not matter.
func ScriptKey(source string, names []string) string {
	sorted := slices.Clone(names)
	slices.Sort(sorted)

	var b strings.Builder
	b.WriteString(source)
	for _, name := range sorted {
		b.WriteByte(0)
		b.WriteString(name)
	}
	return SHA256(b.String())
}
