// Package litfmt normalizes numeric literal spellings across dialects.
// Each dialect accepts a slightly different suffix set, so back-ends
// emit a neutral spelling that every target parses to the same value.
package litfmt

import "strings"

// Float renders a float literal without dialect-specific suffixes,
// guaranteeing a '.' or exponent so the target still lexes a float.
// "1f" becomes "1.0", "1.5h" becomes "1.5", "1e3" stays "1e3".
func Float(text string) string {
	base := strings.TrimRight(text, "fFhH")
	if base == "" {
		return "0.0"
	}
	if strings.ContainsAny(base, ".eE") {
		if strings.HasSuffix(base, ".") {
			return base + "0"
		}
		return base
	}
	return base + ".0"
}

// Int renders an int literal, dropping the WGSL 'i' suffix that other
// dialects reject. The 'u' suffix is valid everywhere and kept.
func Int(text string) string {
	return strings.TrimSuffix(text, "i")
}
