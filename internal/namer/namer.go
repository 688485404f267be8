// Package namer generates collision-free identifiers for code
// generation. Each back-end owns one Namer seeded with its dialect's
// reserved words; source identifiers that collide get a numeric suffix.
package namer

import (
	"fmt"
	"strings"
)

// Namer tracks used names and rewrites colliding or reserved ones.
type Namer struct {
	reserved map[string]struct{}
	used     map[string]struct{}

	// foldCase enables case-insensitive matching (HLSL keywords are
	// case-insensitive).
	foldCase bool

	counter uint32
}

// New creates a Namer seeded with the given reserved words.
func New(reserved map[string]struct{}, foldCase bool) *Namer {
	n := &Namer{
		reserved: reserved,
		used:     make(map[string]struct{}),
		foldCase: foldCase,
	}
	return n
}

func (n *Namer) key(name string) string {
	if n.foldCase {
		return strings.ToLower(name)
	}
	return name
}

// IsReserved reports whether name is a reserved word in the target.
func (n *Namer) IsReserved(name string) bool {
	_, ok := n.reserved[n.key(name)]
	return ok
}

// Reserve marks a name as taken without renaming it.
func (n *Namer) Reserve(name string) {
	n.used[n.key(name)] = struct{}{}
}

// Call returns a usable identifier for base, renaming it when base is
// reserved or already taken. The second return reports whether a
// rename happened.
func (n *Namer) Call(base string) (string, bool) {
	if base == "" {
		base = "unnamed"
	}
	candidate := base
	if n.IsReserved(candidate) {
		candidate = candidate + "_"
	}
	if _, taken := n.used[n.key(candidate)]; !taken && !n.IsReserved(candidate) {
		n.used[n.key(candidate)] = struct{}{}
		return candidate, candidate != base
	}
	for {
		n.counter++
		next := fmt.Sprintf("%s_%d", strings.TrimSuffix(candidate, "_"), n.counter)
		if _, taken := n.used[n.key(next)]; !taken && !n.IsReserved(next) {
			n.used[n.key(next)] = struct{}{}
			return next, true
		}
	}
}
