// Package transform rewrites a parsed module from one dialect's
// conventions to another's: built-in function mapping, combined-sampler
// splitting and folding, entry-point IO reshaping, and resource binding
// remapping. The function mappings are data, embedded YAML tables per
// language pair; the engine itself knows only the handful of rewrites
// no table can express.
package transform

import (
	"fmt"
	"sort"

	"github.com/gogpu/shaderconv/ast"
)

// Rule maps one source-dialect call form to a target-dialect call form.
// Zero fields mean "no change": an empty Replace keeps the callee name,
// nil Args keeps the argument order.
type Rule struct {
	// Match is the source callee name.
	Match string `yaml:"match"`

	// FromMethod restricts the rule to method-form calls (obj.Sample).
	// Method calls carry the receiver as argument 0.
	FromMethod bool `yaml:"from_method"`

	// Argc restricts the rule to calls with exactly this many
	// arguments, receiver included. 0 matches any count.
	Argc int `yaml:"argc"`

	// Replace is the target callee name.
	Replace string `yaml:"replace"`

	// Method emits the target call in method form; argument 0 becomes
	// the receiver.
	Method bool `yaml:"method"`

	// Args permutes arguments: each entry is an index into the source
	// argument list. Source arguments not listed are dropped.
	Args []int `yaml:"args"`

	// AppendArgs adds literal arguments after the permuted ones, e.g.
	// the 0.0/1.0 bounds when saturate becomes clamp.
	AppendArgs []string `yaml:"append_args"`

	// SynthesizeSampler inserts the receiver texture's synthesized
	// sampler as argument 1, for combined-to-separate conversion.
	SynthesizeSampler bool `yaml:"synthesize_sampler"`

	// MinGLSLVersion gates the rule on the requested #version; below it
	// the call is unsupported.
	MinGLSLVersion int `yaml:"min_glsl_version"`

	// MinShaderModel gates the rule on the requested HLSL shader model.
	MinShaderModel string `yaml:"min_shader_model"`

	// Unsupported marks the construct as having no target equivalent;
	// the value is the reason reported to the user.
	Unsupported string `yaml:"unsupported"`

	// Note is a warning attached to the converted call when the mapping
	// is close but not exact.
	Note string `yaml:"note"`

	// Priority breaks overlaps: the highest matching rule wins. Ties
	// between rules that can match the same call are a load-time error.
	Priority int `yaml:"priority"`
}

// Table is the rule set for one source/target language pair.
type Table struct {
	Source ast.Language
	Target ast.Language

	Rules []Rule `yaml:"rules"`

	index map[string][]Rule
}

// build indexes the rules by callee name, sorted by descending
// priority, and rejects ambiguous tables.
func (t *Table) build() error {
	t.index = make(map[string][]Rule, len(t.Rules))
	for _, r := range t.Rules {
		if r.Match == "" {
			return fmt.Errorf("%s->%s: rule with empty match", t.Source, t.Target)
		}
		t.index[r.Match] = append(t.index[r.Match], r)
	}
	for name, rules := range t.index {
		sort.SliceStable(rules, func(i, j int) bool {
			return rules[i].Priority > rules[j].Priority
		})
		for i := 1; i < len(rules); i++ {
			a, b := rules[i-1], rules[i]
			if a.Priority == b.Priority && a.FromMethod == b.FromMethod && a.Argc == b.Argc {
				return fmt.Errorf("%s->%s: ambiguous rules for %q at priority %d",
					t.Source, t.Target, name, a.Priority)
			}
		}
	}
	return nil
}

// lookup returns the highest-priority rule matching a call.
func (t *Table) lookup(name string, method bool, argc int) (Rule, bool) {
	for _, r := range t.index[name] {
		if r.FromMethod != method {
			continue
		}
		if r.Argc != 0 && r.Argc != argc {
			continue
		}
		return r, true
	}
	return Rule{}, false
}
