// Package dataset provides the built-in two-input truth tables used to train
// and check small networks.
package dataset

import (
	"fmt"
	"sort"
	"strings"
)

// Sample pairs an input vector with the output the network should produce.
type Sample struct {
	Input  []float64 `json:"input"`
	Output []float64 `json:"output"`
}

type Set []Sample

// Clone deep-copies the set so callers may reorder or edit it.
func (s Set) Clone() Set {
	out := make(Set, len(s))
	for i, sample := range s {
		out[i] = Sample{
			Input:  append([]float64(nil), sample.Input...),
			Output: append([]float64(nil), sample.Output...),
		}
	}
	return out
}

type gate func(a, b bool) bool

var gates = map[string]gate{
	"xor":  func(a, b bool) bool { return a != b },
	"and":  func(a, b bool) bool { return a && b },
	"or":   func(a, b bool) bool { return a || b },
	"nand": func(a, b bool) bool { return !(a && b) },
	"nor":  func(a, b bool) bool { return !(a || b) },
}

// Get returns the truth table for a gate name such as "xor" or "NAND".
func Get(name string) (Set, error) {
	fn, ok := gates[strings.TrimSpace(strings.ToLower(name))]
	if !ok {
		return nil, fmt.Errorf("unsupported dataset: %s", name)
	}

	set := make(Set, 0, 4)
	for _, in := range [][2]bool{{false, false}, {false, true}, {true, false}, {true, true}} {
		set = append(set, Sample{
			Input:  []float64{bit(in[0]), bit(in[1])},
			Output: []float64{bit(fn(in[0], in[1]))},
		})
	}
	return set, nil
}

func Names() []string {
	names := make([]string, 0, len(gates))
	for name := range gates {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func bit(v bool) float64 {
	if v {
		return 1
	}
	return 0
}
