// Copyright 2022 Sylvain Müller. All rights reserved.
// Mount of this source code is governed by a Apache-2.0 license that can be found
// at https://github.com/tigerwill90/fox/blob/master/LICENSE.txt.

package hypergraph

import (
	"sync"

	"github.com/google/uuid"
)

// VertexKey is the opaque identity of a vertex, stable across the graph's
// lifetime even though VertexIndex values are only meaningful within a
// single Store.
type VertexKey = uuid.UUID

// Parent records, for one parent vertex of a child, every (pattern_id,
// sub_index) slot in the parent through which the child is reached, plus the
// parent's own width (cached so descendants can compare widths without an
// extra lookup).
type Parent struct {
	// PatternIndices maps pattern id to the set of sub-indices at which the
	// child occurs in that pattern (almost always a single sub-index, but a
	// pattern may legally reference the same child more than once).
	PatternIndices map[PatternId]map[SubIndex]struct{}
	Width          uint64
}

func newParent(width uint64) *Parent {
	return &Parent{PatternIndices: make(map[PatternId]map[SubIndex]struct{}), Width: width}
}

func (p *Parent) add(pid PatternId, sub SubIndex) {
	set, ok := p.PatternIndices[pid]
	if !ok {
		set = make(map[SubIndex]struct{})
		p.PatternIndices[pid] = set
	}
	set[sub] = struct{}{}
}

func (p *Parent) has(pid PatternId, sub SubIndex) bool {
	set, ok := p.PatternIndices[pid]
	if !ok {
		return false
	}
	_, ok = set[sub]
	return ok
}

// Vertex is the store's node type: either an atom (no child patterns, width
// 1) or a compound vertex carrying one or more alternate decompositions
// (child patterns) that all expand to the same width-length atom sequence.
//
// Vertex owns its own lock so that readers of distinct vertices never
// contend with each other; all mutation of a
// Vertex's Patterns/Parents maps must hold mu.
type Vertex struct {
	mu sync.RWMutex

	Index VertexIndex
	Key   VertexKey
	Width uint64

	// Patterns maps PatternId to an ordered sequence of child tokens. Once
	// added, a pattern is immutable; new patterns may only be appended.
	Patterns map[PatternId]Pattern
	// Parents maps parent vertex index to the Parent relation.
	Parents map[VertexIndex]*Parent

	nextPatternId PatternId
}

// IsAtom reports whether the vertex is a width-1 leaf with no decomposition.
func (v *Vertex) IsAtom() bool {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return len(v.Patterns) == 0 && v.Width == 1
}

// Token returns the (index, width) pair identifying this vertex.
func (v *Vertex) Token() Token {
	return Token{Index: v.Index, Width: v.Width}
}

// ChildPatterns returns a snapshot copy of the vertex's patterns.
func (v *Vertex) ChildPatterns() map[PatternId]Pattern {
	v.mu.RLock()
	defer v.mu.RUnlock()
	out := make(map[PatternId]Pattern, len(v.Patterns))
	for k, p := range v.Patterns {
		cp := make(Pattern, len(p))
		copy(cp, p)
		out[k] = cp
	}
	return out
}

// Pattern returns a single pattern by id.
func (v *Vertex) Pattern(pid PatternId) (Pattern, bool) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	p, ok := v.Patterns[pid]
	if !ok {
		return nil, false
	}
	cp := make(Pattern, len(p))
	copy(cp, p)
	return cp, true
}

// FirstPattern returns the lowest-numbered pattern id and its sequence; used
// whenever a single canonical decomposition is needed (expansion, default
// traversal). Patterns is never empty for a compound vertex.
func (v *Vertex) FirstPattern() (PatternId, Pattern, bool) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	var best PatternId
	found := false
	for pid := range v.Patterns {
		if !found || pid < best {
			best = pid
			found = true
		}
	}
	if !found {
		return 0, nil, false
	}
	p := v.Patterns[best]
	cp := make(Pattern, len(p))
	copy(cp, p)
	return best, cp, true
}

// ParentsSnapshot returns a snapshot copy of the vertex's parent relations.
func (v *Vertex) ParentsSnapshot() map[VertexIndex]*Parent {
	v.mu.RLock()
	defer v.mu.RUnlock()
	out := make(map[VertexIndex]*Parent, len(v.Parents))
	for idx, p := range v.Parents {
		cp := &Parent{Width: p.Width, PatternIndices: make(map[PatternId]map[SubIndex]struct{}, len(p.PatternIndices))}
		for pid, subs := range p.PatternIndices {
			s := make(map[SubIndex]struct{}, len(subs))
			for k := range subs {
				s[k] = struct{}{}
			}
			cp.PatternIndices[pid] = s
		}
		out[idx] = cp
	}
	return out
}

// findPatternLocked returns the id of an existing pattern with exactly the
// same child tokens, if any. Callers must hold v.mu (read or write).
func (v *Vertex) findPatternLocked(children Pattern) (PatternId, bool) {
	for pid, p := range v.Patterns {
		if len(p) != len(children) {
			continue
		}
		same := true
		for i := range p {
			if p[i] != children[i] {
				same = false
				break
			}
		}
		if same {
			return pid, true
		}
	}
	return 0, false
}

// addPatternLocked appends a new pattern under the vertex lock and returns
// its id. Callers must already hold v.mu (write).
func (v *Vertex) addPatternLocked(children Pattern) PatternId {
	pid := v.nextPatternId
	v.nextPatternId++
	cp := make(Pattern, len(children))
	copy(cp, children)
	v.Patterns[pid] = cp
	return pid
}

// addParentLocked records that this vertex occurs as child `sub` of pattern
// `pid` owned by `parent` (width parentWidth). Callers must hold v.mu
// (write).
func (v *Vertex) addParentLocked(parent VertexIndex, parentWidth uint64, pid PatternId, sub SubIndex) {
	p, ok := v.Parents[parent]
	if !ok {
		p = newParent(parentWidth)
		v.Parents[parent] = p
	}
	p.add(pid, sub)
}
