// Copyright 2022 Sylvain Müller. All rights reserved.
// Mount of this source code is governed by a Apache-2.0 license that can be found
// at https://github.com/tigerwill90/fox/blob/master/LICENSE.txt.

package hypergraph

import (
	lru "github.com/hashicorp/golang-lru/v2"
)

// CacheKey is the (vertex_index, AtomPosition) pair the trace cache is
// keyed on.
type CacheKey struct {
	Vertex   VertexIndex
	Position AtomPosition
}

// CacheEntry records how a (vertex, position) key was reached: the key
// immediately before it along the traversal direction, the atom delta
// between them, and the ChildLocations explored from this point (parents
// entered, for the up direction; children traversed, for the down
// direction).
type CacheEntry struct {
	PrevKey   *CacheKey
	AtomDelta uint64
	Edges     []ChildLocation
}

func (e *CacheEntry) hasEdge(loc ChildLocation) bool {
	for _, l := range e.Edges {
		if l == loc {
			return true
		}
	}
	return false
}

// TraceCache records directed (up/down) exploration keyed by (vertex,
// position). The fold writes the terminal's provenance into it once a
// terminal is chosen; the fold does not read it back during traversal, so a
// re-reached (vertex, position) is recomputed rather than answered from the
// cache.
type TraceCache struct {
	Up   *lru.Cache[CacheKey, *CacheEntry]
	Down *lru.Cache[CacheKey, *CacheEntry]
}

// NewTraceCache builds a TraceCache bounded to size entries per direction.
func NewTraceCache(size int) *TraceCache {
	if size <= 0 {
		size = defaultTraceCacheSize
	}
	up, err := lru.New[CacheKey, *CacheEntry](size)
	if err != nil {
		invariant("trace cache: invalid size %d: %v", size, err)
	}
	down, err := lru.New[CacheKey, *CacheEntry](size)
	if err != nil {
		invariant("trace cache: invalid size %d: %v", size, err)
	}
	return &TraceCache{Up: up, Down: down}
}

func cacheFor(tc *TraceCache, dir CacheDirection) *lru.Cache[CacheKey, *CacheEntry] {
	if dir == DirUp {
		return tc.Up
	}
	return tc.Down
}

// CacheDirection selects the up (bottom-up, parents entered) or down
// (top-down, children traversed) cache.
type CacheDirection int

const (
	DirUp CacheDirection = iota
	DirDown
)

// AddEdge idempotently records that, while exploring key in direction dir,
// the traversal crossed edge. prev/delta describe the key immediately
// before this one along the traversal, used to reconstruct provenance
// chains.
func (tc *TraceCache) AddEdge(dir CacheDirection, key CacheKey, edge ChildLocation, prev *CacheKey, delta uint64) {
	c := cacheFor(tc, dir)
	entry, ok := c.Get(key)
	if !ok {
		entry = &CacheEntry{PrevKey: prev, AtomDelta: delta}
		c.Add(key, entry)
	}
	if !entry.hasEdge(edge) {
		entry.Edges = append(entry.Edges, edge)
	}
}

// Get looks up the entry recorded for key in direction dir.
func (tc *TraceCache) Get(dir CacheDirection, key CacheKey) (*CacheEntry, bool) {
	return cacheFor(tc, dir).Get(key)
}

// PrefixCommand walks role's frame of path top-down from the root,
// recording each ChildLocation crossed as a DownCache edge keyed by the
// atom position at which it was entered. Used to populate provenance for
// the start (lower-bound) side of a match.
func PrefixCommand(tc *TraceCache, src PatternSource, path Path, role Role, pos AtomPosition) {
	sp := path.subPath(role)
	rootVertex := path.IndexRoot.Vertex
	cur := pos
	var prev *CacheKey
	key := CacheKey{Vertex: rootVertex, Position: cur}
	for _, loc := range sp.Locs {
		pattern, ok := src.ChildPattern(loc.Parent, loc.Pattern)
		if !ok {
			return
		}
		delta := pattern.OffsetOf(loc.Sub)
		tc.AddEdge(DirDown, key, loc, prev, delta)
		prev = &CacheKey{Vertex: key.Vertex, Position: key.Position}
		cur += AtomPosition(delta)
		key = CacheKey{Vertex: loc.Parent, Position: cur}
	}
}

// PostfixCommand walks role's frame of path bottom-up from the leaf,
// recording each ChildLocation crossed as an UpCache edge. Used to populate
// provenance for the end (upper-bound) side of a match.
func PostfixCommand(tc *TraceCache, src PatternSource, path Path, role Role, pos AtomPosition) {
	sp := path.subPath(role)
	cur := pos
	var prev *CacheKey
	for i := len(sp.Locs) - 1; i >= 0; i-- {
		loc := sp.Locs[i]
		pattern, ok := src.ChildPattern(loc.Parent, loc.Pattern)
		if !ok {
			return
		}
		child := pattern[loc.Sub]
		key := CacheKey{Vertex: child.Index, Position: cur}
		delta := pattern.Width() - pattern.OffsetOf(loc.Sub) - child.Width
		tc.AddEdge(DirUp, key, loc, prev, delta)
		prev = &CacheKey{Vertex: key.Vertex, Position: key.Position}
		cur += AtomPosition(delta)
	}
}

// RangeCommand traces both frames of a range path: PrefixCommand for Start,
// PostfixCommand for End, populating DownCache/UpCache respectively so a
// completed fold's provenance can be replayed without recomputation.
func RangeCommand(tc *TraceCache, src PatternSource, path Path, startPos, endPos AtomPosition) {
	PrefixCommand(tc, src, path, RoleStart, startPos)
	PostfixCommand(tc, src, path, RoleEnd, endPos)
}
