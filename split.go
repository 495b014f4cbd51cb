// Copyright 2022 Sylvain Müller. All rights reserved.
// Mount of this source code is governed by a Apache-2.0 license that can be found
// at https://github.com/tigerwill90/fox/blob/master/LICENSE.txt.

package hypergraph

import "sync"

// PosKey memoizes a split computation by (vertex_index, offset).
type PosKey struct {
	Index  VertexIndex
	Offset uint64
}

// PositionKind classifies an offset's side relative to the partition range
// being carved out of the root: the range's lower boundary (Pre), an offset
// propagated into the interior of a boundary-straddling child (In), or the
// range's upper boundary (Post).
type PositionKind int

const (
	PositionPre PositionKind = iota
	PositionIn
	PositionPost
)

func (k PositionKind) String() string {
	switch k {
	case PositionPre:
		return "Pre"
	case PositionPost:
		return "Post"
	default:
		return "In"
	}
}

// SubSplitLocation describes where, within one pattern, an offset falls: at
// a clean child boundary (InnerOffset nil) or inside a child (InnerOffset
// set, requiring a recursive split of that child).
type SubSplitLocation struct {
	Location    SubLocation
	InnerOffset *uint64
}

// Clean reports whether the split coincides with a child boundary.
func (s SubSplitLocation) Clean() bool { return s.InnerOffset == nil }

// SplitPositionCache is the memoized result of splitting one vertex at one
// offset: one SubSplitLocation per child pattern of the vertex, plus the
// classification of the offset's side relative to the partition range that
// requested the split.
type SplitPositionCache struct {
	Positions map[PatternId]SubSplitLocation
	Kind      PositionKind
}

// SplitCache memoizes SplitPositionCache values by PosKey so that repeated
// recursive propagation (the same descendant split at the same offset,
// reached via more than one parent pattern) is computed once.
type SplitCache struct {
	mu      sync.Mutex
	entries map[PosKey]*SplitPositionCache
}

// NewSplitCache builds an empty SplitCache.
func NewSplitCache() *SplitCache {
	return &SplitCache{entries: make(map[PosKey]*SplitPositionCache)}
}

func (c *SplitCache) get(key PosKey) (*SplitPositionCache, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.entries[key]
	return v, ok
}

func (c *SplitCache) put(key PosKey, v *SplitPositionCache) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = v
}

// Leaves collects the PosKeys whose split resolved cleanly at every
// pattern, short-circuiting further recursive propagation.
type Leaves struct {
	mu   sync.Mutex
	keys map[PosKey]struct{}
}

// NewLeaves builds an empty Leaves set.
func NewLeaves() *Leaves {
	return &Leaves{keys: make(map[PosKey]struct{})}
}

func (l *Leaves) add(key PosKey) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.keys[key] = struct{}{}
}

// Contains reports whether key was recorded as a leaf.
func (l *Leaves) Contains(key PosKey) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, ok := l.keys[key]
	return ok
}

// ComputeSplit computes, for every child pattern of the vertex tok, the
// SubSplitLocation describing where offset falls, recursively propagating
// to any child whose split is not clean. kind records which side of the
// requesting partition range the offset sits on; recursive propagation into
// a boundary-straddling child always descends as In, since the inner offset
// is interior to that child's own expansion. offset must satisfy
// 0 < offset < tok.Width.
func (h *Hypergraph) ComputeSplit(cache *SplitCache, leaves *Leaves, tok Token, offset uint64, kind PositionKind) (*SplitPositionCache, error) {
	if offset == 0 || offset >= tok.Width {
		return nil, ErrEmptyRange(tok, offset)
	}
	key := PosKey{Index: tok.Index, Offset: offset}
	if cached, ok := cache.get(key); ok {
		return cached, nil
	}

	v := h.expectVertex(tok.Index)
	patterns := v.ChildPatterns()
	if len(patterns) == 0 {
		invariant("split: vertex %d has no child patterns", tok.Index)
	}

	result := &SplitPositionCache{Positions: make(map[PatternId]SubSplitLocation, len(patterns)), Kind: kind}
	allClean := true
	for pid, pattern := range patterns {
		loc, err := splitPattern(pattern, pid, offset)
		if err != nil {
			return nil, err
		}
		result.Positions[pid] = loc
		if !loc.Clean() {
			allClean = false
			child := pattern[loc.Location.SubIndex]
			if child.Width > 1 {
				if _, err := h.ComputeSplit(cache, leaves, child, *loc.InnerOffset, PositionIn); err != nil {
					return nil, err
				}
			}
		}
	}
	if allClean {
		leaves.add(key)
	}
	cache.put(key, result)
	return result, nil
}

// splitPattern finds, within one pattern, the child spanning offset and
// classifies the split as clean (offset falls exactly at a child boundary)
// or inner (offset falls strictly inside a child, recording the remaining
// inner offset for recursive propagation).
func splitPattern(pattern Pattern, pid PatternId, offset uint64) (SubSplitLocation, error) {
	var cum uint64
	for i, child := range pattern {
		next := cum + child.Width
		if offset < next {
			if offset == cum {
				return SubSplitLocation{Location: SubLocation{Pattern: pid, SubIndex: SubIndex(i)}}, nil
			}
			inner := offset - cum
			return SubSplitLocation{Location: SubLocation{Pattern: pid, SubIndex: SubIndex(i)}, InnerOffset: &inner}, nil
		}
		if offset == next {
			return SubSplitLocation{Location: SubLocation{Pattern: pid, SubIndex: SubIndex(i + 1)}}, nil
		}
		cum = next
	}
	return SubSplitLocation{}, errOffsetOutOfRange
}

// SplitSingle computes a single canonical descent chain pinpointing offset
// inside tok's expansion, using each level's lowest-numbered pattern. It is
// used by the fold traversal to express a match boundary that falls
// strictly inside a compound child, by reusing the split engine's per-child
// boundary computation instead of duplicating it.
func (h *Hypergraph) SplitSingle(tok Token, offset uint64) ([]ChildLocation, error) {
	var chain []ChildLocation
	cur := tok
	remaining := offset
	for {
		if remaining == 0 || remaining >= cur.Width {
			if remaining == cur.Width || remaining == 0 {
				break
			}
			return nil, errOffsetOutOfRange
		}
		v := h.expectVertex(cur.Index)
		pid, pattern, ok := v.FirstPattern()
		if !ok {
			invariant("split_single: vertex %d has no patterns", cur.Index)
		}
		loc, err := splitPattern(pattern, pid, remaining)
		if err != nil {
			return nil, err
		}
		chain = append(chain, ChildLocation{Parent: cur.Index, Pattern: pid, Sub: loc.Location.SubIndex})
		if loc.Clean() {
			break
		}
		cur = pattern[loc.Location.SubIndex]
		remaining = *loc.InnerOffset
	}
	return chain, nil
}
