// Copyright 2022 Sylvain Müller. All rights reserved.
// Mount of this source code is governed by a Apache-2.0 license that can be found
// at https://github.com/tigerwill90/fox/blob/master/LICENSE.txt.

package hypergraph

import "fmt"

// PartitionRange is an atom-position interval [Start, End) of a vertex's
// expansion, the unit the join/merge engine materializes as a single token.
type PartitionRange struct {
	Start AtomPosition
	End   AtomPosition
}

// Width reports the number of atoms spanned by the range.
func (r PartitionRange) Width() uint64 { return uint64(r.End - r.Start) }

// JoinChildren collapses a sequence of children into the single Token that
// stands for their concatenation: the sequence itself if it is already a
// single token, or a graph-level InsertPattern call (reusing an existing
// vertex of identical expansion when one exists) otherwise.
func (h *Hypergraph) JoinChildren(children Pattern) (Token, error) {
	switch len(children) {
	case 0:
		return Token{}, ErrEmptyPattern
	case 1:
		return children[0], nil
	default:
		tok, _, err := h.InsertPattern(children)
		return tok, err
	}
}

// NodeMergeCtx is the join/merge engine applied to one interior vertex of the
// interval graph: it materializes a clean boundary at offset by recursing
// into whichever child straddles it, persisting the result as a new
// alternate pattern of the vertex so the boundary is reusable on future
// queries instead of being recomputed. cache/leaves are the split
// engine's memoization tables, shared across every vertex touched by
// one join so a descendant reached through more than one alternate pattern
// is only split once.
type NodeMergeCtx struct {
	h      *Hypergraph
	cache  *SplitCache
	leaves *Leaves
}

// newNodeMergeCtx builds a NodeMergeCtx with a fresh split cache, scoped to
// one join/merge call tree.
func newNodeMergeCtx(h *Hypergraph) NodeMergeCtx {
	return NodeMergeCtx{h: h, cache: NewSplitCache(), leaves: NewLeaves()}
}

// MaterializeBoundary returns the (pre, post) patterns of tok's canonical
// (first) pattern split cleanly at offset. It consults ComputeSplit's
// per-pattern SplitPositionCache rather than re-deriving the boundary
// from only the first pattern, and for every one of tok's patterns whose
// split is not already clean, persists a new alternate pattern with the
// boundary baked in, not just the canonical one, so every decomposition
// whose split offsets coincide stays consistent with the new boundary.
// offset 0 or tok.Width are the degenerate "no split needed" cases. kind
// records which side of the partition range this boundary realizes.
func (c NodeMergeCtx) MaterializeBoundary(tok Token, offset uint64, kind PositionKind) (pre, post Pattern, err error) {
	if offset == 0 {
		return nil, Pattern{tok}, nil
	}
	if offset == tok.Width {
		return Pattern{tok}, nil, nil
	}

	split, err := c.h.ComputeSplit(c.cache, c.leaves, tok, offset, kind)
	if err != nil {
		return nil, nil, err
	}

	v := c.h.expectVertex(tok.Index)
	patterns := v.ChildPatterns()
	firstPid, _, ok := v.FirstPattern()
	if !ok {
		invariant("materialize_boundary: vertex %d has no patterns", tok.Index)
	}

	for pid, pattern := range patterns {
		loc, ok := split.Positions[pid]
		if !ok {
			invariant("materialize_boundary: vertex %d missing split position for pattern %d", tok.Index, pid)
		}
		i := loc.Location.SubIndex

		if loc.Clean() {
			if pid == firstPid {
				pre = append(Pattern{}, pattern[:i]...)
				post = append(Pattern{}, pattern[i:]...)
			}
			continue
		}

		child := pattern[i]
		innerPre, innerPost, err := c.MaterializeBoundary(child, *loc.InnerOffset, PositionIn)
		if err != nil {
			return nil, nil, err
		}
		preTok, err := c.h.JoinChildren(innerPre)
		if err != nil {
			return nil, nil, err
		}
		postTok, err := c.h.JoinChildren(innerPost)
		if err != nil {
			return nil, nil, err
		}

		newPattern := make(Pattern, 0, len(pattern)+1)
		newPattern = append(newPattern, pattern[:i]...)
		newPattern = append(newPattern, preTok, postTok)
		newPattern = append(newPattern, pattern[i+1:]...)
		if _, _, err := c.h.addAlternatePattern(tok.Index, newPattern); err != nil {
			return nil, nil, err
		}

		if pid == firstPid {
			pre = append(append(Pattern{}, pattern[:i]...), preTok)
			post = append(Pattern{postTok}, pattern[i+1:]...)
		}
	}
	return pre, post, nil
}

// partitionPattern splits pattern into the children wholly before start
// (pre), wholly inside [start, end) (in), and wholly at or after end (post),
// recursively materializing a boundary (via NodeMergeCtx) on any child that
// straddles start or end.
func (h *Hypergraph) partitionPattern(pattern Pattern, start, end AtomPosition) (pre, in, post Pattern, err error) {
	ctx := newNodeMergeCtx(h)
	queue := append(Pattern{}, pattern...)
	var cum uint64
	for len(queue) > 0 {
		child := queue[0]
		queue = queue[1:]
		next := cum + child.Width
		switch {
		case next <= uint64(start):
			pre = append(pre, child)
			cum = next
		case cum >= uint64(end):
			post = append(post, child)
			cum = next
		case cum >= uint64(start) && next <= uint64(end):
			in = append(in, child)
			cum = next
		default:
			var offset uint64
			kind := PositionPost
			if cum < uint64(start) && uint64(start) < next {
				offset = uint64(start) - cum
				kind = PositionPre
			} else {
				offset = uint64(end) - cum
			}
			lo, hi, perr := ctx.MaterializeBoundary(child, offset, kind)
			if perr != nil {
				return nil, nil, nil, perr
			}
			rest := make(Pattern, 0, len(lo)+len(hi)+len(queue))
			rest = append(rest, lo...)
			rest = append(rest, hi...)
			rest = append(rest, queue...)
			queue = rest
		}
	}
	return pre, in, post, nil
}

// RootMergeCtx is the join/merge engine applied at the top of the interval
// graph: the vertex the caller actually asked to carve a range out of. It
// reuses NodeMergeCtx's per-child materialization for any boundary-straddling
// child, then persists the 3-way split as a new alternate pattern of the
// root itself.
type RootMergeCtx struct {
	h   *Hypergraph
	Tok Token
}

// JoinRange returns the single token standing for the [start, end) atom
// range of tok's expansion, minting (and persisting, as an alternate pattern
// of tok) whatever intermediate vertices are needed to expose that boundary.
func (h *Hypergraph) JoinRange(tok Token, start, end AtomPosition) (Token, error) {
	if end <= start {
		return Token{}, fmt.Errorf("%w: empty range [%d,%d)", errEmptyRangeSentinel, start, end)
	}
	if uint64(end) > tok.Width {
		return Token{}, fmt.Errorf("range end %d exceeds vertex %d width %d", end, tok.Index, tok.Width)
	}
	if start == 0 && uint64(end) == tok.Width {
		return tok, nil
	}

	ctx := RootMergeCtx{h: h, Tok: tok}
	return ctx.run(start, end)
}

func (c RootMergeCtx) run(start, end AtomPosition) (Token, error) {
	v := c.h.expectVertex(c.Tok.Index)
	pid, pattern, ok := v.FirstPattern()
	if !ok {
		invariant("join_range: vertex %d has no patterns", c.Tok.Index)
	}
	_ = pid
	pre, in, post, err := c.h.partitionPattern(pattern, start, end)
	if err != nil {
		return Token{}, err
	}
	inTok, err := c.h.JoinChildren(in)
	if err != nil {
		return Token{}, err
	}

	newPattern := make(Pattern, 0, len(pre)+1+len(post))
	newPattern = append(newPattern, pre...)
	newPattern = append(newPattern, inTok)
	newPattern = append(newPattern, post...)
	if len(newPattern) > 1 {
		if _, _, err := c.h.addAlternatePattern(c.Tok.Index, newPattern); err != nil {
			return Token{}, err
		}
	}
	return inTok, nil
}
