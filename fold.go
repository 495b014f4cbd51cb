// Copyright 2022 Sylvain Müller. All rights reserved.
// Mount of this source code is governed by a Apache-2.0 license that can be found
// at https://github.com/tigerwill90/fox/blob/master/LICENSE.txt.

package hypergraph

import (
	"sort"

	"github.com/Workiva/go-datastructures/queue"
)

// ResponseKind discriminates a fold's two possible outcomes.
type ResponseKind int

const (
	RespComplete ResponseKind = iota
	RespIncomplete
)

// IncompleteState describes how far the cursor advanced before the query
// diverged from the graph: the widest vertex whose whole expansion still
// matched, and the atom position reached inside the query.
type IncompleteState struct {
	Root     Token
	Position AtomPosition
}

// Response is the outcome of a fold: either Complete, reporting the largest
// ancestor whose expansion's prefix matched the whole query, or Incomplete,
// reporting how far the match got before the query diverged from the graph.
// Cache carries the traversal's trace: on a Complete response found by the
// fold it holds the terminal's provenance, written once the terminal is
// chosen. State is set only on Incomplete responses.
type Response struct {
	Kind       ResponseKind
	RootParent Token
	Path       Path
	Start      Token
	Position   AtomPosition
	Cache      *TraceCache
	State      *IncompleteState
}

// CompareMode records which side of a comparison was narrower and therefore
// set the step granularity the wider side had to be decomposed to match.
// The mode is chosen by whichever side has the narrower next unit; ties
// favor graph-major.
type CompareMode int

const (
	GraphMajor CompareMode = iota
	QueryMajor
)

// frontierItem is one branch of the ancestor-search BFS: a chain of
// ChildLocations from a candidate root vertex down to the position last
// confirmed to match the query, together with how much of the query that
// chain has consumed.
type frontierItem struct {
	chain    []ChildLocation
	queryPos int
	depth    int
}

func cloneChain(chain []ChildLocation) []ChildLocation {
	out := make([]ChildLocation, len(chain))
	copy(out, chain)
	return out
}

// frontier is a FIFO of frontierItem, backed by go-datastructures'
// queue.Queue, giving the fold a breadth-first exploration order by depth.
// Items of equal depth come out in the order they were pushed (for one
// raise, parentCandidates' parent/pattern/sub order); the queue does not
// reorder them by sub-index or width.
type frontier struct {
	q *queue.Queue
}

func newFrontier() *frontier {
	return &frontier{q: queue.New(16)}
}

func (f *frontier) push(item frontierItem) {
	_ = f.q.Put(item)
}

func (f *frontier) pop() (frontierItem, bool) {
	if f.q.Empty() {
		return frontierItem{}, false
	}
	items, err := f.q.Get(1)
	if err != nil || len(items) == 0 {
		return frontierItem{}, false
	}
	return items[0].(frontierItem), true
}

// parentCandidate is one (parent, pattern, sub) slot through which child
// occurs.
type parentCandidate struct {
	Loc ChildLocation
}

// parentCandidates returns every parent slot of child at which child sits on
// edge's side of the parent pattern (RoleStart: first sub-index, so the
// matched region stays an expansion prefix of the parent; RoleEnd: last
// sub-index, the suffix mirror). A slot anywhere else would make the parent
// an infix container, not an ancestor whose expansion extends the match:
// b inside abc never yields abc for a query starting at b.
//
// Results are sorted by vertex index, then pattern id, then sub-index.
// ExpectParents' maps iterate in randomized order; seeding or re-raising the
// frontier straight from that iteration would let Go's map order silently
// pick which of several same-width terminals wins, making the returned
// terminal differ across runs for the same store and query. Sorting here
// fixes the order once, for every caller.
func (h *Hypergraph) parentCandidates(child VertexIndex, edge Role) []parentCandidate {
	rels := h.ExpectParents(child)
	out := make([]parentCandidate, 0, len(rels))
	for parentIdx, rel := range rels {
		for pid, subs := range rel.PatternIndices {
			for sub := range subs {
				if edge == RoleStart && sub != 0 {
					continue
				}
				if edge == RoleEnd {
					pattern, ok := h.ChildPattern(parentIdx, pid)
					if !ok || int(sub) != len(pattern)-1 {
						continue
					}
				}
				out = append(out, parentCandidate{
					Loc: ChildLocation{Parent: parentIdx, Pattern: pid, Sub: sub},
				})
			}
		}
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i].Loc, out[j].Loc
		if a.Parent != b.Parent {
			return a.Parent < b.Parent
		}
		if a.Pattern != b.Pattern {
			return a.Pattern < b.Pattern
		}
		return a.Sub < b.Sub
	})
	return out
}

// flattenAtoms expands tok into its leaf atom sequence, following each
// compound vertex's canonical (lowest pattern id) decomposition.
func (h *Hypergraph) flattenAtoms(tok Token) []Token {
	if tok.IsAtom() {
		return []Token{tok}
	}
	v := h.expectVertex(tok.Index)
	_, pattern, ok := v.FirstPattern()
	if !ok {
		return []Token{tok}
	}
	out := make([]Token, 0, tok.Width)
	for _, child := range pattern {
		out = append(out, h.flattenAtoms(child)...)
	}
	return out
}

func tokensEqual(a, b []Token) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].Index != b[i].Index || a[i].Width != b[i].Width {
			return false
		}
	}
	return true
}

// climbOutcome is the result of advancing one frontier branch as far as it
// can go without ambiguity: either it reached a terminal, died on a
// mismatch, or exhausted the root level and needs to branch into the root
// vertex's own parents.
type climbKind int

const (
	climbComplete climbKind = iota
	climbMismatch
	climbNeedsRaise
)

type climbOutcome struct {
	kind     climbKind
	chain    []ChildLocation
	queryPos int
}

// climb advances item deterministically (no branching) until it completes
// the query, mismatches, or exhausts the chain's root level and must be
// re-rooted one level up.
func (h *Hypergraph) climb(item frontierItem, queryAtoms []Token) climbOutcome {
	chain := cloneChain(item.chain)
	queryPos := item.queryPos

	for {
		owner := chain[len(chain)-1]
		v := h.expectVertex(owner.Parent)
		pattern, ok := v.Pattern(owner.Pattern)
		if !ok {
			return climbOutcome{kind: climbMismatch}
		}
		nextSub := owner.Sub + 1
		if int(nextSub) >= len(pattern) {
			if len(chain) > 1 {
				chain = chain[:len(chain)-1]
				continue
			}
			return climbOutcome{kind: climbNeedsRaise, chain: chain, queryPos: queryPos}
		}

		child := pattern[nextSub]
		childAtoms := h.flattenAtoms(child)
		remaining := queryAtoms[queryPos:]
		n := len(childAtoms)
		if len(remaining) < n {
			n = len(remaining)
		}
		if !tokensEqual(childAtoms[:n], remaining[:n]) {
			return climbOutcome{kind: climbMismatch}
		}

		chain[len(chain)-1] = ChildLocation{Parent: owner.Parent, Pattern: owner.Pattern, Sub: nextSub}

		switch {
		case len(remaining) > len(childAtoms):
			// Child fully consumed, more query remains: keep advancing this
			// pattern (GraphMajor: the graph's own sequence sets the pace).
			queryPos += len(childAtoms)
			continue
		case len(remaining) == len(childAtoms):
			// Clean boundary: query exhausts exactly where this child ends.
			return climbOutcome{kind: climbComplete, chain: chain, queryPos: queryPos + len(childAtoms)}
		default:
			// QueryMajor: the query is narrower than this child, so the
			// match boundary falls strictly inside it. Pin the boundary by
			// reusing the split engine's per-child location computation
			// instead of re-deriving it here.
			if len(remaining) == 0 {
				return climbOutcome{kind: climbComplete, chain: chain, queryPos: queryPos}
			}
			inner, err := h.SplitSingle(child, uint64(len(remaining)))
			if err != nil {
				return climbOutcome{kind: climbMismatch}
			}
			chain = append(chain, inner...)
			return climbOutcome{kind: climbComplete, chain: chain, queryPos: queryPos + len(remaining)}
		}
	}
}

// findAncestor runs the ancestor-search fold: starting from the
// existing vertex start (which must equal query[0]), it climbs the parent
// relation, extending the match while subsequent query tokens agree with the
// graph, and reports the largest ancestor whose expansion's prefix equals
// the whole of query. cache, if non-nil, is populated with the traversal's
// provenance via RangeCommand once a terminal is found.
//
// This is the Traversal Engine's entry point; search.go's Searchable methods
// wrap it with cache allocation and query validation.
func (h *Hypergraph) findAncestor(cache *TraceCache, start Token, query []Token) (*Response, error) {
	if len(query) == 0 {
		return nil, &ErrorState{Reason: ReasonEmptyPatterns}
	}
	if _, ok := h.Vertex(start.Index); !ok {
		return nil, &ErrorState{Reason: ReasonUnknownToken}
	}

	queryAtoms := make([]Token, 0, len(query))
	for _, t := range query {
		queryAtoms = append(queryAtoms, h.flattenAtoms(t)...)
	}
	startAtoms := h.flattenAtoms(start)
	if len(startAtoms) > len(queryAtoms) || !tokensEqual(startAtoms, queryAtoms[:len(startAtoms)]) {
		return nil, &ErrorState{Reason: ReasonInvalidChild}
	}

	if len(startAtoms) == len(queryAtoms) {
		resp := &Response{Kind: RespComplete, RootParent: start, Position: AtomPosition(len(queryAtoms)), Start: start, Cache: cache}
		return resp, nil
	}

	f := newFrontier()
	for _, cand := range h.parentCandidates(start.Index, RoleStart) {
		f.push(frontierItem{
			chain:    []ChildLocation{cand.Loc},
			queryPos: len(startAtoms),
			depth:    1,
		})
	}

	var best *Response
	var bestPartial *Response
	for {
		item, ok := f.pop()
		if !ok {
			break
		}
		out := h.climb(item, queryAtoms)
		switch out.kind {
		case climbComplete:
			root := out.chain[0].Parent
			rootTok := h.expectVertex(root).Token()
			cand := &Response{
				Kind:       RespComplete,
				RootParent: rootTok,
				Path:       Path{RootKind: RootIndex, Kind: KindStart, IndexRoot: IndexRoot{Vertex: root, Pattern: out.chain[0].Pattern}, Start: SubPath{RootEntry: out.chain[0].Sub, Locs: out.chain[1:]}},
				Start:      start,
				Position:   AtomPosition(out.queryPos),
				Cache:      cache,
			}
			if best == nil || cand.RootParent.Width > best.RootParent.Width {
				best = cand
			}
		case climbNeedsRaise:
			root := out.chain[0].Parent
			if bestPartial == nil || out.queryPos > int(bestPartial.Position) {
				rootTok := h.expectVertex(root).Token()
				bestPartial = &Response{
					Kind:       RespIncomplete,
					RootParent: rootTok,
					Start:      start,
					Position:   AtomPosition(out.queryPos),
					Cache:      cache,
					State:      &IncompleteState{Root: rootTok, Position: AtomPosition(out.queryPos)},
				}
			}
			for _, cand := range h.parentCandidates(root, RoleStart) {
				f.push(frontierItem{
					chain:    append([]ChildLocation{cand.Loc}, out.chain...),
					queryPos: out.queryPos,
					depth:    item.depth + 1,
				})
			}
		case climbMismatch:
			// Dead branch; nothing further to contribute beyond bestPartial
			// bookkeeping, already covered by the needs-raise case for any
			// ancestor that got this far.
		}
	}

	if best != nil {
		if cache != nil {
			RangeCommand(cache, h, best.Path, 0, best.Position)
		}
		return best, nil
	}
	if bestPartial == nil {
		if len(h.ExpectParents(start.Index)) == 0 {
			return nil, &ErrorState{Reason: ReasonNoParents}
		}
		// start has parents, but none through a slot the match could enter
		// (or every branch mismatched before raising). The cursor still
		// stands at start itself, so report an Incomplete partial there
		// rather than a bare miss: insert seeds its extend path from it.
		pos := AtomPosition(len(startAtoms))
		bestPartial = &Response{
			Kind:       RespIncomplete,
			RootParent: start,
			Start:      start,
			Position:   pos,
			Cache:      cache,
			State:      &IncompleteState{Root: start, Position: pos},
		}
	}
	return nil, &ErrorState{Reason: ReasonNotFound, Found: bestPartial}
}

// climbReverse is climb's mirror image for postfix search: it walks parents
// leftward from a known suffix, matching the tail of the graph's expansion
// against the tail of the query instead of climb's prefix match. queryPos
// counts atoms matched from the right (i.e. how many trailing query atoms
// are already accounted for).
func (h *Hypergraph) climbReverse(item frontierItem, queryAtoms []Token) climbOutcome {
	chain := cloneChain(item.chain)
	queryPos := item.queryPos

	for {
		owner := chain[len(chain)-1]
		v := h.expectVertex(owner.Parent)
		pattern, ok := v.Pattern(owner.Pattern)
		if !ok {
			return climbOutcome{kind: climbMismatch}
		}
		prevSub := owner.Sub - 1
		if int(prevSub) < 0 {
			if len(chain) > 1 {
				chain = chain[:len(chain)-1]
				continue
			}
			return climbOutcome{kind: climbNeedsRaise, chain: chain, queryPos: queryPos}
		}

		child := pattern[prevSub]
		childAtoms := h.flattenAtoms(child)
		remainingLen := len(queryAtoms) - queryPos
		n := len(childAtoms)
		if remainingLen < n {
			n = remainingLen
		}
		graphSlice := childAtoms[len(childAtoms)-n:]
		querySlice := queryAtoms[len(queryAtoms)-queryPos-n : len(queryAtoms)-queryPos]
		if !tokensEqual(graphSlice, querySlice) {
			return climbOutcome{kind: climbMismatch}
		}

		chain[len(chain)-1] = ChildLocation{Parent: owner.Parent, Pattern: owner.Pattern, Sub: prevSub}

		switch {
		case remainingLen > len(childAtoms):
			queryPos += len(childAtoms)
			continue
		case remainingLen == len(childAtoms):
			return climbOutcome{kind: climbComplete, chain: chain, queryPos: queryPos + len(childAtoms)}
		default:
			if remainingLen == 0 {
				return climbOutcome{kind: climbComplete, chain: chain, queryPos: queryPos}
			}
			inner, err := h.SplitSingle(child, child.Width-uint64(remainingLen))
			if err != nil {
				return climbOutcome{kind: climbMismatch}
			}
			chain = append(chain, inner...)
			return climbOutcome{kind: climbComplete, chain: chain, queryPos: queryPos + remainingLen}
		}
	}
}

// findPostfix is climb's counterpart for the postfix direction: starting
// from the existing vertex end (which must equal query's last token), it
// climbs parents leftward, extending the match while preceding query tokens
// agree with the graph, and reports the largest ancestor whose expansion's
// suffix equals the whole of query.
func (h *Hypergraph) findPostfix(cache *TraceCache, end Token, query []Token) (*Response, error) {
	if len(query) == 0 {
		return nil, &ErrorState{Reason: ReasonEmptyPatterns}
	}
	if _, ok := h.Vertex(end.Index); !ok {
		return nil, &ErrorState{Reason: ReasonUnknownToken}
	}

	queryAtoms := make([]Token, 0, len(query))
	for _, t := range query {
		queryAtoms = append(queryAtoms, h.flattenAtoms(t)...)
	}
	endAtoms := h.flattenAtoms(end)
	if len(endAtoms) > len(queryAtoms) || !tokensEqual(endAtoms, queryAtoms[len(queryAtoms)-len(endAtoms):]) {
		return nil, &ErrorState{Reason: ReasonInvalidChild}
	}

	if len(endAtoms) == len(queryAtoms) {
		resp := &Response{Kind: RespComplete, RootParent: end, Position: AtomPosition(len(queryAtoms)), Start: end, Cache: cache}
		return resp, nil
	}

	f := newFrontier()
	for _, cand := range h.parentCandidates(end.Index, RoleEnd) {
		f.push(frontierItem{
			chain:    []ChildLocation{cand.Loc},
			queryPos: len(endAtoms),
			depth:    1,
		})
	}

	var best *Response
	var bestPartial *Response
	for {
		item, ok := f.pop()
		if !ok {
			break
		}
		out := h.climbReverse(item, queryAtoms)
		switch out.kind {
		case climbComplete:
			root := out.chain[0].Parent
			rootTok := h.expectVertex(root).Token()
			cand := &Response{
				Kind:       RespComplete,
				RootParent: rootTok,
				Path:       Path{RootKind: RootIndex, Kind: KindEnd, IndexRoot: IndexRoot{Vertex: root, Pattern: out.chain[0].Pattern}, End: SubPath{RootEntry: out.chain[0].Sub, Locs: out.chain[1:]}},
				Start:      end,
				Position:   AtomPosition(out.queryPos),
				Cache:      cache,
			}
			if best == nil || cand.RootParent.Width > best.RootParent.Width {
				best = cand
			}
		case climbNeedsRaise:
			root := out.chain[0].Parent
			if bestPartial == nil || out.queryPos > int(bestPartial.Position) {
				rootTok := h.expectVertex(root).Token()
				bestPartial = &Response{
					Kind:       RespIncomplete,
					RootParent: rootTok,
					Start:      end,
					Position:   AtomPosition(out.queryPos),
					Cache:      cache,
					State:      &IncompleteState{Root: rootTok, Position: AtomPosition(out.queryPos)},
				}
			}
			for _, cand := range h.parentCandidates(root, RoleEnd) {
				f.push(frontierItem{
					chain:    append([]ChildLocation{cand.Loc}, out.chain...),
					queryPos: out.queryPos,
					depth:    item.depth + 1,
				})
			}
		case climbMismatch:
		}
	}

	if best != nil {
		if cache != nil {
			PostfixCommand(cache, h, best.Path, RoleEnd, best.Position)
		}
		return best, nil
	}
	if bestPartial == nil {
		if len(h.ExpectParents(end.Index)) == 0 {
			return nil, &ErrorState{Reason: ReasonNoParents}
		}
		pos := AtomPosition(len(endAtoms))
		bestPartial = &Response{
			Kind:       RespIncomplete,
			RootParent: end,
			Start:      end,
			Position:   pos,
			Cache:      cache,
			State:      &IncompleteState{Root: end, Position: pos},
		}
	}
	return nil, &ErrorState{Reason: ReasonNotFound, Found: bestPartial}
}
