// Copyright 2022 Sylvain Müller. All rights reserved.
// Mount of this source code is governed by a Apache-2.0 license that can be found
// at https://github.com/tigerwill90/fox/blob/master/LICENSE.txt.

package hypergraph

import (
	"errors"
	"log/slog"
)

// InitInterval seeds the split/join pipeline from a search Response: Root is
// the vertex to split, Cache carries the search's trace, and EndBound is the
// atom position where the query diverged from Root's expansion. The split/join
// stages do not read Cache; insertInit only passes it on in the Response of
// an unnecessary insert.
type InitInterval struct {
	Root     Token
	Cache    *TraceCache
	EndBound AtomPosition
}

// Insert drives search -> interval plan -> split -> join to integrate
// sequence into the graph. sequence is a non-empty list of tokens (any
// mix of atoms and existing compound vertices); Insert returns the token
// that now stands for exactly sequence's concatenation.
//
// Degenerate inputs are reported through ErrorState: an empty sequence as
// ReasonEmptyPatterns, a single-token sequence as ReasonSingleIndex (nothing
// to compose), and a sequence that already has a matching vertex of the
// exact same width as ReasonUnnecessary, carrying the resolved token in
// ErrorState.Found.
func (h *Hypergraph) Insert(sequence []Token) (Token, error) {
	if len(sequence) == 0 {
		return Token{}, &ErrorState{Reason: ReasonEmptyPatterns}
	}
	if len(sequence) == 1 {
		resp := &Response{Kind: RespComplete, RootParent: sequence[0], Start: sequence[0], Position: AtomPosition(sequence[0].Width)}
		return Token{}, &ErrorState{Reason: ReasonSingleIndex, Found: resp}
	}

	h.macroMu.Lock()
	defer h.macroMu.Unlock()

	queryWidth := Pattern(sequence).Width()
	searchTrace := NewTraceCache(h.traceSize)

	resp, err := h.findAncestor(searchTrace, sequence[0], sequence)
	if err != nil {
		var es *ErrorState
		if !errors.As(err, &es) || es.Found == nil {
			return Token{}, err
		}
		return h.extend(es.Found, sequence, queryWidth)
	}

	if uint64(resp.Position) == queryWidth && resp.RootParent.Width == queryWidth {
		// Step 2: Complete and the matched range equals Q exactly.
		return resp.RootParent, &ErrorState{Reason: ReasonUnnecessary, Found: resp}
	}

	// resp.RootParent.Width > queryWidth: the graph already has a vertex
	// that is a strict superset of sequence. Narrow it down to exactly
	// sequence's width via the split/join engine. The search's trace travels
	// in the interval plan, but the split engine recomputes the boundary
	// itself rather than reading it from that trace.
	return h.insertInit(InitInterval{Root: resp.RootParent, Cache: resp.Cache, EndBound: AtomPosition(queryWidth)})
}

// InsertInit runs the split/join stages directly from an interval plan, bypassing
// the search step: it splits interval.Root at interval.EndBound and joins the
// [0, EndBound) prefix into a single vertex. Callers that already hold a
// search Response build the interval from it (as Insert does); InsertInit is
// the entry point for replaying a previously-computed plan.
func (h *Hypergraph) InsertInit(interval InitInterval) (Token, error) {
	h.macroMu.Lock()
	defer h.macroMu.Unlock()
	return h.insertInit(interval)
}

func (h *Hypergraph) insertInit(interval InitInterval) (Token, error) {
	if interval.EndBound == 0 {
		return Token{}, &ErrorState{Reason: ReasonEmptyRange}
	}
	if uint64(interval.EndBound) == interval.Root.Width {
		resp := &Response{Kind: RespComplete, RootParent: interval.Root, Start: interval.Root, Position: interval.EndBound, Cache: interval.Cache}
		return interval.Root, &ErrorState{Reason: ReasonUnnecessary, Found: resp}
	}
	tok, err := h.JoinRange(interval.Root, 0, interval.EndBound)
	if err != nil {
		return Token{}, err
	}
	h.logger.Debug("insert.narrow",
		slog.Uint64("root", uint64(interval.Root.Index)),
		slog.Uint64("end_bound", uint64(interval.EndBound)),
		slog.Uint64("result", uint64(tok.Index)),
	)
	return tok, nil
}

// extend handles the search's Incomplete outcome: root's entire expansion
// matched the first partial.Position atoms of sequence but the graph has no
// larger ancestor, so the rest of sequence is novel material. It first
// narrows root to exactly the matched prefix (if the divergence point falls
// strictly inside root, rather than exactly at its boundary), then composes
// that prefix with the unmatched suffix as a new pattern.
func (h *Hypergraph) extend(partial *Response, sequence []Token, queryWidth uint64) (Token, error) {
	matched := uint64(partial.Position)
	if matched == 0 || matched > queryWidth {
		invariant("insert: invalid partial match position %d for query width %d", matched, queryWidth)
	}

	root := partial.RootParent
	if matched != root.Width {
		narrowed, err := h.JoinRange(root, 0, AtomPosition(matched))
		if err != nil {
			return Token{}, err
		}
		root = narrowed
	}
	if matched == queryWidth {
		return root, nil
	}

	queryAtoms := make([]Token, 0, queryWidth)
	for _, t := range sequence {
		queryAtoms = append(queryAtoms, h.flattenAtoms(t)...)
	}
	suffixTok, err := h.JoinChildren(queryAtoms[matched:])
	if err != nil {
		return Token{}, err
	}

	newTok, _, err := h.InsertPattern(Pattern{root, suffixTok})
	if err != nil {
		return Token{}, err
	}
	h.logger.Debug("insert.extend",
		slog.Uint64("root", uint64(root.Index)),
		slog.Uint64("suffix", uint64(suffixTok.Index)),
		slog.Uint64("result", uint64(newTok.Index)),
	)
	return newTok, nil
}
