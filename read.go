// Copyright 2022 Sylvain Müller. All rights reserved.
// Mount of this source code is governed by a Apache-2.0 license that can be found
// at https://github.com/tigerwill90/fox/blob/master/LICENSE.txt.

package hypergraph

import (
	"errors"
	"log/slog"
)

// ExpansionLink stitches two adjacent blocks of a ReadSequence call
// together: ExpansionPrefix is the token standing for everything read so
// far, RootPostfix is the token of the block just processed, and StartBound
// is the atom offset at which RootPostfix begins inside ExpansionPrefix. A
// postfix of one block becomes the shared prefix of the next instead of
// duplicated structure.
type ExpansionLink struct {
	ExpansionPrefix Token
	RootPostfix     Token
	StartBound      AtomPosition
}

// ReadCtx drives ReadSequence over a Hypergraph.
type ReadCtx struct {
	h *Hypergraph
}

// NewReadCtx builds a ReadCtx bound to h.
func (h *Hypergraph) NewReadCtx() *ReadCtx {
	return &ReadCtx{h: h}
}

// ReadSequence streams atoms into the graph block by block instead of
// atom-by-atom: NewAtomIndices classifies
// every atom as Known or New, and ReadSequence walks the classification as
// alternating maximal runs. Each run is joined into one token; a Known run is
// composed with the running expansion through Insert (search-driven), a New
// run directly through InsertPattern. It returns the token of each run.
func (r *ReadCtx) ReadSequence(atoms []any) ([]Token, error) {
	if len(atoms) == 0 {
		return nil, &ErrorState{Reason: ReasonEmptyPatterns}
	}

	classes := r.h.NewAtomIndices(atoms)
	blocks := blockRuns(classes)

	tokens := make([]Token, 0, len(blocks))
	var link *ExpansionLink
	for _, block := range blocks {
		blockAtoms := make([]Token, len(block))
		for k, c := range block {
			blockAtoms[k] = c.Token
		}

		tok, newLink, err := r.h.readBlock(block[0].Class, blockAtoms, link)
		if err != nil {
			return nil, err
		}
		link = newLink
		tokens = append(tokens, tok)
	}

	r.h.logger.Debug("read_sequence", slog.Int("atoms", len(atoms)), slog.Int("blocks", len(blocks)))
	return tokens, nil
}

// blockRuns partitions classes into maximal runs that share the same
// AtomClass, preserving input order.
func blockRuns(classes NewAtomIndices) [][]AtomClassification {
	var blocks [][]AtomClassification
	i := 0
	for i < len(classes) {
		j := i + 1
		for j < len(classes) && classes[j].Class == classes[i].Class {
			j++
		}
		blocks = append(blocks, classes[i:j])
		i = j
	}
	return blocks
}

// readBlock resolves one run of same-classified atoms into a single token
// and links it to the running expansion built by previous blocks.
func (h *Hypergraph) readBlock(class AtomClass, blockAtoms []Token, prev *ExpansionLink) (Token, *ExpansionLink, error) {
	blockTok, err := h.JoinChildren(blockAtoms)
	if err != nil {
		return Token{}, nil, err
	}

	if prev == nil {
		return blockTok, &ExpansionLink{ExpansionPrefix: blockTok, RootPostfix: blockTok, StartBound: 0}, nil
	}

	switch class {
	case ClassKnown:
		// A known run may already extend the running expansion as an
		// existing ancestor; Insert narrows or extends as needed and is
		// idempotent when the composition already exists.
		composed, err := h.Insert([]Token{prev.ExpansionPrefix, blockTok})
		if err != nil {
			var es *ErrorState
			switch {
			case errors.As(err, &es) && es.Found != nil:
				composed = es.Found.RootParent
			case errors.As(err, &es) && es.Reason == ReasonNoParents:
				// Both halves are known individually but were never composed
				// with each other; mint the composition directly.
				composed, _, err = h.InsertPattern(Pattern{prev.ExpansionPrefix, blockTok})
				if err != nil {
					return Token{}, nil, err
				}
			default:
				return Token{}, nil, err
			}
		}
		return blockTok, &ExpansionLink{ExpansionPrefix: composed, RootPostfix: blockTok, StartBound: AtomPosition(prev.ExpansionPrefix.Width)}, nil
	default:
		// A new run is never already composed with the running expansion:
		// mint the composition directly as a fresh pattern.
		composed, _, err := h.InsertPattern(Pattern{prev.ExpansionPrefix, blockTok})
		if err != nil {
			return Token{}, nil, err
		}
		return blockTok, &ExpansionLink{ExpansionPrefix: composed, RootPostfix: blockTok, StartBound: AtomPosition(prev.ExpansionPrefix.Width)}, nil
	}
}
