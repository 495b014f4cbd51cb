// Copyright 2022 Sylvain Müller. All rights reserved.
// Mount of this source code is governed by a Apache-2.0 license that can be found
// at https://github.com/tigerwill90/fox/blob/master/LICENSE.txt.

package hypergraph

import "log/slog"

// Searchable is the read-only query surface over a Hypergraph: each
// method runs a fold over the store and wraps the result in a Response. No
// method mutates the store.
type Searchable interface {
	FindAncestor(query []Token) (*Response, error)
	FindPrefix(query []Token) (*Response, error)
	FindPostfix(query []Token) (*Response, error)
	FindSequence(atoms []any) (*Response, error)
}

var _ Searchable = (*Hypergraph)(nil)

// FindAncestor finds the largest existing vertex whose expansion matches a
// prefix of query, rooted at query's first token.
func (h *Hypergraph) FindAncestor(query []Token) (*Response, error) {
	if len(query) == 0 {
		return nil, &ErrorState{Reason: ReasonEmptyPatterns}
	}
	cache := NewTraceCache(h.traceSize)
	resp, err := h.findAncestor(cache, query[0], query)
	if err == nil {
		h.logger.Debug("find_ancestor",
			slog.Uint64("query_width", Pattern(query).Width()),
			slog.String("cursor", Cursor{Path: resp.Path, Position: resp.Position}.String()),
		)
	} else {
		h.logger.Debug("find_ancestor", slog.Uint64("query_width", Pattern(query).Width()), slog.Bool("ok", false))
	}
	return resp, err
}

// FindPrefix is an alias for FindAncestor: prefix and ancestor search share
// the same fold direction; the two names distinguish caller intent
// (does the caller expect query to be fully contained, or only its head).
func (h *Hypergraph) FindPrefix(query []Token) (*Response, error) {
	return h.FindAncestor(query)
}

// FindPostfix finds the largest existing vertex whose expansion matches a
// suffix of query, rooted at query's last token.
func (h *Hypergraph) FindPostfix(query []Token) (*Response, error) {
	if len(query) == 0 {
		return nil, &ErrorState{Reason: ReasonEmptyPatterns}
	}
	cache := NewTraceCache(h.traceSize)
	resp, err := h.findPostfix(cache, query[len(query)-1], query)
	if err == nil {
		h.logger.Debug("find_postfix",
			slog.Uint64("query_width", Pattern(query).Width()),
			slog.String("cursor", Cursor{Path: resp.Path, Position: resp.Position}.String()),
		)
	} else {
		h.logger.Debug("find_postfix", slog.Uint64("query_width", Pattern(query).Width()), slog.Bool("ok", false))
	}
	return resp, err
}

// FindSequence looks up every atom in the store (they must already exist;
// FindSequence never mints new atoms, unlike InsertAtom) and runs
// FindAncestor over the resulting tokens.
func (h *Hypergraph) FindSequence(atoms []any) (*Response, error) {
	if len(atoms) == 0 {
		return nil, &ErrorState{Reason: ReasonEmptyPatterns}
	}
	tokens := make([]Token, 0, len(atoms))
	for _, atom := range atoms {
		key := h.hashAtom(atom)
		h.mapMu.RLock()
		idx, ok := h.atomIndex[key]
		h.mapMu.RUnlock()
		if !ok {
			return nil, &ErrorState{Reason: ReasonUnknownToken}
		}
		tokens = append(tokens, Token{Index: idx, Width: 1})
	}
	if len(tokens) == 1 {
		return &Response{Kind: RespComplete, RootParent: tokens[0], Start: tokens[0], Position: 1, Cache: NewTraceCache(h.traceSize)}, nil
	}
	return h.FindAncestor(tokens)
}
