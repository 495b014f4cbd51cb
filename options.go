// Copyright 2022 Sylvain Müller. All rights reserved.
// Mount of this source code is governed by a Apache-2.0 license that can be found
// at https://github.com/tigerwill90/fox/blob/master/LICENSE.txt.

package hypergraph

import "log/slog"

const defaultTraceCacheSize = 4096

// Option configures a Hypergraph at construction time.
type Option func(*Hypergraph)

// WithLogger sets the [slog.Logger] used for fold/split/join diagnostics.
// Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(h *Hypergraph) {
		if logger != nil {
			h.logger = logger
		}
	}
}

// WithTraceCacheSize bounds the LRU backing the trace cache's UpCache and
// DownCache. Defaults to 4096 entries per direction.
func WithTraceCacheSize(size int) Option {
	return func(h *Hypergraph) {
		if size > 0 {
			h.traceSize = size
		}
	}
}

// WithAtomHasher overrides how atom values are compared for identity.
// Defaults to formatting the atom with "%#v".
func WithAtomHasher(hash func(atom any) string) Option {
	return func(h *Hypergraph) {
		if hash != nil {
			h.hashAtom = hash
		}
	}
}

// WithVertexKeyGenerator overrides how VertexKey values are minted.
// Defaults to uuid.New.
func WithVertexKeyGenerator(gen func() VertexKey) Option {
	return func(h *Hypergraph) {
		if gen != nil {
			h.newKey = gen
		}
	}
}
