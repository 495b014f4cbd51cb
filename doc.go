// Copyright 2022 Sylvain Müller. All rights reserved.
// Mount of this source code is governed by a Apache-2.0 license that can be found
// at https://github.com/tigerwill90/fox/blob/master/LICENSE.txt.

// Package hypergraph maintains a hierarchical hypergraph of token patterns:
// every substring observed in a corpus is encoded as a composed vertex, so
// that repeated sub-sequences become shared structure instead of duplicated
// data.
//
// Three operations are exposed on top of the graph:
//
//   - Search: given a sequence of tokens, find the largest existing vertex
//     whose expansion matches a prefix of the query (ancestor search).
//   - Insert: extend the graph so a sequence (or a prefix of it) becomes a
//     vertex, splitting existing compound vertices as necessary.
//   - Read: stream tokens into the graph, building new compound vertices for
//     novel adjacencies while reusing existing structure.
//
// The graph is process-local and in-memory; there is no persistence format,
// network protocol, or multi-process coordination.
package hypergraph
