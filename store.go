// Copyright 2022 Sylvain Müller. All rights reserved.
// Mount of this source code is governed by a Apache-2.0 license that can be found
// at https://github.com/tigerwill90/fox/blob/master/LICENSE.txt.

package hypergraph

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/emirpasic/gods/v2/maps/linkedhashmap"
	"github.com/google/uuid"
)

// Hypergraph is the shared handle over the vertex store. New returns a
// *Hypergraph, so passing the handle around is just a pointer copy and the
// underlying maps are shared by every holder of that pointer.
type Hypergraph struct {
	// mapMu guards structural mutation of the vertices map (adding a new
	// vertex) and the atomIndex map. Readers of distinct vertices proceed in
	// parallel; a writer only blocks concurrent structural growth.
	mapMu    sync.RWMutex
	vertices *linkedhashmap.Map[VertexIndex, *Vertex]
	nextIdx  atomic.Uint64

	// atomIndex makes insert_atom idempotent per atom value.
	atomIndex map[string]VertexIndex

	// macroMu serializes the macro operations Insert and InsertInit so no
	// mutator observes a half-published split/join. ReadSequence does not
	// hold it across a whole read: each Insert it makes takes it for that
	// call only, and its direct InsertPattern calls run without it. Find*
	// calls never take it, so reads proceed concurrently with reads.
	macroMu sync.Mutex

	logger    *slog.Logger
	hashAtom  func(atom any) string
	newKey    func() VertexKey
	traceSize int
}

// New constructs an empty Hypergraph.
func New(opts ...Option) *Hypergraph {
	h := &Hypergraph{
		vertices:  linkedhashmap.New[VertexIndex, *Vertex](),
		atomIndex: make(map[string]VertexIndex),
		logger:    slog.Default(),
		hashAtom:  func(atom any) string { return fmt.Sprintf("%#v", atom) },
		newKey:    uuid.New,
		traceSize: defaultTraceCacheSize,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// expectVertex returns the vertex for index, panicking if it does not exist:
// a missing vertex is a caller bug or corrupted state, not a recoverable
// condition.
func (h *Hypergraph) expectVertex(index VertexIndex) *Vertex {
	h.mapMu.RLock()
	v, ok := h.vertices.Get(index)
	h.mapMu.RUnlock()
	if !ok {
		invariant("expect_vertex: unknown vertex index %d", index)
	}
	return v
}

// ExpectVertex is the exported form of expectVertex, for callers building
// on top of the package (split/join/search live in this package already,
// but tests and external callers may need it too).
func (h *Hypergraph) ExpectVertex(index VertexIndex) *Vertex {
	return h.expectVertex(index)
}

// ExpectChildPatterns returns the patterns of the vertex at index, panicking
// if the vertex is missing.
func (h *Hypergraph) ExpectChildPatterns(index VertexIndex) map[PatternId]Pattern {
	return h.expectVertex(index).ChildPatterns()
}

// ExpectParents returns the parent relations of the vertex at index,
// panicking if the vertex is missing.
func (h *Hypergraph) ExpectParents(index VertexIndex) map[VertexIndex]*Parent {
	return h.expectVertex(index).ParentsSnapshot()
}

// ChildPattern implements PatternSource for path.go's move operators.
func (h *Hypergraph) ChildPattern(idx VertexIndex, pid PatternId) (Pattern, bool) {
	h.mapMu.RLock()
	v, ok := h.vertices.Get(idx)
	h.mapMu.RUnlock()
	if !ok {
		return nil, false
	}
	return v.Pattern(pid)
}

// Vertex is a non-panicking lookup, used by read-only callers that want to
// handle "not found" gracefully instead of relying on the invariant panic.
func (h *Hypergraph) Vertex(index VertexIndex) (*Vertex, bool) {
	h.mapMu.RLock()
	defer h.mapMu.RUnlock()
	return h.vertices.Get(index)
}

// Len returns the number of vertices currently stored (atoms included).
func (h *Hypergraph) Len() int {
	h.mapMu.RLock()
	defer h.mapMu.RUnlock()
	return h.vertices.Size()
}

// allocLocked mints a fresh VertexIndex and key, then stores an empty vertex
// shell. Callers must hold h.mapMu (write).
func (h *Hypergraph) allocLocked(width uint64) *Vertex {
	idx := VertexIndex(h.nextIdx.Add(1) - 1)
	v := &Vertex{
		Index:    idx,
		Key:      h.newKey(),
		Width:    width,
		Patterns: make(map[PatternId]Pattern),
		Parents:  make(map[VertexIndex]*Parent),
	}
	h.vertices.Put(idx, v)
	return v
}

// InsertAtom inserts an atom value, returning its Token. Idempotent per atom
// value.
func (h *Hypergraph) InsertAtom(atom any) Token {
	key := h.hashAtom(atom)

	h.mapMu.RLock()
	idx, ok := h.atomIndex[key]
	h.mapMu.RUnlock()
	if ok {
		return Token{Index: idx, Width: 1}
	}

	h.mapMu.Lock()
	defer h.mapMu.Unlock()
	// re-check under write lock: another writer may have inserted the same
	// atom while we waited.
	if idx, ok := h.atomIndex[key]; ok {
		return Token{Index: idx, Width: 1}
	}
	v := h.allocLocked(1)
	h.atomIndex[key] = v.Index
	h.logger.Debug("insert_atom", slog.Any("atom", atom), slog.Uint64("index", uint64(v.Index)))
	return v.Token()
}

// expansionSignature flattens a token's canonical (first-pattern) expansion
// into a string of atom indices, used to detect that an identical expansion
// already exists before minting a new compound vertex; when one does, the
// children become an alternative pattern of it instead.
func (h *Hypergraph) expansionSignature(t Token) string {
	var sb strings.Builder
	h.writeExpansionSignature(&sb, t)
	return sb.String()
}

func (h *Hypergraph) writeExpansionSignature(sb *strings.Builder, t Token) {
	if t.IsAtom() {
		fmt.Fprintf(sb, "a%d,", t.Index)
		return
	}
	v := h.expectVertex(t.Index)
	_, pattern, ok := v.FirstPattern()
	if !ok {
		fmt.Fprintf(sb, "a%d,", t.Index)
		return
	}
	for _, child := range pattern {
		h.writeExpansionSignature(sb, child)
	}
}

// InsertPattern creates a new compound vertex from children, or, if a
// vertex with an identical expansion already exists, adds children as an
// alternative pattern of that vertex. Parents are back-linked atomically
// with the pattern insertion.
func (h *Hypergraph) InsertPattern(children Pattern) (Token, PatternId, error) {
	if len(children) == 0 {
		return Token{}, 0, ErrEmptyPattern
	}
	width := children.Width()

	sig := h.signatureOfPattern(children)

	// Look for an existing vertex of the same width and expansion. The scan
	// walks a snapshot of the vertex list without holding mapMu:
	// expansionSignature re-enters expectVertex, which read-locks mapMu, and
	// sync.RWMutex is not reentrant. Concurrent mutators are serialized by
	// the macro lock upstream, so the unlocked scan cannot miss a vertex
	// published before this call started.
	h.mapMu.RLock()
	snapshot := h.vertices.Values()
	h.mapMu.RUnlock()

	var target *Vertex
	for _, v := range snapshot {
		if v.Width != width || v.IsAtom() {
			continue
		}
		if h.expansionSignature(v.Token()) == sig {
			target = v
			break
		}
	}
	if target == nil {
		h.mapMu.Lock()
		target = h.allocLocked(width)
		h.mapMu.Unlock()
	}

	target.mu.Lock()
	// A pattern is disallowed when it would be identical to its single
	// child: a vertex with only one child pattern of length one.
	if len(children) == 1 && len(target.Patterns) == 0 {
		target.mu.Unlock()
		return Token{}, 0, fmt.Errorf("%w: single-child pattern is identical to its child", ErrEmptyPattern)
	}
	if pid, ok := target.findPatternLocked(children); ok {
		// Inserting a pattern the vertex already carries is a no-op: same
		// token, same pattern id, no duplicate decomposition.
		target.mu.Unlock()
		return target.Token(), pid, nil
	}
	pid := target.addPatternLocked(children)
	target.mu.Unlock()

	// Back-link parents. This must be atomic with the pattern
	// insertion as observed by other mutators; we hold the macro lock for
	// the whole insert/split/join pipeline (see insert.go), so a bare
	// InsertPattern call here only needs to avoid leaving a child's parent
	// map inconsistent with the vertex's own pattern map, which per-vertex
	// locking already guarantees one relation at a time.
	for i, child := range children {
		cv := h.expectVertex(child.Index)
		cv.mu.Lock()
		cv.addParentLocked(target.Index, width, pid, SubIndex(i))
		cv.mu.Unlock()
	}

	h.logger.Debug("insert_pattern",
		slog.Uint64("index", uint64(target.Index)),
		slog.Int("pattern_id", int(pid)),
		slog.Int("children", len(children)),
	)
	return target.Token(), pid, nil
}

func (h *Hypergraph) signatureOfPattern(children Pattern) string {
	var sb strings.Builder
	for _, c := range children {
		h.writeExpansionSignature(&sb, c)
	}
	return sb.String()
}

// InsertPatterns creates a single new vertex carrying every pattern in
// patterns as an alternate decomposition. All patterns must expand to the
// same atom sequence length (width); the first successful InsertPattern
// call mints (or locates) the vertex, subsequent ones add alternates to it.
func (h *Hypergraph) InsertPatterns(patterns []Pattern) (Token, error) {
	if len(patterns) == 0 {
		return Token{}, ErrEmptyPattern
	}
	tok, _, err := h.InsertPattern(patterns[0])
	if err != nil {
		return Token{}, err
	}
	for _, p := range patterns[1:] {
		if p.Width() != tok.Width {
			return Token{}, fmt.Errorf("%w: alternate pattern width %d != vertex width %d", ErrEmptyPattern, p.Width(), tok.Width)
		}
		if _, _, err := h.addAlternatePattern(tok.Index, p); err != nil {
			return Token{}, err
		}
	}
	return tok, nil
}

// addAlternatePattern appends pattern directly to the vertex at index
// (skipping the expansion-dedup search InsertPattern performs, since the
// caller already knows the target vertex).
func (h *Hypergraph) addAlternatePattern(index VertexIndex, children Pattern) (Token, PatternId, error) {
	target := h.expectVertex(index)
	target.mu.Lock()
	if pid, ok := target.findPatternLocked(children); ok {
		target.mu.Unlock()
		return target.Token(), pid, nil
	}
	pid := target.addPatternLocked(children)
	width := target.Width
	target.mu.Unlock()

	for i, child := range children {
		cv := h.expectVertex(child.Index)
		cv.mu.Lock()
		cv.addParentLocked(index, width, pid, SubIndex(i))
		cv.mu.Unlock()
	}
	return target.Token(), pid, nil
}

// AtomClass tags each atom of a sequence passed to new_atom_indices.
type AtomClass int

const (
	ClassKnown AtomClass = iota
	ClassNew
)

// AtomClassification pairs a Token with whether it was already present in
// the graph before this call.
type AtomClassification struct {
	Token Token
	Class AtomClass
}

// NewAtomIndices classifies every element of atoms as Known (already in the
// graph) or New (freshly minted by this call). Atoms are inserted
// eagerly (idempotently) regardless of classification.
type NewAtomIndices []AtomClassification

// NewAtomIndices classifies each atom in the input sequence.
func (h *Hypergraph) NewAtomIndices(atoms []any) NewAtomIndices {
	out := make(NewAtomIndices, 0, len(atoms))
	for _, atom := range atoms {
		key := h.hashAtom(atom)
		h.mapMu.RLock()
		_, known := h.atomIndex[key]
		h.mapMu.RUnlock()
		tok := h.InsertAtom(atom)
		class := ClassKnown
		if !known {
			class = ClassNew
		}
		out = append(out, AtomClassification{Token: tok, Class: class})
	}
	return out
}
