// Copyright 2022 Sylvain Müller. All rights reserved.
// Mount of this source code is governed by a Apache-2.0 license that can be found
// at https://github.com/tigerwill90/fox/blob/master/LICENSE.txt.

package hypergraph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInsertAtomIdempotent(t *testing.T) {
	h := New()
	a1 := h.InsertAtom("x")
	a2 := h.InsertAtom("x")
	assert.Equal(t, a1, a2)
	assert.EqualValues(t, 1, h.Len())
}

func TestInsertPatternCreatesCompoundVertex(t *testing.T) {
	h := New()
	a := h.InsertAtom("a")
	b := h.InsertAtom("b")

	tok, pid, err := h.InsertPattern(Pattern{a, b})
	require.NoError(t, err)
	assert.EqualValues(t, 2, tok.Width)
	assert.EqualValues(t, 0, pid)

	pat, ok := h.ExpectVertex(tok.Index).Pattern(pid)
	require.True(t, ok)
	assert.Equal(t, Pattern{a, b}, pat)
}

func TestInsertPatternDedupesIdenticalExpansion(t *testing.T) {
	h := New()
	a := h.InsertAtom("a")
	b := h.InsertAtom("b")

	before := h.Len()
	tok1, _, err := h.InsertPattern(Pattern{a, b})
	require.NoError(t, err)
	afterFirst := h.Len()
	assert.Equal(t, before+1, afterFirst)

	tok2, _, err := h.InsertPattern(Pattern{a, b})
	require.NoError(t, err)
	assert.Equal(t, tok1, tok2)
	assert.Equal(t, afterFirst, h.Len(), "inserting the same pattern twice must not grow the vertex count")
}

// TestInsertPatternIdenticalPatternKeepsPatternCount: the second insertion
// of [a,b] must not add a duplicate decomposition to the existing vertex.
func TestInsertPatternIdenticalPatternKeepsPatternCount(t *testing.T) {
	h := New()
	a := h.InsertAtom("a")
	b := h.InsertAtom("b")

	tok1, pid1, err := h.InsertPattern(Pattern{a, b})
	require.NoError(t, err)
	tok2, pid2, err := h.InsertPattern(Pattern{a, b})
	require.NoError(t, err)

	assert.Equal(t, tok1, tok2)
	assert.Equal(t, pid1, pid2)
	assert.Len(t, h.ExpectChildPatterns(tok1.Index), 1)
}

func TestInsertPatternRejectsEmpty(t *testing.T) {
	h := New()
	_, _, err := h.InsertPattern(nil)
	assert.ErrorIs(t, err, ErrEmptyPattern)
}

func TestInsertPatternRejectsSingleChildOnFreshVertex(t *testing.T) {
	h := New()
	a := h.InsertAtom("a")
	_, _, err := h.InsertPattern(Pattern{a})
	assert.ErrorIs(t, err, ErrEmptyPattern)
}

func TestInsertPatternsAddsAlternates(t *testing.T) {
	h := New()
	a := h.InsertAtom("a")
	b := h.InsertAtom("b")
	c := h.InsertAtom("c")
	ab, _, err := h.InsertPattern(Pattern{a, b})
	require.NoError(t, err)

	tok, err := h.InsertPatterns([]Pattern{{ab, c}, {a, b, c}})
	require.NoError(t, err)
	assert.EqualValues(t, 3, tok.Width)

	patterns := h.ExpectChildPatterns(tok.Index)
	assert.Len(t, patterns, 2)
}

func TestNewAtomIndicesClassifiesKnownAndNew(t *testing.T) {
	h := New()
	h.InsertAtom("a")

	out := h.NewAtomIndices([]any{"a", "b", "a"})
	require.Len(t, out, 3)
	assert.Equal(t, ClassKnown, out[0].Class)
	assert.Equal(t, ClassNew, out[1].Class)
	assert.Equal(t, ClassKnown, out[2].Class, "the second occurrence of a was already known before this call started")
}

func TestVertexParentBacklinkIsAtomicWithPatternInsertion(t *testing.T) {
	h := New()
	a := h.InsertAtom("a")
	b := h.InsertAtom("b")
	ab, pid, err := h.InsertPattern(Pattern{a, b})
	require.NoError(t, err)

	parents := h.ExpectParents(a.Index)
	rel, ok := parents[ab.Index]
	require.True(t, ok)
	assert.True(t, rel.has(pid, 0))

	parentsB := h.ExpectParents(b.Index)
	relB, ok := parentsB[ab.Index]
	require.True(t, ok)
	assert.True(t, relB.has(pid, 1))
}
