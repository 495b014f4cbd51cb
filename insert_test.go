// Copyright 2022 Sylvain Müller. All rights reserved.
// Mount of this source code is governed by a Apache-2.0 license that can be found
// at https://github.com/tigerwill90/fox/blob/master/LICENSE.txt.

package hypergraph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInsertRejectsEmptySequence(t *testing.T) {
	h := New()
	_, err := h.Insert(nil)
	var es *ErrorState
	require.ErrorAs(t, err, &es)
	assert.Equal(t, ReasonEmptyPatterns, es.Reason)
}

func TestInsertSingleTokenIsDegenerate(t *testing.T) {
	h := New()
	a := h.InsertAtom("a")
	_, err := h.Insert([]Token{a})
	var es *ErrorState
	require.ErrorAs(t, err, &es)
	assert.Equal(t, ReasonSingleIndex, es.Reason)
	require.NotNil(t, es.Found)
	assert.Equal(t, a, es.Found.RootParent)
}

// TestInsertNarrowsExistingSuperset: the graph already
// contains a strict superset (abcd) of the queried sequence, so Insert must
// narrow it down to the existing ab vertex rather than minting a new one.
func TestInsertNarrowsExistingSuperset(t *testing.T) {
	h, named := buildScenarioGraph(t)
	before := h.Len()

	tok, err := h.Insert([]Token{named["a"], named["b"]})
	require.NoError(t, err)
	assert.Equal(t, named["ab"], tok)
	assert.Equal(t, before, h.Len())
}

// TestInsertIdempotence: the
// same narrowing query applied twice returns the same token and never grows
// the vertex count.
func TestInsertIdempotence(t *testing.T) {
	h, named := buildScenarioGraph(t)

	first, err := h.Insert([]Token{named["a"], named["b"]})
	require.NoError(t, err)
	afterFirst := h.Len()

	second, err := h.Insert([]Token{named["a"], named["b"]})
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, afterFirst, h.Len())
}

func TestInsertNarrowsToExistingTriple(t *testing.T) {
	h, named := buildScenarioGraph(t)
	before := h.Len()

	tok, err := h.Insert([]Token{named["a"], named["b"], named["c"]})
	require.NoError(t, err)
	assert.Equal(t, named["abc"], tok)
	assert.Equal(t, before, h.Len())
}

// TestInsertExtendsWithNovelSuffix exercises the "extend"
// path: the search's best match covers a genuine prefix of the query (ab)
// but the graph has nothing wider, so the unmatched tail must be composed
// as new material.
func TestInsertExtendsWithNovelSuffix(t *testing.T) {
	h, named := buildScenarioGraph(t)
	e := h.InsertAtom("e")
	before := h.Len()

	tok, err := h.Insert([]Token{named["a"], named["b"], e})
	require.NoError(t, err)
	assert.EqualValues(t, 3, tok.Width)
	assert.Greater(t, h.Len(), before, "composing ab with the novel atom e must mint a new vertex")

	pat, ok := h.ExpectVertex(tok.Index).Pattern(0)
	require.True(t, ok)
	assert.Equal(t, Pattern{named["ab"], e}, pat)
}

// totalPatterns counts every pattern across every vertex, the graph-hygiene
// companion to Len: repeated inserts must not accrete duplicate alternate
// decompositions even when the vertex count stays flat.
func totalPatterns(h *Hypergraph) int {
	var n int
	for _, v := range h.vertices.Values() {
		n += len(v.ChildPatterns())
	}
	return n
}

func TestInsertIdempotenceDoesNotAccretePatterns(t *testing.T) {
	h, named := buildScenarioGraph(t)

	_, err := h.Insert([]Token{named["a"], named["b"]})
	require.NoError(t, err)
	afterFirst := totalPatterns(h)

	_, err = h.Insert([]Token{named["a"], named["b"]})
	require.NoError(t, err)
	assert.Equal(t, afterFirst, totalPatterns(h), "re-inserting must not add duplicate alternate patterns")
}

// TestInsertInitNarrowsRoot drives the split/join stages directly from an interval
// plan, without the search step Insert performs first.
func TestInsertInitNarrowsRoot(t *testing.T) {
	h, named := buildScenarioGraph(t)

	tok, err := h.InsertInit(InitInterval{Root: named["abcd"], EndBound: 2})
	require.NoError(t, err)
	assert.Equal(t, named["ab"], tok)
}

func TestInsertInitFullWidthIsUnnecessary(t *testing.T) {
	h, named := buildScenarioGraph(t)

	tok, err := h.InsertInit(InitInterval{Root: named["abcd"], EndBound: 4})
	var es *ErrorState
	require.ErrorAs(t, err, &es)
	assert.Equal(t, ReasonUnnecessary, es.Reason)
	assert.Equal(t, named["abcd"], tok, "the degenerate full-width plan still resolves to the root itself")
}

func TestInsertInitZeroBoundIsEmptyRange(t *testing.T) {
	h, named := buildScenarioGraph(t)

	_, err := h.InsertInit(InitInterval{Root: named["abcd"], EndBound: 0})
	var es *ErrorState
	require.ErrorAs(t, err, &es)
	assert.Equal(t, ReasonEmptyRange, es.Reason)
}

// TestInsertOfWhollyUnrelatedAtomsReportsNoParents:
// a search miss with no partial match at all (neither atom has ever been
// composed with anything) surfaces as ReasonNoParents; composing genuinely
// fresh material this way is the caller's job (see read.go's New-run
// handling, which calls InsertPattern directly instead of Insert).
func TestInsertOfWhollyUnrelatedAtomsReportsNoParents(t *testing.T) {
	h := New()
	x := h.InsertAtom("x")
	y := h.InsertAtom("y")

	_, err := h.Insert([]Token{x, y})
	var es *ErrorState
	require.ErrorAs(t, err, &es)
	assert.Equal(t, ReasonNoParents, es.Reason)
}
