// Copyright 2022 Sylvain Müller. All rights reserved.
// Mount of this source code is governed by a Apache-2.0 license that can be found
// at https://github.com/tigerwill90/fox/blob/master/LICENSE.txt.

package hypergraph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJoinChildrenSinglePassthrough(t *testing.T) {
	h := New()
	a := h.InsertAtom("a")
	before := h.Len()

	tok, err := h.JoinChildren(Pattern{a})
	require.NoError(t, err)
	assert.Equal(t, a, tok)
	assert.Equal(t, before, h.Len(), "a single-element join must not mint a vertex")
}

func TestJoinChildrenRejectsEmpty(t *testing.T) {
	h := New()
	_, err := h.JoinChildren(nil)
	assert.ErrorIs(t, err, ErrEmptyPattern)
}

func TestJoinChildrenComposesMultiple(t *testing.T) {
	h := New()
	a := h.InsertAtom("a")
	b := h.InsertAtom("b")

	tok, err := h.JoinChildren(Pattern{a, b})
	require.NoError(t, err)
	assert.EqualValues(t, 2, tok.Width)
}

func TestNodeMergeCtxMaterializeBoundaryCleanSplit(t *testing.T) {
	h, named := buildScenarioGraph(t)
	ctx := newNodeMergeCtx(h)

	pre, post, err := ctx.MaterializeBoundary(named["abc"], 2, PositionPost)
	require.NoError(t, err)
	assert.Equal(t, Pattern{named["ab"]}, pre)
	assert.Equal(t, Pattern{named["c"]}, post)

	patterns := h.ExpectChildPatterns(named["abc"].Index)
	found := false
	for _, p := range patterns {
		if len(p) == 3 && p[0] == named["a"] && p[1] == named["b"] && p[2] == named["c"] {
			found = true
		}
	}
	assert.True(t, found, "abc's [a,bc] alternate must also get its boundary materialized, not just the canonical [ab,c] pattern")
}

func TestNodeMergeCtxMaterializeBoundaryDegenerateOffsets(t *testing.T) {
	h, named := buildScenarioGraph(t)
	ctx := newNodeMergeCtx(h)

	pre, post, err := ctx.MaterializeBoundary(named["abc"], 0, PositionPre)
	require.NoError(t, err)
	assert.Empty(t, pre)
	assert.Equal(t, Pattern{named["abc"]}, post)

	pre, post, err = ctx.MaterializeBoundary(named["abc"], named["abc"].Width, PositionPost)
	require.NoError(t, err)
	assert.Equal(t, Pattern{named["abc"]}, pre)
	assert.Empty(t, post)
}

func TestJoinRangeFullWidthIsNoOp(t *testing.T) {
	h, named := buildScenarioGraph(t)
	before := h.Len()

	tok, err := h.JoinRange(named["abcd"], 0, AtomPosition(named["abcd"].Width))
	require.NoError(t, err)
	assert.Equal(t, named["abcd"], tok)
	assert.Equal(t, before, h.Len())
}

func TestJoinRangeNarrowsToExistingPrefix(t *testing.T) {
	h, named := buildScenarioGraph(t)
	before := h.Len()

	tok, err := h.JoinRange(named["abcd"], 0, 3)
	require.NoError(t, err)
	assert.Equal(t, named["abc"], tok)
	assert.Equal(t, before, h.Len(), "abc already exists, no new vertex should be minted")
}

func TestJoinRangeNarrowsThroughCleanNestedBoundary(t *testing.T) {
	h, named := buildScenarioGraph(t)
	before := h.Len()

	tok, err := h.JoinRange(named["abcd"], 0, 2)
	require.NoError(t, err)
	assert.Equal(t, named["ab"], tok)
	assert.Equal(t, before, h.Len(), "ab already exists, no new vertex should be minted")
}

func TestJoinRangeRejectsEmptyRange(t *testing.T) {
	h, named := buildScenarioGraph(t)
	_, err := h.JoinRange(named["abcd"], 2, 2)
	assert.Error(t, err)
}

func TestJoinRangeRejectsOutOfBoundsEnd(t *testing.T) {
	h, named := buildScenarioGraph(t)
	_, err := h.JoinRange(named["abcd"], 0, AtomPosition(named["abcd"].Width)+1)
	assert.Error(t, err)
}
