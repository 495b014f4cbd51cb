// Copyright 2022 Sylvain Müller. All rights reserved.
// Mount of this source code is governed by a Apache-2.0 license that can be found
// at https://github.com/tigerwill90/fox/blob/master/LICENSE.txt.

package hypergraph

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorStateIsMatchesSentinels(t *testing.T) {
	cases := []struct {
		reason ErrorReason
		target error
	}{
		{ReasonNotFound, ErrNotFound},
		{ReasonEmptyPatterns, ErrEmptyQuery},
		{ReasonSingleIndex, ErrSingleAtomQuery},
		{ReasonUnnecessary, ErrUnnecessary},
	}
	for _, c := range cases {
		es := &ErrorState{Reason: c.reason}
		assert.Truef(t, errors.Is(es, c.target), "reason %s should match %v", c.reason, c.target)
	}
}

func TestErrorStateIsRejectsUnrelatedSentinel(t *testing.T) {
	es := &ErrorState{Reason: ReasonNoParents}
	assert.False(t, errors.Is(es, ErrUnnecessary))
}

func TestErrorStateErrorMessageNamesReason(t *testing.T) {
	es := &ErrorState{Reason: ReasonNoChildPatterns}
	assert.Contains(t, es.Error(), "NoChildPatterns")
}

func TestErrEmptyRangeWrapsSentinel(t *testing.T) {
	err := ErrEmptyRange(Token{Index: 3, Width: 5}, 0)
	assert.ErrorIs(t, err, errEmptyRangeSentinel)
}

func TestInvariantPanics(t *testing.T) {
	defer func() {
		r := recover()
		require.NotNil(t, r)
		assert.Contains(t, r.(string), "boom")
	}()
	invariant("boom %d", 42)
}
