// Copyright 2022 Sylvain Müller. All rights reserved.
// Mount of this source code is governed by a Apache-2.0 license that can be found
// at https://github.com/tigerwill90/fox/blob/master/LICENSE.txt.

package hypergraph

import (
	"errors"
	"fmt"
	"runtime"
)

// Sentinel errors returned by the public API. Callers should compare with
// errors.Is.
var (
	ErrNotFound           = errors.New("ancestor not found")
	ErrEmptyQuery         = errors.New("empty query")
	ErrSingleAtomQuery    = errors.New("single-atom query")
	ErrUnnecessary        = errors.New("insert is unnecessary, query already complete")
	ErrEmptyPattern       = errors.New("pattern must not be empty")
	ErrUnknownToken       = errors.New("unknown token")
	ErrUnknownVertexIndex = errors.New("unknown vertex index")
	errEmptyRangeSentinel = errors.New("split offset must be strictly inside the vertex width")
	errOffsetOutOfRange   = errors.New("offset out of range for pattern")
)

// ErrEmptyRange reports that a split was requested at offset 0 or at/beyond
// tok's own width, which denotes an empty partition rather than a genuine
// split point.
func ErrEmptyRange(tok Token, offset uint64) error {
	return fmt.Errorf("%w: offset %d, width %d, vertex %d", errEmptyRangeSentinel, offset, tok.Width, tok.Index)
}

// ErrorReason classifies why a search or insert failed to produce a
// complete result.
type ErrorReason int

const (
	ReasonNone ErrorReason = iota
	ReasonEmptyPatterns
	ReasonNoParents
	ReasonNoChildPatterns
	ReasonNotFound
	ReasonErrorReasoningParent
	ReasonInvalidPattern
	ReasonInvalidChild
	ReasonSingleIndex
	ReasonParentMatchingPartially
	ReasonUnknownKey
	ReasonUnknownIndex
	ReasonUnknownToken
	ReasonUnnecessary
	ReasonEmptyRange
)

func (r ErrorReason) String() string {
	switch r {
	case ReasonEmptyPatterns:
		return "EmptyPatterns"
	case ReasonNoParents:
		return "NoParents"
	case ReasonNoChildPatterns:
		return "NoChildPatterns"
	case ReasonNotFound:
		return "NotFound"
	case ReasonErrorReasoningParent:
		return "ErrorReasoningParent"
	case ReasonInvalidPattern:
		return "InvalidPattern"
	case ReasonInvalidChild:
		return "InvalidChild"
	case ReasonSingleIndex:
		return "SingleIndex"
	case ReasonParentMatchingPartially:
		return "ParentMatchingPartially"
	case ReasonUnknownKey:
		return "UnknownKey"
	case ReasonUnknownIndex:
		return "UnknownIndex"
	case ReasonUnknownToken:
		return "UnknownToken"
	case ReasonUnnecessary:
		return "Unnecessary"
	case ReasonEmptyRange:
		return "EmptyRange"
	default:
		return "None"
	}
}

// ErrorState is returned by search and insert operations that did not reach
// a complete match. It carries the last partial Response, if any, so callers
// (insert, read) can seed further work from it instead of recomputing.
type ErrorState struct {
	Reason ErrorReason
	Found  *Response
}

func (e *ErrorState) Error() string {
	return fmt.Sprintf("hypergraph: %s", e.Reason)
}

// Is lets callers match an ErrorState against the coarse sentinel errors
// above via errors.Is.
func (e *ErrorState) Is(target error) bool {
	switch e.Reason {
	case ReasonNotFound:
		return target == ErrNotFound
	case ReasonEmptyPatterns:
		return target == ErrEmptyQuery
	case ReasonSingleIndex:
		return target == ErrSingleAtomQuery
	case ReasonUnnecessary:
		return target == ErrUnnecessary
	}
	return false
}

// invariant panics to signal a violated hypergraph invariant (a missing
// vertex, a dangling parent edge, a zero-length pattern). These indicate a
// caller bug or corrupted state, never a recoverable condition, so they
// panic rather than return an error. The panic message records the site
// that called the function which invoked invariant (runtime.Caller(2)).
func invariant(format string, args ...any) {
	_, file, line, ok := runtime.Caller(2)
	msg := fmt.Sprintf(format, args...)
	if ok {
		panic(fmt.Sprintf("%s (at %s:%d)", msg, file, line))
	}
	panic(msg)
}
