// Copyright 2022 Sylvain Müller. All rights reserved.
// Mount of this source code is governed by a Apache-2.0 license that can be found
// at https://github.com/tigerwill90/fox/blob/master/LICENSE.txt.

package hypergraph

import "fmt"

// PatternSource resolves a vertex's pattern by id. Hypergraph implements it;
// path.go is decoupled from the rest of the package through this interface
// so path mutators can be exercised against a fixture store in tests.
type PatternSource interface {
	ChildPattern(idx VertexIndex, pid PatternId) (Pattern, bool)
}

// IndexRoot anchors an IndexRangePath/IndexStartPath/IndexEndPath at one
// pattern of a vertex already present in the graph.
type IndexRoot struct {
	Vertex  VertexIndex
	Pattern PatternId
}

// SubPath is a rooted traversal address: root_entry anchors the position
// inside the root pattern, and Locs descends from there. The last element of
// Locs is the leaf at the finest granularity explored so far.
type SubPath struct {
	RootEntry SubIndex
	Locs      []ChildLocation
}

func (s SubPath) clone() SubPath {
	locs := make([]ChildLocation, len(s.Locs))
	copy(locs, s.Locs)
	return SubPath{RootEntry: s.RootEntry, Locs: locs}
}

// Role selects which of a Path's two frames (Start/End) an operation acts
// on; RoleRange paths carry both.
type Role int

const (
	RoleStart Role = iota
	RoleEnd
)

// RootKind discriminates whether a Path's root is a free-standing query
// pattern (not yet part of the graph) or an existing vertex's pattern.
//
// Only two role axes actually vary across path operations (direction and
// start-vs-end), so a single tagged Path struct with Kind/Role fields
// covers every variant without a type per role.
type RootKind int

const (
	RootFreePattern RootKind = iota
	RootIndex
)

// Kind discriminates the path variants: a range with two frames, or a
// single one-sided role path anchoring only a lower (Start) or upper (End)
// bound.
type Kind int

const (
	KindRange Kind = iota
	KindStart
	KindEnd
)

// Path is the single tagged-union path type. Depending on RootKind and
// Kind, only a subset of the fields are meaningful:
//
//	RootFreePattern + KindRange  -> PatternRangePath{Root: FreePattern, Start, End}
//	RootIndex       + KindRange  -> IndexRangePath{Root: IndexRoot, Start, End}
//	RootIndex       + KindStart  -> IndexStartPath{Root: IndexRoot, Start}
//	RootIndex       + KindEnd    -> IndexEndPath{Root: IndexRoot, End}
type Path struct {
	RootKind    RootKind
	Kind        Kind
	FreePattern Pattern
	IndexRoot   IndexRoot
	Start       SubPath
	End         SubPath
}

func (p Path) Clone() Path {
	cp := p
	cp.Start = p.Start.clone()
	cp.End = p.End.clone()
	if p.FreePattern != nil {
		cp.FreePattern = append(Pattern(nil), p.FreePattern...)
	}
	return cp
}

// rootPattern resolves the pattern the path's root_entry is positioned in.
func (p Path) rootPattern(src PatternSource) (Pattern, bool) {
	if p.RootKind == RootFreePattern {
		return p.FreePattern, true
	}
	return src.ChildPattern(p.IndexRoot.Vertex, p.IndexRoot.Pattern)
}

func (p *Path) subPath(role Role) *SubPath {
	if role == RoleStart {
		return &p.Start
	}
	return &p.End
}

// leafToken returns the token currently addressed by the given frame: the
// deepest ChildLocation's target child, or, if Locs is empty, the root
// pattern's child at root_entry.
func (p Path) leafToken(src PatternSource, role Role) (Token, error) {
	sp := p.subPath(role)
	if len(sp.Locs) == 0 {
		root, ok := p.rootPattern(src)
		if !ok {
			return Token{}, fmt.Errorf("%w: root pattern", ErrUnknownVertexIndex)
		}
		if int(sp.RootEntry) >= len(root) {
			return Token{}, fmt.Errorf("root_entry %d out of range", sp.RootEntry)
		}
		return root[sp.RootEntry], nil
	}
	last := sp.Locs[len(sp.Locs)-1]
	pattern, ok := src.ChildPattern(last.Parent, last.Pattern)
	if !ok {
		return Token{}, fmt.Errorf("%w: vertex %d", ErrUnknownVertexIndex, last.Parent)
	}
	if int(last.Sub) >= len(pattern) {
		return Token{}, fmt.Errorf("sub_index %d out of range", last.Sub)
	}
	return pattern[last.Sub], nil
}

// Append pushes loc onto role's path. loc must target the vertex whose
// position is the current leaf, i.e. loc.Parent must equal the index of the
// token leafToken currently resolves to.
func (p *Path) Append(src PatternSource, role Role, loc ChildLocation) error {
	leaf, err := p.leafToken(src, role)
	if err != nil {
		return err
	}
	if leaf.Index != loc.Parent {
		return fmt.Errorf("append: location parent %d does not match current leaf vertex %d", loc.Parent, leaf.Index)
	}
	sp := p.subPath(role)
	sp.Locs = append(sp.Locs, loc)
	return nil
}

// Pop removes the deepest location of role's path. It fails if the path is
// already at root_entry (nothing to pop).
func (p *Path) Pop(role Role) (ChildLocation, error) {
	sp := p.subPath(role)
	if len(sp.Locs) == 0 {
		return ChildLocation{}, fmt.Errorf("pop: path is empty")
	}
	last := sp.Locs[len(sp.Locs)-1]
	sp.Locs = sp.Locs[:len(sp.Locs)-1]
	return last, nil
}

// MoveResult reports whether a move_path step advanced the cursor
// (Continue) or ran off the edge of the outermost pattern (Break).
type MoveResult int

const (
	MoveContinue MoveResult = iota
	MoveBreak
)

// MoveRootIndex advances (dir=Right) or retracts (dir=Left) root_entry by
// one sub-index in the root pattern. Returns an error when that would move
// past the pattern's edge.
func (p *Path) MoveRootIndex(src PatternSource, role Role, dir Direction) (AtomPosition, error) {
	root, ok := p.rootPattern(src)
	if !ok {
		return 0, fmt.Errorf("%w: root pattern", ErrUnknownVertexIndex)
	}
	sp := p.subPath(role)
	next := int(sp.RootEntry)
	if dir == Right {
		next++
	} else {
		next--
	}
	if next < 0 || next >= len(root) {
		return 0, fmt.Errorf("move_root_index: out of range")
	}
	var delta uint64
	if dir == Right {
		delta = root[sp.RootEntry].Width
	} else {
		delta = root[next].Width
	}
	sp.RootEntry = SubIndex(next)
	return AtomPosition(delta), nil
}

// MovePath attempts to advance role's frame by one atomic step in dir: pop
// the deepest node, try to move within its containing pattern, and on
// failure recurse up until MoveRootIndex is reached.
func (p *Path) MovePath(src PatternSource, role Role, dir Direction) (MoveResult, AtomPosition, error) {
	sp := p.subPath(role)
	popped := make([]ChildLocation, 0, len(sp.Locs))

	for len(sp.Locs) > 0 {
		deepest := sp.Locs[len(sp.Locs)-1]
		pattern, ok := src.ChildPattern(deepest.Parent, deepest.Pattern)
		if !ok {
			return MoveBreak, 0, fmt.Errorf("%w: vertex %d", ErrUnknownVertexIndex, deepest.Parent)
		}
		next := int(deepest.Sub)
		if dir == Right {
			next++
		} else {
			next--
		}
		if next >= 0 && next < len(pattern) {
			var delta uint64
			if dir == Right {
				delta = pattern[deepest.Sub].Width
			} else {
				delta = pattern[next].Width
			}
			sp.Locs[len(sp.Locs)-1] = ChildLocation{Parent: deepest.Parent, Pattern: deepest.Pattern, Sub: SubIndex(next)}
			return MoveContinue, AtomPosition(delta), nil
		}
		// This frame is exhausted; pop it and try the parent frame.
		sp.Locs = sp.Locs[:len(sp.Locs)-1]
		popped = append(popped, deepest)
	}

	delta, err := p.MoveRootIndex(src, role, dir)
	if err != nil {
		// Restore popped frames: move_path only consumes them on success.
		for i := len(popped) - 1; i >= 0; i-- {
			sp.Locs = append(sp.Locs, popped[i])
		}
		return MoveBreak, 0, nil
	}
	return MoveContinue, delta, nil
}

// Lower replaces role's deepest frame with one nested a level deeper: it
// descends into the leaf vertex's first applicable pattern, used when the
// cursor's resolution must drop below a compound boundary.
func (p *Path) Lower(src PatternSource, role Role) error {
	leaf, err := p.leafToken(src, role)
	if err != nil {
		return err
	}
	if leaf.IsAtom() {
		return fmt.Errorf("lower: vertex %d is an atom, cannot descend further", leaf.Index)
	}
	pattern, ok := src.ChildPattern(leaf.Index, 0)
	pid := PatternId(0)
	if !ok {
		// pattern ids start at 0 and patterns are append-only and never
		// removed, so id 0 exists for any vertex that has ever had a
		// pattern; it is missing only for a vertex with no patterns.
		return fmt.Errorf("lower: vertex %d has no pattern 0", leaf.Index)
	}
	if len(pattern) == 0 {
		return fmt.Errorf("%w: vertex %d pattern 0", ErrEmptyPattern, leaf.Index)
	}
	sp := p.subPath(role)
	sp.Locs = append(sp.Locs, ChildLocation{Parent: leaf.Index, Pattern: pid, Sub: 0})
	return nil
}

// Raise is the inverse of Lower: it pops the deepest frame, producing a
// candidate one level up.
func (p *Path) Raise(role Role) (ChildLocation, error) {
	return p.Pop(role)
}
