// Copyright 2022 Sylvain Müller. All rights reserved.
// Mount of this source code is governed by a Apache-2.0 license that can be found
// at https://github.com/tigerwill90/fox/blob/master/LICENSE.txt.

package hypergraph

import "testing"

// insertAtoms inserts each of names as a distinct atom and returns their
// tokens keyed by name for readable test assertions.
func insertAtoms(t *testing.T, h *Hypergraph, names ...string) map[string]Token {
	t.Helper()
	out := make(map[string]Token, len(names))
	for _, n := range names {
		out[n] = h.InsertAtom(n)
	}
	return out
}

// mustPattern builds a Pattern from a variadic list of Tokens, the shape
// every test that wires up a fixture graph needs repeatedly.
func mustPattern(tokens ...Token) Pattern {
	return Pattern(tokens)
}

// mustInsertPattern inserts children as a new pattern and fails the test on
// error.
func mustInsertPattern(t *testing.T, h *Hypergraph, children Pattern) Token {
	t.Helper()
	tok, _, err := h.InsertPattern(children)
	if err != nil {
		t.Fatalf("InsertPattern(%v): %v", children, err)
	}
	return tok
}

// buildScenarioGraph wires up the shared fixture graph: atoms
// {a,b,c,d}, patterns ab=[a,b], bc=[b,c], cd=[c,d], then
// abc=[[ab,c],[a,bc]], bcd=[[bc,d],[b,cd]], abcd=[[abc,d],[a,bcd]].
func buildScenarioGraph(t *testing.T) (*Hypergraph, map[string]Token) {
	t.Helper()
	h := New()
	atoms := insertAtoms(t, h, "a", "b", "c", "d")

	ab := mustInsertPattern(t, h, mustPattern(atoms["a"], atoms["b"]))
	bc := mustInsertPattern(t, h, mustPattern(atoms["b"], atoms["c"]))
	cd := mustInsertPattern(t, h, mustPattern(atoms["c"], atoms["d"]))

	abc := mustInsertPattern(t, h, mustPattern(ab, atoms["c"]))
	if _, _, err := h.addAlternatePattern(abc.Index, mustPattern(atoms["a"], bc)); err != nil {
		t.Fatalf("add alternate abc pattern: %v", err)
	}

	bcd := mustInsertPattern(t, h, mustPattern(bc, atoms["d"]))
	if _, _, err := h.addAlternatePattern(bcd.Index, mustPattern(atoms["b"], cd)); err != nil {
		t.Fatalf("add alternate bcd pattern: %v", err)
	}

	abcd := mustInsertPattern(t, h, mustPattern(abc, atoms["d"]))
	if _, _, err := h.addAlternatePattern(abcd.Index, mustPattern(atoms["a"], bcd)); err != nil {
		t.Fatalf("add alternate abcd pattern: %v", err)
	}

	named := map[string]Token{
		"a": atoms["a"], "b": atoms["b"], "c": atoms["c"], "d": atoms["d"],
		"ab": ab, "bc": bc, "cd": cd, "abc": abc, "bcd": bcd, "abcd": abcd,
	}
	return h, named
}
