// Copyright 2022 Sylvain Müller. All rights reserved.
// Mount of this source code is governed by a Apache-2.0 license that can be found
// at https://github.com/tigerwill90/fox/blob/master/LICENSE.txt.

package hypergraph

import (
	"fmt"
	"strings"
)

// Cursor pairs a path with the atom position reached along it: how far the
// query has matched into the graph. It is a value type; copying a Cursor
// copies the path.
type Cursor struct {
	Path     Path
	Position AtomPosition
}

// String renders the cursor for debugging and slog attributes, e.g.
// "v4[p0].0...2@3" for a range path at atom position 3. Not a stable
// serialization format.
func (c Cursor) String() string {
	return fmt.Sprintf("%s@%d", c.Path, c.Position)
}

func (l ChildLocation) String() string {
	return fmt.Sprintf("v%d[p%d].%d", l.Parent, l.Pattern, l.Sub)
}

func (s SubPath) String() string {
	if len(s.Locs) == 0 {
		return fmt.Sprintf(".%d", s.RootEntry)
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, ".%d", s.RootEntry)
	for _, loc := range s.Locs {
		sb.WriteByte('/')
		sb.WriteString(loc.String())
	}
	return sb.String()
}

// String renders the path compactly: the root (a vertex/pattern pair or a
// free pattern's width) followed by whichever frames the kind carries.
func (p Path) String() string {
	var sb strings.Builder
	if p.RootKind == RootFreePattern {
		fmt.Fprintf(&sb, "free(w%d)", p.FreePattern.Width())
	} else {
		fmt.Fprintf(&sb, "v%d[p%d]", p.IndexRoot.Vertex, p.IndexRoot.Pattern)
	}
	switch p.Kind {
	case KindStart:
		sb.WriteString(p.Start.String())
	case KindEnd:
		sb.WriteString(p.End.String())
	default:
		sb.WriteString(p.Start.String())
		sb.WriteString("..")
		sb.WriteString(p.End.String())
	}
	return sb.String()
}
