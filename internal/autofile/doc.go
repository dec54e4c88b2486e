// Package autofile reads and writes the AUTO artifact files: constants
// (c.xxx) and HomCont (h.xxx) files, bifurcation diagrams (b.xxx), solution
// files (s.xxx) and diagnostics (d.xxx).
//
// The layouts follow the AUTO text conventions closely enough for the
// solver and for round trips through this package. Byte-level
// compatibility with every AUTO release is not a goal.
package autofile
