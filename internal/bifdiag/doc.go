// Package bifdiag is the in-memory model of continuation output: solutions,
// branches and bifurcation diagrams, plus the composition algebra that
// operates on them (relabel, merge, subtract, append and label filtering).
//
// Every operation in this package is pure: it returns a new Diagram and
// leaves its inputs untouched. File persistence lives in internal/autofile
// and internal/compose.
//
// Type codes follow the AUTO numbering so that files round-trip without
// losing the distinction between, for example, algebraic and periodic
// branch points:
//
//	 1, 6  BP   branch point
//	 2, 5  LP   limit point (fold)
//	 3     HB   Hopf bifurcation
//	 4     RG   regular labeled point
//	-4     UZ   user-defined output point
//	 7     PD   period doubling
//	 8     TR   torus bifurcation
//	 9     EP   end point
//	-9     MX   no convergence / extremum
package bifdiag
