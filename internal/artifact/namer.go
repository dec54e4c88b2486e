// Package artifact maps logical artifact names onto AUTO file names and
// moves files in and out of place safely: staged two-phase commits with
// one-deep "~" backups, raw appends and backup copies.
package artifact

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"autoctl/internal/autofile"
)

// Kind is the role a file plays for a named artifact.
type Kind string

const (
	KindEquation    Kind = "equation"
	KindConstants   Kind = "constants"
	KindDiagram     Kind = "diagram"
	KindSolution    Kind = "solution"
	KindDiagnostics Kind = "diagnostics"
	KindHomCont     Kind = "homcont"
)

// Kinds lists every kind in file-set order.
var Kinds = []Kind{KindEquation, KindConstants, KindDiagram, KindSolution, KindDiagnostics, KindHomCont}

// Solver staging and output file names.
const (
	StageConstants = "fort.2"
	StageSolution  = "fort.3"
	StageHomCont   = "fort.12"

	OutDiagram     = "fort.7"
	OutSolution    = "fort.8"
	OutDiagnostics = "fort.9"
)

// DefaultTemplates are the AUTO naming conventions. Each template holds one
// %s for the base name.
func DefaultTemplates() map[Kind]string {
	return map[Kind]string{
		KindEquation:    "%s",
		KindConstants:   "c.%s",
		KindDiagram:     "b.%s",
		KindSolution:    "s.%s",
		KindDiagnostics: "d.%s",
		KindHomCont:     "h.%s",
	}
}

// Namer resolves names relative to Dir.
type Namer struct {
	Dir       string
	Templates map[Kind]string
}

// NewNamer returns a namer over dir. overrides replace individual default
// templates, keyed by kind name.
func NewNamer(dir string, overrides map[string]string) (*Namer, error) {
	n := &Namer{Dir: dir, Templates: DefaultTemplates()}
	for k, tmpl := range overrides {
		kind := Kind(k)
		if _, ok := n.Templates[kind]; !ok {
			return nil, fmt.Errorf("artifact: unknown kind %q", k)
		}
		if strings.Count(tmpl, "%s") != 1 {
			return nil, fmt.Errorf("artifact: template %q for %s must contain exactly one %%s", tmpl, k)
		}
		n.Templates[kind] = tmpl
	}
	return n, nil
}

// Path joins name onto Dir unless name is already absolute.
func (n *Namer) Path(name string) string {
	if filepath.IsAbs(name) || n.Dir == "" {
		return name
	}
	return filepath.Join(n.Dir, name)
}

func (n *Namer) template(kind Kind) string {
	if t, ok := n.Templates[kind]; ok {
		return t
	}
	return DefaultTemplates()[kind]
}

// Name applies the template for kind to base without joining Dir.
func (n *Namer) Name(kind Kind, base string) string {
	if base == "" {
		return ""
	}
	return fmt.Sprintf(n.template(kind), base)
}

// Resolve applies the template for kind to base. When the result is a glob
// pattern matching existing files the sorted matches are returned,
// otherwise the single literal path. Equation names are never globbed. An
// empty base resolves to nothing.
func (n *Namer) Resolve(kind Kind, base string) []string {
	if base == "" {
		return nil
	}
	name := n.Path(n.Name(kind, base))
	if kind == KindEquation {
		return []string{name}
	}
	matches, err := filepath.Glob(name)
	if err != nil || len(matches) == 0 {
		return []string{name}
	}
	sort.Strings(matches)
	return matches
}

// First returns the first resolved path for kind, or "".
func (n *Namer) First(kind Kind, base string) string {
	if paths := n.Resolve(kind, base); len(paths) > 0 {
		return paths[0]
	}
	return ""
}

// FileSet is the full set of files of one named artifact.
type FileSet struct {
	Equation    string
	Constants   string
	Diagram     string
	Solution    string
	Diagnostics string
	HomCont     string
}

// Set resolves every kind for base. An empty base names the solver's
// default outputs fort.7, fort.8 and fort.9.
func (n *Namer) Set(base string) FileSet {
	if base == "" {
		return n.Outputs()
	}
	return FileSet{
		Equation:    n.First(KindEquation, base),
		Constants:   n.First(KindConstants, base),
		Diagram:     n.First(KindDiagram, base),
		Solution:    n.First(KindSolution, base),
		Diagnostics: n.First(KindDiagnostics, base),
		HomCont:     n.First(KindHomCont, base),
	}
}

// Outputs names the solver output files.
func (n *Namer) Outputs() FileSet {
	return FileSet{
		Diagram:     n.Path(OutDiagram),
		Solution:    n.Path(OutSolution),
		Diagnostics: n.Path(OutDiagnostics),
	}
}

// Paths returns the diagram triple for the codecs.
func (f FileSet) Paths() autofile.Paths {
	return autofile.Paths{Diagram: f.Diagram, Solution: f.Solution, Diagnostics: f.Diagnostics}
}

// Triple lists the b, s and d paths in that order.
func (f FileSet) Triple() []string {
	return []string{f.Diagram, f.Solution, f.Diagnostics}
}
