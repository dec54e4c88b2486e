package autofile

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"golang.org/x/sync/errgroup"

	"autoctl/internal/bifdiag"
	"autoctl/internal/logging"
)

// Paths names the three files that make up a stored diagram. Empty fields
// are skipped.
type Paths struct {
	Diagram     string // b.xxx
	Solution    string // s.xxx
	Diagnostics string // d.xxx
}

// Stager receives file contents for a transactional write.
type Stager interface {
	Stage(path string, allowEmpty bool, write func(io.Writer) error) error
}

// LoadDiagram reads whichever of the three files exist, concurrently, and
// joins them. It fails with fs.ErrNotExist when none exists.
func LoadDiagram(ctx context.Context, p Paths) (*bifdiag.Diagram, error) {
	timer := logging.StartTimer(logging.CategoryArtifact, "load diagram "+p.Diagram)
	defer timer.Stop()

	var (
		branches []*bifdiag.Branch
		sols     []*bifdiag.Solution
		sections []DiagnosticSection
		found    = make([]bool, 3)
	)
	g, ctx := errgroup.WithContext(ctx)
	read := func(i int, path string, parse func(io.Reader) error) {
		if path == "" {
			return
		}
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			f, err := os.Open(path)
			if errors.Is(err, fs.ErrNotExist) {
				return nil
			}
			if err != nil {
				return err
			}
			defer f.Close()
			found[i] = true
			if err := parse(f); err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}
			return nil
		})
	}
	read(0, p.Diagram, func(r io.Reader) (err error) {
		branches, err = ParseBranches(r)
		return err
	})
	read(1, p.Solution, func(r io.Reader) (err error) {
		sols, err = ParseSolutions(r)
		return err
	})
	read(2, p.Diagnostics, func(r io.Reader) (err error) {
		sections, err = ParseDiagnostics(r)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if !found[0] && !found[1] && !found[2] {
		return nil, fmt.Errorf("no diagram files among %s, %s, %s: %w", p.Diagram, p.Solution, p.Diagnostics, fs.ErrNotExist)
	}
	logging.ArtifactDebug("loaded %s: %d branches, %d solutions, %d diagnostic sections",
		p.Diagram, len(branches), len(sols), len(sections))
	return Join(branches, sols, sections), nil
}

// Join assembles a diagram from separately parsed parts. Solutions pick up
// the columns and constants of the branch row carrying the same label;
// diagnostic sections attach to branches by position when the counts agree
// and by branch number otherwise. A section naming no known branch goes to
// the last branch; with no branches at all it is dropped.
func Join(branches []*bifdiag.Branch, sols []*bifdiag.Solution, sections []DiagnosticSection) *bifdiag.Diagram {
	d := &bifdiag.Diagram{Branches: branches, Solutions: sols}

	rows := make(map[[2]int]*bifdiag.Solution)
	byID := make(map[int]*bifdiag.Solution)
	for _, b := range branches {
		for _, p := range b.Points {
			if !p.Label.Labeled() {
				continue
			}
			rows[[2]int{p.Label.Branch, p.Label.ID}] = p
			if _, seen := byID[p.Label.ID]; !seen {
				byID[p.Label.ID] = p
			}
		}
	}
	for _, s := range sols {
		row, ok := rows[[2]int{s.Label.Branch, s.Label.ID}]
		if !ok {
			row, ok = byID[s.Label.ID]
		}
		if ok {
			s.Columns = append([]bifdiag.Field(nil), row.Columns...)
			s.Constants = row.Constants
		}
	}

	switch {
	case len(sections) == 0:
	case len(sections) == len(branches):
		for i, sec := range sections {
			branches[i].Diagnostics = append(branches[i].Diagnostics, sec.Lines...)
		}
	default:
		for _, sec := range sections {
			target := findBranch(d, sec.Branch)
			if target == nil {
				if len(d.Branches) == 0 {
					logging.ArtifactDebug("dropping %d diagnostic lines of branch %d: no branches", len(sec.Lines), sec.Branch)
					continue
				}
				target = d.Branches[len(d.Branches)-1]
				logging.ArtifactDebug("diagnostics of unknown branch %d attached to branch %d", sec.Branch, target.Number)
			}
			target.Diagnostics = append(target.Diagnostics, sec.Lines...)
		}
	}
	return d
}

func findBranch(d *bifdiag.Diagram, number int) *bifdiag.Branch {
	for _, b := range d.Branches {
		if b.Number == number {
			return b
		}
	}
	return nil
}

// WriteDiagram stages the b, s and d files of d. The diagram file must end
// up non-empty; solution and diagnostics files may be empty.
func WriteDiagram(st Stager, p Paths, d *bifdiag.Diagram) error {
	if p.Diagram != "" {
		if err := st.Stage(p.Diagram, false, func(w io.Writer) error {
			return EncodeBranches(w, d.Branches)
		}); err != nil {
			return err
		}
	}
	if p.Solution != "" {
		if err := st.Stage(p.Solution, true, func(w io.Writer) error {
			return EncodeSolutions(w, d.Solutions)
		}); err != nil {
			return err
		}
	}
	if p.Diagnostics != "" {
		if err := st.Stage(p.Diagnostics, true, func(w io.Writer) error {
			return EncodeDiagnostics(w, d.Branches)
		}); err != nil {
			return err
		}
	}
	return nil
}
