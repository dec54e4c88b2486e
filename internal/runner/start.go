package runner

import "autoctl/internal/bifdiag"

// Start is the optional starting data of a configure, load or run call.
// It is a closed set of variants built with StartNone, StartName,
// StartSolution, StartDiagram and StartRunner. A nil Start is StartNone.
type Start interface {
	isStart()
}

type (
	noStart       struct{}
	nameStart     string
	solutionStart struct{ solution *bifdiag.Solution }
	diagramStart  struct{ diagram *bifdiag.Diagram }
	runnerStart   struct{ runner *Runner }
)

func (noStart) isStart()       {}
func (nameStart) isStart()     {}
func (solutionStart) isStart() {}
func (diagramStart) isStart()  {}
func (runnerStart) isStart()   {}

// StartNone configures the runner in place.
func StartNone() Start { return noStart{} }

// StartName fills every file role not given explicitly from the artifact
// set called name.
func StartName(name string) Start { return nameStart(name) }

// StartSolution restarts from s.
func StartSolution(s *bifdiag.Solution) Start { return solutionStart{solution: s} }

// StartDiagram restarts from the solution selected by IRS in d (or its last
// solution). The call works on a scratch runner, so the receiver keeps its
// configuration.
func StartDiagram(d *bifdiag.Diagram) Start { return diagramStart{diagram: d} }

// StartRunner targets r instead of the receiver.
func StartRunner(r *Runner) Start { return runnerStart{runner: r} }
